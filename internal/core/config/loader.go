package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v2"

	"github.com/vietddude/oracle-updater/internal/core/cache"
	"github.com/vietddude/oracle-updater/internal/core/domain"
	"github.com/vietddude/oracle-updater/internal/infra/price"
	"github.com/vietddude/oracle-updater/internal/infra/rpc"
)

// Load reads configuration from a YAML file. An empty path builds the
// configuration from environment variables only.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	return &cfg, nil
}

// applyEnv fills unset fields from the flat variables used by scheduled deployments.
func applyEnv(cfg *AppConfig) error {
	setString(&cfg.Bitcoin.RPCURL, "BITCOIN_RPC_URL")
	setString(&cfg.Ethereum.RPCURL, "ETHEREUM_RPC_URL")
	setString(&cfg.Ethereum.PrivateKey, "PRIVATE_KEY")
	setString(&cfg.Ethereum.HashrateOracleAddress, "HASHRATE_ORACLE_ADDRESS")
	setString(&cfg.Ethereum.BTCUSDOracleAddress, "BTCUSD_ORACLE_ADDRESS")
	setString(&cfg.Cache.ParameterName, "CACHE_PARAMETER_NAME")
	setString(&cfg.AWS.Region, "AWS_REGION")
	setString(&cfg.Logging.Level, "LOG_LEVEL")

	if cfg.Ethereum.ChainID == 0 {
		if v := os.Getenv("CHAIN_ID"); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid CHAIN_ID %q: %w", v, err)
			}
			cfg.Ethereum.ChainID = domain.ChainID(id)
		}
	}
	return nil
}

func setString(dst *string, env string) {
	if *dst == "" {
		*dst = os.Getenv(env)
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	if cfg.Bitcoin.Timeout == 0 {
		cfg.Bitcoin.Timeout = 30 * time.Second
	}
	if cfg.Bitcoin.RateBurst == 0 {
		cfg.Bitcoin.RateBurst = 1
	}
	if cfg.Bitcoin.Retry.MaxAttempts == 0 {
		cfg.Bitcoin.Retry = rpc.DefaultRetryConfig
	}

	if cfg.Ethereum.TxTimeout == 0 {
		cfg.Ethereum.TxTimeout = 2 * time.Minute
	}

	if cfg.Price.URL == "" {
		cfg.Price.URL = price.DefaultCoinGeckoURL
	}
	if cfg.Price.Timeout == 0 {
		cfg.Price.Timeout = 10 * time.Second
	}

	if cfg.Index.Window == 0 {
		cfg.Index.Window = 144
	}

	if cfg.Cache.MaxSize == 0 {
		cfg.Cache.MaxSize = cache.DefaultMaxSize
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = ".cache.json"
	}
	if cfg.Cache.ParameterClient == "" {
		cfg.Cache.ParameterClient = ParameterClientSSM
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = selectBackend(cfg)
	}

	if cfg.Metrics.JobName == "" {
		cfg.Metrics.JobName = "oracle_update"
	}
}

// selectBackend uses the parameter store when a parameter name is configured
// and the process runs with an AWS region.
func selectBackend(cfg *AppConfig) string {
	if cfg.Cache.ParameterName != "" && cfg.AWS.Region != "" {
		return BackendParameterStore
	}
	return BackendFilesystem
}

// Validate checks everything needed before the first network call.
func (c *AppConfig) Validate() error {
	var errs []error

	if c.Bitcoin.RPCURL == "" {
		errs = append(errs, errors.New("bitcoin.rpc_url is required"))
	}
	if c.Ethereum.RPCURL == "" {
		errs = append(errs, errors.New("ethereum.rpc_url is required"))
	}
	if c.Ethereum.PrivateKey == "" {
		errs = append(errs, errors.New("ethereum.private_key is required"))
	}
	if !common.IsHexAddress(c.Ethereum.HashrateOracleAddress) {
		errs = append(errs, fmt.Errorf("ethereum.hashrate_oracle_address %q is not an address", c.Ethereum.HashrateOracleAddress))
	}
	if c.Ethereum.BTCUSDOracleAddress != "" && !common.IsHexAddress(c.Ethereum.BTCUSDOracleAddress) {
		errs = append(errs, fmt.Errorf("ethereum.btcusd_oracle_address %q is not an address", c.Ethereum.BTCUSDOracleAddress))
	}
	if _, err := domain.LookupChain(c.Ethereum.ChainID); err != nil {
		errs = append(errs, err)
	}

	if c.Index.Window < 1 {
		errs = append(errs, fmt.Errorf("index.window must be positive, got %d", c.Index.Window))
	}
	if c.Index.HashrateAssumption < 0 {
		errs = append(errs, fmt.Errorf("index.hashrate_assumption must not be negative"))
	}
	if c.Cache.MaxSize < 1 {
		errs = append(errs, fmt.Errorf("cache.max_size must be positive, got %d", c.Cache.MaxSize))
	}

	switch c.Cache.Backend {
	case BackendFilesystem:
		if c.Cache.Path == "" {
			errs = append(errs, errors.New("cache.path is required for the filesystem backend"))
		}
	case BackendParameterStore:
		if c.Cache.ParameterName == "" {
			errs = append(errs, errors.New("cache.parameter_name is required for the parameter_store backend"))
		}
		switch c.Cache.ParameterClient {
		case ParameterClientSSM:
		case ParameterClientRedis:
			if c.Redis.URL == "" {
				errs = append(errs, errors.New("redis.url is required for the redis parameter client"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown cache.parameter_client %q", c.Cache.ParameterClient))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.backend %q", c.Cache.Backend))
	}

	return errors.Join(errs...)
}

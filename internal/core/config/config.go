package config

import (
	"time"

	"github.com/vietddude/oracle-updater/internal/core/cache"
	"github.com/vietddude/oracle-updater/internal/core/domain"
	redisclient "github.com/vietddude/oracle-updater/internal/infra/redis"
	"github.com/vietddude/oracle-updater/internal/infra/rpc"
	"github.com/vietddude/oracle-updater/internal/infra/rpc/budget"
)

// Cache backend names.
const (
	BackendFilesystem     = "filesystem"
	BackendParameterStore = "parameter_store"
)

// Parameter store clients.
const (
	ParameterClientSSM   = "ssm"
	ParameterClientRedis = "redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Bitcoin  BitcoinConfig      `yaml:"bitcoin"`
	Ethereum EthereumConfig     `yaml:"ethereum"`
	Price    PriceConfig        `yaml:"price"`
	Index    IndexConfig        `yaml:"index"`
	Cache    CacheConfig        `yaml:"cache"`
	AWS      AWSConfig          `yaml:"aws"`
	Redis    redisclient.Config `yaml:"redis"`
	Metrics  MetricsConfig      `yaml:"metrics"`
	Logging  LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds HTTP server settings for serve mode.
type ServerConfig struct {
	Port     int           `yaml:"port"`
	Interval time.Duration `yaml:"interval"` // 0 = only on POST /run
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// BitcoinConfig holds the Bitcoin node connection.
type BitcoinConfig struct {
	RPCURL    string          `yaml:"rpc_url"`
	Timeout   time.Duration   `yaml:"timeout"`
	RateLimit float64         `yaml:"rpc_rate_limit"` // requests per second, 0 = unlimited
	RateBurst int             `yaml:"rpc_rate_burst"`
	Retry     rpc.RetryConfig `yaml:"retry"`
	Budget    budget.Config   `yaml:"budget"` // daily call quota, 0 = unlimited
}

// EthereumConfig holds the oracle chain connection and signer.
type EthereumConfig struct {
	RPCURL                string         `yaml:"rpc_url"`
	ChainID               domain.ChainID `yaml:"chain_id"`
	PrivateKey            string         `yaml:"private_key"`
	HashrateOracleAddress string         `yaml:"hashrate_oracle_address"`
	BTCUSDOracleAddress   string         `yaml:"btcusd_oracle_address"` // optional
	TxTimeout             time.Duration  `yaml:"tx_timeout"`
}

// PriceConfig holds the BTC/USD price API.
type PriceConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// IndexConfig holds index computation settings.
type IndexConfig struct {
	Window             int     `yaml:"window"`              // blocks in the fee average
	HashrateAssumption float64 `yaml:"hashrate_assumption"` // H/s
}

// CacheConfig holds block stats cache settings.
type CacheConfig struct {
	cache.Config    `yaml:",inline"`
	Backend         string `yaml:"backend"` // filesystem, parameter_store
	Path            string `yaml:"path"`
	ParameterName   string `yaml:"parameter_name"`
	ParameterClient string `yaml:"parameter_client"` // ssm, redis
}

// AWSConfig holds AWS client settings.
type AWSConfig struct {
	Region string `yaml:"region"`
}

// MetricsConfig holds Prometheus push settings for one-shot runs.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	JobName        string `yaml:"job_name"`
}

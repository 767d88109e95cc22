package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/oracle-updater/internal/core/cache"
	"github.com/vietddude/oracle-updater/internal/core/config"
	awsparam "github.com/vietddude/oracle-updater/internal/infra/aws"
	"github.com/vietddude/oracle-updater/internal/infra/chain/bitcoin"
	"github.com/vietddude/oracle-updater/internal/infra/chain/evm"
	"github.com/vietddude/oracle-updater/internal/infra/price"
	redisclient "github.com/vietddude/oracle-updater/internal/infra/redis"
	"github.com/vietddude/oracle-updater/internal/infra/rpc"
	"github.com/vietddude/oracle-updater/internal/infra/rpc/budget"
)

// App owns the process-lifetime connections behind a Job.
type App struct {
	Job     *Job
	closers []func() error
}

// NewApp connects every collaborator described by cfg. cfg must already be validated.
func NewApp(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (*App, error) {
	app := &App{}
	deps := Deps{}

	// 1. Cache backend
	backend, err := NewCacheBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, backend.Close)
	deps.Backend = backend.Backend
	if locker := backend.Locker(); locker != nil {
		deps.Locker = locker
	}

	// 2. Bitcoin node
	var opts []rpc.HTTPOption
	if cfg.Bitcoin.RateLimit > 0 {
		opts = append(opts, rpc.WithRateLimit(cfg.Bitcoin.RateLimit, cfg.Bitcoin.RateBurst))
	}
	btcProvider := rpc.NewHTTPProvider("bitcoind", cfg.Bitcoin.RPCURL, cfg.Bitcoin.Timeout, opts...)
	var clientOpts []rpc.ClientOption
	if cfg.Bitcoin.Budget.DailyQuota > 0 {
		clientOpts = append(clientOpts, rpc.WithBudget(budget.NewTracker(cfg.Bitcoin.Budget.DailyQuota)))
	}
	btcClient := rpc.NewClient(btcProvider, cfg.Bitcoin.Retry, clientOpts...)
	app.closers = append(app.closers, btcClient.Close)
	deps.Source = bitcoin.NewClient(btcClient)

	// 3. Oracle chain
	ethClient, err := evm.Dial(ctx, cfg.Ethereum.RPCURL, cfg.Ethereum.ChainID)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.closers = append(app.closers, func() error {
		ethClient.Close()
		return nil
	})

	auth, err := evm.NewTransactor(cfg.Ethereum.PrivateKey, cfg.Ethereum.ChainID)
	if err != nil {
		app.Close()
		return nil, err
	}
	log.Info("Oracle signer loaded", "address", auth.From.Hex(), "chain_id", cfg.Ethereum.ChainID)

	hashrate, err := evm.NewHashrateOracle(common.HexToAddress(cfg.Ethereum.HashrateOracleAddress), ethClient, auth, log)
	if err != nil {
		app.Close()
		return nil, err
	}
	deps.HashrateOracle = hashrate

	// 4. Optional price oracle
	if cfg.Ethereum.BTCUSDOracleAddress != "" {
		priceOracle, err := evm.NewBTCPriceOracle(common.HexToAddress(cfg.Ethereum.BTCUSDOracleAddress), ethClient, auth, log)
		if err != nil {
			app.Close()
			return nil, err
		}
		priceProvider := rpc.NewHTTPProvider("coingecko", cfg.Price.URL, cfg.Price.Timeout)
		priceClient := rpc.NewClient(priceProvider, rpc.DefaultRetryConfig)
		app.closers = append(app.closers, priceClient.Close)

		deps.PriceOracle = priceOracle
		deps.PriceSource = price.NewCoinGecko(priceClient)
	}

	app.Job = NewJob(Config{
		Window:             cfg.Index.Window,
		HashrateAssumption: cfg.Index.HashrateAssumption,
		Cache:              cfg.Cache.Config,
		TxTimeout:          cfg.Ethereum.TxTimeout,
	}, deps, log)

	return app, nil
}

// CacheBackend is the configured backend together with the connection it holds.
type CacheBackend struct {
	cache.Backend
	locker Locker
	close  func() error
}

// Locker returns the cross-process run lock, or nil when the backend has none.
func (b *CacheBackend) Locker() Locker {
	return b.locker
}

func (b *CacheBackend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// NewCacheBackend picks the backend named by cfg.Cache.Backend. The choice is
// made once here and never revisited.
func NewCacheBackend(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (*CacheBackend, error) {
	switch cfg.Cache.Backend {
	case config.BackendFilesystem:
		log.Info("Using filesystem cache", "path", cfg.Cache.Path)
		return &CacheBackend{Backend: cache.NewFileSystemBackend(cfg.Cache.Path)}, nil

	case config.BackendParameterStore:
		switch cfg.Cache.ParameterClient {
		case config.ParameterClientRedis:
			rc, err := redisclient.NewClient(cfg.Redis)
			if err != nil {
				return nil, err
			}
			log.Info("Using redis parameter cache", "parameter", cfg.Cache.ParameterName, "redis", redactURL(cfg.Redis.URL))
			return &CacheBackend{
				Backend: cache.NewParameterStoreBackend(cfg.Cache.ParameterName, rc),
				locker:  rc,
				close:   rc.Close,
			}, nil
		default:
			ps, err := awsparam.NewParameterStore(ctx, cfg.AWS.Region)
			if err != nil {
				return nil, err
			}
			log.Info("Using SSM parameter cache", "parameter", cfg.Cache.ParameterName, "region", cfg.AWS.Region)
			return &CacheBackend{Backend: cache.NewParameterStoreBackend(cfg.Cache.ParameterName, ps)}, nil
		}
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid"
	}
	return u.Redacted()
}

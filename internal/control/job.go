package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/oracle-updater/internal/core/cache"
	"github.com/vietddude/oracle-updater/internal/core/domain"
	"github.com/vietddude/oracle-updater/internal/indexing/metrics"
	"github.com/vietddude/oracle-updater/internal/indexing/reward"
	"github.com/vietddude/oracle-updater/internal/infra/chain"
	"github.com/vietddude/oracle-updater/internal/infra/price"
)

// HashrateOracle is the on-chain hashes-for-BTC store.
type HashrateOracle interface {
	StoredHashesForBTC(ctx context.Context) (*big.Int, error)
	SetHashesForBTC(ctx context.Context, value *big.Int) (string, error)
}

// PriceOracle is the optional on-chain BTC/USD store.
type PriceOracle interface {
	Decimals(ctx context.Context) (uint8, error)
	LatestPrice(ctx context.Context) (*big.Int, error)
	SetPrice(ctx context.Context, price *big.Int, decimals uint8) (string, error)
}

// PriceSource provides the off-chain BTC/USD rate.
type PriceSource interface {
	GetBTCUSDExchangeRate(ctx context.Context) (float64, error)
}

// Locker guards a run across processes sharing one cache backend.
type Locker interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name string) error
}

// Config holds job settings.
type Config struct {
	Window             int
	HashrateAssumption float64
	Cache              cache.Config
	TxTimeout          time.Duration
	LockTTL            time.Duration
}

// Deps are the collaborators of a job. PriceOracle, PriceSource and Locker are optional.
type Deps struct {
	Backend        cache.Backend
	Source         chain.BlockDataSource
	HashrateOracle HashrateOracle
	PriceOracle    PriceOracle
	PriceSource    PriceSource
	Locker         Locker
}

// Result describes one completed run.
type Result struct {
	RunID              string                `json:"run_id"`
	Snapshot           *domain.IndexSnapshot `json:"snapshot"`
	Index              float64               `json:"index"`
	StoredHashesForBTC *big.Int              `json:"stored_hashes_for_btc"`
	HashesUpdated      bool                  `json:"hashes_updated"`
	HashesTxHash       string                `json:"hashes_tx_hash,omitempty"`
	PriceChecked       bool                  `json:"price_checked"`
	PriceUpdated       bool                  `json:"price_updated"`
	PriceTxHash        string                `json:"price_tx_hash,omitempty"`
	Duration           time.Duration         `json:"duration"`
}

// Job computes the index and pushes it on-chain when it changed.
type Job struct {
	cfg     Config
	deps    Deps
	log     *slog.Logger
	running atomic.Bool
}

const lockName = "oracle-update"

func NewJob(cfg Config, deps Deps, log *slog.Logger) *Job {
	if log == nil {
		panic("control: nil logger")
	}
	if cfg.Window <= 0 {
		cfg.Window = reward.DefaultWindow
	}
	if cfg.HashrateAssumption <= 0 {
		cfg.HashrateAssumption = reward.DefaultHashrateAssumption
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = 2 * time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &Job{cfg: cfg, deps: deps, log: log}
}

// Run executes one job. Runs are serialized in process and, with a Locker,
// across processes; an overlapping run fails with domain.ErrJobInProgress.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	if !j.running.CompareAndSwap(false, true) {
		return nil, domain.ErrJobInProgress
	}
	defer j.running.Store(false)

	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	log := j.log.With("run_id", res.RunID)

	if j.deps.Locker != nil {
		ok, err := j.deps.Locker.AcquireLock(ctx, lockName, j.cfg.LockTTL)
		if err != nil {
			return nil, j.fail(log, start, fmt.Errorf("failed to acquire run lock: %w", err))
		}
		if !ok {
			return nil, domain.ErrJobInProgress
		}
		defer func() {
			if err := j.deps.Locker.ReleaseLock(context.WithoutCancel(ctx), lockName); err != nil {
				log.Warn("Failed to release run lock", "error", err)
			}
		}()
	}

	log.Info("Starting job")

	if err := j.run(ctx, log, res); err != nil {
		return nil, j.fail(log, start, err)
	}

	res.Duration = time.Since(start)
	metrics.JobRuns.WithLabelValues("success").Inc()
	metrics.JobDuration.Observe(res.Duration.Seconds())
	log.Info("Job completed", "duration", res.Duration)
	return res, nil
}

func (j *Job) fail(log *slog.Logger, start time.Time, err error) error {
	metrics.JobRuns.WithLabelValues("failure").Inc()
	metrics.JobDuration.Observe(time.Since(start).Seconds())
	log.Error("Job failed", "error", err)
	return err
}

func (j *Job) run(ctx context.Context, log *slog.Logger, res *Result) error {
	// A fresh cache per run keeps cold-start behaviour identical in serve mode
	c := cache.New(ctx, j.cfg.Cache, j.deps.Backend, log)
	if err := c.Ready(ctx); err != nil {
		return fmt.Errorf("cache not ready: %w", err)
	}
	log.Info("Cache ready", "entries", c.Len(), "max_size", c.MaxSize())

	calc := reward.NewCalculator(j.deps.Source, c, log, j.cfg.HashrateAssumption)
	snapshot, err := calc.GetLastIndexData(ctx, j.cfg.Window)
	if err != nil {
		// Keep whatever was fetched for the next run
		j.flush(context.WithoutCancel(ctx), log, c)
		return fmt.Errorf("failed to compute index: %w", err)
	}
	res.Snapshot = snapshot
	res.Index = reward.IndexFromSnapshot(snapshot, j.cfg.HashrateAssumption)

	metrics.ChainLatestBlock.Set(float64(snapshot.BlockNumber))
	hashesF, _ := new(big.Float).SetInt(snapshot.HashesForBTC).Float64()
	metrics.HashesForBTC.Set(hashesF)

	log.Info("Index computed",
		"block_number", snapshot.BlockNumber,
		"block_hash", snapshot.BlockHash,
		"subsidy", snapshot.Subsidy,
		"difficulty", snapshot.Difficulty,
		"average_tx_fees", snapshot.AverageTxFees,
		"hashes_per_block", snapshot.HashesPerBlock.String(),
		"hashes_for_btc", snapshot.HashesForBTC.String(),
		"index", res.Index,
	)

	j.flush(ctx, log, c)

	if err := j.updateHashesForBTC(ctx, log, res); err != nil {
		return err
	}

	if j.deps.PriceOracle != nil && j.deps.PriceSource != nil {
		if err := j.updatePrice(ctx, log, res); err != nil {
			return err
		}
	}
	return nil
}

func (j *Job) flush(ctx context.Context, log *slog.Logger, c *cache.Cache) {
	flushCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := c.Flush(flushCtx); err != nil {
		log.Warn("Cache flush interrupted", "error", err)
	}
}

func (j *Job) updateHashesForBTC(ctx context.Context, log *slog.Logger, res *Result) error {
	stored, err := j.deps.HashrateOracle.StoredHashesForBTC(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stored hashes for BTC: %w", err)
	}
	res.StoredHashesForBTC = stored

	computed := res.Snapshot.HashesForBTC
	log.Info("Hashes for BTC compared", "old", stored.String(), "new", computed.String())

	if stored.Cmp(computed) == 0 {
		metrics.OnchainUpdates.WithLabelValues("hashrate", "skipped").Inc()
		log.Info("Hashes for BTC update skipped")
		return nil
	}

	txCtx, cancel := context.WithTimeout(ctx, j.cfg.TxTimeout)
	defer cancel()

	hash, err := j.deps.HashrateOracle.SetHashesForBTC(txCtx, computed)
	if err != nil {
		metrics.OnchainUpdates.WithLabelValues("hashrate", "error").Inc()
		return fmt.Errorf("failed to update hashes for BTC: %w", err)
	}
	res.HashesUpdated = true
	res.HashesTxHash = hash
	metrics.OnchainUpdates.WithLabelValues("hashrate", "updated").Inc()
	log.Info("Hashes for BTC updated onchain", "tx", hash)
	return nil
}

func (j *Job) updatePrice(ctx context.Context, log *slog.Logger, res *Result) error {
	res.PriceChecked = true

	rate, err := j.deps.PriceSource.GetBTCUSDExchangeRate(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch BTC/USD price: %w", err)
	}

	decimals, err := j.deps.PriceOracle.Decimals(ctx)
	if err != nil {
		return fmt.Errorf("failed to read price oracle decimals: %w", err)
	}

	computed, err := price.ToFixedPoint(rate, decimals)
	if err != nil {
		return err
	}

	stored, err := j.deps.PriceOracle.LatestPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stored BTC/USD price: %w", err)
	}

	log.Info("BTC/USD price compared",
		"old", stored.String(),
		"new", computed.String(),
		"rate", rate,
		"decimals", decimals,
	)

	if stored.Cmp(computed) == 0 {
		metrics.OnchainUpdates.WithLabelValues("btcusd", "skipped").Inc()
		log.Info("BTC/USD price update skipped")
		return nil
	}

	txCtx, cancel := context.WithTimeout(ctx, j.cfg.TxTimeout)
	defer cancel()

	hash, err := j.deps.PriceOracle.SetPrice(txCtx, computed, decimals)
	if err != nil {
		metrics.OnchainUpdates.WithLabelValues("btcusd", "error").Inc()
		return fmt.Errorf("failed to update BTC/USD price: %w", err)
	}
	res.PriceUpdated = true
	res.PriceTxHash = hash
	metrics.OnchainUpdates.WithLabelValues("btcusd", "updated").Inc()
	log.Info("BTC/USD price updated onchain", "tx", hash)
	return nil
}

// IsInProgress reports whether err means another run holds the job.
func IsInProgress(err error) bool {
	return errors.Is(err, domain.ErrJobInProgress)
}

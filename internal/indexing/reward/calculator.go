package reward

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/big"

	"github.com/vietddude/oracle-updater/internal/core/cache"
	"github.com/vietddude/oracle-updater/internal/core/domain"
	"github.com/vietddude/oracle-updater/internal/indexing/metrics"
	"github.com/vietddude/oracle-updater/internal/infra/chain"
)

const (
	// DefaultWindow is one day of blocks at the target interval.
	DefaultWindow = 144

	// DefaultHashrateAssumption is the reference hashrate (100 TH/s) the
	// floating index is normalized to.
	DefaultHashrateAssumption = 100e12

	// difficultyToHashes converts difficulty to expected hashes per block (2^32).
	difficultyToHashes = 4294967296.0

	targetBlockTime = 600.0
	secondsPerDay   = 86400.0
	satoshisPerBTC  = 100_000_000.0
)

// StatsCache is the subset of the block stats cache the calculator needs.
type StatsCache interface {
	Get(key string) (domain.BlockStats, bool)
	Set(key string, stats domain.BlockStats)
}

// Calculator derives the reward index and the on-chain hashes-for-BTC value
// from block data, reading historical blocks through a cache-aside lookup.
type Calculator struct {
	source   chain.BlockDataSource
	cache    StatsCache
	log      *slog.Logger
	hashrate float64
}

// NewCalculator creates a calculator. A hashrate of 0 selects DefaultHashrateAssumption.
func NewCalculator(source chain.BlockDataSource, statsCache StatsCache, log *slog.Logger, hashrate float64) *Calculator {
	if log == nil {
		panic("reward: nil logger")
	}
	if hashrate <= 0 {
		hashrate = DefaultHashrateAssumption
	}
	return &Calculator{
		source:   source,
		cache:    statsCache,
		log:      log,
		hashrate: hashrate,
	}
}

// GetBlockDataCached returns the stats for height, fetching and caching them on a miss.
func (c *Calculator) GetBlockDataCached(ctx context.Context, height uint64) (domain.BlockStats, error) {
	key := cache.HeightKey(height)
	if stats, ok := c.cache.Get(key); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return stats, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	stats, err := c.source.GetBlockStats(ctx, height)
	if err != nil {
		return domain.BlockStats{}, err
	}
	c.cache.Set(key, stats)
	return stats, nil
}

// GetAverageFee returns the integer mean of totalfee over [lastHeight-n+1, lastHeight].
// Heights are resolved one at a time.
func (c *Calculator) GetAverageFee(ctx context.Context, n int, lastHeight uint64) (int64, error) {
	if n < 1 || lastHeight+1 < uint64(n) {
		return 0, fmt.Errorf("%w: %d blocks ending at %d", domain.ErrInvalidWindow, n, lastHeight)
	}

	var total int64
	first := lastHeight - uint64(n) + 1
	for h := first; h <= lastHeight; h++ {
		stats, err := c.GetBlockDataCached(ctx, h)
		if err != nil {
			return 0, fmt.Errorf("failed to get stats for block %d: %w", h, err)
		}
		total += stats.TotalFee
	}
	return total / int64(n), nil
}

// GetIndex returns BTC earned per day by the reference hashrate at the tip's
// difficulty, using the n-block average fee.
func (c *Calculator) GetIndex(ctx context.Context, n int) (float64, error) {
	snapshot, err := c.GetLastIndexData(ctx, n)
	if err != nil {
		return 0, err
	}
	return IndexFromSnapshot(snapshot, c.hashrate), nil
}

// GetLastIndexData computes the snapshot at the current tip.
func (c *Calculator) GetLastIndexData(ctx context.Context, n int) (*domain.IndexSnapshot, error) {
	info, err := c.source.GetBlockchainInfo(ctx)
	if err != nil {
		return nil, err
	}

	tip, err := c.GetBlockDataCached(ctx, info.Blocks)
	if err != nil {
		return nil, fmt.Errorf("failed to get tip stats: %w", err)
	}

	avgFee, err := c.GetAverageFee(ctx, n, info.Blocks)
	if err != nil {
		return nil, err
	}

	hashesPerBlock, err := HashesPerBlock(info.Difficulty)
	if err != nil {
		return nil, err
	}

	hashesForBTC, err := HashesForBTC(hashesPerBlock, avgFee+tip.Subsidy)
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", info.Blocks, err)
	}

	snapshot := &domain.IndexSnapshot{
		BlockNumber:    info.Blocks,
		BlockHash:      info.BestBlockHash,
		Subsidy:        tip.Subsidy,
		Difficulty:     info.Difficulty,
		AverageTxFees:  avgFee,
		HashesPerBlock: hashesPerBlock,
		HashesForBTC:   hashesForBTC,
	}

	c.log.Debug("index data computed",
		"block", snapshot.BlockNumber,
		"window", n,
		"avg_fee", avgFee,
		"subsidy", tip.Subsidy,
		"hashes_for_btc", hashesForBTC.String(),
	)
	return snapshot, nil
}

// HashesPerBlock returns round(difficulty * 2^32).
func HashesPerBlock(difficulty float64) (*big.Int, error) {
	if difficulty <= 0 || math.IsInf(difficulty, 0) || math.IsNaN(difficulty) {
		return nil, fmt.Errorf("invalid difficulty %v", difficulty)
	}
	// Values above 2^53 are already integral; Round only matters for tiny
	// regtest difficulties.
	rounded := math.Round(difficulty * difficultyToHashes)
	hashes, _ := new(big.Float).SetFloat64(rounded).Int(nil)
	return hashes, nil
}

// HashesForBTC returns floor(hashesPerBlock / reward). The result is the
// exact value stored on-chain, so no rounding is applied.
func HashesForBTC(hashesPerBlock *big.Int, reward int64) (*big.Int, error) {
	if reward <= 0 {
		return nil, domain.ErrZeroReward
	}
	return new(big.Int).Div(hashesPerBlock, big.NewInt(reward)), nil
}

// IndexFromSnapshot computes BTC per day for the given hashrate. The result is
// for logging only.
func IndexFromSnapshot(snapshot *domain.IndexSnapshot, hashrate float64) float64 {
	blocksPerDay := hashrate * secondsPerDay / snapshot.Difficulty / difficultyToHashes
	return blocksPerDay * float64(snapshot.AverageTxFees+snapshot.Subsidy) / satoshisPerBTC
}

// CalculateAvgHashesPerBlock scales the theoretical hashes per block at the tip
// by targetBlockTime / observed average block time over the last n blocks.
func (c *Calculator) CalculateAvgHashesPerBlock(ctx context.Context, n int) (*big.Int, error) {
	last, avgBlockTime, err := c.observedBlockTime(ctx, n)
	if err != nil {
		return nil, err
	}
	avg := last.Difficulty * difficultyToHashes * (targetBlockTime / avgBlockTime)
	hashes, _ := new(big.Float).SetFloat64(math.Round(avg)).Int(nil)
	return hashes, nil
}

// CalculateNetworkHashPS estimates the realized network hashrate over the last n blocks.
func (c *Calculator) CalculateNetworkHashPS(ctx context.Context, n int) (*big.Int, error) {
	last, avgBlockTime, err := c.observedBlockTime(ctx, n)
	if err != nil {
		return nil, err
	}
	hps := last.Difficulty * difficultyToHashes / avgBlockTime
	hashes, _ := new(big.Float).SetFloat64(math.Round(hps)).Int(nil)
	return hashes, nil
}

// observedBlockTime returns the tip header and the mean interval between the
// tip and the block n heights below it.
func (c *Calculator) observedBlockTime(ctx context.Context, n int) (*domain.BlockHeader, float64, error) {
	tipHeight, err := c.source.GetBlockCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	if n < 1 || tipHeight < uint64(n) {
		return nil, 0, fmt.Errorf("%w: %d blocks below %d", domain.ErrInvalidWindow, n, tipHeight)
	}

	last, err := c.headerAt(ctx, tipHeight)
	if err != nil {
		return nil, 0, err
	}
	first, err := c.headerAt(ctx, tipHeight-uint64(n))
	if err != nil {
		return nil, 0, err
	}

	if last.Time <= first.Time {
		return nil, 0, fmt.Errorf("non-increasing block time between %d and %d", first.Height, last.Height)
	}
	if last.Difficulty <= 0 {
		return nil, 0, fmt.Errorf("invalid difficulty %v at %d", last.Difficulty, last.Height)
	}

	return last, float64(last.Time-first.Time) / float64(n), nil
}

func (c *Calculator) headerAt(ctx context.Context, height uint64) (*domain.BlockHeader, error) {
	hash, err := c.source.GetBlockHash(ctx, height)
	if err != nil {
		return nil, err
	}
	return c.source.GetBlockHeader(ctx, hash)
}

// CoinbaseReward sums the coinbase outputs of the block at height, in satoshis.
// It requires a source that can decode raw transactions.
func (c *Calculator) CoinbaseReward(ctx context.Context, height uint64) (int64, error) {
	decoder, ok := c.source.(chain.CoinbaseSource)
	if !ok {
		return 0, fmt.Errorf("block source cannot decode transactions")
	}

	hash, err := c.source.GetBlockHash(ctx, height)
	if err != nil {
		return 0, err
	}
	block, err := c.source.GetBlock(ctx, hash)
	if err != nil {
		return 0, err
	}
	if len(block.TxIDs) == 0 {
		return 0, fmt.Errorf("block %d has no transactions", height)
	}

	values, err := decoder.GetTransactionOutputs(ctx, block.TxIDs[0])
	if err != nil {
		return 0, err
	}

	var total int64
	for _, v := range values {
		total += v
	}
	return total, nil
}

package chain

import (
	"context"

	"github.com/vietddude/oracle-updater/internal/core/domain"
)

// BlockDataSource is the boundary between the index calculator and a Bitcoin
// node. Implementations issue one upstream request per call.
type BlockDataSource interface {
	// GetBlockCount returns the height of the chain tip
	GetBlockCount(ctx context.Context) (uint64, error)

	// GetBlockHash returns the hash of the block at height
	GetBlockHash(ctx context.Context, height uint64) (string, error)

	// GetBlock fetches a block by hash (tx ids only)
	GetBlock(ctx context.Context, hash string) (*domain.Block, error)

	// GetBlockHeader fetches a block header by hash
	GetBlockHeader(ctx context.Context, hash string) (*domain.BlockHeader, error)

	// GetBlockStats returns subsidy and total fee for the block at height
	GetBlockStats(ctx context.Context, height uint64) (domain.BlockStats, error)

	// GetBlockchainInfo returns tip height and current difficulty
	GetBlockchainInfo(ctx context.Context) (*domain.ChainInfo, error)
}

// CoinbaseSource is implemented by sources that can decode raw transactions.
type CoinbaseSource interface {
	// GetTransactionOutputs returns the output values of txid in satoshis
	GetTransactionOutputs(ctx context.Context, txid string) ([]int64, error)
}

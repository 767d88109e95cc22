package domain

import "math/big"

// IndexSnapshot is the result of one index computation. It is never persisted.
type IndexSnapshot struct {
	BlockNumber   uint64  `json:"block_number"`
	BlockHash     string  `json:"block_hash,omitempty"`
	Subsidy       int64   `json:"subsidy"`
	Difficulty    float64 `json:"difficulty"`
	AverageTxFees int64   `json:"average_tx_fees"`

	// HashesPerBlock is round(difficulty * 2^32).
	HashesPerBlock *big.Int `json:"hashes_per_block"`

	// HashesForBTC is floor(HashesPerBlock / (AverageTxFees + Subsidy)).
	// This is the value written on-chain.
	HashesForBTC *big.Int `json:"hashes_for_btc"`
}

package domain

// Block is the subset of a Bitcoin block the index needs.
type Block struct {
	Hash       string
	Height     uint64
	Time       uint64 // epoch seconds
	Difficulty float64
	TxIDs      []string
}

// BlockHeader is the decoded result of getblockheader.
type BlockHeader struct {
	Hash              string
	Height            uint64
	Time              uint64
	MedianTime        uint64
	Difficulty        float64
	Bits              string
	Confirmations     int64
	PreviousBlockHash string
}

// ChainInfo is the subset of getblockchaininfo used by the calculator.
type ChainInfo struct {
	Blocks        uint64
	Difficulty    float64
	Time          uint64
	BestBlockHash string
}

package bitcoin

import (
	"context"
	"fmt"
	"math"

	"github.com/vietddude/oracle-updater/internal/core/domain"
	"github.com/vietddude/oracle-updater/internal/infra/rpc"
)

// satoshisPerBTC converts the node's BTC-denominated amounts.
const satoshisPerBTC = 100_000_000

// Client reads block data from a Bitcoin Core node over JSON-RPC 1.0.
type Client struct {
	client rpc.RPCClient
}

func NewClient(client rpc.RPCClient) *Client {
	return &Client{client: client}
}

func (c *Client) GetBlockCount(ctx context.Context) (uint64, error) {
	result, err := c.client.Execute(ctx, rpc.NewJSONRPC10Operation("getblockcount"))
	if err != nil {
		return 0, fmt.Errorf("failed to get block count: %w", err)
	}

	height, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("invalid block count response")
	}

	return uint64(height), nil
}

func (c *Client) GetBlockHash(ctx context.Context, height uint64) (string, error) {
	result, err := c.client.Execute(ctx, rpc.NewJSONRPC10Operation("getblockhash", height))
	if err != nil {
		return "", fmt.Errorf("failed to get block hash for %d: %w", height, err)
	}

	hash, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("invalid block hash response")
	}

	return hash, nil
}

func (c *Client) GetBlock(ctx context.Context, hash string) (*domain.Block, error) {
	// Verbosity 1 includes tx ids only
	result, err := c.client.Execute(ctx, rpc.NewJSONRPC10Operation("getblock", hash, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to get block %s: %w", hash, err)
	}

	blockData, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid block data format")
	}

	return parseBlock(blockData)
}

func (c *Client) GetBlockHeader(ctx context.Context, hash string) (*domain.BlockHeader, error) {
	result, err := c.client.Execute(ctx, rpc.NewJSONRPC10Operation("getblockheader", hash))
	if err != nil {
		return nil, fmt.Errorf("failed to get block header %s: %w", hash, err)
	}

	headerData, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid block header format")
	}

	return parseHeader(headerData)
}

func (c *Client) GetBlockStats(ctx context.Context, height uint64) (domain.BlockStats, error) {
	op := rpc.NewJSONRPC10Operation("getblockstats", height, []string{"subsidy", "totalfee"})
	result, err := c.client.Execute(ctx, op)
	if err != nil {
		return domain.BlockStats{}, fmt.Errorf("failed to get block stats for %d: %w", height, err)
	}

	statsData, ok := result.(map[string]any)
	if !ok {
		return domain.BlockStats{}, fmt.Errorf("invalid block stats format")
	}

	subsidy, ok := statsData["subsidy"].(float64)
	if !ok {
		return domain.BlockStats{}, fmt.Errorf("invalid subsidy")
	}
	totalFee, ok := statsData["totalfee"].(float64)
	if !ok {
		return domain.BlockStats{}, fmt.Errorf("invalid totalfee")
	}

	return domain.BlockStats{
		Subsidy:  int64(subsidy),
		TotalFee: int64(totalFee),
	}, nil
}

func (c *Client) GetBlockchainInfo(ctx context.Context) (*domain.ChainInfo, error) {
	result, err := c.client.Execute(ctx, rpc.NewJSONRPC10Operation("getblockchaininfo"))
	if err != nil {
		return nil, fmt.Errorf("failed to get blockchain info: %w", err)
	}

	infoData, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid blockchain info format")
	}

	blocks, ok := infoData["blocks"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid blocks")
	}
	difficulty, ok := infoData["difficulty"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid difficulty")
	}

	info := &domain.ChainInfo{
		Blocks:     uint64(blocks),
		Difficulty: difficulty,
	}
	if t, ok := infoData["time"].(float64); ok {
		info.Time = uint64(t)
	}
	if h, ok := infoData["bestblockhash"].(string); ok {
		info.BestBlockHash = h
	}
	return info, nil
}

// GetTransactionOutputs decodes txid (verbose) and returns its vout values in satoshis.
func (c *Client) GetTransactionOutputs(ctx context.Context, txid string) ([]int64, error) {
	result, err := c.client.Execute(ctx, rpc.NewJSONRPC10Operation("getrawtransaction", txid, true))
	if err != nil {
		return nil, fmt.Errorf("failed to get raw transaction %s: %w", txid, err)
	}

	txData, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid transaction format")
	}

	vout, ok := txData["vout"].([]any)
	if !ok {
		return nil, fmt.Errorf("invalid vout format")
	}

	values := make([]int64, 0, len(vout))
	for i, voutRaw := range vout {
		voutData, ok := voutRaw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid vout %d", i)
		}
		value, ok := voutData["value"].(float64)
		if !ok {
			return nil, fmt.Errorf("invalid vout %d value", i)
		}
		values = append(values, btcToSatoshis(value))
	}
	return values, nil
}

// btcToSatoshis rounds so that 0.1-style float artifacts do not drop a satoshi.
func btcToSatoshis(btc float64) int64 {
	return int64(math.Round(btc * satoshisPerBTC))
}

// Helper methods

func parseBlock(blockData map[string]any) (*domain.Block, error) {
	height, ok := blockData["height"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid block height")
	}

	hash, ok := blockData["hash"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid block hash")
	}

	timestamp, ok := blockData["time"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid timestamp")
	}

	difficulty, _ := blockData["difficulty"].(float64)

	block := &domain.Block{
		Hash:       hash,
		Height:     uint64(height),
		Time:       uint64(timestamp),
		Difficulty: difficulty,
	}

	if txs, ok := blockData["tx"].([]any); ok {
		block.TxIDs = make([]string, 0, len(txs))
		for _, tx := range txs {
			if id, ok := tx.(string); ok {
				block.TxIDs = append(block.TxIDs, id)
			}
		}
	}

	return block, nil
}

func parseHeader(headerData map[string]any) (*domain.BlockHeader, error) {
	hash, ok := headerData["hash"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid header hash")
	}

	height, ok := headerData["height"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid header height")
	}

	timestamp, ok := headerData["time"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid header timestamp")
	}

	difficulty, ok := headerData["difficulty"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid header difficulty")
	}

	header := &domain.BlockHeader{
		Hash:       hash,
		Height:     uint64(height),
		Time:       uint64(timestamp),
		Difficulty: difficulty,
	}
	if mt, ok := headerData["mediantime"].(float64); ok {
		header.MedianTime = uint64(mt)
	}
	if bits, ok := headerData["bits"].(string); ok {
		header.Bits = bits
	}
	if conf, ok := headerData["confirmations"].(float64); ok {
		header.Confirmations = int64(conf)
	}
	if prev, ok := headerData["previousblockhash"].(string); ok {
		header.PreviousBlockHash = prev
	}

	return header, nil
}

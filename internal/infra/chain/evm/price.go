package evm

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Chainlink-style aggregator read surface plus the mock's setter.
const btcPriceOracleABI = `[
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"latestRoundData","stateMutability":"view","inputs":[],
	 "outputs":[
		{"name":"roundId","type":"uint80"},
		{"name":"answer","type":"int256"},
		{"name":"startedAt","type":"uint256"},
		{"name":"updatedAt","type":"uint256"},
		{"name":"answeredInRound","type":"uint80"}]},
	{"type":"function","name":"setPrice","stateMutability":"nonpayable",
	 "inputs":[{"name":"_price","type":"int256"},{"name":"_decimals","type":"uint8"}],"outputs":[]}
]`

// BTCPriceOracle reads and writes the on-chain BTC/USD rate.
type BTCPriceOracle struct {
	address  common.Address
	contract *bind.BoundContract
	backend  bind.DeployBackend
	auth     *bind.TransactOpts
	log      *slog.Logger
}

func NewBTCPriceOracle(address common.Address, backend Backend, auth *bind.TransactOpts, log *slog.Logger) (*BTCPriceOracle, error) {
	if log == nil {
		panic("evm: nil logger")
	}
	parsed, err := abi.JSON(strings.NewReader(btcPriceOracleABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse price oracle abi: %w", err)
	}
	return &BTCPriceOracle{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		backend:  backend,
		auth:     auth,
		log:      log.With("oracle", "btcusd", "address", address.Hex()),
	}, nil
}

func (o *BTCPriceOracle) Decimals(ctx context.Context) (uint8, error) {
	var out []any
	if err := o.contract.Call(&bind.CallOpts{Context: ctx}, &out, "decimals"); err != nil {
		return 0, fmt.Errorf("decimals: %w", err)
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// LatestPrice returns the answer of the latest round, at Decimals precision.
func (o *BTCPriceOracle) LatestPrice(ctx context.Context) (*big.Int, error) {
	var out []any
	if err := o.contract.Call(&bind.CallOpts{Context: ctx}, &out, "latestRoundData"); err != nil {
		return nil, fmt.Errorf("latestRoundData: %w", err)
	}
	if len(out) != 5 {
		return nil, fmt.Errorf("latestRoundData: unexpected %d outputs", len(out))
	}
	return abi.ConvertType(out[1], new(big.Int)).(*big.Int), nil
}

// SetPrice writes price at decimals precision and waits for inclusion.
func (o *BTCPriceOracle) SetPrice(ctx context.Context, price *big.Int, decimals uint8) (string, error) {
	receipt, err := transact(ctx, o.contract, o.backend, o.auth, "setPrice", price, decimals)
	if err != nil {
		return "", err
	}
	o.log.Debug("transaction mined", "tx", receipt.TxHash.Hex(), "block", receipt.BlockNumber)
	return receipt.TxHash.Hex(), nil
}

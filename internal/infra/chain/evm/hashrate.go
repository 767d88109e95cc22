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

const hashrateOracleABI = `[
	{"type":"function","name":"getHashesForBTC","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"tuple","components":[
		{"name":"value","type":"uint256"},
		{"name":"updatedAt","type":"uint256"},
		{"name":"ttl","type":"uint256"}]}]},
	{"type":"function","name":"setHashesForBTC","stateMutability":"nonpayable",
	 "inputs":[{"name":"newHashesForBTC","type":"uint256"}],"outputs":[]}
]`

// HashesForBTC is the stored oracle value with its freshness data.
type HashesForBTC struct {
	Value     *big.Int
	UpdatedAt *big.Int
	Ttl       *big.Int
}

// HashrateOracle reads and writes the on-chain hashes-for-BTC value.
type HashrateOracle struct {
	address  common.Address
	contract *bind.BoundContract
	backend  bind.DeployBackend
	auth     *bind.TransactOpts
	log      *slog.Logger
}

func NewHashrateOracle(address common.Address, backend Backend, auth *bind.TransactOpts, log *slog.Logger) (*HashrateOracle, error) {
	if log == nil {
		panic("evm: nil logger")
	}
	parsed, err := abi.JSON(strings.NewReader(hashrateOracleABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse hashrate oracle abi: %w", err)
	}
	return &HashrateOracle{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		backend:  backend,
		auth:     auth,
		log:      log.With("oracle", "hashrate", "address", address.Hex()),
	}, nil
}

// GetHashesForBTC returns the full stored tuple.
func (o *HashrateOracle) GetHashesForBTC(ctx context.Context) (*HashesForBTC, error) {
	var out []any
	if err := o.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getHashesForBTC"); err != nil {
		return nil, fmt.Errorf("getHashesForBTC: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("getHashesForBTC: unexpected %d outputs", len(out))
	}
	return abi.ConvertType(out[0], new(HashesForBTC)).(*HashesForBTC), nil
}

// StoredHashesForBTC returns the stored value only.
func (o *HashrateOracle) StoredHashesForBTC(ctx context.Context) (*big.Int, error) {
	res, err := o.GetHashesForBTC(ctx)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// SetHashesForBTC writes value and waits for inclusion. It returns the tx hash.
func (o *HashrateOracle) SetHashesForBTC(ctx context.Context, value *big.Int) (string, error) {
	receipt, err := transact(ctx, o.contract, o.backend, o.auth, "setHashesForBTC", value)
	if err != nil {
		return "", err
	}
	o.log.Debug("transaction mined",
		"tx", receipt.TxHash.Hex(),
		"block", receipt.BlockNumber,
		"gas_used", receipt.GasUsed,
	)
	return receipt.TxHash.Hex(), nil
}

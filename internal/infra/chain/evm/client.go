package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/vietddude/oracle-updater/internal/core/domain"
)

// Backend is what the oracles need from a node: calls, transactions and receipts.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Dial connects to the EVM node at url and checks it serves chainID.
func Dial(ctx context.Context, url string, chainID domain.ChainID) (*ethclient.Client, error) {
	if _, err := domain.LookupChain(chainID); err != nil {
		return nil, err
	}

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ethereum rpc: %w", err)
	}

	remote, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	if remote.Uint64() != uint64(chainID) {
		client.Close()
		return nil, fmt.Errorf("rpc serves chain %s, configured %d", remote, chainID)
	}
	return client, nil
}

// NewTransactor builds signing options from a hex private key (0x prefix optional).
func NewTransactor(privateKey string, chainID domain.ChainID) (*bind.TransactOpts, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, new(big.Int).SetUint64(uint64(chainID)))
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	return auth, nil
}

// transact submits method and waits for it to be mined. A reverted receipt is an error.
func transact(ctx context.Context, contract *bind.BoundContract, backend bind.DeployBackend, auth *bind.TransactOpts, method string, params ...any) (*types.Receipt, error) {
	opts := *auth
	opts.Context = ctx

	tx, err := contract.Transact(&opts, method, params...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to submit transaction: %w", method, err)
	}

	receipt, err := bind.WaitMined(ctx, backend, tx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed waiting for %s: %w", method, tx.Hash().Hex(), err)
	}
	if err := checkReceipt(receipt); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return receipt, nil
}

func checkReceipt(receipt *types.Receipt) error {
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted in block %s", receipt.TxHash.Hex(), receipt.BlockNumber)
	}
	return nil
}

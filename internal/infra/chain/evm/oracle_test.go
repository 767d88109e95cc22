package evm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var testChainID = big.NewInt(31337)

// fakeBackend answers calls from a fixed table and mines every sent tx.
// Methods not overridden panic through the nil embedded interface.
type fakeBackend struct {
	Backend

	parsed  abi.ABI
	returns map[string][]byte
	sent    []*types.Transaction
	status  uint64
}

func newFakeBackend(t *testing.T, abiJSON string) *fakeBackend {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	return &fakeBackend{
		parsed:  parsed,
		returns: make(map[string][]byte),
		status:  types.ReceiptStatusSuccessful,
	}
}

func (f *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	method, err := f.parsed.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	out, ok := f.returns[method.Name]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return out, nil
}

func (f *fakeBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return uint64(len(f.sent)), nil
}

func (f *fakeBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1), BaseFee: big.NewInt(1_000_000_000)}, nil
}

func (f *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (f *fakeBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (f *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 50_000, nil
}

func (f *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	for _, tx := range f.sent {
		if tx.Hash() == txHash {
			return &types.Receipt{
				Status:      f.status,
				TxHash:      txHash,
				BlockNumber: big.NewInt(2),
				GasUsed:     42_000,
			}, nil
		}
	}
	return nil, ethereum.NotFound
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAuth(t *testing.T) *bind.TransactOpts {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, testChainID)
	if err != nil {
		t.Fatalf("transactor: %v", err)
	}
	return auth
}

func TestHashrateOracle_GetHashesForBTC(t *testing.T) {
	be := newFakeBackend(t, hashrateOracleABI)
	packed, err := be.parsed.Methods["getHashesForBTC"].Outputs.Pack(HashesForBTC{
		Value:     big.NewInt(1175991804),
		UpdatedAt: big.NewInt(1713571767),
		Ttl:       big.NewInt(3600),
	})
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	be.returns["getHashesForBTC"] = packed

	oracle, err := NewHashrateOracle(common.HexToAddress("0x01"), be, testAuth(t), testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := oracle.GetHashesForBTC(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value.Int64() != 1175991804 || got.Ttl.Int64() != 3600 {
		t.Errorf("unexpected result: value=%s ttl=%s", got.Value, got.Ttl)
	}

	value, err := oracle.StoredHashesForBTC(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value.Int64() != 1175991804 {
		t.Errorf("expected stored value 1175991804, got %s", value)
	}
}

func TestHashrateOracle_SetHashesForBTC(t *testing.T) {
	be := newFakeBackend(t, hashrateOracleABI)
	oracle, err := NewHashrateOracle(common.HexToAddress("0x01"), be, testAuth(t), testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hash, err := oracle.SetHashesForBTC(context.Background(), big.NewInt(1234))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(be.sent) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(be.sent))
	}
	if hash != be.sent[0].Hash().Hex() {
		t.Errorf("expected hash %s, got %s", be.sent[0].Hash().Hex(), hash)
	}

	want, err := be.parsed.Pack("setHashesForBTC", big.NewInt(1234))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if string(be.sent[0].Data()) != string(want) {
		t.Errorf("unexpected calldata %x", be.sent[0].Data())
	}
}

func TestHashrateOracle_RevertedReceipt(t *testing.T) {
	be := newFakeBackend(t, hashrateOracleABI)
	be.status = types.ReceiptStatusFailed
	oracle, err := NewHashrateOracle(common.HexToAddress("0x01"), be, testAuth(t), testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := oracle.SetHashesForBTC(context.Background(), big.NewInt(1)); err == nil {
		t.Fatal("expected error for reverted transaction")
	}
}

func TestBTCPriceOracle_Reads(t *testing.T) {
	be := newFakeBackend(t, btcPriceOracleABI)

	dec, err := be.parsed.Methods["decimals"].Outputs.Pack(uint8(8))
	if err != nil {
		t.Fatalf("pack decimals: %v", err)
	}
	be.returns["decimals"] = dec

	round, err := be.parsed.Methods["latestRoundData"].Outputs.Pack(
		big.NewInt(1), big.NewInt(8452420000000), big.NewInt(0), big.NewInt(0), big.NewInt(1),
	)
	if err != nil {
		t.Fatalf("pack round: %v", err)
	}
	be.returns["latestRoundData"] = round

	oracle, err := NewBTCPriceOracle(common.HexToAddress("0x02"), be, testAuth(t), testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decimals, err := oracle.Decimals(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decimals != 8 {
		t.Errorf("expected 8 decimals, got %d", decimals)
	}

	price, err := oracle.LatestPrice(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price.Int64() != 8452420000000 {
		t.Errorf("unexpected price %s", price)
	}
}

func TestBTCPriceOracle_SetPrice(t *testing.T) {
	be := newFakeBackend(t, btcPriceOracleABI)
	oracle, err := NewBTCPriceOracle(common.HexToAddress("0x02"), be, testAuth(t), testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := oracle.SetPrice(context.Background(), big.NewInt(8452420000000), 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want, err := be.parsed.Pack("setPrice", big.NewInt(8452420000000), uint8(8))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if len(be.sent) != 1 || string(be.sent[0].Data()) != string(want) {
		t.Errorf("unexpected calldata")
	}
}

func TestNewTransactor(t *testing.T) {
	// well-known hardhat account #0
	const key = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	auth, err := NewTransactor(key, 31337)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth.From != common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266") {
		t.Errorf("unexpected sender %s", auth.From.Hex())
	}

	if _, err := NewTransactor("not-a-key", 31337); err == nil {
		t.Error("expected error for invalid key")
	}
}

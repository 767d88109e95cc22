package rpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vietddude/oracle-updater/internal/infra/rpc/budget"
	"github.com/vietddude/oracle-updater/internal/infra/rpc/provider"
)

// MockProvider implements provider.RPCProvider for client tests
type MockProvider struct {
	name      string
	failures  int
	callCount int
	lastOp    provider.Operation
}

func (m *MockProvider) GetName() string {
	return m.name
}

func (m *MockProvider) Execute(ctx context.Context, op provider.Operation) (any, error) {
	m.callCount++
	m.lastOp = op
	if m.callCount <= m.failures {
		return nil, fmt.Errorf("mock provider %s: connection refused", m.name)
	}
	return "success_result", nil
}

func (m *MockProvider) Close() error {
	return nil
}

func TestClient_ExecutePassesOperation(t *testing.T) {
	p := &MockProvider{name: "bitcoind"}
	client := NewClient(p, DefaultRetryConfig)

	result, err := client.Execute(context.Background(), NewJSONRPC10Operation("getblockhash", uint64(840000)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "success_result" {
		t.Errorf("expected success_result, got %v", result)
	}
	if p.lastOp.JSONRPCVersion != "1.0" || p.lastOp.Name != "getblockhash" {
		t.Errorf("unexpected operation: %+v", p.lastOp)
	}
	params, ok := p.lastOp.Params.([]any)
	if !ok || len(params) != 1 || params[0] != uint64(840000) {
		t.Errorf("expected positional params [840000], got %#v", p.lastOp.Params)
	}
}

func TestClient_NoRetryByDefault(t *testing.T) {
	p := &MockProvider{name: "bitcoind", failures: 1}
	client := NewClient(p, DefaultRetryConfig)

	if _, err := client.Execute(context.Background(), NewJSONRPC10Operation("getblockcount")); err == nil {
		t.Fatal("expected error")
	}
	if p.callCount != 1 {
		t.Errorf("expected exactly one upstream call, got %d", p.callCount)
	}
}

func TestClient_RetryPolicyIsPluggable(t *testing.T) {
	p := &MockProvider{name: "bitcoind", failures: 2}
	client := NewClient(p, RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    time.Millisecond,
		MaxDelay:        time.Millisecond,
		BackoffMultiple: 1,
	})

	if _, err := client.Execute(context.Background(), NewJSONRPC10Operation("getblockcount")); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if p.callCount != 3 {
		t.Errorf("expected 3 upstream calls, got %d", p.callCount)
	}
}

func TestNewJSONRPC10Operation_NoParams(t *testing.T) {
	op := NewJSONRPC10Operation("getblockchaininfo")
	if op.Params != nil {
		t.Errorf("expected nil params, got %#v", op.Params)
	}
}

func TestClient_BudgetStopsCallsWhenExhausted(t *testing.T) {
	p := &MockProvider{name: "bitcoind"}
	client := NewClient(p, DefaultRetryConfig, WithBudget(budget.NewTracker(2)))

	for i := 0; i < 2; i++ {
		if _, err := client.Execute(context.Background(), NewJSONRPC10Operation("getblockstats")); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}

	_, err := client.Execute(context.Background(), NewJSONRPC10Operation("getblockstats"))
	if !errors.Is(err, budget.ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
	if p.callCount != 2 {
		t.Errorf("expected the exhausted call to stay local, got %d upstream calls", p.callCount)
	}

	usage, ok := client.Usage()
	if !ok || usage.TotalCalls != 2 || usage.MethodCalls["getblockstats"] != 2 {
		t.Errorf("unexpected usage: %+v (ok=%v)", usage, ok)
	}
}

func TestClient_UsageWithoutBudget(t *testing.T) {
	client := NewClient(&MockProvider{name: "bitcoind"}, DefaultRetryConfig)
	if _, ok := client.Usage(); ok {
		t.Error("expected no usage without a budget")
	}
}

package rpc

import (
	"context"
	"fmt"

	"github.com/vietddude/oracle-updater/internal/infra/rpc/budget"
	"github.com/vietddude/oracle-updater/internal/infra/rpc/provider"
	"github.com/vietddude/oracle-updater/internal/infra/rpc/routing"
)

// RPCClient is what chain adapters depend on.
type RPCClient interface {
	Execute(ctx context.Context, op Operation) (any, error)
}

// Client binds a single provider to a retry policy.
// Calls are issued one at a time by the caller; the client adds no fan-out.
type Client struct {
	provider provider.RPCProvider
	retry    routing.RetryConfig
	budget   budget.Tracker
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBudget refuses calls once the provider has used its daily quota.
// Each attempt, including retries, counts against it.
func WithBudget(t budget.Tracker) ClientOption {
	return func(c *Client) {
		c.budget = t
	}
}

// NewClient creates a new RPC client.
func NewClient(p provider.RPCProvider, retry routing.RetryConfig, opts ...ClientOption) *Client {
	c := &Client{
		provider: p,
		retry:    retry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs op through the retry policy.
func (c *Client) Execute(ctx context.Context, op Operation) (any, error) {
	if c.budget == nil {
		return routing.CallWithRetry(ctx, c.provider, op, c.retry)
	}
	return routing.CallWithRetry(ctx, &meteredProvider{RPCProvider: c.provider, budget: c.budget}, op, c.retry)
}

// Call makes a JSON-RPC 2.0 call.
func (c *Client) Call(ctx context.Context, method string, params []any) (any, error) {
	return c.Execute(ctx, NewHTTPOperation(method, params))
}

// Usage reports quota usage for the bound provider. ok is false without a budget.
func (c *Client) Usage() (stats budget.UsageStats, ok bool) {
	if c.budget == nil {
		return budget.UsageStats{}, false
	}
	return c.budget.GetUsage(c.provider.GetName()), true
}

// Close releases the underlying provider.
func (c *Client) Close() error {
	return c.provider.Close()
}

type meteredProvider struct {
	provider.RPCProvider
	budget budget.Tracker
}

func (m *meteredProvider) Execute(ctx context.Context, op provider.Operation) (any, error) {
	name := m.GetName()
	if !m.budget.CanMakeCall(name) {
		return nil, fmt.Errorf("%s %s: %w", name, op.Name, budget.ErrQuotaExhausted)
	}
	m.budget.RecordCall(name, op.Name)
	return m.RPCProvider.Execute(ctx, op)
}

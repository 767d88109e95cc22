// Package rpc provides the upstream RPC client used by chain adapters and
// the price source.
//
// # Quick Start
//
//	import "github.com/vietddude/oracle-updater/internal/infra/rpc"
//
//	p := rpc.NewHTTPProvider("bitcoind", bitcoinURL, 30*time.Second)
//	client := rpc.NewClient(p, rpc.DefaultRetryConfig)
//
//	result, err := client.Execute(ctx, rpc.NewJSONRPC10Operation("getblockcount"))
//
// # Package Structure
//
//   - provider/ - transports (HTTPProvider)
//   - routing/  - error classification and retry policy
//
// Most types are re-exported at the root level for convenience.
package rpc

import (
	"time"

	"github.com/vietddude/oracle-updater/internal/infra/rpc/provider"
	"github.com/vietddude/oracle-updater/internal/infra/rpc/routing"
)

// =============================================================================
// Re-exported types from provider package
// =============================================================================

// RPCProvider is the interface for upstream endpoints.
type RPCProvider = provider.RPCProvider

// HTTPProvider implements RPCProvider for JSON-RPC and REST over HTTP.
type HTTPProvider = provider.HTTPProvider

// HTTPOption configures an HTTPProvider.
type HTTPOption = provider.HTTPOption

// Operation represents an RPC operation to execute (transport-agnostic).
type Operation = provider.Operation

// NewHTTPProvider creates a new HTTP-based RPC provider.
func NewHTTPProvider(name, endpoint string, timeout time.Duration, opts ...HTTPOption) *HTTPProvider {
	return provider.NewHTTPProvider(name, endpoint, timeout, opts...)
}

// WithRateLimit caps outgoing requests per second.
var WithRateLimit = provider.WithRateLimit

// =============================================================================
// Re-exported types from routing package
// =============================================================================

// RetryConfig defines retry behavior.
type RetryConfig = routing.RetryConfig

// DefaultRetryConfig makes a single attempt.
var DefaultRetryConfig = routing.DefaultRetryConfig

// CallWithRetry executes an operation with exponential backoff.
var CallWithRetry = routing.CallWithRetry

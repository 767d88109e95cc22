// Package provider implements the transports used to reach upstream APIs.
//
// This package contains:
//   - Operation: a transport-agnostic description of one call
//   - RPCProvider: the interface the routing and client layers depend on
//   - HTTPProvider: JSON-RPC 1.0/2.0 and REST over HTTP
package provider

import (
	"context"
)

// Operation represents an RPC operation to execute.
type Operation struct {
	// Name identifies the operation (e.g., "getblockstats"), or the path for REST calls
	Name string

	// Params for JSON-RPC calls (positional, []any), or the body for REST calls.
	Params any

	// IsREST indicates if this is a REST API call instead of JSON-RPC.
	IsREST bool

	// RESTMethod specifies the HTTP method for REST calls (e.g., "GET", "POST").
	// Only used if IsREST is true. Defaults to GET.
	RESTMethod string

	// Query is appended to the endpoint URL for REST calls.
	Query map[string]string

	// JSONRPCVersion specifies the JSON-RPC version (e.g., "1.0", "2.0").
	// If empty, defaults to "2.0".
	JSONRPCVersion string
}

// RPCProvider is a single upstream endpoint.
type RPCProvider interface {
	// GetName returns provider identifier (e.g., "bitcoind", "coingecko")
	GetName() string

	// Execute performs the operation and returns the decoded result
	Execute(ctx context.Context, op Operation) (any, error)

	// Close cleans up resources
	Close() error
}

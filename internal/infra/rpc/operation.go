package rpc

import (
	"github.com/vietddude/oracle-updater/internal/infra/rpc/provider"
)

// NewHTTPOperation creates an Operation for JSON-RPC 2.0 calls.
func NewHTTPOperation(method string, params any) Operation {
	return provider.Operation{
		Name:   method,
		Params: params,
	}
}

// NewRESTOperation creates an Operation for REST API calls.
func NewRESTOperation(path string, method string, query map[string]string) Operation {
	return provider.Operation{
		Name:       path,
		IsREST:     true,
		RESTMethod: method,
		Query:      query,
	}
}

// NewJSONRPC10Operation creates an Operation for JSON-RPC 1.0 calls.
func NewJSONRPC10Operation(method string, params ...any) Operation {
	var p any = params
	if len(params) == 0 {
		p = nil
	}
	return provider.Operation{
		Name:           method,
		Params:         p, // 1.0 uses positional params
		JSONRPCVersion: "1.0",
	}
}

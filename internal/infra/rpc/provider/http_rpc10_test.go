package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestHTTPProvider_Execute_JSONRPC10(t *testing.T) {
	var (
		mu  sync.Mutex
		ids []float64
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode body: %v", err)
			return
		}

		// Verify "jsonrpc" field is omitted for 1.0
		if val, ok := req["jsonrpc"]; ok {
			t.Errorf("expected no jsonrpc field for 1.0, got %v", val)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "rpcuser" || pass != "secret" {
			t.Errorf("expected basic auth from URL, got %q %q %v", user, pass, ok)
		}

		mu.Lock()
		ids = append(ids, req["id"].(float64))
		mu.Unlock()

		response := map[string]any{
			"result": float64(800000),
			"error":  nil,
			"id":     req["id"],
		}
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	endpoint := strings.Replace(server.URL, "http://", "http://rpcuser:secret@", 1)
	p := NewHTTPProvider("bitcoin-mock", endpoint, 5*time.Second)

	op := Operation{
		Name:           "getblockcount",
		JSONRPCVersion: "1.0",
	}

	for i := 0; i < 3; i++ {
		result, err := p.Execute(context.Background(), op)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.(float64) != 800000 {
			t.Errorf("expected 800000, got %v", result)
		}
	}

	// Request ids increase monotonically
	for i, id := range ids {
		if id != float64(i) {
			t.Errorf("request %d: expected id %d, got %v", i, i, id)
		}
	}
}

func TestHTTPProvider_Execute_JSONRPC20_Default(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode body: %v", err)
			return
		}

		if v, ok := req["jsonrpc"].(string); !ok || v != "2.0" {
			t.Errorf("expected jsonrpc: 2.0, got %v", req["jsonrpc"])
		}

		json.NewEncoder(w).Encode(map[string]any{"result": "0x123", "id": req["id"]})
	}))
	defer server.Close()

	p := NewHTTPProvider("eth-mock", server.URL, 5*time.Second)

	if _, err := p.Call(context.Background(), "eth_blockNumber", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHTTPProvider_Execute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{
			name:    "non-2xx with rpc error body",
			status:  http.StatusInternalServerError,
			body:    `{"result":null,"error":{"code":-8,"message":"Block height out of range"},"id":0}`,
			wantErr: "Block height out of range",
		},
		{
			name:    "non-2xx without body",
			status:  http.StatusUnauthorized,
			body:    ``,
			wantErr: "http 401",
		},
		{
			name:    "rpc error field on 200",
			status:  http.StatusOK,
			body:    `{"result":null,"error":{"code":-32601,"message":"Method not found"},"id":0}`,
			wantErr: "rpc error: Method not found (code -32601)",
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    `slow down`,
			wantErr: "rate limited (429)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := NewHTTPProvider("mock", server.URL, 5*time.Second)
			_, err := p.Execute(context.Background(), Operation{Name: "getblockhash", Params: []any{1}, JSONRPCVersion: "1.0"})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestHTTPProvider_ExecuteREST_RootBaseURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/simple/price" {
			t.Errorf("expected path /api/v3/simple/price, got %s", r.URL.Path)
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}
		if r.Method != http.MethodGet {
			t.Errorf("expected method GET, got %s", r.Method)
		}
		if got := r.URL.Query().Get("ids"); got != "bitcoin" {
			t.Errorf("expected ids=bitcoin, got %q", got)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"bitcoin": map[string]any{"usd": 84524.2},
		})
	}))
	defer server.Close()

	p := NewHTTPProvider("coingecko-mock", server.URL, 5*time.Second)

	op := Operation{
		Name:   "api/v3/simple/price",
		IsREST: true,
		Query:  map[string]string{"ids": "bitcoin", "vs_currencies": "usd"},
	}

	result, err := p.Execute(context.Background(), op)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := result.(map[string]any)
	if usd := data["bitcoin"].(map[string]any)["usd"].(float64); usd != 84524.2 {
		t.Errorf("expected 84524.2, got %v", usd)
	}
}

func TestHTTPProvider_RateLimitHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"result": 1})
	}))
	defer server.Close()

	p := NewHTTPProvider("mock", server.URL, 5*time.Second, WithRateLimit(0.001, 1))
	ctx := context.Background()

	if _, err := p.Call(ctx, "getblockcount", nil); err != nil {
		t.Fatalf("first call within burst failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := p.Call(ctx, "getblockcount", nil); err == nil {
		t.Error("expected limiter to reject call that cannot be served before the deadline")
	}
}

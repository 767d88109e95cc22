package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPProvider_ExecuteREST(t *testing.T) {
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
		if got := r.URL.Query().Get("vs_currencies"); got != "usd" {
			t.Errorf("expected vs_currencies=usd, got %q", got)
		}
		if r.ContentLength > 0 {
			t.Errorf("expected no body for GET, got %d bytes", r.ContentLength)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"bitcoin": map[string]any{"usd": 64250.5},
		})
	}))
	defer server.Close()

	p := NewHTTPProvider("coingecko", server.URL+"/api/v3/", 5*time.Second)

	result, err := p.Execute(context.Background(), Operation{
		Name:   "simple/price",
		IsREST: true,
		Query:  map[string]string{"ids": "bitcoin", "vs_currencies": "usd"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T", result)
	}
	btc, _ := data["bitcoin"].(map[string]any)
	if btc["usd"] != 64250.5 {
		t.Errorf("expected usd 64250.5, got %v", btc["usd"])
	}
}

func TestHTTPProvider_ExecuteREST_WithBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected method POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode body: %v", err)
			return
		}
		if height, ok := body["height"].(float64); !ok || height != 840000 {
			t.Errorf("expected height=840000, got %v", body["height"])
		}

		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}))
	defer server.Close()

	p := NewHTTPProvider("rest-mock", server.URL, 5*time.Second)

	_, err := p.Execute(context.Background(), Operation{
		Name:       "blocks",
		IsREST:     true,
		RESTMethod: http.MethodPost,
		Params:     map[string]any{"height": 840000},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHTTPProvider_ExecuteREST_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	p := NewHTTPProvider("coingecko", server.URL, 5*time.Second)

	_, err := p.Execute(context.Background(), Operation{Name: "ping", IsREST: true})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "http 502") || !strings.Contains(err.Error(), "upstream unavailable") {
		t.Errorf("expected status and body in error, got %v", err)
	}
}

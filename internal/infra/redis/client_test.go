package redis

import "testing"

func TestKeyHelpers(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{parameterKey("", "/oracle/cache"), "parameter:/oracle/cache"},
		{parameterKey("oracle:", "cache"), "oracle:parameter:cache"},
		{lockKey("oracle:", "job"), "oracle:lock:job"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, tt.got)
		}
	}
}

func TestNewClient_InvalidURL(t *testing.T) {
	if _, err := NewClient(Config{URL: "not a url"}); err == nil {
		t.Error("expected error for invalid url")
	}
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/vietddude/oracle-updater/internal/core/domain"
)

type fakeParameterClient struct {
	values map[string]string
	getErr error
	putErr error
	puts   int
}

func newFakeParameterClient() *fakeParameterClient {
	return &fakeParameterClient{values: make(map[string]string)}
}

func (f *fakeParameterClient) GetParameter(ctx context.Context, name string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.values[name]
	if !ok {
		return "", fmt.Errorf("parameter %s: %w", name, domain.ErrParameterNotFound)
	}
	return v, nil
}

func (f *fakeParameterClient) PutParameter(ctx context.Context, name, value string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.puts++
	f.values[name] = value
	return nil
}

func TestParameterStoreBackend_NotFoundIsEmpty(t *testing.T) {
	b := NewParameterStoreBackend("/oracle/cache", newFakeParameterClient())

	entries, err := b.Load(context.Background())
	if err != nil {
		t.Fatalf("first run must not fail, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestParameterStoreBackend_RoundTrip(t *testing.T) {
	client := newFakeParameterClient()
	b := NewParameterStoreBackend("/oracle/cache", client)
	ctx := context.Background()

	entries := []Entry{
		{Key: "1", Stats: domain.BlockStats{Subsidy: 5000000000, TotalFee: 0}},
		{Key: "2", Stats: domain.BlockStats{Subsidy: 5000000000, TotalFee: 12}},
	}
	if err := b.Save(ctx, entries); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := b.Save(ctx, entries[:1]); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	raw := client.values["/oracle/cache"]
	if strings.Contains(raw, "\n") {
		t.Errorf("expected compact encoding, got %q", raw)
	}

	got, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got) != 1 || got[0] != entries[0] {
		t.Errorf("expected overwritten value %+v, got %+v", entries[:1], got)
	}
}

func TestParameterStoreBackend_ErrorsPropagateToCache(t *testing.T) {
	client := newFakeParameterClient()
	client.getErr = errors.New("throttled")
	b := NewParameterStoreBackend("/oracle/cache", client)

	if _, err := b.Load(context.Background()); err == nil {
		t.Error("expected load error")
	}

	client.putErr = errors.New("throttled")
	if err := b.Save(context.Background(), nil); err == nil {
		t.Error("expected save error")
	}
}

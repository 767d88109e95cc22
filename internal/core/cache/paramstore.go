package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietddude/oracle-updater/internal/core/domain"
)

// ParameterClient reads and writes a single named string parameter.
// GetParameter returns domain.ErrParameterNotFound when the parameter is absent.
// PutParameter overwrites any existing value.
type ParameterClient interface {
	GetParameter(ctx context.Context, name string) (string, error)
	PutParameter(ctx context.Context, name, value string) error
}

// ParameterStoreBackend stores the whole cache as the value of one remote
// parameter (AWS SSM Parameter Store, or a Redis key with the same contract).
type ParameterStoreBackend struct {
	name   string
	client ParameterClient
}

// NewParameterStoreBackend creates a backend for the parameter called name.
func NewParameterStoreBackend(name string, client ParameterClient) *ParameterStoreBackend {
	return &ParameterStoreBackend{name: name, client: client}
}

func (b *ParameterStoreBackend) Name() string {
	return "parameter_store"
}

// ParameterName returns the remote parameter name.
func (b *ParameterStoreBackend) ParameterName() string {
	return b.name
}

func (b *ParameterStoreBackend) Load(ctx context.Context) ([]Entry, error) {
	value, err := b.client.GetParameter(ctx, b.name)
	if errors.Is(err, domain.ErrParameterNotFound) {
		// Expected on first run
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get parameter %s: %w", b.name, err)
	}
	if value == "" {
		return nil, nil
	}

	entries, err := DecodeEntries([]byte(value))
	if err != nil {
		return nil, fmt.Errorf("parse parameter %s: %w", b.name, err)
	}
	return entries, nil
}

func (b *ParameterStoreBackend) Save(ctx context.Context, entries []Entry) error {
	data, err := EncodeEntries(entries, false)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := b.client.PutParameter(ctx, b.name, string(data)); err != nil {
		return fmt.Errorf("put parameter %s: %w", b.name, err)
	}
	return nil
}

package worker

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vietddude/oracle-updater/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 70*time.Millisecond)
	defer cancel()
	s.Start(ctx)

	require.GreaterOrEqual(t, runs.Load(), int32(2), "expected initial run plus at least one tick")
}

func TestScheduler_Disabled(t *testing.T) {
	called := false
	s := NewScheduler(0, func(ctx context.Context) error {
		called = true
		return nil
	}, testLogger())

	s.Start(context.Background())
	require.False(t, called, "expected no run with zero interval")
}

func TestScheduler_ToleratesErrors(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(10*time.Millisecond, func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			return domain.ErrJobInProgress
		}
		return context.DeadlineExceeded
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	s.Start(ctx)

	require.GreaterOrEqual(t, runs.Load(), int32(2), "expected scheduler to keep running after errors")
}

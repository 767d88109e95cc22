package budget

import (
	"sync"
	"testing"
	"time"
)

func TestTracker_Concurrency(t *testing.T) {
	tracker := NewTracker(1000)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.RecordCall("bitcoind", "getblockstats")
			tracker.CanMakeCall("bitcoind")
			tracker.GetUsage("bitcoind")
		}()
	}
	wg.Wait()

	usage := tracker.GetUsage("bitcoind")
	if usage.TotalCalls != 100 {
		t.Errorf("Expected 100 calls, got %d", usage.TotalCalls)
	}
	if usage.MethodCalls["getblockstats"] != 100 {
		t.Errorf("Expected 100 getblockstats calls, got %d", usage.MethodCalls["getblockstats"])
	}
}

func TestTracker_Limits(t *testing.T) {
	tracker := NewTracker(3)

	for i := 0; i < 3; i++ {
		if !tracker.CanMakeCall("bitcoind") {
			t.Fatalf("call %d should be allowed", i)
		}
		tracker.RecordCall("bitcoind", "getblockcount")
	}

	if tracker.CanMakeCall("bitcoind") {
		t.Error("Expected quota to be exhausted")
	}
	usage := tracker.GetUsage("bitcoind")
	if usage.RemainingCalls != 0 || usage.UsagePercentage != 100 {
		t.Errorf("unexpected usage: %+v", usage)
	}

	// Other providers have their own allocation
	if !tracker.CanMakeCall("coingecko") {
		t.Error("Expected a separate allocation per provider")
	}
}

func TestTracker_ResetsAtMidnight(t *testing.T) {
	now := time.Date(2024, 4, 20, 23, 59, 0, 0, time.UTC)
	tracker := newTracker(1, func() time.Time { return now })

	tracker.RecordCall("bitcoind", "getblockcount")
	if tracker.CanMakeCall("bitcoind") {
		t.Fatal("Expected quota to be exhausted before midnight")
	}

	now = now.Add(2 * time.Minute)
	if !tracker.CanMakeCall("bitcoind") {
		t.Error("Expected quota to reset after midnight")
	}
	if got := tracker.GetUsage("bitcoind").NextResetAt; !got.Equal(time.Date(2024, 4, 22, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected next reset: %v", got)
	}
}

func TestTracker_ZeroLimitDeniesCalls(t *testing.T) {
	tracker := NewTracker(0)
	if tracker.CanMakeCall("bitcoind") {
		t.Error("Expected zero limit to deny calls")
	}
}

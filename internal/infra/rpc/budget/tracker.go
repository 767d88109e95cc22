// Package budget tracks daily RPC quota for metered upstream providers.
package budget

import (
	"errors"
	"sync"
	"time"
)

// ErrQuotaExhausted is returned when a provider has used its daily allocation.
var ErrQuotaExhausted = errors.New("daily rpc quota exhausted")

// UsageStats holds quota usage statistics.
type UsageStats struct {
	TotalCalls      int
	CallsPerHour    int
	DailyLimit      int
	RemainingCalls  int
	UsagePercentage float64
	NextResetAt     time.Time
	MethodCalls     map[string]int
}

// Config holds budget configuration.
type Config struct {
	// DailyQuota is the number of calls allowed per provider per day. Zero disables tracking.
	DailyQuota int `yaml:"daily_quota"`
}

// Tracker manages per-provider daily quota.
type Tracker interface {
	RecordCall(providerName, method string)
	GetUsage(providerName string) UsageStats
	CanMakeCall(providerName string) bool
	Reset()
}

type providerBudget struct {
	totalCalls    int
	callsThisHour int
	hourStartTime time.Time
	methodCalls   map[string]int
}

// DefaultTracker implements Tracker. Counters reset at local midnight.
type DefaultTracker struct {
	mu         sync.RWMutex
	usage      map[string]*providerBudget
	dailyLimit int
	resetTime  time.Time
	now        func() time.Time
}

// NewTracker creates a tracker allowing dailyLimit calls per provider.
func NewTracker(dailyLimit int) *DefaultTracker {
	return newTracker(dailyLimit, time.Now)
}

func newTracker(dailyLimit int, now func() time.Time) *DefaultTracker {
	t := &DefaultTracker{
		usage:      make(map[string]*providerBudget),
		dailyLimit: dailyLimit,
		now:        now,
	}
	t.resetTime = nextMidnight(now())
	return t
}

// RecordCall records a call for quota tracking.
func (bt *DefaultTracker) RecordCall(providerName, method string) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	now := bt.now()
	if now.After(bt.resetTime) {
		bt.resetUnsafe(now)
	}

	b, ok := bt.usage[providerName]
	if !ok {
		b = &providerBudget{
			hourStartTime: now,
			methodCalls:   make(map[string]int),
		}
		bt.usage[providerName] = b
	}

	if now.Sub(b.hourStartTime) >= time.Hour {
		b.callsThisHour = 0
		b.hourStartTime = now
	}

	b.totalCalls++
	b.callsThisHour++
	b.methodCalls[method]++
}

// GetUsage returns usage statistics for a provider.
func (bt *DefaultTracker) GetUsage(providerName string) UsageStats {
	bt.mu.RLock()
	defer bt.mu.RUnlock()

	b, ok := bt.usage[providerName]
	if !ok {
		return UsageStats{
			DailyLimit:     bt.dailyLimit,
			RemainingCalls: bt.dailyLimit,
			NextResetAt:    bt.resetTime,
		}
	}

	remaining := max(bt.dailyLimit-b.totalCalls, 0)

	usagePercentage := 0.0
	if bt.dailyLimit > 0 {
		usagePercentage = float64(b.totalCalls) / float64(bt.dailyLimit) * 100
	}

	methods := make(map[string]int, len(b.methodCalls))
	for m, n := range b.methodCalls {
		methods[m] = n
	}

	return UsageStats{
		TotalCalls:      b.totalCalls,
		CallsPerHour:    b.callsThisHour,
		DailyLimit:      bt.dailyLimit,
		RemainingCalls:  remaining,
		UsagePercentage: usagePercentage,
		NextResetAt:     bt.resetTime,
		MethodCalls:     methods,
	}
}

// CanMakeCall checks if a call can be made within budget.
func (bt *DefaultTracker) CanMakeCall(providerName string) bool {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	if now := bt.now(); now.After(bt.resetTime) {
		bt.resetUnsafe(now)
	}

	b, ok := bt.usage[providerName]
	if !ok {
		return bt.dailyLimit > 0
	}
	return b.totalCalls < bt.dailyLimit
}

// Reset resets all usage counters.
func (bt *DefaultTracker) Reset() {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	bt.resetUnsafe(bt.now())
}

func (bt *DefaultTracker) resetUnsafe(now time.Time) {
	for _, b := range bt.usage {
		b.totalCalls = 0
		b.callsThisHour = 0
		b.hourStartTime = now
		b.methodCalls = make(map[string]int)
	}
	bt.resetTime = nextMidnight(now)
}

func nextMidnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}

// Package cache provides a bounded, persistent key/value store for immutable
// per-block statistics.
//
// Entries are kept in insertion order and evicted oldest-first once the cache
// is full. Reads never change that order. The contents are loaded from a
// Backend in the background when the cache is created and written back by a
// debounced flush after every mutation.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	list "github.com/bahlo/generic-list-go"

	"github.com/vietddude/oracle-updater/internal/core/domain"
	"github.com/vietddude/oracle-updater/internal/indexing/metrics"
)

// DefaultMaxSize is used when Config.MaxSize is not positive.
const DefaultMaxSize = 500

// Config controls cache capacity and flush behaviour.
type Config struct {
	MaxSize int `yaml:"max_size"`

	// SaveDelay is how long a scheduled flush waits before snapshotting, so a
	// burst of Set calls is written once. Zero flushes as soon as the
	// scheduler runs the flush goroutine.
	SaveDelay time.Duration `yaml:"save_delay"`
}

// Cache is a FIFO-bounded map from block height keys to block stats.
type Cache struct {
	maxSize   int
	saveDelay time.Duration
	backend   Backend
	log       *slog.Logger

	mu      sync.RWMutex
	index   map[string]*list.Element[Entry]
	order   *list.List[Entry]
	loadErr error

	ready chan struct{}

	// saving guards the single in-flight flush; dirty records that a
	// mutation happened after the in-flight flush took its snapshot.
	saving  atomic.Bool
	dirty   atomic.Bool
	flushes sync.WaitGroup
	writeMu sync.Mutex
}

// New creates a cache and starts loading it from backend. It does not block;
// call Ready before relying on persisted contents.
func New(ctx context.Context, cfg Config, backend Backend, log *slog.Logger) *Cache {
	if log == nil {
		panic("cache: nil logger")
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}

	c := &Cache{
		maxSize:   cfg.MaxSize,
		saveDelay: cfg.SaveDelay,
		backend:   backend,
		log:       log.With("component", "cache", "backend", backend.Name()),
		index:     make(map[string]*list.Element[Entry]),
		order:     list.New[Entry](),
		ready:     make(chan struct{}),
	}

	go c.load(ctx)
	return c
}

func (c *Cache) load(ctx context.Context) {
	defer close(c.ready)

	loaded, err := c.backend.Load(ctx)
	if err != nil {
		c.log.Warn("Failed to load cache, starting empty", "error", err)
		loaded = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadErr = err

	// Entries set before the load finished are newer than anything persisted
	pending := make([]Entry, 0, c.order.Len())
	for e := c.order.Front(); e != nil; e = e.Next() {
		pending = append(pending, e.Value)
	}

	c.index = make(map[string]*list.Element[Entry], len(loaded)+len(pending))
	c.order = list.New[Entry]()
	for _, entry := range loaded {
		c.put(entry.Key, entry.Stats)
	}
	for _, entry := range pending {
		c.put(entry.Key, entry.Stats)
	}

	metrics.CacheEntries.Set(float64(c.order.Len()))
	c.log.Debug("Cache loaded", "entries", c.order.Len(), "persisted", len(loaded))
}

// Ready blocks until the initial load from the backend has completed.
// A failed load still counts as ready; the cache just starts empty.
func (c *Cache) Ready(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LoadErr returns the error the initial load failed with, if any.
func (c *Cache) LoadErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

// Get returns the stats stored under key. It does not affect eviction order.
func (c *Cache) Get(key string) (domain.BlockStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.index[key]
	if !ok {
		return domain.BlockStats{}, false
	}
	return e.Value.Stats, true
}

// Set inserts or overwrites key. Overwriting keeps the original insertion
// position. Inserting a new key into a full cache evicts the oldest entry.
func (c *Cache) Set(key string, stats domain.BlockStats) {
	c.mu.Lock()
	c.put(key, stats)
	size := c.order.Len()
	c.mu.Unlock()

	metrics.CacheEntries.Set(float64(size))
	c.Save()
}

// put must be called with mu held.
func (c *Cache) put(key string, stats domain.BlockStats) {
	if e, ok := c.index[key]; ok {
		e.Value.Stats = stats
		return
	}

	for c.order.Len() >= c.maxSize {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.index, oldest.Value.Key)
		metrics.CacheEvictions.Inc()
	}

	c.index[key] = c.order.PushBack(Entry{Key: key, Stats: stats})
}

// Delete removes key and reports whether it was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	e, ok := c.index[key]
	if ok {
		c.order.Remove(e)
		delete(c.index, key)
	}
	size := c.order.Len()
	c.mu.Unlock()

	if ok {
		metrics.CacheEntries.Set(float64(size))
		c.Save()
	}
	return ok
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.index = make(map[string]*list.Element[Entry])
	c.order = list.New[Entry]()
	c.mu.Unlock()

	metrics.CacheEntries.Set(0)
	c.Save()
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.Len()
}

// MaxSize returns the configured capacity.
func (c *Cache) MaxSize() int {
	return c.maxSize
}

// Keys returns all keys, oldest first.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, c.order.Len())
	for e := c.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.Key)
	}
	return keys
}

// Entries returns a copy of all entries, oldest first.
func (c *Cache) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Cache) snapshotLocked() []Entry {
	entries := make([]Entry, 0, c.order.Len())
	for e := c.order.Front(); e != nil; e = e.Next() {
		entries = append(entries, e.Value)
	}
	return entries
}

// Save schedules a flush to the backend and returns immediately. While a
// flush is pending or running further calls coalesce into it. The flush reads
// the cache contents when it runs, and runs again if the cache changed after
// its snapshot was taken.
func (c *Cache) Save() {
	c.dirty.Store(true)
	if !c.saving.CompareAndSwap(false, true) {
		return
	}

	c.flushes.Add(1)
	go c.flushLoop()
}

func (c *Cache) flushLoop() {
	defer c.flushes.Done()

	// Never write before the persisted state has been merged in
	<-c.ready

	if c.saveDelay > 0 {
		time.Sleep(c.saveDelay)
	}

	for c.dirty.Swap(false) {
		c.write(context.Background())
	}

	c.saving.Store(false)

	// A Save that lost the race with the Store above must not be dropped
	if c.dirty.Load() {
		c.Save()
	}
}

// Flush waits for any scheduled flush to finish and then writes the current
// contents synchronously. Backend errors are logged, not returned.
func (c *Cache) Flush(ctx context.Context) error {
	if err := c.Ready(ctx); err != nil {
		return err
	}
	c.flushes.Wait()

	c.dirty.Store(false)
	c.write(ctx)
	return nil
}

// Wait blocks until no scheduled flush is pending.
func (c *Cache) Wait() {
	c.flushes.Wait()
}

func (c *Cache) write(ctx context.Context) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	entries := c.snapshotLocked()
	c.mu.RUnlock()

	if err := c.backend.Save(ctx, entries); err != nil {
		metrics.CacheFlushes.WithLabelValues(c.backend.Name(), "error").Inc()
		c.log.Error("Failed to save cache", "error", err, "entries", len(entries))
		return
	}

	metrics.CacheFlushes.WithLabelValues(c.backend.Name(), "ok").Inc()
	c.log.Debug("Cache saved", "entries", len(entries))
}

package level

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

type cacheEntry struct {
	level    *Level
	warnings []Warning
	err      error
}

// Cache loads each indexed level once and serves it to concurrent readers.
// Returned levels are shared and must not be modified.
type Cache struct {
	index  *Index
	logger *log.Logger

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCache opens the levels directory dir. A missing index is returned as
// ErrIndexMissing.
func NewCache(dir string, logger *log.Logger) (*Cache, error) {
	idx, err := LoadIndex(dir)
	if err != nil {
		return nil, err
	}
	return NewCacheFromIndex(idx, logger), nil
}

// NewCacheFromIndex creates a cache over an already loaded index.
func NewCacheFromIndex(idx *Index, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Cache{
		index:   idx,
		logger:  logger,
		entries: make(map[string]cacheEntry),
	}
}

// Index returns the underlying index.
func (c *Cache) Index() *Index {
	return c.index
}

// List returns the indexed level ids in order.
func (c *Cache) List() []string {
	return c.index.IDs()
}

// Get returns the level with the given id, loading it on first use. Load
// failures are cached too.
func (c *Cache) Get(id string) (*Level, error) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		return e.level, e.err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		return e.level, e.err
	}
	e = c.load(id)
	c.entries[id] = e
	return e.level, e.err
}

// Warnings returns the soft warnings of a loaded level.
func (c *Cache) Warnings(id string) []Warning {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[id].warnings
}

// Known reports whether id is indexed or was stored with Put.
func (c *Cache) Known(id string) bool {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if ok && e.level != nil {
		return true
	}
	_, ok = c.index.Lookup(id)
	return ok
}

// Put stores an already built level, replacing any cached entry.
func (c *Cache) Put(l *Level) {
	c.mu.Lock()
	c.entries[l.ID] = cacheEntry{level: l}
	c.mu.Unlock()
}

func (c *Cache) load(id string) cacheEntry {
	entry, ok := c.index.Lookup(id)
	if !ok {
		return cacheEntry{err: fmt.Errorf("%w: %s", ErrNotFound, id)}
	}
	l, warnings, err := LoadFile(c.index.Path(entry))
	if err != nil {
		c.logger.Warn("level failed to load", "level", id, "error", err)
		return cacheEntry{warnings: warnings, err: err}
	}
	if l.ID != id {
		err := fmt.Errorf("level: %s declares id %q, index expects %q", entry.File, l.ID, id)
		return cacheEntry{err: err}
	}
	for _, w := range warnings {
		c.logger.Warn("level warning", "level", id, "warning", w.String())
	}
	return cacheEntry{level: l, warnings: warnings}
}

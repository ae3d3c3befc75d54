package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"log/slog"
)

// CodeCache memoizes ticker-to-exchange-code lookups. Results are held in
// process memory and persisted as a JSON file under the cache root so repeat
// runs avoid refetching. Writes are idempotent: two processes recomputing the
// same ticker write the same value, so concurrent rewrites are harmless.
// Negative results (empty code) are cached too, matching the lookup contract
// upstream.
type CodeCache struct {
	path   string
	lookup CodeLookupFunc
	logger *slog.Logger

	mu    sync.Mutex
	codes map[string]string
}

// NewCodeCache creates a code cache persisted under root. root may be empty,
// in which case the cache is memory-only. lookup may be nil, in which case
// only already-cached codes resolve.
func NewCodeCache(root string, lookup CodeLookupFunc, logger *slog.Logger) *CodeCache {
	if logger == nil {
		logger = slog.Default()
	}
	path := ""
	if root != "" {
		path = filepath.Join(root, "markets", "cached", "exch_code_cache.json")
	}
	c := &CodeCache{path: path, lookup: lookup, logger: logger, codes: map[string]string{}}
	c.loadFile()
	return c
}

// Get returns the exchange code for a ticker, consulting memory, the
// persisted file, and finally the lookup collaborator. An empty code with a
// nil error means the lookup genuinely found nothing.
func (c *CodeCache) Get(ctx context.Context, ticker string) (string, error) {
	c.mu.Lock()
	if code, ok := c.codes[ticker]; ok {
		c.mu.Unlock()
		return code, nil
	}
	c.mu.Unlock()

	if c.lookup == nil {
		return "", nil
	}
	code, err := c.lookup(ctx, ticker)
	if err != nil {
		c.logger.Debug("exchange code lookup failed", "ticker", ticker, "error", err.Error())
		return "", err
	}

	c.mu.Lock()
	c.codes[ticker] = code
	snapshot := make(map[string]string, len(c.codes))
	for k, v := range c.codes {
		snapshot[k] = v
	}
	c.mu.Unlock()

	c.saveFile(snapshot)
	return code, nil
}

// Cached returns the memoized code for a ticker without invoking the lookup
// collaborator. The second return reports whether a prior mapping exists at
// all; a cached negative result returns ("", true).
func (c *CodeCache) Cached(ticker string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	code, ok := c.codes[ticker]
	return code, ok
}

// loadFile reads the persisted cache; unreadable or corrupt files are
// ignored, the cache then starts empty.
func (c *CodeCache) loadFile() {
	if c.path == "" {
		return
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	var codes map[string]string
	if err := json.Unmarshal(data, &codes); err != nil {
		c.logger.Debug("ignoring corrupt exchange code cache", "path", c.path)
		return
	}
	c.codes = codes
}

// saveFile persists a snapshot with write-then-rename so readers never see a
// partial file. Failures are silent degradations.
func (c *CodeCache) saveFile(snapshot map[string]string) {
	if c.path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return
	}
	tmp := fmt.Sprintf("%s.%d.tmp", c.path, os.Getpid())
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
	}
}

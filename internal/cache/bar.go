package cache

import (
	"os"
	"time"

	"log/slog"

	mkterrors "github.com/mktdata/go-mktcache/internal/errors"
	"github.com/mktdata/go-mktcache/internal/models"
)

// Clock supplies the current time. Injected so the completeness guard can be
// tested against fixed instants.
type Clock func() time.Time

// BarKey identifies one intraday bar cache file.
type BarKey struct {
	Asset     string
	Ticker    string
	EventType string
	Date      time.Time
}

// BarAdapter persists intraday bars as one file per ticker, event type and
// date. Reads are restricted to the requested session window; writes are
// guarded so a still-open session is never cached as complete.
type BarAdapter struct {
	root   string
	grace  time.Duration
	clock  Clock
	logger *slog.Logger
}

// NewBarAdapter creates a bar cache rooted at root. grace is the margin added
// past the session close before a day's bars are treated as final.
func NewBarAdapter(root string, grace time.Duration, clock Clock, logger *slog.Logger) *BarAdapter {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BarAdapter{root: root, grace: grace, clock: clock, logger: logger}
}

func (a *BarAdapter) path(key BarKey) string {
	return BarPath(a.root, key.Asset, key.Ticker, key.EventType, key.Date)
}

// Load returns the cached bars restricted to window, or (nil, false) on a
// miss. A corrupt or unreadable file is treated as a miss and logged; it is
// left in place for the subsequent Save to overwrite.
func (a *BarAdapter) Load(key BarKey, window models.SessionWindow) ([]models.BarRow, bool) {
	if !window.IsValid() {
		return nil, false
	}
	path := a.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			a.logger.Warn("bar cache file unreadable, treating as miss",
				"path", path, "error", err.Error())
		}
		return nil, false
	}
	rows, err := decodeBars(data)
	if err != nil {
		a.logger.Warn("bar cache file corrupt, treating as miss",
			"path", path, "error", mkterrors.CacheCorrupt("cache", "load_bars", err).Error())
		return nil, false
	}
	restricted := models.RestrictBars(rows, window)
	if len(restricted) == 0 {
		return nil, false
	}
	return restricted, true
}

// Save persists rows for key when the session is complete. Empty row sets
// are never written. A window whose end has not yet passed by the grace
// margin is still in progress, so the write is skipped; both skips return
// false with no error.
func (a *BarAdapter) Save(key BarKey, window models.SessionWindow, rows []models.BarRow) (bool, error) {
	if len(rows) == 0 || !window.IsValid() {
		return false, nil
	}
	if a.clock().Before(window.EndTime.Add(a.grace)) {
		a.logger.Debug("session not yet complete, skipping cache write",
			"ticker", key.Ticker, "date", key.Date.Format("2006-01-02"),
			"session_end", window.EndTime.Format(time.RFC3339))
		return false, nil
	}

	data, err := encodeBars(rows)
	if err != nil {
		return false, mkterrors.New(mkterrors.KindUnknown, "cache", "save_bars", err)
	}
	if err := writeFileAtomic(a.path(key), data); err != nil {
		return false, mkterrors.StorageUnavailable("cache", "save_bars", err)
	}
	a.logger.Debug("bar cache written", "ticker", key.Ticker,
		"date", key.Date.Format("2006-01-02"), "rows", len(rows))
	return true, nil
}

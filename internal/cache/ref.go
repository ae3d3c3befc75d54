package cache

import (
	"os"
	"time"

	"log/slog"

	mkterrors "github.com/mktdata/go-mktcache/internal/errors"
	"github.com/mktdata/go-mktcache/internal/models"
)

// RefAdapter persists reference data rows keyed by ticker, field and an
// overrides digest. Point-in-time fields use dated files with a bounded
// backward scan so a value cached earlier in the lookback still serves.
type RefAdapter struct {
	root     string
	scanDays int
	logger   *slog.Logger
}

// NewRefAdapter creates a reference cache rooted at root. scanDays bounds the
// dated backward scan.
func NewRefAdapter(root string, scanDays int, logger *slog.Logger) *RefAdapter {
	if scanDays <= 0 {
		scanDays = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RefAdapter{root: root, scanDays: scanDays, logger: logger}
}

// Load returns the undated cached rows for one query, or (nil, false) on a
// miss. Corrupt files are treated as misses.
func (a *RefAdapter) Load(q models.RefQuery, overrides map[string]string) ([]models.RefRow, bool) {
	return a.loadFile(RefPath(a.root, q.Ticker, q.Field, overrides))
}

// LoadDated returns the cached rows for a point-in-time query, scanning
// backward from asOf one day at a time within the configured lookback.
func (a *RefAdapter) LoadDated(q models.RefQuery, asOf time.Time, overrides map[string]string) ([]models.RefRow, bool) {
	for i := 0; i < a.scanDays; i++ {
		day := asOf.AddDate(0, 0, -i)
		if rows, ok := a.loadFile(DatedRefPath(a.root, q.Ticker, q.Field, day, overrides)); ok {
			return rows, true
		}
	}
	return nil, false
}

func (a *RefAdapter) loadFile(path string) ([]models.RefRow, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			a.logger.Warn("reference cache file unreadable, treating as miss",
				"path", path, "error", err.Error())
		}
		return nil, false
	}
	rows, err := decodeRefRows(data)
	if err != nil {
		a.logger.Warn("reference cache file corrupt, treating as miss",
			"path", path, "error", mkterrors.CacheCorrupt("cache", "load_ref", err).Error())
		return nil, false
	}
	if len(rows) == 0 {
		return nil, false
	}
	return rows, true
}

// Save persists undated reference rows. Empty row sets are not written.
func (a *RefAdapter) Save(q models.RefQuery, overrides map[string]string, rows []models.RefRow) (bool, error) {
	return a.saveFile(RefPath(a.root, q.Ticker, q.Field, overrides), q, rows)
}

// SaveDated persists point-in-time reference rows under the asOf date.
func (a *RefAdapter) SaveDated(q models.RefQuery, asOf time.Time, overrides map[string]string, rows []models.RefRow) (bool, error) {
	return a.saveFile(DatedRefPath(a.root, q.Ticker, q.Field, asOf, overrides), q, rows)
}

func (a *RefAdapter) saveFile(path string, q models.RefQuery, rows []models.RefRow) (bool, error) {
	if len(rows) == 0 {
		return false, nil
	}
	data, err := encodeRefRows(rows)
	if err != nil {
		return false, mkterrors.New(mkterrors.KindUnknown, "cache", "save_ref", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return false, mkterrors.StorageUnavailable("cache", "save_ref", err)
	}
	a.logger.Debug("reference cache written", "ticker", q.Ticker, "field", q.Field, "rows", len(rows))
	return true, nil
}

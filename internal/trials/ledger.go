// Package trials tracks failed fetch attempts per cache key so that queries
// known to return nothing are not retried forever. The ledger is an embedded
// DuckDB database under the cache root; when the root or the database is
// unavailable the ledger degrades to a no-op that reports zero attempts.
package trials

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"log/slog"

	_ "github.com/marcboeker/go-duckdb/v2"

	mkterrors "github.com/mktdata/go-mktcache/internal/errors"
)

// Key identifies one tracked query.
type Key struct {
	Func      string
	Ticker    string
	Date      time.Time
	EventType string
}

func (k Key) dateString() string { return k.Date.Format("2006-01-02") }

// Ledger counts failed fetch attempts. Safe for concurrent use; DuckDB is
// held to a single connection as the driver recommends for one writer.
type Ledger struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

const createTrialsTable = `
CREATE TABLE IF NOT EXISTS trials (
    func       VARCHAR NOT NULL,
    ticker     VARCHAR NOT NULL,
    dt         VARCHAR NOT NULL,
    event_type VARCHAR NOT NULL,
    cnt        INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (func, ticker, dt, event_type)
)`

// Open creates or opens the trial ledger at dbPath. An empty dbPath yields a
// disabled ledger that reports zero attempts and ignores updates. Open
// failures also degrade to disabled rather than blocking the data path, with
// the cause logged once.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dbPath == "" {
		logger.Debug("trial ledger disabled, no database path configured")
		return &Ledger{logger: logger}, nil
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logger.Warn("trial ledger unavailable, continuing without attempt tracking",
			"path", dbPath, "error", err.Error())
		return &Ledger{logger: logger}, mkterrors.StorageUnavailable("trials", "open", err)
	}

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		logger.Warn("trial ledger unavailable, continuing without attempt tracking",
			"path", dbPath, "error", err.Error())
		return &Ledger{logger: logger}, mkterrors.StorageUnavailable("trials", "open", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, createTrialsTable); err != nil {
		db.Close()
		logger.Warn("trial ledger schema creation failed, continuing without attempt tracking",
			"path", dbPath, "error", err.Error())
		return &Ledger{logger: logger}, mkterrors.StorageUnavailable("trials", "open", err)
	}

	logger.Debug("trial ledger opened", "path", dbPath)
	return &Ledger{db: db, path: dbPath, logger: logger}, nil
}

// Enabled reports whether the ledger is backed by a database.
func (l *Ledger) Enabled() bool { return l.db != nil }

// Count returns the recorded failed attempts for key. A disabled ledger and
// any read error both report zero, so attempt tracking can only ever widen
// the set of queries that are retried, never block a fresh one.
func (l *Ledger) Count(ctx context.Context, key Key) int {
	if l.db == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var cnt int
	err := l.db.QueryRowContext(ctx,
		`SELECT cnt FROM trials WHERE func = ? AND ticker = ? AND dt = ? AND event_type = ?`,
		key.Func, key.Ticker, key.dateString(), key.EventType,
	).Scan(&cnt)
	if err == sql.ErrNoRows {
		return 0
	}
	if err != nil {
		l.logger.Warn("trial count query failed, assuming zero attempts",
			"ticker", key.Ticker, "error", err.Error())
		return 0
	}
	return cnt
}

// Update records one more failed attempt for key. No-op when disabled.
func (l *Ledger) Update(ctx context.Context, key Key) error {
	if l.db == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO trials (func, ticker, dt, event_type, cnt)
		 VALUES (?, ?, ?, ?, 1)
		 ON CONFLICT (func, ticker, dt, event_type)
		 DO UPDATE SET cnt = trials.cnt + 1`,
		key.Func, key.Ticker, key.dateString(), key.EventType,
	)
	if err != nil {
		return mkterrors.StorageUnavailable("trials", "update", fmt.Errorf("recording attempt for %s: %w", key.Ticker, err))
	}
	return nil
}

// Reset clears the recorded attempts for key, used when a later fetch
// succeeds after earlier failures. No-op when disabled.
func (l *Ledger) Reset(ctx context.Context, key Key) error {
	if l.db == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.ExecContext(ctx,
		`DELETE FROM trials WHERE func = ? AND ticker = ? AND dt = ? AND event_type = ?`,
		key.Func, key.Ticker, key.dateString(), key.EventType,
	)
	if err != nil {
		return mkterrors.StorageUnavailable("trials", "reset", err)
	}
	return nil
}

// Close releases the underlying database. Safe on a disabled ledger.
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

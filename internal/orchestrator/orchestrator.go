// Package orchestrator drives the end-to-end data path for one request:
// resolve the ticker, derive the session window, consult the cache, gate on
// recorded failed attempts, fetch with retry, and persist the result.
package orchestrator

import (
	"context"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/mktdata/go-mktcache/internal/cache"
	mkterrors "github.com/mktdata/go-mktcache/internal/errors"
	"github.com/mktdata/go-mktcache/internal/models"
	"github.com/mktdata/go-mktcache/internal/resolver"
	"github.com/mktdata/go-mktcache/internal/session"
	"github.com/mktdata/go-mktcache/internal/trials"
)

// Fetcher retrieves intraday bars from the upstream data source.
type Fetcher interface {
	FetchBars(ctx context.Context, ticker string, window models.SessionWindow, eventType string, interval time.Duration) ([]models.BarRow, error)
}

// RefFetcher retrieves reference data rows from the upstream data source.
type RefFetcher interface {
	FetchReference(ctx context.Context, queries []models.RefQuery, overrides map[string]string) ([]models.RefRow, error)
}

// Orchestrator wires the resolver chain, session windows, cache adapters and
// the trial ledger into the bar and reference data paths.
type Orchestrator struct {
	chain      *resolver.Chain
	sessions   *session.Resolver
	bars       *cache.BarAdapter
	refs       *cache.RefAdapter
	ledger     *trials.Ledger
	fetcher    Fetcher
	refFetcher RefFetcher
	retry      mkterrors.RetryPolicy
	threshold  int
	logger     *slog.Logger
}

// Options carries the orchestrator's tunables.
type Options struct {
	// Retry governs upstream fetch retries for transient failures.
	Retry mkterrors.RetryPolicy

	// TrialThreshold is the failed-attempt count at which a query is
	// short-circuited to an empty result.
	TrialThreshold int
}

// New creates an orchestrator. fetcher and refFetcher may be nil when the
// corresponding data path is not used.
func New(chain *resolver.Chain, sessions *session.Resolver, bars *cache.BarAdapter,
	refs *cache.RefAdapter, ledger *trials.Ledger, fetcher Fetcher, refFetcher RefFetcher,
	opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TrialThreshold <= 0 {
		opts.TrialThreshold = 2
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = mkterrors.DefaultRetryPolicy()
	}
	return &Orchestrator{
		chain:      chain,
		sessions:   sessions,
		bars:       bars,
		refs:       refs,
		ledger:     ledger,
		fetcher:    fetcher,
		refFetcher: refFetcher,
		retry:      opts.Retry,
		threshold:  opts.TrialThreshold,
		logger:     logger,
	}
}

// Bars returns the intraday bars for one request, restricted to the resolved
// session window. A date with no trading session yields an empty result and
// no error; resolution and window grammar problems are errors.
func (o *Orchestrator) Bars(ctx context.Context, req models.DataRequest) ([]models.BarRow, error) {
	requestID := uuid.New().String()
	log := o.logger.With("request_id", requestID, "ticker", req.Ticker,
		"date", req.DateString(), "session", req.Session)
	log.Debug("bar request started")

	resolved, err := o.chain.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	window, err := o.sessions.Resolve(resolved.Exchange, req.Date, req.Session)
	if err != nil {
		return nil, mkterrors.InvalidWindow("orchestrator", "bars", err)
	}
	if !window.IsValid() {
		log.Debug("no trading session on date, returning empty result")
		return nil, nil
	}

	key := cache.BarKey{
		Asset:     cache.AssetOf(req.Ticker),
		Ticker:    resolved.QueryTicker,
		EventType: req.EventType,
		Date:      req.Date,
	}

	if req.Cache.Enabled && !req.Cache.Reload {
		if rows, ok := o.bars.Load(key, window); ok {
			log.Debug("bar cache hit", "rows", len(rows))
			return rows, nil
		}
	}

	trialKey := trials.Key{Func: "bars", Ticker: resolved.QueryTicker,
		Date: req.Date, EventType: req.EventType}
	if count := o.ledger.Count(ctx, trialKey); count >= o.threshold {
		if req.Batch {
			log.Debug("attempt threshold reached, skipping fetch", "attempts", count)
		} else {
			log.Info("query returned no data on previous attempts, skipping fetch",
				"attempts", count)
		}
		return nil, nil
	}

	if o.fetcher == nil {
		return nil, mkterrors.New(mkterrors.KindUnknown, "orchestrator", "bars",
			errNoFetcher)
	}

	var rows []models.BarRow
	err = mkterrors.Retry(ctx, log, o.retry, "fetch_bars", func() error {
		var ferr error
		rows, ferr = o.fetcher.FetchBars(ctx, resolved.QueryTicker, window, req.EventType, req.Interval)
		return ferr
	})
	if err != nil {
		// Upstream errors propagate without touching the ledger: the
		// attempt budget tracks empty data responses, not transport
		// failures, so a recovered upstream is always retried.
		return nil, err
	}

	rows = validBars(log, rows)
	if len(rows) == 0 {
		log.Debug("upstream returned no bars")
		if uerr := o.ledger.Update(ctx, trialKey); uerr != nil {
			log.Warn("failed to record fetch attempt", "error", uerr.Error())
		}
		return nil, nil
	}

	if req.Cache.Enabled {
		if saved, serr := o.bars.Save(key, window, rows); serr != nil {
			log.Warn("bar cache write failed", "error", serr.Error())
		} else if saved {
			if rerr := o.ledger.Reset(ctx, trialKey); rerr != nil {
				log.Warn("failed to clear recorded attempts", "error", rerr.Error())
			}
		}
	}

	return models.RestrictBars(rows, window), nil
}

// validBars drops rows that fail validation so a malformed upstream row
// never reaches the cache or the caller.
func validBars(log *slog.Logger, rows []models.BarRow) []models.BarRow {
	valid := make([]models.BarRow, 0, len(rows))
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			log.Warn("dropping invalid bar row",
				"time", rows[i].Time.Format(time.RFC3339),
				"error", err.Error())
			continue
		}
		valid = append(valid, rows[i])
	}
	return valid
}

package resolver

import (
	"context"

	"log/slog"

	"github.com/mktdata/go-mktcache/internal/calendar"
	"github.com/mktdata/go-mktcache/internal/models"
)

// ProviderCalendarResolver supplies tighter, holiday-aware day-session
// boundaries from an external market-calendar provider. It triggers only for
// the day session (and its composite slices); all other sessions stay on the
// static table, which the provider cannot describe.
type ProviderCalendarResolver struct {
	table    *calendar.Table
	codes    *calendar.CodeCache
	provider calendar.Provider
	logger   *slog.Logger
}

// NewProviderCalendarResolver creates the provider calendar strategy.
func NewProviderCalendarResolver(table *calendar.Table, codes *calendar.CodeCache, provider calendar.Provider, logger *slog.Logger) *ProviderCalendarResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProviderCalendarResolver{table: table, codes: codes, provider: provider, logger: logger}
}

// Name implements Strategy.
func (r *ProviderCalendarResolver) Name() string { return "ProviderCalendarResolver" }

// CanResolve implements Strategy. Cheap checks only: a provider is wired,
// the request is for the day session, and the static table both knows the
// exchange and maps it to a provider calendar.
func (r *ProviderCalendarResolver) CanResolve(req models.DataRequest) bool {
	if r.provider == nil {
		return false
	}
	if baseSession(req.Session) != "day" {
		return false
	}
	info := r.table.Lookup(req.Ticker)
	if info.IsZero() {
		return false
	}
	return r.table.ProviderKey(info.Key) != ""
}

// Resolve implements Strategy. The provider key is refined through the
// cached vendor exchange-code lookup when available; provider failures fall
// back to the static boundaries so a flaky calendar service never blocks
// resolution.
func (r *ProviderCalendarResolver) Resolve(ctx context.Context, req models.DataRequest) (ResolvedTicker, error) {
	info := r.table.Lookup(req.Ticker)
	calKey := r.table.ProviderKey(info.Key)
	if r.codes != nil {
		if code, err := r.codes.Get(ctx, req.Ticker); err == nil && code != "" {
			if refined := r.table.ProviderKeyForCode(code); refined != "" {
				calKey = refined
			}
		}
	}

	sched, ok, err := r.provider.Schedule(ctx, calKey, req.Date)
	if err != nil {
		r.logger.Debug("calendar provider failed, using static boundaries",
			"ticker", req.Ticker, "calendar", calKey, "error", err.Error())
		return ResolvedTicker{QueryTicker: req.Ticker, Exchange: info, Kind: KindCalendarLookup}, nil
	}
	if !ok {
		// No trading session on the date: drop the day session so the
		// window resolver reports an invalid window.
		return ResolvedTicker{
			QueryTicker: req.Ticker,
			Exchange:    info.WithoutSession("day"),
			Kind:        KindCalendarLookup,
		}, nil
	}

	return ResolvedTicker{
		QueryTicker: req.Ticker,
		Exchange:    info.WithDaySession(calendar.SessionHours{Open: sched.Open, Close: sched.Close}),
		Kind:        KindCalendarLookup,
	}, nil
}

// baseSession strips a composite expression down to its base name; malformed
// expressions are returned unchanged and will fail later during window
// resolution, which owns grammar errors.
func baseSession(expr string) string {
	for i := 0; i < len(expr); i++ {
		if expr[i] == '_' {
			return expr[:i]
		}
	}
	return expr
}

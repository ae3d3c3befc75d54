package resolver

import (
	"context"
	"strings"

	"log/slog"

	"github.com/mktdata/go-mktcache/internal/calendar"
	coreerrors "github.com/mktdata/go-mktcache/internal/errors"
	"github.com/mktdata/go-mktcache/internal/models"
)

// bondSuffixes are the asset suffixes marking fixed income tickers. A suffix
// only counts when the leading token carries a two-letter country code, since
// CUSIP- or SEDOL-shaped leading tokens carry no country information.
var bondSuffixes = map[string]bool{
	"Govt": true,
	"Corp": true,
	"Mtge": true,
	"Muni": true,
}

// FixedIncomeDefaultResolver handles bond identifiers that have no entry in
// the exchange table: ISIN-style identifiers and country-prefixed bond
// tickers. It infers the country, prefers a known bond-market provider
// calendar for session boundaries, and otherwise applies a full-day window in
// the country's default timezone.
//
// CUSIP and SEDOL identifiers carry no country code; a prior cached
// exchange-code mapping for the identifier can still supply one. Without such
// a mapping the identifier is a signaled resolution failure, not a silent
// fallback, because guessing the wrong timezone would corrupt every
// downstream window.
type FixedIncomeDefaultResolver struct {
	table    *calendar.Table
	codes    *calendar.CodeCache
	provider calendar.Provider
	logger   *slog.Logger
}

// NewFixedIncomeDefaultResolver creates the fixed income strategy. codes may
// be nil, in which case CUSIP and SEDOL identifiers always fail.
func NewFixedIncomeDefaultResolver(table *calendar.Table, codes *calendar.CodeCache, provider calendar.Provider, logger *slog.Logger) *FixedIncomeDefaultResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &FixedIncomeDefaultResolver{table: table, codes: codes, provider: provider, logger: logger}
}

// Name implements Strategy.
func (r *FixedIncomeDefaultResolver) Name() string { return "FixedIncomeDefaultResolver" }

// CanResolve implements Strategy. Matches identifier-style references
// (/isin/, /cusip/, /sedol/) and bond-type suffixes preceded by a two-letter
// country code.
func (r *FixedIncomeDefaultResolver) CanResolve(req models.DataRequest) bool {
	ticker := req.Ticker
	if strings.HasPrefix(ticker, "/isin/") ||
		strings.HasPrefix(ticker, "/cusip/") ||
		strings.HasPrefix(ticker, "/sedol/") {
		return true
	}
	tokens := strings.Fields(ticker)
	if len(tokens) < 2 || !bondSuffixes[tokens[len(tokens)-1]] {
		return false
	}
	lead := tokens[0]
	return len(lead) >= 2 && isAlpha(lead[:2])
}

// Resolve implements Strategy.
func (r *FixedIncomeDefaultResolver) Resolve(ctx context.Context, req models.DataRequest) (ResolvedTicker, error) {
	country, err := r.countryOf(req.Ticker)
	if err != nil {
		return ResolvedTicker{}, err
	}

	// Prefer a real bond-market calendar over the static full-day default.
	if r.provider != nil {
		if calKey := r.table.BondCalendar(country); calKey != "" {
			sched, ok, perr := r.provider.Schedule(ctx, calKey, req.Date)
			if perr == nil && ok {
				info := calendar.FullDayInfo(sched.Timezone)
				info = info.WithDaySession(calendar.SessionHours{Open: sched.Open, Close: sched.Close})
				return ResolvedTicker{
					QueryTicker: req.Ticker,
					Exchange:    info,
					Kind:        KindFixedIncomeDefault,
				}, nil
			}
			if perr != nil {
				r.logger.Debug("bond calendar lookup failed, using timezone default",
					"ticker", req.Ticker, "calendar", calKey, "error", perr.Error())
			}
		}
	}

	tz, known := calendar.CountryTimezone(country)
	if !known {
		tz = calendar.DefaultTimezone
	}
	return ResolvedTicker{
		QueryTicker: req.Ticker,
		Exchange:    calendar.FullDayInfo(tz),
		Kind:        KindFixedIncomeDefault,
	}, nil
}

// countryOf extracts the two-letter country code from the identifier or
// ticker prefix.
func (r *FixedIncomeDefaultResolver) countryOf(ticker string) (string, error) {
	switch {
	case strings.HasPrefix(ticker, "/isin/"):
		id := strings.TrimPrefix(ticker, "/isin/")
		if len(id) >= 2 && isAlpha(id[:2]) {
			return strings.ToUpper(id[:2]), nil
		}
		return "", coreerrors.ResolutionErrorf("resolver", "fixed_income",
			"malformed ISIN identifier %q", ticker)
	case strings.HasPrefix(ticker, "/cusip/"), strings.HasPrefix(ticker, "/sedol/"):
		// The identifier itself carries no country, but an earlier run
		// may have cached an exchange-code mapping for it. Only the
		// cache is consulted here, never the live lookup.
		if r.codes != nil {
			if code, ok := r.codes.Cached(ticker); ok && len(code) >= 2 && isAlpha(code[:2]) {
				return strings.ToUpper(code[:2]), nil
			}
		}
		return "", coreerrors.ResolutionErrorf("resolver", "fixed_income",
			"cannot determine country code from %q: CUSIP/SEDOL identifiers carry no country information and no cached exchange mapping exists; use an ISIN (/isin/...) instead", ticker)
	default:
		tokens := strings.Fields(ticker)
		if len(tokens) > 0 && len(tokens[0]) >= 2 && isAlpha(tokens[0][:2]) {
			return strings.ToUpper(tokens[0][:2]), nil
		}
		return "", coreerrors.ResolutionErrorf("resolver", "fixed_income",
			"cannot determine country code from ticker %q", ticker)
	}
}

// isAlpha reports whether s contains ASCII letters only.
func isAlpha(s string) bool {
	for _, c := range s {
		if !('a' <= c && c <= 'z') && !('A' <= c && c <= 'Z') {
			return false
		}
	}
	return len(s) > 0
}

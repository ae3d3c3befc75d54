package resolver

import (
	"context"
	"time"

	"log/slog"

	"github.com/mktdata/go-mktcache/internal/calendar"
	coreerrors "github.com/mktdata/go-mktcache/internal/errors"
	"github.com/mktdata/go-mktcache/internal/models"
)

// RollProvider is the external roll-schedule collaborator: it maps a generic
// futures ticker and a date to the concretely dated contract active on that
// date. An empty contract with a nil error means no contract maps to the
// date (unsupported root, date out of schedule).
type RollProvider interface {
	Contract(ctx context.Context, genericTicker string, date time.Time, freq string) (string, error)
}

// FuturesRollResolver resolves continuous/generic futures references to
// dated contract tickers via the roll schedule. The session calendar comes
// from the static exchange table entry for the root.
type FuturesRollResolver struct {
	table  *calendar.Table
	roll   RollProvider
	logger *slog.Logger
}

// NewFuturesRollResolver creates the futures roll strategy.
func NewFuturesRollResolver(table *calendar.Table, roll RollProvider, logger *slog.Logger) *FuturesRollResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &FuturesRollResolver{table: table, roll: roll, logger: logger}
}

// Name implements Strategy.
func (r *FuturesRollResolver) Name() string { return "FuturesRollResolver" }

// CanResolve implements Strategy. Matches tickers whose exchange table entry
// is a futures exchange and whose leading token looks like a generic root or
// a dated contract; the dated case is claimed here so Resolve can reject it
// with a targeted error instead of letting it fall through.
func (r *FuturesRollResolver) CanResolve(req models.DataRequest) bool {
	return r.table.IsGenericFutures(req.Ticker) || r.table.IsSpecificContract(req.Ticker)
}

// Resolve implements Strategy.
func (r *FuturesRollResolver) Resolve(ctx context.Context, req models.DataRequest) (ResolvedTicker, error) {
	if r.table.IsSpecificContract(req.Ticker) {
		return ResolvedTicker{}, coreerrors.ResolutionErrorf("resolver", "futures_roll",
			"%q appears to be a specific futures contract; use a generic ticker such as %q", req.Ticker, genericHint(req.Ticker))
	}

	info := r.table.Lookup(req.Ticker)
	if info.IsZero() || !info.IsFutures {
		return ResolvedTicker{}, coreerrors.ResolutionErrorf("resolver", "futures_roll",
			"no futures exchange entry for %q", req.Ticker)
	}
	if r.roll == nil {
		return ResolvedTicker{}, coreerrors.ResolutionErrorf("resolver", "futures_roll",
			"no roll schedule provider configured for %q", req.Ticker)
	}

	contract, err := r.roll.Contract(ctx, req.Ticker, req.Date, info.RollFreq)
	if err != nil {
		return ResolvedTicker{}, coreerrors.Resolution("resolver", "futures_roll", err)
	}
	if contract == "" {
		return ResolvedTicker{}, coreerrors.ResolutionErrorf("resolver", "futures_roll",
			"unable to resolve futures contract for generic ticker %q on %s", req.Ticker, req.DateString())
	}

	return ResolvedTicker{
		QueryTicker: contract,
		Exchange:    info,
		Kind:        KindFuturesRoll,
	}, nil
}

// genericHint suggests the generic form for a dated contract in error text,
// e.g. "UXZ5 Index" -> "UX1 Index".
func genericHint(ticker string) string {
	tokens := []rune(ticker)
	// Trim trailing digits and the month code from the first token.
	end := 0
	for end < len(tokens) && tokens[end] != ' ' {
		end++
	}
	first := string(tokens[:end])
	rest := string(tokens[end:])
	for len(first) > 0 && first[len(first)-1] >= '0' && first[len(first)-1] <= '9' {
		first = first[:len(first)-1]
	}
	if len(first) > 1 {
		first = first[:len(first)-1]
	}
	return first + "1" + rest
}

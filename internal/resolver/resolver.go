// Package resolver maps raw tickers to concretely queryable tickers and
// calendars through an ordered chain of strategies. The chain order is a
// contract: fixed income defaults, then futures rolls, then provider
// calendars, then the static exchange table as the always-available fallback.
package resolver

import (
	"context"

	"log/slog"

	"github.com/mktdata/go-mktcache/internal/calendar"
	coreerrors "github.com/mktdata/go-mktcache/internal/errors"
	"github.com/mktdata/go-mktcache/internal/models"
)

// Kind tags how a ticker was resolved.
type Kind string

const (
	// KindPassthrough means the ticker was already concrete
	KindPassthrough Kind = "passthrough"
	// KindFuturesRoll means a generic futures ticker was rolled to a dated contract
	KindFuturesRoll Kind = "futures-roll"
	// KindFixedIncomeDefault means a bond identifier resolved to a default calendar
	KindFixedIncomeDefault Kind = "fixed-income-default"
	// KindCalendarLookup means a provider calendar supplied the session boundaries
	KindCalendarLookup Kind = "calendar-lookup"
)

// ResolvedTicker is the chain's output: the ticker to send upstream plus the
// exchange calendar governing its session windows. Cheap and deterministic,
// so it is computed per request and never cached itself.
type ResolvedTicker struct {
	QueryTicker string
	Exchange    calendar.ExchangeInfo
	Kind        Kind
}

// Strategy is one resolution rule. CanResolve must be cheap and free of side
// effects; Resolve may perform cached external lookups but must stay
// deterministic for a given (ticker, date).
type Strategy interface {
	Name() string
	CanResolve(req models.DataRequest) bool
	Resolve(ctx context.Context, req models.DataRequest) (ResolvedTicker, error)
}

// Chain tries strategies in fixed priority order and uses the first whose
// CanResolve reports true. A matching strategy that then fails is terminal
// for the request; the chain does not fall through past a match.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewChain builds the standard chain. provider and roll may be nil, in which
// case the corresponding strategies only match where they can still answer
// from static data.
func NewChain(table *calendar.Table, codes *calendar.CodeCache, provider calendar.Provider, roll RollProvider, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		logger: logger,
		strategies: []Strategy{
			NewFixedIncomeDefaultResolver(table, codes, provider, logger),
			NewFuturesRollResolver(table, roll, logger),
			NewProviderCalendarResolver(table, codes, provider, logger),
			NewExchangeTableResolver(table),
		},
	}
}

// NewCustomChain builds a chain from an explicit strategy order, for tests
// and embedders that need to vary the rule set.
func NewCustomChain(logger *slog.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{strategies: strategies, logger: logger}
}

// Resolve runs the chain. The returned error carries KindResolution when no
// strategy matched or the matching strategy failed.
func (c *Chain) Resolve(ctx context.Context, req models.DataRequest) (ResolvedTicker, error) {
	for _, s := range c.strategies {
		if !s.CanResolve(req) {
			continue
		}
		resolved, err := s.Resolve(ctx, req)
		if err != nil {
			return ResolvedTicker{}, err
		}
		c.logger.Debug("ticker resolved",
			"ticker", req.Ticker,
			"query_ticker", resolved.QueryTicker,
			"strategy", s.Name(),
			"kind", string(resolved.Kind))
		return resolved, nil
	}
	return ResolvedTicker{}, coreerrors.ResolutionErrorf("resolver", "resolve",
		"no resolver matched ticker %q", req.Ticker)
}

// StrategyFor reports which strategy would handle the request, without
// resolving. Used by tests and diagnostics.
func (c *Chain) StrategyFor(req models.DataRequest) (string, bool) {
	for _, s := range c.strategies {
		if s.CanResolve(req) {
			return s.Name(), true
		}
	}
	return "", false
}

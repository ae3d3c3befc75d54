package resolver

import (
	"context"

	"github.com/mktdata/go-mktcache/internal/calendar"
	"github.com/mktdata/go-mktcache/internal/models"
)

// ExchangeTableResolver is the terminal strategy: any ticker the static
// exchange table recognizes resolves as a passthrough with the table's
// session boundaries.
type ExchangeTableResolver struct {
	table *calendar.Table
}

// NewExchangeTableResolver creates the static table strategy.
func NewExchangeTableResolver(table *calendar.Table) *ExchangeTableResolver {
	return &ExchangeTableResolver{table: table}
}

// Name implements Strategy.
func (r *ExchangeTableResolver) Name() string { return "ExchangeTableResolver" }

// CanResolve implements Strategy.
func (r *ExchangeTableResolver) CanResolve(req models.DataRequest) bool {
	return !r.table.Lookup(req.Ticker).IsZero()
}

// Resolve implements Strategy.
func (r *ExchangeTableResolver) Resolve(_ context.Context, req models.DataRequest) (ResolvedTicker, error) {
	return ResolvedTicker{
		QueryTicker: req.Ticker,
		Exchange:    r.table.Lookup(req.Ticker),
		Kind:        KindPassthrough,
	}, nil
}

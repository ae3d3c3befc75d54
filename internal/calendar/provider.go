package calendar

import (
	"context"
	"time"
)

// Schedule is one date's session boundaries as reported by an external
// market-calendar provider, in the provider's exchange-local time.
type Schedule struct {
	Timezone string
	Open     string // "HH:MM" local
	Close    string // "HH:MM" local
}

// Provider is the external market-calendar collaborator. Implementations
// return the trading schedule for a provider calendar key on a given date.
// A nil-Open/Close schedule with no error means the date has no session
// (holiday or weekend); callers must not treat that as a lookup failure.
type Provider interface {
	// Schedule returns session boundaries for the calendar on the date, or
	// ok=false when the date has no trading session.
	Schedule(ctx context.Context, calendarKey string, date time.Time) (sched Schedule, ok bool, err error)
}

// CodeLookupFunc fetches a vendor exchange code for a ticker, typically via a
// reference data query. It is the injectable collaborator behind the code
// cache.
type CodeLookupFunc func(ctx context.Context, ticker string) (string, error)

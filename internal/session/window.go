package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/mktdata/go-mktcache/internal/calendar"
	"github.com/mktdata/go-mktcache/internal/models"
)

// Resolver turns (exchange info, date, session expression) into a concrete
// UTC window. It holds no state beyond a logger; resolution is deterministic
// for a given input.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a session window resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// Resolve produces the UTC window for a session expression on a date.
//
// An error is returned only for malformed expressions or an unloadable
// timezone. When the exchange simply has no boundaries for the requested
// session (holiday, session not applicable) the returned window is invalid
// (both timestamps nil) and the error is nil; callers must check IsValid.
func (r *Resolver) Resolve(info calendar.ExchangeInfo, date time.Time, sessionExpr string) (models.SessionWindow, error) {
	expr, err := ParseExpr(sessionExpr)
	if err != nil {
		return models.InvalidWindow(sessionExpr), err
	}
	if info.IsZero() {
		return models.InvalidWindow(sessionExpr), nil
	}

	hours, ok := info.Session(expr.Base)
	if !ok {
		r.logger.Debug("session not defined for exchange",
			"exchange", info.Key, "session", expr.Base)
		return models.InvalidWindow(sessionExpr), nil
	}

	loc, err := time.LoadLocation(calendar.TimezoneShortcut(info.Timezone))
	if err != nil {
		return models.InvalidWindow(sessionExpr), fmt.Errorf("unknown exchange timezone %q: %w", info.Timezone, err)
	}

	start, err := atClock(date, hours.Open, loc)
	if err != nil {
		return models.InvalidWindow(sessionExpr), err
	}
	end, err := atClock(date, hours.Close, loc)
	if err != nil {
		return models.InvalidWindow(sessionExpr), err
	}
	// A close at or before the open means the session opened the previous
	// calendar day (overnight futures sessions).
	if !end.After(start) {
		start = start.AddDate(0, 0, -1)
	}

	if expr.Minutes > 0 {
		span := time.Duration(expr.Minutes) * time.Minute
		switch expr.Edge {
		case EdgeOpen:
			end = start.Add(span)
		case EdgeClose:
			start = end.Add(-span)
		}
	}

	return models.NewSessionWindow(start.UTC(), end.UTC(), sessionExpr), nil
}

// atClock combines a calendar date with an "HH:MM" clock reading in loc.
func atClock(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid session boundary %q: want HH:MM", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("invalid session boundary %q: bad hour", clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid session boundary %q: bad minute", clock)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc), nil
}

// Package models provides data structures and validation for market data requests,
// session windows, and cached payload rows. This package contains the transient
// value types that flow through the resolver, cache, and orchestrator layers.
package models

import (
	"fmt"
	"time"
)

// Default values applied by NewDataRequest for optional request fields.
const (
	DefaultSession   = "allday"
	DefaultEventType = "TRADE"
	DefaultInterval  = time.Minute
)

// CachePolicy controls how the cache layer participates in a request.
// The zero value is NOT the default policy; use DefaultCachePolicy.
type CachePolicy struct {
	// Enabled allows cache reads and writes for the request
	Enabled bool `json:"enabled"`

	// Reload forces a bypass of the cache read while still writing the
	// fetched result back to cache
	Reload bool `json:"reload"`
}

// DefaultCachePolicy returns the policy applied when the caller does not
// specify one: caching enabled, no forced reload.
func DefaultCachePolicy() CachePolicy {
	return CachePolicy{Enabled: true, Reload: false}
}

// DataRequest is an immutable description of a logical market data query.
// Ticker and Date are always present; every other field has a default.
// Derived requests (for example after ticker resolution) are new values,
// never in-place mutations.
type DataRequest struct {
	// Ticker is the raw ticker as supplied by the caller (e.g. "AAPL US Equity",
	// "/isin/US912810FE39", "ES1 Index")
	Ticker string `json:"ticker"`

	// Date is the calendar date of the query; only the year/month/day
	// components are meaningful
	Date time.Time `json:"date"`

	// Session is a session expression from the grammar
	// name | name_edge_minutes (e.g. "day", "day_open_30")
	Session string `json:"session"`

	// EventType is the upstream event type (TRADE, BID, ASK, ...)
	EventType string `json:"event_type"`

	// Interval is the bar granularity
	Interval time.Duration `json:"interval"`

	// Cache is the caching policy for this request
	Cache CachePolicy `json:"cache"`

	// Batch marks the request as part of an unattended batch run; trial
	// short-circuits are then silent instead of logged at INFO
	Batch bool `json:"batch"`
}

// NewDataRequest creates a request with defaults applied for session, event
// type, interval and cache policy. Returns an error if ticker or date is
// missing, which are the only two required fields.
func NewDataRequest(ticker string, date time.Time) (DataRequest, error) {
	if ticker == "" {
		return DataRequest{}, fmt.Errorf("data request requires a ticker")
	}
	if date.IsZero() {
		return DataRequest{}, fmt.Errorf("data request requires a date")
	}
	return DataRequest{
		Ticker:    ticker,
		Date:      date,
		Session:   DefaultSession,
		EventType: DefaultEventType,
		Interval:  DefaultInterval,
		Cache:     DefaultCachePolicy(),
	}, nil
}

// WithTicker returns a copy of the request carrying a different ticker.
// Used after resolution when the queryable ticker differs from the raw one.
func (r DataRequest) WithTicker(ticker string) DataRequest {
	out := r
	out.Ticker = ticker
	return out
}

// DateString renders the request date in the YYYY-MM-DD form used for cache
// keys and log records.
func (r DataRequest) DateString() string {
	return r.Date.Format("2006-01-02")
}

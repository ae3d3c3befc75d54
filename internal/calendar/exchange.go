// Package calendar provides exchange session calendars: a static, embedded
// session table merged with user overrides, country and shortcut timezone
// tables, a cached ticker-to-exchange-code lookup, and the delegation point
// for an external market-calendar provider.
package calendar

import "fmt"

// SessionHours is a named session boundary pair in the exchange's local time,
// rendered as "HH:MM" strings. A close earlier than the open means the
// session opened on the previous calendar day.
type SessionHours struct {
	Open  string `yaml:"open" json:"open"`
	Close string `yaml:"close" json:"close"`
}

// ExchangeInfo describes one exchange's trading calendar: its IANA timezone
// and the named session boundaries defined for it. The zero value is the
// documented "no calendar entry" sentinel; check IsZero before use.
type ExchangeInfo struct {
	// Key is the exchange identifier in the static table (e.g. "EquityUS")
	Key string `yaml:"-" json:"key"`

	// Timezone is the exchange's IANA timezone name
	Timezone string `yaml:"tz" json:"tz"`

	// Sessions maps session names (allday, day, am, pm, pre, post) to
	// boundary pairs; absent names mean the session is not defined
	Sessions map[string]SessionHours `yaml:"sessions" json:"sessions"`

	// IsFutures marks exchanges whose tickers are continuous futures roots
	IsFutures bool `yaml:"is_futures" json:"is_futures"`

	// RollFreq is the contract roll frequency for futures exchanges
	// (e.g. "M" monthly, "Q" quarterly)
	RollFreq string `yaml:"roll_freq" json:"roll_freq"`
}

// IsZero reports whether the info is the empty "no calendar entry" sentinel.
func (e ExchangeInfo) IsZero() bool {
	return e.Timezone == "" && len(e.Sessions) == 0
}

// Session returns the boundary pair for a session name.
func (e ExchangeInfo) Session(name string) (SessionHours, bool) {
	s, ok := e.Sessions[name]
	return s, ok
}

// WithDaySession returns a copy of the info with its day (and allday, if
// absent) session replaced. Used when a provider calendar supplies tighter,
// holiday-aware boundaries than the static table.
func (e ExchangeInfo) WithDaySession(hours SessionHours) ExchangeInfo {
	out := e
	out.Sessions = make(map[string]SessionHours, len(e.Sessions)+1)
	for k, v := range e.Sessions {
		out.Sessions[k] = v
	}
	out.Sessions["day"] = hours
	if _, ok := out.Sessions["allday"]; !ok {
		out.Sessions["allday"] = hours
	}
	return out
}

// WithoutSession returns a copy of the info with one session removed. Used
// when a provider calendar reports no trading on the date, so that window
// resolution yields an invalid window instead of stale static boundaries.
func (e ExchangeInfo) WithoutSession(name string) ExchangeInfo {
	out := e
	out.Sessions = make(map[string]SessionHours, len(e.Sessions))
	for k, v := range e.Sessions {
		if k == name {
			continue
		}
		out.Sessions[k] = v
	}
	return out
}

// FullDayInfo builds the default-session fallback used for instruments
// without calendar coverage: a full-day [00:00, 23:59] window in the given
// timezone.
func FullDayInfo(tz string) ExchangeInfo {
	full := SessionHours{Open: "00:00", Close: "23:59"}
	return ExchangeInfo{
		Key:      fmt.Sprintf("default-%s", tz),
		Timezone: tz,
		Sessions: map[string]SessionHours{
			"allday": full,
			"day":    full,
		},
	}
}

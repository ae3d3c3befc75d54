package models

import "time"

// SessionWindow is a concrete UTC time window produced by resolving a session
// expression against an exchange calendar. Both timestamps nil means "no
// session found" and must be treated by callers as a resolution outcome, not
// as an empty data set.
type SessionWindow struct {
	// StartTime is the inclusive window start in UTC; nil when unresolved
	StartTime *time.Time `json:"start_time"`

	// EndTime is the exclusive window end in UTC; nil when unresolved
	EndTime *time.Time `json:"end_time"`

	// SessionName is the session expression the window was resolved from
	SessionName string `json:"session_name"`
}

// NewSessionWindow builds a valid window from two UTC instants.
func NewSessionWindow(start, end time.Time, session string) SessionWindow {
	return SessionWindow{StartTime: &start, EndTime: &end, SessionName: session}
}

// InvalidWindow returns the sentinel window signalling that no session
// boundaries exist for the request (holiday, unsupported session name).
func InvalidWindow(session string) SessionWindow {
	return SessionWindow{SessionName: session}
}

// IsValid reports whether both boundaries are present. Callers must check
// this before using the window for cache keys or upstream queries.
func (w SessionWindow) IsValid() bool {
	return w.StartTime != nil && w.EndTime != nil
}

// Contains reports whether t falls inside [StartTime, EndTime).
// Always false for an invalid window.
func (w SessionWindow) Contains(t time.Time) bool {
	if !w.IsValid() {
		return false
	}
	return !t.Before(*w.StartTime) && t.Before(*w.EndTime)
}

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mktdata/go-mktcache/internal/calendar"
)

var nyEquity = calendar.ExchangeInfo{
	Key:      "EquityUS",
	Timezone: "America/New_York",
	Sessions: map[string]calendar.SessionHours{
		"allday": {Open: "04:00", Close: "20:00"},
		"day":    {Open: "09:30", Close: "16:00"},
	},
}

var cmeFutures = calendar.ExchangeInfo{
	Key:      "FuturesCME",
	Timezone: "America/Chicago",
	Sessions: map[string]calendar.SessionHours{
		"allday": {Open: "18:00", Close: "17:00"},
	},
}

func TestParseExpr(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		want    Expr
		wantErr bool
	}{
		{name: "bare_day", expr: "day", want: Expr{Base: "day"}},
		{name: "bare_allday", expr: "allday", want: Expr{Base: "allday"}},
		{name: "composite_open", expr: "day_open_30", want: Expr{Base: "day", Edge: EdgeOpen, Minutes: 30}},
		{name: "composite_close", expr: "am_close_15", want: Expr{Base: "am", Edge: EdgeClose, Minutes: 15}},
		{name: "empty", expr: "", wantErr: true},
		{name: "unknown_name", expr: "lunch", wantErr: true},
		{name: "unknown_edge", expr: "day_middle_30", wantErr: true},
		{name: "zero_minutes", expr: "day_open_0", wantErr: true},
		{name: "negative_minutes", expr: "day_open_-5", wantErr: true},
		{name: "too_many_parts", expr: "day_open_30_extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExpr(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_WholeDaySession(t *testing.T) {
	r := NewResolver(nil)
	date := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

	window, err := r.Resolve(nyEquity, date, "day")
	require.NoError(t, err)
	require.True(t, window.IsValid())

	// November is EST (UTC-5): 09:30 local is 14:30 UTC.
	assert.Equal(t, time.Date(2025, 11, 20, 14, 30, 0, 0, time.UTC), *window.StartTime)
	assert.Equal(t, time.Date(2025, 11, 20, 21, 0, 0, 0, time.UTC), *window.EndTime)
	assert.Equal(t, "day", window.SessionName)
}

func TestResolve_DSTSummer(t *testing.T) {
	r := NewResolver(nil)
	date := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	window, err := r.Resolve(nyEquity, date, "day")
	require.NoError(t, err)
	require.True(t, window.IsValid())

	// July is EDT (UTC-4).
	assert.Equal(t, time.Date(2025, 7, 15, 13, 30, 0, 0, time.UTC), *window.StartTime)
}

func TestResolve_CompositeOpenSlice(t *testing.T) {
	r := NewResolver(nil)
	date := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

	window, err := r.Resolve(nyEquity, date, "day_open_30")
	require.NoError(t, err)
	require.True(t, window.IsValid())

	assert.Equal(t, time.Date(2025, 11, 20, 14, 30, 0, 0, time.UTC), *window.StartTime)
	assert.Equal(t, time.Date(2025, 11, 20, 15, 0, 0, 0, time.UTC), *window.EndTime)
}

func TestResolve_CompositeCloseSlice(t *testing.T) {
	r := NewResolver(nil)
	date := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

	window, err := r.Resolve(nyEquity, date, "day_close_15")
	require.NoError(t, err)
	require.True(t, window.IsValid())

	assert.Equal(t, time.Date(2025, 11, 20, 20, 45, 0, 0, time.UTC), *window.StartTime)
	assert.Equal(t, time.Date(2025, 11, 20, 21, 0, 0, 0, time.UTC), *window.EndTime)
}

func TestResolve_OvernightSession(t *testing.T) {
	r := NewResolver(nil)
	date := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

	window, err := r.Resolve(cmeFutures, date, "allday")
	require.NoError(t, err)
	require.True(t, window.IsValid())

	// Close 17:00 is before open 18:00, so the session started the
	// previous calendar day. November Chicago is CST (UTC-6).
	assert.Equal(t, time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), *window.StartTime)
	assert.Equal(t, time.Date(2025, 11, 20, 23, 0, 0, 0, time.UTC), *window.EndTime)
	assert.True(t, window.EndTime.After(*window.StartTime))
}

func TestResolve_MissingSessionIsInvalidNotError(t *testing.T) {
	r := NewResolver(nil)
	date := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

	window, err := r.Resolve(cmeFutures, date, "pre")
	require.NoError(t, err)
	assert.False(t, window.IsValid())
}

func TestResolve_ZeroInfoIsInvalidNotError(t *testing.T) {
	r := NewResolver(nil)
	date := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

	window, err := r.Resolve(calendar.ExchangeInfo{}, date, "day")
	require.NoError(t, err)
	assert.False(t, window.IsValid())
}

func TestResolve_MalformedExpressionIsError(t *testing.T) {
	r := NewResolver(nil)
	date := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

	window, err := r.Resolve(nyEquity, date, "day_open")
	assert.Error(t, err)
	assert.False(t, window.IsValid())
}

func TestResolve_TimezoneShortcut(t *testing.T) {
	r := NewResolver(nil)
	info := nyEquity
	info.Timezone = "NY"
	date := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

	window, err := r.Resolve(info, date, "day")
	require.NoError(t, err)
	require.True(t, window.IsValid())
	assert.Equal(t, time.Date(2025, 11, 20, 14, 30, 0, 0, time.UTC), *window.StartTime)
}

func TestResolve_WindowContains(t *testing.T) {
	r := NewResolver(nil)
	date := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

	window, err := r.Resolve(nyEquity, date, "day")
	require.NoError(t, err)

	assert.True(t, window.Contains(time.Date(2025, 11, 20, 15, 0, 0, 0, time.UTC)))
	assert.True(t, window.Contains(*window.StartTime), "start is inclusive")
	assert.False(t, window.Contains(*window.EndTime), "end is exclusive")
	assert.False(t, window.Contains(time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)))
}

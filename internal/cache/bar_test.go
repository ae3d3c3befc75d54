package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mktdata/go-mktcache/internal/models"
)

var (
	barDate    = time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)
	windowOpen = time.Date(2025, 11, 20, 14, 30, 0, 0, time.UTC)
	windowEnd  = time.Date(2025, 11, 20, 21, 0, 0, 0, time.UTC)
)

func testKey() BarKey {
	return BarKey{Asset: "Equity", Ticker: "AAPL US Equity", EventType: "TRADE", Date: barDate}
}

func testWindow() models.SessionWindow {
	return models.NewSessionWindow(windowOpen, windowEnd, "day")
}

func testBars(times ...time.Time) []models.BarRow {
	rows := make([]models.BarRow, len(times))
	for i, ts := range times {
		rows[i] = models.BarRow{
			Time: ts, Open: "100.00", High: "101.00", Low: "99.50",
			Close: "100.50", Volume: "1500", NumTrades: 42,
		}
	}
	return rows
}

// fixedClock returns a Clock pinned to one instant.
func fixedClock(at time.Time) Clock {
	return func() time.Time { return at }
}

func TestBarAdapter_SaveThenLoad(t *testing.T) {
	root := t.TempDir()
	// Well past session close, so the completeness guard passes.
	clock := fixedClock(windowEnd.Add(2 * time.Hour))
	adapter := NewBarAdapter(root, time.Hour, clock, nil)

	rows := testBars(windowOpen, windowOpen.Add(time.Minute))
	saved, err := adapter.Save(testKey(), testWindow(), rows)
	require.NoError(t, err)
	require.True(t, saved)

	got, ok := adapter.Load(testKey(), testWindow())
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "100.00", got[0].Open)
	assert.True(t, got[0].Time.Equal(windowOpen))
}

func TestBarAdapter_LoadRestrictsToWindow(t *testing.T) {
	root := t.TempDir()
	// Persist an allday superset, then read back the day slice. The allday
	// window runs past midnight UTC, so the clock sits beyond its end plus
	// the grace margin to let the write through.
	clock := fixedClock(time.Date(2025, 11, 21, 4, 0, 0, 0, time.UTC))
	adapter := NewBarAdapter(root, time.Hour, clock, nil)

	allday := models.NewSessionWindow(
		time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 21, 1, 0, 0, 0, time.UTC), "allday")
	rows := testBars(
		time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC), // pre-market
		windowOpen,
		windowEnd.Add(time.Hour), // post-market
	)
	key := testKey()
	key.EventType = "TRADE"
	saved, err := adapter.Save(key, allday, rows)
	require.NoError(t, err)
	require.True(t, saved)

	got, ok := adapter.Load(key, testWindow())
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.True(t, got[0].Time.Equal(windowOpen))
}

func TestBarAdapter_CompletenessGuard(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantSaved bool
	}{
		{name: "session_still_open", now: windowEnd.Add(-time.Hour), wantSaved: false},
		{name: "inside_grace_margin", now: windowEnd.Add(5 * time.Minute), wantSaved: false},
		{name: "past_grace_margin", now: windowEnd.Add(2 * time.Hour), wantSaved: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewBarAdapter(t.TempDir(), time.Hour, fixedClock(tt.now), nil)
			saved, err := adapter.Save(testKey(), testWindow(), testBars(windowOpen))
			require.NoError(t, err)
			assert.Equal(t, tt.wantSaved, saved)
		})
	}
}

func TestBarAdapter_EmptyRowsNotWritten(t *testing.T) {
	adapter := NewBarAdapter(t.TempDir(), time.Hour, fixedClock(windowEnd.Add(2*time.Hour)), nil)

	saved, err := adapter.Save(testKey(), testWindow(), nil)
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestBarAdapter_CorruptFileIsMiss(t *testing.T) {
	root := t.TempDir()
	adapter := NewBarAdapter(root, time.Hour, fixedClock(windowEnd.Add(2*time.Hour)), nil)

	path := BarPath(root, "Equity", "AAPL US Equity", "TRADE", barDate)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not json{"), 0o644))

	_, ok := adapter.Load(testKey(), testWindow())
	assert.False(t, ok)
}

func TestBarAdapter_MissingFileIsMiss(t *testing.T) {
	adapter := NewBarAdapter(t.TempDir(), time.Hour, nil, nil)
	_, ok := adapter.Load(testKey(), testWindow())
	assert.False(t, ok)
}

func TestBarAdapter_InvalidWindowIsMiss(t *testing.T) {
	adapter := NewBarAdapter(t.TempDir(), time.Hour, nil, nil)
	_, ok := adapter.Load(testKey(), models.InvalidWindow("day"))
	assert.False(t, ok)
}

func TestBarPathLayout(t *testing.T) {
	path := BarPath("/data", "Equity", "BRK/B US Equity", "TRADE", barDate)
	assert.Equal(t, filepath.Join("/data", "Equity", "BRK_B US Equity", "TRADE", "2025-11-20.json"), path)
}

func TestAssetOf(t *testing.T) {
	assert.Equal(t, "Equity", AssetOf("AAPL US Equity"))
	assert.Equal(t, "Govt", AssetOf("US912810FE39 Govt"))
	assert.Equal(t, "Fixed", AssetOf("/isin/US912810FE39"))
	assert.Equal(t, "Ticker", AssetOf("SPX"))
}

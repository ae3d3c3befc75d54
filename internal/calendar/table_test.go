package calendar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTable_Builtin(t *testing.T) {
	table, err := LoadTable("", nil)
	require.NoError(t, err)

	info := table.Exchange("EquityUS")
	require.False(t, info.IsZero())
	assert.Equal(t, "EquityUS", info.Key)
	assert.Equal(t, "America/New_York", info.Timezone)

	day, ok := info.Session("day")
	require.True(t, ok)
	assert.Equal(t, "09:30", day.Open)
	assert.Equal(t, "16:00", day.Close)
}

func TestLookup_Routing(t *testing.T) {
	table, err := LoadTable("", nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		ticker string
		exch   string
	}{
		{name: "us_equity", ticker: "AAPL US Equity", exch: "EquityUS"},
		{name: "nasdaq_code", ticker: "MSFT UW Equity", exch: "EquityUS"},
		{name: "london_equity", ticker: "VOD LN Equity", exch: "EquityUK"},
		{name: "tokyo_equity", ticker: "7203 JP Equity", exch: "EquityJapan"},
		{name: "cme_generic", ticker: "ES1 Index", exch: "FuturesCME"},
		{name: "cboe_generic", ticker: "UX2 Index", exch: "FuturesCBOE"},
		{name: "energy_future", ticker: "CL1 Comdty", exch: "FuturesCME"},
		{name: "currency_wildcard", ticker: "EURUSD Curncy", exch: "CurrencyGeneric"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := table.Lookup(tt.ticker)
			require.False(t, info.IsZero(), "expected a calendar entry")
			assert.Equal(t, tt.exch, info.Key)
		})
	}
}

func TestLookup_Misses(t *testing.T) {
	table, err := LoadTable("", nil)
	require.NoError(t, err)

	assert.True(t, table.Lookup("AAPL").IsZero(), "single token")
	assert.True(t, table.Lookup("AAPL ZZ Equity").IsZero(), "unknown exchange code")
	assert.True(t, table.Lookup("SOMETHING Unknown").IsZero(), "unknown asset class")
	assert.True(t, table.Lookup("ZZ1 Index").IsZero(), "unknown futures root")
}

func TestLoadTable_UserOverrideMerge(t *testing.T) {
	root := t.TempDir()
	userTable := `
exchanges:
  EquityUS:
    tz: America/New_York
    sessions:
      day: {open: "10:00", close: "15:00"}
  EquityBrazil:
    tz: America/Sao_Paulo
    sessions:
      day: {open: "10:00", close: "17:00"}
assets:
  Equity:
    - exch_codes: [BZ]
      exch: EquityBrazil
`
	dir := filepath.Join(root, "markets")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "exchanges.yml"), []byte(userTable), 0o644))

	table, err := LoadTable(root, nil)
	require.NoError(t, err)

	// Overridden exchange replaces the built-in entry wholesale.
	us := table.Exchange("EquityUS")
	day, ok := us.Session("day")
	require.True(t, ok)
	assert.Equal(t, "10:00", day.Open)
	_, hasPre := us.Session("pre")
	assert.False(t, hasPre, "override replaces the whole session set")

	// New exchange and its routing are available.
	br := table.Lookup("PETR4 BZ Equity")
	require.False(t, br.IsZero())
	assert.Equal(t, "EquityBrazil", br.Key)

	// Overriding the Equity routes replaces the built-in list.
	assert.True(t, table.Lookup("AAPL US Equity").IsZero())
}

func TestLoadTable_CorruptUserFileIgnored(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "markets")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "exchanges.yml"), []byte("{{not yaml"), 0o644))

	table, err := LoadTable(root, nil)
	require.NoError(t, err)
	assert.False(t, table.Lookup("AAPL US Equity").IsZero())
}

func TestFuturesTokenClasses(t *testing.T) {
	table, err := LoadTable("", nil)
	require.NoError(t, err)

	assert.True(t, table.IsGenericFutures("ES1 Index"))
	assert.True(t, table.IsGenericFutures("UX12 Index"))
	assert.True(t, table.IsGenericFutures("NG1 Comdty"), "NG1 parses as a dated contract too; routing wins")
	assert.False(t, table.IsGenericFutures("ESZ5 Index"))
	assert.False(t, table.IsGenericFutures("AAPL US Equity"))

	assert.True(t, table.IsSpecificContract("ESZ5 Index"))
	assert.True(t, table.IsSpecificContract("CLF26 Comdty"))
	assert.False(t, table.IsSpecificContract("NG1 Comdty"))
	assert.False(t, table.IsSpecificContract("ES1 Index"))
	assert.False(t, table.IsSpecificContract("AAPL US Equity"))
}

func TestProviderAndBondLookups(t *testing.T) {
	table, err := LoadTable("", nil)
	require.NoError(t, err)

	assert.Equal(t, "NYSE", table.ProviderKey("EquityUS"))
	assert.Equal(t, "", table.ProviderKey("CurrencyGeneric"))
	assert.Equal(t, "NASDAQ", table.ProviderKeyForCode("UW"))
	assert.Equal(t, "SIFMA_US", table.BondCalendar("us"))
	assert.Equal(t, "", table.BondCalendar("ZZ"))
}

func TestTimezoneShortcut(t *testing.T) {
	assert.Equal(t, "America/New_York", TimezoneShortcut("NY"))
	assert.Equal(t, "Europe/London", TimezoneShortcut("UK"))
	assert.Equal(t, "America/Chicago", TimezoneShortcut("America/Chicago"), "full names pass through")
}

func TestCountryTimezone(t *testing.T) {
	tz, ok := CountryTimezone("gb")
	require.True(t, ok)
	assert.Equal(t, "Europe/London", tz)

	_, ok = CountryTimezone("ZZ")
	assert.False(t, ok)
}

func TestCodeCache_MemoizesAndPersists(t *testing.T) {
	root := t.TempDir()
	calls := 0
	lookup := func(_ context.Context, ticker string) (string, error) {
		calls++
		return "UN", nil
	}

	cache := NewCodeCache(root, lookup, nil)
	ctx := context.Background()

	code, err := cache.Get(ctx, "AAPL US Equity")
	require.NoError(t, err)
	assert.Equal(t, "UN", code)

	// Second call answers from memory.
	_, err = cache.Get(ctx, "AAPL US Equity")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// A fresh cache on the same root answers from the persisted file.
	fresh := NewCodeCache(root, lookup, nil)
	code, err = fresh.Get(ctx, "AAPL US Equity")
	require.NoError(t, err)
	assert.Equal(t, "UN", code)
	assert.Equal(t, 1, calls)
}

func TestCodeCache_CachesNegativeResults(t *testing.T) {
	calls := 0
	lookup := func(_ context.Context, _ string) (string, error) {
		calls++
		return "", nil
	}
	cache := NewCodeCache(t.TempDir(), lookup, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		code, err := cache.Get(ctx, "UNKNOWN XX Equity")
		require.NoError(t, err)
		assert.Equal(t, "", code)
	}
	assert.Equal(t, 1, calls)
}

func TestCodeCache_LookupErrorNotCached(t *testing.T) {
	calls := 0
	lookup := func(_ context.Context, _ string) (string, error) {
		calls++
		return "", fmt.Errorf("vendor unavailable")
	}
	cache := NewCodeCache(t.TempDir(), lookup, nil)
	ctx := context.Background()

	_, err := cache.Get(ctx, "AAPL US Equity")
	require.Error(t, err)
	_, err = cache.Get(ctx, "AAPL US Equity")
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestCodeCache_NilLookup(t *testing.T) {
	cache := NewCodeCache("", nil, nil)
	code, err := cache.Get(context.Background(), "AAPL US Equity")
	require.NoError(t, err)
	assert.Equal(t, "", code)
}

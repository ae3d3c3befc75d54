package trials

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trialDate = time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	ledger, err := Open(context.Background(), filepath.Join(t.TempDir(), "trials.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

func testTrialKey(ticker string) Key {
	return Key{Func: "bars", Ticker: ticker, Date: trialDate, EventType: "TRADE"}
}

func TestLedger_CountStartsAtZero(t *testing.T) {
	ledger := openTestLedger(t)
	assert.Equal(t, 0, ledger.Count(context.Background(), testTrialKey("AAPL US Equity")))
}

func TestLedger_UpdateIsMonotonic(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()
	key := testTrialKey("AAPL US Equity")

	for want := 1; want <= 3; want++ {
		require.NoError(t, ledger.Update(ctx, key))
		assert.Equal(t, want, ledger.Count(ctx, key))
	}
}

func TestLedger_KeysAreIndependent(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Update(ctx, testTrialKey("AAPL US Equity")))
	require.NoError(t, ledger.Update(ctx, testTrialKey("AAPL US Equity")))

	otherTicker := testTrialKey("MSFT US Equity")
	assert.Equal(t, 0, ledger.Count(ctx, otherTicker))

	otherDate := testTrialKey("AAPL US Equity")
	otherDate.Date = trialDate.AddDate(0, 0, 1)
	assert.Equal(t, 0, ledger.Count(ctx, otherDate))

	otherEvent := testTrialKey("AAPL US Equity")
	otherEvent.EventType = "BID"
	assert.Equal(t, 0, ledger.Count(ctx, otherEvent))
}

func TestLedger_Reset(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()
	key := testTrialKey("AAPL US Equity")

	require.NoError(t, ledger.Update(ctx, key))
	require.NoError(t, ledger.Update(ctx, key))
	require.NoError(t, ledger.Reset(ctx, key))
	assert.Equal(t, 0, ledger.Count(ctx, key))
}

func TestLedger_DisabledWithoutPath(t *testing.T) {
	ledger, err := Open(context.Background(), "", nil)
	require.NoError(t, err)
	defer ledger.Close()

	assert.False(t, ledger.Enabled())

	ctx := context.Background()
	key := testTrialKey("AAPL US Equity")
	require.NoError(t, ledger.Update(ctx, key))
	assert.Equal(t, 0, ledger.Count(ctx, key))
	require.NoError(t, ledger.Reset(ctx, key))
}

func TestLedger_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "trials.db")
	key := testTrialKey("AAPL US Equity")

	first, err := Open(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, first.Update(ctx, key))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path, nil)
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, 1, second.Count(ctx, key))
}

func TestLedger_ConcurrentDistinctKeys(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	tickers := []string{"AAPL US Equity", "MSFT US Equity", "GOOG US Equity", "AMZN US Equity"}
	var wg sync.WaitGroup
	for _, ticker := range tickers {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				assert.NoError(t, ledger.Update(ctx, testTrialKey(ticker)))
			}
		}(ticker)
	}
	wg.Wait()

	for _, ticker := range tickers {
		assert.Equal(t, 5, ledger.Count(ctx, testTrialKey(ticker)))
	}
}

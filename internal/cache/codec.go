package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mktdata/go-mktcache/internal/models"
)

// barColumns is the on-disk layout for intraday bars: column-oriented JSON
// with millisecond UTC timestamps. Columnar files compress better and keep
// the price strings exactly as fetched.
type barColumns struct {
	Time      []int64  `json:"time"`
	Open      []string `json:"open"`
	High      []string `json:"high"`
	Low       []string `json:"low"`
	Close     []string `json:"close"`
	Volume    []string `json:"volume"`
	NumTrades []int64  `json:"num_trades"`
}

func encodeBars(rows []models.BarRow) ([]byte, error) {
	cols := barColumns{
		Time:      make([]int64, len(rows)),
		Open:      make([]string, len(rows)),
		High:      make([]string, len(rows)),
		Low:       make([]string, len(rows)),
		Close:     make([]string, len(rows)),
		Volume:    make([]string, len(rows)),
		NumTrades: make([]int64, len(rows)),
	}
	for i, row := range rows {
		cols.Time[i] = row.Time.UTC().UnixMilli()
		cols.Open[i] = row.Open
		cols.High[i] = row.High
		cols.Low[i] = row.Low
		cols.Close[i] = row.Close
		cols.Volume[i] = row.Volume
		cols.NumTrades[i] = row.NumTrades
	}
	return json.Marshal(cols)
}

func decodeBars(data []byte) ([]models.BarRow, error) {
	var cols barColumns
	if err := json.Unmarshal(data, &cols); err != nil {
		return nil, fmt.Errorf("decoding bar columns: %w", err)
	}
	n := len(cols.Time)
	for name, l := range map[string]int{
		"open":       len(cols.Open),
		"high":       len(cols.High),
		"low":        len(cols.Low),
		"close":      len(cols.Close),
		"volume":     len(cols.Volume),
		"num_trades": len(cols.NumTrades),
	} {
		if l != n {
			return nil, fmt.Errorf("bar column %s has %d entries, want %d", name, l, n)
		}
	}
	rows := make([]models.BarRow, n)
	for i := 0; i < n; i++ {
		rows[i] = models.BarRow{
			Time:      time.UnixMilli(cols.Time[i]).UTC(),
			Open:      cols.Open[i],
			High:      cols.High[i],
			Low:       cols.Low[i],
			Close:     cols.Close[i],
			Volume:    cols.Volume[i],
			NumTrades: cols.NumTrades[i],
		}
	}
	return rows, nil
}

func encodeRefRows(rows []models.RefRow) ([]byte, error) {
	return json.Marshal(rows)
}

func decodeRefRows(data []byte) ([]models.RefRow, error) {
	var rows []models.RefRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding reference rows: %w", err)
	}
	return rows, nil
}

package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BarRow is a single intraday bar as returned by the upstream fetch and as
// persisted by the bar cache adapter. Prices are carried as strings to avoid
// float drift; use the decimal accessors for arithmetic.
type BarRow struct {
	Time      time.Time `json:"time"`
	Open      string    `json:"open"`
	High      string    `json:"high"`
	Low       string    `json:"low"`
	Close     string    `json:"close"`
	Volume    string    `json:"volume"`
	NumTrades int64     `json:"num_trades"`
}

// ValidationError represents a row validation error with field context.
type ValidationError struct {
	Field   string // Field is the name of the field that failed validation
	Message string // Message describes the validation failure
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %s: %s", e.Field, e.Message)
}

// Validate performs validation on the bar row: timestamp present, prices
// parseable and positive, volume non-negative, and OHLC relationships
// (high >= max(open, close), low <= min(open, close)).
func (b *BarRow) Validate() error {
	if b.Time.IsZero() {
		return &ValidationError{Field: "time", Message: "timestamp cannot be zero"}
	}

	open, err := b.GetOpenDecimal()
	if err != nil {
		return &ValidationError{Field: "open", Message: fmt.Sprintf("invalid open price format: %v", err)}
	}
	high, err := b.GetHighDecimal()
	if err != nil {
		return &ValidationError{Field: "high", Message: fmt.Sprintf("invalid high price format: %v", err)}
	}
	low, err := b.GetLowDecimal()
	if err != nil {
		return &ValidationError{Field: "low", Message: fmt.Sprintf("invalid low price format: %v", err)}
	}
	closePx, err := b.GetCloseDecimal()
	if err != nil {
		return &ValidationError{Field: "close", Message: fmt.Sprintf("invalid close price format: %v", err)}
	}
	volume, err := b.GetVolumeDecimal()
	if err != nil {
		return &ValidationError{Field: "volume", Message: fmt.Sprintf("invalid volume format: %v", err)}
	}

	zero := decimal.Zero
	if open.LessThanOrEqual(zero) {
		return &ValidationError{Field: "open", Message: "open price must be greater than 0"}
	}
	if high.LessThanOrEqual(zero) {
		return &ValidationError{Field: "high", Message: "high price must be greater than 0"}
	}
	if low.LessThanOrEqual(zero) {
		return &ValidationError{Field: "low", Message: "low price must be greater than 0"}
	}
	if closePx.LessThanOrEqual(zero) {
		return &ValidationError{Field: "close", Message: "close price must be greater than 0"}
	}
	if volume.LessThan(zero) {
		return &ValidationError{Field: "volume", Message: "volume must be greater than or equal to 0"}
	}

	maxOC := decimal.Max(open, closePx)
	if high.LessThan(maxOC) {
		return &ValidationError{
			Field:   "high",
			Message: fmt.Sprintf("high price (%s) must be greater than or equal to max(open, close) (%s)", high, maxOC),
		}
	}
	minOC := decimal.Min(open, closePx)
	if low.GreaterThan(minOC) {
		return &ValidationError{
			Field:   "low",
			Message: fmt.Sprintf("low price (%s) must be less than or equal to min(open, close) (%s)", low, minOC),
		}
	}
	return nil
}

// GetOpenDecimal returns the open price as a decimal.Decimal.
func (b *BarRow) GetOpenDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(b.Open)
}

// GetHighDecimal returns the high price as a decimal.Decimal.
func (b *BarRow) GetHighDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(b.High)
}

// GetLowDecimal returns the low price as a decimal.Decimal.
func (b *BarRow) GetLowDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(b.Low)
}

// GetCloseDecimal returns the close price as a decimal.Decimal.
func (b *BarRow) GetCloseDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(b.Close)
}

// GetVolumeDecimal returns the volume as a decimal.Decimal.
func (b *BarRow) GetVolumeDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(b.Volume)
}

// RestrictBars returns the contiguous slice of rows whose timestamps fall
// inside the window. Rows are assumed sorted by time ascending, which is how
// both the upstream fetch and the cache codec deliver them.
func RestrictBars(rows []BarRow, window SessionWindow) []BarRow {
	if !window.IsValid() || len(rows) == 0 {
		return nil
	}
	var out []BarRow
	for _, row := range rows {
		if window.Contains(row.Time) {
			out = append(out, row)
		}
	}
	return out
}

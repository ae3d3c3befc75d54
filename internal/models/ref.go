package models

// RefRow is a single reference data point: one value for one ticker/field
// combination, possibly qualified by the override set it was fetched with.
// Values are kept as strings; callers that need numeric treatment parse them
// with shopspring/decimal the same way bar prices are handled.
type RefRow struct {
	Ticker string `json:"ticker"`
	Field  string `json:"field"`
	Value  string `json:"value"`
}

// RefQuery identifies one ticker/field pair still to be fetched after a
// reference cache scan.
type RefQuery struct {
	Ticker string
	Field  string
}

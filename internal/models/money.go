package models

import "github.com/shopspring/decimal"

func init() {
	// Amounts go over the wire as JSON numbers, matching what the dashboard expects.
	decimal.MarshalJSONWithoutQuotes = true
}

// MaxAmount caps prices and supplier balances.
var MaxAmount = decimal.NewFromInt(1_000_000)

package models

import "github.com/shopspring/decimal"

// The frontend treats every amount as a JSON number.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

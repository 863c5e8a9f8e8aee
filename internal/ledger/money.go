package ledger

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hongminglow/pw-ledger/internal/apperr"
)

var rupiah = message.NewPrinter(language.Indonesian)

// maxAmount is the smallest value a NUMERIC(18,2) column cannot hold.
var maxAmount = decimal.New(1, 16)

// FormatRupiah renders d the way the dashboard shows money, e.g. "Rp 70.000".
func FormatRupiah(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return "Rp " + rupiah.Sprintf("%d", d.IntPart())
	}
	return "Rp " + rupiah.Sprintf("%.2f", d.InexactFloat64())
}

// checkAmount accepts positive amounts with at most two decimal places that
// fit the money columns.
func checkAmount(amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return apperr.Validation("amount", "Jumlah harus lebih dari 0")
	case !amount.Equal(amount.Truncate(2)):
		return apperr.Validation("amount", "Jumlah maksimal 2 angka desimal")
	case amount.GreaterThanOrEqual(maxAmount):
		return apperr.Validation("amount", "Jumlah terlalu besar")
	}
	return nil
}

package cli

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var inrPrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR renders an amount the way en-IN formats rupees: lakh/crore digit
// grouping and up to two fraction digits, e.g. ₹1,23,456.5.
func FormatINR(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	// half-up in decimal first; the float printer rounds half-even
	f := amount.Round(2).InexactFloat64()

	return sign + "₹" + inrPrinter.Sprint(number.Decimal(f, number.MaxFractionDigits(2)))
}

package reports

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var moneyPrinter = message.NewPrinter(language.BrazilianPortuguese)

// formatMoney renders an amount the way Brazilian storefront reports expect:
// comma decimal separator, two fraction digits, R$ prefix.
func formatMoney(amount float64) string {
	return moneyPrinter.Sprintf("R$ %v", number.Decimal(amount,
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

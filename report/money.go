package report

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/costbasis/asset"
)

// FormatMoney renders value in the conventions of a fiat currency, rounded to
// its minor unit. Non fiat values are printed as plain decimals followed by
// the asset.
func FormatMoney(value decimal.Decimal, currency asset.Asset) string {
	if !currency.IsFiat() {
		return value.String() + " " + currency.String()
	}
	cur := money.New(0, currency.String()).Currency()
	minor := value.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

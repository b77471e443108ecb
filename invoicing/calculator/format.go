package calculator

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"receivables.app/invoicing/models"
)

const defaultFraction = 2

// Fraction is the number of minor-unit digits of c, 2 when c is unknown.
func Fraction(c models.Currency) int32 {
	if currency := money.GetCurrency(string(c)); currency != nil {
		return int32(currency.Fraction)
	}
	return defaultFraction
}

// Round rounds amount to the minor unit of c.
func Round(amount decimal.Decimal, c models.Currency) decimal.Decimal {
	return amount.Round(Fraction(c))
}

// Format renders amount in c, e.g. "$103.50".
func Format(amount decimal.Decimal, c models.Currency) string {
	currency := money.GetCurrency(string(c))
	if currency == nil {
		return amount.StringFixed(defaultFraction) + " " + string(c)
	}
	minor := amount.Shift(int32(currency.Fraction)).Round(0).IntPart()
	return money.New(minor, currency.Code).Display()
}

// FormatTotals formats every field of t in c.
func FormatTotals(t models.Totals, c models.Currency) models.FormattedTotals {
	return models.FormattedTotals{
		Subtotal:  Format(t.Subtotal, c),
		VATAmount: Format(t.VATAmount, c),
		Total:     Format(t.Total, c),
	}
}

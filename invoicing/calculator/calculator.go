// Package calculator prices invoices.
//
// Every function in this package is pure: it performs no I/O, reads no clock,
// never mutates its arguments and raises no errors. Inputs are not validated;
// whatever arithmetic follows from them is returned as is, negative values
// included. Results are never rounded, see Round for presentation.
package calculator

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"receivables.app/invoicing/models"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// LineTotal is quantity * unit_price * (1 - discount_percentage/100).
func LineTotal(item models.InvoiceLineItem) decimal.Decimal {
	gross := item.Quantity.Mul(item.UnitPrice)
	return gross.Mul(one.Sub(percent(item.DiscountPercentage)))
}

// CalculateTotals computes subtotal, VAT and total for cfg.
// Total is always exactly Subtotal + VATAmount.
func CalculateTotals(cfg models.InvoiceConfiguration) models.Totals {
	subtotal := lo.Reduce(cfg.Items, func(sum decimal.Decimal, item models.InvoiceLineItem, _ int) decimal.Decimal {
		return sum.Add(LineTotal(item))
	}, decimal.Zero)

	vat := decimal.Zero
	if cfg.IncludeVAT {
		vat = subtotal.Mul(cfg.VATRate)
	}

	return models.Totals{
		Subtotal:  subtotal,
		VATAmount: vat,
		Total:     subtotal.Add(vat),
	}
}

// percent turns 15 into 0.15 without a division.
func percent(p decimal.Decimal) decimal.Decimal {
	return p.Shift(-2)
}

package calculator

import (
	"time"

	"github.com/shopspring/decimal"
	"receivables.app/invoicing/models"
)

// QuoteInput describes an issued invoice and a prospective payment date.
type QuoteInput struct {
	Configuration models.InvoiceConfiguration
	IssuedAt      time.Time
	DueDate       time.Time
	// AccruedLateFees are fees already charged, e.g. by compounding. When
	// non-zero they replace a fresh assessment.
	AccruedLateFees decimal.Decimal
	PaidAt          time.Time
	Policy          TierPolicy
}

// QuoteSettlement works out what is owed when paying at in.PaidAt.
func QuoteSettlement(in QuoteInput) models.SettlementQuote {
	base := CalculateTotals(in.Configuration).Total

	quote := models.SettlementQuote{
		Base:          base,
		EarlyDiscount: decimal.Zero,
		LateFee:       decimal.Zero,
		DueDate:       in.DueDate,
	}

	if tier, ok := SelectDiscountTier(in.Configuration.EarlyDiscountTerms, in.IssuedAt, in.PaidAt, in.Policy); ok {
		quote.Tier = &tier
		quote.EarlyDiscount = base.Sub(ApplyEarlyDiscount(base, tier))
	}

	assessment := AssessLateFee(base, in.Configuration.LatePaymentTerms, in.DueDate, in.PaidAt)
	quote.DaysOverdue = assessment.DaysOverdue
	if !in.AccruedLateFees.IsZero() {
		quote.LateFee = in.AccruedLateFees
	} else if assessment.Applies {
		quote.LateFee = assessment.Fee
	}

	quote.AmountDue = base.Sub(quote.EarlyDiscount).Add(quote.LateFee)
	return quote
}

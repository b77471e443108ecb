package calculator

import (
	"time"

	"github.com/shopspring/decimal"
	"receivables.app/invoicing/models"
)

var termDescriptions = map[models.PaymentTermType]string{
	models.TermNet15:              "Payment due within 15 days of invoice date",
	models.TermNet30:              "Payment due within 30 days of invoice date",
	models.TermNet60:              "Payment due within 60 days of invoice date",
	models.TermCashOnDelivery:     "Payment due upon delivery of goods or services",
	models.TermCashInAdvance:      "Full payment required before work begins",
	models.TermCashBeforeDelivery: "Payment required before goods are delivered",
	models.TermCashWithOrder:      "Payment due when the order is placed",
	models.TermCustom:             "Custom payment terms - please specify",
}

var termDueDays = map[models.PaymentTermType]int{
	models.TermNet15:              15,
	models.TermNet30:              30,
	models.TermNet60:              60,
	models.TermCashOnDelivery:     0,
	models.TermCashInAdvance:      0,
	models.TermCashBeforeDelivery: 0,
	models.TermCashWithOrder:      0,
}

// DefaultDescription returns the standard wording for a term type. The CUSTOM
// wording is a placeholder callers are expected to replace.
func DefaultDescription(t models.PaymentTermType) string {
	if description, ok := termDescriptions[t]; ok {
		return description
	}
	return "Payment terms: " + string(t)
}

// ResolvePaymentTerms returns cfg.PaymentTerms when present, otherwise NET_30
// with late fee and benefit disabled.
func ResolvePaymentTerms(cfg models.InvoiceConfiguration) models.InvoicePaymentTerms {
	if cfg.PaymentTerms != nil {
		return *cfg.PaymentTerms
	}
	return models.InvoicePaymentTerms{
		TermTypes:      []models.PaymentTermType{models.TermNet30},
		Description:    DefaultDescription(models.TermNet30),
		LateFeeEnabled: false,
		LateFeeAmount:  decimal.Zero,
		BenefitEnabled: false,
		BenefitAmount:  decimal.Zero,
	}
}

// DueDays is the number of days after the invoice date payment falls due.
// CUSTOM and unrecognised types use customDays.
func DueDays(t models.PaymentTermType, customDays int) int {
	if days, ok := termDueDays[t]; ok {
		return days
	}
	return customDays
}

// DueDate is issuedAt moved forward by DueDays.
func DueDate(t models.PaymentTermType, issuedAt time.Time, customDays int) time.Time {
	return issuedAt.AddDate(0, 0, DueDays(t, customDays))
}

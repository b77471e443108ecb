package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PreviewInvoiceRequest represents the request to price an invoice without issuing it
type PreviewInvoiceRequest struct {
	Configuration InvoiceConfiguration `json:"configuration"`
}

// FormattedTotals are Totals rounded and rendered for display
type FormattedTotals struct {
	Subtotal  string `json:"subtotal"`
	VATAmount string `json:"vat_amount"`
	Total     string `json:"total"`
}

// PreviewInvoiceResponse represents the priced invoice
type PreviewInvoiceResponse struct {
	Totals       Totals              `json:"totals"`
	Formatted    FormattedTotals     `json:"formatted"`
	PaymentTerms InvoicePaymentTerms `json:"payment_terms"`
}

// CreateInvoiceRequest represents the request to issue a new invoice
type CreateInvoiceRequest struct {
	BusinessName  string               `json:"business_name" validate:"required"`
	CustomerName  string               `json:"customer_name" validate:"required"`
	Configuration InvoiceConfiguration `json:"configuration" validate:"required"`
	PaymentMethod *PaymentMethod       `json:"payment_method,omitempty"`
}

// InvoiceResponse represents the response carrying a single invoice
type InvoiceResponse struct {
	Data *Invoice `json:"data"`
}

// SettlementQuoteRequest asks what is owed if the invoice is paid at PaidAt
type SettlementQuoteRequest struct {
	PaidAt time.Time `json:"paid_at" validate:"required"`
}

// SettlementQuote is the amount due for a given payment date
type SettlementQuote struct {
	Base          decimal.Decimal `json:"base"`
	EarlyDiscount decimal.Decimal `json:"early_discount"`
	LateFee       decimal.Decimal `json:"late_fee"`
	AmountDue     decimal.Decimal `json:"amount_due"`
	Tier          *DiscountTier   `json:"tier,omitempty"`
	DueDate       time.Time       `json:"due_date"`
	DaysOverdue   int             `json:"days_overdue"`
}

// SettlementQuoteResponse wraps a SettlementQuote
type SettlementQuoteResponse struct {
	Data *SettlementQuote `json:"data"`
}

// RecordPaymentRequest records that an invoice was paid
type RecordPaymentRequest struct {
	PaidAt time.Time `json:"paid_at" validate:"required"`
}

// PaymentTermResponse describes a payment term type
type PaymentTermResponse struct {
	TermType    PaymentTermType `json:"term_type"`
	Description string          `json:"description"`
	DueDays     int             `json:"due_days"`
}

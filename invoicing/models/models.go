package models

import (
	"slices"
	"time"

	"encore.dev/types/uuid"
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency represents supported currencies
type Currency string

const (
	USD Currency = money.USD
	EUR Currency = money.EUR
	GBP Currency = money.GBP
	KES Currency = money.KES
	NGN Currency = money.NGN
	GHS Currency = money.GHS
	ZAR Currency = money.ZAR
	UGX Currency = money.UGX
)

// PaymentTermType describes when payment falls due
type PaymentTermType string

const (
	TermNet15              PaymentTermType = "NET_15"
	TermNet30              PaymentTermType = "NET_30"
	TermNet60              PaymentTermType = "NET_60"
	TermCashOnDelivery     PaymentTermType = "CASH_ON_DELIVERY"
	TermCashInAdvance      PaymentTermType = "CASH_IN_ADVANCE"
	TermCashBeforeDelivery PaymentTermType = "CASH_BEFORE_DELIVERY"
	TermCashWithOrder      PaymentTermType = "CASH_WITH_ORDER"
	TermCustom             PaymentTermType = "CUSTOM"
)

// PaymentTermTypes lists every recognised term type in display order
var PaymentTermTypes = []PaymentTermType{
	TermNet15,
	TermNet30,
	TermNet60,
	TermCashOnDelivery,
	TermCashInAdvance,
	TermCashBeforeDelivery,
	TermCashWithOrder,
	TermCustom,
}

// LateFeeType selects how LatePaymentConfig.LateFeeAmount is read
type LateFeeType string

const (
	LateFeePercentage LateFeeType = "percentage"
	LateFeeFixed      LateFeeType = "fixed"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusIssued    InvoiceStatus = "issued"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// InvoiceLineItem is one billable entry on an invoice
type InvoiceLineItem struct {
	ID                 string          `json:"id"`
	Description        string          `json:"description,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

// LatePaymentConfig is the fee policy applied after the due date
type LatePaymentConfig struct {
	LateFeeEnabled   bool            `json:"late_fee_enabled"`
	LateFeeAmount    decimal.Decimal `json:"late_fee_amount"`
	LateFeeType      LateFeeType     `json:"late_fee_type"`
	GracePeriodDays  int             `json:"grace_period_days"`
	CompoundInterest bool            `json:"compound_interest"`
}

// DiscountTier rewards payment within DiscountDays of the invoice date
type DiscountTier struct {
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	DiscountDays       int             `json:"discount_days"`
}

// EarlyDiscountConfig holds the early payment tiers. Tiers are independent;
// which one applies is decided by a TierPolicy.
type EarlyDiscountConfig struct {
	Tiers []DiscountTier `json:"tiers"`
}

// InvoicePaymentTerms is the structured description of payment terms
type InvoicePaymentTerms struct {
	TermTypes      []PaymentTermType `json:"term_types"`
	Description    string            `json:"description"`
	LateFeeEnabled bool              `json:"late_fee_enabled"`
	LateFeeAmount  decimal.Decimal   `json:"late_fee_amount"`
	BenefitEnabled bool              `json:"benefit_enabled"`
	BenefitAmount  decimal.Decimal   `json:"benefit_amount"`
}

// Primary returns the term type that drives the due date.
func (t InvoicePaymentTerms) Primary() PaymentTermType {
	if len(t.TermTypes) == 0 {
		return TermNet30
	}
	return t.TermTypes[0]
}

// InvoiceConfiguration is everything the calculator needs to price an invoice
type InvoiceConfiguration struct {
	Items              []InvoiceLineItem    `json:"items"`
	IncludeVAT         bool                 `json:"include_vat"`
	VATRate            decimal.Decimal      `json:"vat_rate"`
	Currency           Currency             `json:"currency"`
	LatePaymentTerms   *LatePaymentConfig   `json:"late_payment_terms,omitempty"`
	EarlyDiscountTerms *EarlyDiscountConfig `json:"early_discount_terms,omitempty"`
	PaymentTerms       *InvoicePaymentTerms `json:"payment_terms,omitempty"`
}

// Totals are the monetary totals of an invoice, unrounded
type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	VATAmount decimal.Decimal `json:"vat_amount"`
	Total     decimal.Decimal `json:"total"`
}

type Converted struct {
	Amount        decimal.Decimal `json:"amount"`
	RateUpdatedAt time.Time       `json:"rate_updated_at"`
}

// Invoice is an issued invoice and its collection state
type Invoice struct {
	ID            uuid.UUID            `json:"id" db:"id"`
	Number        string               `json:"number" db:"number"`
	BusinessName  string               `json:"business_name" db:"business_name"`
	CustomerName  string               `json:"customer_name" db:"customer_name"`
	Status        InvoiceStatus        `json:"status" db:"status"`
	Configuration InvoiceConfiguration `json:"configuration"`
	PaymentMethod *PaymentMethod       `json:"payment_method,omitempty"`
	IssuedAt      time.Time            `json:"issued_at" db:"issued_at"`
	DueDate       time.Time            `json:"due_date" db:"due_date"`
	WorkflowID    string               `json:"workflow_id" db:"workflow_id"`
	LateFees      decimal.Decimal      `json:"late_fees" db:"late_fees"`
	PaidAt        *time.Time           `json:"paid_at,omitempty" db:"paid_at"`
	AmountPaid    *decimal.Decimal     `json:"amount_paid,omitempty" db:"amount_paid"`
	CancelledAt   *time.Time           `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt     time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" db:"updated_at"`

	Totals    *Totals                `json:"totals,omitempty"`
	Converted map[Currency]Converted `json:"converted,omitempty"`
}

func (c Currency) Validate(cfg *AppConfig) error {
	if slices.Contains(cfg.Invoicing.Validation.AllowedCurrencies(), string(c)) {
		return nil
	}
	return ErrInvalidCurrency
}

// Validate validates the invoice status
func (s InvoiceStatus) Validate() error {
	switch s {
	case InvoiceStatusIssued, InvoiceStatusOverdue, InvoiceStatusPaid, InvoiceStatusCancelled:
		return nil
	default:
		return ErrInvalidInvoiceStatus
	}
}

// Validate reports whether t is one of the recognised term types
func (t PaymentTermType) Validate() error {
	if slices.Contains(PaymentTermTypes, t) {
		return nil
	}
	return ErrInvalidPaymentTerm
}

// IsOpen reports whether the invoice still awaits payment
func (i *Invoice) IsOpen() bool {
	return i.Status == InvoiceStatusIssued || i.Status == InvoiceStatusOverdue
}

func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

func (i *Invoice) IsCancelled() bool {
	return i.Status == InvoiceStatusCancelled
}

// AddLateFee records an assessed late fee and flags the invoice overdue
func (i *Invoice) AddLateFee(fee decimal.Decimal) (success bool) {
	if !i.IsOpen() {
		return false
	}
	i.LateFees = i.LateFees.Add(fee)
	i.Status = InvoiceStatusOverdue
	return true
}

func (i *Invoice) MarkPaid(amount decimal.Decimal, at time.Time) (success bool) {
	if !i.IsOpen() {
		return false
	}
	i.Status = InvoiceStatusPaid
	i.PaidAt = &at
	i.AmountPaid = &amount
	return true
}

func (i *Invoice) Cancel(at time.Time) (success bool) {
	if !i.IsOpen() {
		return false
	}
	i.Status = InvoiceStatusCancelled
	i.CancelledAt = &at
	return true
}

// Balance is the invoice total plus accrued late fees. Totals must be set.
func (i *Invoice) Balance() decimal.Decimal {
	if i.Totals == nil {
		return i.LateFees
	}
	return i.Totals.Total.Add(i.LateFees)
}

// Convert reports the balance in each target currency using rates quoted
// against a common base, rounded to the target's minor unit.
func (i *Invoice) Convert(rates *RatesData, targets []Currency) error {
	if i.Totals == nil || len(targets) == 0 {
		return nil
	}

	from := i.Configuration.Currency
	fromX, ok := rates.Rates[string(from)]
	if !ok {
		return ErrCurrencyNotFound
	}
	if fromX <= 0 {
		return ErrInvalidExchangeRate
	}

	balance := i.Balance()
	converted := make(map[Currency]Converted, len(targets))
	for _, target := range targets {
		if target == from {
			converted[target] = Converted{Amount: balance, RateUpdatedAt: rates.UpdatedAt}
			continue
		}
		toX, ok := rates.Rates[string(target)]
		if !ok {
			return ErrCurrencyNotFound
		}
		if toX <= 0 {
			return ErrInvalidExchangeRate
		}

		fraction := 2
		if currency := money.GetCurrency(string(target)); currency != nil {
			fraction = currency.Fraction
		}
		converted[target] = Converted{
			Amount:        balance.Mul(decimal.NewFromFloat(toX / fromX)).Round(int32(fraction)),
			RateUpdatedAt: rates.UpdatedAt,
		}
	}

	i.Converted = converted
	return nil
}

type RatesData struct {
	Rates     map[string]float64
	UpdatedAt time.Time
}

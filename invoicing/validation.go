package invoicing

import (
	"fmt"
	"unicode/utf8"

	"encore.dev/beta/errs"
	"encore.dev/rlog"
	"github.com/shopspring/decimal"
	"receivables.app/invoicing/calculator"
	"receivables.app/invoicing/models"
)

var hundred = decimal.NewFromInt(100)

func invalid(format string, args ...any) error {
	return &errs.Error{
		Code:    errs.InvalidArgument,
		Message: fmt.Sprintf(format, args...),
	}
}

func ValidatePreviewInvoiceRequest(req *models.PreviewInvoiceRequest) error {
	log := rlog.With("module", "invoicing_validation")
	log.Debug("validating preview invoice request", "items_count", len(req.Configuration.Items))

	return validateConfiguration(req.Configuration)
}

func ValidateCreateInvoiceRequest(req *models.CreateInvoiceRequest) error {
	log := rlog.With("module", "invoicing_validation").With("business_name", req.BusinessName)
	log.Debug("validating create invoice request",
		"customer_name", req.CustomerName,
		"items_count", len(req.Configuration.Items))

	if req.BusinessName == "" {
		log.Warn("validation failed: business_name is required")
		return invalid("business_name is required")
	}

	maxBusinessNameLength := cfg.Invoicing.Validation.MaxBusinessNameLength()
	if nameLength := utf8.RuneCountInString(req.BusinessName); nameLength > maxBusinessNameLength {
		log.Warn("validation failed: business_name too long",
			"business_name_length", nameLength,
			"max_length", maxBusinessNameLength)
		return invalid("business_name cannot exceed %d characters", maxBusinessNameLength)
	}

	if req.CustomerName == "" {
		log.Warn("validation failed: customer_name is required")
		return invalid("customer_name is required")
	}

	if len(req.Configuration.Items) == 0 {
		log.Warn("validation failed: no line items")
		return invalid("at least one line item is required")
	}

	if req.PaymentMethod != nil {
		if err := req.PaymentMethod.Validate(); err != nil {
			log.Warn("validation failed: invalid payment method", "type", req.PaymentMethod.Type, "error", err)
			return err
		}
	}

	if err := validateConfiguration(req.Configuration); err != nil {
		return err
	}

	log.Debug("create invoice request validation passed")
	return nil
}

// validateConfiguration rejects input the calculator would happily price
func validateConfiguration(c models.InvoiceConfiguration) error {
	log := rlog.With("module", "invoicing_validation").With("currency", c.Currency)

	if err := c.Currency.Validate(cfg); err != nil {
		log.Warn("validation failed: invalid currency", "error", err)
		return err
	}

	maxLineItems := cfg.Invoicing.Validation.MaxLineItems()
	if len(c.Items) > maxLineItems {
		log.Warn("validation failed: too many line items",
			"items_count", len(c.Items),
			"max_line_items", maxLineItems)
		return invalid("an invoice cannot have more than %d line items", maxLineItems)
	}

	for i, item := range c.Items {
		if err := validateLineItem(item); err != nil {
			log.Warn("validation failed: invalid line item", "index", i, "item_id", item.ID, "error", err)
			return err
		}
	}

	if c.VATRate.IsNegative() || c.VATRate.GreaterThan(decimal.NewFromInt(1)) {
		log.Warn("validation failed: vat_rate out of range", "vat_rate", c.VATRate)
		return models.ErrInvalidVATRate
	}

	if err := validateLatePaymentTerms(c.LatePaymentTerms); err != nil {
		log.Warn("validation failed: invalid late payment terms", "error", err)
		return err
	}

	if err := validateEarlyDiscountTerms(c.EarlyDiscountTerms); err != nil {
		log.Warn("validation failed: invalid early discount terms", "error", err)
		return err
	}

	if c.PaymentTerms != nil {
		if len(c.PaymentTerms.TermTypes) == 0 {
			log.Warn("validation failed: payment_terms without term types")
			return invalid("payment_terms.term_types cannot be empty")
		}
		for _, termType := range c.PaymentTerms.TermTypes {
			if err := termType.Validate(); err != nil {
				log.Warn("validation failed: invalid payment term", "term_type", termType)
				return err
			}
		}
	}

	// Calculate total amount and check limits using configured maximum
	total := calculator.CalculateTotals(c).Total
	maxTotalAmount := decimal.NewFromFloat(cfg.Invoicing.Validation.MaxTotalAmount())
	if total.GreaterThan(maxTotalAmount) {
		log.Warn("validation failed: total amount too high",
			"total_amount", total,
			"max_total_amount", maxTotalAmount)
		return invalid("invoice total cannot exceed %s", maxTotalAmount)
	}

	return nil
}

func validateLineItem(item models.InvoiceLineItem) error {
	maxDescriptionLength := cfg.Invoicing.Validation.MaxDescriptionLength()
	if len(item.Description) > maxDescriptionLength {
		return invalid("description cannot exceed %d characters", maxDescriptionLength)
	}

	if item.Quantity.IsNegative() {
		return models.ErrInvalidQuantity
	}

	maxQuantity := decimal.NewFromFloat(cfg.Invoicing.Validation.MaxQuantity())
	if item.Quantity.GreaterThan(maxQuantity) {
		return invalid("quantity cannot exceed %s", maxQuantity)
	}

	if item.UnitPrice.IsNegative() {
		return invalid("unit_price cannot be negative")
	}

	maxUnitPrice := decimal.NewFromFloat(cfg.Invoicing.Validation.MaxUnitPrice())
	if item.UnitPrice.GreaterThan(maxUnitPrice) {
		return invalid("unit_price cannot exceed %s", maxUnitPrice)
	}

	if item.DiscountPercentage.IsNegative() || item.DiscountPercentage.GreaterThan(hundred) {
		return models.ErrInvalidDiscount
	}

	return nil
}

func validateLatePaymentTerms(terms *models.LatePaymentConfig) error {
	if terms == nil || !terms.LateFeeEnabled {
		return nil
	}

	switch terms.LateFeeType {
	case models.LateFeePercentage:
		if terms.LateFeeAmount.IsNegative() || terms.LateFeeAmount.GreaterThan(hundred) {
			return invalid("late_fee_amount must be between 0 and 100 for percentage fees")
		}
	case models.LateFeeFixed:
		if terms.LateFeeAmount.IsNegative() {
			return invalid("late_fee_amount cannot be negative")
		}
	default:
		return invalid("late_fee_type must be percentage or fixed")
	}

	if terms.GracePeriodDays < 0 {
		return invalid("grace_period_days cannot be negative")
	}
	return nil
}

func validateEarlyDiscountTerms(terms *models.EarlyDiscountConfig) error {
	if terms == nil {
		return nil
	}

	for _, tier := range terms.Tiers {
		if tier.DiscountPercentage.IsNegative() || tier.DiscountPercentage.GreaterThan(hundred) {
			return models.ErrInvalidDiscount
		}
		if tier.DiscountDays <= 0 {
			return invalid("discount_days must be positive")
		}
	}
	return nil
}

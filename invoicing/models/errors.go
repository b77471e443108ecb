package models

import (
	"encore.dev/beta/errs"
)

var (
	// ErrInvoiceNotFound is returned when an invoice is not found
	ErrInvoiceNotFound = &errs.Error{
		Code:    errs.NotFound,
		Message: "invoice not found",
	}

	// ErrInvoiceNotOpen is returned when trying to settle or cancel a paid or cancelled invoice
	ErrInvoiceNotOpen = &errs.Error{
		Code:    errs.FailedPrecondition,
		Message: "invoice is no longer open",
	}

	// ErrInvalidCurrency is returned when an invalid currency is provided
	ErrInvalidCurrency = &errs.Error{
		Code:    errs.InvalidArgument,
		Message: "unsupported currency",
	}

	// ErrCurrencyNotFound is returned when no exchange rate exists for a currency
	ErrCurrencyNotFound = &errs.Error{
		Code:    errs.NotFound,
		Message: "currency not found",
	}

	// ErrInvalidExchangeRate is returned when a quoted rate is zero or negative
	ErrInvalidExchangeRate = &errs.Error{
		Code:    errs.Unavailable,
		Message: "exchange rate is not usable",
	}

	// ErrInvalidInvoiceStatus is returned when an invalid invoice status is provided
	ErrInvalidInvoiceStatus = &errs.Error{
		Code:    errs.InvalidArgument,
		Message: "invalid invoice status, supported statuses are issued, overdue, paid and cancelled",
	}

	// ErrInvalidPaymentTerm is returned for an unrecognised payment term type
	ErrInvalidPaymentTerm = &errs.Error{
		Code:    errs.InvalidArgument,
		Message: "unsupported payment term type",
	}

	// ErrInvalidPaymentMethod is returned for an unknown payment method type
	ErrInvalidPaymentMethod = &errs.Error{
		Code:    errs.InvalidArgument,
		Message: "unsupported payment method type",
	}

	// ErrInvalidQuantity is returned when quantity is negative
	ErrInvalidQuantity = &errs.Error{
		Code:    errs.InvalidArgument,
		Message: "quantity cannot be negative",
	}

	// ErrInvalidDiscount is returned when a percentage is outside [0, 100]
	ErrInvalidDiscount = &errs.Error{
		Code:    errs.InvalidArgument,
		Message: "discount_percentage must be between 0 and 100",
	}

	// ErrInvalidVATRate is returned when vat_rate is outside [0, 1]
	ErrInvalidVATRate = &errs.Error{
		Code:    errs.InvalidArgument,
		Message: "vat_rate must be a fraction between 0 and 1",
	}
)

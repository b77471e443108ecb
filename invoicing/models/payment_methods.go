package models

import (
	"fmt"
	"slices"
	"strings"

	"encore.dev/beta/errs"
)

// PaymentMethodType selects which variant of PaymentMethod is populated
type PaymentMethodType string

const (
	PaymentMethodBankTransfer PaymentMethodType = "bank_transfer"
	PaymentMethodMobileMoney  PaymentMethodType = "mobile_money"
	PaymentMethodCard         PaymentMethodType = "card"
	PaymentMethodCash         PaymentMethodType = "cash"
)

// PaymentMethodDetails is implemented by every payment method variant
type PaymentMethodDetails interface {
	MethodType() PaymentMethodType
	Validate() error
	// Lines renders the variant for invoice documents
	Lines() []string
}

type BankTransferDetails struct {
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BranchCode    string `json:"branch_code,omitempty"`
	SwiftCode     string `json:"swift_code,omitempty"`
}

type MobileMoneyDetails struct {
	Provider    string `json:"provider"`
	PhoneNumber string `json:"phone_number"`
	AccountName string `json:"account_name"`
	TillNumber  string `json:"till_number,omitempty"`
}

type CardDetails struct {
	PaymentLink string `json:"payment_link"`
}

type CashDetails struct {
	Instructions string `json:"instructions,omitempty"`
}

// PaymentMethod is a tagged variant: Type names the one populated field.
type PaymentMethod struct {
	Type         PaymentMethodType    `json:"type"`
	BankTransfer *BankTransferDetails `json:"bank_transfer,omitempty"`
	MobileMoney  *MobileMoneyDetails  `json:"mobile_money,omitempty"`
	Card         *CardDetails         `json:"card,omitempty"`
	Cash         *CashDetails         `json:"cash,omitempty"`
}

// Details returns the populated variant, or nil when it does not match Type.
func (p PaymentMethod) Details() PaymentMethodDetails {
	switch p.Type {
	case PaymentMethodBankTransfer:
		if p.BankTransfer != nil {
			return p.BankTransfer
		}
	case PaymentMethodMobileMoney:
		if p.MobileMoney != nil {
			return p.MobileMoney
		}
	case PaymentMethodCard:
		if p.Card != nil {
			return p.Card
		}
	case PaymentMethodCash:
		if p.Cash != nil {
			return p.Cash
		}
		return &CashDetails{}
	}
	return nil
}

// populated lists the non-nil variants regardless of Type.
func (p PaymentMethod) populated() []PaymentMethodDetails {
	var variants []PaymentMethodDetails
	if p.BankTransfer != nil {
		variants = append(variants, p.BankTransfer)
	}
	if p.MobileMoney != nil {
		variants = append(variants, p.MobileMoney)
	}
	if p.Card != nil {
		variants = append(variants, p.Card)
	}
	if p.Cash != nil {
		variants = append(variants, p.Cash)
	}
	return variants
}

// Validate checks that only the variant named by Type is set and that it is complete.
func (p PaymentMethod) Validate() error {
	switch p.Type {
	case PaymentMethodBankTransfer, PaymentMethodMobileMoney, PaymentMethodCard, PaymentMethodCash:
	default:
		return ErrInvalidPaymentMethod
	}

	for _, variant := range p.populated() {
		if variant.MethodType() != p.Type {
			return invalidPaymentMethod("only the %s details may be set", p.Type)
		}
	}

	details := p.Details()
	if details == nil {
		return invalidPaymentMethod("%s details are required", p.Type)
	}
	return details.Validate()
}

func (d *BankTransferDetails) MethodType() PaymentMethodType { return PaymentMethodBankTransfer }

func (d *BankTransferDetails) Validate() error {
	return required("bank_transfer", map[string]string{
		"bank_name":      d.BankName,
		"account_name":   d.AccountName,
		"account_number": d.AccountNumber,
	})
}

func (d *BankTransferDetails) Lines() []string {
	lines := []string{
		"Bank: " + d.BankName,
		"Account name: " + d.AccountName,
		"Account number: " + d.AccountNumber,
	}
	if d.BranchCode != "" {
		lines = append(lines, "Branch code: "+d.BranchCode)
	}
	if d.SwiftCode != "" {
		lines = append(lines, "SWIFT: "+d.SwiftCode)
	}
	return lines
}

func (d *MobileMoneyDetails) MethodType() PaymentMethodType { return PaymentMethodMobileMoney }

func (d *MobileMoneyDetails) Validate() error {
	return required("mobile_money", map[string]string{
		"provider":     d.Provider,
		"phone_number": d.PhoneNumber,
		"account_name": d.AccountName,
	})
}

func (d *MobileMoneyDetails) Lines() []string {
	lines := []string{
		"Mobile money: " + d.Provider,
		"Phone number: " + d.PhoneNumber,
		"Account name: " + d.AccountName,
	}
	if d.TillNumber != "" {
		lines = append(lines, "Till number: "+d.TillNumber)
	}
	return lines
}

func (d *CardDetails) MethodType() PaymentMethodType { return PaymentMethodCard }

func (d *CardDetails) Validate() error {
	if err := required("card", map[string]string{"payment_link": d.PaymentLink}); err != nil {
		return err
	}
	if !strings.HasPrefix(d.PaymentLink, "https://") {
		return invalidPaymentMethod("card.payment_link must be an https URL")
	}
	return nil
}

func (d *CardDetails) Lines() []string {
	return []string{"Pay by card: " + d.PaymentLink}
}

func (d *CashDetails) MethodType() PaymentMethodType { return PaymentMethodCash }

func (d *CashDetails) Validate() error { return nil }

func (d *CashDetails) Lines() []string {
	if d.Instructions == "" {
		return []string{"Cash payment"}
	}
	return []string{"Cash payment: " + d.Instructions}
}

// required reports the first empty field in alphabetical order
func required(prefix string, fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return invalidPaymentMethod("%s.%s is required", prefix, missing[0])
}

func invalidPaymentMethod(format string, args ...any) error {
	return &errs.Error{
		Code:    errs.InvalidArgument,
		Message: fmt.Sprintf(format, args...),
	}
}

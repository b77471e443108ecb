package core

import (
	"context"
	"time"

	"encore.dev/rlog"
	"encore.dev/types/uuid"
	"github.com/shopspring/decimal"
	"receivables.app/invoicing/models"
	"receivables.app/invoicing/repository"
)

func NewInvoicingActivities(repository repository.Repository) *InvoicingActivities {
	return &InvoicingActivities{
		repository: repository,
	}
}

type InvoicingActivities struct {
	repository repository.Repository
}

// SaveInvoice persists the invoice once its workflow has been started
func (a *InvoicingActivities) SaveInvoice(ctx context.Context, input *models.Invoice) error {
	logger := rlog.With("module", "invoicing_activities")
	logger.Info("Saving invoice", "invoice_id", input.ID, "number", input.Number)

	err := a.repository.CreateInvoice(ctx, input)
	if err != nil {
		logger.Error("Failed to save invoice", "error", err)
		return err
	}

	logger.Info("Save invoice successfully", "invoice_id", input.ID)
	return nil
}

type AddLateFeeInput struct {
	InvoiceID  uuid.UUID       `json:"invoice_id"`
	Fee        decimal.Decimal `json:"fee"`
	AssessedAt time.Time       `json:"assessed_at"`
}

// AddLateFee accrues a late fee and flags the invoice overdue
func (a *InvoicingActivities) AddLateFee(ctx context.Context, input AddLateFeeInput) error {
	logger := rlog.With("module", "invoicing_activities")
	logger.Info("Adding late fee", "invoice_id", input.InvoiceID, "fee", input.Fee.String())

	err := a.repository.AddLateFee(ctx, input.InvoiceID, input.Fee, input.AssessedAt)
	if err != nil {
		logger.Error("Failed to add late fee", "error", err)
		return err
	}

	logger.Info("Late fee added successfully", "invoice_id", input.InvoiceID)
	return nil
}

type MarkPaidInput struct {
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paid_at"`
}

// MarkPaid records the settled amount and closes the invoice
func (a *InvoicingActivities) MarkPaid(ctx context.Context, input MarkPaidInput) (*models.Invoice, error) {
	logger := rlog.With("module", "invoicing_activities")
	logger.Info("Marking invoice paid", "invoice_id", input.InvoiceID, "amount", input.Amount.String())

	err := a.repository.MarkPaid(ctx, input.InvoiceID, input.Amount, input.PaidAt)
	if err != nil {
		logger.Error("Failed to mark invoice paid", "error", err)
		return nil, err
	}

	invoice, err := a.repository.GetInvoiceByID(ctx, input.InvoiceID)
	if err != nil {
		logger.Error("Failed to get invoice", "error", err)
		return nil, err
	}

	logger.Info("Invoice marked paid successfully", "invoice_id", input.InvoiceID)
	return invoice, nil
}

type CancelInvoiceInput struct {
	InvoiceID   uuid.UUID `json:"invoice_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// CancelInvoice closes the invoice without payment
func (a *InvoicingActivities) CancelInvoice(ctx context.Context, input CancelInvoiceInput) (*models.Invoice, error) {
	logger := rlog.With("module", "invoicing_activities")
	logger.Info("Cancelling invoice", "invoice_id", input.InvoiceID)

	err := a.repository.CancelInvoice(ctx, input.InvoiceID, input.CancelledAt)
	if err != nil {
		logger.Error("Failed to cancel invoice", "error", err)
		return nil, err
	}

	invoice, err := a.repository.GetInvoiceByID(ctx, input.InvoiceID)
	if err != nil {
		logger.Error("Failed to get invoice", "error", err)
		return nil, err
	}

	logger.Info("Invoice cancelled successfully", "invoice_id", input.InvoiceID)
	return invoice, nil
}

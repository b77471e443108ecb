package repository

import (
	"context"
	"database/sql"
	"time"

	"encore.dev/types/uuid"
	"github.com/shopspring/decimal"
	"receivables.app/invoicing/models"
)

// FakeRepo is an in-memory repo used for testing
type FakeRepo struct {
	invoices map[uuid.UUID]*models.Invoice
}

func (m *FakeRepo) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	if m.invoices == nil {
		m.invoices = make(map[uuid.UUID]*models.Invoice)
	}
	stored := *invoice
	stored.Totals = nil
	stored.Converted = nil
	m.invoices[invoice.ID] = &stored
	return nil
}

func (m *FakeRepo) GetInvoiceByID(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	if invoice, exists := m.invoices[invoiceID]; exists {
		found := *invoice
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (m *FakeRepo) GetLineItemsByInvoiceID(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceLineItem, error) {
	if invoice, exists := m.invoices[invoiceID]; exists {
		return invoice.Configuration.Items, nil
	}
	return []models.InvoiceLineItem{}, nil
}

func (m *FakeRepo) AddLateFee(ctx context.Context, invoiceID uuid.UUID, fee decimal.Decimal, assessedAt time.Time) error {
	invoice, exists := m.invoices[invoiceID]
	if !exists || !invoice.AddLateFee(fee) {
		return sql.ErrNoRows
	}
	return nil
}

func (m *FakeRepo) MarkPaid(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal, paidAt time.Time) error {
	invoice, exists := m.invoices[invoiceID]
	if !exists || !invoice.MarkPaid(amount, paidAt) {
		return sql.ErrNoRows
	}
	return nil
}

func (m *FakeRepo) CancelInvoice(ctx context.Context, invoiceID uuid.UUID, cancelledAt time.Time) error {
	invoice, exists := m.invoices[invoiceID]
	if !exists || !invoice.Cancel(cancelledAt) {
		return sql.ErrNoRows
	}
	return nil
}

package core

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"encore.dev/types/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"receivables.app/invoicing/models"
	"receivables.app/invoicing/repository"
)

func newTestInvoice(issuedAt time.Time) *models.Invoice {
	return &models.Invoice{
		ID:           uuid.Must(uuid.NewV4()),
		Number:       "RID-250915-1405",
		BusinessName: "Ridgeway Butchery",
		CustomerName: "Acme Ltd",
		Status:       models.InvoiceStatusIssued,
		Configuration: models.InvoiceConfiguration{
			Currency:   models.KES,
			IncludeVAT: true,
			VATRate:    decimal.RequireFromString("0.15"),
			Items: []models.InvoiceLineItem{
				{
					ID:                 "1",
					Description:        "Beef",
					Quantity:           decimal.NewFromInt(2),
					UnitPrice:          decimal.NewFromInt(50),
					DiscountPercentage: decimal.NewFromInt(10),
				},
			},
		},
		IssuedAt:  issuedAt,
		DueDate:   issuedAt.AddDate(0, 0, 30),
		LateFees:  decimal.Zero,
		CreatedAt: issuedAt,
		UpdatedAt: issuedAt,
	}
}

func TestNewInvoicingActivities(t *testing.T) {
	t.Run("should_create_activities_with_repository", func(t *testing.T) {
		fakeRepo := &repository.FakeRepo{}
		activities := NewInvoicingActivities(fakeRepo)

		assert.NotNil(t, activities)
		assert.Equal(t, fakeRepo, activities.repository)
	})
}

func TestInvoicingActivities_SaveInvoice(t *testing.T) {
	t.Run("when_invoice_is_valid", func(t *testing.T) {
		t.Run("should_save_invoice_successfully", func(t *testing.T) {
			fakeRepo := &repository.FakeRepo{}
			activities := NewInvoicingActivities(fakeRepo)
			invoice := newTestInvoice(time.Now())

			err := activities.SaveInvoice(context.TODO(), invoice)

			assert.NoError(t, err)

			saved, err := fakeRepo.GetInvoiceByID(context.TODO(), invoice.ID)
			assert.NoError(t, err)
			assert.Equal(t, invoice.Number, saved.Number)
			assert.Equal(t, invoice.Status, saved.Status)
			assert.Len(t, saved.Configuration.Items, 1)
		})
	})

	t.Run("when_repository_fails", func(t *testing.T) {
		t.Run("should_return_error", func(t *testing.T) {
			mockRepo := &MockRepository{
				createInvoiceError: errors.New("database connection failed"),
			}
			activities := NewInvoicingActivities(mockRepo)

			err := activities.SaveInvoice(context.TODO(), newTestInvoice(time.Now()))

			assert.Error(t, err)
			assert.Contains(t, err.Error(), "database connection failed")
		})
	})
}

func TestInvoicingActivities_AddLateFee(t *testing.T) {
	t.Run("when_invoice_is_open", func(t *testing.T) {
		t.Run("should_accrue_fee_and_flag_overdue", func(t *testing.T) {
			fakeRepo := &repository.FakeRepo{}
			activities := NewInvoicingActivities(fakeRepo)
			invoice := newTestInvoice(time.Now())
			require.NoError(t, fakeRepo.CreateInvoice(context.TODO(), invoice))

			for range 2 {
				err := activities.AddLateFee(context.TODO(), AddLateFeeInput{
					InvoiceID:  invoice.ID,
					Fee:        decimal.RequireFromString("5.175"),
					AssessedAt: time.Now(),
				})
				require.NoError(t, err)
			}

			saved, err := fakeRepo.GetInvoiceByID(context.TODO(), invoice.ID)
			require.NoError(t, err)
			assert.Equal(t, models.InvoiceStatusOverdue, saved.Status)
			assert.True(t, decimal.RequireFromString("10.35").Equal(saved.LateFees))
		})
	})

	t.Run("when_invoice_does_not_exist", func(t *testing.T) {
		t.Run("should_return_error", func(t *testing.T) {
			activities := NewInvoicingActivities(&repository.FakeRepo{})

			err := activities.AddLateFee(context.TODO(), AddLateFeeInput{
				InvoiceID: uuid.Must(uuid.NewV4()),
				Fee:       decimal.NewFromInt(1),
			})

			assert.ErrorIs(t, err, sql.ErrNoRows)
		})
	})
}

func TestInvoicingActivities_MarkPaid(t *testing.T) {
	t.Run("when_invoice_exists", func(t *testing.T) {
		t.Run("should_mark_invoice_paid", func(t *testing.T) {
			fakeRepo := &repository.FakeRepo{}
			activities := NewInvoicingActivities(fakeRepo)
			invoice := newTestInvoice(time.Now())
			require.NoError(t, fakeRepo.CreateInvoice(context.TODO(), invoice))

			paidAt := time.Now()
			amount := decimal.RequireFromString("103.5")

			paid, err := activities.MarkPaid(context.TODO(), MarkPaidInput{
				InvoiceID: invoice.ID,
				Amount:    amount,
				PaidAt:    paidAt,
			})

			require.NoError(t, err)
			assert.Equal(t, models.InvoiceStatusPaid, paid.Status)
			assert.Equal(t, &paidAt, paid.PaidAt)
			assert.True(t, amount.Equal(*paid.AmountPaid))
		})
	})

	t.Run("when_invoice_does_not_exist", func(t *testing.T) {
		t.Run("should_return_error", func(t *testing.T) {
			activities := NewInvoicingActivities(&repository.FakeRepo{})

			paid, err := activities.MarkPaid(context.TODO(), MarkPaidInput{InvoiceID: uuid.Must(uuid.NewV4())})

			assert.ErrorIs(t, err, sql.ErrNoRows)
			assert.Nil(t, paid)
		})
	})

	t.Run("when_repository_get_fails_after_update", func(t *testing.T) {
		t.Run("should_return_error", func(t *testing.T) {
			mockRepo := &MockRepository{
				getInvoiceByIDError: errors.New("failed to retrieve invoice"),
			}
			activities := NewInvoicingActivities(mockRepo)

			paid, err := activities.MarkPaid(context.TODO(), MarkPaidInput{InvoiceID: uuid.Must(uuid.NewV4())})

			assert.Error(t, err)
			assert.Nil(t, paid)
			assert.Contains(t, err.Error(), "failed to retrieve invoice")
		})
	})
}

func TestInvoicingActivities_CancelInvoice(t *testing.T) {
	t.Run("when_invoice_is_open", func(t *testing.T) {
		t.Run("should_cancel_invoice", func(t *testing.T) {
			fakeRepo := &repository.FakeRepo{}
			activities := NewInvoicingActivities(fakeRepo)
			invoice := newTestInvoice(time.Now())
			require.NoError(t, fakeRepo.CreateInvoice(context.TODO(), invoice))

			cancelledAt := time.Now()
			cancelled, err := activities.CancelInvoice(context.TODO(), CancelInvoiceInput{
				InvoiceID:   invoice.ID,
				CancelledAt: cancelledAt,
			})

			require.NoError(t, err)
			assert.Equal(t, models.InvoiceStatusCancelled, cancelled.Status)
			assert.Equal(t, &cancelledAt, cancelled.CancelledAt)
		})
	})

	t.Run("when_invoice_is_already_paid", func(t *testing.T) {
		t.Run("should_return_error", func(t *testing.T) {
			fakeRepo := &repository.FakeRepo{}
			activities := NewInvoicingActivities(fakeRepo)
			invoice := newTestInvoice(time.Now())
			invoice.MarkPaid(decimal.NewFromInt(1), time.Now())
			require.NoError(t, fakeRepo.CreateInvoice(context.TODO(), invoice))

			cancelled, err := activities.CancelInvoice(context.TODO(), CancelInvoiceInput{InvoiceID: invoice.ID})

			assert.ErrorIs(t, err, sql.ErrNoRows)
			assert.Nil(t, cancelled)
		})
	})

	t.Run("when_repository_cancel_fails", func(t *testing.T) {
		t.Run("should_return_error", func(t *testing.T) {
			mockRepo := &MockRepository{
				cancelInvoiceError: errors.New("failed to cancel invoice"),
			}
			activities := NewInvoicingActivities(mockRepo)

			cancelled, err := activities.CancelInvoice(context.TODO(), CancelInvoiceInput{InvoiceID: uuid.Must(uuid.NewV4())})

			assert.Error(t, err)
			assert.Nil(t, cancelled)
			assert.Contains(t, err.Error(), "failed to cancel invoice")
		})
	})
}

// MockRepository is a repository whose operations fail with the configured errors
type MockRepository struct {
	createInvoiceError  error
	getInvoiceByIDError error
	addLateFeeError     error
	markPaidError       error
	cancelInvoiceError  error
	getLineItemsError   error
}

func (m *MockRepository) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return m.createInvoiceError
}

func (m *MockRepository) GetInvoiceByID(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	if m.getInvoiceByIDError != nil {
		return nil, m.getInvoiceByIDError
	}
	return &models.Invoice{ID: invoiceID}, nil
}

func (m *MockRepository) AddLateFee(ctx context.Context, invoiceID uuid.UUID, fee decimal.Decimal, assessedAt time.Time) error {
	return m.addLateFeeError
}

func (m *MockRepository) MarkPaid(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal, paidAt time.Time) error {
	return m.markPaidError
}

func (m *MockRepository) CancelInvoice(ctx context.Context, invoiceID uuid.UUID, cancelledAt time.Time) error {
	return m.cancelInvoiceError
}

func (m *MockRepository) GetLineItemsByInvoiceID(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceLineItem, error) {
	if m.getLineItemsError != nil {
		return nil, m.getLineItemsError
	}
	return []models.InvoiceLineItem{}, nil
}

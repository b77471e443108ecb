package core

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"encore.dev/types/uuid"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	temporalmocks "go.temporal.io/sdk/mocks"
	"receivables.app/invoicing/ext_services/mocks"
	"receivables.app/invoicing/models"
	"receivables.app/invoicing/repository"
)

var issuedAt = time.Date(2025, 9, 15, 14, 5, 0, 0, time.UTC)

func serviceCfg(reportingCurrencies ...string) *models.AppConfig {
	return &models.AppConfig{
		Temporal: models.TemporalConfig{
			WorkflowExecutionTimeoutBuffer: func() int { return 10 },
			TaskQueue:                      func() string { return "test-queue" },
		},
		ExternalServices: models.ExternalServicesConfig{
			ExchangeRates: models.ExchangeRatesConfig{
				ReportingCurrencies: func() []string { return reportingCurrencies },
			},
		},
		Invoicing: models.InvoicingConfig{
			Workflow: models.WorkflowConfig{
				WorkflowIDPrefix:   func() string { return "test-prefix-" },
				CompoundPeriodDays: func() int { return 7 },
				MaxCollectionDays:  func() int { return 90 },
			},
			Terms: models.TermsConfig{
				CustomDueDays: func() int { return 45 },
				TierPolicy:    func() string { return "best" },
			},
		},
	}
}

func newTestService(t *testing.T, cfg *models.AppConfig, repo repository.Repository) (*service, *temporalmocks.Client, *mocks.MockExchangeRatesService) {
	ctrl := gomock.NewController(t)
	temporalClient := &temporalmocks.Client{}
	t.Cleanup(func() { temporalClient.AssertExpectations(t) })
	conversionService := mocks.NewMockExchangeRatesService(ctrl)

	s := NewService(cfg, temporalClient, repo, conversionService)
	s.now = func() time.Time { return issuedAt }
	return s, temporalClient, conversionService
}

type fakeEncodedValue struct {
	value any
}

func (f fakeEncodedValue) HasValue() bool {
	return true
}

func (f fakeEncodedValue) Get(valuePtr interface{}) error {
	rv := reflect.ValueOf(valuePtr)
	if rv.Kind() != reflect.Ptr {
		return errors.New("valuePtr must be a pointer")
	}

	// Assign the stored value into the pointer
	rv.Elem().Set(reflect.ValueOf(f.value))
	return nil
}

func TestNewService(t *testing.T) {
	t.Run("should_create_service_with_all_dependencies", func(t *testing.T) {
		s, _, _ := newTestService(t, serviceCfg(), &repository.FakeRepo{})

		assert.NotNil(t, s)
		assert.NotNil(t, s.now)
	})
}

func TestService_PreviewInvoice(t *testing.T) {
	t.Run("should_price_invoice_without_starting_workflow", func(t *testing.T) {
		s, _, _ := newTestService(t, serviceCfg(), &repository.FakeRepo{})

		resp, err := s.PreviewInvoice(context.TODO(), &models.PreviewInvoiceRequest{
			Configuration: newTestInvoice(issuedAt).Configuration,
		})

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(90).Equal(resp.Totals.Subtotal))
		assert.True(t, decimal.RequireFromString("13.5").Equal(resp.Totals.VATAmount))
		assert.True(t, decimal.RequireFromString("103.5").Equal(resp.Totals.Total))
		assert.Contains(t, resp.Formatted.Total, "103.50")
		assert.Equal(t, []models.PaymentTermType{models.TermNet30}, resp.PaymentTerms.TermTypes)
		assert.Equal(t, "Payment due within 30 days of invoice date", resp.PaymentTerms.Description)
	})
}

func TestService_CreateInvoice(t *testing.T) {
	req := &models.CreateInvoiceRequest{
		BusinessName:  "Ridgeway Butchery",
		CustomerName:  "Acme Ltd",
		Configuration: newTestInvoice(issuedAt).Configuration,
	}

	t.Run("when_request_is_valid", func(t *testing.T) {
		t.Run("should_create_invoice_and_start_workflow", func(t *testing.T) {
			s, temporalClient, _ := newTestService(t, serviceCfg(), &repository.FakeRepo{})
			temporalClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.MatchedBy(func(input InvoiceWorkflowInput) bool {
				return input.TierPolicy == "best" && input.Invoice.Number == "RID-250915-1405"
			})).Return(nil, nil).Once()

			invoice, err := s.CreateInvoice(context.TODO(), req)

			require.NoError(t, err)
			assert.Equal(t, "RID-250915-1405", invoice.Number)
			assert.Equal(t, models.InvoiceStatusIssued, invoice.Status)
			assert.Equal(t, req.BusinessName, invoice.BusinessName)
			assert.Equal(t, req.CustomerName, invoice.CustomerName)
			assert.True(t, strings.HasPrefix(invoice.WorkflowID, "test-prefix-"))
			assert.Equal(t, issuedAt, invoice.IssuedAt)
			assert.Equal(t, issuedAt.AddDate(0, 0, 30), invoice.DueDate)
			assert.True(t, decimal.RequireFromString("103.5").Equal(invoice.Totals.Total))
			require.NotNil(t, invoice.Configuration.PaymentTerms)
			assert.Equal(t, models.TermNet30, invoice.Configuration.PaymentTerms.Primary())
		})
	})

	t.Run("when_custom_terms_are_supplied", func(t *testing.T) {
		t.Run("should_use_configured_custom_due_days", func(t *testing.T) {
			s, temporalClient, _ := newTestService(t, serviceCfg(), &repository.FakeRepo{})
			temporalClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(nil, nil).Once()

			custom := *req
			custom.Configuration.PaymentTerms = &models.InvoicePaymentTerms{
				TermTypes:   []models.PaymentTermType{models.TermCustom},
				Description: "Half now, half on completion",
			}

			invoice, err := s.CreateInvoice(context.TODO(), &custom)

			require.NoError(t, err)
			assert.Equal(t, issuedAt.AddDate(0, 0, 45), invoice.DueDate)
			assert.Equal(t, "Half now, half on completion", invoice.Configuration.PaymentTerms.Description)
		})
	})

	t.Run("when_temporal_client_fails", func(t *testing.T) {
		t.Run("should_return_error", func(t *testing.T) {
			s, temporalClient, _ := newTestService(t, serviceCfg(), &repository.FakeRepo{})
			temporalClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(nil, errors.New("failed to start workflow")).Once()

			invoice, err := s.CreateInvoice(context.TODO(), req)

			assert.Error(t, err)
			assert.Nil(t, invoice)
			assert.Contains(t, err.Error(), "failed to start workflow")
		})
	})
}

func TestService_GetInvoiceByID(t *testing.T) {
	t.Run("when_invoice_exists_in_workflow", func(t *testing.T) {
		t.Run("should_return_invoice_with_totals", func(t *testing.T) {
			s, temporalClient, _ := newTestService(t, serviceCfg(), &repository.FakeRepo{})
			invoice := newTestInvoice(issuedAt)
			temporalClient.On("QueryWorkflow", mock.Anything, "test-prefix-"+invoice.ID.String(), "", GetInvoiceQuery).
				Return(fakeEncodedValue{value: *invoice}, nil).Once()

			got, err := s.GetInvoiceByID(context.TODO(), invoice.ID)

			require.NoError(t, err)
			assert.Equal(t, invoice.ID, got.ID)
			assert.True(t, decimal.RequireFromString("103.5").Equal(got.Totals.Total))
			assert.Nil(t, got.Converted)
		})
	})

	t.Run("when_reporting_currencies_are_configured", func(t *testing.T) {
		t.Run("should_convert_balance", func(t *testing.T) {
			s, temporalClient, conversionService := newTestService(t, serviceCfg("USD"), &repository.FakeRepo{})
			invoice := newTestInvoice(issuedAt)
			invoice.Configuration.Items[0].UnitPrice = decimal.NewFromInt(5000)
			temporalClient.On("QueryWorkflow", mock.Anything, mock.Anything, "", GetInvoiceQuery).
				Return(fakeEncodedValue{value: *invoice}, nil).Once()
			conversionService.EXPECT().GetRates(gomock.Any()).Return(&models.RatesData{
				Rates:     map[string]float64{"USD": 1, "KES": 129},
				UpdatedAt: issuedAt,
			}, nil)

			got, err := s.GetInvoiceByID(context.TODO(), invoice.ID)

			require.NoError(t, err)
			// 2 x 5000 less 10% plus 15% VAT = 10350 KES
			assert.True(t, decimal.NewFromInt(10350).Equal(got.Totals.Total))
			assert.True(t, decimal.RequireFromString("80.23").Equal(got.Converted[models.USD].Amount))
		})

		t.Run("when_rates_are_unavailable_should_still_return_invoice", func(t *testing.T) {
			s, temporalClient, conversionService := newTestService(t, serviceCfg("USD"), &repository.FakeRepo{})
			invoice := newTestInvoice(issuedAt)
			temporalClient.On("QueryWorkflow", mock.Anything, mock.Anything, "", GetInvoiceQuery).
				Return(fakeEncodedValue{value: *invoice}, nil).Once()
			conversionService.EXPECT().GetRates(gomock.Any()).Return(nil, errors.New("rates unavailable"))

			got, err := s.GetInvoiceByID(context.TODO(), invoice.ID)

			require.NoError(t, err)
			assert.NotNil(t, got.Totals)
			assert.Nil(t, got.Converted)
		})

		t.Run("when_invoice_currency_rate_is_zero_should_still_return_invoice", func(t *testing.T) {
			s, temporalClient, conversionService := newTestService(t, serviceCfg("USD"), &repository.FakeRepo{})
			invoice := newTestInvoice(issuedAt)
			temporalClient.On("QueryWorkflow", mock.Anything, mock.Anything, "", GetInvoiceQuery).
				Return(fakeEncodedValue{value: *invoice}, nil).Once()
			conversionService.EXPECT().GetRates(gomock.Any()).Return(&models.RatesData{
				Rates:     map[string]float64{"USD": 1, "KES": 0},
				UpdatedAt: issuedAt,
			}, nil)

			got, err := s.GetInvoiceByID(context.TODO(), invoice.ID)

			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString("103.5").Equal(got.Totals.Total))
			assert.Nil(t, got.Converted)
		})
	})

	t.Run("when_workflow_is_gone", func(t *testing.T) {
		t.Run("should_return_invoice_from_database", func(t *testing.T) {
			fakeRepo := &repository.FakeRepo{}
			invoice := newTestInvoice(issuedAt)
			invoice.MarkPaid(decimal.RequireFromString("103.5"), issuedAt.AddDate(0, 0, 3))
			require.NoError(t, fakeRepo.CreateInvoice(context.TODO(), invoice))

			s, temporalClient, _ := newTestService(t, serviceCfg(), fakeRepo)
			temporalClient.On("QueryWorkflow", mock.Anything, mock.Anything, "", GetInvoiceQuery).
				Return(nil, serviceerror.NewNotFound("workflow not found")).Once()

			got, err := s.GetInvoiceByID(context.TODO(), invoice.ID)

			require.NoError(t, err)
			assert.Equal(t, models.InvoiceStatusPaid, got.Status)
			assert.True(t, decimal.RequireFromString("103.5").Equal(got.Totals.Total))
		})

		t.Run("when_invoice_is_not_in_database_should_return_not_found", func(t *testing.T) {
			s, temporalClient, _ := newTestService(t, serviceCfg(), &repository.FakeRepo{})
			temporalClient.On("QueryWorkflow", mock.Anything, mock.Anything, "", GetInvoiceQuery).
				Return(nil, serviceerror.NewNotFound("workflow not found")).Once()

			got, err := s.GetInvoiceByID(context.TODO(), uuid.Must(uuid.NewV4()))

			assert.Equal(t, models.ErrInvoiceNotFound, err)
			assert.Nil(t, got)
		})
	})
}

func TestService_QuoteSettlement(t *testing.T) {
	t.Run("when_invoice_is_open", func(t *testing.T) {
		t.Run("should_quote_with_early_discount", func(t *testing.T) {
			s, temporalClient, _ := newTestService(t, serviceCfg(), &repository.FakeRepo{})
			invoice := newTestInvoice(issuedAt)
			invoice.Configuration.EarlyDiscountTerms = &models.EarlyDiscountConfig{
				Tiers: []models.DiscountTier{
					{DiscountPercentage: decimal.NewFromInt(2), DiscountDays: 10},
					{DiscountPercentage: decimal.NewFromInt(5), DiscountDays: 3},
				},
			}
			temporalClient.On("QueryWorkflow", mock.Anything, mock.Anything, "", GetInvoiceQuery).
				Return(fakeEncodedValue{value: *invoice}, nil).Once()

			quote, err := s.QuoteSettlement(context.TODO(), invoice.ID, &models.SettlementQuoteRequest{
				PaidAt: issuedAt.AddDate(0, 0, 2),
			})

			require.NoError(t, err)
			require.NotNil(t, quote.Tier)
			assert.True(t, decimal.NewFromInt(5).Equal(quote.Tier.DiscountPercentage))
			assert.True(t, decimal.RequireFromString("98.325").Equal(quote.AmountDue))
		})
	})

	t.Run("when_invoice_is_cancelled", func(t *testing.T) {
		t.Run("should_return_not_open", func(t *testing.T) {
			s, temporalClient, _ := newTestService(t, serviceCfg(), &repository.FakeRepo{})
			invoice := newTestInvoice(issuedAt)
			invoice.Cancel(issuedAt)
			temporalClient.On("QueryWorkflow", mock.Anything, mock.Anything, "", GetInvoiceQuery).
				Return(fakeEncodedValue{value: *invoice}, nil).Once()

			quote, err := s.QuoteSettlement(context.TODO(), invoice.ID, &models.SettlementQuoteRequest{PaidAt: issuedAt})

			assert.Equal(t, models.ErrInvoiceNotOpen, err)
			assert.Nil(t, quote)
		})
	})
}

func TestService_RecordPayment(t *testing.T) {
	t.Run("when_workflow_is_running", func(t *testing.T) {
		t.Run("should_signal_workflow", func(t *testing.T) {
			s, temporalClient, _ := newTestService(t, serviceCfg(), &repository.FakeRepo{})
			invoice := newTestInvoice(issuedAt)
			invoice.WorkflowID = "test-prefix-" + invoice.ID.String()
			paidAt := issuedAt.Add(time.Hour)

			temporalClient.On("QueryWorkflow", mock.Anything, invoice.WorkflowID, "", GetInvoiceQuery).
				Return(fakeEncodedValue{value: *invoice}, nil).Once()
			temporalClient.On("SignalWorkflow", mock.Anything, invoice.WorkflowID, "", RecordPaymentSignal, RecordPaymentSignalData{PaidAt: paidAt}).
				Return(nil).Once()

			paid, err := s.RecordPayment(context.TODO(), invoice.ID, &models.RecordPaymentRequest{PaidAt: paidAt})

			require.NoError(t, err)
			assert.Equal(t, models.InvoiceStatusPaid, paid.Status)
			assert.True(t, decimal.RequireFromString("103.5").Equal(*paid.AmountPaid))
			assert.Equal(t, &paidAt, paid.PaidAt)
		})
	})

	t.Run("when_workflow_is_gone", func(t *testing.T) {
		t.Run("should_record_payment_in_database", func(t *testing.T) {
			fakeRepo := &repository.FakeRepo{}
			invoice := newTestInvoice(issuedAt)
			invoice.WorkflowID = "test-prefix-" + invoice.ID.String()
			require.NoError(t, fakeRepo.CreateInvoice(context.TODO(), invoice))
			paidAt := issuedAt.Add(time.Hour)

			s, temporalClient, _ := newTestService(t, serviceCfg(), fakeRepo)
			temporalClient.On("QueryWorkflow", mock.Anything, mock.Anything, "", GetInvoiceQuery).
				Return(nil, serviceerror.NewNotFound("workflow not found")).Once()
			temporalClient.On("SignalWorkflow", mock.Anything, invoice.WorkflowID, "", RecordPaymentSignal, mock.Anything).
				Return(serviceerror.NewNotFound("workflow execution already completed")).Once()

			paid, err := s.RecordPayment(context.TODO(), invoice.ID, &models.RecordPaymentRequest{PaidAt: paidAt})

			require.NoError(t, err)
			assert.Equal(t, models.InvoiceStatusPaid, paid.Status)

			stored, err := fakeRepo.GetInvoiceByID(context.TODO(), invoice.ID)
			require.NoError(t, err)
			assert.Equal(t, models.InvoiceStatusPaid, stored.Status)
			assert.True(t, decimal.RequireFromString("103.5").Equal(*stored.AmountPaid))
		})
	})

	t.Run("when_signal_fails", func(t *testing.T) {
		t.Run("should_return_error", func(t *testing.T) {
			s, temporalClient, _ := newTestService(t, serviceCfg(), &repository.FakeRepo{})
			invoice := newTestInvoice(issuedAt)
			temporalClient.On("QueryWorkflow", mock.Anything, mock.Anything, "", GetInvoiceQuery).
				Return(fakeEncodedValue{value: *invoice}, nil).Once()
			temporalClient.On("SignalWorkflow", mock.Anything, mock.Anything, "", RecordPaymentSignal, mock.Anything).
				Return(errors.New("connection refused")).Once()

			paid, err := s.RecordPayment(context.TODO(), invoice.ID, &models.RecordPaymentRequest{PaidAt: issuedAt})

			assert.Error(t, err)
			assert.Nil(t, paid)
			assert.Contains(t, err.Error(), "connection refused")
		})
	})

	t.Run("when_invoice_is_already_paid", func(t *testing.T) {
		t.Run("should_return_not_open", func(t *testing.T) {
			s, temporalClient, _ := newTestService(t, serviceCfg(), &repository.FakeRepo{})
			invoice := newTestInvoice(issuedAt)
			invoice.MarkPaid(decimal.NewFromInt(1), issuedAt)
			temporalClient.On("QueryWorkflow", mock.Anything, mock.Anything, "", GetInvoiceQuery).
				Return(fakeEncodedValue{value: *invoice}, nil).Once()

			paid, err := s.RecordPayment(context.TODO(), invoice.ID, &models.RecordPaymentRequest{PaidAt: issuedAt})

			assert.Equal(t, models.ErrInvoiceNotOpen, err)
			assert.Nil(t, paid)
		})
	})
}

func TestService_CancelInvoice(t *testing.T) {
	t.Run("when_invoice_is_open", func(t *testing.T) {
		t.Run("should_signal_workflow", func(t *testing.T) {
			s, temporalClient, _ := newTestService(t, serviceCfg(), &repository.FakeRepo{})
			invoice := newTestInvoice(issuedAt)
			invoice.WorkflowID = "test-prefix-" + invoice.ID.String()

			temporalClient.On("QueryWorkflow", mock.Anything, invoice.WorkflowID, "", GetInvoiceQuery).
				Return(fakeEncodedValue{value: *invoice}, nil).Once()
			temporalClient.On("SignalWorkflow", mock.Anything, invoice.WorkflowID, "", CancelInvoiceSignal, CancelInvoiceSignalData{RequestedAt: issuedAt}).
				Return(nil).Once()

			cancelled, err := s.CancelInvoice(context.TODO(), invoice.ID)

			require.NoError(t, err)
			assert.Equal(t, models.InvoiceStatusCancelled, cancelled.Status)
			assert.Equal(t, &issuedAt, cancelled.CancelledAt)
		})
	})

	t.Run("when_invoice_is_already_cancelled", func(t *testing.T) {
		t.Run("should_return_invoice_unchanged", func(t *testing.T) {
			s, temporalClient, _ := newTestService(t, serviceCfg(), &repository.FakeRepo{})
			invoice := newTestInvoice(issuedAt)
			cancelledAt := issuedAt.Add(-time.Hour)
			invoice.Cancel(cancelledAt)
			temporalClient.On("QueryWorkflow", mock.Anything, mock.Anything, "", GetInvoiceQuery).
				Return(fakeEncodedValue{value: *invoice}, nil).Once()

			cancelled, err := s.CancelInvoice(context.TODO(), invoice.ID)

			require.NoError(t, err)
			assert.Equal(t, models.InvoiceStatusCancelled, cancelled.Status)
			assert.True(t, cancelledAt.Equal(*cancelled.CancelledAt))
		})
	})

	t.Run("when_invoice_is_paid", func(t *testing.T) {
		t.Run("should_return_not_open", func(t *testing.T) {
			s, temporalClient, _ := newTestService(t, serviceCfg(), &repository.FakeRepo{})
			invoice := newTestInvoice(issuedAt)
			invoice.MarkPaid(decimal.NewFromInt(1), issuedAt)
			temporalClient.On("QueryWorkflow", mock.Anything, mock.Anything, "", GetInvoiceQuery).
				Return(fakeEncodedValue{value: *invoice}, nil).Once()

			cancelled, err := s.CancelInvoice(context.TODO(), invoice.ID)

			assert.Equal(t, models.ErrInvoiceNotOpen, err)
			assert.Nil(t, cancelled)
		})
	})

	t.Run("when_workflow_is_gone_and_invoice_was_settled_meanwhile", func(t *testing.T) {
		t.Run("should_return_not_open", func(t *testing.T) {
			s, temporalClient, _ := newTestService(t, serviceCfg(), &MockRepository{
				cancelInvoiceError: sql.ErrNoRows,
			})
			invoice := newTestInvoice(issuedAt)
			temporalClient.On("QueryWorkflow", mock.Anything, mock.Anything, "", GetInvoiceQuery).
				Return(fakeEncodedValue{value: *invoice}, nil).Once()
			temporalClient.On("SignalWorkflow", mock.Anything, mock.Anything, "", CancelInvoiceSignal, mock.Anything).
				Return(serviceerror.NewNotFound("workflow execution already completed")).Once()

			cancelled, err := s.CancelInvoice(context.TODO(), invoice.ID)

			assert.Equal(t, models.ErrInvoiceNotOpen, err)
			assert.Nil(t, cancelled)
		})
	})
}

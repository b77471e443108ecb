package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"encore.dev/rlog"
	"encore.dev/types/uuid"
	"github.com/samber/lo"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"receivables.app/invoicing/calculator"
	"receivables.app/invoicing/ext_services"
	"receivables.app/invoicing/models"
	"receivables.app/invoicing/repository"
)

//go:generate mockgen -package=mocks -destination=mocks/service_mock.go . Service
type Service interface {
	PreviewInvoice(ctx context.Context, req *models.PreviewInvoiceRequest) (*models.PreviewInvoiceResponse, error)
	CreateInvoice(ctx context.Context, req *models.CreateInvoiceRequest) (*models.Invoice, error)
	GetInvoiceByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	QuoteSettlement(ctx context.Context, id uuid.UUID, req *models.SettlementQuoteRequest) (*models.SettlementQuote, error)
	RecordPayment(ctx context.Context, id uuid.UUID, req *models.RecordPaymentRequest) (*models.Invoice, error)
	CancelInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
}

type service struct {
	repository        repository.Repository
	temporalClient    client.Client
	conversionService ext_services.ExchangeRatesService
	cfg               *models.AppConfig
	now               func() time.Time
}

func NewService(
	cfg *models.AppConfig, temporalClient client.Client, repository repository.Repository, conversionService ext_services.ExchangeRatesService,
) *service {
	log := rlog.With("module", "invoicing_core")
	log.Info("invoicing service initialized",
		"temporal_client_available", temporalClient != nil,
		"repository_available", repository != nil,
		"conversion_service_available", conversionService != nil)

	return &service{
		temporalClient:    temporalClient,
		repository:        repository,
		conversionService: conversionService,
		cfg:               cfg,
		now:               time.Now,
	}
}

func (s *service) tierPolicy() calculator.TierPolicy {
	policy := calculator.TierPolicy(s.cfg.Invoicing.Terms.TierPolicy())
	if !policy.Valid() {
		rlog.Warn("unknown early discount tier policy, no tier will apply", "tier_policy", policy)
	}
	return policy
}

func (s *service) workflowID(id uuid.UUID) string {
	return fmt.Sprintf("%s%s", s.cfg.Invoicing.Workflow.WorkflowIDPrefix(), id.String())
}

func (s *service) PreviewInvoice(ctx context.Context, req *models.PreviewInvoiceRequest) (*models.PreviewInvoiceResponse, error) {
	log := rlog.With("module", "invoicing_core")
	log.Info("previewing invoice", "items_count", len(req.Configuration.Items), "currency", req.Configuration.Currency)

	totals := calculator.CalculateTotals(req.Configuration)
	return &models.PreviewInvoiceResponse{
		Totals:       totals,
		Formatted:    calculator.FormatTotals(totals, req.Configuration.Currency),
		PaymentTerms: calculator.ResolvePaymentTerms(req.Configuration),
	}, nil
}

func (s *service) CreateInvoice(ctx context.Context, req *models.CreateInvoiceRequest) (*models.Invoice, error) {
	log := rlog.With("module", "invoicing_core").With("business_name", req.BusinessName)
	log.Info("creating new invoice",
		"customer_name", req.CustomerName,
		"items_count", len(req.Configuration.Items),
		"currency", req.Configuration.Currency)

	now := s.now()
	invoiceID := uuid.Must(uuid.NewV4())
	workflowID := s.workflowID(invoiceID)

	configuration := req.Configuration
	terms := calculator.ResolvePaymentTerms(configuration)
	configuration.PaymentTerms = &terms
	totals := calculator.CalculateTotals(configuration)

	invoice := &models.Invoice{
		ID:            invoiceID,
		Number:        calculator.GenerateInvoiceNumber(req.BusinessName, now),
		BusinessName:  req.BusinessName,
		CustomerName:  req.CustomerName,
		Status:        models.InvoiceStatusIssued,
		Configuration: configuration,
		PaymentMethod: req.PaymentMethod,
		IssuedAt:      now,
		DueDate:       calculator.DueDate(terms.Primary(), now, s.cfg.Invoicing.Terms.CustomDueDays()),
		WorkflowID:    workflowID,
		CreatedAt:     now,
		UpdatedAt:     now,
		Totals:        &totals,
	}

	log = log.With("invoice_id", invoiceID.String()).With("workflow_id", workflowID).With("number", invoice.Number)
	log.Info("invoice created, starting workflow", "due_date", invoice.DueDate, "total", totals.Total.String())

	// the workflow follows the invoice through collection past its due date
	collection := time.Duration(s.cfg.Invoicing.Workflow.MaxCollectionDays()) * day
	workflowTimeout := invoice.DueDate.Sub(now) + collection + time.Duration(s.cfg.Temporal.WorkflowExecutionTimeoutBuffer())*time.Second

	workflowOptions := client.StartWorkflowOptions{
		ID:                       workflowID,
		TaskQueue:                s.cfg.Temporal.TaskQueue(),
		WorkflowExecutionTimeout: workflowTimeout,
	}

	input := InvoiceWorkflowInput{Invoice: invoice, TierPolicy: s.tierPolicy()}
	if _, err := s.temporalClient.ExecuteWorkflow(ctx, workflowOptions, (&InvoiceWorkflows{}).IssueInvoice, input); err != nil {
		log.Error("failed to start workflow", "error", err)
		return nil, fmt.Errorf("failed to start workflow: %w", err)
	}

	log.Info("workflow started successfully")
	return invoice, nil
}

func (s *service) GetInvoiceByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	log := rlog.With("module", "invoicing_core").With("invoice_id", id.String())
	log.Info("retrieving invoice by ID")

	// Try to get invoice from workflow first
	resp, err := s.temporalClient.QueryWorkflow(ctx, s.workflowID(id), "", GetInvoiceQuery)
	if err == nil {
		log.Info("invoice found in workflow, querying workflow state")
		invoice := &models.Invoice{}
		if err = resp.Get(invoice); err == nil {
			s.calculateTotals(ctx, invoice)
			log.Info("invoice retrieved successfully from workflow")
			return invoice, nil
		}
		log.Warn("failed to get invoice from workflow response", "error", err)
	}

	// error when querying workflow or invoice is settled
	log.Info("invoice not found in workflow, querying database")
	invoice, err := s.repository.GetInvoiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("invoice not found in database")
			return nil, models.ErrInvoiceNotFound
		}
		log.Error("database error when retrieving invoice", "error", err)
		return nil, err
	}

	s.calculateTotals(ctx, invoice)
	log.Info("invoice retrieved successfully from database")
	return invoice, nil
}

func (s *service) QuoteSettlement(ctx context.Context, id uuid.UUID, req *models.SettlementQuoteRequest) (*models.SettlementQuote, error) {
	log := rlog.With("module", "invoicing_core").With("invoice_id", id.String())
	log.Info("quoting settlement", "paid_at", req.PaidAt)

	invoice, err := s.GetInvoiceByID(ctx, id)
	if err != nil {
		log.Error("failed to get invoice for quote", "error", err)
		return nil, err
	}
	if !invoice.IsOpen() {
		log.Warn("attempted to quote a settled invoice", "status", invoice.Status)
		return nil, models.ErrInvoiceNotOpen
	}

	quote := calculator.QuoteSettlement(s.quoteInput(invoice, req.PaidAt))
	log.Info("settlement quoted",
		"amount_due", quote.AmountDue.String(),
		"early_discount", quote.EarlyDiscount.String(),
		"late_fee", quote.LateFee.String())
	return &quote, nil
}

func (s *service) RecordPayment(ctx context.Context, id uuid.UUID, req *models.RecordPaymentRequest) (*models.Invoice, error) {
	log := rlog.With("module", "invoicing_core").With("invoice_id", id.String())
	log.Info("recording payment", "paid_at", req.PaidAt)

	invoice, err := s.GetInvoiceByID(ctx, id)
	if err != nil {
		log.Error("failed to get invoice for payment", "error", err)
		return nil, err
	}
	if !invoice.IsOpen() {
		log.Warn("attempted to pay a settled invoice", "status", invoice.Status)
		return nil, models.ErrInvoiceNotOpen
	}

	quote := calculator.QuoteSettlement(s.quoteInput(invoice, req.PaidAt))

	log = log.With("workflow_id", invoice.WorkflowID)
	log.Info("sending record payment signal to workflow", "amount_due", quote.AmountDue.String())

	signal := RecordPaymentSignalData{PaidAt: req.PaidAt}
	err = s.temporalClient.SignalWorkflow(ctx, invoice.WorkflowID, "", RecordPaymentSignal, signal)
	if err != nil {
		if !isWorkflowGone(err) {
			log.Error("failed to send record payment signal to workflow", "error", err)
			return nil, fmt.Errorf("failed to send record payment signal to workflow: %w", err)
		}
		log.Warn("workflow is gone, recording payment in database")
		if err = s.repository.MarkPaid(ctx, id, quote.AmountDue, req.PaidAt); err != nil {
			log.Error("failed to record payment in database", "error", err)
			return nil, s.settleError(err)
		}
	}

	invoice.MarkPaid(quote.AmountDue, req.PaidAt)
	log.Info("payment recorded successfully", "amount_paid", quote.AmountDue.String())
	return invoice, nil
}

func (s *service) CancelInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	log := rlog.With("module", "invoicing_core").With("invoice_id", id.String())
	log.Info("cancelling invoice")

	invoice, err := s.GetInvoiceByID(ctx, id)
	if err != nil {
		log.Error("failed to get invoice for cancelling", "error", err)
		return nil, err
	}

	if invoice.IsCancelled() {
		log.Info("invoice is already cancelled")
		return invoice, nil
	}
	if invoice.IsPaid() {
		log.Warn("attempted to cancel a paid invoice")
		return nil, models.ErrInvoiceNotOpen
	}

	now := s.now()
	signal := CancelInvoiceSignalData{RequestedAt: now}

	log = log.With("workflow_id", invoice.WorkflowID)
	log.Info("sending cancel signal to workflow")

	err = s.temporalClient.SignalWorkflow(ctx, invoice.WorkflowID, "", CancelInvoiceSignal, signal)
	if err != nil {
		if !isWorkflowGone(err) {
			log.Error("failed to send cancel signal to workflow", "error", err)
			return nil, fmt.Errorf("failed to send cancel signal to workflow: %w", err)
		}
		log.Warn("workflow is gone, cancelling invoice in database")
		if err = s.repository.CancelInvoice(ctx, id, now); err != nil {
			log.Error("failed to cancel invoice in database", "error", err)
			return nil, s.settleError(err)
		}
	}

	invoice.Cancel(now)
	log.Info("invoice cancelled successfully", "cancelled_at", now)
	return invoice, nil
}

func (s *service) quoteInput(invoice *models.Invoice, paidAt time.Time) calculator.QuoteInput {
	return calculator.QuoteInput{
		Configuration:   invoice.Configuration,
		IssuedAt:        invoice.IssuedAt,
		DueDate:         invoice.DueDate,
		AccruedLateFees: invoice.LateFees,
		PaidAt:          paidAt,
		Policy:          s.tierPolicy(),
	}
}

// calculateTotals prices the invoice and reports its balance in the
// configured reporting currencies. Conversion is best effort.
func (s *service) calculateTotals(ctx context.Context, invoice *models.Invoice) {
	log := rlog.With("module", "invoicing_core").With("invoice_id", invoice.ID.String())
	log.Info("calculating invoice totals", "line_items_count", len(invoice.Configuration.Items))

	totals := calculator.CalculateTotals(invoice.Configuration)
	invoice.Totals = &totals

	targets := lo.Map(s.cfg.ExternalServices.ExchangeRates.ReportingCurrencies(), func(c string, _ int) models.Currency {
		return models.Currency(c)
	})
	if len(targets) == 0 {
		return
	}

	rates, err := s.conversionService.GetRates(ctx)
	if err != nil {
		log.Warn("failed to get exchange rates, skipping conversion", "error", err)
		return
	}
	if err = invoice.Convert(rates, targets); err != nil {
		log.Warn("failed to convert invoice balance", "error", err)
		return
	}

	log.Info("invoice totals calculation completed successfully", "total", totals.Total.String())
}

// settleError maps a missed conditional update to ErrInvoiceNotOpen
func (s *service) settleError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrInvoiceNotOpen
	}
	return err
}

// isWorkflowGone reports whether the invoice workflow has already finished
// or timed out, in which case the database is the source of truth.
func isWorkflowGone(err error) bool {
	var notFound *serviceerror.NotFound
	return errors.As(err, &notFound)
}

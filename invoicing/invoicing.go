package invoicing

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"encore.dev"
	"encore.dev/beta/errs"
	"encore.dev/config"
	"encore.dev/rlog"
	"encore.dev/storage/cache"
	"encore.dev/storage/sqldb"
	"encore.dev/types/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"receivables.app/invoicing/calculator"
	"receivables.app/invoicing/core"
	"receivables.app/invoicing/document"
	exchangerates "receivables.app/invoicing/ext_services"
	"receivables.app/invoicing/models"
	"receivables.app/invoicing/repository"
)

//encore:service
type Handler struct {
	service        core.Service
	temporalClient client.Client
	worker         worker.Worker
}

var db = sqldb.NewDatabase("invoicing", sqldb.DatabaseConfig{
	Migrations: "./migrations",
})

var cacheCluster = cache.NewCluster("invoicing", cache.ClusterConfig{
	EvictionPolicy: cache.AllKeysLRU,
})

// Load loads the application configuration
var cfg = config.Load[*models.AppConfig]()

var secrets struct {
	TemporalApiKey string
}

// Use configured cache TTL for exchange rates
var exchangeRatesKV = cache.NewStructKeyspace[string, models.RatesData](cacheCluster, cache.KeyspaceConfig{
	KeyPattern:    "exchange-rates/:key",
	DefaultExpiry: cache.ExpireIn(time.Duration(cfg.ExternalServices.ExchangeRates.TTL()) * time.Second),
})

func initHandler() (*Handler, error) {
	log := rlog.With("module", "invoicing_handler")
	log.Info("initializing invoicing handler")

	temporalClient, err := client.Dial(client.Options{
		HostPort:          cfg.Temporal.Address(),
		Namespace:         cfg.Temporal.Namespace(),
		Logger:            rlog.With("module", "temporal_worker"),
		ConnectionOptions: client.ConnectionOptions{TLS: &tls.Config{}},
		Credentials:       client.NewAPIKeyStaticCredentials(secrets.TemporalApiKey),
	})
	if err != nil {
		log.Error("failed to create temporal client", "error", err)
		return nil, fmt.Errorf("failed to create temporal client: %w", err)
	}
	log.Info("temporal client created successfully")

	repo := repository.NewSQLRepository(db)
	conversionService := exchangerates.NewConversionService(cfg, exchangeRatesKV)
	invoicingService := core.NewService(cfg, temporalClient, repo, conversionService)
	log.Info("invoicing core service initialized")

	w := worker.New(temporalClient, cfg.Temporal.TaskQueue(), worker.Options{})
	log.Info("temporal worker created", "task_queue", cfg.Temporal.TaskQueue())

	invoiceWorkflows := core.NewInvoiceWorkflows(cfg)
	w.RegisterWorkflow(invoiceWorkflows.IssueInvoice)
	log.Info("invoice workflow registered")

	activities := core.NewInvoicingActivities(repo)
	w.RegisterActivity(activities.SaveInvoice)
	w.RegisterActivity(activities.AddLateFee)
	w.RegisterActivity(activities.MarkPaid)
	w.RegisterActivity(activities.CancelInvoice)
	log.Info("temporal activities registered",
		"activities", []string{"SaveInvoice", "AddLateFee", "MarkPaid", "CancelInvoice"})

	err = w.Start()
	if err != nil {
		log.Error("worker failed to start", "error", err)
		w.Stop()
		return nil, fmt.Errorf("failed to start temporal worker: %w", err)
	}
	log.Info("temporal worker started successfully")

	return &Handler{
		service:        invoicingService,
		temporalClient: temporalClient,
		worker:         w,
	}, nil
}

// Shutdown gracefully shuts down the service
func (h *Handler) Shutdown(force context.Context) {
	log := rlog.With("module", "invoicing_handler")
	log.Info("shutting down invoicing handler")

	h.worker.Stop()
	log.Info("temporal worker stopped")

	h.temporalClient.Close()
	log.Info("temporal client closed")
}

// PreviewInvoice prices an invoice configuration without issuing it
//
//encore:api public method=POST path=/invoice-previews
func (h *Handler) PreviewInvoice(ctx context.Context, req *models.PreviewInvoiceRequest) (*models.PreviewInvoiceResponse, error) {
	log := rlog.With("module", "invoicing_handler").With("http_method", "POST").With("http_path", "/invoice-previews")
	log.Info("previewing invoice via HTTP API")

	if err := ValidatePreviewInvoiceRequest(req); err != nil {
		log.Error("request validation failed", "error", err)
		return nil, err
	}

	resp, err := h.service.PreviewInvoice(ctx, req)
	if err != nil {
		log.Error("failed to preview invoice", "error", err)
		return nil, err
	}

	return resp, nil
}

// CreateInvoice issues a new invoice and starts its lifecycle workflow
//
//encore:api public method=POST path=/invoices
func (h *Handler) CreateInvoice(ctx context.Context, req *models.CreateInvoiceRequest) (*models.InvoiceResponse, error) {
	log := rlog.With("module", "invoicing_handler").With("http_method", "POST").With("http_path", "/invoices").With("business_name", req.BusinessName)
	log.Info("creating new invoice via HTTP API")

	if err := ValidateCreateInvoiceRequest(req); err != nil {
		log.Error("request validation failed", "error", err)
		return nil, err
	}
	log.Info("request validation passed")

	invoice, err := h.service.CreateInvoice(ctx, req)
	if err != nil {
		log.Error("failed to create invoice", "error", err)
		return nil, err
	}

	return &models.InvoiceResponse{Data: invoice}, nil
}

// GetInvoice retrieves an invoice with its totals
//
//encore:api public method=GET path=/invoices/:invoice_id
func (h *Handler) GetInvoice(ctx context.Context, invoice_id uuid.UUID) (*models.InvoiceResponse, error) {
	log := rlog.With("module", "invoicing_handler").With("http_method", "GET").With("http_path", fmt.Sprintf("/invoices/%s", invoice_id)).With("invoice_id", invoice_id.String())
	log.Info("retrieving invoice via HTTP API")

	invoice, err := h.service.GetInvoiceByID(ctx, invoice_id)
	if err != nil {
		log.Error("failed to retrieve invoice", "error", err)
		return nil, err
	}

	return &models.InvoiceResponse{Data: invoice}, nil
}

// QuoteSettlement reports the amount due if the invoice is paid at the given time
//
//encore:api public method=POST path=/invoices/:invoice_id/settlement-quote
func (h *Handler) QuoteSettlement(
	ctx context.Context, invoice_id uuid.UUID, req *models.SettlementQuoteRequest,
) (*models.SettlementQuoteResponse, error) {
	log := rlog.With("module", "invoicing_handler").With("http_method", "POST").With("http_path", fmt.Sprintf("/invoices/%s/settlement-quote", invoice_id)).With("invoice_id", invoice_id.String())
	log.Info("quoting settlement via HTTP API", "paid_at", req.PaidAt)

	if req.PaidAt.IsZero() {
		log.Error("request validation failed: paid_at is required")
		return nil, &errs.Error{Code: errs.InvalidArgument, Message: "paid_at is required"}
	}

	quote, err := h.service.QuoteSettlement(ctx, invoice_id, req)
	if err != nil {
		log.Error("failed to quote settlement", "error", err)
		return nil, err
	}

	return &models.SettlementQuoteResponse{Data: quote}, nil
}

// RecordPayment settles an open invoice
//
//encore:api public method=POST path=/invoices/:invoice_id/payments
func (h *Handler) RecordPayment(
	ctx context.Context, invoice_id uuid.UUID, req *models.RecordPaymentRequest,
) (*models.InvoiceResponse, error) {
	log := rlog.With("module", "invoicing_handler").With("http_method", "POST").With("http_path", fmt.Sprintf("/invoices/%s/payments", invoice_id)).With("invoice_id", invoice_id.String())
	log.Info("recording payment via HTTP API", "paid_at", req.PaidAt)

	if req.PaidAt.IsZero() {
		log.Error("request validation failed: paid_at is required")
		return nil, &errs.Error{Code: errs.InvalidArgument, Message: "paid_at is required"}
	}

	invoice, err := h.service.RecordPayment(ctx, invoice_id, req)
	if err != nil {
		log.Error("failed to record payment", "error", err)
		return nil, err
	}

	return &models.InvoiceResponse{Data: invoice}, nil
}

// CancelInvoice cancels an open invoice
//
//encore:api public method=POST path=/invoices/:invoice_id/cancel
func (h *Handler) CancelInvoice(ctx context.Context, invoice_id uuid.UUID) (*models.InvoiceResponse, error) {
	log := rlog.With("module", "invoicing_handler").With("http_method", "POST").With("http_path", fmt.Sprintf("/invoices/%s/cancel", invoice_id)).With("invoice_id", invoice_id.String())
	log.Info("cancelling invoice via HTTP API")

	invoice, err := h.service.CancelInvoice(ctx, invoice_id)
	if err != nil {
		log.Error("failed to cancel invoice", "error", err)
		return nil, fmt.Errorf("failed to cancel invoice: %w", err)
	}

	return &models.InvoiceResponse{Data: invoice}, nil
}

// GetPaymentTerm describes a payment term type and its due date offset
//
//encore:api public method=GET path=/payment-terms/:term_type
func (h *Handler) GetPaymentTerm(ctx context.Context, term_type string) (*models.PaymentTermResponse, error) {
	termType := models.PaymentTermType(term_type)
	return &models.PaymentTermResponse{
		TermType:    termType,
		Description: calculator.DefaultDescription(termType),
		DueDays:     calculator.DueDays(termType, cfg.Invoicing.Terms.CustomDueDays()),
	}, nil
}

// InvoicePDF renders an invoice as a PDF document
//
//encore:api public raw method=GET path=/invoices/:invoice_id/pdf
func (h *Handler) InvoicePDF(w http.ResponseWriter, req *http.Request) {
	log := rlog.With("module", "invoicing_handler").With("http_method", "GET").With("http_path", req.URL.Path)
	log.Info("rendering invoice PDF via HTTP API")

	id, err := uuid.FromString(encore.CurrentRequest().PathParams.Get("invoice_id"))
	if err != nil {
		log.Warn("invalid invoice id", "error", err)
		http.Error(w, "invalid invoice_id", http.StatusBadRequest)
		return
	}

	h.writePDF(req.Context(), w, id)
}

func (h *Handler) writePDF(ctx context.Context, w http.ResponseWriter, id uuid.UUID) {
	log := rlog.With("module", "invoicing_handler").With("invoice_id", id.String())

	invoice, err := h.service.GetInvoiceByID(ctx, id)
	if err != nil {
		log.Error("failed to retrieve invoice", "error", err)
		if errors.Is(err, models.ErrInvoiceNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "failed to retrieve invoice", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err = document.Render(&buf, invoice); err != nil {
		log.Error("failed to render invoice PDF", "error", err)
		http.Error(w, "failed to render invoice", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", invoice.Number+".pdf"))
	if _, err = w.Write(buf.Bytes()); err != nil {
		log.Warn("failed to write invoice PDF", "error", err)
		return
	}
	log.Info("invoice PDF rendered", "size_bytes", buf.Len())
}

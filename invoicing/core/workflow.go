package core

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
	"receivables.app/invoicing/calculator"
	"receivables.app/invoicing/models"
)

const (
	RecordPaymentSignal = "RecordPaymentSignal"
	CancelInvoiceSignal = "CancelInvoiceSignal"

	GetInvoiceQuery = "GetInvoiceQuery"
)

const day = 24 * time.Hour

// InvoiceWorkflowInput represents the input for starting an invoice workflow
type InvoiceWorkflowInput struct {
	Invoice    *models.Invoice       `json:"invoice"`
	TierPolicy calculator.TierPolicy `json:"tier_policy"`
}

type RecordPaymentSignalData struct {
	PaidAt time.Time `json:"paid_at"`
}

type CancelInvoiceSignalData struct {
	RequestedAt time.Time `json:"requested_at"`
}

type InvoiceWorkflows struct {
	cfg *models.AppConfig
}

func NewInvoiceWorkflows(cfg *models.AppConfig) *InvoiceWorkflows {
	return &InvoiceWorkflows{cfg: cfg}
}

// IssueInvoice persists an invoice and follows it until it is paid or cancelled.
// Once the grace period after the due date lapses a late fee is assessed; with
// compound interest the fee is re-assessed on the running balance every
// CompoundPeriodDays until MaxCollectionDays past the due date.
func (w *InvoiceWorkflows) IssueInvoice(ctx workflow.Context, input InvoiceWorkflowInput) error {
	logger := workflow.GetLogger(ctx)

	invoice := input.Invoice
	logger.Info("Starting invoice workflow", "invoice_id", invoice.ID, "number", invoice.Number)
	if invoice.Totals == nil {
		totals := calculator.CalculateTotals(invoice.Configuration)
		invoice.Totals = &totals
	}

	activityCtx := workflow.WithActivityOptions(ctx, getDefaultActivityOptions(w.cfg))
	if err := workflow.ExecuteActivity(
		activityCtx, (&InvoicingActivities{}).SaveInvoice, invoice,
	).Get(ctx, nil); err != nil {
		return err
	}

	paymentCh := workflow.GetSignalChannel(ctx, RecordPaymentSignal)
	cancelCh := workflow.GetSignalChannel(ctx, CancelInvoiceSignal)
	if err := workflow.SetQueryHandler(ctx, GetInvoiceQuery, func() (*models.Invoice, error) {
		return invoice, nil
	}); err != nil {
		return err
	}

	selector := workflow.NewSelector(ctx)

	selector.AddReceive(paymentCh, func(c workflow.ReceiveChannel, more bool) {
		var signal RecordPaymentSignalData
		c.Receive(ctx, &signal)
		logger.Info("Received record payment signal", "paid_at", signal.PaidAt)
		markPaid(ctx, invoice, input.TierPolicy, signal.PaidAt, w.cfg)
	})

	selector.AddReceive(cancelCh, func(c workflow.ReceiveChannel, more bool) {
		var signal CancelInvoiceSignalData
		c.Receive(ctx, &signal)
		logger.Info("Received cancel invoice signal")
		cancelInvoice(ctx, invoice, signal.RequestedAt, w.cfg)
	})

	late := invoice.Configuration.LatePaymentTerms
	if late != nil && late.LateFeeEnabled {
		var armLateFeeTimer func(at time.Time)
		armLateFeeTimer = func(at time.Time) {
			timer := workflow.NewTimer(ctx, max(0, at.Sub(workflow.Now(ctx))))
			selector.AddFuture(timer, func(f workflow.Future) {
				if !invoice.IsOpen() {
					return
				}
				now := workflow.Now(ctx)
				assessLateFee(ctx, invoice, now, w.cfg)

				if late.CompoundInterest {
					next := now.Add(time.Duration(w.cfg.Invoicing.Workflow.CompoundPeriodDays()) * day)
					if calculator.DaysBetween(invoice.DueDate, next) <= w.cfg.Invoicing.Workflow.MaxCollectionDays() {
						armLateFeeTimer(next)
					}
				}
			})
		}
		// first day past the grace period
		armLateFeeTimer(invoice.DueDate.Add(time.Duration(late.GracePeriodDays+1) * day))
	}

	for invoice.IsOpen() {
		selector.Select(ctx)
	}

	logger.Info("Invoice workflow completed", "invoice_id", invoice.ID, "status", invoice.Status)
	return nil
}

// getDefaultActivityOptions returns activity options based on configuration
func getDefaultActivityOptions(cfg *models.AppConfig) workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: time.Duration(cfg.Temporal.ActivityStartToCloseTimeout()) * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Duration(cfg.Temporal.ActivityRetryPolicy.InitialInterval()) * time.Second,
			BackoffCoefficient: cfg.Temporal.ActivityRetryPolicy.BackoffCoefficient(),
			MaximumInterval:    time.Duration(cfg.Temporal.ActivityRetryPolicy.MaximumInterval()) * time.Second,
			MaximumAttempts:    int32(cfg.Temporal.ActivityRetryPolicy.MaximumAttempts()),
		},
	}
}

func assessLateFee(ctx workflow.Context, invoice *models.Invoice, at time.Time, cfg *models.AppConfig) {
	late := invoice.Configuration.LatePaymentTerms
	amount := invoice.Totals.Total
	if late.CompoundInterest {
		amount = invoice.Balance()
	}

	assessment := calculator.AssessLateFee(amount, late, invoice.DueDate, at)
	if !assessment.Applies || !invoice.AddLateFee(assessment.Fee) {
		return
	}
	workflow.GetLogger(ctx).Info("Late fee assessed",
		"fee", assessment.Fee.String(),
		"days_overdue", assessment.DaysOverdue,
		"late_fees", invoice.LateFees.String())

	activityCtx := workflow.WithActivityOptions(ctx, getDefaultActivityOptions(cfg))
	err := workflow.ExecuteActivity(activityCtx, (&InvoicingActivities{}).AddLateFee, AddLateFeeInput{
		InvoiceID:  invoice.ID,
		Fee:        assessment.Fee,
		AssessedAt: at,
	}).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Error("Failed to persist late fee", "error", err)
	}
}

func markPaid(ctx workflow.Context, invoice *models.Invoice, policy calculator.TierPolicy, paidAt time.Time, cfg *models.AppConfig) {
	quote := calculator.QuoteSettlement(calculator.QuoteInput{
		Configuration:   invoice.Configuration,
		IssuedAt:        invoice.IssuedAt,
		DueDate:         invoice.DueDate,
		AccruedLateFees: invoice.LateFees,
		PaidAt:          paidAt,
		Policy:          policy,
	})
	if !invoice.MarkPaid(quote.AmountDue, paidAt) {
		workflow.GetLogger(ctx).Warn("Invoice is no longer open, ignoring payment signal")
		return
	}

	activityCtx := workflow.WithActivityOptions(ctx, getDefaultActivityOptions(cfg))
	err := workflow.ExecuteActivity(activityCtx, (&InvoicingActivities{}).MarkPaid, MarkPaidInput{
		InvoiceID: invoice.ID,
		Amount:    quote.AmountDue,
		PaidAt:    paidAt,
	}).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Error("Failed to mark invoice paid", "error", err)
	}
}

func cancelInvoice(ctx workflow.Context, invoice *models.Invoice, requestedAt time.Time, cfg *models.AppConfig) {
	if !invoice.Cancel(requestedAt) {
		workflow.GetLogger(ctx).Warn("Invoice is no longer open, ignoring cancel signal")
		return
	}

	activityCtx := workflow.WithActivityOptions(ctx, getDefaultActivityOptions(cfg))
	err := workflow.ExecuteActivity(activityCtx, (&InvoicingActivities{}).CancelInvoice, CancelInvoiceInput{
		InvoiceID:   invoice.ID,
		CancelledAt: requestedAt,
	}).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Error("Failed to cancel invoice", "error", err)
	}
}

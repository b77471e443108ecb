package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"encore.dev/rlog"
	"encore.dev/storage/sqldb"
	"encore.dev/types/uuid"
	"github.com/shopspring/decimal"
	"receivables.app/invoicing/models"
)

// Repository defines the interface for data persistence
type Repository interface {
	// Invoice operations
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	GetInvoiceByID(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error)
	AddLateFee(ctx context.Context, invoiceID uuid.UUID, fee decimal.Decimal, assessedAt time.Time) error
	MarkPaid(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal, paidAt time.Time) error
	CancelInvoice(ctx context.Context, invoiceID uuid.UUID, cancelledAt time.Time) error

	// Line item operations
	GetLineItemsByInvoiceID(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceLineItem, error)
}

// SQLRepository implements Repository using SQL database
type SQLRepository struct {
	db *sqldb.Database
}

// NewSQLRepository creates a new SQL repository
func NewSQLRepository(db *sqldb.Database) Repository {
	log := rlog.With("module", "invoicing_repository")
	log.Info("SQL repository initialized", "database_available", db != nil)
	return &SQLRepository{db: db}
}

func (r *SQLRepository) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	log := rlog.With("module", "invoicing_repository").With("invoice_id", invoice.ID.String()).With("number", invoice.Number)
	log.Info("creating invoice in database", "status", invoice.Status, "workflow_id", invoice.WorkflowID)

	cfg := invoice.Configuration
	latePaymentTerms, err := marshalOptional(cfg.LatePaymentTerms)
	if err != nil {
		return err
	}
	earlyDiscountTerms, err := marshalOptional(cfg.EarlyDiscountTerms)
	if err != nil {
		return err
	}
	paymentTerms, err := marshalOptional(cfg.PaymentTerms)
	if err != nil {
		return err
	}
	paymentMethod, err := marshalOptional(invoice.PaymentMethod)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		log.Error("failed to begin transaction", "error", err)
		return err
	}
	defer tx.Rollback()

	invoiceQuery := `
		INSERT INTO invoices (
			id, number, business_name, customer_name, status, currency, include_vat, vat_rate,
			late_payment_terms, early_discount_terms, payment_terms, payment_method,
			issued_at, due_date, workflow_id, late_fees, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err = tx.Exec(ctx, invoiceQuery,
		invoice.ID,
		invoice.Number,
		invoice.BusinessName,
		invoice.CustomerName,
		invoice.Status,
		cfg.Currency,
		cfg.IncludeVAT,
		cfg.VATRate,
		latePaymentTerms,
		earlyDiscountTerms,
		paymentTerms,
		paymentMethod,
		invoice.IssuedAt,
		invoice.DueDate,
		invoice.WorkflowID,
		invoice.LateFees,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create invoice in database", "error", err)
		return err
	}

	lineItemQuery := `
		INSERT INTO invoice_line_items (invoice_id, position, item_id, description, quantity, unit_price, discount_percentage)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for position, item := range cfg.Items {
		_, err = tx.Exec(ctx, lineItemQuery,
			invoice.ID,
			position,
			item.ID,
			item.Description,
			item.Quantity,
			item.UnitPrice,
			item.DiscountPercentage,
		)
		if err != nil {
			log.Error("failed to add line item to invoice in database", "error", err, "item_id", item.ID)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		log.Error("failed to commit invoice", "error", err)
		return err
	}

	log.Info("invoice created successfully in database", "line_items_count", len(cfg.Items))
	return nil
}

func (r *SQLRepository) GetInvoiceByID(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	log := rlog.With("module", "invoicing_repository").With("invoice_id", invoiceID.String())
	log.Info("retrieving invoice from database")

	query := `
		SELECT id, number, business_name, customer_name, status, currency, include_vat, vat_rate,
			late_payment_terms, early_discount_terms, payment_terms, payment_method,
			issued_at, due_date, workflow_id, late_fees, paid_at, amount_paid, cancelled_at,
			created_at, updated_at
		FROM invoices
		WHERE id = $1
	`

	var invoice models.Invoice
	var latePaymentTerms, earlyDiscountTerms, paymentTerms, paymentMethod []byte
	var paidAt, cancelledAt sql.NullTime
	var amountPaid decimal.NullDecimal

	err := r.db.QueryRow(ctx, query, invoiceID).Scan(
		&invoice.ID,
		&invoice.Number,
		&invoice.BusinessName,
		&invoice.CustomerName,
		&invoice.Status,
		&invoice.Configuration.Currency,
		&invoice.Configuration.IncludeVAT,
		&invoice.Configuration.VATRate,
		&latePaymentTerms,
		&earlyDiscountTerms,
		&paymentTerms,
		&paymentMethod,
		&invoice.IssuedAt,
		&invoice.DueDate,
		&invoice.WorkflowID,
		&invoice.LateFees,
		&paidAt,
		&amountPaid,
		&cancelledAt,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to retrieve invoice from database", "error", err)
		return nil, err
	}

	if err = unmarshalOptional(latePaymentTerms, &invoice.Configuration.LatePaymentTerms); err != nil {
		return nil, err
	}
	if err = unmarshalOptional(earlyDiscountTerms, &invoice.Configuration.EarlyDiscountTerms); err != nil {
		return nil, err
	}
	if err = unmarshalOptional(paymentTerms, &invoice.Configuration.PaymentTerms); err != nil {
		return nil, err
	}
	if err = unmarshalOptional(paymentMethod, &invoice.PaymentMethod); err != nil {
		return nil, err
	}

	if paidAt.Valid {
		invoice.PaidAt = &paidAt.Time
	}
	if amountPaid.Valid {
		invoice.AmountPaid = &amountPaid.Decimal
	}
	if cancelledAt.Valid {
		invoice.CancelledAt = &cancelledAt.Time
	}

	log.Info("loading line items for invoice")
	items, err := r.GetLineItemsByInvoiceID(ctx, invoiceID)
	if err != nil {
		log.Error("failed to load line items for invoice", "error", err)
		return nil, err
	}
	invoice.Configuration.Items = items

	log.Info("invoice retrieved successfully from database",
		"status", invoice.Status,
		"line_items_count", len(items),
		"number", invoice.Number)

	return &invoice, nil
}

// GetLineItemsByInvoiceID retrieves the line items of an invoice in display order
func (r *SQLRepository) GetLineItemsByInvoiceID(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceLineItem, error) {
	log := rlog.With("module", "invoicing_repository").With("invoice_id", invoiceID.String())
	log.Debug("retrieving line items for invoice")

	query := `
		SELECT item_id, description, quantity, unit_price, discount_percentage
		FROM invoice_line_items
		WHERE invoice_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.Query(ctx, query, invoiceID)
	if err != nil {
		log.Error("failed to query line items", "error", err)
		return nil, err
	}
	defer rows.Close()

	items := make([]models.InvoiceLineItem, 0)
	for rows.Next() {
		var item models.InvoiceLineItem
		err := rows.Scan(
			&item.ID,
			&item.Description,
			&item.Quantity,
			&item.UnitPrice,
			&item.DiscountPercentage,
		)
		if err != nil {
			log.Error("failed to scan line item row", "error", err)
			return nil, err
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		log.Error("failed to iterate line items", "error", err)
		return nil, err
	}

	log.Debug("line items retrieved successfully", "count", len(items))
	return items, nil
}

func (r *SQLRepository) AddLateFee(ctx context.Context, invoiceID uuid.UUID, fee decimal.Decimal, assessedAt time.Time) error {
	log := rlog.With("module", "invoicing_repository").With("invoice_id", invoiceID.String())
	log.Info("adding late fee in database", "fee", fee, "assessed_at", assessedAt)

	query := `
		UPDATE invoices
		SET late_fees = late_fees + $1, status = 'overdue', late_fee_assessed_at = $2, updated_at = NOW()
		WHERE id = $3 AND status IN ('issued', 'overdue')
	`
	return r.execOne(ctx, log, query, fee, assessedAt, invoiceID)
}

func (r *SQLRepository) MarkPaid(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal, paidAt time.Time) error {
	log := rlog.With("module", "invoicing_repository").With("invoice_id", invoiceID.String())
	log.Info("marking invoice paid in database", "amount", amount, "paid_at", paidAt)

	query := `
		UPDATE invoices
		SET status = 'paid', amount_paid = $1, paid_at = $2, updated_at = NOW()
		WHERE id = $3 AND status IN ('issued', 'overdue')
	`
	return r.execOne(ctx, log, query, amount, paidAt, invoiceID)
}

func (r *SQLRepository) CancelInvoice(ctx context.Context, invoiceID uuid.UUID, cancelledAt time.Time) error {
	log := rlog.With("module", "invoicing_repository").With("invoice_id", invoiceID.String())
	log.Info("cancelling invoice in database", "cancelled_at", cancelledAt)

	query := `
		UPDATE invoices
		SET status = 'cancelled', cancelled_at = $1, updated_at = NOW()
		WHERE id = $2 AND status IN ('issued', 'overdue')
	`
	return r.execOne(ctx, log, query, cancelledAt, invoiceID)
}

// execOne runs an update that must touch exactly one open invoice
func (r *SQLRepository) execOne(ctx context.Context, log rlog.Ctx, query string, args ...any) error {
	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		log.Error("failed to update invoice in database", "error", err)
		return err
	}

	rowsAffected := result.RowsAffected()
	if rowsAffected == 0 {
		log.Warn("no rows affected - invoice may be settled already or not found")
		return sql.ErrNoRows
	}

	log.Info("invoice updated successfully in database", "rows_affected", rowsAffected)
	return nil
}

func marshalOptional[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func unmarshalOptional[T any](data []byte, target **T) error {
	if len(data) == 0 {
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*target = &v
	return nil
}

package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"billdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, owner string, id uuid.UUID) (*models.Invoice, error)
	GetByNumber(ctx context.Context, owner, number string) (*models.Invoice, error)
	Update(ctx context.Context, invoice *models.Invoice) error
	Delete(ctx context.Context, owner string, id uuid.UUID) (bool, error)
	ListByOwner(ctx context.Context, owner string, filter models.InvoiceFilter) ([]*models.Invoice, error)
	ExistsByInvoiceNumber(ctx context.Context, number string) (bool, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

const invoiceColumns = `id, owner, invoice_number, issue_date, due_date, from_business_name, from_email, from_address, from_phone, from_gst, client, items, tax_percent, subtotal, tax, total, currency, status, logo_url, stamp_url, signature_url, signature_name, signature_title, notes, created_at, updated_at`

type invoiceRepo struct {
	db DBTX
}

func NewInvoiceRepo(db DBTX) InvoiceRepository {
	return &invoiceRepo{db: db}
}

func encodeInvoiceJSON(invoice *models.Invoice) (client []byte, items []byte, err error) {
	client, err = json.Marshal(invoice.Client)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode client: %w", err)
	}
	lineItems := invoice.Items
	if lineItems == nil {
		lineItems = []models.LineItem{}
	}
	items, err = json.Marshal(lineItems)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode items: %w", err)
	}
	return client, items, nil
}

func (r *invoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	client, items, err := encodeInvoiceJSON(invoice)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO invoices (id, owner, invoice_number, issue_date, due_date, from_business_name, from_email, from_address, from_phone, from_gst, client, items, tax_percent, subtotal, tax, total, currency, status, logo_url, stamp_url, signature_url, signature_name, signature_title, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query,
		invoice.ID, invoice.Owner, invoice.InvoiceNumber, invoice.IssueDate, invoice.DueDate,
		invoice.FromBusinessName, invoice.FromEmail, invoice.FromAddress, invoice.FromPhone, invoice.FromGST,
		client, items, invoice.TaxPercent, invoice.Subtotal, invoice.Tax, invoice.Total,
		invoice.Currency, string(invoice.Status), invoice.LogoURL, invoice.StampURL, invoice.SignatureURL,
		invoice.SignatureName, invoice.SignatureTitle, invoice.Notes)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateInvoiceNumber
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	var client, items []byte
	err := row.Scan(&invoice.ID, &invoice.Owner, &invoice.InvoiceNumber, &invoice.IssueDate, &invoice.DueDate,
		&invoice.FromBusinessName, &invoice.FromEmail, &invoice.FromAddress, &invoice.FromPhone, &invoice.FromGST,
		&client, &items, &invoice.TaxPercent, &invoice.Subtotal, &invoice.Tax, &invoice.Total,
		&invoice.Currency, &invoice.Status, &invoice.LogoURL, &invoice.StampURL, &invoice.SignatureURL,
		&invoice.SignatureName, &invoice.SignatureTitle, &invoice.Notes, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(client) > 0 {
		if err := json.Unmarshal(client, &invoice.Client); err != nil {
			return nil, fmt.Errorf("failed to decode client: %w", err)
		}
	}
	invoice.Items = []models.LineItem{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &invoice.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items: %w", err)
		}
	}
	return invoice, nil
}

func (r *invoiceRepo) getOne(ctx context.Context, query string, args ...any) (*models.Invoice, error) {
	invoice, err := scanInvoice(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, owner string, id uuid.UUID) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE owner = $1 AND id = $2`
	return r.getOne(ctx, query, owner, id)
}

func (r *invoiceRepo) GetByNumber(ctx context.Context, owner, number string) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE owner = $1 AND invoice_number = $2`
	return r.getOne(ctx, query, owner, number)
}

func (r *invoiceRepo) Update(ctx context.Context, invoice *models.Invoice) error {
	client, items, err := encodeInvoiceJSON(invoice)
	if err != nil {
		return err
	}

	query := `
		UPDATE invoices
		SET invoice_number = $1, issue_date = $2, due_date = $3, from_business_name = $4, from_email = $5, from_address = $6, from_phone = $7, from_gst = $8, client = $9, items = $10, tax_percent = $11, subtotal = $12, tax = $13, total = $14, currency = $15, status = $16, logo_url = $17, stamp_url = $18, signature_url = $19, signature_name = $20, signature_title = $21, notes = $22, updated_at = NOW()
		WHERE owner = $23 AND id = $24
	`
	tag, err := r.db.Exec(ctx, query,
		invoice.InvoiceNumber, invoice.IssueDate, invoice.DueDate, invoice.FromBusinessName, invoice.FromEmail,
		invoice.FromAddress, invoice.FromPhone, invoice.FromGST, client, items, invoice.TaxPercent,
		invoice.Subtotal, invoice.Tax, invoice.Total, invoice.Currency, string(invoice.Status),
		invoice.LogoURL, invoice.StampURL, invoice.SignatureURL, invoice.SignatureName, invoice.SignatureTitle,
		invoice.Notes, invoice.Owner, invoice.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateInvoiceNumber
		}
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *invoiceRepo) Delete(ctx context.Context, owner string, id uuid.UUID) (bool, error) {
	query := `DELETE FROM invoices WHERE owner = $1 AND id = $2`
	tag, err := r.db.Exec(ctx, query, owner, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete invoice: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *invoiceRepo) ListByOwner(ctx context.Context, owner string, filter models.InvoiceFilter) ([]*models.Invoice, error) {
	status := ""
	if filter.Status != nil {
		status = string(*filter.Status)
	}

	query := `SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE owner = $1 AND ($2 = '' OR status = $2) AND ($3 = '' OR invoice_number = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.db.Query(ctx, query, owner, status, filter.InvoiceNumber, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := []*models.Invoice{}
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

func (r *invoiceRepo) ExistsByInvoiceNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM invoices WHERE invoice_number = $1)`
	if err := r.db.QueryRow(ctx, query, number).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check invoice number: %w", err)
	}
	return exists, nil
}

// MarkOverdue flips sent and unpaid invoices whose due date is before asOf
// to overdue and returns how many rows changed.
func (r *invoiceRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE invoices
		SET status = 'overdue', updated_at = NOW()
		WHERE status IN ('sent', 'unpaid') AND due_date IS NOT NULL AND due_date < $1
	`
	tag, err := r.db.Exec(ctx, query, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}
	return tag.RowsAffected(), nil
}

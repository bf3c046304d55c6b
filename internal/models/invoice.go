package models

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus is the closed set of states an invoice can be in.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusUnpaid  InvoiceStatus = "unpaid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// InvoiceStatuses lists every valid status in display order.
var InvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusPaid,
	InvoiceStatusUnpaid,
	InvoiceStatusOverdue,
}

// IsValid reports whether s is one of the known statuses.
func (s InvoiceStatus) IsValid() bool {
	for _, known := range InvoiceStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// LineItem is one billable row on an invoice.
type LineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Amount is quantity × unit price.
func (li LineItem) Amount() float64 {
	return li.Quantity * li.UnitPrice
}

// Party is the client snapshot stored on an invoice.
type Party struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type Invoice struct {
	ID               uuid.UUID     `json:"id" db:"id"`
	Owner            string        `json:"owner" db:"owner"`
	InvoiceNumber    string        `json:"invoice_number" db:"invoice_number"`
	IssueDate        *time.Time    `json:"issue_date" db:"issue_date"`
	DueDate          *time.Time    `json:"due_date" db:"due_date"`
	FromBusinessName string        `json:"from_business_name" db:"from_business_name"`
	FromEmail        string        `json:"from_email" db:"from_email"`
	FromAddress      string        `json:"from_address" db:"from_address"`
	FromPhone        string        `json:"from_phone" db:"from_phone"`
	FromGST          string        `json:"from_gst" db:"from_gst"`
	Client           Party         `json:"client" db:"client"`
	Items            []LineItem    `json:"items" db:"items"`
	TaxPercent       *float64      `json:"tax_percent" db:"tax_percent"`
	Subtotal         float64       `json:"subtotal" db:"subtotal"`
	Tax              float64       `json:"tax" db:"tax"`
	Total            float64       `json:"total" db:"total"`
	Currency         string        `json:"currency" db:"currency"`
	Status           InvoiceStatus `json:"status" db:"status"`
	LogoURL          *string       `json:"logo_url" db:"logo_url"`
	StampURL         *string       `json:"stamp_url" db:"stamp_url"`
	SignatureURL     *string       `json:"signature_url" db:"signature_url"`
	SignatureName    string        `json:"signature_name" db:"signature_name"`
	SignatureTitle   string        `json:"signature_title" db:"signature_title"`
	Notes            string        `json:"notes" db:"notes"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// EffectiveTaxPercent returns the tax percent, or 0 when unset.
func (i *Invoice) EffectiveTaxPercent() float64 {
	if i.TaxPercent == nil {
		return 0
	}
	return *i.TaxPercent
}

// InvoiceFilter narrows ListByOwner results.
type InvoiceFilter struct {
	Status        *InvoiceStatus
	InvoiceNumber string
	Limit         int
	Offset        int
}

// ApplyTotals recomputes Subtotal, Tax and Total from Items and TaxPercent.
func (i *Invoice) ApplyTotals() {
	subtotal := 0.0
	for _, item := range i.Items {
		subtotal += item.Amount()
	}
	i.Subtotal = subtotal
	i.Tax = subtotal * i.EffectiveTaxPercent() / 100
	i.Total = i.Subtotal + i.Tax
}

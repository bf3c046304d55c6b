package invoicing

import (
	"fmt"
	"regexp"
	"strings"

	"billdesk/internal/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether s has the local@domain.tld shape.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// Validate returns every problem found on the invoice, in a stable order.
// An empty result means the record is complete.
func Validate(inv *models.Invoice, items []models.LineItem) []string {
	var errs []string

	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		errs = append(errs, "Invoice number is required")
	}
	if inv.IssueDate == nil || inv.IssueDate.IsZero() {
		errs = append(errs, "Invoice date is required")
	}
	if strings.TrimSpace(inv.FromBusinessName) == "" {
		errs = append(errs, "Business name is required")
	}

	switch {
	case strings.TrimSpace(inv.FromEmail) == "":
		errs = append(errs, "Business email is required")
	case !IsValidEmail(inv.FromEmail):
		errs = append(errs, "Valid business email is required")
	}

	if strings.TrimSpace(inv.Client.Name) == "" {
		errs = append(errs, "Client name is required")
	}
	if email := strings.TrimSpace(inv.Client.Email); email != "" && !IsValidEmail(email) {
		errs = append(errs, "Valid client email is required")
	}

	if len(items) == 0 {
		errs = append(errs, "At least one item is required")
	}
	for i, item := range items {
		n := i + 1
		if strings.TrimSpace(item.Description) == "" {
			errs = append(errs, fmt.Sprintf("Item %d: Description is required", n))
		}
		if item.Quantity <= 0 {
			errs = append(errs, fmt.Sprintf("Item %d: Quantity must be > 0", n))
		}
		if item.UnitPrice < 0 {
			errs = append(errs, fmt.Sprintf("Item %d: Unit price must be ≥ 0", n))
		}
	}

	if inv.TaxPercent != nil && (*inv.TaxPercent < 0 || *inv.TaxPercent > 100) {
		errs = append(errs, "Tax % must be 0–100")
	}

	return errs
}

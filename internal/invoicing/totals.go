// Package invoicing holds the pure invoice rules: totals, number allocation,
// record validation and normalization of loosely typed item data.
package invoicing

import "billdesk/internal/models"

// Totals is the derived money block of an invoice.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// ComputeTotals sums quantity × unit price over items and applies taxPercent.
// No rounding is applied.
func ComputeTotals(items []models.LineItem, taxPercent float64) Totals {
	subtotal := 0.0
	for _, item := range items {
		subtotal += item.Amount()
	}
	tax := subtotal * taxPercent / 100
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}

// ComputeRawTotals is the permissive variant used for unsaved drafts. Nil
// entries are skipped and anything that is not a usable number counts as 0.
func ComputeRawTotals(raw []RawItem, taxPercent any) Totals {
	items := make([]models.LineItem, 0, len(raw))
	for i, r := range raw {
		if r == nil {
			continue
		}
		items = append(items, NormalizeItem(r, i, ManualItemDefaults))
	}
	tax, ok := CoerceNumber(taxPercent)
	if !ok {
		tax = 0
	}
	return ComputeTotals(items, tax)
}

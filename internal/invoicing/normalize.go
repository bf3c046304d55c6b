package invoicing

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"billdesk/internal/models"

	"github.com/google/uuid"
)

// RawItem is a line item as it arrives from loosely typed JSON.
type RawItem map[string]any

// ItemDefaults fill in quantity and unit price when the raw item omits them.
type ItemDefaults struct {
	Quantity  float64
	UnitPrice float64
}

var (
	ManualItemDefaults    = ItemDefaults{Quantity: 0, UnitPrice: 0}
	ExtractedItemDefaults = ItemDefaults{Quantity: 1, UnitPrice: 0}
)

// ParseRawItems accepts a JSON array of objects or a JSON string holding such
// an array. Anything else yields an empty slice.
func ParseRawItems(data json.RawMessage) []RawItem {
	if len(data) == 0 {
		return []RawItem{}
	}

	var entries []any
	if err := json.Unmarshal(data, &entries); err != nil {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return []RawItem{}
		}
		if err := json.Unmarshal([]byte(encoded), &entries); err != nil {
			return []RawItem{}
		}
	}
	return rawItemsFrom(entries)
}

func rawItemsFrom(entries []any) []RawItem {
	items := make([]RawItem, 0, len(entries))
	for _, entry := range entries {
		if obj, ok := entry.(map[string]any); ok {
			items = append(items, RawItem(obj))
		}
	}
	return items
}

// CoerceNumber converts JSON numbers and numeric strings to float64. Bools,
// nil, NaN and infinities are rejected.
func CoerceNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func lookup(raw RawItem, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func numberField(raw RawItem, def float64, keys ...string) float64 {
	v, ok := lookup(raw, keys...)
	if !ok {
		return def
	}
	f, ok := CoerceNumber(v)
	if !ok {
		return 0
	}
	return f
}

func stringField(raw map[string]any, keys ...string) string {
	v, ok := lookup(raw, keys...)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

// NormalizeItem maps a raw item onto a LineItem. index is the zero-based
// position used to name items that arrive without an id.
func NormalizeItem(raw RawItem, index int, defaults ItemDefaults) models.LineItem {
	id := stringField(raw, "id")
	if id == "" {
		id = fmt.Sprintf("item-%d-%s", index+1, uuid.NewString()[:8])
	}
	return models.LineItem{
		ID:          id,
		Description: stringField(raw, "description", "desc"),
		Quantity:    numberField(raw, defaults.Quantity, "quantity", "qty"),
		UnitPrice:   numberField(raw, defaults.UnitPrice, "unit_price", "unitPrice", "price"),
	}
}

// NormalizeItems normalizes every non-nil raw item.
func NormalizeItems(raw []RawItem, defaults ItemDefaults) []models.LineItem {
	items := make([]models.LineItem, 0, len(raw))
	for i, r := range raw {
		if r == nil {
			continue
		}
		items = append(items, NormalizeItem(r, i, defaults))
	}
	return items
}

// NormalizeStatus lower-cases s and falls back to draft for unknown values.
func NormalizeStatus(s string) models.InvoiceStatus {
	status := models.InvoiceStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return models.InvoiceStatusDraft
	}
	return status
}

// ParseDate accepts YYYY-MM-DD or RFC 3339. Empty or unparseable input
// yields nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

type ExtractionDefaults struct {
	Currency   string
	TaxPercent float64
}

// ExtractedInvoice is a draft built from model output. It is never persisted
// as is; the caller reviews it first.
type ExtractedInvoice struct {
	IssueDate  *time.Time           `json:"issue_date"`
	DueDate    *time.Time           `json:"due_date"`
	Currency   string               `json:"currency"`
	TaxPercent float64              `json:"tax_percent"`
	Status     models.InvoiceStatus `json:"status"`
	Client     models.Party         `json:"client"`
	Items      []models.LineItem    `json:"items"`
	Totals
}

// NormalizeExtraction turns a decoded model response into an ExtractedInvoice
// with computed totals.
func NormalizeExtraction(data map[string]any, defaults ExtractionDefaults) ExtractedInvoice {
	if defaults.Currency == "" {
		defaults.Currency = "INR"
	}

	out := ExtractedInvoice{
		IssueDate:  ParseDate(stringField(data, "invoice_date", "issueDate")),
		DueDate:    ParseDate(stringField(data, "due_date", "dueDate")),
		Currency:   strings.ToUpper(stringField(data, "currency")),
		TaxPercent: defaults.TaxPercent,
		Status:     NormalizeStatus(stringField(data, "payment_status", "status")),
	}
	if out.Currency == "" {
		out.Currency = strings.ToUpper(defaults.Currency)
	}
	if v, ok := lookup(data, "tax_rate", "taxPercent"); ok {
		if f, ok := CoerceNumber(v); ok {
			out.TaxPercent = f
		}
	}

	if client, ok := data["client"].(map[string]any); ok {
		out.Client = models.Party{
			Name:    stringField(client, "name"),
			Email:   stringField(client, "email"),
			Phone:   stringField(client, "phone"),
			Address: stringField(client, "address"),
		}
	}

	var entries []any
	if list, ok := data["items"].([]any); ok {
		entries = list
	}
	out.Items = NormalizeItems(rawItemsFrom(entries), ExtractedItemDefaults)
	out.Totals = ComputeTotals(out.Items, out.TaxPercent)
	return out
}

package models

import "time"

// DashboardSummary is the KPI block shown on an owner's dashboard.
type DashboardSummary struct {
	Currency         string    `json:"currency"`
	TotalInvoices    int       `json:"total_invoices"`
	TotalPaid        float64   `json:"total_paid"`
	TotalUnpaid      float64   `json:"total_unpaid"`
	PaidCount        int       `json:"paid_count"`
	UnpaidCount      int       `json:"unpaid_count"`
	DraftCount       int       `json:"draft_count"`
	PaidPercentage   float64   `json:"paid_percentage"`
	UnpaidPercentage float64   `json:"unpaid_percentage"`
	PaidRate         float64   `json:"paid_rate"`
	AverageInvoice   float64   `json:"average_invoice"`
	GeneratedAt      time.Time `json:"generated_at"`
}

package analytics

import (
	"context"
	"fmt"
	"log"
	"time"

	"billdesk/internal/caching"
	"billdesk/internal/models"
	"billdesk/internal/repositories"
)

const (
	DashboardTTL = 5 * time.Minute
	pageSize     = 500
)

// DashboardService calculates and caches per-owner invoice KPIs.
type DashboardService struct {
	invoiceRepo  repositories.InvoiceRepository
	cacheService caching.CacheService
	rates        ExchangeRates
	now          func() time.Time
}

func NewDashboardService(invoiceRepo repositories.InvoiceRepository, cacheService caching.CacheService, rates ExchangeRates) *DashboardService {
	return &DashboardService{
		invoiceRepo:  invoiceRepo,
		cacheService: cacheService,
		rates:        rates,
		now:          time.Now,
	}
}

// Summary returns the cached KPIs for owner, computing them on a miss.
func (d *DashboardService) Summary(ctx context.Context, owner string) (*models.DashboardSummary, error) {
	if d.cacheService != nil {
		cached, err := d.cacheService.GetDashboard(ctx, owner)
		if err != nil {
			log.Printf("WARN: dashboard cache read failed for %s: %v", owner, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	invoices, err := d.allInvoices(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices for dashboard: %w", err)
	}

	summary := Summarize(invoices, d.rates)
	summary.GeneratedAt = d.now().UTC()

	if d.cacheService != nil {
		if err := d.cacheService.SetDashboard(ctx, owner, summary, DashboardTTL); err != nil {
			log.Printf("WARN: dashboard cache write failed for %s: %v", owner, err)
		}
	}
	return summary, nil
}

// Invalidate drops the cached KPIs for owner.
func (d *DashboardService) Invalidate(ctx context.Context, owner string) error {
	if d.cacheService == nil {
		return nil
	}
	return d.cacheService.InvalidateDashboard(ctx, owner)
}

func (d *DashboardService) allInvoices(ctx context.Context, owner string) ([]*models.Invoice, error) {
	var all []*models.Invoice
	for offset := 0; ; offset += pageSize {
		page, err := d.invoiceRepo.ListByOwner(ctx, owner, models.InvoiceFilter{Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// Summarize computes KPIs over invoices in the reporting currency of rates.
// Overdue invoices count as unpaid.
func Summarize(invoices []*models.Invoice, rates ExchangeRates) *models.DashboardSummary {
	s := &models.DashboardSummary{TotalInvoices: len(invoices), Currency: rates.Base}

	for _, inv := range invoices {
		total := rates.Convert(inv.Total, inv.Currency)
		switch inv.Status {
		case models.InvoiceStatusPaid:
			s.TotalPaid += total
			s.PaidCount++
		case models.InvoiceStatusUnpaid, models.InvoiceStatusOverdue:
			s.TotalUnpaid += total
			s.UnpaidCount++
		case models.InvoiceStatusDraft:
			s.DraftCount++
		}
	}

	if amount := s.TotalPaid + s.TotalUnpaid; amount > 0 {
		s.PaidPercentage = s.TotalPaid / amount * 100
		s.UnpaidPercentage = s.TotalUnpaid / amount * 100
	}
	if s.TotalInvoices > 0 {
		s.PaidRate = float64(s.PaidCount) / float64(s.TotalInvoices) * 100
		s.AverageInvoice = (s.TotalPaid + s.TotalUnpaid) / float64(s.TotalInvoices)
	}
	return s
}

package analytics

import (
	"context"
	"testing"
	"time"

	"billdesk/internal/caching"
	"billdesk/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, owner string, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, owner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) GetByNumber(ctx context.Context, owner, number string) (*models.Invoice, error) {
	args := m.Called(ctx, owner, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, owner string, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, owner, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) ListByOwner(ctx context.Context, owner string, filter models.InvoiceFilter) ([]*models.Invoice, error) {
	args := m.Called(ctx, owner, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsByInvoiceNumber(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

func invoice(status models.InvoiceStatus, total float64) *models.Invoice {
	return &models.Invoice{ID: uuid.New(), Status: status, Total: total}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		invoices []*models.Invoice
		want     models.DashboardSummary
	}{
		{
			name: "empty",
			want: models.DashboardSummary{},
		},
		{
			name: "mixed statuses",
			invoices: []*models.Invoice{
				invoice(models.InvoiceStatusPaid, 300),
				invoice(models.InvoiceStatusUnpaid, 50),
				invoice(models.InvoiceStatusOverdue, 50),
				invoice(models.InvoiceStatusDraft, 999),
				invoice(models.InvoiceStatusSent, 100),
			},
			want: models.DashboardSummary{
				TotalInvoices:    5,
				TotalPaid:        300,
				TotalUnpaid:      100,
				PaidCount:        1,
				UnpaidCount:      2,
				DraftCount:       1,
				PaidPercentage:   75,
				UnpaidPercentage: 25,
				PaidRate:         20,
				AverageInvoice:   80,
			},
		},
		{
			name:     "only drafts",
			invoices: []*models.Invoice{invoice(models.InvoiceStatusDraft, 10)},
			want:     models.DashboardSummary{TotalInvoices: 1, DraftCount: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.invoices, ExchangeRates{})
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestSummarize_ConvertsToReportingCurrency(t *testing.T) {
	rates := ExchangeRates{Base: "INR", Rates: map[string]float64{"USD": 83}}
	paidUSD := invoice(models.InvoiceStatusPaid, 10)
	paidUSD.Currency = "usd"
	unpaidINR := invoice(models.InvoiceStatusUnpaid, 170)
	unpaidINR.Currency = "INR"
	unpaidEUR := invoice(models.InvoiceStatusOverdue, 100)
	unpaidEUR.Currency = "EUR"

	got := Summarize([]*models.Invoice{paidUSD, unpaidINR, unpaidEUR}, rates)

	assert.Equal(t, "INR", got.Currency)
	assert.InDelta(t, 830.0, got.TotalPaid, 1e-9)
	assert.InDelta(t, 270.0, got.TotalUnpaid, 1e-9)
	assert.InDelta(t, 75.4545, got.PaidPercentage, 1e-3)
	assert.InDelta(t, 1100.0/3, got.AverageInvoice, 1e-9)
}

func TestExchangeRates_Convert(t *testing.T) {
	rates := ExchangeRates{Base: "INR", Rates: map[string]float64{"USD": 83}}

	assert.Equal(t, 166.0, rates.Convert(2, " USD "))
	assert.Equal(t, 2.0, rates.Convert(2, "INR"))
	assert.Equal(t, 2.0, rates.Convert(2, ""))
	assert.Equal(t, 2.0, rates.Convert(2, "GBP"))
}

type DashboardServiceTestSuite struct {
	suite.Suite
	redis   *miniredis.Miniredis
	repo    *MockInvoiceRepository
	cache   caching.CacheService
	service *DashboardService
	ctx     context.Context
}

func (suite *DashboardServiceTestSuite) SetupTest() {
	suite.redis = miniredis.RunT(suite.T())
	client := redis.NewClient(&redis.Options{Addr: suite.redis.Addr()})
	suite.cache = caching.NewCacheServiceWithClient(client)
	suite.repo = new(MockInvoiceRepository)
	suite.service = NewDashboardService(suite.repo, suite.cache, ExchangeRates{Base: "INR", Rates: map[string]float64{"USD": 83}})
	suite.service.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	suite.ctx = context.Background()
}

func (suite *DashboardServiceTestSuite) TearDownTest() {
	suite.repo.AssertExpectations(suite.T())
}

func TestDashboardServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DashboardServiceTestSuite))
}

func (suite *DashboardServiceTestSuite) TestSummary_CachesResult() {
	filter := models.InvoiceFilter{Limit: pageSize, Offset: 0}
	suite.repo.On("ListByOwner", suite.ctx, "owner-1", filter).
		Return([]*models.Invoice{invoice(models.InvoiceStatusPaid, 120)}, nil).Once()

	first, err := suite.service.Summary(suite.ctx, "owner-1")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 120.0, first.TotalPaid)
	assert.Equal(suite.T(), 100.0, first.PaidRate)

	second, err := suite.service.Summary(suite.ctx, "owner-1")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), first.TotalPaid, second.TotalPaid)
	assert.True(suite.T(), first.GeneratedAt.Equal(second.GeneratedAt))

	ttl := suite.redis.TTL("billdesk:dashboard:owner-1")
	assert.Equal(suite.T(), DashboardTTL, ttl)
}

func (suite *DashboardServiceTestSuite) TestSummary_InvalidateForcesRecompute() {
	filter := models.InvoiceFilter{Limit: pageSize, Offset: 0}
	suite.repo.On("ListByOwner", suite.ctx, "owner-1", filter).
		Return([]*models.Invoice{}, nil).Twice()

	_, err := suite.service.Summary(suite.ctx, "owner-1")
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.service.Invalidate(suite.ctx, "owner-1"))
	_, err = suite.service.Summary(suite.ctx, "owner-1")
	require.NoError(suite.T(), err)
}

func (suite *DashboardServiceTestSuite) TestSummary_Pages() {
	full := make([]*models.Invoice, pageSize)
	for i := range full {
		full[i] = invoice(models.InvoiceStatusUnpaid, 1)
	}
	suite.repo.On("ListByOwner", suite.ctx, "owner-2", models.InvoiceFilter{Limit: pageSize, Offset: 0}).Return(full, nil)
	suite.repo.On("ListByOwner", suite.ctx, "owner-2", models.InvoiceFilter{Limit: pageSize, Offset: pageSize}).
		Return([]*models.Invoice{invoice(models.InvoiceStatusPaid, 500)}, nil)

	summary, err := suite.service.Summary(suite.ctx, "owner-2")

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), pageSize+1, summary.TotalInvoices)
	assert.Equal(suite.T(), float64(pageSize), summary.TotalUnpaid)
	assert.Equal(suite.T(), 50.0, summary.PaidPercentage)
}

func (suite *DashboardServiceTestSuite) TestSummary_CacheDownStillComputes() {
	dead := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	service := NewDashboardService(suite.repo, caching.NewCacheServiceWithClient(dead), ExchangeRates{Base: "INR"})
	suite.repo.On("ListByOwner", suite.ctx, "owner-3", mock.Anything).Return([]*models.Invoice{}, nil)

	summary, err := service.Summary(suite.ctx, "owner-3")

	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), summary.TotalInvoices)
}

package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"billdesk/internal/common"
	"billdesk/internal/models"
	"billdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
)

const testOwner = "user_2abc"

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) Create(ctx context.Context, owner string, input *services.InvoiceInput, draft bool) (*services.InvoiceResult, error) {
	args := m.Called(ctx, owner, input, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.InvoiceResult), args.Error(1)
}

func (m *MockInvoiceService) Get(ctx context.Context, owner, idOrNumber string) (*models.Invoice, error) {
	args := m.Called(ctx, owner, idOrNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) List(ctx context.Context, owner string, filter models.InvoiceFilter) ([]*models.Invoice, error) {
	args := m.Called(ctx, owner, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Update(ctx context.Context, owner string, id uuid.UUID, input *services.InvoiceInput, draft bool) (*services.InvoiceResult, error) {
	args := m.Called(ctx, owner, id, input, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.InvoiceResult), args.Error(1)
}

func (m *MockInvoiceService) UpdateStatus(ctx context.Context, owner string, id uuid.UUID, status string) (*models.Invoice, error) {
	args := m.Called(ctx, owner, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Delete(ctx context.Context, owner string, id uuid.UUID) error {
	return m.Called(ctx, owner, id).Error(0)
}

func (m *MockInvoiceService) SetImage(ctx context.Context, owner string, id uuid.UUID, kind string, upload *services.Upload) (*models.Invoice, error) {
	args := m.Called(ctx, owner, id, kind, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) GeneratePDF(ctx context.Context, owner, idOrNumber string) (*services.PDFLink, error) {
	args := m.Called(ctx, owner, idOrNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PDFLink), args.Error(1)
}

func (m *MockInvoiceService) AllocateNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockInvoiceService) MarkOverdueInvoices(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockBusinessProfileService struct {
	mock.Mock
}

func (m *MockBusinessProfileService) Create(ctx context.Context, owner string, patch *models.BusinessProfilePatch, uploads services.ProfileUploads) (*models.BusinessProfile, error) {
	args := m.Called(ctx, owner, patch, uploads)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BusinessProfile), args.Error(1)
}

func (m *MockBusinessProfileService) Update(ctx context.Context, owner string, id uuid.UUID, patch *models.BusinessProfilePatch, uploads services.ProfileUploads) (*models.BusinessProfile, error) {
	args := m.Called(ctx, owner, id, patch, uploads)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BusinessProfile), args.Error(1)
}

func (m *MockBusinessProfileService) GetMine(ctx context.Context, owner string) (*models.BusinessProfile, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BusinessProfile), args.Error(1)
}

type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) Extract(ctx context.Context, text string) (*services.ExtractionResult, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ExtractionResult), args.Error(1)
}

type MockDashboard struct {
	mock.Mock
}

func (m *MockDashboard) Summary(ctx context.Context, owner string) (*models.DashboardSummary, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardSummary), args.Error(1)
}

type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Upload(ctx context.Context, folder, filename string, reader io.Reader, size int64, contentType string) (*services.StoredObject, error) {
	args := m.Called(ctx, folder, filename, reader, size, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.StoredObject), args.Error(1)
}

func (m *MockMediaStore) GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockMediaStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockMediaStore) EnsureBucketExists(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockMediaStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// newTestServer returns an echo instance that authenticates every request
// carrying X-Test-Owner as that owner.
func newTestServer() *echo.Echo {
	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if owner := c.Request().Header.Get("X-Test-Owner"); owner != "" {
				c.SetRequest(c.Request().WithContext(common.WithOwnerID(c.Request().Context(), owner)))
			}
			return next(c)
		}
	})
	return e
}

func doRequest(e *echo.Echo, method, path, body, owner string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if owner != "" {
		req.Header.Set("X-Test-Owner", owner)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

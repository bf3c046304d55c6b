package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"billdesk/internal/caching"
	"billdesk/internal/invoicing"
	"billdesk/internal/models"
	"billdesk/internal/repositories"

	"github.com/google/uuid"
)

const pdfLinkExpiry = 24 * time.Hour

// InvoiceInput is the client-supplied part of an invoice. Nil fields are
// left untouched on update and defaulted on create.
type InvoiceInput struct {
	InvoiceNumber    *string         `json:"invoice_number"`
	IssueDate        *string         `json:"issue_date"`
	DueDate          *string         `json:"due_date"`
	FromBusinessName *string         `json:"from_business_name"`
	FromEmail        *string         `json:"from_email"`
	FromAddress      *string         `json:"from_address"`
	FromPhone        *string         `json:"from_phone"`
	FromGST          *string         `json:"from_gst"`
	Client           *models.Party   `json:"client"`
	Items            json.RawMessage `json:"items"`
	TaxPercent       any             `json:"tax_percent"`
	Currency         *string         `json:"currency"`
	Status           *string         `json:"status"`
	LogoURL          *string         `json:"logo_url"`
	StampURL         *string         `json:"stamp_url"`
	SignatureURL     *string         `json:"signature_url"`
	SignatureName    *string         `json:"signature_name"`
	SignatureTitle   *string         `json:"signature_title"`
	Notes            *string         `json:"notes"`
}

func (in *InvoiceInput) hasItems() bool {
	trimmed := bytes.TrimSpace(in.Items)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// InvoiceResult is a saved invoice plus any validation messages that were
// tolerated because the invoice was saved as a draft.
type InvoiceResult struct {
	Invoice  *models.Invoice `json:"invoice"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// PDFLink points at a rendered invoice document.
type PDFLink struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NumberAllocator hands out fresh invoice numbers.
type NumberAllocator interface {
	Allocate(ctx context.Context) (string, error)
}

type InvoiceDefaults struct {
	Currency   string
	TaxPercent float64
}

type InvoiceService interface {
	Create(ctx context.Context, owner string, input *InvoiceInput, draft bool) (*InvoiceResult, error)
	Get(ctx context.Context, owner, idOrNumber string) (*models.Invoice, error)
	List(ctx context.Context, owner string, filter models.InvoiceFilter) ([]*models.Invoice, error)
	Update(ctx context.Context, owner string, id uuid.UUID, input *InvoiceInput, draft bool) (*InvoiceResult, error)
	UpdateStatus(ctx context.Context, owner string, id uuid.UUID, status string) (*models.Invoice, error)
	Delete(ctx context.Context, owner string, id uuid.UUID) error
	SetImage(ctx context.Context, owner string, id uuid.UUID, kind string, upload *Upload) (*models.Invoice, error)
	GeneratePDF(ctx context.Context, owner, idOrNumber string) (*PDFLink, error)
	AllocateNumber(ctx context.Context) (string, error)
	MarkOverdueInvoices(ctx context.Context) (int64, error)
}

type invoiceService struct {
	invoiceRepo repositories.InvoiceRepository
	profileRepo repositories.BusinessProfileRepository
	allocator   NumberAllocator
	cache       caching.CacheService
	media       MediaStore
	pdf         PDFRenderer
	defaults    InvoiceDefaults
	now         func() time.Time
}

func NewInvoiceService(
	invoiceRepo repositories.InvoiceRepository,
	profileRepo repositories.BusinessProfileRepository,
	allocator NumberAllocator,
	cache caching.CacheService,
	media MediaStore,
	pdf PDFRenderer,
	defaults InvoiceDefaults,
) InvoiceService {
	if defaults.Currency == "" {
		defaults.Currency = "INR"
	}
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		profileRepo: profileRepo,
		allocator:   allocator,
		cache:       cache,
		media:       media,
		pdf:         pdf,
		defaults:    defaults,
		now:         time.Now,
	}
}

func (s *invoiceService) Create(ctx context.Context, owner string, input *InvoiceInput, draft bool) (*InvoiceResult, error) {
	invoice := &models.Invoice{
		ID:       uuid.New(),
		Owner:    owner,
		Items:    []models.LineItem{},
		Currency: s.defaults.Currency,
	}
	taxPercent := s.defaults.TaxPercent

	profile, err := s.profileRepo.GetByOwner(ctx, owner)
	switch {
	case err == nil:
		applyProfile(invoice, profile)
		taxPercent = profile.DefaultTaxPercent
	case errors.Is(err, repositories.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to load business profile: %w", err)
	}
	invoice.TaxPercent = &taxPercent

	s.applyInput(invoice, input)

	invoice.Status = models.InvoiceStatusDraft
	if input.Status != nil {
		invoice.Status = invoicing.NormalizeStatus(*input.Status)
	}

	if strings.TrimSpace(invoice.InvoiceNumber) == "" {
		number, err := s.allocator.Allocate(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate invoice number: %w", err)
		}
		invoice.InvoiceNumber = number
	}

	invoice.ApplyTotals()

	warnings, err := checkInvoice(invoice, draft)
	if err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}
	s.invalidateDashboard(ctx, owner)

	return &InvoiceResult{Invoice: invoice, Warnings: warnings}, nil
}

func (s *invoiceService) Get(ctx context.Context, owner, idOrNumber string) (*models.Invoice, error) {
	idOrNumber = strings.TrimSpace(idOrNumber)
	if id, err := uuid.Parse(idOrNumber); err == nil {
		return s.invoiceRepo.GetByID(ctx, owner, id)
	}
	return s.invoiceRepo.GetByNumber(ctx, owner, idOrNumber)
}

func (s *invoiceService) List(ctx context.Context, owner string, filter models.InvoiceFilter) ([]*models.Invoice, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	return s.invoiceRepo.ListByOwner(ctx, owner, filter)
}

func (s *invoiceService) Update(ctx context.Context, owner string, id uuid.UUID, input *InvoiceInput, draft bool) (*InvoiceResult, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if input.Status != nil {
		status := models.InvoiceStatus(strings.ToLower(strings.TrimSpace(*input.Status)))
		if !status.IsValid() {
			return nil, ErrInvalidStatus
		}
		invoice.Status = status
	}
	// The number is fixed once assigned.
	number := invoice.InvoiceNumber
	s.applyInput(invoice, input)
	invoice.InvoiceNumber = number
	invoice.ApplyTotals()

	warnings, err := checkInvoice(invoice, draft)
	if err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}
	s.invalidateDashboard(ctx, owner)

	return &InvoiceResult{Invoice: invoice, Warnings: warnings}, nil
}

func (s *invoiceService) UpdateStatus(ctx context.Context, owner string, id uuid.UUID, status string) (*models.Invoice, error) {
	next := models.InvoiceStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.IsValid() {
		return nil, ErrInvalidStatus
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	invoice.Status = next

	if next != models.InvoiceStatusDraft {
		if _, err := checkInvoice(invoice, false); err != nil {
			return nil, err
		}
	}

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}
	s.invalidateDashboard(ctx, owner)
	return invoice, nil
}

func (s *invoiceService) Delete(ctx context.Context, owner string, id uuid.UUID) error {
	deleted, err := s.invoiceRepo.Delete(ctx, owner, id)
	if err != nil {
		return err
	}
	if !deleted {
		return repositories.ErrNotFound
	}
	s.invalidateDashboard(ctx, owner)
	return nil
}

func (s *invoiceService) SetImage(ctx context.Context, owner string, id uuid.UUID, kind string, upload *Upload) (*models.Invoice, error) {
	folder, err := imageFolder(kind)
	if err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	obj, err := s.media.Upload(ctx, folder, upload.Filename, upload.Reader, upload.Size, upload.ContentType)
	if err != nil {
		return nil, err
	}

	switch folder {
	case FolderLogos:
		invoice.LogoURL = &obj.URL
	case FolderStamps:
		invoice.StampURL = &obj.URL
	case FolderSignatures:
		invoice.SignatureURL = &obj.URL
	}

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		if delErr := s.media.Delete(ctx, obj.Key); delErr != nil {
			log.Printf("WARN: failed to remove orphaned upload %s: %v", obj.Key, delErr)
		}
		return nil, err
	}
	return invoice, nil
}

func (s *invoiceService) GeneratePDF(ctx context.Context, owner, idOrNumber string) (*PDFLink, error) {
	invoice, err := s.Get(ctx, owner, idOrNumber)
	if err != nil {
		return nil, err
	}

	doc, err := s.pdf.Render(invoice)
	if err != nil {
		return nil, fmt.Errorf("failed to render invoice pdf: %w", err)
	}

	filename := invoice.InvoiceNumber + ".pdf"
	obj, err := s.media.Upload(ctx, FolderInvoices, filename, bytes.NewReader(doc), int64(len(doc)), "application/pdf")
	if err != nil {
		return nil, err
	}

	url, err := s.media.GetPresignedURL(ctx, obj.Key, pdfLinkExpiry)
	if err != nil {
		return nil, err
	}
	return &PDFLink{Key: obj.Key, URL: url, ExpiresAt: s.now().Add(pdfLinkExpiry).UTC()}, nil
}

func (s *invoiceService) AllocateNumber(ctx context.Context) (string, error) {
	return s.allocator.Allocate(ctx)
}

// MarkOverdueInvoices moves sent and unpaid invoices past their due date to
// overdue.
func (s *invoiceService) MarkOverdueInvoices(ctx context.Context) (int64, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	n, err := s.invoiceRepo.MarkOverdue(ctx, today)
	if err != nil {
		return 0, err
	}
	if n > 0 && s.cache != nil {
		if err := s.cache.InvalidateAllDashboards(ctx); err != nil {
			log.Printf("WARN: failed to flush dashboard caches: %v", err)
		}
	}
	return n, nil
}

func (s *invoiceService) applyInput(invoice *models.Invoice, input *InvoiceInput) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&invoice.InvoiceNumber, input.InvoiceNumber)
	setString(&invoice.FromBusinessName, input.FromBusinessName)
	setString(&invoice.FromEmail, input.FromEmail)
	setString(&invoice.FromAddress, input.FromAddress)
	setString(&invoice.FromPhone, input.FromPhone)
	setString(&invoice.FromGST, input.FromGST)
	setString(&invoice.SignatureName, input.SignatureName)
	setString(&invoice.SignatureTitle, input.SignatureTitle)
	setString(&invoice.Notes, input.Notes)

	if input.IssueDate != nil {
		invoice.IssueDate = invoicing.ParseDate(*input.IssueDate)
	}
	if input.DueDate != nil {
		invoice.DueDate = invoicing.ParseDate(*input.DueDate)
	}
	if input.Client != nil {
		invoice.Client = models.Party{
			Name:    strings.TrimSpace(input.Client.Name),
			Email:   strings.TrimSpace(input.Client.Email),
			Phone:   strings.TrimSpace(input.Client.Phone),
			Address: strings.TrimSpace(input.Client.Address),
		}
	}
	if input.hasItems() {
		invoice.Items = invoicing.NormalizeItems(invoicing.ParseRawItems(input.Items), invoicing.ManualItemDefaults)
	}
	if input.TaxPercent != nil {
		tax, ok := invoicing.CoerceNumber(input.TaxPercent)
		if !ok {
			tax = 0
		}
		invoice.TaxPercent = &tax
	}
	if input.Currency != nil {
		if currency := strings.ToUpper(strings.TrimSpace(*input.Currency)); currency != "" {
			invoice.Currency = currency
		}
	}
	if input.LogoURL != nil {
		invoice.LogoURL = input.LogoURL
	}
	if input.StampURL != nil {
		invoice.StampURL = input.StampURL
	}
	if input.SignatureURL != nil {
		invoice.SignatureURL = input.SignatureURL
	}
}

func applyProfile(invoice *models.Invoice, profile *models.BusinessProfile) {
	invoice.FromBusinessName = profile.BusinessName
	invoice.FromEmail = profile.Email
	invoice.FromAddress = profile.Address
	invoice.FromPhone = profile.Phone
	invoice.FromGST = profile.GST
	invoice.LogoURL = profile.LogoURL
	invoice.StampURL = profile.StampURL
	invoice.SignatureURL = profile.SignatureURL
	invoice.SignatureName = profile.SignatureOwnerName
	invoice.SignatureTitle = profile.SignatureOwnerTitle
}

// checkInvoice applies the save policy: drafts keep their validation
// messages as warnings, anything else must be complete.
func checkInvoice(invoice *models.Invoice, draft bool) ([]string, error) {
	messages := invoicing.Validate(invoice, invoice.Items)
	if len(messages) == 0 {
		return nil, nil
	}
	if draft || invoice.Status == models.InvoiceStatusDraft {
		return messages, nil
	}
	return nil, &ValidationError{Messages: messages}
}

func imageFolder(kind string) (string, error) {
	switch strings.ToLower(kind) {
	case "logo":
		return FolderLogos, nil
	case "stamp":
		return FolderStamps, nil
	case "signature":
		return FolderSignatures, nil
	}
	return "", ErrInvalidImageKind
}

func (s *invoiceService) invalidateDashboard(ctx context.Context, owner string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDashboard(ctx, owner); err != nil {
		log.Printf("WARN: failed to invalidate dashboard cache for %s: %v", owner, err)
	}
}

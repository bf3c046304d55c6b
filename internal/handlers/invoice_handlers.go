package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"billdesk/internal/common"
	"billdesk/internal/models"
	"billdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// InvoiceHandlers handles HTTP requests for invoices
type InvoiceHandlers struct {
	invoiceService services.InvoiceService
}

// NewInvoiceHandlers creates a new invoice handlers instance
func NewInvoiceHandlers(invoiceService services.InvoiceService) *InvoiceHandlers {
	return &InvoiceHandlers{invoiceService: invoiceService}
}

// ListInvoices handles GET /invoices
func (h *InvoiceHandlers) ListInvoices(c echo.Context) error {
	ctx := c.Request().Context()

	owner, ok := common.GetOwnerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendValidationError(c, "offset", err.Error())
	}

	filter := models.InvoiceFilter{
		InvoiceNumber: strings.TrimSpace(c.QueryParam("invoiceNumber")),
		Limit:         limit,
		Offset:        offset,
	}
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		s := models.InvoiceStatus(strings.ToLower(status))
		filter.Status = &s
	}

	invoices, err := h.invoiceService.List(ctx, owner, filter)
	if err != nil {
		return sendServiceError(c, err, "invoice")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"limit":    limit,
		"offset":   offset,
	})
}

// CreateInvoice handles POST /invoices. ?draft=true saves incomplete
// invoices and reports the problems as warnings.
func (h *InvoiceHandlers) CreateInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	owner, ok := common.GetOwnerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var input services.InvoiceInput
	if err := c.Bind(&input); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	draft, _ := strconv.ParseBool(c.QueryParam("draft"))
	result, err := h.invoiceService.Create(ctx, owner, &input, draft)
	if err != nil {
		return sendServiceError(c, err, "invoice")
	}

	return c.JSON(http.StatusCreated, result)
}

// GetInvoice handles GET /invoices/:id where id is a UUID or an invoice number
func (h *InvoiceHandlers) GetInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	owner, ok := common.GetOwnerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoice, err := h.invoiceService.Get(ctx, owner, c.Param("id"))
	if err != nil {
		return sendServiceError(c, err, "invoice")
	}

	return c.JSON(http.StatusOK, invoice)
}

// UpdateInvoice handles PUT /invoices/:id
func (h *InvoiceHandlers) UpdateInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	owner, ok := common.GetOwnerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var input services.InvoiceInput
	if err := c.Bind(&input); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	draft, _ := strconv.ParseBool(c.QueryParam("draft"))
	result, err := h.invoiceService.Update(ctx, owner, invoiceID, &input, draft)
	if err != nil {
		return sendServiceError(c, err, "invoice")
	}

	return c.JSON(http.StatusOK, result)
}

// UpdateInvoiceStatus handles PUT /invoices/:id/status
func (h *InvoiceHandlers) UpdateInvoiceStatus(c echo.Context) error {
	ctx := c.Request().Context()

	owner, ok := common.GetOwnerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	invoice, err := h.invoiceService.UpdateStatus(ctx, owner, invoiceID, req.Status)
	if err != nil {
		return sendServiceError(c, err, "invoice")
	}

	return c.JSON(http.StatusOK, invoice)
}

// SetInvoiceImage handles PUT /invoices/:id/images/:kind with a multipart "file"
func (h *InvoiceHandlers) SetInvoiceImage(c echo.Context) error {
	ctx := c.Request().Context()

	owner, ok := common.GetOwnerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	upload, err := formUpload(c, "file")
	if err != nil {
		return common.SendValidationError(c, "file", err.Error())
	}
	if upload == nil {
		return common.SendValidationError(c, "file", "file is required")
	}

	invoice, err := h.invoiceService.SetImage(ctx, owner, invoiceID, c.Param("kind"), upload)
	if err != nil {
		return sendServiceError(c, err, "invoice")
	}

	return c.JSON(http.StatusOK, invoice)
}

// GenerateInvoicePDF handles POST /invoices/:id/pdf
func (h *InvoiceHandlers) GenerateInvoicePDF(c echo.Context) error {
	ctx := c.Request().Context()

	owner, ok := common.GetOwnerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	link, err := h.invoiceService.GeneratePDF(ctx, owner, c.Param("id"))
	if err != nil {
		return sendServiceError(c, err, "invoice")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":    "PDF generated and uploaded successfully",
		"pdf_url":    link.URL,
		"key":        link.Key,
		"expires_at": link.ExpiresAt,
	})
}

// DeleteInvoice handles DELETE /invoices/:id
func (h *InvoiceHandlers) DeleteInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	owner, ok := common.GetOwnerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.invoiceService.Delete(ctx, owner, invoiceID); err != nil {
		return sendServiceError(c, err, "invoice")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Invoice deleted successfully",
	})
}

// AllocateInvoiceNumber handles POST /invoices/number
func (h *InvoiceHandlers) AllocateInvoiceNumber(c echo.Context) error {
	ctx := c.Request().Context()

	if _, ok := common.GetOwnerIDFromContext(ctx); !ok {
		return common.SendUnauthorizedError(c)
	}

	number, err := h.invoiceService.AllocateNumber(ctx)
	if err != nil {
		return sendServiceError(c, err, "invoice number")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"invoice_number": number,
	})
}

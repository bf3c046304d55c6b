package handlers

import (
	"errors"
	"log"
	"net/http"

	"billdesk/internal/common"
	"billdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// AIHandlers turns free text into invoice drafts
type AIHandlers struct {
	extractionService services.ExtractionService
}

func NewAIHandlers(extractionService services.ExtractionService) *AIHandlers {
	return &AIHandlers{extractionService: extractionService}
}

// GenerateInvoice handles POST /ai/invoice. The draft is returned for review
// and never persisted.
func (h *AIHandlers) GenerateInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	if _, ok := common.GetOwnerIDFromContext(ctx); !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	result, err := h.extractionService.Extract(ctx, req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyPrompt):
			return common.SendValidationError(c, "prompt", "Prompt required")
		case errors.Is(err, services.ErrAIUnavailable):
			return common.SendServerError(c, "AI extraction is not configured")
		}
		log.Printf("ERROR: AI extraction failed: %v", err)
		return common.SendUpstreamError(c, "AI generation failed")
	}

	return c.JSON(http.StatusOK, result)
}

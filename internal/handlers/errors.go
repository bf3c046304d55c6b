package handlers

import (
	"errors"
	"log"

	"billdesk/internal/common"
	"billdesk/internal/repositories"
	"billdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// sendServiceError maps a service error onto the standard error responses.
func sendServiceError(c echo.Context, err error, resource string) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return common.SendValidationErrors(c, verr.Messages)
	case errors.Is(err, repositories.ErrNotFound):
		return common.SendNotFoundError(c, resource)
	case errors.Is(err, repositories.ErrDuplicateInvoiceNumber):
		return common.SendConflictError(c, "Invoice number already exists")
	case errors.Is(err, services.ErrProfileExists), errors.Is(err, repositories.ErrDuplicateProfile):
		return common.SendConflictError(c, "Business profile already exists")
	case errors.Is(err, services.ErrForbidden):
		return common.SendForbiddenError(c)
	case errors.Is(err, services.ErrInvalidStatus):
		return common.SendValidationError(c, "status", "Status must be one of draft, sent, paid, unpaid, overdue")
	case errors.Is(err, services.ErrInvalidImageKind):
		return common.SendValidationError(c, "kind", "Kind must be one of logo, stamp, signature")
	}

	log.Printf("ERROR: %s request failed: %v", resource, err)
	return common.SendServerError(c, "Internal server error")
}

// requestError is a malformed request detected before reaching a service.
type requestError struct {
	field   string
	message string
}

func (e *requestError) Error() string {
	if e.field == "" {
		return e.message
	}
	return e.field + ": " + e.message
}

func sendRequestError(c echo.Context, err error) error {
	var rerr *requestError
	if errors.As(err, &rerr) && rerr.field != "" {
		return common.SendValidationError(c, rerr.field, rerr.message)
	}
	return common.SendClientError(c, err.Error())
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"billdesk/internal/common"
	"billdesk/internal/models"
	"billdesk/internal/repositories"
	"billdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// Multipart field names for the branding images.
const (
	logoField      = "logoName"
	stampField     = "stampName"
	signatureField = "signatureNameMeta"
)

// BusinessProfileHandlers handles HTTP requests for business profiles
type BusinessProfileHandlers struct {
	profileService services.BusinessProfileService
}

func NewBusinessProfileHandlers(profileService services.BusinessProfileService) *BusinessProfileHandlers {
	return &BusinessProfileHandlers{profileService: profileService}
}

// GetMyProfile handles GET /business-profile/me. 204 when the caller has none.
func (h *BusinessProfileHandlers) GetMyProfile(c echo.Context) error {
	ctx := c.Request().Context()

	owner, ok := common.GetOwnerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	profile, err := h.profileService.GetMine(ctx, owner)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.NoContent(http.StatusNoContent)
		}
		return sendServiceError(c, err, "business profile")
	}

	return c.JSON(http.StatusOK, profile)
}

// CreateProfile handles POST /business-profile (JSON or multipart)
func (h *BusinessProfileHandlers) CreateProfile(c echo.Context) error {
	ctx := c.Request().Context()

	owner, ok := common.GetOwnerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	patch, uploads, err := parseProfileRequest(c)
	if err != nil {
		return sendRequestError(c, err)
	}

	profile, err := h.profileService.Create(ctx, owner, patch, uploads)
	if err != nil {
		return sendServiceError(c, err, "business profile")
	}

	return c.JSON(http.StatusCreated, profile)
}

// UpdateProfile handles PUT /business-profile/:id
func (h *BusinessProfileHandlers) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()

	owner, ok := common.GetOwnerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	profileID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	patch, uploads, err := parseProfileRequest(c)
	if err != nil {
		return sendRequestError(c, err)
	}

	profile, err := h.profileService.Update(ctx, owner, profileID, patch, uploads)
	if err != nil {
		return sendServiceError(c, err, "business profile")
	}

	return c.JSON(http.StatusOK, profile)
}

// parseProfileRequest reads a profile patch from JSON or multipart form data.
func parseProfileRequest(c echo.Context) (*models.BusinessProfilePatch, services.ProfileUploads, error) {
	var uploads services.ProfileUploads

	if !isMultipart(c) {
		var patch models.BusinessProfilePatch
		if err := c.Bind(&patch); err != nil {
			return nil, uploads, &requestError{message: "Invalid request format"}
		}
		return &patch, uploads, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, uploads, &requestError{message: "Invalid multipart form"}
	}

	value := func(keys ...string) *string {
		for _, key := range keys {
			if v, ok := form.Value[key]; ok && len(v) > 0 {
				return &v[0]
			}
		}
		return nil
	}

	patch := &models.BusinessProfilePatch{
		BusinessName:        value("business_name", "businessName"),
		Email:               value("email"),
		Address:             value("address"),
		Phone:               value("phone"),
		GST:                 value("gst"),
		LogoURL:             value("logo_url", "logoUrl"),
		StampURL:            value("stamp_url", "stampUrl"),
		SignatureURL:        value("signature_url", "signatureUrl"),
		SignatureOwnerName:  value("signature_owner_name", "signatureOwnerName"),
		SignatureOwnerTitle: value("signature_owner_title", "signatureOwnerTitle"),
	}
	if raw := value("default_tax_percent", "defaultTaxPercent"); raw != nil {
		tax, err := strconv.ParseFloat(*raw, 64)
		if err != nil {
			return nil, uploads, &requestError{field: "default_tax_percent", message: "must be a number"}
		}
		patch.DefaultTaxPercent = &tax
	}

	targets := []struct {
		field string
		dst   **services.Upload
	}{
		{logoField, &uploads.Logo},
		{stampField, &uploads.Stamp},
		{signatureField, &uploads.Signature},
	}
	for _, t := range targets {
		upload, err := formUpload(c, t.field)
		if err != nil {
			return nil, uploads, &requestError{field: t.field, message: err.Error()}
		}
		*t.dst = upload
	}

	return patch, uploads, nil
}

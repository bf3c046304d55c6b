package models

import (
	"time"

	"github.com/google/uuid"
)

// BusinessProfile holds the issuer branding an owner prints on invoices.
type BusinessProfile struct {
	ID                  uuid.UUID `json:"id" db:"id"`
	Owner               string    `json:"owner" db:"owner"`
	BusinessName        string    `json:"business_name" db:"business_name"`
	Email               string    `json:"email" db:"email"`
	Address             string    `json:"address" db:"address"`
	Phone               string    `json:"phone" db:"phone"`
	GST                 string    `json:"gst" db:"gst"`
	LogoURL             *string   `json:"logo_url" db:"logo_url"`
	StampURL            *string   `json:"stamp_url" db:"stamp_url"`
	SignatureURL        *string   `json:"signature_url" db:"signature_url"`
	SignatureOwnerName  string    `json:"signature_owner_name" db:"signature_owner_name"`
	SignatureOwnerTitle string    `json:"signature_owner_title" db:"signature_owner_title"`
	DefaultTaxPercent   float64   `json:"default_tax_percent" db:"default_tax_percent"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// BusinessProfilePatch carries a partial profile update. Nil fields are left
// untouched.
type BusinessProfilePatch struct {
	BusinessName        *string  `json:"business_name"`
	Email               *string  `json:"email"`
	Address             *string  `json:"address"`
	Phone               *string  `json:"phone"`
	GST                 *string  `json:"gst"`
	LogoURL             *string  `json:"logo_url"`
	StampURL            *string  `json:"stamp_url"`
	SignatureURL        *string  `json:"signature_url"`
	SignatureOwnerName  *string  `json:"signature_owner_name"`
	SignatureOwnerTitle *string  `json:"signature_owner_title"`
	DefaultTaxPercent   *float64 `json:"default_tax_percent"`
}

// Apply copies every set field of p onto profile.
func (p *BusinessProfilePatch) Apply(profile *BusinessProfile) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&profile.BusinessName, p.BusinessName)
	setString(&profile.Email, p.Email)
	setString(&profile.Address, p.Address)
	setString(&profile.Phone, p.Phone)
	setString(&profile.GST, p.GST)
	setString(&profile.SignatureOwnerName, p.SignatureOwnerName)
	setString(&profile.SignatureOwnerTitle, p.SignatureOwnerTitle)
	if p.LogoURL != nil {
		profile.LogoURL = p.LogoURL
	}
	if p.StampURL != nil {
		profile.StampURL = p.StampURL
	}
	if p.SignatureURL != nil {
		profile.SignatureURL = p.SignatureURL
	}
	if p.DefaultTaxPercent != nil {
		profile.DefaultTaxPercent = *p.DefaultTaxPercent
	}
}

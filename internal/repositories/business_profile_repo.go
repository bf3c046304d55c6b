package repositories

import (
	"context"
	"errors"
	"fmt"

	"billdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BusinessProfileRepository interface {
	Create(ctx context.Context, profile *models.BusinessProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BusinessProfile, error)
	GetByOwner(ctx context.Context, owner string) (*models.BusinessProfile, error)
	Update(ctx context.Context, profile *models.BusinessProfile) error
}

const businessProfileColumns = `id, owner, business_name, email, address, phone, gst, logo_url, stamp_url, signature_url, signature_owner_name, signature_owner_title, default_tax_percent, created_at, updated_at`

type businessProfileRepo struct {
	db DBTX
}

func NewBusinessProfileRepo(db DBTX) BusinessProfileRepository {
	return &businessProfileRepo{db: db}
}

func (r *businessProfileRepo) Create(ctx context.Context, profile *models.BusinessProfile) error {
	query := `
		INSERT INTO business_profiles (id, owner, business_name, email, address, phone, gst, logo_url, stamp_url, signature_url, signature_owner_name, signature_owner_title, default_tax_percent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, profile.ID, profile.Owner, profile.BusinessName, profile.Email, profile.Address,
		profile.Phone, profile.GST, profile.LogoURL, profile.StampURL, profile.SignatureURL,
		profile.SignatureOwnerName, profile.SignatureOwnerTitle, profile.DefaultTaxPercent)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateProfile
		}
		return fmt.Errorf("failed to create business profile: %w", err)
	}
	return nil
}

func (r *businessProfileRepo) getOne(ctx context.Context, query string, arg any) (*models.BusinessProfile, error) {
	profile := &models.BusinessProfile{}
	err := r.db.QueryRow(ctx, query, arg).Scan(&profile.ID, &profile.Owner, &profile.BusinessName, &profile.Email,
		&profile.Address, &profile.Phone, &profile.GST, &profile.LogoURL, &profile.StampURL, &profile.SignatureURL,
		&profile.SignatureOwnerName, &profile.SignatureOwnerTitle, &profile.DefaultTaxPercent,
		&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get business profile: %w", err)
	}
	return profile, nil
}

func (r *businessProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.BusinessProfile, error) {
	return r.getOne(ctx, `SELECT `+businessProfileColumns+` FROM business_profiles WHERE id = $1`, id)
}

func (r *businessProfileRepo) GetByOwner(ctx context.Context, owner string) (*models.BusinessProfile, error) {
	return r.getOne(ctx, `SELECT `+businessProfileColumns+` FROM business_profiles WHERE owner = $1`, owner)
}

func (r *businessProfileRepo) Update(ctx context.Context, profile *models.BusinessProfile) error {
	query := `
		UPDATE business_profiles
		SET business_name = $1, email = $2, address = $3, phone = $4, gst = $5, logo_url = $6, stamp_url = $7, signature_url = $8, signature_owner_name = $9, signature_owner_title = $10, default_tax_percent = $11, updated_at = NOW()
		WHERE owner = $12 AND id = $13
	`
	tag, err := r.db.Exec(ctx, query, profile.BusinessName, profile.Email, profile.Address, profile.Phone,
		profile.GST, profile.LogoURL, profile.StampURL, profile.SignatureURL, profile.SignatureOwnerName,
		profile.SignatureOwnerTitle, profile.DefaultTaxPercent, profile.Owner, profile.ID)
	if err != nil {
		return fmt.Errorf("failed to update business profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

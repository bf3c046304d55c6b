package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"billdesk/internal/models"
	"billdesk/internal/repositories"

	"github.com/google/uuid"
)

// DefaultBusinessName is used when a profile is created without a name.
const DefaultBusinessName = "ABC Solutions"

// ProfileUploads holds the optional branding images sent with a profile.
type ProfileUploads struct {
	Logo      *Upload
	Stamp     *Upload
	Signature *Upload
}

type BusinessProfileService interface {
	Create(ctx context.Context, owner string, patch *models.BusinessProfilePatch, uploads ProfileUploads) (*models.BusinessProfile, error)
	Update(ctx context.Context, owner string, id uuid.UUID, patch *models.BusinessProfilePatch, uploads ProfileUploads) (*models.BusinessProfile, error)
	GetMine(ctx context.Context, owner string) (*models.BusinessProfile, error)
}

type businessProfileService struct {
	repo              repositories.BusinessProfileRepository
	media             MediaStore
	defaultTaxPercent float64
}

func NewBusinessProfileService(repo repositories.BusinessProfileRepository, media MediaStore, defaultTaxPercent float64) BusinessProfileService {
	return &businessProfileService{
		repo:              repo,
		media:             media,
		defaultTaxPercent: defaultTaxPercent,
	}
}

func (s *businessProfileService) Create(ctx context.Context, owner string, patch *models.BusinessProfilePatch, uploads ProfileUploads) (*models.BusinessProfile, error) {
	_, err := s.repo.GetByOwner(ctx, owner)
	if err == nil {
		return nil, ErrProfileExists
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing profile: %w", err)
	}

	now := time.Now().UTC()
	profile := &models.BusinessProfile{
		ID:                uuid.New(),
		Owner:             owner,
		DefaultTaxPercent: s.defaultTaxPercent,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.storeUploads(ctx, patch, uploads); err != nil {
		return nil, err
	}
	patch.Apply(profile)
	trimProfile(profile)
	if profile.BusinessName == "" {
		profile.BusinessName = DefaultBusinessName
	}

	if err := s.repo.Create(ctx, profile); err != nil {
		if errors.Is(err, repositories.ErrDuplicateProfile) {
			return nil, ErrProfileExists
		}
		return nil, err
	}
	return profile, nil
}

func (s *businessProfileService) Update(ctx context.Context, owner string, id uuid.UUID, patch *models.BusinessProfilePatch, uploads ProfileUploads) (*models.BusinessProfile, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile.Owner != owner {
		return nil, ErrForbidden
	}

	if err := s.storeUploads(ctx, patch, uploads); err != nil {
		return nil, err
	}
	patch.Apply(profile)
	trimProfile(profile)
	profile.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *businessProfileService) GetMine(ctx context.Context, owner string) (*models.BusinessProfile, error) {
	return s.repo.GetByOwner(ctx, owner)
}

// storeUploads pushes each present upload to its folder and points the
// matching patch field at the stored URL.
func (s *businessProfileService) storeUploads(ctx context.Context, patch *models.BusinessProfilePatch, uploads ProfileUploads) error {
	targets := []struct {
		upload *Upload
		folder string
		dst    **string
	}{
		{uploads.Logo, FolderLogos, &patch.LogoURL},
		{uploads.Stamp, FolderStamps, &patch.StampURL},
		{uploads.Signature, FolderSignatures, &patch.SignatureURL},
	}

	for _, t := range targets {
		if t.upload == nil {
			continue
		}
		obj, err := s.media.Upload(ctx, t.folder, t.upload.Filename, t.upload.Reader, t.upload.Size, t.upload.ContentType)
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", t.folder, err)
		}
		url := obj.URL
		*t.dst = &url
	}
	return nil
}

func trimProfile(p *models.BusinessProfile) {
	p.BusinessName = strings.TrimSpace(p.BusinessName)
	p.Email = strings.TrimSpace(p.Email)
	p.Address = strings.TrimSpace(p.Address)
	p.Phone = strings.TrimSpace(p.Phone)
	p.GST = strings.TrimSpace(p.GST)
	p.SignatureOwnerName = strings.TrimSpace(p.SignatureOwnerName)
	p.SignatureOwnerTitle = strings.TrimSpace(p.SignatureOwnerTitle)
}

package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sharehub/backend/internal/domain/donation"
	"github.com/sharehub/backend/internal/domain/shared"
	"github.com/sharehub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDonationRepository implements donation.Repository using GORM
type GormDonationRepository struct {
	db *gorm.DB
}

// NewGormDonationRepository creates a new GormDonationRepository
func NewGormDonationRepository(db *gorm.DB) *GormDonationRepository {
	return &GormDonationRepository{db: db}
}

// Create stores a new donation, assigning its ID when unset
func (r *GormDonationRepository) Create(ctx context.Context, d *donation.Donation) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	model := models.DonationModelFromDomain(d)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create donation: %w", err)
	}
	d.CreatedAt = model.CreatedAt
	d.UpdatedAt = model.UpdatedAt
	return nil
}

// FindAll returns every donation in creation order
func (r *GormDonationRepository) FindAll(ctx context.Context) ([]donation.Donation, error) {
	var donationModels []models.DonationModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&donationModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}

	donations := make([]donation.Donation, len(donationModels))
	for i := range donationModels {
		donations[i] = *donationModels[i].ToDomain()
	}
	return donations, nil
}

// FindByID finds a donation by its ID
func (r *GormDonationRepository) FindByID(ctx context.Context, id uuid.UUID) (*donation.Donation, error) {
	model, err := findDonation(r.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Update loads the donation, applies the patch and saves it in one transaction
func (r *GormDonationRepository) Update(ctx context.Context, id uuid.UUID, patch donation.Patch) (*donation.Donation, error) {
	var updated *donation.Donation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := findDonation(tx, id)
		if err != nil {
			return err
		}

		d := model.ToDomain()
		d.Apply(patch)
		model.FromDomain(d)

		if err := tx.Save(model).Error; err != nil {
			return fmt.Errorf("failed to update donation: %w", err)
		}
		updated = model.ToDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the donation and returns it as it was before removal
func (r *GormDonationRepository) Delete(ctx context.Context, id uuid.UUID) (*donation.Donation, error) {
	var deleted *donation.Donation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := findDonation(tx, id)
		if err != nil {
			return err
		}

		result := tx.Delete(&models.DonationModel{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete donation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		deleted = model.ToDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func findDonation(db *gorm.DB, id uuid.UUID) (*models.DonationModel, error) {
	var model models.DonationModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load donation: %w", err)
	}
	return &model, nil
}

// Compile-time interface check
var _ donation.Repository = (*GormDonationRepository)(nil)

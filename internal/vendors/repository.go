package vendors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
)

// Repository wires vendor registry persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new vendor.
func (r *Repository) Create(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error) {
	if vendor.ID == uuid.Nil {
		vendor.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(vendor).Error; err != nil {
		return nil, err
	}
	return vendor, nil
}

// FindByID loads a vendor by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// List returns all vendors ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Vendor, error) {
	var rows []models.Vendor
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves mutated vendor fields.
func (r *Repository) Update(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error) {
	if err := r.db.WithContext(ctx).Save(vendor).Error; err != nil {
		return nil, err
	}
	return vendor, nil
}

// Delete removes the vendor.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Vendor{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

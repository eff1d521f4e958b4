package warehouses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
)

// Repository wires warehouse registry persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new warehouse.
func (r *Repository) Create(ctx context.Context, warehouse *models.Warehouse) (*models.Warehouse, error) {
	if warehouse.ID == uuid.Nil {
		warehouse.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(warehouse).Error; err != nil {
		return nil, err
	}
	return warehouse, nil
}

// FindByID loads a warehouse by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	if err := r.db.WithContext(ctx).First(&warehouse, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

// List returns all warehouses ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Warehouse, error) {
	var rows []models.Warehouse
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves mutated warehouse fields.
func (r *Repository) Update(ctx context.Context, warehouse *models.Warehouse) (*models.Warehouse, error) {
	if err := r.db.WithContext(ctx).Save(warehouse).Error; err != nil {
		return nil, err
	}
	return warehouse, nil
}

// Delete removes the warehouse.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Warehouse{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

package machineproducts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
)

// Repository wires per-machine price override persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new override row.
func (r *Repository) Create(ctx context.Context, row *models.MachineProduct) (*models.MachineProduct, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// FindByID loads an override with its product preloaded.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MachineProduct, error) {
	var row models.MachineProduct
	if err := r.db.WithContext(ctx).
		Preload("Product").
		First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByPair loads the override for a machine/product pair.
func (r *Repository) FindByPair(ctx context.Context, machineID, productID uuid.UUID) (*models.MachineProduct, error) {
	var row models.MachineProduct
	if err := r.db.WithContext(ctx).
		Preload("Product").
		First(&row, "machine_id = ? AND product_id = ?", machineID, productID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByMachine returns all overrides for the machine, products preloaded.
func (r *Repository) ListByMachine(ctx context.Context, machineID uuid.UUID) ([]models.MachineProduct, error) {
	var rows []models.MachineProduct
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("machine_id = ?", machineID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves mutated override fields.
func (r *Repository) Update(ctx context.Context, row *models.MachineProduct) (*models.MachineProduct, error) {
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Delete removes the override row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.MachineProduct{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

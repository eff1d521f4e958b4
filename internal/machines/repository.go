package machines

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
)

// Repository wires machine persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create persists a new machine.
func (r *Repository) Create(ctx context.Context, machine *models.Machine) (*models.Machine, error) {
	if machine.ID == uuid.Nil {
		machine.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(machine).Error; err != nil {
		return nil, err
	}
	return machine, nil
}

// FindByID loads the machine without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Machine, error) {
	var machine models.Machine
	if err := r.db.WithContext(ctx).First(&machine, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &machine, nil
}

// FindByCode loads the machine by its human-facing code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Machine, error) {
	var machine models.Machine
	if err := r.db.WithContext(ctx).First(&machine, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &machine, nil
}

// List returns all machines ordered by code.
func (r *Repository) List(ctx context.Context) ([]models.Machine, error) {
	var rows []models.Machine
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves mutated machine fields.
func (r *Repository) Update(ctx context.Context, machine *models.Machine) (*models.Machine, error) {
	if err := r.db.WithContext(ctx).Save(machine).Error; err != nil {
		return nil, err
	}
	return machine, nil
}

// ErrSlotsAssigned blocks deletion while slots still reference products.
var ErrSlotsAssigned = errors.New("machine has slots with products assigned")

// Delete removes the machine; empty slots cascade at the database level.
// Machines with stocked slots must have their planogram cleared first.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	var assigned int64
	if err := r.db.WithContext(ctx).
		Model(&models.Slot{}).
		Where("machine_id = ? AND product_id IS NOT NULL", id).
		Count(&assigned).Error; err != nil {
		return err
	}
	if assigned > 0 {
		return ErrSlotsAssigned
	}
	result := r.db.WithContext(ctx).Delete(&models.Machine{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

package planogram

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
)

// Repository wires slot persistence helpers.
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

// ListByMachine returns the machine's slots with products preloaded,
// ordered by slot number.
func (r *Repository) ListByMachine(ctx context.Context, machineID uuid.UUID) ([]models.Slot, error) {
	var rows []models.Slot
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("machine_id = ?", machineID).
		Order("slot_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAll returns every provisioned slot with products preloaded.
func (r *Repository) ListAll(ctx context.Context) ([]models.Slot, error) {
	var rows []models.Slot
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Order("machine_id ASC, slot_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID loads a slot with its product preloaded.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Slot, error) {
	var slot models.Slot
	if err := r.db.WithContext(ctx).
		Preload("Product").
		First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

// ExistingNumbers returns the slot numbers already provisioned for the machine.
func (r *Repository) ExistingNumbers(ctx context.Context, machineID uuid.UUID) ([]int, error) {
	var numbers []int
	if err := r.db.WithContext(ctx).
		Model(&models.Slot{}).
		Where("machine_id = ?", machineID).
		Order("slot_number ASC").
		Pluck("slot_number", &numbers).Error; err != nil {
		return nil, err
	}
	return numbers, nil
}

// CreateBatch inserts the provided slots.
func (r *Repository) CreateBatch(ctx context.Context, slots []models.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	for i := range slots {
		if slots[i].ID == uuid.Nil {
			slots[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&slots).Error
}

// Update saves mutated slot fields.
func (r *Repository) Update(ctx context.Context, slot *models.Slot) (*models.Slot, error) {
	if err := r.db.WithContext(ctx).Save(slot).Error; err != nil {
		return nil, err
	}
	return slot, nil
}

// FindByNumber loads a machine's slot by its position, product preloaded.
func (r *Repository) FindByNumber(ctx context.Context, machineID uuid.UUID, slotNumber int) (*models.Slot, error) {
	var slot models.Slot
	if err := r.db.WithContext(ctx).
		Preload("Product").
		First(&slot, "machine_id = ? AND slot_number = ?", machineID, slotNumber).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

// FirstEmptyByMachine returns the lowest-numbered slot with no product
// assigned, or gorm.ErrRecordNotFound when the machine is full.
func (r *Repository) FirstEmptyByMachine(ctx context.Context, machineID uuid.UUID) (*models.Slot, error) {
	var slot models.Slot
	if err := r.db.WithContext(ctx).
		Where("machine_id = ? AND product_id IS NULL", machineID).
		Order("slot_number ASC").
		First(&slot).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

// FindAssigned returns the machine's slot holding the given product, or
// gorm.ErrRecordNotFound when the product is not assigned there.
func (r *Repository) FindAssigned(ctx context.Context, machineID, productID uuid.UUID) (*models.Slot, error) {
	var slot models.Slot
	if err := r.db.WithContext(ctx).
		Where("machine_id = ? AND product_id = ?", machineID, productID).
		Order("slot_number ASC").
		First(&slot).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Slot is one addressable dispensing position inside a machine. Rows are
// provisioned once and never physically removed; "deleting" a slot clears
// its product reference and quantity instead.
type Slot struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	MachineID   uuid.UUID  `gorm:"column:machine_id;type:uuid;not null;uniqueIndex:idx_slots_machine_number"`
	SlotNumber  int        `gorm:"column:slot_number;not null;uniqueIndex:idx_slots_machine_number"`
	ProductID   *uuid.UUID `gorm:"column:product_id;type:uuid"`
	Quantity    int        `gorm:"column:quantity;not null;default:0"`
	MaxCapacity int        `gorm:"column:max_capacity;not null;default:10"`
	Product     *Product   `gorm:"foreignKey:ProductID"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

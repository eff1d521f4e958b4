package models

import (
	"time"

	"github.com/google/uuid"
)

// Sale is one historical dispense/purchase row. Rows are written by the
// field pipeline; this service only reads them for reporting.
type Sale struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	MachineID  uuid.UUID `gorm:"column:machine_id;type:uuid;not null"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	SlotNumber int       `gorm:"column:slot_number;not null"`
	Quantity   int       `gorm:"column:quantity;not null;default:1"`
	SoldAt     time.Time `gorm:"column:sold_at;not null"`
	Machine    *Machine  `gorm:"foreignKey:MachineID"`
	Product    *Product  `gorm:"foreignKey:ProductID"`
}

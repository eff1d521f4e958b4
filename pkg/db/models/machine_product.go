package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MachineProduct is a per-machine price override for a product, letting the
// same product sell at different prices on different machines.
type MachineProduct struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	MachineID uuid.UUID       `gorm:"column:machine_id;type:uuid;not null;uniqueIndex:idx_machine_products_pair"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_machine_products_pair"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,3);not null"`
	Active    bool            `gorm:"column:active;not null;default:true"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog item. Price is the base price; per-machine
// overrides live in MachineProduct.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,3);not null"`
	ImageURL  *string         `gorm:"column:image_url"`
	Category  *string         `gorm:"column:category"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Vendor is a supplier registry entry.
type Vendor struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name         string         `gorm:"column:name;not null"`
	ContactName  *string        `gorm:"column:contact_name"`
	Phone        *string        `gorm:"column:phone"`
	Email        *string        `gorm:"column:email"`
	ProductLines pq.StringArray `gorm:"column:product_lines;type:text[]"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

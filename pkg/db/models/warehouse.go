package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Warehouse is a stocking location registry entry.
type Warehouse struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name            string         `gorm:"column:name;not null"`
	Location        string         `gorm:"column:location;not null"`
	ManagementTypes pq.StringArray `gorm:"column:management_types;type:text[]"`
	WorkingDays     pq.StringArray `gorm:"column:working_days;type:text[]"`
	Capacity        int            `gorm:"column:capacity;not null;default:0"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

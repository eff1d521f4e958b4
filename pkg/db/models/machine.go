package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aldousari/vendpoint-backend/pkg/enums"
)

// Machine represents one physical vending unit.
type Machine struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Code      string              `gorm:"column:code;not null;uniqueIndex:idx_machines_code"`
	Location  string              `gorm:"column:location;not null"`
	Status    enums.MachineStatus `gorm:"column:status;not null;default:'active'"`
	Slots     []Slot              `gorm:"foreignKey:MachineID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

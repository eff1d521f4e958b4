package planogram

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
)

// SlotProductDTO is the compact product view embedded in slot payloads.
type SlotProductDTO struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL *string         `json:"imageUrl,omitempty"`
}

// SlotDTO is the public representation of one dispensing position.
type SlotDTO struct {
	ID          uuid.UUID       `json:"id"`
	MachineID   uuid.UUID       `json:"machineId"`
	SlotNumber  int             `json:"slotNumber"`
	ProductID   *uuid.UUID      `json:"productId,omitempty"`
	Product     *SlotProductDTO `json:"product,omitempty"`
	Quantity    int             `json:"quantity"`
	MaxCapacity int             `json:"maxCapacity"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// LayoutDTO is a machine's full slot grid.
type LayoutDTO struct {
	MachineID  uuid.UUID `json:"machineId"`
	LayoutSize int       `json:"layoutSize"`
	Slots      []SlotDTO `json:"slots"`
}

// EnsureResultDTO reports how many slots an ensure pass provisioned.
type EnsureResultDTO struct {
	MachineID  uuid.UUID `json:"machineId"`
	LayoutSize int       `json:"layoutSize"`
	Created    int       `json:"created"`
	Existing   int       `json:"existing"`
}

// StockStatus labels a slot's inventory condition.
type StockStatus string

const (
	StockStatusOK  StockStatus = "ok"
	StockStatusLow StockStatus = "low"
	StockStatusOut StockStatus = "out"
)

// StockEntryDTO is one row of the stock report.
type StockEntryDTO struct {
	MachineID   uuid.UUID   `json:"machineId"`
	SlotNumber  int         `json:"slotNumber"`
	ProductID   uuid.UUID   `json:"productId"`
	ProductName string      `json:"productName"`
	Quantity    int         `json:"quantity"`
	MaxCapacity int         `json:"maxCapacity"`
	FillPercent float64     `json:"fillPercent"`
	Status      StockStatus `json:"status"`
}

// StockReportDTO summarizes inventory condition across assigned slots.
type StockReportDTO struct {
	TotalAssigned int             `json:"totalAssigned"`
	LowStock      int             `json:"lowStock"`
	OutOfStock    int             `json:"outOfStock"`
	Entries       []StockEntryDTO `json:"entries"`
}

func toSlotDTO(s *models.Slot) *SlotDTO {
	if s == nil {
		return nil
	}
	dto := &SlotDTO{
		ID:          s.ID,
		MachineID:   s.MachineID,
		SlotNumber:  s.SlotNumber,
		ProductID:   s.ProductID,
		Quantity:    s.Quantity,
		MaxCapacity: s.MaxCapacity,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.Product != nil {
		dto.Product = &SlotProductDTO{
			ID:       s.Product.ID,
			Name:     s.Product.Name,
			Price:    s.Product.Price,
			ImageURL: s.Product.ImageURL,
		}
	}
	return dto
}

func toSlotDTOs(rows []models.Slot) []SlotDTO {
	out := make([]SlotDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toSlotDTO(&rows[i]))
	}
	return out
}

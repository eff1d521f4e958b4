package machines

import (
	"time"

	"github.com/google/uuid"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
)

// MachineDTO is the public representation of a machine.
type MachineDTO struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Location  string    `json:"location"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toDTO(m *models.Machine) *MachineDTO {
	if m == nil {
		return nil
	}
	return &MachineDTO{
		ID:        m.ID,
		Code:      m.Code,
		Location:  m.Location,
		Status:    m.Status.String(),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toDTOs(rows []models.Machine) []MachineDTO {
	out := make([]MachineDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out
}

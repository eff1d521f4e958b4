package dispense

import (
	"time"

	"github.com/google/uuid"
)

// StatusDTO describes the current relay session.
type StatusDTO struct {
	State        string     `json:"state"`
	MachineID    *uuid.UUID `json:"machineId,omitempty"`
	MachineCode  string     `json:"machineCode,omitempty"`
	InFlightSlot *int       `json:"inFlightSlot,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
}

// CommandDTO echoes a dispense command that was written to the relay.
type CommandDTO struct {
	MachineID   uuid.UUID `json:"machineId"`
	MachineCode string    `json:"machineCode"`
	SlotNumber  int       `json:"slotNumber"`
	SentAt      time.Time `json:"sentAt"`
}

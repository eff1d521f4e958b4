package enums

import "fmt"

// MachineStatus represents the lifecycle states of a vending machine.
type MachineStatus string

const (
	MachineStatusActive      MachineStatus = "active"
	MachineStatusInactive    MachineStatus = "inactive"
	MachineStatusMaintenance MachineStatus = "maintenance"
)

var validMachineStatuses = []MachineStatus{
	MachineStatusActive,
	MachineStatusInactive,
	MachineStatusMaintenance,
}

// String implements fmt.Stringer.
func (s MachineStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known MachineStatus.
func (s MachineStatus) IsValid() bool {
	for _, candidate := range validMachineStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseMachineStatus converts raw input into a MachineStatus.
func ParseMachineStatus(value string) (MachineStatus, error) {
	for _, candidate := range validMachineStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid machine status %q", value)
}

package assignments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/config"
	"github.com/aldousari/vendpoint-backend/pkg/db/models"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
	"github.com/aldousari/vendpoint-backend/pkg/logger"
)

// Action describes what the bulk pass did to one machine.
type Action string

const (
	ActionAssigned   Action = "assigned"
	ActionUnassigned Action = "unassigned"
	ActionSkipped    Action = "skipped"
	ActionFailed     Action = "failed"
)

// MachineResultDTO is the per-machine outcome of a bulk toggle.
type MachineResultDTO struct {
	MachineID  uuid.UUID `json:"machineId"`
	Action     Action    `json:"action"`
	SlotNumber int       `json:"slotNumber,omitempty"`
	Reason     string    `json:"reason,omitempty"`
}

// BulkResultDTO summarizes a bulk toggle pass.
type BulkResultDTO struct {
	ProductID  uuid.UUID          `json:"productId"`
	Assigned   int                `json:"assigned"`
	Unassigned int                `json:"unassigned"`
	Skipped    int                `json:"skipped"`
	Failed     int                `json:"failed"`
	Results    []MachineResultDTO `json:"results"`
}

// Service toggles product assignment across a set of machines.
type Service interface {
	Apply(ctx context.Context, productID uuid.UUID, machineIDs []uuid.UUID) (*BulkResultDTO, error)
}

type slotStore interface {
	FirstEmptyByMachine(ctx context.Context, machineID uuid.UUID) (*models.Slot, error)
	FindAssigned(ctx context.Context, machineID, productID uuid.UUID) (*models.Slot, error)
	Update(ctx context.Context, slot *models.Slot) (*models.Slot, error)
}

type machineFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Machine, error)
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	slots    slotStore
	machines machineFinder
	products productFinder
	logg     *logger.Logger
	cfg      config.PlanogramConfig
}

// NewService constructs a bulk assignment service.
func NewService(slots slotStore, machines machineFinder, products productFinder, logg *logger.Logger, cfg config.PlanogramConfig) (Service, error) {
	if slots == nil {
		return nil, fmt.Errorf("slot repository required")
	}
	if machines == nil {
		return nil, fmt.Errorf("machine repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if cfg.BulkAssignQty <= 0 {
		return nil, fmt.Errorf("bulk assign quantity must be positive")
	}
	return &service{
		slots:    slots,
		machines: machines,
		products: products,
		logg:     logg,
		cfg:      cfg,
	}, nil
}

// Apply toggles the product on every selected machine: machines without the
// product get it assigned to their lowest empty slot, machines that already
// carry it get that slot cleared. Machines are processed independently; one
// failure does not roll back the others.
func (s *service) Apply(ctx context.Context, productID uuid.UUID, machineIDs []uuid.UUID) (*BulkResultDTO, error) {
	if len(machineIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one machine is required")
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	result := &BulkResultDTO{ProductID: productID, Results: make([]MachineResultDTO, 0, len(machineIDs))}
	var errs error

	for _, machineID := range machineIDs {
		outcome := s.applyOne(ctx, productID, machineID)
		switch outcome.Action {
		case ActionAssigned:
			result.Assigned++
		case ActionUnassigned:
			result.Unassigned++
		case ActionSkipped:
			result.Skipped++
		case ActionFailed:
			result.Failed++
			errs = multierr.Append(errs, fmt.Errorf("machine %s: %s", machineID, outcome.Reason))
		}
		result.Results = append(result.Results, outcome)
	}

	if errs != nil && s.logg != nil {
		ctx = s.logg.WithField(ctx, "product_id", productID.String())
		s.logg.Error(ctx, "bulk assignment completed with failures", errs)
	}
	return result, nil
}

func (s *service) applyOne(ctx context.Context, productID, machineID uuid.UUID) MachineResultDTO {
	outcome := MachineResultDTO{MachineID: machineID}

	if _, err := s.machines.FindByID(ctx, machineID); err != nil {
		outcome.Action = ActionFailed
		if errors.Is(err, gorm.ErrRecordNotFound) {
			outcome.Reason = "machine not found"
		} else {
			outcome.Reason = err.Error()
		}
		return outcome
	}

	assigned, err := s.slots.FindAssigned(ctx, machineID, productID)
	switch {
	case err == nil:
		// already carried, toggle off
		assigned.ProductID = nil
		assigned.Product = nil
		assigned.Quantity = 0
		if _, updErr := s.slots.Update(ctx, assigned); updErr != nil {
			outcome.Action = ActionFailed
			outcome.Reason = updErr.Error()
			return outcome
		}
		outcome.Action = ActionUnassigned
		outcome.SlotNumber = assigned.SlotNumber
		return outcome

	case errors.Is(err, gorm.ErrRecordNotFound):
		empty, findErr := s.slots.FirstEmptyByMachine(ctx, machineID)
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			outcome.Action = ActionSkipped
			outcome.Reason = "no empty slots"
			return outcome
		}
		if findErr != nil {
			outcome.Action = ActionFailed
			outcome.Reason = findErr.Error()
			return outcome
		}

		qty := s.cfg.BulkAssignQty
		if qty > empty.MaxCapacity {
			qty = empty.MaxCapacity
		}
		empty.ProductID = &productID
		empty.Quantity = qty
		if _, updErr := s.slots.Update(ctx, empty); updErr != nil {
			outcome.Action = ActionFailed
			outcome.Reason = updErr.Error()
			return outcome
		}
		outcome.Action = ActionAssigned
		outcome.SlotNumber = empty.SlotNumber
		return outcome

	default:
		outcome.Action = ActionFailed
		outcome.Reason = err.Error()
		return outcome
	}
}

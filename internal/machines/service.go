package machines

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/db"
	"github.com/aldousari/vendpoint-backend/pkg/db/models"
	"github.com/aldousari/vendpoint-backend/pkg/enums"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
)

// Service exposes machine registry operations.
type Service interface {
	CreateMachine(ctx context.Context, input CreateMachineInput) (*MachineDTO, error)
	GetMachine(ctx context.Context, id uuid.UUID) (*MachineDTO, error)
	ListMachines(ctx context.Context) ([]MachineDTO, error)
	UpdateMachine(ctx context.Context, id uuid.UUID, input UpdateMachineInput) (*MachineDTO, error)
	DeleteMachine(ctx context.Context, id uuid.UUID) error
}

// CreateMachineInput holds the validated payload to register a machine.
type CreateMachineInput struct {
	Code     string
	Location string
	Status   *string
}

// UpdateMachineInput holds optional mutation values for a machine.
type UpdateMachineInput struct {
	Code     *string
	Location *string
	Status   *string
}

type machineStore interface {
	Create(ctx context.Context, machine *models.Machine) (*models.Machine, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Machine, error)
	List(ctx context.Context) ([]models.Machine, error)
	Update(ctx context.Context, machine *models.Machine) (*models.Machine, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo machineStore
}

// NewService constructs a machine service instance.
func NewService(repo machineStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("machine repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateMachine(ctx context.Context, input CreateMachineInput) (*MachineDTO, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "machine code is required")
	}

	status := enums.MachineStatusActive
	if input.Status != nil {
		parsed, err := enums.ParseMachineStatus(*input.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid machine status")
		}
		status = parsed
	}

	machine := &models.Machine{
		Code:     code,
		Location: strings.TrimSpace(input.Location),
		Status:   status,
	}

	created, err := s.repo.Create(ctx, machine)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "machine code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create machine")
	}
	return toDTO(created), nil
}

func (s *service) GetMachine(ctx context.Context, id uuid.UUID) (*MachineDTO, error) {
	machine, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "machine not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load machine")
	}
	return toDTO(machine), nil
}

func (s *service) ListMachines(ctx context.Context) ([]MachineDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list machines")
	}
	return toDTOs(rows), nil
}

func (s *service) UpdateMachine(ctx context.Context, id uuid.UUID, input UpdateMachineInput) (*MachineDTO, error) {
	machine, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "machine not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load machine")
	}

	if input.Code != nil {
		code := strings.TrimSpace(*input.Code)
		if code == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "machine code cannot be empty")
		}
		machine.Code = code
	}
	if input.Location != nil {
		machine.Location = strings.TrimSpace(*input.Location)
	}
	if input.Status != nil {
		status, parseErr := enums.ParseMachineStatus(*input.Status)
		if parseErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid machine status")
		}
		machine.Status = status
	}

	updated, err := s.repo.Update(ctx, machine)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "machine code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update machine")
	}
	return toDTO(updated), nil
}

func (s *service) DeleteMachine(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "machine not found")
		}
		if errors.Is(err, ErrSlotsAssigned) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "clear the machine's planogram before deleting it")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete machine")
	}
	return nil
}

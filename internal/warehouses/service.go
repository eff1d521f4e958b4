package warehouses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
)

// WarehouseDTO is the public representation of a stocking location.
type WarehouseDTO struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Location        string    `json:"location"`
	ManagementTypes []string  `json:"managementTypes"`
	WorkingDays     []string  `json:"workingDays"`
	Capacity        int       `json:"capacity"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CreateWarehouseInput holds the validated payload to register a warehouse.
type CreateWarehouseInput struct {
	Name            string
	Location        string
	ManagementTypes []string
	WorkingDays     []string
	Capacity        int
}

// UpdateWarehouseInput holds optional mutation values for a warehouse.
type UpdateWarehouseInput struct {
	Name            *string
	Location        *string
	ManagementTypes *[]string
	WorkingDays     *[]string
	Capacity        *int
}

// Service exposes the warehouse registry operations.
type Service interface {
	CreateWarehouse(ctx context.Context, input CreateWarehouseInput) (*WarehouseDTO, error)
	GetWarehouse(ctx context.Context, id uuid.UUID) (*WarehouseDTO, error)
	ListWarehouses(ctx context.Context) ([]WarehouseDTO, error)
	UpdateWarehouse(ctx context.Context, id uuid.UUID, input UpdateWarehouseInput) (*WarehouseDTO, error)
	DeleteWarehouse(ctx context.Context, id uuid.UUID) error
}

type warehouseStore interface {
	Create(ctx context.Context, warehouse *models.Warehouse) (*models.Warehouse, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	List(ctx context.Context) ([]models.Warehouse, error)
	Update(ctx context.Context, warehouse *models.Warehouse) (*models.Warehouse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo warehouseStore
}

// NewService constructs a warehouse service instance.
func NewService(repo warehouseStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("warehouse repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateWarehouse(ctx context.Context, input CreateWarehouseInput) (*WarehouseDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse name is required")
	}
	if input.Capacity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "capacity cannot be negative")
	}

	warehouse := &models.Warehouse{
		Name:            name,
		Location:        strings.TrimSpace(input.Location),
		ManagementTypes: pq.StringArray(input.ManagementTypes),
		WorkingDays:     pq.StringArray(input.WorkingDays),
		Capacity:        input.Capacity,
	}

	created, err := s.repo.Create(ctx, warehouse)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create warehouse")
	}
	return toDTO(created), nil
}

func (s *service) GetWarehouse(ctx context.Context, id uuid.UUID) (*WarehouseDTO, error) {
	warehouse, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse")
	}
	return toDTO(warehouse), nil
}

func (s *service) ListWarehouses(ctx context.Context) ([]WarehouseDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list warehouses")
	}
	out := make([]WarehouseDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) UpdateWarehouse(ctx context.Context, id uuid.UUID, input UpdateWarehouseInput) (*WarehouseDTO, error) {
	warehouse, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse name cannot be empty")
		}
		warehouse.Name = name
	}
	if input.Location != nil {
		warehouse.Location = strings.TrimSpace(*input.Location)
	}
	if input.ManagementTypes != nil {
		warehouse.ManagementTypes = pq.StringArray(*input.ManagementTypes)
	}
	if input.WorkingDays != nil {
		warehouse.WorkingDays = pq.StringArray(*input.WorkingDays)
	}
	if input.Capacity != nil {
		if *input.Capacity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "capacity cannot be negative")
		}
		warehouse.Capacity = *input.Capacity
	}

	updated, err := s.repo.Update(ctx, warehouse)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update warehouse")
	}
	return toDTO(updated), nil
}

func (s *service) DeleteWarehouse(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete warehouse")
	}
	return nil
}

func toDTO(warehouse *models.Warehouse) *WarehouseDTO {
	if warehouse == nil {
		return nil
	}
	return &WarehouseDTO{
		ID:              warehouse.ID,
		Name:            warehouse.Name,
		Location:        warehouse.Location,
		ManagementTypes: []string(warehouse.ManagementTypes),
		WorkingDays:     []string(warehouse.WorkingDays),
		Capacity:        warehouse.Capacity,
		CreatedAt:       warehouse.CreatedAt,
		UpdatedAt:       warehouse.UpdatedAt,
	}
}

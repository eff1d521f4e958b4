package machineproducts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/db"
	"github.com/aldousari/vendpoint-backend/pkg/db/models"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
)

// OverrideDTO is the public representation of a per-machine price override.
type OverrideDTO struct {
	ID          uuid.UUID       `json:"id"`
	MachineID   uuid.UUID       `json:"machineId"`
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// SetOverrideInput holds the values to create or update an override.
type SetOverrideInput struct {
	Price  decimal.Decimal
	Active *bool
}

// Service manages per-machine pricing overrides.
type Service interface {
	SetOverride(ctx context.Context, machineID, productID uuid.UUID, input SetOverrideInput) (*OverrideDTO, error)
	ListOverrides(ctx context.Context, machineID uuid.UUID) ([]OverrideDTO, error)
	RemoveOverride(ctx context.Context, machineID, productID uuid.UUID) error
	EffectivePrice(ctx context.Context, machineID, productID uuid.UUID) (decimal.Decimal, error)
}

type overrideStore interface {
	Create(ctx context.Context, row *models.MachineProduct) (*models.MachineProduct, error)
	FindByPair(ctx context.Context, machineID, productID uuid.UUID) (*models.MachineProduct, error)
	ListByMachine(ctx context.Context, machineID uuid.UUID) ([]models.MachineProduct, error)
	Update(ctx context.Context, row *models.MachineProduct) (*models.MachineProduct, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type machineFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Machine, error)
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     overrideStore
	machines machineFinder
	products productFinder
}

// NewService constructs a machine product service.
func NewService(repo overrideStore, machines machineFinder, products productFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("override repository required")
	}
	if machines == nil {
		return nil, fmt.Errorf("machine repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, machines: machines, products: products}, nil
}

// SetOverride upserts the price override for a machine/product pair.
func (s *service) SetOverride(ctx context.Context, machineID, productID uuid.UUID, input SetOverrideInput) (*OverrideDTO, error) {
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "override price cannot be negative")
	}
	if err := s.ensurePair(ctx, machineID, productID); err != nil {
		return nil, err
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	existing, err := s.repo.FindByPair(ctx, machineID, productID)
	switch {
	case err == nil:
		existing.Price = input.Price
		existing.Active = active
		updated, updErr := s.repo.Update(ctx, existing)
		if updErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, updErr, "update override")
		}
		return toDTO(updated), nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		created, createErr := s.repo.Create(ctx, &models.MachineProduct{
			MachineID: machineID,
			ProductID: productID,
			Price:     input.Price,
			Active:    active,
		})
		if createErr != nil {
			if db.IsUniqueViolation(createErr, "") {
				return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, createErr, "override already exists")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create override")
		}
		return toDTO(created), nil

	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load override")
	}
}

func (s *service) ListOverrides(ctx context.Context, machineID uuid.UUID) ([]OverrideDTO, error) {
	if _, err := s.machines.FindByID(ctx, machineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "machine not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load machine")
	}

	rows, err := s.repo.ListByMachine(ctx, machineID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overrides")
	}
	out := make([]OverrideDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) RemoveOverride(ctx context.Context, machineID, productID uuid.UUID) error {
	existing, err := s.repo.FindByPair(ctx, machineID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "override not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load override")
	}
	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete override")
	}
	return nil
}

// EffectivePrice resolves the price a machine charges for a product: the
// active override when present, otherwise the catalog base price.
func (s *service) EffectivePrice(ctx context.Context, machineID, productID uuid.UUID) (decimal.Decimal, error) {
	override, err := s.repo.FindByPair(ctx, machineID, productID)
	if err == nil && override.Active {
		return override.Price, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load override")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product.Price, nil
}

func (s *service) ensurePair(ctx context.Context, machineID, productID uuid.UUID) error {
	if _, err := s.machines.FindByID(ctx, machineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "machine not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load machine")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return nil
}

func toDTO(row *models.MachineProduct) *OverrideDTO {
	if row == nil {
		return nil
	}
	dto := &OverrideDTO{
		ID:        row.ID,
		MachineID: row.MachineID,
		ProductID: row.ProductID,
		Price:     row.Price,
		Active:    row.Active,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.Product != nil {
		dto.ProductName = row.Product.Name
	}
	return dto
}

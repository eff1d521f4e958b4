package planogram

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/config"
	"github.com/aldousari/vendpoint-backend/pkg/db"
	"github.com/aldousari/vendpoint-backend/pkg/db/models"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
)

// lowStockRatio flags slots holding less than this share of capacity.
const lowStockRatio = 0.3

// Service exposes the slot grid operations for a machine.
type Service interface {
	GetLayout(ctx context.Context, machineID uuid.UUID) (*LayoutDTO, error)
	EnsureLayout(ctx context.Context, machineID uuid.UUID) (*EnsureResultDTO, error)
	UpdateSlot(ctx context.Context, slotID uuid.UUID, input UpdateSlotInput) (*SlotDTO, error)
	ClearSlot(ctx context.Context, slotID uuid.UUID) (*SlotDTO, error)
	StockReport(ctx context.Context, machineID *uuid.UUID) (*StockReportDTO, error)
}

// UpdateSlotInput holds the mutation values for one slot. ClearProduct wins
// over ProductID when both are set.
type UpdateSlotInput struct {
	ProductID    *uuid.UUID
	ClearProduct bool
	Quantity     *int
	MaxCapacity  *int
}

type machineFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Machine, error)
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     *Repository
	machines machineFinder
	products productFinder
	tx       txRunner
	cfg      config.PlanogramConfig
}

// NewService constructs a planogram service instance.
func NewService(repo *Repository, machines machineFinder, products productFinder, tx txRunner, cfg config.PlanogramConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("slot repository required")
	}
	if machines == nil {
		return nil, fmt.Errorf("machine repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cfg.LayoutSize <= 0 {
		return nil, fmt.Errorf("layout size must be positive")
	}
	return &service{
		repo:     repo,
		machines: machines,
		products: products,
		tx:       tx,
		cfg:      cfg,
	}, nil
}

func (s *service) GetLayout(ctx context.Context, machineID uuid.UUID) (*LayoutDTO, error) {
	if err := s.ensureMachine(ctx, machineID); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByMachine(ctx, machineID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list slots")
	}

	return &LayoutDTO{
		MachineID:  machineID,
		LayoutSize: s.cfg.LayoutSize,
		Slots:      toSlotDTOs(rows),
	}, nil
}

// EnsureLayout provisions any missing slot rows up to the configured layout
// size. The pass is all-or-nothing: either every missing slot is created or
// none are.
func (s *service) EnsureLayout(ctx context.Context, machineID uuid.UUID) (*EnsureResultDTO, error) {
	if err := s.ensureMachine(ctx, machineID); err != nil {
		return nil, err
	}

	result := &EnsureResultDTO{MachineID: machineID, LayoutSize: s.cfg.LayoutSize}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.ExistingNumbers(ctx, machineID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inspect slot grid")
		}
		present := make(map[int]bool, len(existing))
		for _, n := range existing {
			present[n] = true
		}
		result.Existing = len(existing)

		var missing []models.Slot
		for number := 1; number <= s.cfg.LayoutSize; number++ {
			if present[number] {
				continue
			}
			missing = append(missing, models.Slot{
				MachineID:   machineID,
				SlotNumber:  number,
				Quantity:    0,
				MaxCapacity: s.cfg.DefaultCapacity,
			})
		}
		if err := repo.CreateBatch(ctx, missing); err != nil {
			return provisionError(err)
		}
		result.Created = len(missing)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// provisionError maps a lost slot-number insert race to a retryable
// conflict; anything else is a store failure.
func provisionError(err error) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "slot grid changed concurrently")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provision slots")
}

func (s *service) UpdateSlot(ctx context.Context, slotID uuid.UUID, input UpdateSlotInput) (*SlotDTO, error) {
	slot, err := s.loadSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}

	if input.MaxCapacity != nil {
		if *input.MaxCapacity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max capacity must be at least 1")
		}
		slot.MaxCapacity = *input.MaxCapacity
	}

	switch {
	case input.ClearProduct:
		slot.ProductID = nil
		slot.Product = nil
		slot.Quantity = 0
	case input.ProductID != nil:
		product, err := s.products.FindByID(ctx, *input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "product does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		slot.ProductID = &product.ID
		slot.Product = product
	}

	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
		}
		if *input.Quantity > 0 && slot.ProductID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot stock an empty slot")
		}
		slot.Quantity = *input.Quantity
	}

	if slot.Quantity > slot.MaxCapacity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds slot capacity")
	}

	updated, err := s.repo.Update(ctx, slot)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update slot")
	}
	return toSlotDTO(updated), nil
}

// ClearSlot detaches the product and zeroes the quantity. The slot row
// itself stays in place.
func (s *service) ClearSlot(ctx context.Context, slotID uuid.UUID) (*SlotDTO, error) {
	slot, err := s.loadSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}

	slot.ProductID = nil
	slot.Product = nil
	slot.Quantity = 0

	updated, err := s.repo.Update(ctx, slot)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear slot")
	}
	return toSlotDTO(updated), nil
}

func (s *service) StockReport(ctx context.Context, machineID *uuid.UUID) (*StockReportDTO, error) {
	var (
		rows []models.Slot
		err  error
	)
	if machineID != nil {
		if err := s.ensureMachine(ctx, *machineID); err != nil {
			return nil, err
		}
		rows, err = s.repo.ListByMachine(ctx, *machineID)
	} else {
		rows, err = s.repo.ListAll(ctx)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list slots")
	}

	report := &StockReportDTO{Entries: []StockEntryDTO{}}
	for i := range rows {
		slot := &rows[i]
		if slot.ProductID == nil {
			continue
		}
		report.TotalAssigned++

		entry := StockEntryDTO{
			MachineID:   slot.MachineID,
			SlotNumber:  slot.SlotNumber,
			ProductID:   *slot.ProductID,
			Quantity:    slot.Quantity,
			MaxCapacity: slot.MaxCapacity,
			Status:      StockStatusOK,
		}
		if slot.Product != nil {
			entry.ProductName = slot.Product.Name
		}
		if slot.MaxCapacity > 0 {
			entry.FillPercent = float64(slot.Quantity) / float64(slot.MaxCapacity) * 100
		}

		switch {
		case slot.Quantity == 0:
			entry.Status = StockStatusOut
			report.OutOfStock++
		case float64(slot.Quantity) < lowStockRatio*float64(slot.MaxCapacity):
			entry.Status = StockStatusLow
			report.LowStock++
		}

		report.Entries = append(report.Entries, entry)
	}
	return report, nil
}

func (s *service) ensureMachine(ctx context.Context, machineID uuid.UUID) error {
	if _, err := s.machines.FindByID(ctx, machineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "machine not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load machine")
	}
	return nil
}

func (s *service) loadSlot(ctx context.Context, slotID uuid.UUID) (*models.Slot, error) {
	slot, err := s.repo.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "slot not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load slot")
	}
	return slot, nil
}

package assignments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/internal/machines"
	"github.com/aldousari/vendpoint-backend/internal/planogram"
	"github.com/aldousari/vendpoint-backend/internal/products"
	"github.com/aldousari/vendpoint-backend/pkg/config"
	"github.com/aldousari/vendpoint-backend/pkg/db/models"
	"github.com/aldousari/vendpoint-backend/pkg/enums"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:assignments_test?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.Machine{}, &models.Slot{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		conn.Exec("DELETE FROM slots")
		conn.Exec("DELETE FROM machines")
		conn.Exec("DELETE FROM products")
	})
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(
		planogram.NewRepository(conn),
		machines.NewRepository(conn),
		products.NewRepository(conn),
		nil,
		config.PlanogramConfig{LayoutSize: 3, DefaultCapacity: 10, BulkAssignQty: 5},
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func mustCreateMachineWithSlots(t *testing.T, conn *gorm.DB, code string, slotCount int) *models.Machine {
	t.Helper()
	machine := &models.Machine{ID: uuid.New(), Code: code, Status: enums.MachineStatusActive}
	if err := conn.Create(machine).Error; err != nil {
		t.Fatalf("create machine: %v", err)
	}
	for n := 1; n <= slotCount; n++ {
		slot := &models.Slot{
			ID:          uuid.New(),
			MachineID:   machine.ID,
			SlotNumber:  n,
			MaxCapacity: 10,
		}
		if err := conn.Create(slot).Error; err != nil {
			t.Fatalf("create slot %d: %v", n, err)
		}
	}
	return machine
}

func mustCreateProduct(t *testing.T, conn *gorm.DB, name string) *models.Product {
	t.Helper()
	product := &models.Product{ID: uuid.New(), Name: name, Price: decimal.NewFromInt(2)}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func slotFor(t *testing.T, conn *gorm.DB, machineID uuid.UUID, number int) *models.Slot {
	t.Helper()
	var slot models.Slot
	if err := conn.First(&slot, "machine_id = ? AND slot_number = ?", machineID, number).Error; err != nil {
		t.Fatalf("load slot %d: %v", number, err)
	}
	return &slot
}

func TestApplyAssignsToLowestEmptySlot(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	machine := mustCreateMachineWithSlots(t, conn, "VM-A", 3)
	product := mustCreateProduct(t, conn, "Chips")

	// occupy slot 1 with another product
	other := mustCreateProduct(t, conn, "Cola")
	first := slotFor(t, conn, machine.ID, 1)
	first.ProductID = &other.ID
	first.Quantity = 2
	if err := conn.Save(first).Error; err != nil {
		t.Fatalf("seed slot: %v", err)
	}

	result, err := svc.Apply(context.Background(), product.ID, []uuid.UUID{machine.ID})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Assigned != 1 {
		t.Fatalf("expected 1 assignment, got %+v", result)
	}
	if result.Results[0].SlotNumber != 2 {
		t.Fatalf("expected lowest empty slot 2, got %d", result.Results[0].SlotNumber)
	}

	assigned := slotFor(t, conn, machine.ID, 2)
	if assigned.ProductID == nil || *assigned.ProductID != product.ID {
		t.Fatalf("slot 2 should carry the product")
	}
	if assigned.Quantity != 5 {
		t.Fatalf("expected seeded quantity 5, got %d", assigned.Quantity)
	}
}

func TestApplyTogglesOffWhenAlreadyAssigned(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	machine := mustCreateMachineWithSlots(t, conn, "VM-B", 3)
	product := mustCreateProduct(t, conn, "Chips")

	if _, err := svc.Apply(context.Background(), product.ID, []uuid.UUID{machine.ID}); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	result, err := svc.Apply(context.Background(), product.ID, []uuid.UUID{machine.ID})
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if result.Unassigned != 1 || result.Assigned != 0 {
		t.Fatalf("expected toggle off, got %+v", result)
	}

	slot := slotFor(t, conn, machine.ID, 1)
	if slot.ProductID != nil || slot.Quantity != 0 {
		t.Fatalf("slot should be cleared, got %+v", slot)
	}
}

func TestApplySkipsFullMachine(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	machine := mustCreateMachineWithSlots(t, conn, "VM-C", 2)
	product := mustCreateProduct(t, conn, "Chips")

	filler := mustCreateProduct(t, conn, "Cola")
	for n := 1; n <= 2; n++ {
		slot := slotFor(t, conn, machine.ID, n)
		slot.ProductID = &filler.ID
		slot.Quantity = 1
		if err := conn.Save(slot).Error; err != nil {
			t.Fatalf("seed slot %d: %v", n, err)
		}
	}

	result, err := svc.Apply(context.Background(), product.ID, []uuid.UUID{machine.ID})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Skipped != 1 {
		t.Fatalf("expected machine skipped, got %+v", result)
	}
	if result.Results[0].Reason != "no empty slots" {
		t.Fatalf("unexpected reason %q", result.Results[0].Reason)
	}
}

func TestApplyContinuesPastFailedMachines(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	good := mustCreateMachineWithSlots(t, conn, "VM-D", 2)
	product := mustCreateProduct(t, conn, "Chips")
	ghost := uuid.New()

	result, err := svc.Apply(context.Background(), product.ID, []uuid.UUID{ghost, good.ID})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Failed != 1 || result.Assigned != 1 {
		t.Fatalf("expected one failure and one assignment, got %+v", result)
	}
	if result.Results[0].Reason != "machine not found" {
		t.Fatalf("unexpected failure reason %q", result.Results[0].Reason)
	}
}

func TestApplyValidation(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.Apply(context.Background(), uuid.New(), nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty machine list, got %v", err)
	}

	machine := mustCreateMachineWithSlots(t, conn, "VM-E", 1)
	_, err = svc.Apply(context.Background(), uuid.New(), []uuid.UUID{machine.ID})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
}

package planogram

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/internal/machines"
	"github.com/aldousari/vendpoint-backend/internal/products"
	"github.com/aldousari/vendpoint-backend/pkg/config"
	"github.com/aldousari/vendpoint-backend/pkg/db/models"
	"github.com/aldousari/vendpoint-backend/pkg/enums"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:planogram_test?mode=memory&cache=shared"), &gorm.Config{})
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

func testConfig() config.PlanogramConfig {
	return config.PlanogramConfig{LayoutSize: 6, DefaultCapacity: 10, BulkAssignQty: 5}
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(conn),
		machines.NewRepository(conn),
		products.NewRepository(conn),
		testTxRunner{db: conn},
		testConfig(),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func mustCreateMachine(t *testing.T, conn *gorm.DB, code string) *models.Machine {
	t.Helper()
	machine := &models.Machine{
		ID:     uuid.New(),
		Code:   code,
		Status: enums.MachineStatusActive,
	}
	if err := conn.Create(machine).Error; err != nil {
		t.Fatalf("create machine: %v", err)
	}
	return machine
}

func mustCreateProduct(t *testing.T, conn *gorm.DB, name string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:    uuid.New(),
		Name:  name,
		Price: decimal.NewFromFloat(2.5),
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func TestEnsureLayoutProvisionsMissingSlots(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	machine := mustCreateMachine(t, conn, "VM-ENSURE")

	result, err := svc.EnsureLayout(context.Background(), machine.ID)
	if err != nil {
		t.Fatalf("ensure layout: %v", err)
	}
	if result.Created != 6 || result.Existing != 0 {
		t.Fatalf("expected 6 created, got %+v", result)
	}

	layout, err := svc.GetLayout(context.Background(), machine.ID)
	if err != nil {
		t.Fatalf("get layout: %v", err)
	}
	if len(layout.Slots) != 6 {
		t.Fatalf("expected 6 slots, got %d", len(layout.Slots))
	}
	for i, slot := range layout.Slots {
		if slot.SlotNumber != i+1 {
			t.Fatalf("expected slot number %d at position %d, got %d", i+1, i, slot.SlotNumber)
		}
		if slot.MaxCapacity != 10 {
			t.Fatalf("expected default capacity 10, got %d", slot.MaxCapacity)
		}
		if slot.Quantity != 0 || slot.ProductID != nil {
			t.Fatalf("new slots must start empty")
		}
	}
}

func TestEnsureLayoutIsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	machine := mustCreateMachine(t, conn, "VM-IDEMP")

	if _, err := svc.EnsureLayout(context.Background(), machine.ID); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	second, err := svc.EnsureLayout(context.Background(), machine.ID)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if second.Created != 0 || second.Existing != 6 {
		t.Fatalf("expected no-op second pass, got %+v", second)
	}
}

func TestEnsureLayoutMapsInsertRaceToConflict(t *testing.T) {
	raced := provisionError(errors.New(`duplicate key value violates unique constraint "idx_slots_machine_number"`))
	typed := pkgerrors.As(raced)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for a lost insert race, got %v", raced)
	}

	broken := provisionError(errors.New("connection refused"))
	typed = pkgerrors.As(broken)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", broken)
	}
}

func TestEnsureLayoutUnknownMachine(t *testing.T) {
	svc := newTestService(t, openTestDB(t))

	_, err := svc.EnsureLayout(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestUpdateSlotAssignsProductAndQuantity(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	machine := mustCreateMachine(t, conn, "VM-UPD")
	product := mustCreateProduct(t, conn, "Chips")

	if _, err := svc.EnsureLayout(context.Background(), machine.ID); err != nil {
		t.Fatalf("ensure layout: %v", err)
	}
	layout, err := svc.GetLayout(context.Background(), machine.ID)
	if err != nil {
		t.Fatalf("get layout: %v", err)
	}

	qty := 4
	updated, err := svc.UpdateSlot(context.Background(), layout.Slots[0].ID, UpdateSlotInput{
		ProductID: &product.ID,
		Quantity:  &qty,
	})
	if err != nil {
		t.Fatalf("update slot: %v", err)
	}
	if updated.ProductID == nil || *updated.ProductID != product.ID {
		t.Fatalf("expected product assigned")
	}
	if updated.Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", updated.Quantity)
	}
	if updated.Product == nil || updated.Product.Name != "Chips" {
		t.Fatalf("expected product payload in slot")
	}
}

func TestUpdateSlotInvariants(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	machine := mustCreateMachine(t, conn, "VM-INV")
	product := mustCreateProduct(t, conn, "Chips")

	if _, err := svc.EnsureLayout(context.Background(), machine.ID); err != nil {
		t.Fatalf("ensure layout: %v", err)
	}
	layout, err := svc.GetLayout(context.Background(), machine.ID)
	if err != nil {
		t.Fatalf("get layout: %v", err)
	}
	slotID := layout.Slots[0].ID

	neg := -1
	if _, err := svc.UpdateSlot(context.Background(), slotID, UpdateSlotInput{Quantity: &neg}); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for negative quantity, got %v", err)
	}

	one := 1
	if _, err := svc.UpdateSlot(context.Background(), slotID, UpdateSlotInput{Quantity: &one}); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for stocking empty slot, got %v", err)
	}

	over := 99
	if _, err := svc.UpdateSlot(context.Background(), slotID, UpdateSlotInput{ProductID: &product.ID, Quantity: &over}); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for over-capacity quantity, got %v", err)
	}

	ghost := uuid.New()
	if _, err := svc.UpdateSlot(context.Background(), slotID, UpdateSlotInput{ProductID: &ghost}); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown product, got %v", err)
	}
}

func TestClearSlotDetachesProduct(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	machine := mustCreateMachine(t, conn, "VM-CLR")
	product := mustCreateProduct(t, conn, "Chips")

	if _, err := svc.EnsureLayout(context.Background(), machine.ID); err != nil {
		t.Fatalf("ensure layout: %v", err)
	}
	layout, err := svc.GetLayout(context.Background(), machine.ID)
	if err != nil {
		t.Fatalf("get layout: %v", err)
	}

	qty := 3
	if _, err := svc.UpdateSlot(context.Background(), layout.Slots[0].ID, UpdateSlotInput{ProductID: &product.ID, Quantity: &qty}); err != nil {
		t.Fatalf("update slot: %v", err)
	}

	cleared, err := svc.ClearSlot(context.Background(), layout.Slots[0].ID)
	if err != nil {
		t.Fatalf("clear slot: %v", err)
	}
	if cleared.ProductID != nil || cleared.Quantity != 0 {
		t.Fatalf("expected empty slot after clear, got %+v", cleared)
	}

	refetched, err := svc.GetLayout(context.Background(), machine.ID)
	if err != nil {
		t.Fatalf("get layout: %v", err)
	}
	if len(refetched.Slots) != 6 {
		t.Fatalf("clearing must not remove the slot row")
	}
}

func TestStockReportClassifiesSlots(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	machine := mustCreateMachine(t, conn, "VM-STOCK")
	product := mustCreateProduct(t, conn, "Chips")

	if _, err := svc.EnsureLayout(context.Background(), machine.ID); err != nil {
		t.Fatalf("ensure layout: %v", err)
	}
	layout, err := svc.GetLayout(context.Background(), machine.ID)
	if err != nil {
		t.Fatalf("get layout: %v", err)
	}

	// slot 1: out of stock, slot 2: low (2/10 < 30%), slot 3: ok (5/10)
	quantities := []int{0, 2, 5}
	for i, qty := range quantities {
		q := qty
		if _, err := svc.UpdateSlot(context.Background(), layout.Slots[i].ID, UpdateSlotInput{ProductID: &product.ID, Quantity: &q}); err != nil {
			t.Fatalf("update slot %d: %v", i+1, err)
		}
	}

	report, err := svc.StockReport(context.Background(), &machine.ID)
	if err != nil {
		t.Fatalf("stock report: %v", err)
	}
	if report.TotalAssigned != 3 {
		t.Fatalf("expected 3 assigned slots, got %d", report.TotalAssigned)
	}
	if report.OutOfStock != 1 || report.LowStock != 1 {
		t.Fatalf("unexpected counts %+v", report)
	}
	if report.Entries[0].Status != StockStatusOut {
		t.Fatalf("slot 1 should be out of stock, got %s", report.Entries[0].Status)
	}
	if report.Entries[1].Status != StockStatusLow {
		t.Fatalf("slot 2 should be low, got %s", report.Entries[1].Status)
	}
	if report.Entries[2].Status != StockStatusOK {
		t.Fatalf("slot 3 should be ok, got %s", report.Entries[2].Status)
	}
}

func TestStockReportBoundaryAtThreshold(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	machine := mustCreateMachine(t, conn, "VM-EDGE")
	product := mustCreateProduct(t, conn, "Chips")

	if _, err := svc.EnsureLayout(context.Background(), machine.ID); err != nil {
		t.Fatalf("ensure layout: %v", err)
	}
	layout, err := svc.GetLayout(context.Background(), machine.ID)
	if err != nil {
		t.Fatalf("get layout: %v", err)
	}

	// exactly 30% of capacity is not low
	qty := 3
	if _, err := svc.UpdateSlot(context.Background(), layout.Slots[0].ID, UpdateSlotInput{ProductID: &product.ID, Quantity: &qty}); err != nil {
		t.Fatalf("update slot: %v", err)
	}

	report, err := svc.StockReport(context.Background(), &machine.ID)
	if err != nil {
		t.Fatalf("stock report: %v", err)
	}
	if report.LowStock != 0 {
		t.Fatalf("30%% exactly should not count as low, got %d", report.LowStock)
	}
	if report.Entries[0].Status != StockStatusOK {
		t.Fatalf("expected ok status, got %s", report.Entries[0].Status)
	}
}

package machines

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
	"github.com/aldousari/vendpoint-backend/pkg/enums"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.Machine{
		Code:     "VM-001",
		Location: "Lobby",
		Status:   enums.MachineStatusActive,
	})
	if err != nil {
		t.Fatalf("create machine: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatalf("expected generated id")
	}

	found, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find machine: %v", err)
	}
	if found.Code != "VM-001" {
		t.Fatalf("unexpected code %s", found.Code)
	}

	byCode, err := repo.FindByCode(ctx, "VM-001")
	if err != nil {
		t.Fatalf("find by code: %v", err)
	}
	if byCode.ID != created.ID {
		t.Fatalf("expected same machine")
	}
}

func TestRepositoryCreateDuplicateCode(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	if _, err := repo.Create(ctx, &models.Machine{Code: "VM-DUP", Status: enums.MachineStatusActive}); err != nil {
		t.Fatalf("create machine: %v", err)
	}
	if _, err := repo.Create(ctx, &models.Machine{Code: "VM-DUP", Status: enums.MachineStatusActive}); err == nil {
		t.Fatalf("expected duplicate code error")
	}
}

func TestRepositoryListOrdersByCode(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	for _, code := range []string{"VM-B", "VM-A", "VM-C"} {
		if _, err := repo.Create(ctx, &models.Machine{Code: code, Status: enums.MachineStatusActive}); err != nil {
			t.Fatalf("create machine %s: %v", code, err)
		}
	}

	rows, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list machines: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 machines, got %d", len(rows))
	}
	if rows[0].Code != "VM-A" || rows[2].Code != "VM-C" {
		t.Fatalf("unexpected ordering: %s, %s, %s", rows[0].Code, rows[1].Code, rows[2].Code)
	}
}

func TestRepositoryDelete(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.Machine{Code: "VM-DEL", Status: enums.MachineStatusActive})
	if err != nil {
		t.Fatalf("create machine: %v", err)
	}
	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete machine: %v", err)
	}
	if _, err := repo.FindByID(ctx, created.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
	if err := repo.Delete(ctx, uuid.New()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found for missing machine, got %v", err)
	}
}

func TestRepositoryDeleteBlockedWhileSlotsStocked(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	machine, err := repo.Create(ctx, &models.Machine{Code: "VM-STOCKED", Status: enums.MachineStatusActive})
	if err != nil {
		t.Fatalf("create machine: %v", err)
	}
	product := models.Product{ID: uuid.New(), Name: "Water"}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	slot := models.Slot{
		ID:          uuid.New(),
		MachineID:   machine.ID,
		SlotNumber:  1,
		ProductID:   &product.ID,
		Quantity:    3,
		MaxCapacity: 10,
	}
	if err := conn.Create(&slot).Error; err != nil {
		t.Fatalf("create slot: %v", err)
	}

	if err := repo.Delete(ctx, machine.ID); !errors.Is(err, ErrSlotsAssigned) {
		t.Fatalf("expected ErrSlotsAssigned, got %v", err)
	}

	if err := conn.Model(&models.Slot{}).Where("id = ?", slot.ID).Update("product_id", nil).Error; err != nil {
		t.Fatalf("clear slot: %v", err)
	}
	if err := repo.Delete(ctx, machine.ID); err != nil {
		t.Fatalf("delete cleared machine: %v", err)
	}
}

package machines

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
	"github.com/aldousari/vendpoint-backend/pkg/enums"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
)

type stubMachineStore struct {
	machines  map[uuid.UUID]*models.Machine
	createErr error
	updateErr error
	deleteErr error
}

func newStubMachineStore() *stubMachineStore {
	return &stubMachineStore{machines: map[uuid.UUID]*models.Machine{}}
}

func (s *stubMachineStore) Create(_ context.Context, machine *models.Machine) (*models.Machine, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	machine.ID = uuid.New()
	s.machines[machine.ID] = machine
	return machine, nil
}

func (s *stubMachineStore) FindByID(_ context.Context, id uuid.UUID) (*models.Machine, error) {
	if m, ok := s.machines[id]; ok {
		copied := *m
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubMachineStore) List(_ context.Context) ([]models.Machine, error) {
	out := make([]models.Machine, 0, len(s.machines))
	for _, m := range s.machines {
		out = append(out, *m)
	}
	return out, nil
}

func (s *stubMachineStore) Update(_ context.Context, machine *models.Machine) (*models.Machine, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	s.machines[machine.ID] = machine
	return machine, nil
}

func (s *stubMachineStore) Delete(_ context.Context, id uuid.UUID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.machines[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.machines, id)
	return nil
}

func mustService(t *testing.T, store *stubMachineStore) Service {
	t.Helper()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateMachineDefaultsToActive(t *testing.T) {
	store := newStubMachineStore()
	svc := mustService(t, store)

	dto, err := svc.CreateMachine(context.Background(), CreateMachineInput{Code: "  VM-001 ", Location: "Lobby"})
	if err != nil {
		t.Fatalf("create machine: %v", err)
	}
	if dto.Code != "VM-001" {
		t.Fatalf("expected trimmed code, got %q", dto.Code)
	}
	if dto.Status != enums.MachineStatusActive.String() {
		t.Fatalf("expected active status, got %s", dto.Status)
	}
}

func TestCreateMachineRejectsEmptyCode(t *testing.T) {
	svc := mustService(t, newStubMachineStore())

	_, err := svc.CreateMachine(context.Background(), CreateMachineInput{Code: "   "})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateMachineRejectsUnknownStatus(t *testing.T) {
	svc := mustService(t, newStubMachineStore())
	bogus := "retired"

	_, err := svc.CreateMachine(context.Background(), CreateMachineInput{Code: "VM-001", Status: &bogus})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateMachineMapsDuplicateToConflict(t *testing.T) {
	store := newStubMachineStore()
	store.createErr = errors.New(`duplicate key value violates unique constraint "idx_machines_code"`)
	svc := mustService(t, store)

	_, err := svc.CreateMachine(context.Background(), CreateMachineInput{Code: "VM-001"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestGetMachineNotFound(t *testing.T) {
	svc := mustService(t, newStubMachineStore())

	_, err := svc.GetMachine(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestUpdateMachinePartialMutation(t *testing.T) {
	store := newStubMachineStore()
	svc := mustService(t, store)

	created, err := svc.CreateMachine(context.Background(), CreateMachineInput{Code: "VM-001", Location: "Lobby"})
	if err != nil {
		t.Fatalf("create machine: %v", err)
	}

	status := "maintenance"
	updated, err := svc.UpdateMachine(context.Background(), created.ID, UpdateMachineInput{Status: &status})
	if err != nil {
		t.Fatalf("update machine: %v", err)
	}
	if updated.Status != "maintenance" {
		t.Fatalf("expected maintenance status, got %s", updated.Status)
	}
	if updated.Code != "VM-001" || updated.Location != "Lobby" {
		t.Fatalf("untouched fields should be preserved")
	}
}

func TestDeleteMachineNotFound(t *testing.T) {
	svc := mustService(t, newStubMachineStore())

	err := svc.DeleteMachine(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestDeleteMachineWithStockedSlotsConflicts(t *testing.T) {
	store := newStubMachineStore()
	store.deleteErr = ErrSlotsAssigned
	svc := mustService(t, store)

	err := svc.DeleteMachine(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if typed.Message() != "clear the machine's planogram before deleting it" {
		t.Fatalf("unexpected message: %s", typed.Message())
	}
}

package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aldousari/vendpoint-backend/api/responses"
	"github.com/aldousari/vendpoint-backend/api/validators"
	"github.com/aldousari/vendpoint-backend/internal/machines"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
	"github.com/aldousari/vendpoint-backend/pkg/logger"
)

type createMachineRequest struct {
	Code     string  `json:"code" validate:"required,min=1"`
	Location string  `json:"location"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=active inactive maintenance"`
}

type updateMachineRequest struct {
	Code     *string `json:"code,omitempty" validate:"omitempty,min=1"`
	Location *string `json:"location,omitempty"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=active inactive maintenance"`
}

// MachineCreate registers a new vending machine.
func MachineCreate(svc machines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "machine service unavailable"))
			return
		}

		var payload createMachineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		machine, err := svc.CreateMachine(r.Context(), machines.CreateMachineInput{
			Code:     payload.Code,
			Location: payload.Location,
			Status:   payload.Status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, machine)
	}
}

// MachineList returns every registered machine.
func MachineList(svc machines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "machine service unavailable"))
			return
		}

		list, err := svc.ListMachines(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"machines": list})
	}
}

// MachineGet returns one machine by id.
func MachineGet(svc machines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "machine service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "machineId"), "machine id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		machine, err := svc.GetMachine(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, machine)
	}
}

// MachineUpdate applies a partial update to a machine.
func MachineUpdate(svc machines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "machine service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "machineId"), "machine id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateMachineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		machine, err := svc.UpdateMachine(r.Context(), id, machines.UpdateMachineInput{
			Code:     payload.Code,
			Location: payload.Location,
			Status:   payload.Status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, machine)
	}
}

// MachineDelete removes a machine and its slots.
func MachineDelete(svc machines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "machine service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "machineId"), "machine id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteMachine(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

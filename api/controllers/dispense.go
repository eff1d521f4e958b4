package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/aldousari/vendpoint-backend/api/responses"
	"github.com/aldousari/vendpoint-backend/api/validators"
	"github.com/aldousari/vendpoint-backend/internal/dispense"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
	"github.com/aldousari/vendpoint-backend/pkg/logger"
)

type dispenseService interface {
	Open(ctx context.Context, machineID uuid.UUID) (*dispense.StatusDTO, error)
	Close(ctx context.Context) (*dispense.StatusDTO, error)
	Status(ctx context.Context) *dispense.StatusDTO
	Dispense(ctx context.Context, slotNumber int) (*dispense.CommandDTO, error)
	Events(ctx context.Context) []dispense.Event
}

type openSessionRequest struct {
	MachineID uuid.UUID `json:"machineId" validate:"required"`
}

type dispenseRequest struct {
	SlotNumber int `json:"slotNumber" validate:"required,min=1"`
}

// DispenseSessionOpen connects the relay session for one machine.
func DispenseSessionOpen(svc dispenseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispense service unavailable"))
			return
		}

		var payload openSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.Open(r.Context(), payload.MachineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, status)
	}
}

// DispenseSessionClose disconnects the active relay session.
func DispenseSessionClose(svc dispenseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispense service unavailable"))
			return
		}

		status, err := svc.Close(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

// DispenseSessionStatus reports the relay session state.
func DispenseSessionStatus(svc dispenseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispense service unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.Status(r.Context()))
	}
}

// DispenseCommand sends one vend command over the open session.
func DispenseCommand(svc dispenseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispense service unavailable"))
			return
		}

		var payload dispenseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cmd, err := svc.Dispense(r.Context(), payload.SlotNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, cmd)
	}
}

// DispenseEvents returns the retained session activity feed.
func DispenseEvents(svc dispenseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispense service unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"events": svc.Events(r.Context())})
	}
}

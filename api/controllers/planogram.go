package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aldousari/vendpoint-backend/api/responses"
	"github.com/aldousari/vendpoint-backend/api/validators"
	"github.com/aldousari/vendpoint-backend/internal/planogram"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
	"github.com/aldousari/vendpoint-backend/pkg/logger"
)

type updateSlotRequest struct {
	ProductID    *uuid.UUID `json:"productId,omitempty"`
	ClearProduct bool       `json:"clearProduct,omitempty"`
	Quantity     *int       `json:"quantity,omitempty"`
	MaxCapacity  *int       `json:"maxCapacity,omitempty"`
}

// PlanogramGet returns the full slot layout of one machine.
func PlanogramGet(svc planogram.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "planogram service unavailable"))
			return
		}

		machineID, err := validators.ParsePathUUID(chi.URLParam(r, "machineId"), "machine id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		layout, err := svc.GetLayout(r.Context(), machineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, layout)
	}
}

// PlanogramEnsure provisions any missing slots for a machine.
func PlanogramEnsure(svc planogram.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "planogram service unavailable"))
			return
		}

		machineID, err := validators.ParsePathUUID(chi.URLParam(r, "machineId"), "machine id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.EnsureLayout(r.Context(), machineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SlotUpdate assigns a product, restocks, or resizes one slot.
func SlotUpdate(svc planogram.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "planogram service unavailable"))
			return
		}

		slotID, err := validators.ParsePathUUID(chi.URLParam(r, "slotId"), "slot id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateSlotRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		slot, err := svc.UpdateSlot(r.Context(), slotID, planogram.UpdateSlotInput{
			ProductID:    payload.ProductID,
			ClearProduct: payload.ClearProduct,
			Quantity:     payload.Quantity,
			MaxCapacity:  payload.MaxCapacity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, slot)
	}
}

// SlotClear unassigns a slot's product and zeroes its stock. The slot row
// itself survives.
func SlotClear(svc planogram.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "planogram service unavailable"))
			return
		}

		slotID, err := validators.ParsePathUUID(chi.URLParam(r, "slotId"), "slot id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		slot, err := svc.ClearSlot(r.Context(), slotID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, slot)
	}
}

// StockReport classifies assigned slots as ok, low, or out of stock.
// An optional machineId query narrows it to one machine.
func StockReport(svc planogram.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "planogram service unavailable"))
			return
		}

		machineID, err := validators.ParseQueryUUID(r, "machineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var scope *uuid.UUID
		if machineID != uuid.Nil {
			scope = &machineID
		}

		report, err := svc.StockReport(r.Context(), scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aldousari/vendpoint-backend/api/responses"
	"github.com/aldousari/vendpoint-backend/api/validators"
	"github.com/aldousari/vendpoint-backend/internal/machineproducts"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
	"github.com/aldousari/vendpoint-backend/pkg/logger"
)

type setOverrideRequest struct {
	Price  decimal.Decimal `json:"price"`
	Active *bool           `json:"active,omitempty"`
}

func overridePair(r *http.Request) (machineID, productID uuid.UUID, err error) {
	machineID, err = validators.ParsePathUUID(chi.URLParam(r, "machineId"), "machine id")
	if err != nil {
		return
	}
	productID, err = validators.ParsePathUUID(chi.URLParam(r, "productId"), "product id")
	return
}

// OverrideSet creates or replaces a per-machine price override.
func OverrideSet(svc machineproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		machineID, productID, err := overridePair(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setOverrideRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		override, err := svc.SetOverride(r.Context(), machineID, productID, machineproducts.SetOverrideInput{
			Price:  payload.Price,
			Active: payload.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, override)
	}
}

// OverrideList returns every price override on one machine.
func OverrideList(svc machineproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		machineID, err := validators.ParsePathUUID(chi.URLParam(r, "machineId"), "machine id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		overrides, err := svc.ListOverrides(r.Context(), machineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"overrides": overrides})
	}
}

// OverrideRemove deletes a price override, restoring the catalog price.
func OverrideRemove(svc machineproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		machineID, productID, err := overridePair(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveOverride(r.Context(), machineID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// EffectivePrice resolves the price the machine actually charges for a
// product, override first, catalog price otherwise.
func EffectivePrice(svc machineproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		machineID, productID, err := overridePair(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := svc.EffectivePrice(r.Context(), machineID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"machineId": machineID,
			"productId": productID,
			"price":     price,
		})
	}
}

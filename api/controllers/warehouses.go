package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aldousari/vendpoint-backend/api/responses"
	"github.com/aldousari/vendpoint-backend/api/validators"
	"github.com/aldousari/vendpoint-backend/internal/warehouses"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
	"github.com/aldousari/vendpoint-backend/pkg/logger"
)

type createWarehouseRequest struct {
	Name            string   `json:"name" validate:"required,min=1"`
	Location        string   `json:"location"`
	ManagementTypes []string `json:"managementTypes,omitempty"`
	WorkingDays     []string `json:"workingDays,omitempty"`
	Capacity        int      `json:"capacity" validate:"omitempty,min=0"`
}

type updateWarehouseRequest struct {
	Name            *string   `json:"name,omitempty" validate:"omitempty,min=1"`
	Location        *string   `json:"location,omitempty"`
	ManagementTypes *[]string `json:"managementTypes,omitempty"`
	WorkingDays     *[]string `json:"workingDays,omitempty"`
	Capacity        *int      `json:"capacity,omitempty" validate:"omitempty,min=0"`
}

// WarehouseCreate registers a stocking location.
func WarehouseCreate(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warehouse service unavailable"))
			return
		}

		var payload createWarehouseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		warehouse, err := svc.CreateWarehouse(r.Context(), warehouses.CreateWarehouseInput{
			Name:            payload.Name,
			Location:        payload.Location,
			ManagementTypes: payload.ManagementTypes,
			WorkingDays:     payload.WorkingDays,
			Capacity:        payload.Capacity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, warehouse)
	}
}

// WarehouseList returns every stocking location.
func WarehouseList(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warehouse service unavailable"))
			return
		}

		list, err := svc.ListWarehouses(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"warehouses": list})
	}
}

// WarehouseGet returns one stocking location by id.
func WarehouseGet(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warehouse service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "warehouseId"), "warehouse id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		warehouse, err := svc.GetWarehouse(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, warehouse)
	}
}

// WarehouseUpdate applies a partial update to a stocking location.
func WarehouseUpdate(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warehouse service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "warehouseId"), "warehouse id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateWarehouseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		warehouse, err := svc.UpdateWarehouse(r.Context(), id, warehouses.UpdateWarehouseInput{
			Name:            payload.Name,
			Location:        payload.Location,
			ManagementTypes: payload.ManagementTypes,
			WorkingDays:     payload.WorkingDays,
			Capacity:        payload.Capacity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, warehouse)
	}
}

// WarehouseDelete removes a stocking location.
func WarehouseDelete(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warehouse service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "warehouseId"), "warehouse id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteWarehouse(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

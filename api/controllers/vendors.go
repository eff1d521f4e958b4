package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aldousari/vendpoint-backend/api/responses"
	"github.com/aldousari/vendpoint-backend/api/validators"
	"github.com/aldousari/vendpoint-backend/internal/vendors"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
	"github.com/aldousari/vendpoint-backend/pkg/logger"
)

type createVendorRequest struct {
	Name         string   `json:"name" validate:"required,min=1"`
	ContactName  *string  `json:"contactName,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
	Email        *string  `json:"email,omitempty" validate:"omitempty,email"`
	ProductLines []string `json:"productLines,omitempty"`
}

type updateVendorRequest struct {
	Name         *string   `json:"name,omitempty" validate:"omitempty,min=1"`
	ContactName  *string   `json:"contactName,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Email        *string   `json:"email,omitempty" validate:"omitempty,email"`
	ProductLines *[]string `json:"productLines,omitempty"`
}

// VendorCreate registers a supplier.
func VendorCreate(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		var payload createVendorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.CreateVendor(r.Context(), vendors.CreateVendorInput{
			Name:         payload.Name,
			ContactName:  payload.ContactName,
			Phone:        payload.Phone,
			Email:        payload.Email,
			ProductLines: payload.ProductLines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, vendor)
	}
}

// VendorList returns every supplier.
func VendorList(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		list, err := svc.ListVendors(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"vendors": list})
	}
}

// VendorGet returns one supplier by id.
func VendorGet(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "vendorId"), "vendor id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.GetVendor(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}

// VendorUpdate applies a partial update to a supplier.
func VendorUpdate(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "vendorId"), "vendor id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateVendorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.UpdateVendor(r.Context(), id, vendors.UpdateVendorInput{
			Name:         payload.Name,
			ContactName:  payload.ContactName,
			Phone:        payload.Phone,
			Email:        payload.Email,
			ProductLines: payload.ProductLines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}

// VendorDelete removes a supplier.
func VendorDelete(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "vendorId"), "vendor id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteVendor(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

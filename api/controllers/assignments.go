package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/aldousari/vendpoint-backend/api/responses"
	"github.com/aldousari/vendpoint-backend/api/validators"
	"github.com/aldousari/vendpoint-backend/internal/assignments"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
	"github.com/aldousari/vendpoint-backend/pkg/logger"
)

type bulkAssignRequest struct {
	ProductID  uuid.UUID   `json:"productId" validate:"required"`
	MachineIDs []uuid.UUID `json:"machineIds" validate:"required,min=1"`
}

// BulkAssign toggles one product across a set of machines. Machines
// without the product gain it in their lowest empty slot; machines
// already carrying it have it removed.
func BulkAssign(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignment service unavailable"))
			return
		}

		var payload bulkAssignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Apply(r.Context(), payload.ProductID, payload.MachineIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

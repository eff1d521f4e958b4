package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aldousari/vendpoint-backend/api/responses"
	"github.com/aldousari/vendpoint-backend/api/validators"
	"github.com/aldousari/vendpoint-backend/internal/sales"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
	"github.com/aldousari/vendpoint-backend/pkg/logger"
	"github.com/aldousari/vendpoint-backend/pkg/pagination"
)

func salesFilter(r *http.Request) (sales.Filter, error) {
	var filter sales.Filter

	machineID, err := validators.ParseQueryUUID(r, "machineId")
	if err != nil {
		return filter, err
	}
	productID, err := validators.ParseQueryUUID(r, "productId")
	if err != nil {
		return filter, err
	}
	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return filter, err
	}
	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return filter, err
	}

	filter.MachineID = machineID
	filter.ProductID = productID
	filter.From = from
	filter.To = to
	return filter, nil
}

// SalesList returns a cursor-paginated page of sales, newest first.
func SalesList(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		filter, err := salesFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		list, err := svc.ListSales(r.Context(), filter, pagination.Params{Limit: limit, Cursor: cursor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// SalesSummary returns sale count, units moved, and revenue for the filter.
func SalesSummary(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		filter, err := salesFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// SalesExport streams the filtered sales as a CSV download.
func SalesExport(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		filter, err := salesFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filename := fmt.Sprintf("sales-export-%s.csv", time.Now().UTC().Format("20060102"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

		if err := svc.ExportCSV(r.Context(), filter, w); err != nil {
			// Headers are already out; all we can do is log.
			logg.Error(r.Context(), "sales export aborted mid-stream", err)
		}
	}
}

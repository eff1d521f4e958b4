package sales

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
	"github.com/aldousari/vendpoint-backend/pkg/pagination"
)

var csvHeader = []string{"Date & Time", "Machine", "Location", "Slot", "Product", "Quantity", "Unit Price", "Total"}

// SaleDTO is the public representation of one historical sale.
type SaleDTO struct {
	ID          uuid.UUID       `json:"id"`
	MachineID   uuid.UUID       `json:"machineId"`
	MachineCode string          `json:"machineCode,omitempty"`
	Location    string          `json:"location,omitempty"`
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	SlotNumber  int             `json:"slotNumber"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
	SoldAt      time.Time       `json:"soldAt"`
}

// SaleListDTO is a cursor page of sales.
type SaleListDTO struct {
	Sales      []SaleDTO `json:"sales"`
	NextCursor string    `json:"nextCursor,omitempty"`
	HasMore    bool      `json:"hasMore"`
}

// SummaryDTO aggregates sales for a filter window.
type SummaryDTO struct {
	SaleCount    int64           `json:"saleCount"`
	ItemCount    int64           `json:"itemCount"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// Service exposes the sales reporting operations.
type Service interface {
	ListSales(ctx context.Context, filter Filter, params pagination.Params) (*SaleListDTO, error)
	Summary(ctx context.Context, filter Filter) (*SummaryDTO, error)
	ExportCSV(ctx context.Context, filter Filter, w io.Writer) error
}

type saleStore interface {
	List(ctx context.Context, filter Filter, params pagination.Params) ([]models.Sale, error)
	ListAll(ctx context.Context, filter Filter) ([]models.Sale, error)
	Aggregate(ctx context.Context, filter Filter) (*Totals, error)
}

type service struct {
	repo saleStore
}

// NewService constructs a sales service instance.
func NewService(repo saleStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListSales(ctx context.Context, filter Filter, params pagination.Params) (*SaleListDTO, error) {
	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}

	page, hasMore := pagination.TrimPage(rows, params.Limit)
	out := &SaleListDTO{Sales: make([]SaleDTO, 0, len(page)), HasMore: hasMore}
	for i := range page {
		out.Sales = append(out.Sales, toDTO(&page[i]))
	}
	if hasMore && len(page) > 0 {
		last := page[len(page)-1]
		out.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			Timestamp: last.SoldAt,
			ID:        last.ID,
		})
	}
	return out, nil
}

func (s *service) Summary(ctx context.Context, filter Filter) (*SummaryDTO, error) {
	totals, err := s.repo.Aggregate(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate sales")
	}

	// revenue needs per-row prices, so it walks the filtered rows
	rows, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales")
	}
	revenue := decimal.Zero
	for i := range rows {
		revenue = revenue.Add(rowTotal(&rows[i]))
	}

	return &SummaryDTO{
		SaleCount:    totals.SaleCount,
		ItemCount:    totals.ItemCount,
		TotalRevenue: revenue,
	}, nil
}

// ExportCSV streams the filtered sales as CSV rows.
func (s *service) ExportCSV(ctx context.Context, filter Filter, w io.Writer) error {
	rows, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales")
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}
	for i := range rows {
		sale := &rows[i]
		record := []string{
			sale.SoldAt.Format("2006-01-02 15:04:05"),
			machineCode(sale),
			machineLocation(sale),
			strconv.Itoa(sale.SlotNumber),
			productName(sale),
			strconv.Itoa(sale.Quantity),
			unitPrice(sale).StringFixed(2),
			rowTotal(sale).StringFixed(2),
		}
		if err := writer.Write(record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv row")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush csv")
	}
	return nil
}

func toDTO(sale *models.Sale) SaleDTO {
	dto := SaleDTO{
		ID:         sale.ID,
		MachineID:  sale.MachineID,
		ProductID:  sale.ProductID,
		SlotNumber: sale.SlotNumber,
		Quantity:   sale.Quantity,
		UnitPrice:  unitPrice(sale),
		Total:      rowTotal(sale),
		SoldAt:     sale.SoldAt,
	}
	dto.MachineCode = machineCode(sale)
	dto.Location = machineLocation(sale)
	dto.ProductName = productName(sale)
	return dto
}

func unitPrice(sale *models.Sale) decimal.Decimal {
	if sale.Product != nil {
		return sale.Product.Price
	}
	return decimal.Zero
}

func rowTotal(sale *models.Sale) decimal.Decimal {
	return unitPrice(sale).Mul(decimal.NewFromInt(int64(sale.Quantity)))
}

func machineCode(sale *models.Sale) string {
	if sale.Machine != nil {
		return sale.Machine.Code
	}
	return ""
}

func machineLocation(sale *models.Sale) string {
	if sale.Machine != nil {
		return sale.Machine.Location
	}
	return ""
}

func productName(sale *models.Sale) string {
	if sale.Product != nil {
		return sale.Product.Name
	}
	return ""
}

package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
	"github.com/aldousari/vendpoint-backend/pkg/pagination"
)

// Filter narrows sales queries.
type Filter struct {
	MachineID uuid.UUID
	ProductID uuid.UUID
	From      *time.Time
	To        *time.Time
}

// Repository wires read-only sales persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) scoped(ctx context.Context, filter Filter) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Sale{})
	if filter.MachineID != uuid.Nil {
		tx = tx.Where("machine_id = ?", filter.MachineID)
	}
	if filter.ProductID != uuid.Nil {
		tx = tx.Where("product_id = ?", filter.ProductID)
	}
	if filter.From != nil {
		tx = tx.Where("sold_at >= ?", *filter.From)
	}
	if filter.To != nil {
		tx = tx.Where("sold_at < ?", *filter.To)
	}
	return tx
}

// List returns a page of sales newest-first, machine and product preloaded.
// One extra row beyond the limit is fetched so the caller can detect the
// next page.
func (r *Repository) List(ctx context.Context, filter Filter, params pagination.Params) ([]models.Sale, error) {
	tx := r.scoped(ctx, filter).
		Preload("Machine").
		Preload("Product").
		Order("sold_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		tx = tx.Where("(sold_at < ?) OR (sold_at = ? AND id < ?)", cursor.Timestamp, cursor.Timestamp, cursor.ID)
	}

	var rows []models.Sale
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAll returns every matching sale newest-first, without pagination.
// Used by the CSV export.
func (r *Repository) ListAll(ctx context.Context, filter Filter) ([]models.Sale, error) {
	var rows []models.Sale
	if err := r.scoped(ctx, filter).
		Preload("Machine").
		Preload("Product").
		Order("sold_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Totals holds the aggregate row for a sales summary.
type Totals struct {
	SaleCount int64
	ItemCount int64
}

// Aggregate computes the sale and item counts for the filter.
func (r *Repository) Aggregate(ctx context.Context, filter Filter) (*Totals, error) {
	var out struct {
		SaleCount int64
		ItemCount int64
	}
	if err := r.scoped(ctx, filter).
		Select("COUNT(*) AS sale_count, COALESCE(SUM(quantity), 0) AS item_count").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return &Totals{SaleCount: out.SaleCount, ItemCount: out.ItemCount}, nil
}

package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
)

// Repository wires product catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create persists a new catalog product.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads a product by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns all products ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByCategory returns products matching the category, ordered by name.
func (r *Repository) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).
		Where("category = ?", category).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves mutated product fields.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes the product. Slots referencing it are cleared at the
// database level via ON DELETE SET NULL.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

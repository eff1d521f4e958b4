package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
)

// Service exposes catalog management operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, category string) ([]ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name     string
	Price    decimal.Decimal
	ImageURL *string
	Category *string
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name     *string
	Price    *decimal.Decimal
	ImageURL *string
	Category *string
}

type productStore interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	ListByCategory(ctx context.Context, category string) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo productStore
}

// NewService constructs a product service instance.
func NewService(repo productStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price cannot be negative")
	}

	product := &models.Product{
		Name:     name,
		Price:    input.Price,
		ImageURL: input.ImageURL,
		Category: input.Category,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return toDTO(created), nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return toDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, category string) ([]ProductDTO, error) {
	var (
		rows []models.Product
		err  error
	)
	if category = strings.TrimSpace(category); category != "" {
		rows, err = s.repo.ListByCategory(ctx, category)
	} else {
		rows, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return toDTOs(rows), nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		product.Name = name
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price cannot be negative")
		}
		product.Price = *input.Price
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.Category != nil {
		product.Category = input.Category
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return toDTO(updated), nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

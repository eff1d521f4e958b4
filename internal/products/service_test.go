package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
)

type stubProductStore struct {
	products map[uuid.UUID]*models.Product
}

func newStubProductStore() *stubProductStore {
	return &stubProductStore{products: map[uuid.UUID]*models.Product{}}
}

func (s *stubProductStore) Create(_ context.Context, product *models.Product) (*models.Product, error) {
	product.ID = uuid.New()
	s.products[product.ID] = product
	return product, nil
}

func (s *stubProductStore) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductStore) List(_ context.Context) ([]models.Product, error) {
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubProductStore) ListByCategory(_ context.Context, category string) ([]models.Product, error) {
	out := []models.Product{}
	for _, p := range s.products {
		if p.Category != nil && *p.Category == category {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubProductStore) Update(_ context.Context, product *models.Product) (*models.Product, error) {
	s.products[product.ID] = product
	return product, nil
}

func (s *stubProductStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.products, id)
	return nil
}

func mustService(t *testing.T, store *stubProductStore) Service {
	t.Helper()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateProductValidation(t *testing.T) {
	svc := mustService(t, newStubProductStore())

	if _, err := svc.CreateProduct(context.Background(), CreateProductInput{Name: "  "}); pkgerrors.As(err) == nil {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:  "Chips",
		Price: decimal.NewFromInt(-1),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}
}

func TestCreateAndGetProduct(t *testing.T) {
	svc := mustService(t, newStubProductStore())

	created, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:  " Chips ",
		Price: decimal.NewFromFloat(2.5),
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if created.Name != "Chips" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}

	got, err := svc.GetProduct(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if !got.Price.Equal(decimal.NewFromFloat(2.5)) {
		t.Fatalf("unexpected price %s", got.Price)
	}
}

func TestUpdateProductRejectsNegativePrice(t *testing.T) {
	svc := mustService(t, newStubProductStore())

	created, err := svc.CreateProduct(context.Background(), CreateProductInput{Name: "Chips", Price: decimal.NewFromInt(2)})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	bad := decimal.NewFromInt(-3)
	_, err = svc.UpdateProduct(context.Background(), created.ID, UpdateProductInput{Price: &bad})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteProductNotFound(t *testing.T) {
	svc := mustService(t, newStubProductStore())

	err := svc.DeleteProduct(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

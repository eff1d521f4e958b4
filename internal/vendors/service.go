package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
	pkgerrors "github.com/aldousari/vendpoint-backend/pkg/errors"
)

// VendorDTO is the public representation of a supplier.
type VendorDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ContactName  *string   `json:"contactName,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Email        *string   `json:"email,omitempty"`
	ProductLines []string  `json:"productLines"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateVendorInput holds the validated payload to register a vendor.
type CreateVendorInput struct {
	Name         string
	ContactName  *string
	Phone        *string
	Email        *string
	ProductLines []string
}

// UpdateVendorInput holds optional mutation values for a vendor.
type UpdateVendorInput struct {
	Name         *string
	ContactName  *string
	Phone        *string
	Email        *string
	ProductLines *[]string
}

// Service exposes the vendor registry operations.
type Service interface {
	CreateVendor(ctx context.Context, input CreateVendorInput) (*VendorDTO, error)
	GetVendor(ctx context.Context, id uuid.UUID) (*VendorDTO, error)
	ListVendors(ctx context.Context) ([]VendorDTO, error)
	UpdateVendor(ctx context.Context, id uuid.UUID, input UpdateVendorInput) (*VendorDTO, error)
	DeleteVendor(ctx context.Context, id uuid.UUID) error
}

type vendorStore interface {
	Create(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	List(ctx context.Context) ([]models.Vendor, error)
	Update(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo vendorStore
}

// NewService constructs a vendor service instance.
func NewService(repo vendorStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateVendor(ctx context.Context, input CreateVendorInput) (*VendorDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor name is required")
	}

	vendor := &models.Vendor{
		Name:         name,
		ContactName:  input.ContactName,
		Phone:        input.Phone,
		Email:        input.Email,
		ProductLines: pq.StringArray(input.ProductLines),
	}

	created, err := s.repo.Create(ctx, vendor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor")
	}
	return toDTO(created), nil
}

func (s *service) GetVendor(ctx context.Context, id uuid.UUID) (*VendorDTO, error) {
	vendor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return toDTO(vendor), nil
}

func (s *service) ListVendors(ctx context.Context) ([]VendorDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}
	out := make([]VendorDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) UpdateVendor(ctx context.Context, id uuid.UUID, input UpdateVendorInput) (*VendorDTO, error) {
	vendor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor name cannot be empty")
		}
		vendor.Name = name
	}
	if input.ContactName != nil {
		vendor.ContactName = input.ContactName
	}
	if input.Phone != nil {
		vendor.Phone = input.Phone
	}
	if input.Email != nil {
		vendor.Email = input.Email
	}
	if input.ProductLines != nil {
		vendor.ProductLines = pq.StringArray(*input.ProductLines)
	}

	updated, err := s.repo.Update(ctx, vendor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor")
	}
	return toDTO(updated), nil
}

func (s *service) DeleteVendor(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete vendor")
	}
	return nil
}

func toDTO(vendor *models.Vendor) *VendorDTO {
	if vendor == nil {
		return nil
	}
	return &VendorDTO{
		ID:           vendor.ID,
		Name:         vendor.Name,
		ContactName:  vendor.ContactName,
		Phone:        vendor.Phone,
		Email:        vendor.Email,
		ProductLines: []string(vendor.ProductLines),
		CreatedAt:    vendor.CreatedAt,
		UpdatedAt:    vendor.UpdatedAt,
	}
}

package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
)

// ProductDTO is the public representation of a catalog product.
type ProductDTO struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  *string         `json:"imageUrl,omitempty"`
	Category  *string         `json:"category,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func toDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		ImageURL:  p.ImageURL,
		Category:  p.Category,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out
}

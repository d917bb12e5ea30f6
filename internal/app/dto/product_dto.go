package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mrops-br/products-catalog-api/internal/domain"
)

// ProductRequest is the body accepted by create and update. ID and CreatedAt
// are accepted for compatibility but the service decides their final values.
type ProductRequest struct {
	ID              string          `json:"id,omitempty"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	SKU             string          `json:"sku"`
	Price           decimal.Decimal `json:"price"`
	QuantityInStock int             `json:"quantityInStock" validate:"gte=0"`
	Categories      []string        `json:"categories"`
	Status          string          `json:"status" validate:"omitempty,oneof=ACTIVE DISCONTINUED OUT_OF_STOCK"`
	CreatedAt       *time.Time      `json:"createdAt,omitempty"`
	CreatedBy       string          `json:"createdBy,omitempty"`
	UpdatedBy       string          `json:"updatedBy,omitempty"`
}

// ToDomain converts the request into a domain Product
func (r *ProductRequest) ToDomain() (*domain.Product, error) {
	status, err := domain.ParseProductStatus(r.Status)
	if err != nil {
		return nil, err
	}

	var categories domain.CategorySet
	if r.Categories != nil {
		categories = domain.NewCategorySet(r.Categories...)
	}

	product := &domain.Product{
		BaseEntity: domain.BaseEntity{
			ID:        r.ID,
			CreatedBy: r.CreatedBy,
			UpdatedBy: r.UpdatedBy,
		},
		Name:            r.Name,
		Description:     r.Description,
		SKU:             r.SKU,
		Price:           r.Price,
		QuantityInStock: r.QuantityInStock,
		Categories:      categories,
		Status:          status,
	}
	if r.CreatedAt != nil {
		product.CreatedAt = *r.CreatedAt
	}
	return product, nil
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	SKU             string          `json:"sku"`
	Price           decimal.Decimal `json:"price"`
	QuantityInStock int             `json:"quantityInStock"`
	Categories      []string        `json:"categories"`
	Status          string          `json:"status,omitempty"`
	Available       bool            `json:"available"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	CreatedBy       string          `json:"createdBy,omitempty"`
	UpdatedBy       string          `json:"updatedBy,omitempty"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *domain.Product) *ProductResponse {
	var categories []string
	if p.Categories != nil {
		categories = p.Categories.Values()
	}
	return &ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		SKU:             p.SKU,
		Price:           p.Price,
		QuantityInStock: p.QuantityInStock,
		Categories:      categories,
		Status:          string(p.Status),
		Available:       p.IsAvailable(),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		CreatedBy:       p.CreatedBy,
		UpdatedBy:       p.UpdatedBy,
	}
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []*domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}

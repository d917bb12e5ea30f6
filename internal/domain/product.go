package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidProductStatus = errors.New("invalid product status")
)

// ProductStatus is the lifecycle state of a product
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "ACTIVE"
	ProductStatusDiscontinued ProductStatus = "DISCONTINUED"
	ProductStatusOutOfStock   ProductStatus = "OUT_OF_STOCK"
)

// ProductStatuses lists every known status.
var ProductStatuses = []ProductStatus{
	ProductStatusActive,
	ProductStatusDiscontinued,
	ProductStatusOutOfStock,
}

// ParseProductStatus converts s into a ProductStatus. The empty string means
// "no status" and is accepted.
func ParseProductStatus(s string) (ProductStatus, error) {
	if s == "" {
		return "", nil
	}
	for _, status := range ProductStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidProductStatus, s)
}

// Product represents the product entity
type Product struct {
	BaseEntity
	Name            string
	Description     string
	SKU             string
	Price           decimal.Decimal
	QuantityInStock int
	Categories      CategorySet
	Status          ProductStatus
}

// IsAvailable reports whether the product is active and in stock.
func (p *Product) IsAvailable() bool {
	return p.Status == ProductStatusActive && p.QuantityInStock > 0
}

// Clone returns a deep copy of the product.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	c.Categories = p.Categories.Clone()
	return &c
}

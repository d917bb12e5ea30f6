package domain

import (
	"context"
)

// ProductRepository defines the contract for product storage.
//
// Absence is not an error: FindByID reports it through its boolean result and
// DeleteByID is a no-op for unknown ids. Returned errors signal storage faults.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]*Product, error)
	FindByID(ctx context.Context, id string) (*Product, bool, error)
	// Save inserts a product without an id (assigning one) or fully replaces
	// the record with the same id. It returns the persisted copy.
	Save(ctx context.Context, product *Product) (*Product, error)
	DeleteByID(ctx context.Context, id string) error
	FindByCategory(ctx context.Context, category string) ([]*Product, error)
}

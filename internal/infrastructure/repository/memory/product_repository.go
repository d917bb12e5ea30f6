package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mrops-br/products-catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductRepository is an in-memory implementation of domain.ProductRepository
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	tracer   trace.Tracer
	logger   *slog.Logger
	now      func() time.Time
}

// NewProductRepository creates a new in-memory product repository
func NewProductRepository(tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		products: make(map[string]*domain.Product),
		tracer:   tracer,
		logger:   logger,
		now:      time.Now,
	}
}

// Save inserts or fully replaces a product
func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Save")
	defer span.End()

	stored := product.Clone()

	r.mu.Lock()
	var previous time.Time
	if stored.HasID() {
		if existing, ok := r.products[stored.ID]; ok {
			previous = existing.UpdatedAt
		}
	}
	stored.PrePersist(r.now(), previous)
	r.products[stored.ID] = stored
	r.mu.Unlock()

	span.SetAttributes(
		attribute.String("product.id", stored.ID),
		attribute.Bool("product.replaced", !previous.IsZero()),
	)

	r.logger.InfoContext(ctx, "Product saved in repository",
		slog.String("product_id", stored.ID),
		slog.Bool("replaced", !previous.IsZero()),
	)

	span.SetStatus(codes.Ok, "Product saved successfully")
	return stored.Clone(), nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, bool, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	r.mu.RLock()
	product, exists := r.products[id]
	r.mu.RUnlock()

	span.SetAttributes(attribute.Bool("product.found", exists))
	if !exists {
		r.logger.DebugContext(ctx, "Product not found in repository",
			slog.String("product_id", id),
		)
		return nil, false, nil
	}

	r.logger.DebugContext(ctx, "Product found in repository",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product found")
	return product.Clone(), true, nil
}

// FindAll retrieves all products
func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	products := r.collect(func(*domain.Product) bool { return true })

	span.SetAttributes(attribute.Int("product.count", len(products)))

	r.logger.InfoContext(ctx, "Products retrieved from repository",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

// DeleteByID removes a product; unknown ids are ignored
func (r *ProductRepository) DeleteByID(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.DeleteByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	r.mu.Lock()
	_, existed := r.products[id]
	delete(r.products, id)
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "Product deleted from repository",
		slog.String("product_id", id),
		slog.Bool("existed", existed),
	)

	span.SetStatus(codes.Ok, "Product deleted")
	return nil
}

// FindByCategory retrieves products whose category set contains category
func (r *ProductRepository) FindByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByCategory")
	defer span.End()

	products := r.collect(func(p *domain.Product) bool {
		return p.Categories.Contains(category)
	})

	span.SetAttributes(
		attribute.String("product.category", category),
		attribute.Int("product.count", len(products)),
	)

	r.logger.InfoContext(ctx, "Products retrieved by category",
		slog.String("category", category),
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

func (r *ProductRepository) collect(match func(*domain.Product) bool) []*domain.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]*domain.Product, 0, len(r.products))
	for _, product := range r.products {
		if match(product) {
			products = append(products, product.Clone())
		}
	}
	return products
}

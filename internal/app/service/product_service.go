package service

import (
	"context"
	"log/slog"

	"github.com/mrops-br/products-catalog-api/internal/domain"
	"github.com/mrops-br/products-catalog-api/internal/pkg/textutil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const logNameLimit = 64

// ProductService handles product use cases
type ProductService struct {
	repo                  domain.ProductRepository
	tracer                trace.Tracer
	logger                *slog.Logger
	productCreatedCounter metric.Int64Counter
	productOperations     metric.Int64Counter
}

// NewProductService creates a new product service
func NewProductService(
	repo domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	// Initialize metrics
	productCreatedCounter, _ := meter.Int64Counter(
		"products.created.total",
		metric.WithDescription("Total number of products created"),
	)

	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	return &ProductService{
		repo:                  repo,
		tracer:                tracer,
		logger:                logger,
		productCreatedCounter: productCreatedCounter,
		productOperations:     productOperations,
	}
}

// GetAllProducts retrieves all products
func (s *ProductService) GetAllProducts(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetAllProducts")
	defer span.End()

	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, "list", err)
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.record(ctx, "list", "success")

	s.logger.InfoContext(ctx, "Products listed successfully",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products listed successfully")
	return products, nil
}

// GetProductByID retrieves a product by ID. The boolean is false when no
// product has that ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*domain.Product, bool, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProductByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	product, found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, s.fail(ctx, span, "read", err)
	}

	if !found {
		s.logger.WarnContext(ctx, "Product not found",
			slog.String("product_id", id),
		)
		s.record(ctx, "read", "not_found")
		span.SetStatus(codes.Ok, "Product not found")
		return nil, false, nil
	}

	s.record(ctx, "read", "success")
	span.SetStatus(codes.Ok, "Product retrieved successfully")
	return product, true, nil
}

// CreateProduct stores product as a new record. Any ID supplied by the caller
// is discarded so that an existing product can never be overwritten here.
func (s *ProductService) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.name", product.Name),
		attribute.String("product.price", product.Price.String()),
	)

	s.logger.InfoContext(ctx, "Creating product",
		slog.String("name", textutil.Truncate(product.Name, logNameLimit)),
		slog.Bool("id_supplied", product.HasID()),
	)

	candidate := product.Clone()
	candidate.ID = ""

	created, err := s.repo.Save(ctx, candidate)
	if err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}

	span.SetAttributes(attribute.String("product.id", created.ID))

	s.productCreatedCounter.Add(ctx, 1)
	s.record(ctx, "create", "success")

	s.logger.InfoContext(ctx, "Product created successfully",
		slog.String("product_id", created.ID),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return created, nil
}

// UpdateProduct replaces the product with the given ID by product. ID and
// CreatedAt always come from the stored record. The boolean is false, and
// nothing is written, when no product has that ID.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, product *domain.Product) (*domain.Product, bool, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.UpdateProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	existing, found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, s.fail(ctx, span, "update", err)
	}
	if !found {
		s.logger.WarnContext(ctx, "Product to update not found",
			slog.String("product_id", id),
		)
		s.record(ctx, "update", "not_found")
		span.SetStatus(codes.Ok, "Product not found")
		return nil, false, nil
	}

	replacement := product.Clone()
	replacement.ID = existing.ID
	replacement.CreatedAt = existing.CreatedAt

	updated, err := s.repo.Save(ctx, replacement)
	if err != nil {
		return nil, false, s.fail(ctx, span, "update", err)
	}

	s.record(ctx, "update", "success")

	s.logger.InfoContext(ctx, "Product updated successfully",
		slog.String("product_id", updated.ID),
		slog.String("name", textutil.Truncate(updated.Name, logNameLimit)),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return updated, true, nil
}

// DeleteProduct removes the product with the given ID and reports whether it
// existed. The existence check and the delete are separate repository calls.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.DeleteProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	_, found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, s.fail(ctx, span, "delete", err)
	}
	if !found {
		s.logger.WarnContext(ctx, "Product to delete not found",
			slog.String("product_id", id),
		)
		s.record(ctx, "delete", "not_found")
		span.SetStatus(codes.Ok, "Product not found")
		return false, nil
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return false, s.fail(ctx, span, "delete", err)
	}

	s.record(ctx, "delete", "success")

	s.logger.InfoContext(ctx, "Product deleted successfully",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return true, nil
}

// GetProductsByCategory retrieves products tagged with category
func (s *ProductService) GetProductsByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProductsByCategory")
	defer span.End()

	span.SetAttributes(attribute.String("product.category", category))

	products, err := s.repo.FindByCategory(ctx, category)
	if err != nil {
		return nil, s.fail(ctx, span, "list_by_category", err)
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.record(ctx, "list_by_category", "success")

	s.logger.InfoContext(ctx, "Products listed by category",
		slog.String("category", category),
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products listed successfully")
	return products, nil
}

func (s *ProductService) record(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}

func (s *ProductService) fail(ctx context.Context, span trace.Span, operation string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "Repository call failed")
	s.logger.ErrorContext(ctx, "Product operation failed",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
	s.record(ctx, operation, "failure")
	return err
}

package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrops-br/products-catalog-api/internal/domain"
)

const productColumns = `id, name, description, sku, price::text, quantity_in_stock,
	categories, status, created_at, updated_at, created_by, updated_by`

const upsertProduct = `
	INSERT INTO products (id, name, description, sku, price, quantity_in_stock,
		categories, status, created_at, updated_at, created_by, updated_by)
	VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		sku = EXCLUDED.sku,
		price = EXCLUDED.price,
		quantity_in_stock = EXCLUDED.quantity_in_stock,
		categories = EXCLUDED.categories,
		status = EXCLUDED.status,
		created_at = EXCLUDED.created_at,
		updated_at = GREATEST(EXCLUDED.updated_at, products.updated_at + interval '1 microsecond'),
		created_by = EXCLUDED.created_by,
		updated_by = EXCLUDED.updated_by
	RETURNING ` + productColumns

// ProductRepository implements domain.ProductRepository against PostgreSQL.
type ProductRepository struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *slog.Logger
	now    func() time.Time
}

// NewProductRepository returns a repository backed by pool. The products
// table must exist; see Migrate.
func NewProductRepository(pool *pgxpool.Pool, tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		pool:   pool,
		tracer: tracer,
		logger: logger,
		now:    time.Now,
	}
}

// Save upserts the product in a single statement; UpdatedAt never moves backwards.
func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "PostgresProductRepository.Save")
	defer span.End()

	p := product.Clone()
	p.PrePersist(r.now().UTC().Truncate(time.Microsecond), time.Time{})

	row := r.pool.QueryRow(ctx, upsertProduct,
		p.ID,
		p.Name,
		p.Description,
		p.SKU,
		p.Price.String(),
		p.QuantityInStock,
		p.Categories.Values(),
		string(p.Status),
		p.CreatedAt,
		p.UpdatedAt,
		p.CreatedBy,
		p.UpdatedBy,
	)

	saved, err := scanProduct(row)
	if err != nil {
		return nil, r.fail(ctx, span, errors.Wrap(err, "upsert product"))
	}

	span.SetAttributes(attribute.String("product.id", saved.ID))
	r.logger.InfoContext(ctx, "Product saved in postgres",
		slog.String("product_id", saved.ID),
	)

	span.SetStatus(codes.Ok, "Product saved successfully")
	return saved, nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, bool, error) {
	ctx, span := r.tracer.Start(ctx, "PostgresProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetAttributes(attribute.Bool("product.found", false))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, r.fail(ctx, span, errors.Wrap(err, "query product"))
	}

	span.SetAttributes(attribute.Bool("product.found", true))
	span.SetStatus(codes.Ok, "Product found")
	return product, true, nil
}

// FindAll retrieves all products
func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "PostgresProductRepository.FindAll")
	defer span.End()

	products, err := r.query(ctx, `SELECT `+productColumns+` FROM products`)
	if err != nil {
		return nil, r.fail(ctx, span, errors.Wrap(err, "query products"))
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

// DeleteByID removes a product; unknown ids are ignored
func (r *ProductRepository) DeleteByID(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "PostgresProductRepository.DeleteByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return r.fail(ctx, span, errors.Wrap(err, "delete product"))
	}

	r.logger.InfoContext(ctx, "Product deleted from postgres",
		slog.String("product_id", id),
		slog.Int64("rows_affected", tag.RowsAffected()),
	)

	span.SetStatus(codes.Ok, "Product deleted")
	return nil
}

// FindByCategory retrieves products whose categories contain category
func (r *ProductRepository) FindByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "PostgresProductRepository.FindByCategory")
	defer span.End()

	span.SetAttributes(attribute.String("product.category", category))

	products, err := r.query(ctx, `SELECT `+productColumns+` FROM products WHERE $1 = ANY(categories)`, category)
	if err != nil {
		return nil, r.fail(ctx, span, errors.Wrap(err, "query products by category"))
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

func (r *ProductRepository) query(ctx context.Context, sql string, args ...any) ([]*domain.Product, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) fail(ctx context.Context, span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	r.logger.ErrorContext(ctx, "Postgres operation failed",
		slog.String("error", err.Error()),
	)
	return err
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p          domain.Product
		price      string
		categories []string
		status     string
	)

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.SKU,
		&price,
		&p.QuantityInStock,
		&categories,
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.CreatedBy,
		&p.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}

	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, errors.Wrapf(err, "parse price of product %s", p.ID)
	}
	if p.Status, err = domain.ParseProductStatus(status); err != nil {
		return nil, errors.Wrapf(err, "product %s", p.ID)
	}
	if len(categories) > 0 {
		p.Categories = domain.NewCategorySet(categories...)
	}
	return &p, nil
}

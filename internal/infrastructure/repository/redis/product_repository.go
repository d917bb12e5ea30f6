// Package redis stores products as JSON documents in Redis, with a set of all
// ids and one set per category as secondary indexes.
package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-faster/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrops-br/products-catalog-api/internal/domain"
)

const (
	idsKey         = "products"
	productPrefix  = "product:"
	categoryPrefix = "products:category:"

	maxTxRetries = 10
)

// ErrTooMuchContention is returned when an optimistic transaction keeps
// losing to concurrent writers of the same product.
var ErrTooMuchContention = errors.New("too much contention on product key")

func productKey(id string) string        { return productPrefix + id }
func categoryKey(category string) string { return categoryPrefix + category }

type productRecord struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	SKU             string          `json:"sku"`
	Price           decimal.Decimal `json:"price"`
	QuantityInStock int             `json:"quantityInStock"`
	Categories      []string        `json:"categories"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	CreatedBy       string          `json:"createdBy"`
	UpdatedBy       string          `json:"updatedBy"`
}

func toRecord(p *domain.Product) productRecord {
	var categories []string
	if p.Categories != nil {
		categories = p.Categories.Values()
	}
	return productRecord{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		SKU:             p.SKU,
		Price:           p.Price,
		QuantityInStock: p.QuantityInStock,
		Categories:      categories,
		Status:          string(p.Status),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		CreatedBy:       p.CreatedBy,
		UpdatedBy:       p.UpdatedBy,
	}
}

func (rec productRecord) toProduct() (*domain.Product, error) {
	status, err := domain.ParseProductStatus(rec.Status)
	if err != nil {
		return nil, errors.Wrapf(err, "product %s", rec.ID)
	}
	var categories domain.CategorySet
	if rec.Categories != nil {
		categories = domain.NewCategorySet(rec.Categories...)
	}
	return &domain.Product{
		BaseEntity: domain.BaseEntity{
			ID:        rec.ID,
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
			CreatedBy: rec.CreatedBy,
			UpdatedBy: rec.UpdatedBy,
		},
		Name:            rec.Name,
		Description:     rec.Description,
		SKU:             rec.SKU,
		Price:           rec.Price,
		QuantityInStock: rec.QuantityInStock,
		Categories:      categories,
		Status:          status,
	}, nil
}

// ProductRepository implements domain.ProductRepository on top of Redis.
type ProductRepository struct {
	client *goredis.Client
	tracer trace.Tracer
	logger *slog.Logger
	now    func() time.Time
}

// NewProductRepository returns a repository using client.
func NewProductRepository(client *goredis.Client, tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		client: client,
		tracer: tracer,
		logger: logger,
		now:    time.Now,
	}
}

// Save upserts the product inside a WATCH transaction on its key so the
// category index and UpdatedAt stay consistent with the replaced record.
func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "RedisProductRepository.Save")
	defer span.End()

	p := product.Clone()
	p.PrePersist(r.now(), time.Time{})
	key := productKey(p.ID)
	span.SetAttributes(attribute.String("product.id", p.ID))

	var replaced bool
	err := r.withRetries(ctx, key, func(tx *goredis.Tx) error {
		previous, found, err := load(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		replaced = found

		var stale domain.CategorySet
		if found {
			p.PrePersist(r.now(), previous.UpdatedAt)
			stale = previous.Categories
		}

		data, err := json.Marshal(toRecord(p))
		if err != nil {
			return errors.Wrap(err, "encode product")
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.SAdd(ctx, idsKey, p.ID)
			for category := range stale {
				if !p.Categories.Contains(category) {
					pipe.SRem(ctx, categoryKey(category), p.ID)
				}
			}
			for category := range p.Categories {
				pipe.SAdd(ctx, categoryKey(category), p.ID)
			}
			return nil
		})
		return err
	})
	if err != nil {
		return nil, r.fail(ctx, span, errors.Wrap(err, "save product"))
	}

	r.logger.InfoContext(ctx, "Product saved in redis",
		slog.String("product_id", p.ID),
		slog.Bool("replaced", replaced),
	)

	span.SetStatus(codes.Ok, "Product saved successfully")
	return p, nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, bool, error) {
	ctx, span := r.tracer.Start(ctx, "RedisProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	product, found, err := load(ctx, r.client, id)
	if err != nil {
		return nil, false, r.fail(ctx, span, errors.Wrap(err, "load product"))
	}

	span.SetAttributes(attribute.Bool("product.found", found))
	span.SetStatus(codes.Ok, "Lookup completed")
	return product, found, nil
}

// FindAll retrieves all products
func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "RedisProductRepository.FindAll")
	defer span.End()

	products, err := r.loadSet(ctx, idsKey, func(*domain.Product) bool { return true })
	if err != nil {
		return nil, r.fail(ctx, span, errors.Wrap(err, "load products"))
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

// DeleteByID removes a product and its index entries; unknown ids are ignored
func (r *ProductRepository) DeleteByID(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "RedisProductRepository.DeleteByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))
	key := productKey(id)

	var existed bool
	err := r.withRetries(ctx, key, func(tx *goredis.Tx) error {
		previous, found, err := load(ctx, tx, id)
		if err != nil {
			return err
		}
		existed = found

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, idsKey, id)
			if found {
				for category := range previous.Categories {
					pipe.SRem(ctx, categoryKey(category), id)
				}
			}
			return nil
		})
		return err
	})
	if err != nil {
		return r.fail(ctx, span, errors.Wrap(err, "delete product"))
	}

	r.logger.InfoContext(ctx, "Product deleted from redis",
		slog.String("product_id", id),
		slog.Bool("existed", existed),
	)

	span.SetStatus(codes.Ok, "Product deleted")
	return nil
}

// FindByCategory retrieves products whose categories contain category
func (r *ProductRepository) FindByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "RedisProductRepository.FindByCategory")
	defer span.End()

	span.SetAttributes(attribute.String("product.category", category))

	products, err := r.loadSet(ctx, categoryKey(category), func(p *domain.Product) bool {
		return p.Categories.Contains(category)
	})
	if err != nil {
		return nil, r.fail(ctx, span, errors.Wrap(err, "load products by category"))
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

func (r *ProductRepository) withRetries(ctx context.Context, key string, fn func(*goredis.Tx) error) error {
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := r.client.Watch(ctx, fn, key)
		if !errors.Is(err, goredis.TxFailedErr) {
			return err
		}
		r.logger.DebugContext(ctx, "Redis transaction conflict, retrying",
			slog.String("key", key),
			slog.Int("attempt", attempt+1),
		)
	}
	return ErrTooMuchContention
}

// loadSet resolves every id in setKey and keeps the products accepted by match.
// Ids whose document disappeared between the two reads are skipped.
func (r *ProductRepository) loadSet(ctx context.Context, setKey string, match func(*domain.Product) bool) ([]*domain.Product, error) {
	ids, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, err
	}

	products := make([]*domain.Product, 0, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		product, err := decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		if match(product) {
			products = append(products, product)
		}
	}
	return products, nil
}

func (r *ProductRepository) fail(ctx context.Context, span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	r.logger.ErrorContext(ctx, "Redis operation failed",
		slog.String("error", err.Error()),
	)
	return err
}

// getter is satisfied by both *goredis.Client and *goredis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func load(ctx context.Context, c getter, id string) (*domain.Product, bool, error) {
	raw, err := c.Get(ctx, productKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	product, err := decode(raw)
	if err != nil {
		return nil, false, err
	}
	return product, true, nil
}

func decode(raw []byte) (*domain.Product, error) {
	var rec productRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errors.Wrap(err, "decode product")
	}
	return rec.toProduct()
}

package seed

import (
	"context"
	"log/slog"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mrops-br/products-catalog-api/internal/domain"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/repository/memory"
)

func newRepository() *memory.ProductRepository {
	return memory.NewProductRepository(noop.NewTracerProvider().Tracer("test"), slog.New(slog.DiscardHandler))
}

func TestRandomProduct(t *testing.T) {
	faker := gofakeit.New(42)

	for i := 0; i < 50; i++ {
		p := RandomProduct(faker)

		assert.False(t, p.HasID())
		assert.NotEmpty(t, p.Name)
		assert.Regexp(t, `^[A-Z]{3}-[0-9]{10}$`, p.SKU)
		assert.True(t, p.Price.IsPositive())
		assert.True(t, p.Price.Equal(p.Price.Round(2)))
		assert.GreaterOrEqual(t, p.QuantityInStock, 0)
		assert.Less(t, p.QuantityInStock, 100)
		assert.NotEmpty(t, p.Categories)
		assert.LessOrEqual(t, len(p.Categories), 2)
		assert.Contains(t, domain.ProductStatuses, p.Status)
	}
}

func TestPopulate(t *testing.T) {
	repo := newRepository()
	ctx := context.Background()

	inserted, err := Populate(ctx, repo, 10, gofakeit.New(1))
	require.NoError(t, err)
	assert.Equal(t, 10, inserted)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	// a populated store is left alone
	inserted, err = Populate(ctx, repo, 10, gofakeit.New(2))
	require.NoError(t, err)
	assert.Zero(t, inserted)

	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 10)
}

func TestPopulate_Disabled(t *testing.T) {
	repo := newRepository()

	inserted, err := Populate(context.Background(), repo, 0, gofakeit.New(1))
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

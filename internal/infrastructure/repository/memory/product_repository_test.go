package memory

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mrops-br/products-catalog-api/internal/domain"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/repository/repotest"
)

func newTestRepository() *ProductRepository {
	return NewProductRepository(noop.NewTracerProvider().Tracer("test"), slog.New(slog.DiscardHandler))
}

func TestProductRepository_Contract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) domain.ProductRepository {
		return newTestRepository()
	})
}

func TestProductRepository_SaveStampsTimestamps(t *testing.T) {
	repo := newTestRepository()
	clock := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	ctx := context.Background()
	created, err := repo.Save(ctx, repotest.NewProduct("Widget"))
	require.NoError(t, err)
	assert.Equal(t, clock, created.CreatedAt)
	assert.Equal(t, clock, created.UpdatedAt)

	// a save on the same clock tick still moves UpdatedAt forward
	updated, err := repo.Save(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, clock, updated.CreatedAt)
	assert.Equal(t, clock.Add(time.Microsecond), updated.UpdatedAt)

	clock = clock.Add(time.Hour)
	updated, err = repo.Save(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, clock, updated.UpdatedAt)
}

func TestProductRepository_ConcurrentSameKey(t *testing.T) {
	repo := newTestRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, repotest.NewProduct("Widget"))
	require.NoError(t, err)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				_, _ = repo.Save(ctx, saved)
				_, _, _ = repo.FindByID(ctx, saved.ID)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

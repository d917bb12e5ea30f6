package redis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mrops-br/products-catalog-api/internal/domain"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/repository/repotest"
)

func newTestRepository(t *testing.T) (*ProductRepository, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := NewProductRepository(client, noop.NewTracerProvider().Tracer("test"), slog.New(slog.DiscardHandler))
	return repo, server
}

func TestProductRepository_Contract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) domain.ProductRepository {
		repo, _ := newTestRepository(t)
		return repo
	})
}

func TestProductRepository_MaintainsCategoryIndex(t *testing.T) {
	repo, server := newTestRepository(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, repotest.NewProduct("Shovel", "Tools", "Garden"))
	require.NoError(t, err)

	members, err := server.SMembers(categoryKey("Garden"))
	require.NoError(t, err)
	assert.Equal(t, []string{saved.ID}, members)

	saved.Categories = domain.NewCategorySet("Tools")
	_, err = repo.Save(ctx, saved)
	require.NoError(t, err)

	assert.False(t, server.Exists(categoryKey("Garden")), "stale category index entry left behind")

	require.NoError(t, repo.DeleteByID(ctx, saved.ID))
	assert.False(t, server.Exists(productKey(saved.ID)))
	assert.False(t, server.Exists(categoryKey("Tools")))
	assert.False(t, server.Exists(idsKey))
}

func TestProductRepository_UpdatedAtStrictlyIncreases(t *testing.T) {
	repo, _ := newTestRepository(t)
	clock := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }
	ctx := context.Background()

	first, err := repo.Save(ctx, repotest.NewProduct("Widget"))
	require.NoError(t, err)
	second, err := repo.Save(ctx, first)
	require.NoError(t, err)

	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))
}

func TestProductRepository_StorageFailure(t *testing.T) {
	repo, server := newTestRepository(t)
	server.Close()

	_, _, err := repo.FindByID(context.Background(), "any")
	assert.Error(t, err)

	_, err = repo.Save(context.Background(), repotest.NewProduct("Widget"))
	assert.Error(t, err)
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(context.Background(), "not-a-valid-url")
	assert.Error(t, err)

	server := miniredis.RunT(t)
	client, err := NewClient(context.Background(), "redis://"+server.Addr())
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}

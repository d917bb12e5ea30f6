// Package repotest holds the behavioural contract every
// domain.ProductRepository implementation is tested against.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrops-br/products-catalog-api/internal/domain"
)

// Factory returns an empty repository for a single subtest.
type Factory func(t *testing.T) domain.ProductRepository

// NewProduct returns a product without an id.
func NewProduct(name string, categories ...string) *domain.Product {
	var set domain.CategorySet
	if len(categories) > 0 {
		set = domain.NewCategorySet(categories...)
	}
	return &domain.Product{
		Name:            name,
		Description:     name + " description",
		SKU:             "SKU-" + name,
		Price:           decimal.RequireFromString("19.99"),
		QuantityInStock: 7,
		Categories:      set,
		Status:          domain.ProductStatusActive,
	}
}

// Run executes the repository contract against repositories built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Run("SaveAssignsFreshID", func(t *testing.T) { testSaveAssignsFreshID(t, newRepo(t)) })
	t.Run("SaveReplacesExistingRecord", func(t *testing.T) { testSaveReplaces(t, newRepo(t)) })
	t.Run("SaveWithUnknownIDInserts", func(t *testing.T) { testSaveUnknownID(t, newRepo(t)) })
	t.Run("PricesKeepFullPrecision", func(t *testing.T) { testPricePrecision(t, newRepo(t)) })
	t.Run("SaveDoesNotMutateArgument", func(t *testing.T) { testSaveDoesNotMutate(t, newRepo(t)) })
	t.Run("ReturnedProductsAreCopies", func(t *testing.T) { testReturnedCopies(t, newRepo(t)) })
	t.Run("FindByIDMissing", func(t *testing.T) { testFindByIDMissing(t, newRepo(t)) })
	t.Run("FindAll", func(t *testing.T) { testFindAll(t, newRepo(t)) })
	t.Run("DeleteByID", func(t *testing.T) { testDeleteByID(t, newRepo(t)) })
	t.Run("FindByCategory", func(t *testing.T) { testFindByCategory(t, newRepo(t)) })
	t.Run("ConcurrentSaves", func(t *testing.T) { testConcurrentSaves(t, newRepo(t)) })
	t.Run("PropertyFreshIDsAndCategoryFilter", func(t *testing.T) { testProperties(t, newRepo(t)) })
}

func testSaveAssignsFreshID(t *testing.T, repo domain.ProductRepository) {
	ctx := context.Background()

	first, err := repo.Save(ctx, NewProduct("Widget"))
	require.NoError(t, err)
	second, err := repo.Save(ctx, NewProduct("Widget"))
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, second.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.False(t, first.UpdatedAt.IsZero())

	found, ok, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Widget", found.Name)
	assert.True(t, found.Price.Equal(decimal.RequireFromString("19.99")))
	assert.Equal(t, "SKU-Widget", found.SKU)
	assert.Equal(t, 7, found.QuantityInStock)
}

func testSaveReplaces(t *testing.T, repo domain.ProductRepository) {
	ctx := context.Background()

	original, err := repo.Save(ctx, NewProduct("Widget", "Tools", "Garden"))
	require.NoError(t, err)

	replacement := &domain.Product{
		BaseEntity: domain.BaseEntity{ID: original.ID, CreatedAt: original.CreatedAt},
		Name:       "Widget2",
		Categories: domain.NewCategorySet("Kitchen"),
		Status:     domain.ProductStatusDiscontinued,
	}
	saved, err := repo.Save(ctx, replacement)
	require.NoError(t, err)

	assert.Equal(t, original.ID, saved.ID)
	assert.True(t, saved.CreatedAt.Equal(original.CreatedAt))
	assert.True(t, saved.UpdatedAt.After(original.UpdatedAt))

	found, ok, err := repo.FindByID(ctx, original.ID)
	require.NoError(t, err)
	require.True(t, ok)

	// full replace: fields absent from the replacement are not merged back
	assert.Equal(t, "Widget2", found.Name)
	assert.Empty(t, found.Description)
	assert.Empty(t, found.SKU)
	assert.Zero(t, found.QuantityInStock)
	assert.True(t, found.Price.IsZero())
	assert.Equal(t, []string{"Kitchen"}, found.Categories.Values())
	assert.Equal(t, domain.ProductStatusDiscontinued, found.Status)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	tools, err := repo.FindByCategory(ctx, "Tools")
	require.NoError(t, err)
	assert.Empty(t, tools)
}

func testSaveUnknownID(t *testing.T, repo domain.ProductRepository) {
	ctx := context.Background()

	p := NewProduct("Widget")
	p.ID = "caller-chosen-id"
	saved, err := repo.Save(ctx, p)
	require.NoError(t, err)

	assert.Equal(t, "caller-chosen-id", saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	_, ok, err := repo.FindByID(ctx, "caller-chosen-id")
	require.NoError(t, err)
	assert.True(t, ok)
}

func testPricePrecision(t *testing.T, repo domain.ProductRepository) {
	ctx := context.Background()

	for _, price := range []string{"1.005", "0.0001", "12345678901.5", "99999999999999.999"} {
		p := NewProduct("Priced " + price)
		p.Price = decimal.RequireFromString(price)

		saved, err := repo.Save(ctx, p)
		require.NoError(t, err, price)
		assert.True(t, saved.Price.Equal(p.Price), "save returned %s for %s", saved.Price, price)

		found, ok, err := repo.FindByID(ctx, saved.ID)
		require.NoError(t, err, price)
		require.True(t, ok, price)
		assert.True(t, found.Price.Equal(p.Price), "stored %s for %s", found.Price, price)
	}
}

func testSaveDoesNotMutate(t *testing.T, repo domain.ProductRepository) {
	p := NewProduct("Widget")

	saved, err := repo.Save(context.Background(), p)
	require.NoError(t, err)

	assert.NotEmpty(t, saved.ID)
	assert.Empty(t, p.ID)
	assert.True(t, p.CreatedAt.IsZero())
	assert.True(t, p.UpdatedAt.IsZero())
}

func testReturnedCopies(t *testing.T, repo domain.ProductRepository) {
	ctx := context.Background()

	saved, err := repo.Save(ctx, NewProduct("Widget", "Tools"))
	require.NoError(t, err)

	saved.Name = "mutated"
	saved.Categories.Add("Mutated")

	found, ok, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Widget", found.Name)
	assert.False(t, found.Categories.Contains("Mutated"))

	found.Name = "mutated again"
	again, _, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", again.Name)
}

func testFindByIDMissing(t *testing.T, repo domain.ProductRepository) {
	p, ok, err := repo.FindByID(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, p)
}

func testFindAll(t *testing.T, repo domain.ProductRepository) {
	ctx := context.Background()

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	ids := map[string]bool{}
	for i := 0; i < 3; i++ {
		saved, err := repo.Save(ctx, NewProduct(fmt.Sprintf("Product %d", i)))
		require.NoError(t, err)
		ids[saved.ID] = true
	}

	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, p := range all {
		assert.True(t, ids[p.ID], "unexpected id %s", p.ID)
	}
}

func testDeleteByID(t *testing.T, repo domain.ProductRepository) {
	ctx := context.Background()

	keep, err := repo.Save(ctx, NewProduct("Keep", "Tools"))
	require.NoError(t, err)
	gone, err := repo.Save(ctx, NewProduct("Gone", "Tools"))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByID(ctx, gone.ID))

	_, ok, err := repo.FindByID(ctx, gone.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	tools, err := repo.FindByCategory(ctx, "Tools")
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, keep.ID, tools[0].ID)

	// unknown ids are a no-op
	require.NoError(t, repo.DeleteByID(ctx, gone.ID))
	require.NoError(t, repo.DeleteByID(ctx, "never-existed"))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testFindByCategory(t *testing.T, repo domain.ProductRepository) {
	ctx := context.Background()

	tools, err := repo.Save(ctx, NewProduct("Hammer", "Tools"))
	require.NoError(t, err)
	both, err := repo.Save(ctx, NewProduct("Shovel", "Tools", "Garden"))
	require.NoError(t, err)
	_, err = repo.Save(ctx, NewProduct("Rake", "Garden"))
	require.NoError(t, err)
	_, err = repo.Save(ctx, NewProduct("Nothing"))
	require.NoError(t, err)
	empty := NewProduct("Empty")
	empty.Categories = domain.NewCategorySet()
	_, err = repo.Save(ctx, empty)
	require.NoError(t, err)

	found, err := repo.FindByCategory(ctx, "Tools")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{tools.ID, both.ID}, idsOf(found))

	found, err = repo.FindByCategory(ctx, "tools")
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = repo.FindByCategory(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func testConcurrentSaves(t *testing.T, repo domain.ProductRepository) {
	ctx := context.Background()
	const workers = 32

	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	ids := make(chan string, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			saved, err := repo.Save(ctx, NewProduct(fmt.Sprintf("Product %d", i), "Concurrent"))
			if err != nil {
				errs <- err
				return
			}
			saved.Name += " v2"
			if _, err := repo.Save(ctx, saved); err != nil {
				errs <- err
				return
			}
			if _, _, err := repo.FindByID(ctx, saved.ID); err != nil {
				errs <- err
				return
			}
			ids <- saved.ID
		}(i)
	}
	wg.Wait()
	close(errs)
	close(ids)

	for err := range errs {
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}

	all, err := repo.FindByCategory(ctx, "Concurrent")
	require.NoError(t, err)
	assert.Len(t, all, workers)
	for _, p := range all {
		assert.Contains(t, p.Name, " v2")
	}
}

func testProperties(t *testing.T, repo domain.ProductRepository) {
	ctx := context.Background()
	used := map[string]bool{}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	known := []string{"Books", "Toys", "Garden", "Tools"}

	properties.Property("saving without an id yields a fresh id and exact category matches", prop.ForAll(
		func(name string, mask int, probe string) bool {
			var categories []string
			for i, c := range known {
				if mask&(1<<i) != 0 {
					categories = append(categories, c)
				}
			}
			p := NewProduct(name, categories...)
			saved, err := repo.Save(ctx, p)
			if err != nil {
				t.Logf("save failed: %v", err)
				return false
			}
			if saved.ID == "" || used[saved.ID] {
				t.Logf("id %q is empty or reused", saved.ID)
				return false
			}
			used[saved.ID] = true

			all, err := repo.FindAll(ctx)
			if err != nil {
				return false
			}
			want := map[string]bool{}
			for _, stored := range all {
				if stored.Categories.Contains(probe) {
					want[stored.ID] = true
				}
			}

			matched, err := repo.FindByCategory(ctx, probe)
			if err != nil || len(matched) != len(want) {
				return false
			}
			for _, m := range matched {
				if !want[m.ID] {
					return false
				}
			}
			return true
		},
		gen.AlphaString(),
		gen.IntRange(0, 1<<len(known)-1),
		gen.OneConstOf("Books", "Toys", "Garden", "Tools", "Music"),
	))

	properties.TestingRun(t)
}

func idsOf(products []*domain.Product) []string {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}

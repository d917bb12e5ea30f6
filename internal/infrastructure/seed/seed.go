// Package seed fills an empty product store with randomly generated products.
package seed

import (
	"context"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mrops-br/products-catalog-api/internal/domain"
)

// RandomProduct builds a product without an id from faker.
func RandomProduct(faker *gofakeit.Faker) *domain.Product {
	categories := domain.NewCategorySet(faker.ProductCategory())
	if faker.Bool() {
		categories.Add(faker.ProductCategory())
	}

	return &domain.Product{
		Name:            faker.ProductName(),
		Description:     faker.ProductDescription(),
		SKU:             strings.ToUpper(faker.LetterN(3)) + "-" + faker.Numerify("##########"),
		Price:           decimal.NewFromFloat(faker.Price(1, 1000)).Round(2),
		QuantityInStock: faker.IntRange(0, 99),
		Categories:      categories,
		Status:          domain.ProductStatuses[faker.IntRange(0, len(domain.ProductStatuses)-1)],
	}
}

// Populate saves n random products into repo when it holds no products yet.
// It returns how many products were inserted.
func Populate(ctx context.Context, repo domain.ProductRepository, n int, faker *gofakeit.Faker) (int, error) {
	if n <= 0 {
		return 0, nil
	}

	existing, err := repo.FindAll(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "check existing products")
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for i := 0; i < n; i++ {
		if _, err := repo.Save(ctx, RandomProduct(faker)); err != nil {
			return i, errors.Wrapf(err, "seed product %d", i)
		}
	}
	return n, nil
}

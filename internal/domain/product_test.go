package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_IsAvailable(t *testing.T) {
	tests := []struct {
		name     string
		status   ProductStatus
		quantity int
		want     bool
	}{
		{"active with stock", ProductStatusActive, 5, true},
		{"active without stock", ProductStatusActive, 0, false},
		{"discontinued with stock", ProductStatusDiscontinued, 5, false},
		{"out of stock status", ProductStatusOutOfStock, 5, false},
		{"no status", "", 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{Status: tt.status, QuantityInStock: tt.quantity}
			assert.Equal(t, tt.want, p.IsAvailable())
		})
	}
}

func TestProduct_CloneIsIndependent(t *testing.T) {
	original := &Product{
		BaseEntity: BaseEntity{ID: "p-1"},
		Name:       "Widget",
		Price:      decimal.RequireFromString("9.99"),
		Categories: NewCategorySet("Tools"),
	}

	clone := original.Clone()
	clone.Name = "Gadget"
	clone.Categories.Add("Garden")

	assert.Equal(t, "Widget", original.Name)
	assert.False(t, original.Categories.Contains("Garden"))
	assert.True(t, clone.Price.Equal(original.Price))
	assert.Nil(t, (*Product)(nil).Clone())
}

func TestParseProductStatus(t *testing.T) {
	for _, status := range ProductStatuses {
		got, err := ParseProductStatus(string(status))
		require.NoError(t, err)
		assert.Equal(t, status, got)
	}

	got, err := ParseProductStatus("")
	require.NoError(t, err)
	assert.Equal(t, ProductStatus(""), got)

	_, err = ParseProductStatus("active")
	assert.ErrorIs(t, err, ErrInvalidProductStatus)
}

package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	t.Run("valid product", func(t *testing.T) {
		p, err := NewProduct("Маргарита 350г", "PM-350", CategoryPizza, decimal.NewFromInt(120), 8)
		require.NoError(t, err)
		assert.True(t, p.IsActive)
		assert.Equal(t, 8, p.PiecesPerBox)
	})

	t.Run("rejects blank name", func(t *testing.T) {
		_, err := NewProduct("  ", "X", CategoryPizza, decimal.Zero, 8)
		assert.Error(t, err)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewProduct("Test", "X", CategoryPizza, decimal.NewFromInt(-1), 8)
		assert.Error(t, err)
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		_, err := NewProduct("Test", "X", ProductCategory("SNACK"), decimal.Zero, 8)
		assert.Error(t, err)
	})
}

func TestProduct_Boxes(t *testing.T) {
	p, _ := NewProduct("Маргарита", "PM", CategoryPizza, decimal.NewFromInt(120), 8)

	assert.Equal(t, 2, p.Boxes(16))
	assert.Equal(t, 2, p.Boxes(23))
	assert.Equal(t, 0, p.Boxes(7))

	p.PiecesPerBox = 0
	assert.Equal(t, 0, p.Boxes(100))
}

func TestProduct_Stock(t *testing.T) {
	p, _ := NewProduct("Маргарита", "PM", CategoryPizza, decimal.NewFromInt(120), 8)

	require.NoError(t, p.AddStock(50))
	require.NoError(t, p.Reserve(20))
	assert.Equal(t, 30, p.AvailableStock())

	t.Run("release is clamped", func(t *testing.T) {
		released := p.Release(25)
		assert.Equal(t, 20, released)
		assert.Equal(t, 0, p.ReservedStock)
	})

	t.Run("remove beyond total fails", func(t *testing.T) {
		assert.Error(t, p.RemoveStock(51))
	})

	t.Run("below min stock", func(t *testing.T) {
		p.MinStock = 60
		assert.True(t, p.IsBelowMinStock())
	})
}

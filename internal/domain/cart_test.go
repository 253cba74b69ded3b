package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(id int, price float64) ProductSnapshot {
	return ProductSnapshot{ID: id, Title: "Product", Price: price}
}

// ============================================================================
// Add / Increment / Decrement / Remove
// ============================================================================

func TestAdd_SameIDAccumulates(t *testing.T) {
	c := NewCart()
	for range 5 {
		c.Add(snap(1, 9.99))
	}
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 5, c.Lines[0].Quantity)
}

func TestAdd_KeepsInsertionOrder(t *testing.T) {
	c := NewCart()
	c.Add(snap(3, 1))
	c.Add(snap(1, 1))
	c.Add(snap(3, 1))
	require.Len(t, c.Lines, 2)
	assert.Equal(t, 3, c.Lines[0].ID)
	assert.Equal(t, 1, c.Lines[1].ID)
}

func TestDecrement_RemovesLineAtOne(t *testing.T) {
	c := NewCart()
	c.Add(snap(1, 10))
	c.Add(snap(1, 10))

	assert.True(t, c.Decrement(1))
	assert.Equal(t, 1, c.Lines[0].Quantity)
	assert.True(t, c.Decrement(1))
	assert.Empty(t, c.Lines)
}

func TestDecrement_NeverLeavesNonPositiveQuantity(t *testing.T) {
	c := NewCart()
	c.Add(snap(1, 1))
	c.Add(snap(2, 1))
	for range 10 {
		c.Decrement(1)
		for _, l := range c.Lines {
			assert.GreaterOrEqual(t, l.Quantity, 1)
		}
	}
	assert.Equal(t, -1, c.Find(1))
	assert.Equal(t, 0, c.Find(2))
}

func TestIncrementDecrement_MissingID(t *testing.T) {
	c := NewCart()
	assert.False(t, c.Increment(42))
	assert.False(t, c.Decrement(42))
	assert.Empty(t, c.Lines)
}

func TestRemove_MissingIDIsNoop(t *testing.T) {
	c := NewCart()
	c.Add(snap(1, 1))
	c.Remove(2)
	assert.Len(t, c.Lines, 1)
	c.Remove(1)
	assert.Empty(t, c.Lines)
}

// ============================================================================
// Totals
// ============================================================================

func TestTotal_Exact(t *testing.T) {
	c := NewCart()
	c.Add(snap(1, 0.1))
	c.Add(snap(1, 0.1))
	c.Add(snap(1, 0.1))
	c.Add(snap(2, 109.95))

	assert.Equal(t, "110.25", c.Total().String())
	assert.Equal(t, "110.25", c.TotalDisplay())
	assert.Equal(t, 4, c.Count())
}

func TestTotal_AddThenRemoveRestores(t *testing.T) {
	c := NewCart()
	c.Add(snap(1, 22.3))
	before := c.Total()

	c.Add(snap(2, 55.99))
	c.Remove(2)
	assert.True(t, before.Equal(c.Total()))
}

func TestTotalDisplay_Scenario(t *testing.T) {
	c := NewCart()
	c.Add(snap(1, 10))
	assert.Equal(t, "10.00", c.TotalDisplay())
	c.Add(snap(1, 10))
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.Equal(t, "20.00", c.TotalDisplay())
	c.Decrement(1)
	assert.Equal(t, "10.00", c.TotalDisplay())
	c.Decrement(1)
	assert.Empty(t, c.Lines)
	assert.Equal(t, "0.00", c.TotalDisplay())
}

// ============================================================================
// Serialization and normalization
// ============================================================================

func TestCartLine_FlatJSON(t *testing.T) {
	line := CartLine{ProductSnapshot: ProductSnapshot{ID: 1, Title: "Bag", Price: 109.95, Image: "i.png"}, Quantity: 2}
	b, err := json.Marshal(line)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"title":"Bag","price":109.95,"image":"i.png","quantity":2}`, string(b))
}

func TestNormalize_DropsInvalidLines(t *testing.T) {
	c := &Cart{Lines: []CartLine{
		{ProductSnapshot: snap(1, 1), Quantity: 2},
		{ProductSnapshot: snap(2, 1), Quantity: 0},
		{ProductSnapshot: snap(1, 1), Quantity: 5},
		{ProductSnapshot: snap(0, 1), Quantity: 1},
		{ProductSnapshot: snap(3, -5), Quantity: 2},
	}}
	c.Normalize()
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity)
}

func TestProduct_SnapshotDropsRating(t *testing.T) {
	p := Product{ID: 7, Title: "Ring", Price: 9.99, Category: "jewelery", Rating: &Rating{Rate: 3.9, Count: 120}}
	s := p.Snapshot()
	assert.Equal(t, ProductSnapshot{ID: 7, Title: "Ring", Price: 9.99, Category: "jewelery"}, s)
	assert.Equal(t, "7", s.IDString())
}

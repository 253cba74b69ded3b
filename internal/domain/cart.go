package domain

import "github.com/shopspring/decimal"

// CartLine is one product in the cart. It serializes flat: the snapshot
// fields followed by quantity.
type CartLine struct {
	ProductSnapshot
	Quantity int `json:"quantity"`
}

// LineTotal is price × quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds lines in the order they were first added. There is at most one
// line per product id and every quantity is at least 1.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{Lines: []CartLine{}}
}

// Find returns the index of the line for id, or -1.
func (c *Cart) Find(id int) int {
	for i := range c.Lines {
		if c.Lines[i].ID == id {
			return i
		}
	}
	return -1
}

// Add increments the line for p, or appends a new line with quantity 1.
func (c *Cart) Add(p ProductSnapshot) {
	if i := c.Find(p.ID); i >= 0 {
		c.Lines[i].Quantity++
		return
	}
	c.Lines = append(c.Lines, CartLine{ProductSnapshot: p, Quantity: 1})
}

// Increment adds one to the line for id. It reports false if there is no line.
func (c *Cart) Increment(id int) bool {
	i := c.Find(id)
	if i < 0 {
		return false
	}
	c.Lines[i].Quantity++
	return true
}

// Decrement subtracts one from the line for id, dropping the line when it
// reaches zero. It reports false if there is no line.
func (c *Cart) Decrement(id int) bool {
	i := c.Find(id)
	if i < 0 {
		return false
	}
	if c.Lines[i].Quantity <= 1 {
		c.removeAt(i)
		return true
	}
	c.Lines[i].Quantity--
	return true
}

// Remove drops the line for id if present.
func (c *Cart) Remove(id int) {
	if i := c.Find(id); i >= 0 {
		c.removeAt(i)
	}
}

func (c *Cart) removeAt(i int) {
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

// Total is the exact sum of every line total.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// TotalDisplay renders Total rounded to two decimal places.
func (c *Cart) TotalDisplay() string {
	return c.Total().StringFixed(2)
}

// Count is the sum of quantities, used for the cart badge.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Normalize drops lines that break the cart invariants: non-positive
// quantities, negative prices, ids below 1 and repeated ids (the first line
// wins).
func (c *Cart) Normalize() {
	seen := make(map[int]struct{}, len(c.Lines))
	kept := c.Lines[:0]
	for _, l := range c.Lines {
		if l.Quantity < 1 || l.ID < 1 || l.Price < 0 {
			continue
		}
		if _, dup := seen[l.ID]; dup {
			continue
		}
		seen[l.ID] = struct{}{}
		kept = append(kept, l)
	}
	c.Lines = kept
}

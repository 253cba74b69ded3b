package domain

import "strconv"

// Rating is the catalog's review summary. It is never persisted.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product is a catalog entry as returned by the product API.
type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      *Rating `json:"rating,omitempty"`
}

// ProductSnapshot is the subset of a product copied into a cart line or
// wishlist entry at the time it was added. Later catalog changes do not
// affect it.
type ProductSnapshot struct {
	ID          int     `json:"id" validate:"required,gte=1"`
	Title       string  `json:"title" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	Image       string  `json:"image,omitempty"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
}

// Snapshot copies the persisted fields of p.
func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price,
		Image:       p.Image,
		Description: p.Description,
		Category:    p.Category,
	}
}

// IDString formats the id for error messages and storage keys.
func (s ProductSnapshot) IDString() string {
	return strconv.Itoa(s.ID)
}

package domain

// Wishlist is a set of product snapshots kept in insertion order.
type Wishlist struct {
	Items []ProductSnapshot `json:"items"`
}

// NewWishlist returns an empty wishlist.
func NewWishlist() *Wishlist {
	return &Wishlist{Items: []ProductSnapshot{}}
}

// Contains reports whether id is in the wishlist.
func (w *Wishlist) Contains(id int) bool {
	for _, it := range w.Items {
		if it.ID == id {
			return true
		}
	}
	return false
}

// Toggle removes p if present, otherwise appends it. It reports whether p
// was added.
func (w *Wishlist) Toggle(p ProductSnapshot) (added bool) {
	for i, it := range w.Items {
		if it.ID == p.ID {
			w.Items = append(w.Items[:i], w.Items[i+1:]...)
			return false
		}
	}
	w.Items = append(w.Items, p)
	return true
}

// Normalize drops invalid ids, negative prices and repeated ids, keeping the
// first occurrence.
func (w *Wishlist) Normalize() {
	seen := make(map[int]struct{}, len(w.Items))
	kept := w.Items[:0]
	for _, it := range w.Items {
		if it.ID < 1 || it.Price < 0 {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		kept = append(kept, it)
	}
	w.Items = kept
}

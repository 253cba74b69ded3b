// Package storage persists small per-client values such as the cart, the
// wishlist and the session flag. Values are opaque bytes; callers own the
// encoding.
package storage

import (
	"context"
	"errors"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Well-known keys. Each client has at most one value per key.
const (
	KeyCart     = "cart"
	KeyWishlist = "wishlist"
	KeySession  = "hasVisitedLogin"
)

const namespace = "storefront"

// Storage is a per-client key/value store. Get returns an error matching
// apperrors.ErrNotFound when the key is absent. Concurrent writers to the same
// key are last-write-wins.
type Storage interface {
	Get(ctx context.Context, clientID, key string) ([]byte, error)
	Set(ctx context.Context, clientID, key string, value []byte) error
	Delete(ctx context.Context, clientID, key string) error
	Ping(ctx context.Context) error
}

// Key returns the namespaced backend key for a client value.
func Key(clientID, key string) string {
	return namespace + ":" + clientID + ":" + key
}

// ErrNotFound builds the error drivers return for an absent key.
func ErrNotFound(clientID, key string) error {
	return apperrors.NotFound("storage key", Key(clientID, key))
}

// IsNotFound reports whether err means the key is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}

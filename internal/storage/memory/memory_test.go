package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/storage"
)

func TestStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Get(ctx, "c1", storage.KeyCart)
	assert.True(t, storage.IsNotFound(err))

	require.NoError(t, s.Set(ctx, "c1", storage.KeyCart, []byte(`[]`)))
	got, err := s.Get(ctx, "c1", storage.KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, s.Delete(ctx, "c1", storage.KeyCart))
	_, err = s.Get(ctx, "c1", storage.KeyCart)
	assert.True(t, storage.IsNotFound(err))
	assert.NoError(t, s.Ping(ctx))
}

func TestStorage_ClientsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Set(ctx, "a", storage.KeySession, []byte("true")))
	_, err := s.Get(ctx, "b", storage.KeySession)
	assert.True(t, storage.IsNotFound(err))
	assert.Equal(t, 1, s.Len())
}

func TestStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	in := []byte("abc")
	require.NoError(t, s.Set(ctx, "c", "k", in))
	in[0] = 'x'

	out, err := s.Get(ctx, "c", "k")
	require.NoError(t, err)
	out[1] = 'y'

	again, err := s.Get(ctx, "c", "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

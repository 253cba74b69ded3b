package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"electronics", "electronics"},
		{"men's clothing", "mens-clothing"},
		{"women’s clothing", "womens-clothing"},
		{"  Jewelery  ", "jewelery"},
		{"Home & Garden", "home-garden"},
		{"---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("men's clothing", "men's clothing"))
	assert.True(t, Matches("men's clothing", "mens-clothing"))
	assert.False(t, Matches("men's clothing", "womens-clothing"))
	assert.False(t, Matches("men's clothing", ""))
}

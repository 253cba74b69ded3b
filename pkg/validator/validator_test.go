package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshotInput struct {
	ID       int     `json:"id" validate:"gt=0"`
	Title    string  `json:"title" validate:"required,max=500"`
	Price    float64 `json:"price" validate:"gte=0"`
	Category string  `json:"category" validate:"omitempty,oneof=electronics jewelery"`
}

type loginInput struct {
	Email string `json:"email" validate:"omitempty,email"`
}

func TestValidate_Success(t *testing.T) {
	err := Validate(snapshotInput{ID: 1, Title: "Backpack", Price: 109.95})
	assert.NoError(t, err)
}

func TestValidate_FieldMessages(t *testing.T) {
	err := Validate(snapshotInput{ID: 0, Price: -1, Category: "toys"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "must be greater than 0", fields["ID"])
	assert.Equal(t, "is required", fields["Title"])
	assert.Equal(t, "must be greater than or equal to 0", fields["Price"])
	assert.Equal(t, "must be one of: electronics jewelery", fields["Category"])
	assert.Contains(t, valErr.Error(), "field 'Title' is required")
}

func TestValidate_Email(t *testing.T) {
	err := Validate(loginInput{Email: "not-an-email"})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid email address", valErr.Fields()["Email"])
}

func TestDecodeAndValidate_Success(t *testing.T) {
	body := `{"id":3,"title":"Jacket","price":55.99}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var dst snapshotInput
	err := DecodeAndValidate(req, &dst, false)

	require.NoError(t, err)
	assert.Equal(t, 3, dst.ID)
	assert.Equal(t, "Jacket", dst.Title)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))

	var dst snapshotInput
	err := DecodeAndValidate(req, &dst, false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))

	var login loginInput
	assert.NoError(t, DecodeAndValidate(req, &login, true))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	var snap snapshotInput
	assert.Error(t, DecodeAndValidate(req, &snap, false))
}

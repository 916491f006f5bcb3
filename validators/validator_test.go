package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title string `json:"title" validate:"required,max=5"`
	Body  string `form:"body" validate:"required"`
}

func TestFieldErrors(t *testing.T) {
	v := NewValidator()

	err := v.Validate(sample{Title: "too long title"})
	require.Error(t, err)

	fields := FieldErrors(err)
	assert.Equal(t, "The title field must not be greater than 5 characters.", fields["title"])
	assert.Equal(t, "The body field is required.", fields["body"])
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FieldErrors(assert.AnError))
	assert.NoError(t, NewValidator().Validate(sample{Title: "ok", Body: "x"}))
}

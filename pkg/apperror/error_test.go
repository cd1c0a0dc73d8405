package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, BadRequest("bad").Code)
	assert.Equal(t, http.StatusNotFound, NotFound("gone").Code)
	assert.Equal(t, http.StatusServiceUnavailable, Unavailable("off").Code)

	v := Validation([]string{"email: invalid"})
	assert.Equal(t, http.StatusBadRequest, v.Code)
	assert.Equal(t, []string{"email: invalid"}, v.Errors)
}

func TestInternalWrapsCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Internal(cause)

	assert.Equal(t, "Internal Server Error", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NotFound("Share not found"))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Code)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

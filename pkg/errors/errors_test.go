package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
}

func TestClonedErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("outer: %w", Clone(ErrForbidden, "not your college"))
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "not your college", FromError(err).Message)
}

func TestValidationHelper(t *testing.T) {
	err := Validation("invalid %s", "page")
	assert.Equal(t, ErrValidation.Code, err.Code)
	assert.Equal(t, "invalid page", err.Message)
}

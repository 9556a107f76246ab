package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registration struct {
	PRN    string   `json:"prn" validate:"required"`
	Email  string   `json:"email,omitempty" validate:"required,email"`
	CGPA   *float64 `json:"cgpa" validate:"omitempty,gte=0,lte=10"`
	Secret string   `json:"-"`
}

func TestInvalidListsJSONFieldNames(t *testing.T) {
	cgpa := 11.0
	err := NewValidator().Struct(registration{Email: "not-an-email", CGPA: &cgpa})
	require.Error(t, err)

	out := Invalid(err, "invalid registration payload")
	assert.Equal(t, ErrValidation.Code, out.Code)
	assert.Equal(t, http.StatusBadRequest, out.Status)
	assert.Equal(t, map[string]string{"prn": "required", "email": "email", "cgpa": "lte"}, out.Fields)
	assert.True(t, errors.Is(out, ErrValidation))
}

func TestInvalidWithoutValidatorFailures(t *testing.T) {
	out := Invalid(errors.New("bad date"), "invalid date of birth")
	assert.Nil(t, out.Fields)
	assert.Equal(t, "invalid date of birth: bad date", out.Error())
}

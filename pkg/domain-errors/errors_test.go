package derrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	err := New(CodeUnauthorized, "session rejected")
	assert.True(t, HasCode(err, CodeUnauthorized))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeUnauthorized))
}

func TestHasCode_Wrapped(t *testing.T) {
	inner := New(CodeInvalidInput, "siret must be 14 digits")
	outer := fmt.Errorf("sign-up rejected: %w", inner)
	assert.True(t, HasCode(outer, CodeInvalidInput))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "profile fetch failed")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeUnavailable, CodeOf(err))
	assert.Contains(t, err.Error(), "profile fetch failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCodeOf_Default(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodePropagation(t *testing.T) {
	t.Run("New carries its code", func(t *testing.T) {
		err := New(CodeForbidden, "admins only")
		assert.True(t, HasCode(err, CodeForbidden))
		assert.False(t, HasCode(err, CodeValidation))
		assert.Equal(t, CodeForbidden, GetCode(err))
	})

	t.Run("Wrap preserves the cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeUnavailable, "mail relay unreachable")
		require.ErrorIs(t, err, cause)
		assert.True(t, HasCode(err, CodeUnavailable))
	})

	t.Run("Is finds codes deep in a chain", func(t *testing.T) {
		inner := New(CodeInvalidState, "already verified")
		outer := fmt.Errorf("submit verification: %w", inner)
		assert.True(t, Is(outer, CodeInvalidState))
	})

	t.Run("Wrap of nil is nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("uncoded errors default to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, GetCode(errors.New("boom")))
	})
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeBadRequest:         http.StatusBadRequest,
		CodeInvalidInput:       http.StatusBadRequest,
		CodeInvariantViolation: http.StatusBadRequest,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodeInvalidState:       http.StatusConflict,
		CodeUnavailable:        http.StatusBadGateway,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}

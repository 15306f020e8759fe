package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"tagged transient", NewTransientError(errors.New("x"), ""), true},
		{"tagged permanent", NewPermanentError(errors.New("x"), ""), false},
		{"wrapped transient", fmt.Errorf("outer: %w", NewTransientError(errors.New("x"), "")), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"deadline exceeded", errors.New("context deadline exceeded"), true},
		{"plain", errors.New("bad selector"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	assert.True(t, IsTransientHTTPStatus(http.StatusTooManyRequests))
	assert.True(t, IsTransientHTTPStatus(http.StatusServiceUnavailable))
	assert.False(t, IsTransientHTTPStatus(http.StatusUnauthorized))
	assert.False(t, IsTransientHTTPStatus(http.StatusOK))
}

func TestErrorMessagesAndUnwrap(t *testing.T) {
	inner := errors.New("inner")
	te := NewTransientError(inner, "try again later")
	assert.Equal(t, "try again later", te.Error())
	assert.ErrorIs(t, te, inner)

	pe := NewPermanentError(inner, "")
	assert.Contains(t, pe.Error(), "permanent error")
	assert.ErrorIs(t, pe, inner)
}

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "validation failed: FirstName - is required", NewValidationError("FirstName", "is required").Error())
	assert.Equal(t, "validation failed: empty filter", NewValidationError("", "empty filter").Error())
}

func TestNotFoundError_Error(t *testing.T) {
	assert.Equal(t, "user not found", NewNotFoundError("user", "").Error())
	assert.Equal(t, "no user matches first_name=Nick", NewNotFoundError("user", "no user matches first_name=Nick").Error())
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewInternalError("failed to list users", cause)

	assert.Equal(t, "failed to list users: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "validation", err: NewValidationError("Age", "too large"), status: http.StatusBadRequest, code: "validation_error"},
		{name: "not found", err: NewNotFoundError("user", ""), status: http.StatusNotFound, code: "not_found"},
		{name: "internal", err: NewInternalError("boom", nil), status: http.StatusInternalServerError, code: "internal_error"},
		{name: "wrapped not found", err: fmt.Errorf("lookup: %w", NewNotFoundError("user", "")), status: http.StatusNotFound, code: "not_found"},
		{name: "plain error", err: stderrors.New("plain"), status: http.StatusInternalServerError, code: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, StatusOf(tt.err))
			assert.Equal(t, tt.code, Code(tt.err))
		})
	}
}

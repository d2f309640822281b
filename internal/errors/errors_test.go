package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryStatus(t *testing.T) {
	cases := []struct {
		err    *APIError
		code   ErrorCode
		status int
	}{
		{NotFound("user"), ErrNotFound, http.StatusNotFound},
		{Unauthorized("no token"), ErrUnauthorized, http.StatusUnauthorized},
		{Forbidden("not yours"), ErrForbidden, http.StatusForbidden},
		{BadRequest("bad input"), ErrBadRequest, http.StatusBadRequest},
		{InternalError("boom"), ErrInternalError, http.StatusInternalServerError},
		{RateLimited(""), ErrRateLimited, http.StatusTooManyRequests},
		{Unavailable(""), ErrUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, tc.err.Code)
		assert.Equal(t, tc.status, tc.err.Status)
		assert.NotEmpty(t, tc.err.Message)
	}
}

func TestValidationErrorIncludesField(t *testing.T) {
	err := ValidationError("username", "too short")
	assert.Equal(t, "username", err.Field)
	assert.Contains(t, err.Error(), "field: username")
}

func TestStatusCodeFallback(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("UNKNOWN").StatusCode())
	assert.Equal(t, http.StatusNotFound, ErrNotFound.StatusCode())
}

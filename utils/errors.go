package utils

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// APIError is a handler-visible failure. Services return it wrapped in a
// plain error; controllers translate it to a JSON response.
type APIError struct {
	Status     int    `json:"-"`
	Message    string `json:"error"`
	Field      string `json:"field,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"` // seconds, rate limiting only
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

func FieldError(message, field string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: message, Field: field}
}

// RespondError writes err as a JSON error response. Anything that is not
// an *APIError becomes a 500 without leaking internals.
func RespondError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(apiErr.RetryAfter))
		}
		c.JSON(apiErr.Status, apiErr)
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

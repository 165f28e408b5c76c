package app_error

import (
	"errors"

	"github.com/gin-gonic/gin"
)

type statusError struct {
	error
	status int
}

func (e statusError) Unwrap() error {
	return e.error
}

func (e statusError) HTTPStatus() int {
	return e.status
}

// New attaches the HTTP status a handler should answer with to err.
func New(err error, status int) error {
	return statusError{error: err, status: status}
}

// WithHTTPStatus writes err as a JSON error response, using the attached
// status when the error carries one and fallback otherwise.
func WithHTTPStatus(c *gin.Context, err error, fallback int) {
	var se statusError
	if errors.As(err, &se) {
		c.JSON(se.status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(fallback, gin.H{"error": err.Error()})
}

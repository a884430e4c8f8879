package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/termbridge/internal/providers/terminal"
	"github.com/GriffinCanCode/termbridge/internal/service"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, terminal.ErrSessionNotFound),
		errors.Is(err, service.ErrServiceNotFound),
		errors.Is(err, service.ErrToolNotFound):
		return http.StatusNotFound
	case errors.Is(err, terminal.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, terminal.ErrInvalidSize),
		errors.Is(err, terminal.ErrInvalidParams),
		errors.Is(err, service.ErrInvalidToolID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"checkout/internal/admission"
	"checkout/internal/gateway"
	"checkout/internal/repository"
	"checkout/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// rawGateway returns the gateway body exactly as it was received.
func rawGateway(resp *gateway.Response) json.RawMessage {
	if resp == nil {
		return nil
	}
	if len(resp.Raw) > 0 {
		return resp.Raw
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return nil
	}
	return data
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidOrderID),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidCurrency),
		errors.Is(err, service.ErrInvalidCustomer),
		errors.Is(err, service.ErrInvalidCard):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrOrderLocked),
		errors.Is(err, service.ErrOrderCompleted),
		errors.Is(err, service.ErrOrderNotAdmitted),
		errors.Is(err, service.ErrSessionAlreadyInitiated),
		errors.Is(err, service.ErrSessionNotInitiated),
		errors.Is(err, admission.ErrAlreadyAdmitted):
		return http.StatusConflict

	// Upstream errors
	case errors.Is(err, gateway.ErrTransport),
		errors.Is(err, gateway.ErrDecode):
		return http.StatusBadGateway

	// Service unavailable
	case errors.Is(err, service.ErrGatewayBusy),
		errors.Is(err, admission.ErrClosed):
		return http.StatusServiceUnavailable

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// Package handlers provides HTTP handler implementations for the watch form,
// the reactivation link and the JSON read model.
//
// This file defines the response utilities shared by every endpoint. Browser
// routes negotiate between an HTML view and a JSON body (render, renderError);
// API routes always answer JSON (fail, ok). Every error carries the same
// ErrorResponse envelope with a stable code.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "invalid_token",
//	  "message": "Unable to perform this action, invalid token."
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/serverwatch/availability-watch/internal/http/middleware"
)

// View template names.
const (
	viewIndex      = "index.tmpl"
	viewReactivate = "reactivate.tmpl"
	viewError      = "error.tmpl"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
// It doubles as the data of the error view.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"invalid_token"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"Unable to perform this action, invalid token."`
	// Field-level validation messages, keyed by form field name
	Fields map[string]string `json:"fields,omitempty"`
}

func newErrorResponse(c *gin.Context, code, msg string) ErrorResponse {
	return ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}
}

// logServerError records 5xx outcomes with the request-scoped logger.
func logServerError(c *gin.Context, status int, code string, err error) {
	if status < http.StatusInternalServerError {
		return
	}
	ev := middleware.LoggerFrom(c).Error().
		Int("status", status).
		Str("code", code)
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("api error")
}

// fail aborts the request with a JSON error envelope and logs 5xx responses.
func fail(c *gin.Context, status int, code, msg string) {
	logServerError(c, status, code, nil)
	c.AbortWithStatusJSON(status, newErrorResponse(c, code, msg))
}

// Fail is the exported variant of fail, used by router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// render answers with the named view for browsers (HTML is offered first, so
// a missing Accept header gets the page) and with body for JSON clients.
func render(c *gin.Context, status int, view string, data, body any) {
	c.Negotiate(status, gin.Negotiate{
		Offered:  []string{gin.MIMEHTML, gin.MIMEJSON},
		HTMLName: view,
		HTMLData: data,
		JSONData: body,
	})
}

// renderError aborts with the error view or the JSON envelope. err is only
// logged, never shown.
func renderError(c *gin.Context, status int, code, msg string, err error) {
	logServerError(c, status, code, err)
	resp := newErrorResponse(c, code, msg)
	render(c, status, viewError, resp, resp)
	c.Abort()
}

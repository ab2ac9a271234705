// Package handlers defines HTTP-layer error codes used across all endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them, not on
// messages. Generic codes mirror HTTP status semantics; domain codes name the
// pipeline step that rejected the request.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "already_pending",
//	  "message": "Your request is still pending, you cannot create several at once. ..."
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/serverwatch/availability-watch/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeFormInvalid    = "form_invalid"
	ErrCodeInvalidPhone   = "invalid_phone"
	ErrCodeNotHuman       = "not_human"
	ErrCodeAlreadyPending = "already_pending"
	ErrCodeOfferAvailable = "offer_available"
	ErrCodeInvalidToken   = "invalid_token"
	ErrCodeRequestActive  = "request_active"
	ErrCodeUpstream       = "upstream_unavailable"
)

// Generic messages for failures the user cannot correct.
const (
	msgUpstream = "A remote service is unavailable, please try again later."
	msgInternal = "An internal error occurred, please try again later."
)

type rejectionMapping struct {
	status int
	code   string
}

var rejections = map[error]rejectionMapping{
	services.ErrFormInvalid:    {http.StatusUnprocessableEntity, ErrCodeFormInvalid},
	services.ErrInvalidPhone:   {http.StatusUnprocessableEntity, ErrCodeInvalidPhone},
	services.ErrNotHuman:       {http.StatusUnprocessableEntity, ErrCodeNotHuman},
	services.ErrAlreadyPending: {http.StatusConflict, ErrCodeAlreadyPending},
	services.ErrOfferAvailable: {http.StatusConflict, ErrCodeOfferAvailable},
	services.ErrInvalidToken:   {http.StatusNotFound, ErrCodeInvalidToken},
	services.ErrRequestActive:  {http.StatusConflict, ErrCodeRequestActive},
}

// classify maps a service error to (status, code, message). rej is non-nil
// only for business rejections.
func classify(err error) (status int, code, msg string, rej *services.Rejection) {
	if errors.As(err, &rej) {
		if m, ok := rejections[rej.Reason]; ok {
			return m.status, m.code, rej.Message(), rej
		}
		return http.StatusUnprocessableEntity, ErrCodeBadRequest, rej.Message(), rej
	}
	if errors.Is(err, services.ErrUpstream) {
		return http.StatusBadGateway, ErrCodeUpstream, msgUpstream, nil
	}
	return http.StatusInternalServerError, ErrCodeInternal, msgInternal, nil
}

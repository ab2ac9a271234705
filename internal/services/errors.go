// Package services defines the business logic for availability watches:
// the submission pipeline, the reactivation pipeline and the resource
// aggregator. This file centralizes service-level error values so that they
// can be consistently returned by service methods and checked by callers.
//
// Business rejections are returned as *Rejection wrapping one of the reason
// sentinels below. Infrastructure failures wrap ErrUpstream or ErrPersistence
// and must not be presented to users as correctable form errors.
package services

import (
	"errors"
	"fmt"
)

// Rejection reasons. Each is terminal for a pipeline run.
var (
	// ErrFormInvalid indicates that one or more submitted fields failed validation.
	ErrFormInvalid = errors.New("form invalid")

	// ErrInvalidPhone is returned when the phone number cannot be normalized
	// for the given country.
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrNotHuman is returned when the human-verification challenge was not solved.
	ErrNotHuman = errors.New("human verification failed")

	// ErrAlreadyPending is returned when a pending watch already exists for
	// the same (reference, mail) pair.
	ErrAlreadyPending = errors.New("request already pending")

	// ErrOfferAvailable is returned when the watched offer can already be ordered.
	ErrOfferAvailable = errors.New("offer already available")

	// ErrInvalidToken is returned when no request matches a reactivation token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrRequestActive is returned when reactivating a request that is still pending.
	ErrRequestActive = errors.New("request still active")
)

// Infrastructure failures.
var (
	// ErrUpstream wraps failures of the verification service, the provider
	// catalog or a store read.
	ErrUpstream = errors.New("upstream service error")

	// ErrPersistence wraps store write failures.
	ErrPersistence = errors.New("persistence error")
)

var reasonMessages = map[error]string{
	ErrFormInvalid:    "An error occurred while validating the form, please check the submitted data.",
	ErrInvalidPhone:   "Your phone number is invalid.",
	ErrNotHuman:       "Please tick the box at the end of the form to prove you are human.",
	ErrAlreadyPending: "Your request is still pending, you cannot create several at once. Please wait for the notification by mail / Pushbullet.",
	ErrOfferAvailable: "This offer is already available, you can reserve your server right now.",
	ErrInvalidToken:   "Unable to perform this action, invalid token.",
	ErrRequestActive:  "Unable to perform this action, your request is still active.",
}

// Success messages shown after a completed pipeline run.
const (
	MsgRequestRegistered  = "Your request has been registered."
	MsgRequestReactivated = "Your request has been reactivated."
)

// FieldErrors maps a form field name to a single user-facing message.
type FieldErrors map[string]string

// Field validation messages.
const (
	MsgFieldRequired = "This field is required."
	MsgFieldInvalid  = "This field value is invalid."
)

// Rejection is a business-rule failure carrying exactly one reason and, for
// ErrFormInvalid, the field-level errors.
type Rejection struct {
	Reason error
	Fields FieldErrors
}

func (r *Rejection) Error() string { return r.Reason.Error() }

// Unwrap returns the reason sentinel.
func (r *Rejection) Unwrap() error { return r.Reason }

// Message returns the user-facing text for the rejection reason.
func (r *Rejection) Message() string {
	if m, ok := reasonMessages[r.Reason]; ok {
		return m
	}
	return r.Reason.Error()
}

func reject(reason error) *Rejection { return &Rejection{Reason: reason} }

func upstream(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, step, err)
}

func persistence(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, step, err)
}

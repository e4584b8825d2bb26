package services

import (
	"errors"
	"fmt"

	"food-delivery/models"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrNoCourierAvailable = errors.New("no courier available")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrThrottled          = errors.New("too many failed logins")
)

// errorCodes is the wire name of each sentinel error, shared by the API
// and its client.
var errorCodes = []struct {
	err  error
	code string
}{
	{ErrNotFound, "not_found"},
	{ErrInvalidInput, "invalid_input"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrNoCourierAvailable, "no_courier_available"},
	{ErrConflict, "conflict"},
	{ErrForbidden, "forbidden"},
	{ErrUnauthorized, "unauthorized"},
	{ErrThrottled, "throttled"},
}

// ErrorCode returns the wire code for err, or "internal".
func ErrorCode(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return "internal"
}

// ErrorForCode is the inverse of ErrorCode; unknown codes return nil.
func ErrorForCode(code string) error {
	for _, e := range errorCodes {
		if e.code == code {
			return e.err
		}
	}
	return nil
}

// wrapStoreErr wraps a store write error; unique collisions (email,
// legal id) become ErrConflict.
func wrapStoreErr(op string, err error) error {
	if errors.Is(err, models.ErrDuplicate) {
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

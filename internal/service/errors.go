package service

import (
	"errors"
	"math"
)

var (
	ErrUserAlreadyExists   = errors.New("email already registered")
	ErrUnknownEmail        = errors.New("user not found")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already in use")
	ErrProfileAccessDenied = errors.New("cannot modify another user's profile")

	ErrProductNotFound     = errors.New("product not found")
	ErrProductAccessDenied = errors.New("product belongs to another seller")
	ErrProductInUse        = errors.New("product is referenced by orders")

	ErrCartItemNotFound = errors.New("cart item not found")

	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("order has no items from this seller")
)

// ValidationError reports input the caller has to fix. Nothing is written
// when a service returns one.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// maxColumnInt bounds quantities and stock, which are stored as INTEGER.
const maxColumnInt = math.MaxInt32

// errOutOfRange is returned when the database rejects a value its column
// cannot hold.
var errOutOfRange = invalid("value out of range")

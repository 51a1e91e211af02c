package cart

import "errors"

// Error kinds returned by Service. Match with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Store errors.
var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("cart item not found")
	ErrItemExists   = errors.New("cart item already exists")
)

// Error carries a caller-facing message for one of the error kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	errProductNotFound = newError(ErrNotFound, "product not found")
	errCartNotFound    = newError(ErrNotFound, "cart not found for this user")
	errItemNotFound    = newError(ErrNotFound, "cart item not found in your cart")
	errNoCaller        = newError(ErrUnauthenticated, "authentication credentials were not provided")
)

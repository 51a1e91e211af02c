package cart

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RawQuantity is a caller-supplied quantity before validation.
// The zero value means the caller did not send one.
type RawQuantity string

// parse reports the integer value and whether one was supplied at all.
func (q RawQuantity) parse() (int, bool, error) {
	s := strings.TrimSpace(string(q))
	if s == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, true, errQuantityOutOfRange
		}
		return 0, true, newError(ErrInvalidInput, "quantity must be an integer")
	}
	return n, true, nil
}

var (
	errQuantityOutOfRange  = newError(ErrInvalidQuantity, fmt.Sprintf("quantity must be between %d and %d", MinQuantity, MaxQuantity))
	errQuantityRequired    = newError(ErrInvalidInput, "field 'quantity' is required")
	errQuantityNotPositive = newError(ErrInvalidQuantity, "quantity must be a positive number")
)

// checkStoredQuantity enforces the bounds every persisted item must satisfy.
func checkStoredQuantity(q int) error {
	if q < MinQuantity || q > MaxQuantity {
		return errQuantityOutOfRange
	}
	return nil
}

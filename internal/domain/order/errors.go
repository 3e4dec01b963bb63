package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrMissingFields is returned when customer, items or delivery platform
	// are absent from a create request.
	ErrMissingFields = errors.New("missing required fields")
	// ErrNotFound is returned when an order does not exist.
	ErrNotFound = errors.New("order not found")
)

// ValidationError reports a malformed field in a create request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// MenuItemNotFoundError indicates a requested menu item does not exist.
type MenuItemNotFoundError struct {
	MenuItemID string
}

func (e *MenuItemNotFoundError) Error() string {
	return fmt.Sprintf("menu item %s not found", e.MenuItemID)
}

// MenuItemUnavailableError indicates a requested menu item exists but is not
// currently offered.
type MenuItemUnavailableError struct {
	MenuItemID string
}

func (e *MenuItemUnavailableError) Error() string {
	return fmt.Sprintf("menu item %s is not available", e.MenuItemID)
}

// IsInvalidRequest reports whether err was caused by the request contents
// rather than by a dependency failure.
func IsInvalidRequest(err error) bool {
	var (
		vErr  *ValidationError
		nfErr *MenuItemNotFoundError
		unErr *MenuItemUnavailableError
	)
	return errors.Is(err, ErrMissingFields) ||
		errors.As(err, &vErr) ||
		errors.As(err, &nfErr) ||
		errors.As(err, &unErr)
}

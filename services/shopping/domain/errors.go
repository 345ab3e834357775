package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for the shopping domain. Use errors.Is() to check these.
var (
	// ErrNotAuthenticated indicates there is no current user; nothing was read or written.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrFetchFailure indicates a store read failed; nothing was written.
	ErrFetchFailure = errors.New("fetch failure")

	// ErrWriteFailure indicates list creation or item insertion failed.
	ErrWriteFailure = errors.New("write failure")

	// ErrInvalidDateRange indicates a malformed date or a start date after the end date.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrMealPlanNotFound indicates the meal plan does not exist for the current user.
	ErrMealPlanNotFound = errors.New("meal plan not found")

	// ErrShoppingListNotFound indicates the requested shopping list does not exist for the user.
	ErrShoppingListNotFound = errors.New("shopping list not found")

	// ErrShoppingListItemNotFound indicates the requested item does not exist on the list.
	ErrShoppingListItemNotFound = errors.New("shopping list item not found")
)

// PartialWriteError reports that a shopping list row was created but its items
// could not be inserted. The list is left in place; ListID lets callers delete it.
// It matches ErrWriteFailure under errors.Is.
type PartialWriteError struct {
	ListID uuid.UUID
	Err    error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("shopping list %s created without items: %v", e.ListID, e.Err)
}

func (e *PartialWriteError) Unwrap() []error {
	return []error{ErrWriteFailure, e.Err}
}

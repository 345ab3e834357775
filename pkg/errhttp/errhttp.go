// Package errhttp turns shopping domain errors into HTTP responses.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/mealplanner/pkg/httpx"
	shoppingdomain "github.com/ghuser/mealplanner/services/shopping/domain"
)

// statuses is checked in order with errors.Is; the first match wins.
var statuses = []struct {
	target error
	status int
}{
	{shoppingdomain.ErrNotAuthenticated, http.StatusUnauthorized},
	{shoppingdomain.ErrMealPlanNotFound, http.StatusNotFound},
	{shoppingdomain.ErrShoppingListNotFound, http.StatusNotFound},
	{shoppingdomain.ErrShoppingListItemNotFound, http.StatusNotFound},
	{shoppingdomain.ErrInvalidDateRange, http.StatusUnprocessableEntity},
	{shoppingdomain.ErrFetchFailure, http.StatusServiceUnavailable},
	{shoppingdomain.ErrWriteFailure, http.StatusInternalServerError},
}

// WriteError writes {"error": Message(err)} with StatusFor(err).
func WriteError(w http.ResponseWriter, err error) {
	httpx.JSONError(w, StatusFor(err), Message(err))
}

// StatusFor returns the status err maps to, 500 when nothing matches.
func StatusFor(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.target) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// Message is the client-facing text for err. Client errors keep their full
// chain. Server errors are cut down to the matched sentinel so store and
// driver details stay in the logs.
func Message(err error) string {
	if StatusFor(err) < http.StatusInternalServerError {
		return err.Error()
	}
	for _, s := range statuses {
		if errors.Is(err, s.target) {
			return s.target.Error()
		}
	}
	return "internal server error"
}

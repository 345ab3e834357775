package errhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	shoppingdomain "github.com/ghuser/mealplanner/services/shopping/domain"
)

func TestWriteError(t *testing.T) {
	driverErr := errors.New(`pq: relation "recipe_ingredients" does not exist`)

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"not authenticated", shoppingdomain.ErrNotAuthenticated, http.StatusUnauthorized, shoppingdomain.ErrNotAuthenticated.Error()},
		{"meal plan not found", shoppingdomain.ErrMealPlanNotFound, http.StatusNotFound, shoppingdomain.ErrMealPlanNotFound.Error()},
		{"list not found", shoppingdomain.ErrShoppingListNotFound, http.StatusNotFound, shoppingdomain.ErrShoppingListNotFound.Error()},
		{"item not found", shoppingdomain.ErrShoppingListItemNotFound, http.StatusNotFound, shoppingdomain.ErrShoppingListItemNotFound.Error()},
		{
			"invalid range keeps detail",
			fmt.Errorf("%w: start 2024-01-07 after end 2024-01-01", shoppingdomain.ErrInvalidDateRange),
			http.StatusUnprocessableEntity,
			shoppingdomain.ErrInvalidDateRange.Error() + ": start 2024-01-07 after end 2024-01-01",
		},
		{
			"fetch failure hides driver error",
			fmt.Errorf("%w: list ingredients: %w", shoppingdomain.ErrFetchFailure, driverErr),
			http.StatusServiceUnavailable,
			shoppingdomain.ErrFetchFailure.Error(),
		},
		{"write failure", fmt.Errorf("%w: %w", shoppingdomain.ErrWriteFailure, driverErr), http.StatusInternalServerError, shoppingdomain.ErrWriteFailure.Error()},
		{
			"partial write",
			&shoppingdomain.PartialWriteError{ListID: uuid.New(), Err: driverErr},
			http.StatusInternalServerError,
			shoppingdomain.ErrWriteFailure.Error(),
		},
		{"unknown", driverErr, http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Errorf("unexpected Content-Type %q", ct)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("response body is not valid JSON: %v", err)
			}
			if body["error"] != tt.wantMessage {
				t.Errorf("message: got %q, want %q", body["error"], tt.wantMessage)
			}
		})
	}
}

package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/mealplanner/pkg/httpx"
)

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"shopping list not found"`
} // @name ErrorResponse

// GenerateShoppingListRequest is the request body for shopping list generation.
type GenerateShoppingListRequest struct {
	StartDate string `json:"start_date" validate:"required,isodate" example:"2024-01-01"`
	EndDate   string `json:"end_date"   validate:"required,isodate" example:"2024-01-07"`
} // @name GenerateShoppingListRequest

// ShoppingListItemResponse is one line of a shopping list.
type ShoppingListItemResponse struct {
	ID          uuid.UUID `json:"id"           example:"123e4567-e89b-12d3-a456-426614174000"`
	ProductName string    `json:"product_name" example:"Rice"`
	Quantity    float64   `json:"quantity"     example:"250"`
	Unit        string    `json:"unit"         example:"g"`
	Purchased   bool      `json:"purchased"    example:"false"`
} // @name ShoppingListItemResponse

// ShoppingListResponse is a shopping list with its items.
type ShoppingListResponse struct {
	ID         uuid.UUID                  `json:"id"           example:"123e4567-e89b-12d3-a456-426614174000"`
	MealPlanID *uuid.UUID                 `json:"meal_plan_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name       string                     `json:"name"         example:"Shopping List for 2024-01-01 to 2024-01-07"`
	CreatedAt  time.Time                  `json:"created_at"   example:"2024-01-15T10:30:00Z"`
	Items      []ShoppingListItemResponse `json:"items"`
} // @name ShoppingListResponse

// uuidParam parses a chi URL parameter, writing 400 when it is not a UUID.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/ghuser/mealplanner/pkg/errhttp"
	"github.com/ghuser/mealplanner/pkg/httpx"
	"github.com/ghuser/mealplanner/pkg/telemetry"
	pkgvalidator "github.com/ghuser/mealplanner/pkg/validator"
	appsvcs "github.com/ghuser/mealplanner/services/shopping/application/services"
	shoppingdomain "github.com/ghuser/mealplanner/services/shopping/domain"
)

// GenerateShoppingListResponse is returned when a list has been generated.
type GenerateShoppingListResponse struct {
	ListID    uuid.UUID `json:"list_id"    example:"123e4567-e89b-12d3-a456-426614174000"`
	ItemCount int       `json:"item_count" example:"3"`
} // @name GenerateShoppingListResponse

// PartialWriteResponse reports a list that was created without its items.
type PartialWriteResponse struct {
	Error  string    `json:"error"   example:"write failure"`
	ListID uuid.UUID `json:"list_id" example:"123e4567-e89b-12d3-a456-426614174000"`
} // @name PartialWriteResponse

// PostShoppingListHandler handles POST /meal-plans/{mealPlanID}/shopping-lists.
type PostShoppingListHandler struct {
	svc *appsvcs.Services
}

// NewPostShoppingListHandler returns a PostShoppingListHandler backed by the given services.
func NewPostShoppingListHandler(svc *appsvcs.Services) *PostShoppingListHandler {
	return &PostShoppingListHandler{svc: svc}
}

// Execute generates a shopping list from the meal plan entries in the date range.
//
//	@Summary		Generate shopping list
//	@Description	Aggregates the ingredients of every planned meal in the inclusive date range into a new shopping list
//	@Tags			shopping-lists
//	@Accept			json
//	@Produce		json
//	@Param			mealPlanID	path		string							true	"Meal plan ID"
//	@Param			request		body		GenerateShoppingListRequest		true	"Date range"
//	@Success		201			{object}	GenerateShoppingListResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Failure		500			{object}	PartialWriteResponse
//	@Failure		503			{object}	ErrorResponse
//	@Router			/meal-plans/{mealPlanID}/shopping-lists [post]
func (h *PostShoppingListHandler) Execute(w http.ResponseWriter, r *http.Request) {
	mealPlanID, ok := uuidParam(w, r, "mealPlanID")
	if !ok {
		return
	}

	req, ok := pkgvalidator.ValidateRequest[GenerateShoppingListRequest](w, r)
	if !ok {
		return
	}

	res, err := h.svc.ShoppingList.Generate(r.Context(), mealPlanID, req.StartDate, req.EndDate)
	if err != nil {
		var partial *shoppingdomain.PartialWriteError
		if errors.As(err, &partial) {
			telemetry.CaptureError(r.Context(), err, map[string]string{
				"shopping_list_id": partial.ListID.String(),
			})
			httpx.JSON(w, http.StatusInternalServerError, PartialWriteResponse{
				Error:  errhttp.Message(err),
				ListID: partial.ListID,
			})
			return
		}
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, GenerateShoppingListResponse{
		ListID:    res.ListID,
		ItemCount: res.ItemCount,
	})
}

package handlers

import (
	"net/http"

	"github.com/ghuser/mealplanner/pkg/errhttp"
	"github.com/ghuser/mealplanner/pkg/httpx"
	appsvcs "github.com/ghuser/mealplanner/services/shopping/application/services"
	"github.com/ghuser/mealplanner/services/shopping/domain/models"
)

// GetShoppingListHandler handles GET /shopping-lists/{listID}.
type GetShoppingListHandler struct {
	svc *appsvcs.Services
}

func NewGetShoppingListHandler(svc *appsvcs.Services) *GetShoppingListHandler {
	return &GetShoppingListHandler{svc: svc}
}

// Execute returns a shopping list with its items.
//
//	@Summary	Get shopping list
//	@Tags		shopping-lists
//	@Produce	json
//	@Param		listID	path		string	true	"Shopping list ID"
//	@Success	200		{object}	ShoppingListResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	401		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/shopping-lists/{listID} [get]
func (h *GetShoppingListHandler) Execute(w http.ResponseWriter, r *http.Request) {
	listID, ok := uuidParam(w, r, "listID")
	if !ok {
		return
	}

	list, err := h.svc.ShoppingList.GetByID(r.Context(), listID)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toShoppingListResponse(list))
}

func toShoppingListResponse(list *models.ShoppingList) ShoppingListResponse {
	resp := ShoppingListResponse{
		ID:        list.ID,
		Name:      list.Name,
		CreatedAt: list.CreatedAt,
		Items:     make([]ShoppingListItemResponse, len(list.Items)),
	}
	if list.MealPlanID.Valid {
		id := list.MealPlanID.UUID
		resp.MealPlanID = &id
	}
	for i, it := range list.Items {
		resp.Items[i] = ShoppingListItemResponse{
			ID:          it.ID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
			Purchased:   it.Purchased,
		}
	}
	return resp
}

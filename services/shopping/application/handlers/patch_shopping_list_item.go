package handlers

import (
	"net/http"

	"github.com/ghuser/mealplanner/pkg/errhttp"
	"github.com/ghuser/mealplanner/pkg/httpx"
	pkgvalidator "github.com/ghuser/mealplanner/pkg/validator"
	appsvcs "github.com/ghuser/mealplanner/services/shopping/application/services"
)

// UpdateShoppingListItemRequest is the request body for PATCH /shopping-lists/{listID}/items/{itemID}.
type UpdateShoppingListItemRequest struct {
	Purchased *bool `json:"purchased" validate:"required" example:"true"`
} // @name UpdateShoppingListItemRequest

// PatchShoppingListItemHandler handles PATCH /shopping-lists/{listID}/items/{itemID}.
type PatchShoppingListItemHandler struct {
	svc *appsvcs.Services
}

func NewPatchShoppingListItemHandler(svc *appsvcs.Services) *PatchShoppingListItemHandler {
	return &PatchShoppingListItemHandler{svc: svc}
}

// Execute marks an item as purchased or not.
//
//	@Summary	Update shopping list item
//	@Tags		shopping-lists
//	@Accept		json
//	@Param		listID	path	string							true	"Shopping list ID"
//	@Param		itemID	path	string							true	"Item ID"
//	@Param		request	body	UpdateShoppingListItemRequest	true	"Purchased flag"
//	@Success	204
//	@Failure	400	{object}	ErrorResponse
//	@Failure	401	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Failure	422	{object}	ErrorResponse
//	@Router		/shopping-lists/{listID}/items/{itemID} [patch]
func (h *PatchShoppingListItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	listID, ok := uuidParam(w, r, "listID")
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}

	req, ok := pkgvalidator.ValidateRequest[UpdateShoppingListItemRequest](w, r)
	if !ok {
		return
	}

	if err := h.svc.ShoppingList.SetItemPurchased(r.Context(), listID, itemID, *req.Purchased); err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.NoContent(w)
}

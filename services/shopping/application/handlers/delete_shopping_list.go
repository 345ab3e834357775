package handlers

import (
	"net/http"

	"github.com/ghuser/mealplanner/pkg/errhttp"
	"github.com/ghuser/mealplanner/pkg/httpx"
	appsvcs "github.com/ghuser/mealplanner/services/shopping/application/services"
)

// DeleteShoppingListHandler handles DELETE /shopping-lists/{listID}.
type DeleteShoppingListHandler struct {
	svc *appsvcs.Services
}

func NewDeleteShoppingListHandler(svc *appsvcs.Services) *DeleteShoppingListHandler {
	return &DeleteShoppingListHandler{svc: svc}
}

// Execute deletes a shopping list and its items.
//
//	@Summary	Delete shopping list
//	@Tags		shopping-lists
//	@Param		listID	path	string	true	"Shopping list ID"
//	@Success	204
//	@Failure	400	{object}	ErrorResponse
//	@Failure	401	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/shopping-lists/{listID} [delete]
func (h *DeleteShoppingListHandler) Execute(w http.ResponseWriter, r *http.Request) {
	listID, ok := uuidParam(w, r, "listID")
	if !ok {
		return
	}

	if err := h.svc.ShoppingList.Delete(r.Context(), listID); err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.NoContent(w)
}

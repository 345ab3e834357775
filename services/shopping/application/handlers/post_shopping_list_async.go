package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ghuser/mealplanner/pkg/auth"
	"github.com/ghuser/mealplanner/pkg/httpx"
	pkgvalidator "github.com/ghuser/mealplanner/pkg/validator"
)

// AsyncGenerator schedules shopping list generation in the background.
type AsyncGenerator interface {
	StartGeneration(ctx context.Context, ownerID, mealPlanID uuid.UUID, startDate, endDate string) (workflowID, runID string, err error)
}

// GenerationAcceptedResponse identifies a scheduled generation.
type GenerationAcceptedResponse struct {
	WorkflowID string `json:"workflow_id" example:"shopping-list-123e4567-e89b-12d3-a456-426614174000"`
	RunID      string `json:"run_id"      example:"0b0d6b4e-6b5c-4c1c-9f55-7d2a4b8b9f0e"`
} // @name GenerationAcceptedResponse

// PostShoppingListAsyncHandler handles POST /meal-plans/{mealPlanID}/shopping-lists/async.
type PostShoppingListAsyncHandler struct {
	gen AsyncGenerator
}

// NewPostShoppingListAsyncHandler returns a handler that schedules generation through gen.
func NewPostShoppingListAsyncHandler(gen AsyncGenerator) *PostShoppingListAsyncHandler {
	return &PostShoppingListAsyncHandler{gen: gen}
}

// Execute schedules a shopping list generation workflow.
//
//	@Summary		Generate shopping list asynchronously
//	@Description	Schedules generation as a background workflow and returns its identifiers
//	@Tags			shopping-lists
//	@Accept			json
//	@Produce		json
//	@Param			mealPlanID	path		string							true	"Meal plan ID"
//	@Param			request		body		GenerateShoppingListRequest		true	"Date range"
//	@Success		202			{object}	GenerationAcceptedResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Failure		503			{object}	ErrorResponse
//	@Router			/meal-plans/{mealPlanID}/shopping-lists/async [post]
func (h *PostShoppingListAsyncHandler) Execute(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	mealPlanID, ok := uuidParam(w, r, "mealPlanID")
	if !ok {
		return
	}

	req, ok := pkgvalidator.ValidateRequest[GenerateShoppingListRequest](w, r)
	if !ok {
		return
	}

	workflowID, runID, err := h.gen.StartGeneration(r.Context(), userID, mealPlanID, req.StartDate, req.EndDate)
	if err != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "could not schedule shopping list generation")
		return
	}

	httpx.JSON(w, http.StatusAccepted, GenerationAcceptedResponse{
		WorkflowID: workflowID,
		RunID:      runID,
	})
}

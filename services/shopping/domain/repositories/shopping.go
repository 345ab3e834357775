package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/mealplanner/services/shopping/domain/models"
)

// CurrentUser resolves the authenticated user for a request.
type CurrentUser interface {
	CurrentUserID(ctx context.Context) (uuid.UUID, bool)
}

// MealPlanEntryReader reads planned meals.
type MealPlanEntryReader interface {
	// ListEntries returns the entries of ownerID's plan whose meal date falls
	// within both r and the plan's own dates, inclusive. It returns
	// domain.ErrMealPlanNotFound when ownerID has no such plan.
	ListEntries(ctx context.Context, ownerID, planID uuid.UUID, r models.DateRange) ([]models.MealPlanEntry, error)
}

// RecipeIngredientReader reads the ingredient list of a recipe.
type RecipeIngredientReader interface {
	ListIngredients(ctx context.Context, recipeID uuid.UUID) ([]models.RecipeIngredient, error)
}

// ShoppingListWriter persists generated shopping lists.
type ShoppingListWriter interface {
	CreateShoppingList(ctx context.Context, ownerID, planID uuid.UUID, name string) (uuid.UUID, error)

	// InsertShoppingListItems writes every item with purchased=false. It is all or nothing.
	InsertShoppingListItems(ctx context.Context, ownerID, listID uuid.UUID, items []models.AggregatedItem) error
}

// ShoppingListRepository covers reads and user-driven mutations of existing lists.
// Every call is scoped to the owning user.
type ShoppingListRepository interface {
	GetByID(ctx context.Context, ownerID, listID uuid.UUID) (*models.ShoppingList, error)
	SetItemPurchased(ctx context.Context, ownerID, listID, itemID uuid.UUID, purchased bool) error
	Delete(ctx context.Context, ownerID, listID uuid.UUID) error
}

// ShoppingStore is the full persistence surface of the shopping context.
// The domain layer owns this interface; infrastructure implements it.
type ShoppingStore interface {
	MealPlanEntryReader
	RecipeIngredientReader
	ShoppingListWriter
	ShoppingListRepository
}

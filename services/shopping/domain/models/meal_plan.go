package models

import (
	"time"

	"github.com/google/uuid"
)

// MealType is the slot a planned meal occupies within a day.
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

// DefaultServings is used when an entry does not state a serving count.
const DefaultServings = 1

// MealPlan is a user's plan over an inclusive date range.
type MealPlan struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	StartDate time.Time
	EndDate   time.Time
}

// MealPlanEntry is a single planned meal. RecipeID is null for entries that
// were planned without a recipe; those contribute nothing to a shopping list.
type MealPlanEntry struct {
	ID         uuid.UUID
	MealPlanID uuid.UUID
	RecipeID   uuid.NullUUID
	MealDate   time.Time
	MealType   MealType
	Servings   int
}

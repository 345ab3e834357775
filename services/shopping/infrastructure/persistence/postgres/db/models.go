package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type MealPlan struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	StartDate time.Time
	EndDate   time.Time
}

type MealPlanEntry struct {
	ID         uuid.UUID
	MealPlanID uuid.UUID
	RecipeID   uuid.NullUUID
	MealDate   time.Time
	MealType   string
	Servings   int32
}

type RecipeIngredient struct {
	ID       uuid.UUID
	RecipeID uuid.UUID
	Name     string
	Quantity sql.NullFloat64
	Unit     string
}

type ShoppingList struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	MealPlanID uuid.NullUUID
	Name       string
	CreatedAt  time.Time
}

type ShoppingListItem struct {
	ID             uuid.UUID
	ShoppingListID uuid.UUID
	ProductName    string
	Quantity       float64
	Unit           string
	Purchased      bool
	CreatedAt      time.Time
}

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ShoppingList is a durable list owned by one user, optionally linked to the
// meal plan it was generated from.
type ShoppingList struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	MealPlanID uuid.NullUUID
	Name       string
	CreatedAt  time.Time
	Items      []ShoppingListItem
}

// ShoppingListItem is one line on a shopping list.
type ShoppingListItem struct {
	ID             uuid.UUID
	ShoppingListID uuid.UUID
	ProductName    string
	Quantity       float64
	Unit           string
	Purchased      bool
	CreatedAt      time.Time
}

// ItemKey identifies a shopping item during aggregation. It is a comparable
// struct so names or units containing any separator can never collide.
type ItemKey struct {
	Name string
	Unit string
}

// AggregatedItem is a merged (product, quantity, unit) tuple ready for insertion.
type AggregatedItem struct {
	ProductName string
	Quantity    float64
	Unit        string
}

// Key returns the aggregation key for the item.
func (i AggregatedItem) Key() ItemKey {
	return ItemKey{Name: i.ProductName, Unit: i.Unit}
}

// GenerationResult summarizes a materialized shopping list.
type GenerationResult struct {
	ListID    uuid.UUID
	ItemCount int
}

// ShoppingListName is the descriptive name given to a generated list.
func ShoppingListName(r DateRange) string {
	return fmt.Sprintf("Shopping List for %s to %s", r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
}

package models

import "github.com/google/uuid"

// RecipeIngredient is one ingredient row of a recipe. Name and Unit are
// matched byte-for-byte during aggregation; they are never trimmed or folded.
type RecipeIngredient struct {
	ID       uuid.UUID
	RecipeID uuid.UUID
	Name     string
	Quantity *float64 // nil when the recipe does not state an amount
	Unit     string
}

// Amount returns the quantity, treating a missing value as zero.
func (i RecipeIngredient) Amount() float64 {
	if i.Quantity == nil {
		return 0
	}
	return *i.Quantity
}

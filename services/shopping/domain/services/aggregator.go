// Package services contains stateless domain services for the shopping bounded context.
// Domain services enforce business rules that operate purely on domain types
// and have zero external dependencies beyond stdlib and the domain layer.
package services

import (
	"github.com/google/uuid"

	"github.com/ghuser/mealplanner/services/shopping/domain/models"
)

// AggregateIngredients merges the ingredients of every planned recipe into one
// list of shopping items.
//
// Rules:
//   - Entries without a recipe are skipped, as are recipes absent from ingredients.
//   - Two ingredients merge only when both name and unit are byte-identical.
//   - Each contribution is quantity × servings of the owning entry; a nil
//     quantity contributes 0. Servings are not validated, only multiplied.
//
// Items are returned in the order their key was first seen. The function is
// pure: identical input always yields identical output.
func AggregateIngredients(entries []models.MealPlanEntry, ingredients map[uuid.UUID][]models.RecipeIngredient) []models.AggregatedItem {
	index := make(map[models.ItemKey]int)
	var out []models.AggregatedItem

	for _, entry := range entries {
		if !entry.RecipeID.Valid {
			continue
		}
		multiplier := float64(entry.Servings)
		for _, ing := range ingredients[entry.RecipeID.UUID] {
			key := models.ItemKey{Name: ing.Name, Unit: ing.Unit}
			qty := ing.Amount() * multiplier

			if i, ok := index[key]; ok {
				out[i].Quantity += qty
				continue
			}
			index[key] = len(out)
			out = append(out, models.AggregatedItem{
				ProductName: ing.Name,
				Quantity:    qty,
				Unit:        ing.Unit,
			})
		}
	}

	if out == nil {
		return []models.AggregatedItem{}
	}
	return out
}

// RecipeIDs returns the distinct recipe IDs referenced by entries, in first-seen order.
func RecipeIDs(entries []models.MealPlanEntry) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(entries))
	var ids []uuid.UUID
	for _, e := range entries {
		if !e.RecipeID.Valid {
			continue
		}
		if _, ok := seen[e.RecipeID.UUID]; ok {
			continue
		}
		seen[e.RecipeID.UUID] = struct{}{}
		ids = append(ids, e.RecipeID.UUID)
	}
	return ids
}

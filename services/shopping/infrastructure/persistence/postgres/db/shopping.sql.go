package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const getMealPlan = `
SELECT id, user_id, start_date, end_date
FROM meal_plans
WHERE id = $1 AND user_id = $2
`

type GetMealPlanParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetMealPlan(ctx context.Context, arg GetMealPlanParams) (MealPlan, error) {
	row := q.db.QueryRowContext(ctx, getMealPlan, arg.ID, arg.UserID)
	var i MealPlan
	err := row.Scan(&i.ID, &i.UserID, &i.StartDate, &i.EndDate)
	return i, err
}

const listMealPlanEntries = `
SELECT e.id, e.meal_plan_id, e.recipe_id, e.meal_date, e.meal_type, e.servings
FROM meal_plan_entries e
JOIN meal_plans mp ON mp.id = e.meal_plan_id AND mp.user_id = $4
WHERE e.meal_plan_id = $1
  AND e.meal_date BETWEEN $2 AND $3
  AND e.meal_date BETWEEN mp.start_date AND mp.end_date
ORDER BY e.meal_date, e.created_at, e.id
`

type ListMealPlanEntriesParams struct {
	MealPlanID uuid.UUID
	StartDate  time.Time
	EndDate    time.Time
	UserID     uuid.UUID
}

func (q *Queries) ListMealPlanEntries(ctx context.Context, arg ListMealPlanEntriesParams) ([]MealPlanEntry, error) {
	rows, err := q.db.QueryContext(ctx, listMealPlanEntries, arg.MealPlanID, arg.StartDate, arg.EndDate, arg.UserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MealPlanEntry
	for rows.Next() {
		var i MealPlanEntry
		if err := rows.Scan(&i.ID, &i.MealPlanID, &i.RecipeID, &i.MealDate, &i.MealType, &i.Servings); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRecipeIngredients = `
SELECT id, recipe_id, name, quantity, unit
FROM recipe_ingredients
WHERE recipe_id = $1
ORDER BY position, id
`

func (q *Queries) ListRecipeIngredients(ctx context.Context, recipeID uuid.UUID) ([]RecipeIngredient, error) {
	rows, err := q.db.QueryContext(ctx, listRecipeIngredients, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecipeIngredient
	for rows.Next() {
		var i RecipeIngredient
		if err := rows.Scan(&i.ID, &i.RecipeID, &i.Name, &i.Quantity, &i.Unit); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertShoppingList = `
INSERT INTO shopping_lists (id, user_id, meal_plan_id, name, created_at)
VALUES ($1, $2, $3, $4, $5)
`

type InsertShoppingListParams struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	MealPlanID uuid.NullUUID
	Name       string
	CreatedAt  time.Time
}

func (q *Queries) InsertShoppingList(ctx context.Context, arg InsertShoppingListParams) error {
	_, err := q.db.ExecContext(ctx, insertShoppingList, arg.ID, arg.UserID, arg.MealPlanID, arg.Name, arg.CreatedAt)
	return err
}

const getShoppingList = `
SELECT id, user_id, meal_plan_id, name, created_at
FROM shopping_lists
WHERE id = $1 AND user_id = $2
`

type GetShoppingListParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetShoppingList(ctx context.Context, arg GetShoppingListParams) (ShoppingList, error) {
	row := q.db.QueryRowContext(ctx, getShoppingList, arg.ID, arg.UserID)
	var i ShoppingList
	err := row.Scan(&i.ID, &i.UserID, &i.MealPlanID, &i.Name, &i.CreatedAt)
	return i, err
}

const insertShoppingListItems = `
INSERT INTO shopping_list_items (id, shopping_list_id, user_id, product_name, quantity, unit, purchased, created_at)
SELECT item.id, $1, $2, item.product_name, item.quantity, item.unit, false, $7
FROM unnest($3::uuid[], $4::text[], $5::float8[], $6::text[])
    AS item(id, product_name, quantity, unit)
`

// InsertShoppingListItemsParams carries one column slice per field; all slices have equal length.
type InsertShoppingListItemsParams struct {
	ShoppingListID uuid.UUID
	UserID         uuid.UUID
	IDs            []string
	ProductNames   []string
	Quantities     []float64
	Units          []string
	CreatedAt      time.Time
}

func (q *Queries) InsertShoppingListItems(ctx context.Context, arg InsertShoppingListItemsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertShoppingListItems,
		arg.ShoppingListID,
		arg.UserID,
		arg.IDs,
		arg.ProductNames,
		arg.Quantities,
		arg.Units,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listShoppingListItems = `
SELECT id, shopping_list_id, product_name, quantity, unit, purchased, created_at
FROM shopping_list_items
WHERE shopping_list_id = $1
ORDER BY product_name, unit, id
`

func (q *Queries) ListShoppingListItems(ctx context.Context, shoppingListID uuid.UUID) ([]ShoppingListItem, error) {
	rows, err := q.db.QueryContext(ctx, listShoppingListItems, shoppingListID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ShoppingListItem
	for rows.Next() {
		var i ShoppingListItem
		if err := rows.Scan(&i.ID, &i.ShoppingListID, &i.ProductName, &i.Quantity, &i.Unit, &i.Purchased, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setShoppingListItemPurchased = `
UPDATE shopping_list_items
SET purchased = $4
WHERE id = $1 AND shopping_list_id = $2 AND user_id = $3
`

type SetShoppingListItemPurchasedParams struct {
	ID             uuid.UUID
	ShoppingListID uuid.UUID
	UserID         uuid.UUID
	Purchased      bool
}

func (q *Queries) SetShoppingListItemPurchased(ctx context.Context, arg SetShoppingListItemPurchasedParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setShoppingListItemPurchased, arg.ID, arg.ShoppingListID, arg.UserID, arg.Purchased)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteShoppingList = `
DELETE FROM shopping_lists
WHERE id = $1 AND user_id = $2
`

type DeleteShoppingListParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) DeleteShoppingList(ctx context.Context, arg DeleteShoppingListParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteShoppingList, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ghuser/mealplanner/pkg/database"
	"github.com/ghuser/mealplanner/pkg/events"
	shoppingdomain "github.com/ghuser/mealplanner/services/shopping/domain"
	domainevents "github.com/ghuser/mealplanner/services/shopping/domain/events"
	"github.com/ghuser/mealplanner/services/shopping/domain/models"
	"github.com/ghuser/mealplanner/services/shopping/infrastructure/persistence/postgres/db"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// ShoppingStore implements repositories.ShoppingStore against PostgreSQL.
type ShoppingStore struct {
	db  *database.Database
	bus *events.EventBus
	now func() time.Time
}

// NewShoppingStore returns a ShoppingStore backed by the given pool and event bus.
// The bus publishes ShoppingListGeneratedEvent in the item insert transaction; it may be nil.
func NewShoppingStore(database *database.Database, bus *events.EventBus) *ShoppingStore {
	return &ShoppingStore{db: database, bus: bus, now: time.Now}
}

// ListEntries returns the entries of ownerID's plan dated within both r and
// the plan's own dates, inclusive on both ends.
func (s *ShoppingStore) ListEntries(ctx context.Context, ownerID, planID uuid.UUID, r models.DateRange) ([]models.MealPlanEntry, error) {
	q := db.New(s.db.DB())
	_, err := q.GetMealPlan(ctx, db.GetMealPlanParams{ID: planID, UserID: ownerID})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shoppingdomain.ErrMealPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query meal plan: %w", err)
	}

	rows, err := q.ListMealPlanEntries(ctx, db.ListMealPlanEntriesParams{
		MealPlanID: planID,
		StartDate:  r.Start,
		EndDate:    r.End,
		UserID:     ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("query meal plan entries: %w", err)
	}
	entries := make([]models.MealPlanEntry, len(rows))
	for i, row := range rows {
		entries[i] = models.MealPlanEntry{
			ID:         row.ID,
			MealPlanID: row.MealPlanID,
			RecipeID:   row.RecipeID,
			MealDate:   row.MealDate,
			MealType:   models.MealType(row.MealType),
			Servings:   int(row.Servings),
		}
	}
	return entries, nil
}

// ListIngredients returns a recipe's ingredients in recipe order.
func (s *ShoppingStore) ListIngredients(ctx context.Context, recipeID uuid.UUID) ([]models.RecipeIngredient, error) {
	rows, err := db.New(s.db.DB()).ListRecipeIngredients(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("query recipe ingredients: %w", err)
	}
	ings := make([]models.RecipeIngredient, len(rows))
	for i, row := range rows {
		ings[i] = models.RecipeIngredient{
			ID:       row.ID,
			RecipeID: row.RecipeID,
			Name:     row.Name,
			Unit:     row.Unit,
		}
		if row.Quantity.Valid {
			q := row.Quantity.Float64
			ings[i].Quantity = &q
		}
	}
	return ings, nil
}

// CreateShoppingList inserts an empty list row and returns its ID.
func (s *ShoppingStore) CreateShoppingList(ctx context.Context, ownerID, planID uuid.UUID, name string) (uuid.UUID, error) {
	id := uuid.New()
	err := db.New(s.db.DB()).InsertShoppingList(ctx, db.InsertShoppingListParams{
		ID:         id,
		UserID:     ownerID,
		MealPlanID: uuid.NullUUID{UUID: planID, Valid: planID != uuid.Nil},
		Name:       name,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return uuid.Nil, fmt.Errorf("meal plan %s does not exist: %w", planID, err)
		}
		return uuid.Nil, fmt.Errorf("insert shopping list: %w", err)
	}
	return id, nil
}

// InsertShoppingListItems writes all items in one statement and publishes
// ShoppingListGeneratedEvent within the same transaction. Either every item
// and the event are committed, or nothing is.
func (s *ShoppingStore) InsertShoppingListItems(ctx context.Context, ownerID, listID uuid.UUID, items []models.AggregatedItem) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)

		list, err := q.GetShoppingList(ctx, db.GetShoppingListParams{ID: listID, UserID: ownerID})
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return shoppingdomain.ErrShoppingListNotFound
			}
			return fmt.Errorf("query shopping list: %w", err)
		}

		if len(items) > 0 {
			params := db.InsertShoppingListItemsParams{
				ShoppingListID: listID,
				UserID:         ownerID,
				IDs:            make([]string, len(items)),
				ProductNames:   make([]string, len(items)),
				Quantities:     make([]float64, len(items)),
				Units:          make([]string, len(items)),
				CreatedAt:      s.now().UTC(),
			}
			for i, it := range items {
				params.IDs[i] = uuid.NewString()
				params.ProductNames[i] = it.ProductName
				params.Quantities[i] = it.Quantity
				params.Units[i] = it.Unit
			}
			n, err := q.InsertShoppingListItems(ctx, params)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
					return fmt.Errorf("duplicate (product, unit) on list %s: %w", listID, err)
				}
				return fmt.Errorf("insert shopping list items: %w", err)
			}
			if n != int64(len(items)) {
				return fmt.Errorf("insert shopping list items: wrote %d of %d rows", n, len(items))
			}
		}

		if s.bus != nil {
			if err := s.publishGenerated(ctx, tx, list, len(items)); err != nil {
				return fmt.Errorf("publish shopping list generated: %w", err)
			}
		}
		return nil
	})
}

// GetByID returns the owner's list with its items. Returns ErrShoppingListNotFound if absent.
func (s *ShoppingStore) GetByID(ctx context.Context, ownerID, listID uuid.UUID) (*models.ShoppingList, error) {
	q := db.New(s.db.DB())
	row, err := q.GetShoppingList(ctx, db.GetShoppingListParams{ID: listID, UserID: ownerID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shoppingdomain.ErrShoppingListNotFound
		}
		return nil, fmt.Errorf("query shopping list: %w", err)
	}

	itemRows, err := q.ListShoppingListItems(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("query shopping list items: %w", err)
	}

	list := &models.ShoppingList{
		ID:         row.ID,
		OwnerID:    row.UserID,
		MealPlanID: row.MealPlanID,
		Name:       row.Name,
		CreatedAt:  row.CreatedAt,
		Items:      make([]models.ShoppingListItem, len(itemRows)),
	}
	for i, it := range itemRows {
		list.Items[i] = models.ShoppingListItem{
			ID:             it.ID,
			ShoppingListID: it.ShoppingListID,
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			Unit:           it.Unit,
			Purchased:      it.Purchased,
			CreatedAt:      it.CreatedAt,
		}
	}
	return list, nil
}

// SetItemPurchased toggles one item. Returns ErrShoppingListItemNotFound when
// no item of the owner's list matches.
func (s *ShoppingStore) SetItemPurchased(ctx context.Context, ownerID, listID, itemID uuid.UUID, purchased bool) error {
	n, err := db.New(s.db.DB()).SetShoppingListItemPurchased(ctx, db.SetShoppingListItemPurchasedParams{
		ID:             itemID,
		ShoppingListID: listID,
		UserID:         ownerID,
		Purchased:      purchased,
	})
	if err != nil {
		return fmt.Errorf("update shopping list item: %w", err)
	}
	if n == 0 {
		return shoppingdomain.ErrShoppingListItemNotFound
	}
	return nil
}

// Delete removes the owner's list; items go with it via ON DELETE CASCADE.
func (s *ShoppingStore) Delete(ctx context.Context, ownerID, listID uuid.UUID) error {
	n, err := db.New(s.db.DB()).DeleteShoppingList(ctx, db.DeleteShoppingListParams{ID: listID, UserID: ownerID})
	if err != nil {
		return fmt.Errorf("delete shopping list: %w", err)
	}
	if n == 0 {
		return shoppingdomain.ErrShoppingListNotFound
	}
	return nil
}

func (s *ShoppingStore) publishGenerated(ctx context.Context, tx *sql.Tx, list db.ShoppingList, itemCount int) error {
	event := domainevents.ShoppingListGeneratedEvent{
		EventID:        uuid.New(),
		Version:        domainevents.ShoppingListGeneratedVersion,
		ShoppingListID: list.ID,
		OwnerID:        list.UserID,
		MealPlanID:     list.MealPlanID.UUID,
		Name:           list.Name,
		ItemCount:      itemCount,
		OccurredAt:     s.now().UTC(),
	}
	msg, err := events.NewJSONMessage(event.EventID.String(), event)
	if err != nil {
		return err
	}
	return s.bus.PublishInTx(ctx, tx, domainevents.TopicShoppingListGenerated, msg)
}

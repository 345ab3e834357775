package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	pkgcache "github.com/ghuser/mealplanner/pkg/cache"
	"github.com/ghuser/mealplanner/pkg/logger"
	shoppingdomain "github.com/ghuser/mealplanner/services/shopping/domain"
	"github.com/ghuser/mealplanner/services/shopping/domain/models"
	"github.com/ghuser/mealplanner/services/shopping/domain/repositories"
	domainsvcs "github.com/ghuser/mealplanner/services/shopping/domain/services"
)

const (
	instrumentationName = "github.com/ghuser/mealplanner/services/shopping"

	// maxConcurrentFetches bounds parallel ingredient reads per generation.
	maxConcurrentFetches = 8

	cacheWarmTimeout = 2 * time.Second
)

// ListCache is the read-model cache used by GetByID. *pkgcache.ShoppingListCache satisfies it.
//
// Fills are versioned: a reader takes Version before loading from the store
// and SetIfVersion refuses to write once Invalidate has bumped the version.
type ListCache interface {
	Get(ctx context.Context, ownerID, listID uuid.UUID) (*pkgcache.CachedShoppingList, error)
	Version(ctx context.Context, ownerID, listID uuid.UUID) (int64, error)
	SetIfVersion(ctx context.Context, list *pkgcache.CachedShoppingList, version int64) (bool, error)
	Invalidate(ctx context.Context, ownerID, listID uuid.UUID) error
}

// ShoppingListService materializes meal plans into shopping lists and serves
// the user-driven operations on existing lists. Event publishing happens in
// the store (outbox pattern).
type ShoppingListService struct {
	store repositories.ShoppingStore
	user  repositories.CurrentUser
	cache ListCache
	log   logger.Logger

	tracer    trace.Tracer
	generated metric.Int64Counter
	itemCount metric.Int64Histogram
}

// NewShoppingListService returns a ShoppingListService. cache may be nil.
func NewShoppingListService(store repositories.ShoppingStore, user repositories.CurrentUser, cache ListCache, log logger.Logger) *ShoppingListService {
	meter := otel.Meter(instrumentationName)
	generated, err := meter.Int64Counter("shopping_lists.generated",
		metric.WithDescription("Shopping lists materialized from meal plans"))
	if err != nil {
		otel.Handle(err)
	}
	itemCount, err := meter.Int64Histogram("shopping_lists.items",
		metric.WithDescription("Distinct items per generated shopping list"))
	if err != nil {
		otel.Handle(err)
	}
	return &ShoppingListService{
		store:     store,
		user:      user,
		cache:     cache,
		log:       log,
		tracer:    otel.Tracer(instrumentationName),
		generated: generated,
		itemCount: itemCount,
	}
}

// Generate builds a shopping list from every entry of the meal plan dated
// within [startDate, endDate] (YYYY-MM-DD, inclusive).
//
// Nothing is written unless every read succeeds. If the list row is created
// but the items cannot be inserted, the returned *domain.PartialWriteError
// carries the orphaned list ID; the list is not removed automatically.
func (s *ShoppingListService) Generate(ctx context.Context, mealPlanID uuid.UUID, startDate, endDate string) (*models.GenerationResult, error) {
	ctx, span := s.tracer.Start(ctx, "ShoppingListService.Generate",
		trace.WithAttributes(attribute.String("meal_plan.id", mealPlanID.String())))
	defer span.End()

	result, err := s.generate(ctx, mealPlanID, startDate, endDate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("shopping_list.id", result.ListID.String()),
		attribute.Int("shopping_list.item_count", result.ItemCount),
	)
	if s.generated != nil {
		s.generated.Add(ctx, 1)
	}
	if s.itemCount != nil {
		s.itemCount.Record(ctx, int64(result.ItemCount))
	}
	return result, nil
}

func (s *ShoppingListService) generate(ctx context.Context, mealPlanID uuid.UUID, startDate, endDate string) (*models.GenerationResult, error) {
	ownerID, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	dates, err := models.ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shoppingdomain.ErrInvalidDateRange, err)
	}

	entries, err := s.store.ListEntries(ctx, ownerID, mealPlanID, dates)
	if errors.Is(err, shoppingdomain.ErrMealPlanNotFound) {
		return nil, fmt.Errorf("list meal plan entries: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list meal plan entries: %w", shoppingdomain.ErrFetchFailure, err)
	}
	entries = withinRange(entries, dates)

	ingredients, err := s.fetchIngredients(ctx, domainsvcs.RecipeIDs(entries))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shoppingdomain.ErrFetchFailure, err)
	}

	items := domainsvcs.AggregateIngredients(entries, ingredients)

	listID, err := s.store.CreateShoppingList(ctx, ownerID, mealPlanID, models.ShoppingListName(dates))
	if err != nil {
		return nil, fmt.Errorf("%w: create shopping list: %w", shoppingdomain.ErrWriteFailure, err)
	}

	if err := s.store.InsertShoppingListItems(ctx, ownerID, listID, items); err != nil {
		s.log.ErrorContext(ctx, "shopping list left without items",
			"shopping_list_id", listID, "meal_plan_id", mealPlanID, "error", err)
		return nil, &shoppingdomain.PartialWriteError{ListID: listID, Err: err}
	}

	s.log.InfoContext(ctx, "shopping list generated",
		"shopping_list_id", listID,
		"meal_plan_id", mealPlanID,
		"range", dates.String(),
		"entries", len(entries),
		"item_count", len(items),
	)
	return &models.GenerationResult{ListID: listID, ItemCount: len(items)}, nil
}

// fetchIngredients reads each recipe's ingredients once, in parallel.
// The first failure cancels the remaining reads.
func (s *ShoppingListService) fetchIngredients(ctx context.Context, recipeIDs []uuid.UUID) (map[uuid.UUID][]models.RecipeIngredient, error) {
	results := make([][]models.RecipeIngredient, len(recipeIDs))

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(maxConcurrentFetches)
	for i, id := range recipeIDs {
		grp.Go(func() error {
			ings, err := s.store.ListIngredients(grpCtx, id)
			if err != nil {
				return fmt.Errorf("list ingredients for recipe %s: %w", id, err)
			}
			results[i] = ings
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	byRecipe := make(map[uuid.UUID][]models.RecipeIngredient, len(recipeIDs))
	for i, id := range recipeIDs {
		byRecipe[id] = results[i]
	}
	return byRecipe, nil
}

// GetByID returns a list with its items using a read-through cache:
//  1. Check Redis first.
//  2. On a miss, note the cache version, then query Postgres.
//  3. Fill the cache in the background, unless a mutation invalidated the
//     list since step 2.
func (s *ShoppingListService) GetByID(ctx context.Context, listID uuid.UUID) (*models.ShoppingList, error) {
	ownerID, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	fill := false
	var version int64
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, ownerID, listID)
		if err == nil {
			return fromCache(cached), nil
		}
		if !pkgcache.IsMiss(err) {
			s.log.WarnContext(ctx, "shopping list cache read failed", "shopping_list_id", listID, "error", err)
		} else if version, err = s.cache.Version(ctx, ownerID, listID); err != nil {
			s.log.WarnContext(ctx, "shopping list cache version read failed", "shopping_list_id", listID, "error", err)
		} else {
			fill = true
		}
	}

	list, err := s.store.GetByID(ctx, ownerID, listID)
	if err != nil {
		return nil, fmt.Errorf("get shopping list: %w", err)
	}

	if fill {
		warmCtx := context.WithoutCancel(ctx)
		go func() {
			ctx, cancel := context.WithTimeout(warmCtx, cacheWarmTimeout)
			defer cancel()
			if _, err := s.cache.SetIfVersion(ctx, ToCache(list), version); err != nil {
				s.log.WarnContext(ctx, "shopping list cache warm failed", "shopping_list_id", list.ID, "error", err)
			}
		}()
	}
	return list, nil
}

// Warm loads a list of ownerID into the cache outside any request. It reports
// false without error when there is no cache, the list is gone, or the list
// was invalidated while it was being loaded.
func (s *ShoppingListService) Warm(ctx context.Context, ownerID, listID uuid.UUID) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	version, err := s.cache.Version(ctx, ownerID, listID)
	if err != nil {
		return false, fmt.Errorf("warm shopping list: %w", err)
	}
	list, err := s.store.GetByID(ctx, ownerID, listID)
	if errors.Is(err, shoppingdomain.ErrShoppingListNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("warm shopping list: %w", err)
	}
	written, err := s.cache.SetIfVersion(ctx, ToCache(list), version)
	if err != nil {
		return false, fmt.Errorf("warm shopping list: %w", err)
	}
	return written, nil
}

// SetItemPurchased marks one item as purchased or not.
func (s *ShoppingListService) SetItemPurchased(ctx context.Context, listID, itemID uuid.UUID, purchased bool) error {
	ownerID, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	if err := s.store.SetItemPurchased(ctx, ownerID, listID, itemID, purchased); err != nil {
		return fmt.Errorf("set item purchased: %w", err)
	}
	s.invalidate(ctx, ownerID, listID)
	return nil
}

// Delete removes a list and its items. Callers use it to clean up after a
// PartialWriteError.
func (s *ShoppingListService) Delete(ctx context.Context, listID uuid.UUID) error {
	ownerID, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, ownerID, listID); err != nil {
		return fmt.Errorf("delete shopping list: %w", err)
	}
	s.invalidate(ctx, ownerID, listID)
	return nil
}

func (s *ShoppingListService) currentUser(ctx context.Context) (uuid.UUID, error) {
	id, ok := s.user.CurrentUserID(ctx)
	if !ok || id == uuid.Nil {
		return uuid.Nil, shoppingdomain.ErrNotAuthenticated
	}
	return id, nil
}

func (s *ShoppingListService) invalidate(ctx context.Context, ownerID, listID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ownerID, listID); err != nil {
		s.log.WarnContext(ctx, "shopping list cache invalidation failed", "shopping_list_id", listID, "error", err)
	}
}

// withinRange drops entries a store returned outside the requested dates.
func withinRange(entries []models.MealPlanEntry, dates models.DateRange) []models.MealPlanEntry {
	kept := entries[:0:0]
	for _, e := range entries {
		if dates.Contains(e.MealDate) {
			kept = append(kept, e)
		}
	}
	return kept
}

// ToCache converts a list into its Redis read model.
func ToCache(list *models.ShoppingList) *pkgcache.CachedShoppingList {
	items := make([]pkgcache.CachedShoppingListItem, len(list.Items))
	for i, it := range list.Items {
		items[i] = pkgcache.CachedShoppingListItem{
			ID:          it.ID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
			Purchased:   it.Purchased,
			CreatedAt:   it.CreatedAt,
		}
	}
	return &pkgcache.CachedShoppingList{
		ID:         list.ID,
		OwnerID:    list.OwnerID,
		MealPlanID: list.MealPlanID,
		Name:       list.Name,
		CreatedAt:  list.CreatedAt,
		Items:      items,
	}
}

func fromCache(c *pkgcache.CachedShoppingList) *models.ShoppingList {
	items := make([]models.ShoppingListItem, len(c.Items))
	for i, it := range c.Items {
		items[i] = models.ShoppingListItem{
			ID:             it.ID,
			ShoppingListID: c.ID,
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			Unit:           it.Unit,
			Purchased:      it.Purchased,
			CreatedAt:      it.CreatedAt,
		}
	}
	return &models.ShoppingList{
		ID:         c.ID,
		OwnerID:    c.OwnerID,
		MealPlanID: c.MealPlanID,
		Name:       c.Name,
		CreatedAt:  c.CreatedAt,
		Items:      items,
	}
}

package services

import (
	"github.com/ghuser/mealplanner/pkg/app"
	"github.com/ghuser/mealplanner/pkg/auth"
	"github.com/ghuser/mealplanner/pkg/cache"
	"github.com/ghuser/mealplanner/services/shopping/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	ShoppingList *ShoppingListService
}

// New wires all shopping application services with infrastructure from the Application container.
func New(a *app.Application) *Services {
	store := postgres.NewShoppingStore(a.Db, a.EventBus)

	var listCache ListCache
	if a.Redis != nil {
		listCache = cache.NewShoppingListCache(a.Redis, a.CacheTTL)
	}

	return &Services{
		ShoppingList: NewShoppingListService(store, auth.ContextUser{}, listCache, a.Logger),
	}
}

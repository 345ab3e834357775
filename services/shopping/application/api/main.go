package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/mealplanner/pkg/app"
	"github.com/ghuser/mealplanner/services/shopping/application/handlers"
	appsvcs "github.com/ghuser/mealplanner/services/shopping/application/services"
	"github.com/ghuser/mealplanner/services/shopping/application/workflows"
)

// ShoppingRoutes registers shopping list endpoints on the provided chi router.
// The async endpoint is only mounted when a Temporal client is configured.
func ShoppingRoutes(r chi.Router, a *app.Application) {
	var async handlers.AsyncGenerator
	if a.TemporalClient != nil {
		async = workflows.NewStarter(a.TemporalClient.Client, a.TaskQueue)
	}
	Mount(r, appsvcs.New(a), async)
}

// Mount registers the routes against already wired services. async may be nil.
func Mount(r chi.Router, svcs *appsvcs.Services, async handlers.AsyncGenerator) {
	r.Route("/meal-plans/{mealPlanID}/shopping-lists", func(r chi.Router) {
		r.Post("/", handlers.NewPostShoppingListHandler(svcs).Execute)
		if async != nil {
			r.Post("/async", handlers.NewPostShoppingListAsyncHandler(async).Execute)
		}
	})
	r.Route("/shopping-lists/{listID}", func(r chi.Router) {
		r.Get("/", handlers.NewGetShoppingListHandler(svcs).Execute)
		r.Delete("/", handlers.NewDeleteShoppingListHandler(svcs).Execute)
		r.Patch("/items/{itemID}", handlers.NewPatchShoppingListItemHandler(svcs).Execute)
	})
}

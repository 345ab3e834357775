// Package workflows runs shopping list generation as a Temporal workflow so
// clients can request a list without holding the HTTP request open.
package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/ghuser/mealplanner/pkg/auth"
	shoppingdomain "github.com/ghuser/mealplanner/services/shopping/domain"
	"github.com/ghuser/mealplanner/services/shopping/domain/models"
)

const activityTimeout = 2 * time.Minute

// GenerateShoppingListInput identifies the plan, range, and user a list is generated for.
type GenerateShoppingListInput struct {
	OwnerID    uuid.UUID `json:"owner_id"`
	MealPlanID uuid.UUID `json:"meal_plan_id"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
}

// GenerateShoppingListOutput is the workflow result.
type GenerateShoppingListOutput struct {
	ListID    uuid.UUID `json:"list_id"`
	ItemCount int       `json:"item_count"`
}

// Generator materializes a shopping list for the user carried in ctx.
type Generator interface {
	Generate(ctx context.Context, mealPlanID uuid.UUID, startDate, endDate string) (*models.GenerationResult, error)
}

// GenerateShoppingListWorkflow runs a single generation attempt. Generation
// creates a new list on every call, so the activity is never retried.
func GenerateShoppingListWorkflow(ctx workflow.Context, in GenerateShoppingListInput) (*GenerateShoppingListOutput, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: activityTimeout,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	var a *Activities
	var out GenerateShoppingListOutput
	if err := workflow.ExecuteActivity(ctx, a.GenerateShoppingList, in).Get(ctx, &out); err != nil {
		return nil, err
	}

	workflow.GetLogger(ctx).Info("shopping list generated",
		"shopping_list_id", out.ListID.String(), "item_count", out.ItemCount)
	return &out, nil
}

// Activities holds the dependencies of the shopping list activities.
type Activities struct {
	gen Generator
}

// NewActivities returns Activities backed by gen.
func NewActivities(gen Generator) *Activities {
	return &Activities{gen: gen}
}

// GenerateShoppingList acts on behalf of in.OwnerID and runs the materializer.
// Domain errors that cannot succeed on a later attempt are marked non-retryable.
func (a *Activities) GenerateShoppingList(ctx context.Context, in GenerateShoppingListInput) (*GenerateShoppingListOutput, error) {
	ctx = auth.WithUserID(ctx, in.OwnerID)
	res, err := a.gen.Generate(ctx, in.MealPlanID, in.StartDate, in.EndDate)
	if err != nil {
		switch {
		case errors.Is(err, shoppingdomain.ErrNotAuthenticated),
			errors.Is(err, shoppingdomain.ErrInvalidDateRange),
			errors.Is(err, shoppingdomain.ErrWriteFailure):
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), "ShoppingListGenerationError", err)
		default:
			return nil, err
		}
	}
	return &GenerateShoppingListOutput{ListID: res.ListID, ItemCount: res.ItemCount}, nil
}

// Register adds the workflow and its activities to a Temporal worker.
func Register(r worker.Registry, gen Generator) {
	r.RegisterWorkflow(GenerateShoppingListWorkflow)
	r.RegisterActivity(NewActivities(gen))
}

// Starter starts generation workflows on a task queue.
type Starter struct {
	client    client.Client
	taskQueue string
}

// NewStarter returns a Starter that schedules workflows on taskQueue.
func NewStarter(c client.Client, taskQueue string) *Starter {
	return &Starter{client: c, taskQueue: taskQueue}
}

// StartGeneration schedules a generation for ownerID and returns the workflow and run IDs.
func (s *Starter) StartGeneration(ctx context.Context, ownerID, mealPlanID uuid.UUID, startDate, endDate string) (string, string, error) {
	run, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "shopping-list-" + uuid.NewString(),
		TaskQueue: s.taskQueue,
	}, GenerateShoppingListWorkflow, GenerateShoppingListInput{
		OwnerID:    ownerID,
		MealPlanID: mealPlanID,
		StartDate:  startDate,
		EndDate:    endDate,
	})
	if err != nil {
		return "", "", fmt.Errorf("start shopping list workflow: %w", err)
	}
	return run.GetID(), run.GetRunID(), nil
}

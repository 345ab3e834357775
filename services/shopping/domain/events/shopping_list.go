package events

import (
	"time"

	"github.com/google/uuid"
)

// TopicShoppingListGenerated is the Watermill topic published when a shopping
// list and its items have been written.
const TopicShoppingListGenerated = "shopping_list.generated"

// ShoppingListGeneratedVersion is the current payload schema version.
const ShoppingListGeneratedVersion = 1

// ShoppingListGeneratedEvent is published in the same transaction as the item insert.
// Consumers subscribe via EventBus.Subscribe(ctx, events.TopicShoppingListGenerated).
type ShoppingListGeneratedEvent struct {
	EventID        uuid.UUID `json:"event_id"` // Unique publish-time identifier for deduplication
	Version        int       `json:"version"`  // Schema version; increment on breaking changes
	ShoppingListID uuid.UUID `json:"shopping_list_id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	MealPlanID     uuid.UUID `json:"meal_plan_id"`
	Name           string    `json:"name"`
	ItemCount      int       `json:"item_count"`
	OccurredAt     time.Time `json:"occurred_at"`
}

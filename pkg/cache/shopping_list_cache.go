package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultShoppingListCacheTTL is used when no TTL is configured.
	DefaultShoppingListCacheTTL = 24 * time.Hour

	shoppingListCacheKeyPrefix = "shopping_list"
)

// CachedShoppingListItem is one item of the cached read model.
type CachedShoppingListItem struct {
	ID          uuid.UUID `json:"id"`
	ProductName string    `json:"product_name"`
	Quantity    float64   `json:"quantity"`
	Unit        string    `json:"unit"`
	Purchased   bool      `json:"purchased"`
	CreatedAt   time.Time `json:"created_at"`
}

// CachedShoppingList is the denormalized read model stored in Redis.
// Scalar fields are hash fields; Items is a single JSON-encoded field.
type CachedShoppingList struct {
	ID         uuid.UUID                `json:"id"`
	OwnerID    uuid.UUID                `json:"owner_id"`
	MealPlanID uuid.NullUUID            `json:"meal_plan_id"`
	Name       string                   `json:"name"`
	CreatedAt  time.Time                `json:"created_at"`
	Items      []CachedShoppingListItem `json:"items"`
}

// ShoppingListCache reads and writes shopping list cache entries.
// Keys are scoped by owner so one user can never read another user's list.
// Key format: "shopping_list:{ownerID}:{listID}", with the invalidation
// counter at the same key plus ":version".
type ShoppingListCache struct {
	client *RedisClient
	ttl    time.Duration
}

// NewShoppingListCache creates a ShoppingListCache. A non-positive ttl falls
// back to DefaultShoppingListCacheTTL.
func NewShoppingListCache(r *RedisClient, ttl time.Duration) *ShoppingListCache {
	if ttl <= 0 {
		ttl = DefaultShoppingListCacheTTL
	}
	return &ShoppingListCache{client: r, ttl: ttl}
}

// Get retrieves a cached list. Returns ErrMiss when the key does not exist or has expired.
func (c *ShoppingListCache) Get(ctx context.Context, ownerID, listID uuid.UUID) (*CachedShoppingList, error) {
	vals, err := c.client.Client().HGetAll(ctx, c.key(ownerID, listID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrMiss
	}
	return decodeShoppingList(vals)
}

// Version returns the list's invalidation counter, 0 when it was never
// invalidated. Read it before loading the list from the store and pass it to
// SetIfVersion, so a fill that raced with a mutation is discarded.
func (c *ShoppingListCache) Version(ctx context.Context, ownerID, listID uuid.UUID) (int64, error) {
	v, err := c.client.Client().Get(ctx, c.versionKey(ownerID, listID)).Int64()
	if IsMiss(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache version: %w", err)
	}
	return v, nil
}

// setIfVersion replaces the hash at KEYS[1] only while the counter at KEYS[2]
// still equals ARGV[1]. ARGV[2] is the TTL in milliseconds; the rest are
// field/value pairs.
var setIfVersion = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[1] then
	return 0
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], unpack(ARGV, 3))
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// SetIfVersion writes the list as a Redis hash with the cache TTL, unless the
// list was invalidated after version was read. It reports whether it wrote.
func (c *ShoppingListCache) SetIfVersion(ctx context.Context, list *CachedShoppingList, version int64) (bool, error) {
	fields, err := encodeShoppingList(list)
	if err != nil {
		return false, err
	}
	args := append([]any{strconv.FormatInt(version, 10), c.ttl.Milliseconds()}, fields...)
	keys := []string{c.key(list.OwnerID, list.ID), c.versionKey(list.OwnerID, list.ID)}
	written, err := setIfVersion.Run(ctx, c.client.Client(), keys, args...).Int()
	if err != nil {
		return false, fmt.Errorf("cache set: %w", err)
	}
	return written == 1, nil
}

// Invalidate drops the cached list and bumps its version, which makes any
// fill that started earlier a no-op. Call it after the store has changed.
func (c *ShoppingListCache) Invalidate(ctx context.Context, ownerID, listID uuid.UUID) error {
	vkey := c.versionKey(ownerID, listID)
	pipe := c.client.Client().TxPipeline()
	pipe.Incr(ctx, vkey)
	pipe.Expire(ctx, vkey, c.ttl)
	pipe.Del(ctx, c.key(ownerID, listID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

func (c *ShoppingListCache) key(ownerID, listID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", shoppingListCacheKeyPrefix, ownerID, listID)
}

func (c *ShoppingListCache) versionKey(ownerID, listID uuid.UUID) string {
	return c.key(ownerID, listID) + ":version"
}

func encodeShoppingList(list *CachedShoppingList) ([]any, error) {
	items := list.Items
	if items == nil {
		items = []CachedShoppingListItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("cache encode items: %w", err)
	}
	mealPlanID := ""
	if list.MealPlanID.Valid {
		mealPlanID = list.MealPlanID.UUID.String()
	}
	return []any{
		"id", list.ID.String(),
		"owner_id", list.OwnerID.String(),
		"meal_plan_id", mealPlanID,
		"name", list.Name,
		"created_at", list.CreatedAt.UTC().Format(time.RFC3339Nano),
		"items", string(itemsJSON),
	}, nil
}

func decodeShoppingList(vals map[string]string) (*CachedShoppingList, error) {
	id, err := uuid.Parse(vals["id"])
	if err != nil {
		return nil, fmt.Errorf("cache parse id: %w", err)
	}
	ownerID, err := uuid.Parse(vals["owner_id"])
	if err != nil {
		return nil, fmt.Errorf("cache parse owner_id: %w", err)
	}
	var mealPlanID uuid.NullUUID
	if s := vals["meal_plan_id"]; s != "" {
		if mealPlanID.UUID, err = uuid.Parse(s); err != nil {
			return nil, fmt.Errorf("cache parse meal_plan_id: %w", err)
		}
		mealPlanID.Valid = true
	}
	createdAt, err := time.Parse(time.RFC3339Nano, vals["created_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse created_at: %w", err)
	}
	var items []CachedShoppingListItem
	if err := json.Unmarshal([]byte(vals["items"]), &items); err != nil {
		return nil, fmt.Errorf("cache parse items: %w", err)
	}
	return &CachedShoppingList{
		ID:         id,
		OwnerID:    ownerID,
		MealPlanID: mealPlanID,
		Name:       vals["name"],
		CreatedAt:  createdAt,
		Items:      items,
	}, nil
}

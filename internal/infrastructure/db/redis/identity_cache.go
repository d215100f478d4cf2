package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/censusware/population-system/internal/core/domain"
)

const identityTTL = 5 * time.Minute

// IdentityCache keeps resolved caller identities in Redis so the auth gate
// does not hit the credential store on every request.
// Key format: identity:<user_id>
type IdentityCache struct {
	client *redis.Client
}

func NewIdentityCache(client *redis.Client) *IdentityCache {
	return &IdentityCache{client: client}
}

// cachedIdentity is the stored shape. The password hash deliberately never
// enters the cache.
type cachedIdentity struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Get returns the cached user, or (nil, nil) on a miss.
func (c *IdentityCache) Get(ctx context.Context, userID string) (*domain.User, error) {
	b, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("identity cache get: %w", err)
	}

	var ci cachedIdentity
	if err := json.Unmarshal(b, &ci); err != nil {
		return nil, fmt.Errorf("identity cache decode: %w", err)
	}
	return &domain.User{
		ID:        ci.ID,
		FirstName: ci.FirstName,
		LastName:  ci.LastName,
		Username:  ci.Username,
		IsAdmin:   ci.IsAdmin,
		CreatedAt: ci.CreatedAt,
		UpdatedAt: ci.UpdatedAt,
	}, nil
}

// Set stores the user for identityTTL.
func (c *IdentityCache) Set(ctx context.Context, user *domain.User) error {
	b, err := json.Marshal(cachedIdentity{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("identity cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(user.ID), b, identityTTL).Err()
}

// Invalidate drops the cached identity, called when the user is deleted.
func (c *IdentityCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}

func (c *IdentityCache) key(userID string) string {
	return "identity:" + userID
}

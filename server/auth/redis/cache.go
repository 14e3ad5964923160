// Package redis stores access token to owner email lookups in Redis so they
// are shared between service instances.
package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/meonghae/profile-service/server/auth"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "profile:token:"

// TokenCache implements auth.TokenCache on a Redis client.
type TokenCache struct {
	client *redis.Client
}

var _ auth.TokenCache = (*TokenCache)(nil)

// New connects to redisURL and checks the connection.
func New(redisURL string) (*TokenCache, error) {
	url := strings.TrimSpace(redisURL)
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &TokenCache{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *TokenCache {
	return &TokenCache{client: client}
}

func tokenKey(token string) string {
	return keyPrefix + token
}

// Get implements auth.TokenCache
func (c *TokenCache) Get(ctx context.Context, token string) (string, bool, error) {
	if c == nil || c.client == nil {
		return "", false, nil
	}
	email, err := c.client.Get(ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return email, true, nil
}

// Set implements auth.TokenCache
func (c *TokenCache) Set(ctx context.Context, token, email string, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, tokenKey(token), email, ttl).Err()
}

// Delete removes token from the cache.
func (c *TokenCache) Delete(ctx context.Context, token string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, tokenKey(token)).Err()
}

func (c *TokenCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

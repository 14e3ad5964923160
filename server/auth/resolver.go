package auth

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// CachedResolver resolves owner emails from access tokens, consulting a
// TokenCache before validating the token itself.
type CachedResolver struct {
	tokens   *TokenProvider
	cache    TokenCache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// ResolverOption configures a CachedResolver.
type ResolverOption func(*CachedResolver)

// WithResolverLogger sets the resolver's logger.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *CachedResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewCachedResolver creates a resolver. Cache entries live for at most
// cacheTTL and never longer than the token itself.
func NewCachedResolver(tokens *TokenProvider, cache TokenCache, cacheTTL time.Duration, opts ...ResolverOption) *CachedResolver {
	r := &CachedResolver{
		tokens:   tokens,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveOwnerEmail implements OwnerResolver
func (r *CachedResolver) ResolveOwnerEmail(ctx context.Context, authorization string) (string, error) {
	token := ResolveAccessToken(authorization)
	if token == "" {
		return "", unauthorized("can't read token", nil)
	}

	if r.cache != nil {
		email, ok, err := r.cache.Get(ctx, token)
		if err != nil {
			r.logger.Warn("token cache lookup failed", "error", err)
		} else if ok {
			r.logger.Debug("token cache hit", "owner", email)
			return email, nil
		}
	}

	claims, err := r.tokens.ValidateToken(token)
	if err != nil {
		r.logger.Info("token rejected", "error", err)
		return "", err
	}
	email := claims.Subject

	if r.cache != nil {
		ttl := r.cacheTTL
		if claims.ExpiresAt != nil {
			if left := claims.ExpiresAt.Time.Sub(r.tokens.now()); ttl <= 0 || left < ttl {
				ttl = left
			}
		}
		if ttl > 0 {
			if err := r.cache.Set(ctx, token, email, ttl); err != nil {
				r.logger.Warn("token cache store failed", "owner", email, "error", err)
			}
		}
	}
	return email, nil
}

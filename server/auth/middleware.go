package auth

import (
	"context"
	"net/http"
)

type contextKey string

const (
	// PrincipalContextKey is the context key for the authenticated principal
	PrincipalContextKey contextKey = "principal"
)

// GetPrincipalFromContext retrieves the authenticated principal from the context
func GetPrincipalFromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(PrincipalContextKey).(*Principal); ok {
		return p
	}
	return nil
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, p)
}

// Middleware creates HTTP middleware that requires a valid bearer token
func Middleware(resolver OwnerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := resolver.ResolveOwnerEmail(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				requestAuth(w)
				return
			}

			ctx := WithPrincipal(r.Context(), &Principal{Email: email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestAuth sends WWW-Authenticate header
func requestAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="profile-service"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

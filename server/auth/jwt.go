package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const bearerPrefix = "bearer "

// Claims are the access token claims. The subject is the owner's email.
type Claims struct {
	Roles string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenProvider issues and validates HS256 access tokens.
type TokenProvider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenProvider creates a provider signing with secret. Tokens are valid
// for ttl.
func NewTokenProvider(secret string, ttl time.Duration) (*TokenProvider, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid access token ttl: %s", ttl)
	}
	return &TokenProvider{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// CreateAccessToken issues a token for email and returns it with its expiry.
func (p *TokenProvider) CreateAccessToken(email, roles string) (string, time.Time, error) {
	issued := p.now()
	expires := issued.Add(p.ttl)

	claims := &Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("could not sign token: %w", err)
	}
	return signed, expires, nil
}

// ValidateToken checks signature and expiry and returns the claims.
func (p *TokenProvider) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, unauthorized("token is empty", nil)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, unauthorized("token is malformed", err)
		case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, unauthorized("token is expired or not active yet", err)
		default:
			return nil, unauthorized("couldn't handle this token", err)
		}
	}
	if !token.Valid {
		return nil, unauthorized("token is invalid", nil)
	}
	if claims.Subject == "" {
		return nil, unauthorized("token has no subject", nil)
	}
	return claims, nil
}

// ResolveAccessToken extracts the token from an Authorization header value.
// The "bearer" scheme is matched case-insensitively. It returns "" when the
// header carries no bearer token.
func ResolveAccessToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

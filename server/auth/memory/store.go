package memory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/meonghae/profile-service/server/auth"
	"golang.org/x/crypto/bcrypt"
)

// User represents a user in the memory store
type User struct {
	Email        string
	PasswordHash []byte
	Roles        string
}

// Store implements an in-memory authentication store
type Store struct {
	mu     sync.RWMutex
	users  map[string]User // map[email]User
	cost   int
	logger *slog.Logger
}

var _ auth.Authenticator = (*Store)(nil)

// New creates a new in-memory authentication store
func New(opts ...Option) *Store {
	s := &Store{
		users:  make(map[string]User),
		cost:   bcrypt.DefaultCost,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Option represents a configuration option for the Store
type Option func(*Store)

// WithLogger sets the logger for the store
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCost sets the bcrypt cost used when adding users.
func WithCost(cost int) Option {
	return func(s *Store) {
		s.cost = cost
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AddUser hashes password and adds a new user to the store
func (s *Store) AddUser(email, password, roles string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[email]; exists {
		s.logger.Warn("failed to add user: already exists",
			"email", email)
		return fmt.Errorf("user already exists: %s", email)
	}

	s.users[email] = User{
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
	}

	s.logger.Info("user added successfully",
		"email", email)

	return nil
}

// Authenticate implements auth.Authenticator
func (s *Store) Authenticate(ctx context.Context, creds auth.Credentials) (*auth.Principal, error) {
	email := normalizeEmail(creds.Email)

	s.mu.RLock()
	user, exists := s.users[email]
	s.mu.RUnlock()

	if !exists {
		s.logger.Info("authentication failed: user not found",
			"email", email)
		return nil, &auth.Error{
			Type:    auth.ErrInvalidCredentials,
			Message: "invalid email or password",
		}
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		s.logger.Info("authentication failed: invalid password",
			"email", email)
		return nil, &auth.Error{
			Type:    auth.ErrInvalidCredentials,
			Message: "invalid email or password",
		}
	}

	s.logger.Debug("authentication successful",
		"email", email)

	return &auth.Principal{Email: user.Email, Roles: user.Roles}, nil
}

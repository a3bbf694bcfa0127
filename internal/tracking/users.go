package tracking

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/hydration/internal/domain"
)

// UserService manages accounts.
type UserService struct {
	store domain.UserRepository
	now   func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(store domain.UserRepository) *UserService {
	return &UserService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// CreateUserInput captures a new account.
type CreateUserInput struct {
	Email  string
	Role   string
	Status string
}

// Create stores a user; a taken email is a conflict.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Invalid("email %q is not a valid address", input.Email)
	}
	existing, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Conflict("user with email %s already exists", email)
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Role:      defaultString(input.Role, "user"),
		Status:    defaultString(input.Status, "active"),
		CreatedAt: s.now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Get fetches a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFound("User", id)
	}
	return user, nil
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

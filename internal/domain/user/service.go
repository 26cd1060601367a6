package user

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Service handles portal account logic.
type Service struct {
	users  Repository
	logger *slog.Logger
}

// NewService creates a new user service.
func NewService(users Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, logger: logger}
}

// The accounts the portal ships with on a fresh database.
var defaultUsers = []User{
	{ID: "1", Username: "admin", Password: "12345", Role: RoleAdmin, FullName: "Main Administrator", Department: "Management"},
	{ID: "2", Username: "rifa", Password: "12345", Role: RoleUser, FullName: "Rifa", Department: "Secretary"},
	{ID: "3", Username: "sandra", Password: "240298", Role: RoleUser, FullName: "Sandra", Department: "Purchasing"},
}

// EnsureDefaults seeds the default accounts when the store is empty.
// Called once at startup.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	n, err := s.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if n > 0 {
		return nil
	}
	for i := range defaultUsers {
		u := defaultUsers[i]
		if err := s.users.Create(ctx, &u); err != nil {
			return fmt.Errorf("seeding user %s: %w", u.Username, err)
		}
	}
	s.logger.Info("seeded default users", "count", len(defaultUsers))
	return nil
}

// Authenticate verifies a username/password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		// Same failure for unknown user and wrong password.
		return nil, ErrBadCredentials
	}
	if subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) != 1 {
		return nil, ErrBadCredentials
	}
	redacted := u.Redacted()
	return &redacted, nil
}

// List returns all accounts with credentials stripped.
func (s *Service) List(ctx context.Context) ([]User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	for i := range users {
		users[i] = users[i].Redacted()
	}
	return users, nil
}

// CreateRequest describes a new account.
type CreateRequest struct {
	Username   string
	Password   string
	Role       Role
	FullName   string
	Department string
}

// Create adds an account with defaults matching the original portal.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*User, error) {
	if strings.TrimSpace(req.Username) == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if req.Password == "" {
		req.Password = "password123"
	}
	if req.Role == "" {
		req.Role = RoleUser
	}
	if req.Department == "" {
		req.Department = "General"
	}

	u := &User{
		ID:         uuid.NewString(),
		Username:   req.Username,
		Password:   req.Password,
		Role:       req.Role,
		FullName:   req.FullName,
		Department: req.Department,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	redacted := u.Redacted()
	return &redacted, nil
}

// Delete removes an account. The primary admin is protected.
func (s *Service) Delete(ctx context.Context, id string) error {
	admin, err := s.users.GetByUsername(ctx, "admin")
	if err == nil && admin.ID == id {
		return ErrProtectedUser
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"shorts/internal/server/auth"
	"shorts/internal/server/database"
)

// Sentinel errors for account operations.
var (
	ErrInvalidInvite      = errors.New("invalid invite code")
	ErrInviteNotSet       = errors.New("registration is disabled: no invite code configured")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// AccountService contains the business logic for registration and login.
type AccountService struct {
	repo       *database.Repository
	inviteCode string
	bcryptCost int
}

// NewAccountService creates a new account service. inviteCode is the
// process-wide registration secret; empty disables registration.
func NewAccountService(repo *database.Repository, inviteCode string, bcryptCost int) *AccountService {
	return &AccountService{
		repo:       repo,
		inviteCode: inviteCode,
		bcryptCost: bcryptCost,
	}
}

// Register creates a new account. The invite code is checked before the
// password is hashed or the store is touched, so invalid submissions cost
// nothing.
func (s *AccountService) Register(ctx context.Context, email, password, invite string) (*database.User, error) {
	if s.inviteCode == "" {
		return nil, ErrInviteNotSet
	}
	if subtle.ConstantTimeCompare([]byte(invite), []byte(s.inviteCode)) != 1 {
		return nil, ErrInvalidInvite
	}

	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, email, hash)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("account created", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login checks credentials and returns the matching profile. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (*database.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Profile fetches the account for an authenticated user id. A stale
// session pointing at a deleted account yields nil, not an error.
func (s *AccountService) Profile(ctx context.Context, id int64) (*database.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return user, nil
}

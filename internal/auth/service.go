package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avelichko/task-tracker/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInactiveUser       = errors.New("inactive user")
	ErrEmailTaken         = errors.New("email already registered")
)

// UserStore is the slice of the user repository the auth service needs.
// Lookups return (nil, nil) when no user matches.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type Service struct {
	users      UserStore
	tokens     *TokenService
	bcryptCost int
}

func NewService(users UserStore, tokens *TokenService, bcryptCost int) *Service {
	return &Service{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

func (s *Service) Register(ctx context.Context, email, name, password string, role models.UserRole) (*models.User, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// Login verifies the credentials and issues an access/refresh token pair.
// Unknown email and wrong password are indistinguishable to the caller;
// a deactivated account surfaces as its own error.
func (s *Service) Login(ctx context.Context, email, password string) (access, refresh string, err error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", "", fmt.Errorf("looking up user: %w", err)
	}
	if user == nil || !CheckPassword(password, user.PasswordHash) {
		return "", "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", "", ErrInactiveUser
	}

	access, err = s.tokens.IssueAccessToken(user)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.tokens.IssueRefreshToken(user)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Refresh mints a new access token from a valid refresh token. The user is
// re-read from storage so a deleted or deactivated account loses refresh
// capability immediately, even while the token itself is still unexpired.
// The refresh token is not rotated: it stays valid until its own expiry.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Verify(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", fmt.Errorf("looking up user: %w", err)
	}
	if user == nil || !user.IsActive {
		return "", ErrInvalidToken
	}
	return s.tokens.IssueAccessToken(user)
}

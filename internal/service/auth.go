package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pageza/smartcooking/backend/internal/models"
	"github.com/pageza/smartcooking/backend/internal/repository"
)

type AuthService struct {
	users  repository.UserRepository
	tokens *TokenManager
	usage  *UsageTracker
	now    func() time.Time
}

func NewAuthService(users repository.UserRepository, tokens *TokenManager, usage *UsageTracker) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		usage:  usage,
		now:    time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a free plan account and returns a session token for it
func (s *AuthService) Register(ctx context.Context, email, password, name string) (string, *models.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return "", nil, newError(ErrValidation, "Email, password e nome sono obbligatori", nil)
	}

	// Check if user already exists
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return "", nil, newError(ErrConflict, "Email già registrata", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return "", nil, err
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashed,
		Name:         name,
		Plan:         models.PlanFree,
		MonthReset:   MonthLabel(now),
		CreatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", nil, newError(ErrConflict, "Email già registrata", err)
		}
		return "", nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	log.Ctx(ctx).Info().Str("user_id", user.ID).Msg("user registered")
	return token, user, nil
}

// Login verifies credentials, rolls the usage counter over if needed and
// returns a fresh session token
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, newError(ErrUnauthorized, "Credenziali non valide", nil)
	}
	if err != nil {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		return "", nil, newError(ErrUnauthorized, "Credenziali non valide", nil)
	}

	if err := s.usage.Refresh(ctx, user); err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// Authenticate resolves a bearer token to the current user record
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, newError(ErrUnauthorized, "Token mancante", nil)
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrUnauthorized, "Utente non trovato", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// Profile returns user with its usage counter rolled over to the current month
func (s *AuthService) Profile(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.usage.Refresh(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

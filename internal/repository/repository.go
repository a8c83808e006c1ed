// Package repository maps store records to typed models. Two stores
// implement the same interfaces: a gorm store (postgres, sqlite) and a
// MongoDB document store.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pageza/smartcooking/backend/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the lookup
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// ResetMonthlyUsage zeroes the counter and sets the month label, but only
	// when the stored label differs from month. It reports whether a reset happened.
	ResetMonthlyUsage(ctx context.Context, id, month string) (bool, error)
	IncrementMonthlyUsage(ctx context.Context, id string) error
}

type RecipeRepository interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	GetByID(ctx context.Context, id string) (*models.Recipe, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Recipe, error)
}

type SavedRecipeRepository interface {
	Create(ctx context.Context, saved *models.SavedRecipe) error
	Exists(ctx context.Context, recipeID, userID string) (bool, error)
	// Delete removes the saved entry only if it belongs to userID.
	Delete(ctx context.Context, id, userID string) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.SavedRecipe, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, tx *models.PaymentTransaction) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.PaymentTransaction, error)
	// ConfirmPaid moves a pending transaction to complete/paid and
	// upgrades its owner to the unlimited plan. Only the caller that performs
	// the transition gets applied=true; redeliveries are no-ops.
	ConfirmPaid(ctx context.Context, sessionID string, at time.Time) (applied bool, err error)
	// MarkExpired moves a pending transaction to expired/failed.
	MarkExpired(ctx context.Context, sessionID string, at time.Time) (applied bool, err error)
}

// Store bundles the accessors for the four collections
type Store struct {
	Users    UserRepository
	Recipes  RecipeRepository
	Saved    SavedRecipeRepository
	Payments PaymentRepository

	ping func(ctx context.Context) error
}

// Ping checks that the backing store is reachable
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

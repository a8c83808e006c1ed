package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pageza/smartcooking/backend/internal/models"
	"github.com/pageza/smartcooking/backend/internal/repository"
)

// MonthLabel formats t as the UTC "YYYY-MM" label the usage counter applies to
func MonthLabel(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// UsageTracker owns the monthly generation counter. Every path that reads
// the counter goes through Refresh first, so a counter left over from a
// previous month is never observed.
type UsageTracker struct {
	users repository.UserRepository
	limit int
	now   func() time.Time
}

func NewUsageTracker(users repository.UserRepository, freeLimit int) *UsageTracker {
	return &UsageTracker{
		users: users,
		limit: freeLimit,
		now:   time.Now,
	}
}

// Refresh resets user's counter when its month label is stale, updating
// both the store and the in-memory record.
func (u *UsageTracker) Refresh(ctx context.Context, user *models.User) error {
	month := MonthLabel(u.now())
	if user.MonthReset == month {
		return nil
	}

	reset, err := u.users.ResetMonthlyUsage(ctx, user.ID, month)
	if err != nil {
		return fmt.Errorf("refresh monthly usage: %w", err)
	}
	if reset {
		user.RecipesGeneratedThisMonth = 0
		user.MonthReset = month
		return nil
	}

	// A concurrent request already rolled the month over; pick up its state.
	current, err := u.users.GetByID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("reload user after rollover: %w", err)
	}
	user.RecipesGeneratedThisMonth = current.RecipesGeneratedThisMonth
	user.MonthReset = current.MonthReset
	return nil
}

// CheckQuota fails with ErrQuotaExceeded once a free user reached the ceiling
func (u *UsageTracker) CheckQuota(user *models.User) error {
	if user.IsUnlimited() || user.RecipesGeneratedThisMonth < u.limit {
		return nil
	}
	return newError(ErrQuotaExceeded, fmt.Sprintf(
		"Hai raggiunto il limite di %d ricette mensili. Passa a Unlimited per ricette illimitate!", u.limit), nil)
}

// Record counts one successful generation
func (u *UsageTracker) Record(ctx context.Context, user *models.User) error {
	if err := u.users.IncrementMonthlyUsage(ctx, user.ID); err != nil {
		return fmt.Errorf("record generation: %w", err)
	}
	user.RecipesGeneratedThisMonth++
	return nil
}

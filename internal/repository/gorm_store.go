package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pageza/smartcooking/backend/internal/database"
	"github.com/pageza/smartcooking/backend/internal/models"
)

// NewGormStore builds a Store backed by a gorm connection
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:    &gormUsers{db: db},
		Recipes:  &gormRecipes{db: db},
		Saved:    &gormSaved{db: db},
		Payments: &gormPayments{db: db},
		ping: func(ctx context.Context) error {
			return database.HealthCheck(ctx, db)
		},
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

type gormUsers struct {
	db *gorm.DB
}

func (r *gormUsers) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (r *gormUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *gormUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *gormUsers) ResetMonthlyUsage(ctx context.Context, id, month string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND month_reset <> ?", id, month).
		Updates(map[string]interface{}{
			"recipes_generated_this_month": 0,
			"month_reset":                  month,
		})
	if res.Error != nil {
		return false, fmt.Errorf("reset monthly usage: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *gormUsers) IncrementMonthlyUsage(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("recipes_generated_this_month", gorm.Expr("recipes_generated_this_month + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("increment monthly usage: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormRecipes struct {
	db *gorm.DB
}

func (r *gormRecipes) Create(ctx context.Context, recipe *models.Recipe) error {
	if err := r.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return fmt.Errorf("create recipe: %w", translate(err))
	}
	return nil
}

func (r *gormRecipes) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&recipe).Error; err != nil {
		return nil, translate(err)
	}
	return &recipe, nil
}

func (r *gormRecipes) ListByUser(ctx context.Context, userID string, limit int) ([]models.Recipe, error) {
	recipes := []models.Recipe{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

type gormSaved struct {
	db *gorm.DB
}

func (r *gormSaved) Create(ctx context.Context, saved *models.SavedRecipe) error {
	if err := r.db.WithContext(ctx).Create(saved).Error; err != nil {
		return fmt.Errorf("create saved recipe: %w", translate(err))
	}
	return nil
}

func (r *gormSaved) Exists(ctx context.Context, recipeID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SavedRecipe{}).
		Where("recipe_id = ? AND user_id = ?", recipeID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check saved recipe: %w", err)
	}
	return count > 0, nil
}

func (r *gormSaved) Delete(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.SavedRecipe{})
	if res.Error != nil {
		return fmt.Errorf("delete saved recipe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormSaved) ListByUser(ctx context.Context, userID string, limit int) ([]models.SavedRecipe, error) {
	saved := []models.SavedRecipe{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("saved_at DESC").
		Limit(limit).
		Find(&saved).Error
	if err != nil {
		return nil, fmt.Errorf("list saved recipes: %w", err)
	}
	return saved, nil
}

type gormPayments struct {
	db *gorm.DB
}

func (r *gormPayments) Create(ctx context.Context, tx *models.PaymentTransaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("create payment transaction: %w", translate(err))
	}
	return nil
}

func (r *gormPayments) GetBySessionID(ctx context.Context, sessionID string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&tx).Error; err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (r *gormPayments) ConfirmPaid(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.PaymentTransaction
		if err := tx.Where("session_id = ?", sessionID).First(&payment).Error; err != nil {
			return translate(err)
		}

		res := tx.Model(&models.PaymentTransaction{}).
			Where("session_id = ? AND status = ?", sessionID, models.TransactionPending).
			Updates(map[string]interface{}{
				"status":         models.TransactionComplete,
				"payment_status": models.PaymentStatusPaid,
				"updated_at":     at,
			})
		if res.Error != nil {
			return fmt.Errorf("complete payment transaction: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		res = tx.Model(&models.User{}).
			Where("id = ?", payment.UserID).
			Updates(map[string]interface{}{
				"plan":        models.PlanUnlimited,
				"upgraded_at": at,
			})
		if res.Error != nil {
			return fmt.Errorf("upgrade user plan: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("upgrade user plan %s: %w", payment.UserID, ErrNotFound)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *gormPayments) MarkExpired(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.PaymentTransaction{}).
		Where("session_id = ? AND status = ?", sessionID, models.TransactionPending).
		Updates(map[string]interface{}{
			"status":         models.TransactionExpired,
			"payment_status": models.PaymentStatusFailed,
			"updated_at":     at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("expire payment transaction: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/smartcooking/backend/internal/mocks"
	"github.com/pageza/smartcooking/backend/internal/models"
	"github.com/pageza/smartcooking/backend/internal/repository"
	"github.com/pageza/smartcooking/backend/internal/service"
	"github.com/pageza/smartcooking/backend/internal/testhelpers"
)

const testFreeLimit = 3

type testEnv struct {
	db        *gorm.DB
	store     *repository.Store
	tokens    *service.TokenManager
	usage     *service.UsageTracker
	auth      *service.AuthService
	recipes   *service.RecipeService
	payments  *service.PaymentService
	generator *mocks.MockTextGenerator
	gateway   *mocks.MockPaymentGateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testhelpers.SetupSQLiteDB(t)
	store := repository.NewGormStore(db)
	tokens := service.NewTokenManager("test-secret", time.Hour)
	usage := service.NewUsageTracker(store.Users, testFreeLimit)
	generator := new(mocks.MockTextGenerator)
	gateway := new(mocks.MockPaymentGateway)

	return &testEnv{
		db:        db,
		store:     store,
		tokens:    tokens,
		usage:     usage,
		auth:      service.NewAuthService(store.Users, tokens, usage),
		recipes:   service.NewRecipeService(store, usage, generator, 5*time.Second),
		payments:  service.NewPaymentService(store.Payments, gateway, 2.99, "eur", 5*time.Second),
		generator: generator,
		gateway:   gateway,
	}
}

func (e *testEnv) register(t *testing.T, email string) *models.User {
	t.Helper()
	_, user, err := e.auth.Register(context.Background(), email, "password123", "Mario")
	require.NoError(t, err)
	return user
}

func (e *testEnv) reload(t *testing.T, id string) *models.User {
	t.Helper()
	user, err := e.store.Users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return user
}

// ageCounter moves the user's counter into a past month
func (e *testEnv) ageCounter(t *testing.T, id string, count int) {
	t.Helper()
	err := e.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"recipes_generated_this_month": count,
		"month_reset":                  "2000-01",
	}).Error
	require.NoError(t, err)
}

func (e *testEnv) setCounter(t *testing.T, id string, count int) {
	t.Helper()
	err := e.db.Model(&models.User{}).Where("id = ?", id).
		Update("recipes_generated_this_month", count).Error
	require.NoError(t, err)
}

package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/smartcooking/backend/internal/models"
	"github.com/pageza/smartcooking/backend/internal/service"
)

func startCheckout(t *testing.T, env *testEnv, user *models.User, sessionID string) {
	t.Helper()
	env.gateway.On("CreateSession", mock.Anything, mock.Anything).
		Return(&service.CheckoutSession{ID: sessionID, URL: "https://checkout.example/" + sessionID}, nil).Once()
	_, err := env.payments.CreateCheckout(context.Background(), user, "https://app.example")
	require.NoError(t, err)
}

func paidStatus(sessionID, userID string) *service.CheckoutStatus {
	return &service.CheckoutStatus{
		SessionID:     sessionID,
		Status:        "complete",
		PaymentStatus: "paid",
		AmountTotal:   299,
		Currency:      "eur",
		Metadata:      map[string]string{"user_id": userID, "plan": "unlimited"},
	}
}

func TestCreateCheckout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "mario@example.com")

	env.gateway.On("CreateSession", mock.Anything, service.CheckoutSessionRequest{
		AmountCents: 299,
		Currency:    "eur",
		ProductName: "Smart Cooking Unlimited",
		SuccessURL:  "https://app.example/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   "https://app.example/pricing",
		Metadata: map[string]string{
			"user_id":    user.ID,
			"user_email": "mario@example.com",
			"plan":       "unlimited",
		},
	}).Return(&service.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil).Once()

	resp, err := env.payments.CreateCheckout(ctx, user, "https://app.example/")
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", resp.SessionID)
	assert.Equal(t, "https://checkout.example/cs_test_1", resp.URL)

	tx, err := env.store.Payments.GetBySessionID(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, tx.UserID)
	assert.Equal(t, models.TransactionPending, tx.Status)
	assert.Equal(t, models.PaymentStatusInitiated, tx.PaymentStatus)
	assert.InDelta(t, 2.99, tx.Amount, 0.0001)
	env.gateway.AssertExpectations(t)
}

func TestCreateCheckoutAlreadyUnlimited(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "mario@example.com")
	user.Plan = models.PlanUnlimited

	_, err := env.payments.CreateCheckout(context.Background(), user, "https://app.example")
	assert.ErrorIs(t, err, service.ErrInvalidState)
	env.gateway.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}

func TestCreateCheckoutProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "mario@example.com")
	env.gateway.On("CreateSession", mock.Anything, mock.Anything).Return(nil, errors.New("card network down")).Once()

	_, err := env.payments.CreateCheckout(context.Background(), user, "https://app.example")
	assert.ErrorIs(t, err, service.ErrPayment)

	var count int64
	require.NoError(t, env.db.Model(&models.PaymentTransaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCheckoutStatusPaidUpgradesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "mario@example.com")
	startCheckout(t, env, user, "cs_test_1")

	env.gateway.On("GetStatus", mock.Anything, "cs_test_1").Return(paidStatus("cs_test_1", user.ID), nil).Twice()

	resp, err := env.payments.GetCheckoutStatus(ctx, user, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, "complete", resp.Status)
	assert.Equal(t, "paid", resp.PaymentStatus)
	assert.InDelta(t, 2.99, resp.AmountTotal, 0.0001)
	assert.Equal(t, "eur", resp.Currency)

	upgraded := env.reload(t, user.ID)
	assert.Equal(t, models.PlanUnlimited, upgraded.Plan)
	require.NotNil(t, upgraded.UpgradedAt)
	firstUpgrade := *upgraded.UpgradedAt

	_, err = env.payments.GetCheckoutStatus(ctx, user, "cs_test_1")
	require.NoError(t, err)
	again := env.reload(t, user.ID)
	require.NotNil(t, again.UpgradedAt)
	assert.True(t, firstUpgrade.Equal(*again.UpgradedAt))

	tx, err := env.store.Payments.GetBySessionID(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionComplete, tx.Status)
	assert.Equal(t, models.PaymentStatusPaid, tx.PaymentStatus)
}

func TestCheckoutStatusOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "mario@example.com")
	other := env.register(t, "luigi@example.com")
	startCheckout(t, env, owner, "cs_test_1")

	_, err := env.payments.GetCheckoutStatus(ctx, other, "cs_test_1")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = env.payments.GetCheckoutStatus(ctx, owner, "cs_unknown")
	assert.ErrorIs(t, err, service.ErrNotFound)

	env.gateway.AssertNotCalled(t, "GetStatus", mock.Anything, mock.Anything)
}

func TestCheckoutStatusExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "mario@example.com")
	startCheckout(t, env, user, "cs_test_1")

	env.gateway.On("GetStatus", mock.Anything, "cs_test_1").Return(&service.CheckoutStatus{
		SessionID:     "cs_test_1",
		Status:        "expired",
		PaymentStatus: "unpaid",
		AmountTotal:   299,
		Currency:      "eur",
	}, nil).Once()

	resp, err := env.payments.GetCheckoutStatus(ctx, user, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, "expired", resp.Status)

	tx, err := env.store.Payments.GetBySessionID(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionExpired, tx.Status)
	assert.Equal(t, models.PaymentStatusFailed, tx.PaymentStatus)

	// A late paid report cannot revive an expired transaction.
	env.gateway.On("GetStatus", mock.Anything, "cs_test_1").Return(paidStatus("cs_test_1", user.ID), nil).Once()
	_, err = env.payments.GetCheckoutStatus(ctx, user, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, env.reload(t, user.ID).Plan)
}

func TestCheckoutStatusProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "mario@example.com")
	startCheckout(t, env, user, "cs_test_1")
	env.gateway.On("GetStatus", mock.Anything, "cs_test_1").Return(nil, errors.New("timeout")).Once()

	_, err := env.payments.GetCheckoutStatus(context.Background(), user, "cs_test_1")
	assert.ErrorIs(t, err, service.ErrPayment)
}

func TestWebhookDuplicateDeliveryUpgradesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "mario@example.com")
	startCheckout(t, env, user, "cs_test_1")

	payload := []byte(`{"id":"evt_1"}`)
	env.gateway.On("VerifyWebhook", payload, "sig").Return(&service.WebhookEvent{
		ID:      "evt_1",
		Type:    service.EventSessionCompleted,
		Session: paidStatus("cs_test_1", user.ID),
	}, nil).Twice()

	require.NoError(t, env.payments.HandleWebhook(ctx, payload, "sig"))
	first := env.reload(t, user.ID)
	assert.Equal(t, models.PlanUnlimited, first.Plan)
	require.NotNil(t, first.UpgradedAt)

	require.NoError(t, env.payments.HandleWebhook(ctx, payload, "sig"))
	second := env.reload(t, user.ID)
	require.NotNil(t, second.UpgradedAt)
	assert.True(t, first.UpgradedAt.Equal(*second.UpgradedAt))

	tx, err := env.store.Payments.GetBySessionID(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionComplete, tx.Status)
}

func TestWebhookRejectedSignature(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "mario@example.com")
	startCheckout(t, env, user, "cs_test_1")

	env.gateway.On("VerifyWebhook", mock.Anything, "forged").Return(nil, errors.New("signature mismatch")).Once()

	err := env.payments.HandleWebhook(context.Background(), []byte(`{}`), "forged")
	assert.ErrorIs(t, err, service.ErrPayment)
	assert.Equal(t, models.PlanFree, env.reload(t, user.ID).Plan)
}

func TestWebhookIgnoredEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "mario@example.com")
	other := env.register(t, "luigi@example.com")
	startCheckout(t, env, owner, "cs_test_1")

	unpaid := paidStatus("cs_test_1", owner.ID)
	unpaid.PaymentStatus = "unpaid"

	events := map[string]*service.WebhookEvent{
		"unrelated":     {ID: "evt_1", Type: "invoice.paid"},
		"unpaid":        {ID: "evt_2", Type: service.EventSessionCompleted, Session: unpaid},
		"other user":    {ID: "evt_3", Type: service.EventSessionCompleted, Session: paidStatus("cs_test_1", other.ID)},
		"unknown local": {ID: "evt_4", Type: service.EventSessionCompleted, Session: paidStatus("cs_missing", owner.ID)},
	}
	for name, event := range events {
		env.gateway.On("VerifyWebhook", []byte(name), "sig").Return(event, nil).Once()
		_ = env.payments.HandleWebhook(ctx, []byte(name), "sig")
	}

	assert.Equal(t, models.PlanFree, env.reload(t, owner.ID).Plan)
	assert.Equal(t, models.PlanFree, env.reload(t, other.ID).Plan)
	tx, err := env.store.Payments.GetBySessionID(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionPending, tx.Status)
}

func TestWebhookExpiredSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "mario@example.com")
	startCheckout(t, env, user, "cs_test_1")

	env.gateway.On("VerifyWebhook", mock.Anything, "sig").Return(&service.WebhookEvent{
		ID:   "evt_1",
		Type: service.EventSessionExpired,
		Session: &service.CheckoutStatus{
			SessionID:     "cs_test_1",
			Status:        "expired",
			PaymentStatus: "unpaid",
			Metadata:      map[string]string{"user_id": user.ID},
		},
	}, nil).Once()

	require.NoError(t, env.payments.HandleWebhook(ctx, []byte(`{}`), "sig"))
	tx, err := env.store.Payments.GetBySessionID(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionExpired, tx.Status)
}

// End to end: register, generate until the free ceiling, pay, keep generating.
func TestUpgradeLiftsQuota(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "mario@example.com")
	env.generator.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(bruschettaJSON, nil)

	for i := 0; i < testFreeLimit; i++ {
		_, err := env.recipes.Generate(ctx, env.reload(t, user.ID), service.GenerateParams{Ingredients: []string{"pane"}})
		require.NoError(t, err)
	}
	_, err := env.recipes.Generate(ctx, env.reload(t, user.ID), service.GenerateParams{Ingredients: []string{"pane"}})
	require.ErrorIs(t, err, service.ErrQuotaExceeded)

	startCheckout(t, env, env.reload(t, user.ID), "cs_test_1")
	env.gateway.On("GetStatus", mock.Anything, "cs_test_1").Return(paidStatus("cs_test_1", user.ID), nil).Once()
	_, err = env.payments.GetCheckoutStatus(ctx, env.reload(t, user.ID), "cs_test_1")
	require.NoError(t, err)

	_, err = env.recipes.Generate(ctx, env.reload(t, user.ID), service.GenerateParams{Ingredients: []string{"pane"}})
	require.NoError(t, err)
	assert.Equal(t, testFreeLimit+1, env.reload(t, user.ID).RecipesGeneratedThisMonth)
	env.generator.AssertNumberOfCalls(t, "Complete", testFreeLimit+1)
}

package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/smartcooking/backend/internal/api"
	"github.com/pageza/smartcooking/backend/internal/mocks"
	"github.com/pageza/smartcooking/backend/internal/models"
	"github.com/pageza/smartcooking/backend/internal/repository"
	"github.com/pageza/smartcooking/backend/internal/service"
	"github.com/pageza/smartcooking/backend/internal/testhelpers"
	"github.com/pageza/smartcooking/backend/internal/types"
)

const tiramisuJSON = `{
  "title": "Tiramisù",
  "description": "Il dolce al cucchiaio più amato.",
  "ingredients": ["250 g di mascarpone", "2 uova", "savoiardi", "caffè"],
  "instructions": ["Prepara il caffè", "Monta le uova", "Componi gli strati"],
  "prep_time": "30 minuti",
  "cook_time": "0 minuti",
  "tips": "Lascia riposare una notte",
  "substitutions": ["Puoi usare pavesini al posto dei savoiardi"]
}`

type testApp struct {
	router    *gin.Engine
	store     *repository.Store
	generator *mocks.MockTextGenerator
	gateway   *mocks.MockPaymentGateway
}

func newTestApp(t *testing.T, checks map[string]api.Pinger) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewGormStore(testhelpers.SetupSQLiteDB(t))
	tokens := service.NewTokenManager("test-secret", time.Hour)
	usage := service.NewUsageTracker(store.Users, 50)
	generator := new(mocks.MockTextGenerator)
	gateway := new(mocks.MockPaymentGateway)

	auth := service.NewAuthService(store.Users, tokens, usage)
	if checks == nil {
		checks = map[string]api.Pinger{"store": store}
	}

	router := SetupRouter(Handlers{
		Auth:     api.NewAuthHandler(auth),
		Recipes:  api.NewRecipeHandler(service.NewRecipeService(store, usage, generator, time.Second)),
		Payments: api.NewPaymentHandler(service.NewPaymentService(store.Payments, gateway, 2.99, "eur", time.Second)),
		Health:   api.NewHealthHandler(checks),
	}, Options{
		Logger:        zerolog.Nop(),
		CORSOrigins:   []string{"*"},
		Authenticator: auth,
	})
	return &testApp{router: router, store: store, generator: generator, gateway: gateway}
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if raw, ok := body.([]byte); ok {
		reader = bytes.NewReader(raw)
	} else if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) register(t *testing.T, email string) types.TokenResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/auth/register", "", types.RegisterRequest{
		Email: email, Password: "password123", Name: "Mario",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp types.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestRootAndHealth(t *testing.T) {
	app := newTestApp(t, nil)

	w := app.do(t, http.MethodGet, "/api/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Smart Cooking API","status":"online"}`, w.Body.String())

	w = app.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = app.do(t, http.MethodGet, "/api/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "smartcooking_")
}

func TestReadyReportsFailingDependency(t *testing.T) {
	app := newTestApp(t, map[string]api.Pinger{
		"redis": api.PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	w := app.do(t, http.MethodGet, "/api/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"not_ready","checks":{"redis":"unavailable"}}`, w.Body.String())
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t, nil)
	registered := app.register(t, "mario@example.com")
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, models.PlanFree, registered.User.Plan)

	w := app.do(t, http.MethodPost, "/api/auth/register", "", types.RegisterRequest{
		Email: "mario@example.com", Password: "x", Name: "Altro",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email già registrata", decode[types.ErrorResponse](t, w).Detail)

	w = app.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decode[types.ErrorResponse](t, w).Error)

	w = app.do(t, http.MethodPost, "/api/auth/login", "", types.LoginRequest{Email: "mario@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodPost, "/api/auth/login", "", types.LoginRequest{Email: "mario@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[types.TokenResponse](t, w)

	w = app.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[types.UserResponse](t, w)
	assert.Equal(t, registered.User.ID, me.ID)
	assert.NotContains(t, w.Body.String(), "password")

	w = app.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// register, generate a sweet recipe for two, save it, list it, remove it
func TestRecipeLifecycle(t *testing.T) {
	app := newTestApp(t, nil)
	session := app.register(t, "mario@example.com")

	app.generator.On("Complete", mock.Anything, mock.Anything, service.RecipeSystemInstruction).
		Return(tiramisuJSON, nil).Once()

	w := app.do(t, http.MethodPost, "/api/recipes/generate", session.Token, types.GenerateRecipeRequest{
		Ingredients: []string{"mascarpone", "uova", "caffè"},
		Category:    "dolce",
		Servings:    2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	recipe := decode[models.Recipe](t, w)
	assert.Equal(t, "Tiramisù", recipe.Title)
	assert.Equal(t, "dolce", recipe.Category)
	assert.Equal(t, 2, recipe.Servings)

	w = app.do(t, http.MethodGet, "/api/auth/me", session.Token, nil)
	assert.Equal(t, 1, decode[types.UserResponse](t, w).RecipesGeneratedThisMonth)

	w = app.do(t, http.MethodPost, "/api/recipes/"+recipe.ID+"/save", session.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := decode[types.MessageResponse](t, w)
	assert.Equal(t, "Ricetta salvata!", saved.Message)
	require.NotEmpty(t, saved.ID)

	w = app.do(t, http.MethodPost, "/api/recipes/"+recipe.ID+"/save", session.Token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(t, http.MethodGet, "/api/recipes/saved", session.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.SavedRecipe](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, recipe.ID, list[0].RecipeID)
	assert.Equal(t, "Tiramisù", list[0].Title)

	w = app.do(t, http.MethodGet, "/api/recipes/history", session.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Recipe](t, w), 1)

	w = app.do(t, http.MethodDelete, "/api/recipes/saved/"+saved.ID, session.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ricetta rimossa dai preferiti", decode[types.MessageResponse](t, w).Message)

	w = app.do(t, http.MethodGet, "/api/recipes/saved", session.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = app.do(t, http.MethodDelete, "/api/recipes/saved/"+saved.ID, session.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSharedRecipeIsPublic(t *testing.T) {
	app := newTestApp(t, nil)
	session := app.register(t, "mario@example.com")

	app.generator.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(tiramisuJSON, nil).Once()
	w := app.do(t, http.MethodPost, "/api/recipes/generate", session.Token, types.GenerateRecipeRequest{
		Ingredients: []string{"mascarpone"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	recipe := decode[models.Recipe](t, w)

	for _, token := range []string{"", session.Token, "garbage"} {
		w = app.do(t, http.MethodGet, "/api/recipes/shared/"+recipe.ID, token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Tiramisù", body["title"])
		assert.NotContains(t, body, "user_id")
	}

	w = app.do(t, http.MethodGet, "/api/recipes/shared/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateErrors(t *testing.T) {
	app := newTestApp(t, nil)
	session := app.register(t, "mario@example.com")

	w := app.do(t, http.MethodPost, "/api/recipes/generate", session.Token, map[string]interface{}{"ingredients": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	app.generator.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("non è json", nil).Once()
	w = app.do(t, http.MethodPost, "/api/recipes/generate", session.Token, types.GenerateRecipeRequest{Ingredients: []string{"pane"}})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "generation_error", decode[types.ErrorResponse](t, w).Error)
}

func TestPaymentFlow(t *testing.T) {
	app := newTestApp(t, nil)
	session := app.register(t, "mario@example.com")

	app.gateway.On("CreateSession", mock.Anything, mock.Anything).
		Return(&service.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil).Once()

	w := app.do(t, http.MethodPost, "/api/payments/checkout", session.Token, types.CheckoutRequest{OriginURL: "https://app.example"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"url":"https://checkout.example/cs_test_1","session_id":"cs_test_1"}`, w.Body.String())

	w = app.do(t, http.MethodPost, "/api/payments/checkout", session.Token, map[string]string{"origin_url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	app.gateway.On("GetStatus", mock.Anything, "cs_test_1").Return(&service.CheckoutStatus{
		SessionID:     "cs_test_1",
		Status:        "complete",
		PaymentStatus: "paid",
		AmountTotal:   299,
		Currency:      "eur",
		Metadata:      map[string]string{"user_id": session.User.ID},
	}, nil).Once()

	w = app.do(t, http.MethodGet, "/api/payments/status/cs_test_1", session.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"status":"complete","payment_status":"paid","amount_total":2.99,"currency":"eur"}`, w.Body.String())

	w = app.do(t, http.MethodGet, "/api/auth/me", session.Token, nil)
	assert.Equal(t, models.PlanUnlimited, decode[types.UserResponse](t, w).Plan)

	w = app.do(t, http.MethodPost, "/api/payments/checkout", session.Token, types.CheckoutRequest{OriginURL: "https://app.example"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_state", decode[types.ErrorResponse](t, w).Error)
}

func TestWebhookAlwaysAcknowledges(t *testing.T) {
	app := newTestApp(t, nil)
	app.gateway.On("VerifyWebhook", []byte(`{"forged":true}`), "t=1,v1=bad").
		Return(nil, errors.New("signature mismatch")).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/stripe", bytes.NewReader([]byte(`{"forged":true}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=bad")
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	app.gateway.AssertExpectations(t)
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/smartcooking/backend/internal/service"
	"github.com/pageza/smartcooking/backend/internal/types"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
		detail string
	}{
		{"validation", &service.Error{Kind: service.ErrValidation, Message: "Inserisci almeno un ingrediente"}, http.StatusBadRequest, "validation_error", "Inserisci almeno un ingrediente"},
		{"unauthorized", &service.Error{Kind: service.ErrUnauthorized, Message: "Credenziali non valide"}, http.StatusUnauthorized, "unauthorized", "Credenziali non valide"},
		{"quota", &service.Error{Kind: service.ErrQuotaExceeded, Message: "limite"}, http.StatusForbidden, "quota_exceeded", "limite"},
		{"not found", &service.Error{Kind: service.ErrNotFound, Message: "Ricetta non trovata"}, http.StatusNotFound, "not_found", "Ricetta non trovata"},
		{"conflict", &service.Error{Kind: service.ErrConflict, Message: "Ricetta già salvata"}, http.StatusConflict, "conflict", "Ricetta già salvata"},
		{"invalid state", &service.Error{Kind: service.ErrInvalidState, Message: "già Unlimited"}, http.StatusBadRequest, "invalid_state", "già Unlimited"},
		{"generation", fmt.Errorf("generate: %w", &service.Error{Kind: service.ErrGeneration, Message: "Riprova", Cause: errors.New("timeout")}), http.StatusBadGateway, "generation_error", "Riprova"},
		{"payment", &service.Error{Kind: service.ErrPayment, Message: "pagamento"}, http.StatusBadGateway, "payment_error", "pagamento"},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError, "internal_error", "Errore interno del server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body types.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error)
			assert.Equal(t, tt.detail, body.Detail)
			assert.NotContains(t, w.Body.String(), "disk full")
			assert.NotContains(t, w.Body.String(), "timeout")
		})
	}
}

package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pageza/smartcooking/backend/internal/service"
	"github.com/pageza/smartcooking/backend/internal/types"
)

const maxWebhookBody = 65536

type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

func (h *PaymentHandler) Checkout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	resp, err := h.payments.CreateCheckout(c.Request.Context(), user, req.OriginURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) Status(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	resp, err := h.payments.GetCheckoutStatus(c.Request.Context(), user, c.Param("sessionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Webhook always acknowledges so the provider does not retry
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("failed to read webhook body")
	} else if err := h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("webhook acknowledged without changes")
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pageza/smartcooking/backend/internal/metrics"
	"github.com/pageza/smartcooking/backend/internal/models"
	"github.com/pageza/smartcooking/backend/internal/repository"
	"github.com/pageza/smartcooking/backend/internal/types"
)

// Provider values of a checkout session that drive local transitions
const (
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"
	SessionPaymentPaid    = "paid"

	EventSessionCompleted        = "checkout.session.completed"
	EventAsyncPaymentSucceeded   = "checkout.session.async_payment_succeeded"
	EventSessionExpired          = "checkout.session.expired"
	metadataUserID               = "user_id"
	metadataUserEmail            = "user_email"
	metadataPlan                 = "plan"
	unlimitedProductName         = "Smart Cooking Unlimited"
	checkoutSessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"
)

// PaymentService drives the one-off upgrade to the unlimited plan
type PaymentService struct {
	payments repository.PaymentRepository
	gateway  PaymentGateway
	price    float64
	currency string
	timeout  time.Duration
	now      func() time.Time
}

func NewPaymentService(payments repository.PaymentRepository, gateway PaymentGateway, price float64, currency string, timeout time.Duration) *PaymentService {
	return &PaymentService{
		payments: payments,
		gateway:  gateway,
		price:    price,
		currency: strings.ToLower(currency),
		timeout:  timeout,
		now:      time.Now,
	}
}

func (s *PaymentService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// CreateCheckout opens a hosted checkout session for user and records it as pending
func (s *PaymentService) CreateCheckout(ctx context.Context, user *models.User, originURL string) (*types.CheckoutResponse, error) {
	if user.IsUnlimited() {
		return nil, newError(ErrInvalidState, "Hai già un abbonamento Unlimited attivo", nil)
	}
	origin := strings.TrimRight(strings.TrimSpace(originURL), "/")
	if origin == "" {
		return nil, newError(ErrValidation, "origin_url è obbligatorio", nil)
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	session, err := s.gateway.CreateSession(callCtx, CheckoutSessionRequest{
		AmountCents: int64(math.Round(s.price * 100)),
		Currency:    s.currency,
		ProductName: unlimitedProductName,
		SuccessURL:  origin + "/payment-success?session_id=" + checkoutSessionIDPlaceholder,
		CancelURL:   origin + "/pricing",
		Metadata: map[string]string{
			metadataUserID:    user.ID,
			metadataUserEmail: user.Email,
			metadataPlan:      string(models.PlanUnlimited),
		},
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("user_id", user.ID).Msg("checkout session creation failed")
		return nil, newError(ErrPayment, "Errore nella creazione del pagamento", err)
	}

	now := s.now().UTC()
	tx := &models.PaymentTransaction{
		ID:            uuid.NewString(),
		SessionID:     session.ID,
		UserID:        user.ID,
		UserEmail:     user.Email,
		Amount:        s.price,
		Currency:      s.currency,
		Status:        models.TransactionPending,
		PaymentStatus: models.PaymentStatusInitiated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.payments.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("store payment transaction: %w", err)
	}

	metrics.RecordCheckoutCreated()
	log.Ctx(ctx).Info().Str("user_id", user.ID).Str("session_id", session.ID).Msg("checkout session created")
	return &types.CheckoutResponse{URL: session.URL, SessionID: session.ID}, nil
}

// GetCheckoutStatus asks the provider for the live state of one of the
// caller's sessions and applies any transition it implies.
func (s *PaymentService) GetCheckoutStatus(ctx context.Context, user *models.User, sessionID string) (*types.PaymentStatusResponse, error) {
	tx, err := s.payments.GetBySessionID(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "Sessione di pagamento non trovata", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("load payment transaction: %w", err)
	}
	if tx.UserID != user.ID {
		return nil, newError(ErrNotFound, "Sessione di pagamento non trovata", nil)
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	status, err := s.gateway.GetStatus(callCtx, sessionID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("session_id", sessionID).Msg("checkout status lookup failed")
		return nil, newError(ErrPayment, "Errore nel verificare il pagamento", err)
	}

	if !tx.IsTerminal() {
		if err := s.apply(ctx, status, "poll"); err != nil {
			return nil, err
		}
		if status.PaymentStatus == SessionPaymentPaid {
			user.Plan = models.PlanUnlimited
		}
	}

	return &types.PaymentStatusResponse{
		Status:        status.Status,
		PaymentStatus: status.PaymentStatus,
		AmountTotal:   float64(status.AmountTotal) / 100,
		Currency:      status.Currency,
	}, nil
}

// HandleWebhook verifies and applies a provider notification. The returned
// error is for logging only; callers acknowledge the delivery regardless.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		metrics.RecordWebhookEvent("unknown", "rejected")
		log.Ctx(ctx).Warn().Err(err).Msg("webhook verification failed")
		return newError(ErrPayment, "Firma del webhook non valida", err)
	}

	logger := log.Ctx(ctx).With().Str("event_id", event.ID).Str("event_type", event.Type).Logger()
	if event.Session == nil {
		metrics.RecordWebhookEvent(event.Type, "ignored")
		logger.Debug().Msg("webhook event ignored")
		return nil
	}

	switch event.Type {
	case EventSessionCompleted, EventAsyncPaymentSucceeded:
		if event.Session.PaymentStatus != SessionPaymentPaid || event.Session.Metadata[metadataUserID] == "" {
			metrics.RecordWebhookEvent(event.Type, "ignored")
			logger.Info().Str("session_id", event.Session.SessionID).Msg("completed session not paid yet")
			return nil
		}
	case EventSessionExpired:
	default:
		metrics.RecordWebhookEvent(event.Type, "ignored")
		logger.Debug().Msg("webhook event ignored")
		return nil
	}

	if err := s.checkOwner(ctx, event.Session); err != nil {
		metrics.RecordWebhookEvent(event.Type, "ignored")
		logger.Warn().Err(err).Str("session_id", event.Session.SessionID).Msg("webhook session does not match a local transaction")
		return err
	}
	if err := s.apply(ctx, event.Session, "webhook"); err != nil {
		metrics.RecordWebhookEvent(event.Type, "failed")
		logger.Error().Err(err).Str("session_id", event.Session.SessionID).Msg("webhook transition failed")
		return err
	}
	metrics.RecordWebhookEvent(event.Type, "processed")
	return nil
}

// checkOwner confirms the session is known locally and, when the provider
// echoes a user id, that it matches the recorded owner.
func (s *PaymentService) checkOwner(ctx context.Context, session *CheckoutStatus) error {
	tx, err := s.payments.GetBySessionID(ctx, session.SessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, "Sessione di pagamento non trovata", nil)
	}
	if err != nil {
		return fmt.Errorf("load payment transaction: %w", err)
	}
	if owner := session.Metadata[metadataUserID]; owner != "" && owner != tx.UserID {
		return newError(ErrInvalidState, "Utente del pagamento non corrispondente", nil)
	}
	return nil
}

// apply performs the local transition implied by the provider status
func (s *PaymentService) apply(ctx context.Context, status *CheckoutStatus, source string) error {
	now := s.now().UTC()
	switch {
	case status.PaymentStatus == SessionPaymentPaid:
		applied, err := s.payments.ConfirmPaid(ctx, status.SessionID, now)
		if err != nil {
			return fmt.Errorf("confirm payment: %w", err)
		}
		if applied {
			metrics.RecordPaymentTransition(string(models.TransactionComplete), source)
			log.Ctx(ctx).Info().Str("session_id", status.SessionID).Str("source", source).Msg("payment confirmed, plan upgraded")
		}
	case status.Status == SessionStatusExpired:
		applied, err := s.payments.MarkExpired(ctx, status.SessionID, now)
		if err != nil {
			return fmt.Errorf("expire payment: %w", err)
		}
		if applied {
			metrics.RecordPaymentTransition(string(models.TransactionExpired), source)
			log.Ctx(ctx).Info().Str("session_id", status.SessionID).Str("source", source).Msg("payment session expired")
		}
	}
	return nil
}

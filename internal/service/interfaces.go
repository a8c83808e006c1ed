package service

import "context"

// TextGenerator is a hosted text model: one prompt in, one completion out.
type TextGenerator interface {
	Complete(ctx context.Context, prompt, systemInstruction string) (string, error)
}

// CheckoutSessionRequest describes a one-off hosted checkout
type CheckoutSessionRequest struct {
	AmountCents int64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// CheckoutSession is a freshly created provider session
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutStatus is the provider's view of a session
type CheckoutStatus struct {
	SessionID     string
	Status        string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	Metadata      map[string]string
}

// WebhookEvent is a verified provider notification about a checkout session
type WebhookEvent struct {
	ID      string
	Type    string
	Session *CheckoutStatus
}

// PaymentGateway is the hosted checkout provider
type PaymentGateway interface {
	CreateSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)
	GetStatus(ctx context.Context, sessionID string) (*CheckoutStatus, error)
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

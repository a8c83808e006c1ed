package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/smartcooking/backend/internal/service"
)

// MockPaymentGateway is a mock implementation of service.PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateSession(ctx context.Context, req service.CheckoutSessionRequest) (*service.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CheckoutSession), args.Error(1)
}

func (m *MockPaymentGateway) GetStatus(ctx context.Context, sessionID string) (*service.CheckoutStatus, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CheckoutStatus), args.Error(1)
}

func (m *MockPaymentGateway) VerifyWebhook(payload []byte, signature string) (*service.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WebhookEvent), args.Error(1)
}

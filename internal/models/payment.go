package models

import "time"

// TransactionStatus is the coarse lifecycle state of a checkout.
type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "pending"
	TransactionComplete TransactionStatus = "complete"
	TransactionExpired  TransactionStatus = "expired"
)

// Payment status values written locally; other values mirror the provider.
const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusPaid      = "paid"
	PaymentStatusFailed    = "failed"
)

type PaymentTransaction struct {
	ID            string            `gorm:"type:varchar(36);primaryKey" bson:"id" json:"id"`
	SessionID     string            `gorm:"not null;uniqueIndex" bson:"session_id" json:"session_id"`
	UserID        string            `gorm:"type:varchar(36);not null;index" bson:"user_id" json:"user_id"`
	UserEmail     string            `gorm:"not null" bson:"user_email" json:"user_email"`
	Amount        float64           `gorm:"not null" bson:"amount" json:"amount"`
	Currency      string            `gorm:"size:3;not null" bson:"currency" json:"currency"`
	Status        TransactionStatus `gorm:"type:varchar(20);not null" bson:"status" json:"status"`
	PaymentStatus string            `gorm:"type:varchar(30);not null" bson:"payment_status" json:"payment_status"`
	CreatedAt     time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `bson:"updated_at" json:"updated_at"`
}

// IsTerminal reports whether the transaction can no longer change state.
func (t *PaymentTransaction) IsTerminal() bool {
	return t.Status == TransactionComplete || t.Status == TransactionExpired
}

package models

import (
	"time"
)

// PaymentIntent tracks one checkout attempt from order creation to its
// terminal status. ProviderOrderID is the provider's order/session id and is
// the lookup key for webhook and verification callbacks; the unique index is
// the hard guarantee that a provider order maps to at most one intent.
type PaymentIntent struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"not null;index" json:"user_id"`
	CourseID          uint       `gorm:"not null;index" json:"course_id"`
	AmountCents       int64      `gorm:"not null" json:"amount_cents"`
	Currency          string     `gorm:"size:3;not null" json:"currency"`
	Provider          string     `gorm:"size:20;not null" json:"provider"` // card | local
	ProviderOrderID   string     `gorm:"size:255;not null;uniqueIndex" json:"provider_order_id"`
	ProviderPaymentID string     `gorm:"size:255" json:"provider_payment_id"`
	Status            string     `gorm:"size:20;not null;index" json:"status"` // pending | succeeded | failed
	SucceededAt       *time.Time `json:"succeeded_at"`
	FailedAt          *time.Time `json:"failed_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	User   User   `gorm:"foreignKey:UserID" json:"-"`
	Course Course `gorm:"foreignKey:CourseID" json:"-"`
}

func (PaymentIntent) TableName() string { return "payment_intents" }

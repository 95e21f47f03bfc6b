package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// Subscription mirrors a Stripe subscription. Rows are created and
// mutated only by the billing webhook reconciler; StripeSubscriptionID
// is the join key back to the provider.
type Subscription struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	User                 User       `gorm:"foreignKey:UserID" json:"-"`
	StripeSubscriptionID string     `gorm:"type:text;index" json:"stripe_subscription_id"`
	StripePriceID        string     `gorm:"type:text" json:"stripe_price_id"`
	Status               string     `gorm:"type:text" json:"status"` // active, past_due, canceled, ...
	Plan                 string     `gorm:"type:text" json:"plan"`
	CurrentPeriodStart   *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CanceledAt           *time.Time `json:"canceled_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// PaymentHistory is an append-only ledger of payment attempts.
type PaymentHistory struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	StripeInvoiceID string    `gorm:"type:text" json:"stripe_invoice_id"`
	Amount          int64     `json:"amount"` // smallest currency unit
	Currency        string    `gorm:"type:text" json:"currency"`
	Status          string    `gorm:"type:text" json:"status"` // "succeeded" or "failed"
	Description     string    `gorm:"type:text" json:"description"`
	CreatedAt       time.Time `json:"created_at"`
}

func (p *PaymentHistory) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

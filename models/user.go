package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name                 string    `gorm:"type:text" json:"name"`
	Email                string    `gorm:"uniqueIndex;type:text" json:"email"`
	PasswordHash         string    `gorm:"type:text" json:"-"`
	Plan                 string    `gorm:"type:text;default:'free'" json:"plan"` // "free" or "pro"
	StripeCustomerID     string    `gorm:"type:text" json:"-"`
	StripeSubscriptionID string    `gorm:"type:text;index" json:"-"`
	StripePriceID        string    `gorm:"type:text" json:"-"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func MigrateDB(db *gorm.DB) {
	err := db.AutoMigrate(
		&User{},
		&Form{},
		&Field{},
		&FormSettings{},
		&Response{},
		&FieldValue{},
		&Subscription{},
		&PaymentHistory{},
	)
	if err != nil {
		panic("failed to migrate database: " + err.Error())
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeSelect   FieldType = "select"
	FieldTypeNumber   FieldType = "number"
	FieldTypePhone    FieldType = "phone"
)

type Form struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID    `gorm:"type:uuid;index" json:"user_id"`
	User        User         `gorm:"foreignKey:UserID" json:"-"`
	Name        string       `gorm:"type:text" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Slug        string       `gorm:"uniqueIndex;type:text" json:"slug"`
	Published   bool         `gorm:"default:false" json:"published"`
	Fields      []Field      `gorm:"foreignKey:FormID" json:"fields,omitempty"`
	Settings    FormSettings `gorm:"foreignKey:FormID" json:"settings,omitempty"`
	Responses   []Response   `gorm:"foreignKey:FormID" json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (f *Form) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

type Field struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FormID      uuid.UUID      `gorm:"type:uuid;index" json:"form_id"`
	Type        FieldType      `gorm:"type:text" json:"type"`
	Label       string         `gorm:"type:text" json:"label"`
	Placeholder string         `gorm:"type:text" json:"placeholder,omitempty"`
	Required    bool           `gorm:"default:false" json:"required"`
	Order       int            `gorm:"column:field_order" json:"order"`
	Options     datatypes.JSON `json:"options,omitempty"` // select options, ordered
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (f *Field) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

type FormSettings struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FormID           uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"form_id"`
	NotifyEmail      string         `gorm:"type:text" json:"notify_email,omitempty"` // legacy single recipient
	NotifyEmails     datatypes.JSON `json:"notify_emails,omitempty"`
	WebhookURL       string         `gorm:"type:text" json:"webhook_url,omitempty"`
	CaptchaEnabled   bool           `gorm:"default:false" json:"captcha_enabled"`
	CaptchaProvider  string         `gorm:"type:text" json:"captcha_provider,omitempty"` // "turnstile" or "hcaptcha"
	CaptchaSiteKey   string         `gorm:"type:text" json:"captcha_site_key,omitempty"`
	CaptchaSecretKey string         `gorm:"type:text" json:"-"`
	ThemeColor       string         `gorm:"type:text" json:"theme_color,omitempty"` // hex, pro only
	HideBranding     bool           `gorm:"default:false" json:"hide_branding"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (s *FormSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Response is one anonymous submission to a published form. Created once
// together with its FieldValues, never mutated afterwards.
type Response struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	FormID      uuid.UUID    `gorm:"type:uuid;index" json:"form_id"`
	Values      []FieldValue `gorm:"foreignKey:ResponseID" json:"values,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"`
}

func (r *Response) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// FieldValue holds one submitted value. Its FieldID always references a
// field of the same form as the parent response.
type FieldValue struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ResponseID uuid.UUID `gorm:"type:uuid;index" json:"response_id"`
	FieldID    uuid.UUID `gorm:"type:uuid;index" json:"field_id"`
	Value      string    `gorm:"type:text" json:"value"`
}

func (v *FieldValue) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

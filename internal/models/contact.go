package models

import (
	"time"

	"gorm.io/datatypes"
)

// ContactMessage is a contact-form submission. Duplicate submissions are stored as separate rows.
type ContactMessage struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Name    string `json:"name" gorm:"not null;size:100" validate:"required,notblank,max=100"`
	Email   string `json:"email" gorm:"not null;size:255;index" validate:"required,contact_email,max=255"`
	Message string `json:"message" gorm:"type:text;not null" validate:"required,notblank,max=5000"`

	// Request metadata (client IP, user agent, session)
	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (ContactMessage) TableName() string {
	return "contact_messages"
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Notification struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"-"`
	Type           NotificationType `gorm:"size:20;not null" json:"type"`
	Message        string           `gorm:"type:text;not null" json:"message"`
	ListingID      *uuid.UUID       `gorm:"type:uuid;index" json:"listing_id,omitempty"`
	ConversationID *uuid.UUID       `gorm:"type:uuid" json:"conversation_id,omitempty"`
	ReadAt         *time.Time       `json:"read_at,omitempty"`
	CreatedAt      time.Time        `gorm:"index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

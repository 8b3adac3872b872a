package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation links a prospective taker with the owner of a listing.
type Conversation struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_listing_buyer" json:"listing_id"`
	BuyerID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_listing_buyer;index" json:"buyer_id"`
	SellerID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"seller_id"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	Listing       Listing    `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"-"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID uuid.UUID) uuid.UUID {
	if c.BuyerID == userID {
		return c.SellerID
	}
	return c.BuyerID
}

func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

type Message struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID    `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       uuid.UUID    `gorm:"type:uuid;not null" json:"sender_id"`
	Body           string       `gorm:"type:text;not null" json:"body"`
	ReadAt         *time.Time   `json:"read_at,omitempty"`
	CreatedAt      time.Time    `gorm:"index" json:"created_at"`
	Conversation   Conversation `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

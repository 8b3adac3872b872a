package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Listing is an item offered for donation or exchange.
// RefusalReason is non-empty only while State is REJECTED.
type Listing struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string         `gorm:"size:120;not null" json:"title"`
	Description   string         `gorm:"type:text;not null" json:"description"`
	Type          ListingType    `gorm:"size:20;not null;index" json:"type"`
	State         ListingState   `gorm:"size:20;not null;index" json:"state"`
	Campus        Campus         `gorm:"size:20;not null;index" json:"campus"`
	Category      Category       `gorm:"size:30;not null;index" json:"category"`
	OwnerID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	ExpiresAt     *time.Time     `gorm:"index" json:"expires_at,omitempty"`
	RefusalReason string         `gorm:"size:500" json:"refusal_reason,omitempty"`
	ValidatedAt   *time.Time     `json:"validated_at,omitempty"`
	ValidatedBy   *uuid.UUID     `gorm:"type:uuid" json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Owner         User           `gorm:"foreignKey:OwnerID" json:"-"`
	Images        []ListingImage `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"images"`
}

func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// ListingImage is a stored picture attached to a listing.
type ListingImage struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID   uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	StorageKey  string    `gorm:"size:255;not null" json:"-"`
	URL         string    `gorm:"size:500;not null" json:"url"`
	ContentType string    `gorm:"size:50;not null" json:"content_type"`
	Size        int64     `json:"size"`
	Position    int       `gorm:"default:0" json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

func (i *ListingImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Favorite is a user's bookmark on a listing.
type Favorite struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	ListingID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}

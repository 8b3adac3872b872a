package dto

import (
	"time"

	"github.com/campustroc/backend/internal/models"
	"github.com/google/uuid"
)

type FavoriteResponse struct {
	ListingID uuid.UUID `json:"listing_id"`
	Favorited bool      `json:"favorited"`
}

type MessageRequest struct {
	Body string `json:"body"`
}

type ContactResponse struct {
	ConversationID uuid.UUID   `json:"conversation_id"`
	Message        interface{} `json:"message"`
}

type MarkReadRequest struct {
	IDs []uuid.UUID `json:"ids,omitempty"`
}

type MarkReadResponse struct {
	Updated int64 `json:"updated"`
	Unread  int64 `json:"unread"`
}

// ListingDetail is a listing as seen by the current user.
type ListingDetail struct {
	models.Listing
	IsFavorite bool `json:"is_favorite"`
}

type CategoryResponse struct {
	ID   models.Category `json:"id"`
	Name string          `json:"name"`
}

type CharterResponse struct {
	Section  string     `json:"section"`
	Signed   bool       `json:"signed"`
	AgreedAt *time.Time `json:"agreed_at,omitempty"`
}

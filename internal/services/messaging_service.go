package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/campustroc/backend/internal/access"
	"github.com/campustroc/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxMessageLength = 2000

// ConversationSummary is a row of the inbox.
type ConversationSummary struct {
	models.Conversation
	ListingTitle string `json:"listing_title"`
	Unread       int64  `json:"unread"`
}

type MessagingService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewMessagingService(db *gorm.DB) *MessagingService {
	return &MessagingService{db: db, now: utcNow}
}

func messageBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n == 0 || n > maxMessageLength {
		return "", invalidf("message must be between 1 and %d characters", maxMessageLength)
	}
	return body, nil
}

// Contact opens the actor's conversation about a published listing, or
// reuses the existing one, and posts body into it.
func (s *MessagingService) Contact(ctx context.Context, actor *access.Actor, listingID uuid.UUID, body string) (*models.Conversation, *models.Message, error) {
	if actor == nil {
		return nil, nil, ErrUnauthenticated
	}
	body, err := messageBody(body)
	if err != nil {
		return nil, nil, err
	}
	listing, err := findListing(s.db.WithContext(ctx), listingID)
	if err != nil {
		return nil, nil, err
	}
	if listing.State != models.StatePublished {
		return nil, nil, ErrNotPublished
	}
	if listing.OwnerID == actor.UserID {
		return nil, nil, invalidf("cannot contact yourself about your own listing")
	}

	var conv models.Conversation
	var msg *models.Message
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("listing_id = ? AND buyer_id = ?", listing.ID, actor.UserID).First(&conv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			conv = models.Conversation{ListingID: listing.ID, BuyerID: actor.UserID, SellerID: listing.OwnerID}
			err = tx.Create(&conv).Error
		}
		if err != nil {
			return fmt.Errorf("open conversation: %w", err)
		}
		msg, err = s.post(tx, &conv, actor.UserID, body, listing.Title)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return &conv, msg, nil
}

// ListConversations returns the actor's conversations, most recent first.
func (s *MessagingService) ListConversations(ctx context.Context, actor *access.Actor) ([]ConversationSummary, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	var convs []models.Conversation
	err := s.db.WithContext(ctx).Preload("Listing").
		Where("buyer_id = ? OR seller_id = ?", actor.UserID, actor.UserID).
		Order("last_message_at DESC").Order("created_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}

	out := make([]ConversationSummary, len(convs))
	for i, c := range convs {
		var unread int64
		if err := s.db.WithContext(ctx).Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", c.ID, actor.UserID).
			Count(&unread).Error; err != nil {
			return nil, err
		}
		out[i] = ConversationSummary{Conversation: c, ListingTitle: c.Listing.Title, Unread: unread}
	}
	return out, nil
}

// ListMessages returns a conversation's messages oldest first and marks the
// ones sent by the other participant as read.
func (s *MessagingService) ListMessages(ctx context.Context, actor *access.Actor, conversationID uuid.UUID) ([]models.Message, error) {
	conv, err := s.participantConversation(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conv.ID, actor.UserID).
		Update("read_at", s.now()).Error; err != nil {
		return nil, err
	}

	messages := []models.Message{}
	if err := s.db.WithContext(ctx).Where("conversation_id = ?", conv.ID).Order("created_at ASC").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// PostMessage appends a message to a conversation the actor takes part in.
func (s *MessagingService) PostMessage(ctx context.Context, actor *access.Actor, conversationID uuid.UUID, body string) (*models.Message, error) {
	body, err := messageBody(body)
	if err != nil {
		return nil, err
	}
	conv, err := s.participantConversation(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}

	var msg *models.Message
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msg, err = s.post(tx, conv, actor.UserID, body, conv.Listing.Title)
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessagingService) participantConversation(ctx context.Context, actor *access.Actor, id uuid.UUID) (*models.Conversation, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	var conv models.Conversation
	if err := s.db.WithContext(ctx).Preload("Listing").First(&conv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if !conv.HasParticipant(actor.UserID) {
		return nil, ErrForbidden
	}
	return &conv, nil
}

// post stores a message and notifies the other participant, unless either
// side has blocked the other.
func (s *MessagingService) post(tx *gorm.DB, conv *models.Conversation, sender uuid.UUID, body, listingTitle string) (*models.Message, error) {
	recipient := conv.Other(sender)
	blocked, err := blockedEither(tx, sender, recipient)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, fmt.Errorf("%w: messaging between these users is blocked", ErrForbidden)
	}

	now := s.now()
	msg := &models.Message{ConversationID: conv.ID, SenderID: sender, Body: body, CreatedAt: now}
	if err := tx.Create(msg).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if err := tx.Model(&models.Conversation{}).Where("id = ?", conv.ID).Update("last_message_at", now).Error; err != nil {
		return nil, err
	}
	conv.LastMessageAt = &now

	listingID, conversationID := conv.ListingID, conv.ID
	if err := notify(tx, models.Notification{
		RecipientID:    recipient,
		Type:           models.NotificationNewMessage,
		Message:        fmt.Sprintf("New message about \"%s\".", listingTitle),
		ListingID:      &listingID,
		ConversationID: &conversationID,
	}); err != nil {
		return nil, err
	}
	return msg, nil
}

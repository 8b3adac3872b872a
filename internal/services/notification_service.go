package services

import (
	"context"
	"time"

	"github.com/campustroc/backend/internal/access"
	"github.com/campustroc/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, now: utcNow}
}

// NotificationPage is one page of a user's notifications.
type NotificationPage struct {
	Items  []models.Notification `json:"items"`
	Total  int64                 `json:"total"`
	Unread int64                 `json:"unread"`
}

// List returns the actor's notifications newest first.
func (s *NotificationService) List(ctx context.Context, actor *access.Actor, page Page) (*NotificationPage, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	db := s.db.WithContext(ctx)
	out := &NotificationPage{Items: []models.Notification{}}

	if err := db.Model(&models.Notification{}).Where("recipient_id = ?", actor.UserID).Count(&out.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Notification{}).Where("recipient_id = ? AND read_at IS NULL", actor.UserID).Count(&out.Unread).Error; err != nil {
		return nil, err
	}
	err := db.Where("recipient_id = ?", actor.UserID).
		Order("created_at DESC").
		Limit(page.Limit).Offset(page.Offset()).
		Find(&out.Items).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UnreadCount is the number of notifications the actor has not read.
func (s *NotificationService) UnreadCount(ctx context.Context, actor *access.Actor) (int64, error) {
	if actor == nil {
		return 0, ErrUnauthenticated
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL", actor.UserID).
		Count(&n).Error
	return n, err
}

// MarkRead marks the given notifications as read, or all of them when ids
// is empty. Ids belonging to other users are ignored.
func (s *NotificationService) MarkRead(ctx context.Context, actor *access.Actor, ids []uuid.UUID) (int64, error) {
	if actor == nil {
		return 0, ErrUnauthenticated
	}
	q := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL", actor.UserID)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	result := q.Update("read_at", s.now())
	return result.RowsAffected, result.Error
}

package session

import (
	"context"
	"errors"
	"time"

	"github.com/campustroc/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore keeps refresh sessions in the refresh_tokens table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Save(ctx context.Context, tokenHash string, userID uuid.UUID, expiresAt time.Time) error {
	return s.db.WithContext(ctx).Create(&models.RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt.UTC(),
	}).Error
}

func (s *GormStore) Consume(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored models.RefreshToken
		if err := tx.Where("token_hash = ? AND revoked = ?", tokenHash, false).First(&stored).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		if time.Now().After(stored.ExpiresAt) {
			return ErrSessionNotFound
		}
		if err := tx.Model(&stored).Update("revoked", true).Error; err != nil {
			return err
		}
		userID = stored.UserID
		return nil
	})
	if errors.Is(err, ErrSessionNotFound) {
		return uuid.Nil, err
	}
	return userID, err
}

func (s *GormStore) Revoke(ctx context.Context, tokenHash string) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

func (s *GormStore) RevokeUser(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}

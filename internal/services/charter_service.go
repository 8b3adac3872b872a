package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/campustroc/backend/internal/access"
	"github.com/campustroc/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CharterService tracks acceptance of the community charter.
type CharterService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCharterService(db *gorm.DB) *CharterService {
	return &CharterService{db: db, now: utcNow}
}

// HasSigned reports whether the user accepted the current charter version.
func (s *CharterService) HasSigned(ctx context.Context, userID uuid.UUID) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.CharterAgreement{}).
		Where("user_id = ? AND section_name = ?", userID, models.CharterVersion).
		Count(&n).Error
	return n > 0, err
}

// Agreement returns the actor's acceptance of the current version, nil when
// not signed yet.
func (s *CharterService) Agreement(ctx context.Context, actor *access.Actor) (*models.CharterAgreement, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	var agreement models.CharterAgreement
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND section_name = ?", actor.UserID, models.CharterVersion).
		First(&agreement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &agreement, nil
}

// Sign records acceptance of the current version. Signing again keeps the
// first agreement.
func (s *CharterService) Sign(ctx context.Context, actor *access.Actor) (*models.CharterAgreement, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	agreement := models.CharterAgreement{}
	err := s.db.WithContext(ctx).
		Where(models.CharterAgreement{UserID: actor.UserID, SectionName: models.CharterVersion}).
		Attrs(models.CharterAgreement{AgreedAt: s.now()}).
		FirstOrCreate(&agreement).Error
	if err != nil {
		return nil, fmt.Errorf("sign charter: %w", err)
	}
	slog.Info("charter signed", "user_id", actor.UserID.String(), "section", agreement.SectionName)
	return &agreement, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/campustroc/backend/internal/access"
	"github.com/campustroc/backend/internal/mail"
	"github.com/campustroc/backend/internal/models"
	"github.com/campustroc/backend/internal/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserFilter narrows the admin user list.
type UserFilter struct {
	Query  string
	Role   string
	Banned *bool
	Page   Page
}

// UserService is the admin side of account management.
type UserService struct {
	db       *gorm.DB
	mailer   mail.Mailer
	sessions session.Store
	appName  string
}

func NewUserService(db *gorm.DB, mailer mail.Mailer, sessions session.Store, appName string) *UserService {
	return &UserService{db: db, mailer: mailer, sessions: sessions, appName: appName}
}

func (s *UserService) List(ctx context.Context, actor *access.Actor, f UserFilter) ([]models.User, int64, error) {
	if !access.CanManageUsers(actor) {
		return nil, 0, ErrForbidden
	}
	role := models.Role(strings.ToUpper(f.Role))
	if role != "" && !role.Valid() {
		return nil, 0, invalidf("unknown role %q", f.Role)
	}

	base := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.User{})
		if needle := strings.ToLower(strings.TrimSpace(f.Query)); needle != "" {
			pattern := "%" + needle + "%"
			q = q.Where("LOWER(email) LIKE ? OR LOWER(display_name) LIKE ?", pattern, pattern)
		}
		if role != "" {
			q = q.Where("role = ?", role)
		}
		if f.Banned != nil {
			q = q.Where("is_banned = ?", *f.Banned)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	if err := base().Order("created_at DESC").Limit(f.Page.Limit).Offset(f.Page.Offset()).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Promote sets a user's role. MODERATOR requires a campus; other roles
// clear it.
func (s *UserService) Promote(ctx context.Context, actor *access.Actor, userID uuid.UUID, role models.Role, campus *models.Campus) (*models.User, error) {
	if !access.CanManageUsers(actor) {
		return nil, ErrForbidden
	}
	role = models.Role(strings.ToUpper(string(role)))
	if !role.Valid() {
		return nil, invalidf("role must be USER, MODERATOR or ADMIN")
	}
	if role == models.RoleModerator {
		if campus == nil || !campus.Valid() {
			return nil, invalidf("a moderator needs a valid campus")
		}
	} else {
		campus = nil
	}
	if userID == actor.UserID && role != models.RoleAdmin {
		return nil, invalidf("cannot remove your own admin role")
	}

	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"role":             role,
		"moderated_campus": campus,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	user.Role = role
	user.ModeratedCampus = campus

	slog.Info("user role changed", "user_id", user.ID.String(), "role", role, "by", actor.UserID.String())
	return user, nil
}

// Ban suspends an account and emails the reason. The email is sent inside
// the transaction; a delivery failure leaves the account untouched.
func (s *UserService) Ban(ctx context.Context, actor *access.Actor, userID uuid.UUID, reason string) (*models.User, error) {
	if !access.CanManageUsers(actor) {
		return nil, ErrForbidden
	}
	if userID == actor.UserID {
		return nil, ErrSelfBan
	}
	reason = strings.TrimSpace(reason)
	if n := utf8.RuneCountInString(reason); n < 3 || n > 500 {
		return nil, invalidf("ban reason must be between 3 and 500 characters")
	}

	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsBanned {
		return nil, ErrAlreadyBanned
	}

	msg, err := mail.BanMessage(user.Email, mail.AccountData{AppName: s.appName, DisplayName: user.DisplayName, Reason: reason})
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Updates(map[string]interface{}{"is_banned": true, "ban_reason": reason}).Error; err != nil {
			return err
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			return fmt.Errorf("failed to send ban email: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	user.IsBanned = true
	user.BanReason = reason

	if err := s.sessions.RevokeUser(ctx, user.ID); err != nil {
		slog.Error("failed to revoke sessions of banned user", "user_id", user.ID.String(), "error", err)
	}
	slog.Info("user banned", "user_id", user.ID.String(), "by", actor.UserID.String())
	return user, nil
}

// Unban reactivates an account and emails the user.
func (s *UserService) Unban(ctx context.Context, actor *access.Actor, userID uuid.UUID) (*models.User, error) {
	if !access.CanManageUsers(actor) {
		return nil, ErrForbidden
	}
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsBanned {
		return nil, ErrNotBanned
	}

	msg, err := mail.UnbanMessage(user.Email, mail.AccountData{AppName: s.appName, DisplayName: user.DisplayName})
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Updates(map[string]interface{}{"is_banned": false, "ban_reason": ""}).Error; err != nil {
			return err
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			return fmt.Errorf("failed to send unban email: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	user.IsBanned = false
	user.BanReason = ""

	slog.Info("user unbanned", "user_id", user.ID.String(), "by", actor.UserID.String())
	return user, nil
}

func (s *UserService) find(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

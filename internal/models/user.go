package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a student or staff account.
type User struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalUID     *string        `gorm:"size:100;uniqueIndex" json:"external_uid,omitempty"`
	Email           string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password        string         `gorm:"not null" json:"-"`
	DisplayName     string         `gorm:"size:100" json:"display_name"`
	Role            Role           `gorm:"size:20;not null;default:'USER'" json:"role"`
	ModeratedCampus *Campus        `gorm:"size:20" json:"moderated_campus,omitempty"`
	IsBanned        bool           `gorm:"not null;default:false;index" json:"is_banned"`
	BanReason       string         `gorm:"size:500" json:"ban_reason,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

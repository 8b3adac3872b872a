package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CharterVersion is the charter section users must currently accept.
const CharterVersion = "general_v1"

// CharterAgreement records that a user accepted a charter section.
type CharterAgreement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_charter_user_section" json:"user_id"`
	SectionName string    `gorm:"size:100;not null;uniqueIndex:idx_charter_user_section" json:"section_name"`
	AgreedAt    time.Time `gorm:"not null" json:"agreed_at"`
	User        User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (a *CharterAgreement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

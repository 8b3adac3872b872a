package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/campustroc/backend/internal/access"
	"github.com/campustroc/backend/internal/config"
	"github.com/campustroc/backend/internal/mail"
	"github.com/campustroc/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
		ListingTTL:       60 * 24 * time.Hour,
		MaxImageBytes:    2 << 20,
		AppName:          "Campus Troc",
	}
}

func actorFor(u *models.User) *access.Actor {
	return access.ActorOf(u)
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Listing {
	t.Helper()
	var l models.Listing
	if err := db.First(&l, "id = ?", id).Error; err != nil {
		t.Fatalf("reload listing: %v", err)
	}
	return &l
}

func countNotifications(t *testing.T, db *gorm.DB, recipient uuid.UUID, typ models.NotificationType) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.Notification{}).Where("recipient_id = ? AND type = ?", recipient, typ).Count(&n).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	return n
}

func addFavorite(t *testing.T, db *gorm.DB, user *models.User, listing *models.Listing) {
	t.Helper()
	if err := db.Create(&models.Favorite{UserID: user.ID, ListingID: listing.ID}).Error; err != nil {
		t.Fatalf("add favorite: %v", err)
	}
}

func countFavorites(t *testing.T, db *gorm.DB, listingID uuid.UUID) int64 {
	t.Helper()
	var n int64
	db.Model(&models.Favorite{}).Where("listing_id = ?", listingID).Count(&n)
	return n
}

func hoursFromNow(h int) *time.Time {
	t := time.Now().UTC().Add(time.Duration(h) * time.Hour)
	return &t
}

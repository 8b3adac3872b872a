// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/campustroc/backend/internal/database"
	"github.com/campustroc/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	// Every connection to ":memory:" is a new database; keep exactly one.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given role and optional campus.
func CreateUser(t *testing.T, db *gorm.DB, role models.Role, campus *models.Campus) *models.User {
	t.Helper()
	id := uuid.New()
	u := &models.User{
		ID:              id,
		Email:           id.String() + "@etu.univ-littoral.fr",
		Password:        "x",
		DisplayName:     "user-" + id.String()[:8],
		Role:            role,
		ModeratedCampus: campus,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateListing inserts a listing in the given state without going through services.
func CreateListing(t *testing.T, db *gorm.DB, owner *models.User, campus models.Campus, state models.ListingState, expiresAt *time.Time) *models.Listing {
	t.Helper()
	l := &models.Listing{
		Title:       "Office chair",
		Description: "Comfortable chair, a bit worn but solid.",
		Type:        models.TypeDonation,
		State:       state,
		Campus:      campus,
		Category:    "FURNITURE",
		OwnerID:     owner.ID,
		ExpiresAt:   expiresAt,
	}
	if state == models.StateRejected {
		l.RefusalReason = "Photo does not match the description"
	}
	if err := db.Create(l).Error; err != nil {
		t.Fatalf("create listing: %v", err)
	}
	return l
}

func CampusPtr(c models.Campus) *models.Campus {
	return &c
}

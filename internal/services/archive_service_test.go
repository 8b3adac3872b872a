package services

import (
	"context"
	"testing"
	"time"

	"github.com/campustroc/backend/internal/models"
	"github.com/campustroc/backend/internal/testutil"
)

func statesOf(t *testing.T, svc *ArchiveService, listings ...*models.Listing) []models.ListingState {
	t.Helper()
	out := make([]models.ListingState, len(listings))
	for i, l := range listings {
		out[i] = reload(t, svc.db, l.ID).State
	}
	return out
}

func TestArchiveExpired(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewArchiveService(db, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleUser, nil)
	fan := testutil.CreateUser(t, db, models.RoleUser, nil)

	expiredPublished := testutil.CreateListing(t, db, owner, models.CampusCalais, models.StatePublished, hoursFromNow(-48))
	expiredPending := testutil.CreateListing(t, db, owner, models.CampusCalais, models.StatePendingReview, hoursFromNow(-1))
	expiredCompleted := testutil.CreateListing(t, db, owner, models.CampusCalais, models.StateCompleted, hoursFromNow(-5))
	alreadyArchived := testutil.CreateListing(t, db, owner, models.CampusCalais, models.StateArchived, hoursFromNow(-100))
	future := testutil.CreateListing(t, db, owner, models.CampusCalais, models.StatePublished, hoursFromNow(48))
	noExpiry := testutil.CreateListing(t, db, owner, models.CampusCalais, models.StatePublished, nil)
	addFavorite(t, db, fan, expiredPublished)

	dry, err := svc.ArchiveExpired(ctx, ArchiveOptions{DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if dry.Matched != 3 || dry.Archived != 0 {
		t.Errorf("dry run = %+v, want 3 matched, 0 archived", dry)
	}
	for _, state := range statesOf(t, svc, expiredPublished, expiredPending, expiredCompleted) {
		if state == models.StateArchived {
			t.Fatal("dry run mutated a listing")
		}
	}

	res, err := svc.ArchiveExpired(ctx, ArchiveOptions{})
	if err != nil {
		t.Fatalf("ArchiveExpired: %v", err)
	}
	if res.Matched != 3 || res.Archived != 3 {
		t.Errorf("result = %+v, want 3 matched, 3 archived", res)
	}
	for _, state := range statesOf(t, svc, expiredPublished, expiredPending, expiredCompleted, alreadyArchived) {
		if state != models.StateArchived {
			t.Errorf("state = %s, want ARCHIVED", state)
		}
	}
	for _, state := range statesOf(t, svc, future, noExpiry) {
		if state != models.StatePublished {
			t.Errorf("state = %s, want untouched PUBLISHED", state)
		}
	}
	if n := countFavorites(t, db, expiredPublished.ID); n != 0 {
		t.Errorf("favorites = %d, want cleared", n)
	}

	again, err := svc.ArchiveExpired(ctx, ArchiveOptions{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if again.Matched != 0 || again.Archived != 0 {
		t.Errorf("second run = %+v, want nothing to do", again)
	}
}

func TestArchiveExpiredLimitTakesOldestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewArchiveService(db, nil)
	owner := testutil.CreateUser(t, db, models.RoleUser, nil)

	newest := testutil.CreateListing(t, db, owner, models.CampusCalais, models.StatePublished, hoursFromNow(-1))
	oldest := testutil.CreateListing(t, db, owner, models.CampusCalais, models.StatePublished, hoursFromNow(-30))
	middle := testutil.CreateListing(t, db, owner, models.CampusCalais, models.StatePublished, hoursFromNow(-10))

	res, err := svc.ArchiveExpired(context.Background(), ArchiveOptions{Limit: 2})
	if err != nil {
		t.Fatalf("ArchiveExpired: %v", err)
	}
	if res.Archived != 2 || len(res.IDs) != 2 {
		t.Fatalf("result = %+v, want 2 archived", res)
	}
	if res.IDs[0] != oldest.ID || res.IDs[1] != middle.ID {
		t.Errorf("archived %v, want oldest then middle", res.IDs)
	}
	if got := reload(t, db, newest.ID).State; got != models.StatePublished {
		t.Errorf("newest state = %s, want untouched", got)
	}
}

func TestArchiveUsesClock(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewArchiveService(db, nil)
	owner := testutil.CreateUser(t, db, models.RoleUser, nil)
	listing := testutil.CreateListing(t, db, owner, models.CampusCalais, models.StatePublished, hoursFromNow(24))

	svc.now = func() time.Time { return time.Now().UTC().Add(48 * time.Hour) }
	res, err := svc.ArchiveExpired(context.Background(), ArchiveOptions{})
	if err != nil {
		t.Fatalf("ArchiveExpired: %v", err)
	}
	if res.Archived != 1 || reload(t, db, listing.ID).State != models.StateArchived {
		t.Errorf("result = %+v, want listing archived two days later", res)
	}
}

package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/campustroc/backend/internal/models"
	"github.com/campustroc/backend/internal/testutil"
)

func TestDecideValidatePublishesAndNotifiesOnce(t *testing.T) {
	db := testutil.NewDB(t)
	ms := NewModerationService(db, nil)
	owner := testutil.CreateUser(t, db, models.RoleUser, nil)
	mod := testutil.CreateUser(t, db, models.RoleModerator, testutil.CampusPtr(models.CampusCalais))
	listing := testutil.CreateListing(t, db, owner, models.CampusCalais, models.StatePendingReview, hoursFromNow(24))

	got, err := ms.Decide(context.Background(), actorFor(mod), listing.ID, DecisionValidate, "")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if got.State != models.StatePublished {
		t.Errorf("state = %s, want PUBLISHED", got.State)
	}

	stored := reload(t, db, listing.ID)
	if stored.State != models.StatePublished || stored.ValidatedBy == nil || *stored.ValidatedBy != mod.ID {
		t.Errorf("stored = %+v, want published and validated by moderator", stored)
	}
	if n := countNotifications(t, db, owner.ID, models.NotificationValidation); n != 1 {
		t.Errorf("VALIDATION notifications = %d, want 1", n)
	}
	if n := countNotifications(t, db, owner.ID, models.NotificationRefusal); n != 0 {
		t.Errorf("REFUSAL notifications = %d, want 0", n)
	}
}

func TestDecideRejectReason(t *testing.T) {
	tests := []struct {
		name    string
		reason  string
		wantErr error
	}{
		{"missing", "", ErrValidation},
		{"blank", "    ", ErrValidation},
		{"nine characters", "too short", ErrValidation},
		{"too long", strings.Repeat("x", 501), ErrValidation},
		{"ten characters padded", "  blurry pic  ", nil},
		{"valid", "The photo does not show the item", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.NewDB(t)
			ms := NewModerationService(db, nil)
			owner := testutil.CreateUser(t, db, models.RoleUser, nil)
			admin := testutil.CreateUser(t, db, models.RoleAdmin, nil)
			listing := testutil.CreateListing(t, db, owner, models.CampusBoulogne, models.StatePendingReview, hoursFromNow(24))

			_, err := ms.Decide(context.Background(), actorFor(admin), listing.ID, DecisionReject, tt.reason)
			stored := reload(t, db, listing.ID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if stored.State != models.StatePendingReview {
					t.Errorf("state = %s, want unchanged", stored.State)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			if stored.State != models.StateRejected {
				t.Errorf("state = %s, want REJECTED", stored.State)
			}
			if stored.RefusalReason != strings.TrimSpace(tt.reason) {
				t.Errorf("reason = %q, want trimmed %q", stored.RefusalReason, tt.reason)
			}
			if n := countNotifications(t, db, owner.ID, models.NotificationRefusal); n != 1 {
				t.Errorf("REFUSAL notifications = %d, want 1", n)
			}
			var note models.Notification
			db.Where("recipient_id = ?", owner.ID).First(&note)
			if !strings.Contains(note.Message, strings.TrimSpace(tt.reason)) {
				t.Errorf("notification %q does not carry the reason", note.Message)
			}
		})
	}
}

func TestDecideAuthorization(t *testing.T) {
	tests := []struct {
		name    string
		role    models.Role
		campus  *models.Campus
		wantErr error
	}{
		{"same campus moderator", models.RoleModerator, testutil.CampusPtr(models.CampusDunkerque), nil},
		{"other campus moderator", models.RoleModerator, testutil.CampusPtr(models.CampusCalais), ErrForbidden},
		{"unscoped moderator", models.RoleModerator, nil, nil},
		{"admin", models.RoleAdmin, nil, nil},
		{"plain user", models.RoleUser, nil, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.NewDB(t)
			ms := NewModerationService(db, nil)
			owner := testutil.CreateUser(t, db, models.RoleUser, nil)
			staff := testutil.CreateUser(t, db, tt.role, tt.campus)
			listing := testutil.CreateListing(t, db, owner, models.CampusDunkerque, models.StatePendingReview, hoursFromNow(24))

			for _, action := range []Decision{DecisionValidate, DecisionReject} {
				_, err := ms.Decide(context.Background(), actorFor(staff), listing.ID, action, "Missing a photo of the item")
				if tt.wantErr != nil {
					if !errors.Is(err, tt.wantErr) {
						t.Fatalf("%s err = %v, want %v", action, err, tt.wantErr)
					}
					continue
				}
				if err != nil {
					t.Fatalf("%s: %v", action, err)
				}
				break
			}
			if tt.wantErr != nil {
				if got := reload(t, db, listing.ID); got.State != models.StatePendingReview {
					t.Errorf("state = %s, want unchanged", got.State)
				}
			}
		})
	}
}

func TestDecideOutsideReviewConflicts(t *testing.T) {
	db := testutil.NewDB(t)
	ms := NewModerationService(db, nil)
	owner := testutil.CreateUser(t, db, models.RoleUser, nil)
	admin := testutil.CreateUser(t, db, models.RoleAdmin, nil)

	for _, state := range []models.ListingState{models.StatePublished, models.StateRejected, models.StateCompleted, models.StateArchived, models.StateDraft} {
		listing := testutil.CreateListing(t, db, owner, models.CampusCalais, state, nil)
		if _, err := ms.Decide(context.Background(), actorFor(admin), listing.ID, DecisionValidate, ""); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("validate %s err = %v, want ErrInvalidTransition", state, err)
		}
	}

	listing := testutil.CreateListing(t, db, owner, models.CampusCalais, models.StatePendingReview, nil)
	if _, err := ms.Decide(context.Background(), actorFor(admin), listing.ID, "approve", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown action err = %v, want ErrValidation", err)
	}
}

func TestListPendingScope(t *testing.T) {
	db := testutil.NewDB(t)
	ms := NewModerationService(db, nil)
	owner := testutil.CreateUser(t, db, models.RoleUser, nil)
	testutil.CreateListing(t, db, owner, models.CampusCalais, models.StatePendingReview, nil)
	testutil.CreateListing(t, db, owner, models.CampusCalais, models.StatePendingReview, nil)
	testutil.CreateListing(t, db, owner, models.CampusSaintOmer, models.StatePendingReview, nil)
	testutil.CreateListing(t, db, owner, models.CampusCalais, models.StatePublished, nil)

	tests := []struct {
		name    string
		role    models.Role
		campus  *models.Campus
		want    int64
		wantErr error
	}{
		{"admin sees all", models.RoleAdmin, nil, 3, nil},
		{"unscoped moderator sees all", models.RoleModerator, nil, 3, nil},
		{"calais moderator", models.RoleModerator, testutil.CampusPtr(models.CampusCalais), 2, nil},
		{"saint-omer moderator", models.RoleModerator, testutil.CampusPtr(models.CampusSaintOmer), 1, nil},
		{"user", models.RoleUser, nil, 0, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := testutil.CreateUser(t, db, tt.role, tt.campus)
			items, total, err := ms.ListPending(context.Background(), actorFor(u), NewPage(1, 20))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ListPending: %v", err)
			}
			if total != tt.want || int64(len(items)) != tt.want {
				t.Errorf("got %d (total %d), want %d", len(items), total, tt.want)
			}
			for _, item := range items {
				if item.Flags == nil {
					t.Error("flags must be an empty list, not nil")
				}
			}
		})
	}
}

func TestContentFlags(t *testing.T) {
	ms := NewModerationService(nil, nil)

	tests := []struct {
		text string
		want []string
	}{
		{"Comfortable chair, barely used.", nil},
		{"", nil},
		{"Call me at 06 12 34 56 78", []string{FlagContactInfo}},
		{"write to seller@example.com", []string{FlagContactInfo}},
		{"see https://example.com/chair", []string{FlagURL}},
		{"c'est de la merde", []string{FlagLanguage}},
		{"Retard de livraison possible", nil},
		{"HURRY TODAY GRATUIT CHAIRS", []string{FlagExcessiveCap}},
		{"wow!!!!", []string{FlagSpam}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ms.ContentFlags(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("ContentFlags(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("flag[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestReports(t *testing.T) {
	db := testutil.NewDB(t)
	ms := NewModerationService(db, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleUser, nil)
	reporter := testutil.CreateUser(t, db, models.RoleUser, nil)
	calaisMod := testutil.CreateUser(t, db, models.RoleModerator, testutil.CampusPtr(models.CampusCalais))
	boulogneMod := testutil.CreateUser(t, db, models.RoleModerator, testutil.CampusPtr(models.CampusBoulogne))
	listing := testutil.CreateListing(t, db, owner, models.CampusCalais, models.StatePublished, nil)

	if _, err := ms.CreateReport(ctx, actorFor(owner), listing.ID, "my own listing"); !errors.Is(err, ErrValidation) {
		t.Errorf("self report err = %v, want ErrValidation", err)
	}
	if _, err := ms.CreateReport(ctx, actorFor(reporter), listing.ID, "x"); !errors.Is(err, ErrValidation) {
		t.Errorf("short reason err = %v, want ErrValidation", err)
	}
	report, err := ms.CreateReport(ctx, actorFor(reporter), listing.ID, "Looks like a scam")
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if report.Campus != models.CampusCalais || report.Status != "pending" {
		t.Errorf("report = %+v", report)
	}

	if _, total, _ := ms.ListReports(ctx, actorFor(boulogneMod), "", NewPage(1, 20)); total != 0 {
		t.Errorf("other campus moderator sees %d reports, want 0", total)
	}
	if _, total, _ := ms.ListReports(ctx, actorFor(calaisMod), "pending", NewPage(1, 20)); total != 1 {
		t.Errorf("campus moderator sees %d reports, want 1", total)
	}
	if _, _, err := ms.ListReports(ctx, actorFor(reporter), "", NewPage(1, 20)); !errors.Is(err, ErrForbidden) {
		t.Errorf("user list err = %v, want ErrForbidden", err)
	}

	if _, err := ms.ActionReport(ctx, actorFor(boulogneMod), report.ID, "dismissed", ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("other campus action err = %v, want ErrForbidden", err)
	}
	actioned, err := ms.ActionReport(ctx, actorFor(calaisMod), report.ID, "actioned", "listing removed")
	if err != nil {
		t.Fatalf("ActionReport: %v", err)
	}
	if actioned.Status != "actioned" || actioned.AdminNote != "listing removed" {
		t.Errorf("report = %+v", actioned)
	}
}

func TestBlockUser(t *testing.T) {
	db := testutil.NewDB(t)
	ms := NewModerationService(db, nil)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, models.RoleUser, nil)
	b := testutil.CreateUser(t, db, models.RoleUser, nil)

	if err := ms.BlockUser(ctx, actorFor(a), a.ID); !errors.Is(err, ErrSelfBlock) {
		t.Errorf("self block err = %v, want ErrSelfBlock", err)
	}
	if err := ms.BlockUser(ctx, actorFor(a), b.ID); err != nil {
		t.Fatalf("BlockUser: %v", err)
	}
	if err := ms.BlockUser(ctx, actorFor(a), b.ID); !errors.Is(err, ErrAlreadyBlocked) {
		t.Errorf("second block err = %v, want ErrAlreadyBlocked", err)
	}
	ids, err := ms.BlockedIDs(ctx, actorFor(a))
	if err != nil || len(ids) != 1 || ids[0] != b.ID {
		t.Errorf("BlockedIDs = %v, %v", ids, err)
	}
	if err := ms.UnblockUser(ctx, actorFor(a), b.ID); err != nil {
		t.Fatalf("UnblockUser: %v", err)
	}
	if ids, _ := ms.BlockedIDs(ctx, actorFor(a)); len(ids) != 0 {
		t.Errorf("BlockedIDs after unblock = %v", ids)
	}
}

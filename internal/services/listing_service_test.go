package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/campustroc/backend/internal/models"
	"github.com/campustroc/backend/internal/testutil"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func validInput() ListingInput {
	return ListingInput{
		Title:       "Desk lamp",
		Description: "Working LED desk lamp, white, with USB cable.",
		Type:        models.TypeDonation,
		Campus:      models.CampusCalais,
		Category:    "ELECTRONICS",
	}
}

func newListingService(t *testing.T) (*ListingService, *testutil.MemoryStore) {
	t.Helper()
	db := testutil.NewDB(t)
	store := testutil.NewMemoryStore()
	return NewListingService(db, store, nil, testConfig()), store
}

func TestCreateListing(t *testing.T) {
	svc, store := newListingService(t)
	owner := testutil.CreateUser(t, svc.db, models.RoleUser, nil)

	fh := testutil.FileHeader(t, "image", "lamp.png", testutil.Image(testutil.PNGHeader, 2048))
	in := validInput()
	in.Campus = " dunkerque "
	listing, err := svc.Create(context.Background(), actorFor(owner), in, fh)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if listing.State != models.StatePendingReview {
		t.Errorf("state = %s, want PENDING_REVIEW", listing.State)
	}
	if listing.Campus != models.CampusDunkerque {
		t.Errorf("campus = %s, want normalized DUNKERQUE", listing.Campus)
	}
	if listing.ExpiresAt == nil || listing.ExpiresAt.Before(listing.CreatedAt) {
		t.Errorf("expires_at = %v, want after creation", listing.ExpiresAt)
	}
	if store.Len() != 1 {
		t.Errorf("stored objects = %d, want 1", store.Len())
	}
	stored := reload(t, svc.db, listing.ID)
	if stored.OwnerID != owner.ID {
		t.Errorf("owner = %s, want %s", stored.OwnerID, owner.ID)
	}
	var images int64
	svc.db.Model(&models.ListingImage{}).Where("listing_id = ?", listing.ID).Count(&images)
	if images != 1 {
		t.Errorf("image rows = %d, want 1", images)
	}
}

func TestCreateListingRejectsBadInput(t *testing.T) {
	png := testutil.Image(testutil.PNGHeader, 1024)

	tests := []struct {
		name   string
		mutate func(*ListingInput)
		file   []byte
		noFile bool
	}{
		{name: "short title", mutate: func(in *ListingInput) { in.Title = "ab" }, file: png},
		{name: "short description", mutate: func(in *ListingInput) { in.Description = "tiny" }, file: png},
		{name: "unknown campus", mutate: func(in *ListingInput) { in.Campus = "LILLE" }, file: png},
		{name: "unknown category", mutate: func(in *ListingInput) { in.Category = "CARS" }, file: png},
		{name: "unknown type", mutate: func(in *ListingInput) { in.Type = "SALE" }, file: png},
		{name: "missing image", noFile: true},
		{name: "oversized image", file: testutil.Image(testutil.PNGHeader, 2<<20+1)},
		{name: "not an image", file: []byte(strings.Repeat("plain text ", 20))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newListingService(t)
			owner := testutil.CreateUser(t, svc.db, models.RoleUser, nil)
			in := validInput()
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			var err error
			if tt.noFile {
				_, err = svc.Create(context.Background(), actorFor(owner), in, nil)
			} else {
				fh := testutil.FileHeader(t, "image", "upload.bin", tt.file)
				_, err = svc.Create(context.Background(), actorFor(owner), in, fh)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			if store.Len() != 0 {
				t.Errorf("stored objects = %d, want 0", store.Len())
			}
		})
	}
}

func TestCreateListingRequiresActor(t *testing.T) {
	svc, _ := newListingService(t)
	fh := testutil.FileHeader(t, "image", "a.png", testutil.Image(testutil.PNGHeader, 100))
	if _, err := svc.Create(context.Background(), nil, validInput(), fh); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestEditAppliesGoldenRule(t *testing.T) {
	tests := []struct {
		from    models.ListingState
		want    models.ListingState
		wantErr error
	}{
		{from: models.StatePublished, want: models.StatePendingReview},
		{from: models.StateRejected, want: models.StatePendingReview},
		{from: models.StatePendingReview, want: models.StatePendingReview},
		{from: models.StateDraft, want: models.StateDraft},
		{from: models.StateCompleted, wantErr: ErrInvalidTransition},
		{from: models.StateArchived, wantErr: ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			svc, _ := newListingService(t)
			owner := testutil.CreateUser(t, svc.db, models.RoleUser, nil)
			listing := testutil.CreateListing(t, svc.db, owner, models.CampusCalais, tt.from, hoursFromNow(24))

			// Same content as before: the state still resets.
			in := ListingInput{
				Title:       listing.Title,
				Description: listing.Description,
				Type:        listing.Type,
				Campus:      listing.Campus,
				Category:    listing.Category,
			}
			_, err := svc.Edit(context.Background(), actorFor(owner), listing.ID, in, nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Edit: %v", err)
			}
			got := reload(t, svc.db, listing.ID)
			if got.State != tt.want {
				t.Errorf("state = %s, want %s", got.State, tt.want)
			}
			if got.RefusalReason != "" {
				t.Errorf("refusal reason = %q, want cleared", got.RefusalReason)
			}
		})
	}
}

func TestEditByNonOwnerIsForbidden(t *testing.T) {
	svc, _ := newListingService(t)
	owner := testutil.CreateUser(t, svc.db, models.RoleUser, nil)
	admin := testutil.CreateUser(t, svc.db, models.RoleAdmin, nil)
	listing := testutil.CreateListing(t, svc.db, owner, models.CampusCalais, models.StatePublished, hoursFromNow(24))

	if _, err := svc.Edit(context.Background(), actorFor(admin), listing.ID, validInput(), nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if got := reload(t, svc.db, listing.ID); got.State != models.StatePublished {
		t.Errorf("state = %s, want unchanged", got.State)
	}
}

func TestEditLosesToConcurrentCompletion(t *testing.T) {
	svc, _ := newListingService(t)
	owner := testutil.CreateUser(t, svc.db, models.RoleUser, nil)
	listing := testutil.CreateListing(t, svc.db, owner, models.CampusCalais, models.StatePublished, hoursFromNow(24))

	// Complete the listing between Edit's read and its write.
	completed := false
	err := svc.db.Callback().Update().Before("gorm:update").Register("test:complete_first", func(tx *gorm.DB) {
		if completed || tx.Statement.Table != "listings" {
			return
		}
		completed = true
		tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE listings SET state = ? WHERE id = ?", models.StateCompleted, listing.ID)
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	if _, err := svc.Edit(context.Background(), actorFor(owner), listing.ID, validInput(), nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if got := reload(t, svc.db, listing.ID); got.State != models.StateCompleted {
		t.Errorf("state = %s, want COMPLETED kept", got.State)
	}
}

func TestEditReplacesImage(t *testing.T) {
	svc, store := newListingService(t)
	owner := testutil.CreateUser(t, svc.db, models.RoleUser, nil)
	ctx := context.Background()

	first := testutil.FileHeader(t, "image", "a.png", testutil.Image(testutil.PNGHeader, 100))
	listing, err := svc.Create(ctx, actorFor(owner), validInput(), first)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	oldKey := listing.Images[0].StorageKey

	second := testutil.FileHeader(t, "image", "b.jpg", testutil.Image(testutil.JPEGHeader, 100))
	edited, err := svc.Edit(ctx, actorFor(owner), listing.ID, validInput(), second)
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if len(edited.Images) != 1 || edited.Images[0].ContentType != "image/jpeg" {
		t.Fatalf("images = %+v, want one jpeg", edited.Images)
	}
	if _, ok := store.Objects[oldKey]; ok {
		t.Error("old image still stored")
	}
	if store.Len() != 1 {
		t.Errorf("stored objects = %d, want 1", store.Len())
	}
}

func TestGetVisibility(t *testing.T) {
	calais := models.CampusCalais
	dunkerque := models.CampusDunkerque

	tests := []struct {
		name    string
		state   models.ListingState
		viewer  string
		wantErr error
	}{
		{"published anonymous", models.StatePublished, "anonymous", nil},
		{"completed stranger", models.StateCompleted, "stranger", nil},
		{"pending anonymous", models.StatePendingReview, "anonymous", ErrForbidden},
		{"pending stranger", models.StatePendingReview, "stranger", ErrForbidden},
		{"draft stranger", models.StateDraft, "stranger", ErrForbidden},
		{"rejected stranger", models.StateRejected, "stranger", ErrForbidden},
		{"rejected owner", models.StateRejected, "owner", nil},
		{"pending campus moderator", models.StatePendingReview, "moderator-calais", nil},
		{"pending other campus moderator", models.StatePendingReview, "moderator-dunkerque", ErrForbidden},
		{"pending admin", models.StatePendingReview, "admin", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newListingService(t)
			owner := testutil.CreateUser(t, svc.db, models.RoleUser, nil)
			viewers := map[string]*models.User{
				"owner":               owner,
				"stranger":            testutil.CreateUser(t, svc.db, models.RoleUser, nil),
				"moderator-calais":    testutil.CreateUser(t, svc.db, models.RoleModerator, &calais),
				"moderator-dunkerque": testutil.CreateUser(t, svc.db, models.RoleModerator, &dunkerque),
				"admin":               testutil.CreateUser(t, svc.db, models.RoleAdmin, nil),
			}
			listing := testutil.CreateListing(t, svc.db, owner, models.CampusCalais, tt.state, hoursFromNow(24))

			var err error
			if u, ok := viewers[tt.viewer]; ok {
				_, err = svc.Get(context.Background(), actorFor(u), listing.ID)
			} else {
				_, err = svc.Get(context.Background(), nil, listing.ID)
			}
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Get: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetUnknownListing(t *testing.T) {
	svc, _ := newListingService(t)
	if _, err := svc.Get(context.Background(), nil, uuid.New()); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("err = %v, want ErrListingNotFound", err)
	}
}

func TestCompleteClearsFavorites(t *testing.T) {
	svc, _ := newListingService(t)
	owner := testutil.CreateUser(t, svc.db, models.RoleUser, nil)
	fan := testutil.CreateUser(t, svc.db, models.RoleUser, nil)
	listing := testutil.CreateListing(t, svc.db, owner, models.CampusCalais, models.StatePublished, hoursFromNow(24))
	addFavorite(t, svc.db, fan, listing)

	if _, err := svc.Complete(context.Background(), actorFor(fan), listing.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner complete err = %v, want ErrForbidden", err)
	}
	done, err := svc.Complete(context.Background(), actorFor(owner), listing.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.State != models.StateCompleted {
		t.Errorf("state = %s, want COMPLETED", done.State)
	}
	if n := countFavorites(t, svc.db, listing.ID); n != 0 {
		t.Errorf("favorites = %d, want 0", n)
	}
	if _, err := svc.Complete(context.Background(), actorFor(owner), listing.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second complete err = %v, want ErrInvalidTransition", err)
	}
}

func TestDeleteRemovesDependents(t *testing.T) {
	svc, store := newListingService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, svc.db, models.RoleUser, nil)
	buyer := testutil.CreateUser(t, svc.db, models.RoleUser, nil)
	admin := testutil.CreateUser(t, svc.db, models.RoleAdmin, nil)

	fh := testutil.FileHeader(t, "image", "a.png", testutil.Image(testutil.PNGHeader, 100))
	listing, err := svc.Create(ctx, actorFor(owner), validInput(), fh)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	svc.db.Model(&models.Listing{}).Where("id = ?", listing.ID).Update("state", models.StatePublished)
	addFavorite(t, svc.db, buyer, listing)
	if _, _, err := NewMessagingService(svc.db).Contact(ctx, actorFor(buyer), listing.ID, "Is it still available?"); err != nil {
		t.Fatalf("Contact: %v", err)
	}

	if err := svc.Delete(ctx, actorFor(buyer), listing.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger delete err = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(ctx, actorFor(admin), listing.ID); err != nil {
		t.Fatalf("admin Delete: %v", err)
	}

	for name, model := range map[string]interface{}{
		"listings":      &models.Listing{},
		"images":        &models.ListingImage{},
		"favorites":     &models.Favorite{},
		"conversations": &models.Conversation{},
		"messages":      &models.Message{},
	} {
		var n int64
		svc.db.Model(model).Count(&n)
		if n != 0 {
			t.Errorf("%s rows = %d, want 0", name, n)
		}
	}
	if store.Len() != 0 {
		t.Errorf("stored objects = %d, want 0", store.Len())
	}
	if _, err := svc.Get(ctx, actorFor(owner), listing.ID); !errors.Is(err, ErrListingNotFound) {
		t.Errorf("Get after delete err = %v, want ErrListingNotFound", err)
	}
}

func TestToggleFavoriteTwiceRestoresMembership(t *testing.T) {
	svc, _ := newListingService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, svc.db, models.RoleUser, nil)
	fan := testutil.CreateUser(t, svc.db, models.RoleUser, nil)
	listing := testutil.CreateListing(t, svc.db, owner, models.CampusCalais, models.StatePublished, hoursFromNow(24))

	on, err := svc.ToggleFavorite(ctx, actorFor(fan), listing.ID)
	if err != nil || !on {
		t.Fatalf("first toggle = %v, %v; want true", on, err)
	}
	if fav, err := svc.IsFavorite(ctx, actorFor(fan), listing.ID); err != nil || !fav {
		t.Errorf("IsFavorite = %v, %v; want true after adding", fav, err)
	}
	if fav, err := svc.IsFavorite(ctx, nil, listing.ID); err != nil || fav {
		t.Errorf("anonymous IsFavorite = %v, %v; want false", fav, err)
	}
	favs, err := svc.ListFavorites(ctx, actorFor(fan))
	if err != nil || len(favs) != 1 || favs[0].ID != listing.ID {
		t.Fatalf("ListFavorites = %v, %v", favs, err)
	}

	off, err := svc.ToggleFavorite(ctx, actorFor(fan), listing.ID)
	if err != nil || off {
		t.Fatalf("second toggle = %v, %v; want false", off, err)
	}
	if n := countFavorites(t, svc.db, listing.ID); n != 0 {
		t.Errorf("favorites = %d, want 0", n)
	}
}

func TestToggleFavoriteNeedsPublishedListing(t *testing.T) {
	svc, _ := newListingService(t)
	owner := testutil.CreateUser(t, svc.db, models.RoleUser, nil)
	listing := testutil.CreateListing(t, svc.db, owner, models.CampusCalais, models.StatePendingReview, hoursFromNow(24))

	if _, err := svc.ToggleFavorite(context.Background(), actorFor(owner), listing.ID); !errors.Is(err, ErrNotPublished) {
		t.Fatalf("err = %v, want ErrNotPublished", err)
	}
}

func TestListPublishedFilters(t *testing.T) {
	svc, _ := newListingService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, svc.db, models.RoleUser, nil)

	calais := testutil.CreateListing(t, svc.db, owner, models.CampusCalais, models.StatePublished, hoursFromNow(24))
	testutil.CreateListing(t, svc.db, owner, models.CampusDunkerque, models.StatePublished, hoursFromNow(24))
	testutil.CreateListing(t, svc.db, owner, models.CampusCalais, models.StatePendingReview, hoursFromNow(24))
	svc.db.Model(&models.Listing{}).Where("id = ?", calais.ID).Update("title", "Physics textbook 100%")

	tests := []struct {
		name   string
		filter ListingFilter
		want   int64
	}{
		{"all published", ListingFilter{}, 2},
		{"by campus", ListingFilter{Campus: "calais"}, 1},
		{"by category", ListingFilter{Category: "BOOKS"}, 0},
		{"by type", ListingFilter{Type: "DONATION"}, 2},
		{"text match", ListingFilter{Query: "TEXTBOOK"}, 1},
		{"percent is literal", ListingFilter{Query: "100%"}, 1},
		{"text miss", ListingFilter{Query: "bicycle"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filter.Page = NewPage(1, 20)
			items, total, err := svc.ListPublished(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListPublished: %v", err)
			}
			if total != tt.want || int64(len(items)) != tt.want {
				t.Errorf("got %d items (total %d), want %d", len(items), total, tt.want)
			}
		})
	}

	if _, _, err := svc.ListPublished(ctx, ListingFilter{Campus: "LILLE", Page: NewPage(1, 20)}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown campus err = %v, want ErrValidation", err)
	}
}

func TestListMine(t *testing.T) {
	svc, _ := newListingService(t)
	owner := testutil.CreateUser(t, svc.db, models.RoleUser, nil)
	other := testutil.CreateUser(t, svc.db, models.RoleUser, nil)
	testutil.CreateListing(t, svc.db, owner, models.CampusCalais, models.StateRejected, nil)
	testutil.CreateListing(t, svc.db, owner, models.CampusCalais, models.StatePublished, nil)
	testutil.CreateListing(t, svc.db, other, models.CampusCalais, models.StatePublished, nil)

	mine, err := svc.ListMine(context.Background(), actorFor(owner), "")
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("got %d listings, want 2", len(mine))
	}
	rejected, _ := svc.ListMine(context.Background(), actorFor(owner), "rejected")
	if len(rejected) != 1 || rejected[0].RefusalReason == "" {
		t.Errorf("rejected = %+v, want one with reason", rejected)
	}
}

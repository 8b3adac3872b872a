package access

import (
	"testing"

	"github.com/campustroc/backend/internal/models"
	"github.com/google/uuid"
)

func campus(c models.Campus) *models.Campus { return &c }

func TestCanView(t *testing.T) {
	owner := uuid.New()
	calaisMod := &Actor{UserID: uuid.New(), Role: models.RoleModerator, ModeratedCampus: campus(models.CampusCalais)}
	freeMod := &Actor{UserID: uuid.New(), Role: models.RoleModerator}
	admin := &Actor{UserID: uuid.New(), Role: models.RoleAdmin}
	stranger := &Actor{UserID: uuid.New(), Role: models.RoleUser}
	ownerActor := &Actor{UserID: owner, Role: models.RoleUser}

	cases := []struct {
		name  string
		actor *Actor
		state models.ListingState
		allow bool
	}{
		{name: "anonymous published", actor: nil, state: models.StatePublished, allow: true},
		{name: "anonymous completed", actor: nil, state: models.StateCompleted, allow: true},
		{name: "anonymous pending", actor: nil, state: models.StatePendingReview, allow: false},
		{name: "stranger draft", actor: stranger, state: models.StateDraft, allow: false},
		{name: "stranger pending", actor: stranger, state: models.StatePendingReview, allow: false},
		{name: "stranger rejected", actor: stranger, state: models.StateRejected, allow: false},
		{name: "stranger archived", actor: stranger, state: models.StateArchived, allow: false},
		{name: "owner rejected", actor: ownerActor, state: models.StateRejected, allow: true},
		{name: "admin pending", actor: admin, state: models.StatePendingReview, allow: true},
		{name: "same campus moderator", actor: calaisMod, state: models.StatePendingReview, allow: true},
		{name: "unscoped moderator", actor: freeMod, state: models.StatePendingReview, allow: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Subject{OwnerID: owner, Campus: models.CampusCalais, State: tc.state}
			if got := CanView(tc.actor, s); got != tc.allow {
				t.Fatalf("CanView = %v, want %v", got, tc.allow)
			}
		})
	}

	dunkerque := Subject{OwnerID: owner, Campus: models.CampusDunkerque, State: models.StatePendingReview}
	if CanView(calaisMod, dunkerque) {
		t.Fatal("CALAIS moderator should not see DUNKERQUE pending listing")
	}
}

func TestCanDecide(t *testing.T) {
	listing := Subject{OwnerID: uuid.New(), Campus: models.CampusDunkerque, State: models.StatePendingReview}

	cases := []struct {
		name  string
		actor *Actor
		allow bool
	}{
		{name: "anonymous", actor: nil, allow: false},
		{name: "user", actor: &Actor{Role: models.RoleUser}, allow: false},
		{name: "admin", actor: &Actor{Role: models.RoleAdmin}, allow: true},
		{name: "matching moderator", actor: &Actor{Role: models.RoleModerator, ModeratedCampus: campus(models.CampusDunkerque)}, allow: true},
		{name: "cross campus moderator", actor: &Actor{Role: models.RoleModerator, ModeratedCampus: campus(models.CampusCalais)}, allow: false},
		{name: "unscoped moderator", actor: &Actor{Role: models.RoleModerator}, allow: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanDecide(tc.actor, listing); got != tc.allow {
				t.Fatalf("CanDecide = %v, want %v", got, tc.allow)
			}
		})
	}
}

func TestOwnerOnlyActions(t *testing.T) {
	owner := &Actor{UserID: uuid.New(), Role: models.RoleUser}
	admin := &Actor{UserID: uuid.New(), Role: models.RoleAdmin}
	mod := &Actor{UserID: uuid.New(), Role: models.RoleModerator}
	s := Subject{OwnerID: owner.UserID, Campus: models.CampusCalais, State: models.StatePublished}

	if !CanEdit(owner, s) || CanEdit(admin, s) || CanEdit(mod, s) || CanEdit(nil, s) {
		t.Fatal("edit must be owner only")
	}
	if !CanComplete(owner, s) || CanComplete(admin, s) {
		t.Fatal("complete must be owner only")
	}
	if !CanDelete(owner, s) || !CanDelete(admin, s) || CanDelete(mod, s) {
		t.Fatal("delete must be owner or admin")
	}
}

func TestPendingScope(t *testing.T) {
	if _, all, ok := PendingScope(&Actor{Role: models.RoleAdmin}); !ok || !all {
		t.Fatal("admin should see all pending listings")
	}
	if _, all, ok := PendingScope(&Actor{Role: models.RoleModerator}); !ok || !all {
		t.Fatal("unscoped moderator should see all pending listings")
	}
	c, all, ok := PendingScope(&Actor{Role: models.RoleModerator, ModeratedCampus: campus(models.CampusBoulogne)})
	if !ok || all || c != models.CampusBoulogne {
		t.Fatalf("scoped moderator got campus=%q all=%v ok=%v", c, all, ok)
	}
	if _, _, ok := PendingScope(&Actor{Role: models.RoleUser}); ok {
		t.Fatal("plain users have no pending scope")
	}
	if _, _, ok := PendingScope(nil); ok {
		t.Fatal("anonymous has no pending scope")
	}
}

// Package access decides who may see and act on listings.
//
// The current user is always passed in explicitly; a nil *Actor is an
// anonymous visitor.
package access

import (
	"github.com/campustroc/backend/internal/models"
	"github.com/google/uuid"
)

type Actor struct {
	UserID          uuid.UUID
	Role            models.Role
	ModeratedCampus *models.Campus
	Banned          bool
}

func ActorOf(u *models.User) *Actor {
	return &Actor{
		UserID:          u.ID,
		Role:            u.Role,
		ModeratedCampus: u.ModeratedCampus,
		Banned:          u.IsBanned,
	}
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == models.RoleAdmin
}

func (a *Actor) IsModerator() bool {
	return a != nil && a.Role == models.RoleModerator
}

func (a *Actor) IsStaff() bool {
	return a.IsAdmin() || a.IsModerator()
}

// Subject is the part of a listing the rules look at.
type Subject struct {
	OwnerID uuid.UUID
	Campus  models.Campus
	State   models.ListingState
}

func SubjectOf(l *models.Listing) Subject {
	return Subject{OwnerID: l.OwnerID, Campus: l.Campus, State: l.State}
}

func (a *Actor) owns(s Subject) bool {
	return a != nil && a.UserID == s.OwnerID
}

// coversCampus is true for moderators assigned to c and for moderators
// without any campus assignment.
func (a *Actor) coversCampus(c models.Campus) bool {
	if !a.IsModerator() {
		return false
	}
	return a.ModeratedCampus == nil || *a.ModeratedCampus == c
}

func CanView(a *Actor, s Subject) bool {
	if s.State.IsPublic() {
		return true
	}
	return a.owns(s) || a.IsAdmin() || a.coversCampus(s.Campus)
}

func CanEdit(a *Actor, s Subject) bool {
	return a.owns(s)
}

func CanComplete(a *Actor, s Subject) bool {
	return a.owns(s)
}

func CanDelete(a *Actor, s Subject) bool {
	return a.owns(s) || a.IsAdmin()
}

// CanDecide reports whether a may validate or reject the listing.
func CanDecide(a *Actor, s Subject) bool {
	return a.IsAdmin() || a.coversCampus(s.Campus)
}

// PendingScope tells which pending listings a staff member reviews.
// all is true for admins and unscoped moderators; otherwise campus is set.
// ok is false for non-staff.
func PendingScope(a *Actor) (campus models.Campus, all bool, ok bool) {
	switch {
	case a.IsAdmin():
		return "", true, true
	case a.IsModerator():
		if a.ModeratedCampus == nil {
			return "", true, true
		}
		return *a.ModeratedCampus, false, true
	default:
		return "", false, false
	}
}

// CanManageUsers covers promote, ban and unban.
func CanManageUsers(a *Actor) bool {
	return a.IsAdmin()
}

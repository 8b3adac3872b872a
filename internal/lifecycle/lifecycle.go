// Package lifecycle holds the listing moderation state machine.
//
// Transitions are pure: they take a snapshot of the listing and return the
// resulting state together with the side effects the caller must apply in
// the same unit of work. Nothing here touches storage.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/campustroc/backend/internal/models"
	"github.com/google/uuid"
)

const (
	MinRefusalReason = 10
	MaxRefusalReason = 500
)

var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrReasonRequired    = errors.New("a refusal reason is required")
	ErrReasonLength      = fmt.Errorf("refusal reason must be between %d and %d characters", MinRefusalReason, MaxRefusalReason)
	ErrNotExpired        = errors.New("listing has not expired")
)

// Snapshot is the part of a listing the state machine reads.
type Snapshot struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Title     string
	State     models.ListingState
	ExpiresAt *time.Time
}

func SnapshotOf(l *models.Listing) Snapshot {
	return Snapshot{
		ID:        l.ID,
		OwnerID:   l.OwnerID,
		Title:     l.Title,
		State:     l.State,
		ExpiresAt: l.ExpiresAt,
	}
}

// Outcome is the result of a transition. RefusalReason is the value the
// listing must hold afterwards; it is empty unless To is REJECTED.
type Outcome struct {
	From          models.ListingState
	To            models.ListingState
	RefusalReason string
	Effects       []Effect
}

// Apply writes the outcome onto l.
func (o Outcome) Apply(l *models.Listing) {
	l.State = o.To
	l.RefusalReason = o.RefusalReason
}

// Changed reports whether the transition moved the listing.
func (o Outcome) Changed() bool {
	return o.From != o.To
}

func invalid(from models.ListingState, action string) error {
	return fmt.Errorf("%w: cannot %s a %s listing", ErrInvalidTransition, action, strings.ToLower(string(from)))
}

// Submit is the state of a freshly created listing.
func Submit() Outcome {
	return Outcome{
		From: models.StateDraft,
		To:   models.StatePendingReview,
	}
}

// Validate publishes a listing waiting for review.
func Validate(s Snapshot) (Outcome, error) {
	if s.State != models.StatePendingReview {
		return Outcome{}, invalid(s.State, "validate")
	}
	return Outcome{
		From: s.State,
		To:   models.StatePublished,
		Effects: []Effect{
			notifyOwner(s, models.NotificationValidation, fmt.Sprintf("Your listing \"%s\" has been published.", s.Title)),
			{Kind: EffectIndex, ListingID: s.ID},
		},
	}, nil
}

// Reject refuses a listing waiting for review. The reason is trimmed and
// must be 10..500 characters.
func Reject(s Snapshot, reason string) (Outcome, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Outcome{}, ErrReasonRequired
	}
	if n := utf8.RuneCountInString(reason); n < MinRefusalReason || n > MaxRefusalReason {
		return Outcome{}, ErrReasonLength
	}
	if s.State != models.StatePendingReview {
		return Outcome{}, invalid(s.State, "reject")
	}
	return Outcome{
		From:          s.State,
		To:            models.StateRejected,
		RefusalReason: reason,
		Effects: []Effect{
			notifyOwner(s, models.NotificationRefusal, fmt.Sprintf("Your listing \"%s\" was refused: %s", s.Title, reason)),
			{Kind: EffectUnindex, ListingID: s.ID},
		},
	}, nil
}

// Edit applies the golden rule: any edit of a non-draft listing sends it
// back to review, whatever changed. The refusal reason is always cleared.
func Edit(s Snapshot) (Outcome, error) {
	switch s.State {
	case models.StateDraft:
		return Outcome{From: s.State, To: models.StateDraft}, nil
	case models.StatePendingReview, models.StatePublished, models.StateRejected:
		return Outcome{
			From:    s.State,
			To:      models.StatePendingReview,
			Effects: []Effect{{Kind: EffectUnindex, ListingID: s.ID}},
		}, nil
	default:
		return Outcome{}, invalid(s.State, "edit")
	}
}

// Complete marks a published listing as given away or exchanged.
func Complete(s Snapshot) (Outcome, error) {
	if s.State != models.StatePublished {
		return Outcome{}, invalid(s.State, "complete")
	}
	return Outcome{
		From: s.State,
		To:   models.StateCompleted,
		Effects: []Effect{
			{Kind: EffectClearFavorites, ListingID: s.ID},
			{Kind: EffectUnindex, ListingID: s.ID},
		},
	}, nil
}

// Expired reports whether the sweep should archive the listing at now.
func Expired(s Snapshot, now time.Time) bool {
	return s.State != models.StateArchived && s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}

// Expire archives a listing whose expiry date has passed.
func Expire(s Snapshot, now time.Time) (Outcome, error) {
	if !Expired(s, now) {
		return Outcome{}, ErrNotExpired
	}
	return Outcome{
		From: s.State,
		To:   models.StateArchived,
		Effects: []Effect{
			{Kind: EffectClearFavorites, ListingID: s.ID},
			{Kind: EffectUnindex, ListingID: s.ID},
		},
	}, nil
}

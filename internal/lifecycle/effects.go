package lifecycle

import (
	"github.com/campustroc/backend/internal/models"
	"github.com/google/uuid"
)

type EffectKind string

const (
	EffectNotify         EffectKind = "notify"
	EffectClearFavorites EffectKind = "clear_favorites"
	EffectIndex          EffectKind = "index"
	EffectUnindex        EffectKind = "unindex"
)

// Effect describes work a transition requires beyond the state change.
type Effect struct {
	Kind             EffectKind
	ListingID        uuid.UUID
	Recipient        uuid.UUID
	NotificationType models.NotificationType
	Message          string
}

func notifyOwner(s Snapshot, typ models.NotificationType, msg string) Effect {
	return Effect{
		Kind:             EffectNotify,
		ListingID:        s.ID,
		Recipient:        s.OwnerID,
		NotificationType: typ,
		Message:          msg,
	}
}

// Notifications returns the notify effects of an outcome.
func (o Outcome) Notifications() []Effect {
	var out []Effect
	for _, e := range o.Effects {
		if e.Kind == EffectNotify {
			out = append(out, e)
		}
	}
	return out
}

func (o Outcome) Has(kind EffectKind) bool {
	for _, e := range o.Effects {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

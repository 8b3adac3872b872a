package models

// ListingState is the moderation lifecycle state of a listing.
type ListingState string

const (
	StateDraft         ListingState = "DRAFT"
	StatePendingReview ListingState = "PENDING_REVIEW"
	StatePublished     ListingState = "PUBLISHED"
	StateRejected      ListingState = "REJECTED"
	StateCompleted     ListingState = "COMPLETED"
	StateArchived      ListingState = "ARCHIVED"
)

// IsPublic reports whether listings in this state are visible to everyone.
func (s ListingState) IsPublic() bool {
	return s == StatePublished || s == StateCompleted
}

type ListingType string

const (
	TypeDonation ListingType = "DONATION"
	TypeExchange ListingType = "EXCHANGE"
)

func (t ListingType) Valid() bool {
	return t == TypeDonation || t == TypeExchange
}

type Campus string

const (
	CampusCalais    Campus = "CALAIS"
	CampusDunkerque Campus = "DUNKERQUE"
	CampusBoulogne  Campus = "BOULOGNE"
	CampusSaintOmer Campus = "SAINT_OMER"
)

var Campuses = []Campus{CampusCalais, CampusDunkerque, CampusBoulogne, CampusSaintOmer}

func (c Campus) Valid() bool {
	for _, v := range Campuses {
		if v == c {
			return true
		}
	}
	return false
}

type Category string

var Categories = []Category{
	"FURNITURE", "BOOKS", "ELECTRONICS", "CLOTHING",
	"KITCHEN", "SPORTS", "STATIONERY", "OTHER",
}

var categoryLabels = map[Category]string{
	"FURNITURE":   "Mobilier",
	"BOOKS":       "Livres",
	"ELECTRONICS": "Matériel Informatique",
	"CLOTHING":    "Vêtements",
	"KITCHEN":     "Électroménager et vaisselle",
	"SPORTS":      "Sport",
	"STATIONERY":  "Fournitures Scolaires",
	"OTHER":       "Autre",
}

// Label is the display name shown to students.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Role is hierarchical: ADMIN implies MODERATOR implies USER.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModerator || r == RoleAdmin
}

type NotificationType string

const (
	NotificationValidation NotificationType = "VALIDATION"
	NotificationRefusal    NotificationType = "REFUSAL"
	NotificationNewMessage NotificationType = "NEW_MESSAGE"
)

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/campustroc/backend/internal/access"
	"github.com/campustroc/backend/internal/lifecycle"
	"github.com/campustroc/backend/internal/models"
	"github.com/campustroc/backend/internal/search"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var BannedWords = []string{
	"fuck", "fucking", "shit", "bullshit", "asshole", "bastard", "bitch", "cunt",
	"merde", "connard", "connasse", "salope", "putain", "encule", "enculé",
	"nigger", "faggot", "pédé",
	"porn", "porno", "nude", "nudes",
	"scam", "scammer", "arnaque", "phishing",
}

// Content flags attached to pending listings to help reviewers.
const (
	FlagLanguage     = "inappropriate_language"
	FlagURL          = "url"
	FlagContactInfo  = "contact_info"
	FlagSpam         = "spam"
	FlagExcessiveCap = "excessive_caps"
)

var reportStatuses = map[string]bool{"pending": true, "reviewed": true, "actioned": true, "dismissed": true}

type Decision string

const (
	DecisionValidate Decision = "validate"
	DecisionReject   Decision = "reject"
)

// PendingListing is a listing in the review queue with its content flags.
type PendingListing struct {
	models.Listing
	Flags []string `json:"flags"`
}

type ModerationService struct {
	db    *gorm.DB
	index *search.Service
	now   func() time.Time

	bannedWordRegexps []*regexp.Regexp
	urlPattern        *regexp.Regexp
	emailPattern      *regexp.Regexp
	phonePattern      *regexp.Regexp
	repeatedPattern   *regexp.Regexp
	capsPattern       *regexp.Regexp
}

func NewModerationService(db *gorm.DB, index *search.Service) *ModerationService {
	ms := &ModerationService{db: db, index: index, now: utcNow}
	ms.bannedWordRegexps = make([]*regexp.Regexp, 0, len(BannedWords))
	for _, word := range BannedWords {
		ms.bannedWordRegexps = append(ms.bannedWordRegexps, regexp.MustCompile(`(?i)(^|[^\pL])`+regexp.QuoteMeta(word)+`($|[^\pL])`))
	}
	ms.urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+)`)
	ms.emailPattern = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)
	ms.phonePattern = regexp.MustCompile(`(\+33\s?|0)[1-9]([-.\s]?\d{2}){4}`)
	ms.repeatedPattern = regexp.MustCompile(`(?i)(a{5,}|e{5,}|i{5,}|o{5,}|u{5,}|!{4,}|\?{4,}|\.{5,}|\${3,}|€{3,})`)
	ms.capsPattern = regexp.MustCompile(`\p{Lu}{5,}`)
	return ms
}

// ContentFlags lists the reasons a text looks suspicious. An empty result
// means nothing was detected. Flags never block a listing on their own.
func (ms *ModerationService) ContentFlags(text string) []string {
	flags := []string{}
	if strings.TrimSpace(text) == "" {
		return flags
	}
	for _, re := range ms.bannedWordRegexps {
		if re.MatchString(text) {
			flags = append(flags, FlagLanguage)
			break
		}
	}
	if ms.urlPattern.MatchString(text) {
		flags = append(flags, FlagURL)
	}
	if ms.emailPattern.MatchString(text) || ms.phonePattern.MatchString(text) {
		flags = append(flags, FlagContactInfo)
	}
	if ms.repeatedPattern.MatchString(text) {
		flags = append(flags, FlagSpam)
	}
	if len(ms.capsPattern.FindAllString(text, -1)) > 2 {
		flags = append(flags, FlagExcessiveCap)
	}
	return flags
}

// ListPending returns the review queue visible to actor, oldest first.
func (ms *ModerationService) ListPending(ctx context.Context, actor *access.Actor, page Page) ([]PendingListing, int64, error) {
	campus, all, ok := access.PendingScope(actor)
	if !ok {
		return nil, 0, ErrForbidden
	}

	base := func() *gorm.DB {
		q := ms.db.WithContext(ctx).Model(&models.Listing{}).Where("state = ?", models.StatePendingReview)
		if !all {
			q = q.Where("campus = ?", campus)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var listings []models.Listing
	err := base().Preload("Images", orderedImages).
		Order("created_at ASC").
		Limit(page.Limit).Offset(page.Offset()).
		Find(&listings).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]PendingListing, len(listings))
	for i, l := range listings {
		out[i] = PendingListing{Listing: l, Flags: ms.ContentFlags(l.Title + "\n" + l.Description)}
	}
	return out, total, nil
}

// Decide validates or rejects a pending listing on behalf of a staff member.
func (ms *ModerationService) Decide(ctx context.Context, actor *access.Actor, id uuid.UUID, action Decision, reason string) (*models.Listing, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if action != DecisionValidate && action != DecisionReject {
		return nil, invalidf("action must be %q or %q", DecisionValidate, DecisionReject)
	}
	listing, err := findListing(ms.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !access.CanDecide(actor, access.SubjectOf(listing)) {
		return nil, ErrForbidden
	}

	var outcome lifecycle.Outcome
	extra := map[string]interface{}{}
	switch action {
	case DecisionValidate:
		outcome, err = lifecycle.Validate(lifecycle.SnapshotOf(listing))
		now := ms.now()
		validator := actor.UserID
		extra["validated_at"] = now
		extra["validated_by"] = validator
		listing.ValidatedAt = &now
		listing.ValidatedBy = &validator
	case DecisionReject:
		outcome, err = lifecycle.Reject(lifecycle.SnapshotOf(listing), reason)
	}
	if err != nil {
		if errors.Is(err, lifecycle.ErrReasonRequired) || errors.Is(err, lifecycle.ErrReasonLength) {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return nil, err
	}

	if err := commitTransition(ctx, ms.db, ms.index, listing, outcome, extra); err != nil {
		return nil, err
	}
	slog.Info("listing moderated", "listing_id", listing.ID.String(), "user_id", actor.UserID.String(), "action", string(action))
	return listing, nil
}

// CreateReport lets a user flag a listing they can see.
func (ms *ModerationService) CreateReport(ctx context.Context, actor *access.Actor, listingID uuid.UUID, reason string) (*models.Report, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	reason = strings.TrimSpace(reason)
	if n := utf8.RuneCountInString(reason); n < 3 || n > 500 {
		return nil, invalidf("reason must be between 3 and 500 characters")
	}
	listing, err := findListing(ms.db.WithContext(ctx), listingID)
	if err != nil {
		return nil, err
	}
	if !access.CanView(actor, access.SubjectOf(listing)) {
		return nil, ErrForbidden
	}
	if listing.OwnerID == actor.UserID {
		return nil, invalidf("cannot report your own listing")
	}

	report := models.Report{
		ReporterID: actor.UserID,
		ListingID:  listing.ID,
		Campus:     listing.Campus,
		Reason:     reason,
		Status:     "pending",
	}
	if err := ms.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return &report, nil
}

// ListReports returns reports on the campuses actor moderates, newest first.
func (ms *ModerationService) ListReports(ctx context.Context, actor *access.Actor, status string, page Page) ([]models.Report, int64, error) {
	campus, all, ok := access.PendingScope(actor)
	if !ok {
		return nil, 0, ErrForbidden
	}
	if status != "" && !reportStatuses[status] {
		return nil, 0, invalidf("invalid status: must be pending, reviewed, actioned, or dismissed")
	}

	base := func() *gorm.DB {
		q := ms.db.WithContext(ctx).Model(&models.Report{})
		if !all {
			q = q.Where("campus = ?", campus)
		}
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reports []models.Report
	if err := base().Order("created_at DESC").Limit(page.Limit).Offset(page.Offset()).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// ActionReport records the staff decision on a report.
func (ms *ModerationService) ActionReport(ctx context.Context, actor *access.Actor, reportID uuid.UUID, status, note string) (*models.Report, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	if status == "pending" || !reportStatuses[status] {
		return nil, invalidf("invalid status: must be reviewed, actioned, or dismissed")
	}

	var report models.Report
	if err := ms.db.WithContext(ctx).First(&report, "id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	if !access.CanDecide(actor, access.Subject{Campus: report.Campus}) {
		return nil, ErrForbidden
	}

	report.Status = status
	report.AdminNote = strings.TrimSpace(note)
	if err := ms.db.WithContext(ctx).Model(&report).Updates(map[string]interface{}{
		"status":     report.Status,
		"admin_note": report.AdminNote,
	}).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// BlockUser stops blockedID from messaging the actor.
func (ms *ModerationService) BlockUser(ctx context.Context, actor *access.Actor, blockedID uuid.UUID) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if actor.UserID == blockedID {
		return ErrSelfBlock
	}
	var n int64
	if err := ms.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", blockedID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	blocked, err := isBlocked(ms.db.WithContext(ctx), actor.UserID, blockedID)
	if err != nil {
		return err
	}
	if blocked {
		return ErrAlreadyBlocked
	}
	return ms.db.WithContext(ctx).Create(&models.Block{BlockerID: actor.UserID, BlockedID: blockedID}).Error
}

func (ms *ModerationService) UnblockUser(ctx context.Context, actor *access.Actor, blockedID uuid.UUID) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	return ms.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", actor.UserID, blockedID).
		Delete(&models.Block{}).Error
}

func (ms *ModerationService) BlockedIDs(ctx context.Context, actor *access.Actor) ([]uuid.UUID, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	ids := []uuid.UUID{}
	err := ms.db.WithContext(ctx).Model(&models.Block{}).
		Where("blocker_id = ?", actor.UserID).
		Pluck("blocked_id", &ids).Error
	return ids, err
}

// isBlocked reports whether blocker has blocked blocked.
func isBlocked(db *gorm.DB, blocker, blocked uuid.UUID) (bool, error) {
	var n int64
	err := db.Model(&models.Block{}).Where("blocker_id = ? AND blocked_id = ?", blocker, blocked).Count(&n).Error
	return n > 0, err
}

// blockedEither reports whether a and b have blocked each other in either direction.
func blockedEither(db *gorm.DB, a, b uuid.UUID) (bool, error) {
	var n int64
	err := db.Model(&models.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&n).Error
	return n > 0, err
}

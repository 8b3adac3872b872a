package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/campustroc/backend/internal/lifecycle"
)

var (
	ErrValidation           = errors.New("invalid input")
	ErrUnauthenticated      = errors.New("authentication required")
	ErrForbidden            = errors.New("forbidden")
	ErrConflict             = errors.New("conflict")
	ErrInvalidTransition    = lifecycle.ErrInvalidTransition
	ErrListingNotFound      = errors.New("listing not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrReportNotFound       = errors.New("report not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotPublished         = fmt.Errorf("%w: listing is not published", ErrConflict)
	ErrSelfBan              = fmt.Errorf("%w: cannot ban yourself", ErrValidation)
	ErrAlreadyBanned        = fmt.Errorf("%w: user is already banned", ErrConflict)
	ErrNotBanned            = fmt.Errorf("%w: user is not banned", ErrConflict)
	ErrBanned               = fmt.Errorf("%w: account suspended", ErrForbidden)
	ErrEmailTaken           = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidToken         = errors.New("invalid or expired refresh token")
	ErrAlreadyBlocked       = fmt.Errorf("%w: user already blocked", ErrConflict)
	ErrSelfBlock            = fmt.Errorf("%w: cannot block yourself", ErrValidation)
)

// invalidf builds a validation error with a client-facing message.
func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// Page normalizes 1-based pagination parameters.
type Page struct {
	Page  int
	Limit int
}

// maxPage keeps Offset far from overflow.
const maxPage = 1_000_000

func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

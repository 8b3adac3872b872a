// Package search indexes published listings for full-text queries.
package search

import (
	"log/slog"
	"strings"

	"github.com/campustroc/backend/internal/models"
	"gorm.io/gorm"
)

// ListingRecord is what gets indexed for a published listing.
type ListingRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Campus      string `json:"campus"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	CreatedAt   int64  `json:"createdAt"`
}

func RecordOf(l *models.Listing) ListingRecord {
	return ListingRecord{
		ID:          l.ID.String(),
		Title:       l.Title,
		Description: l.Description,
		Campus:      string(l.Campus),
		Category:    string(l.Category),
		Type:        string(l.Type),
		CreatedAt:   l.CreatedAt.Unix(),
	}
}

type Query struct {
	Text     string
	Campus   string
	Category string
	Type     string
	Limit    int
	Offset   int
}

// Service fronts Meilisearch. With no engine configured every call is a
// no-op and Search reports ok=false so callers use Matching instead.
type Service struct {
	meili *Meili
}

func NewService(meili *Meili) *Service {
	return &Service{meili: meili}
}

func (s *Service) available() bool {
	return s != nil && s.meili != nil && s.meili.Healthy()
}

// Search returns matching listing ids in relevance order.
func (s *Service) Search(q Query) (ids []string, total int, ok bool) {
	if !s.available() {
		return nil, 0, false
	}
	ids, total, err := s.meili.Search(q)
	if err != nil {
		slog.Warn("search: meilisearch error, falling back to sql", "error", err)
		return nil, 0, false
	}
	return ids, total, true
}

// Index adds or replaces a listing in the index (fire-and-forget).
func (s *Service) Index(rec ListingRecord) {
	if !s.available() {
		return
	}
	go func() {
		if err := s.meili.IndexListing(rec); err != nil {
			slog.Error("search: index listing failed", "listing_id", rec.ID, "error", err)
		}
	}()
}

// Remove deletes a listing from the index (fire-and-forget).
func (s *Service) Remove(id string) {
	if !s.available() {
		return
	}
	go func() {
		if err := s.meili.DeleteListing(id); err != nil {
			slog.Error("search: remove listing failed", "listing_id", id, "error", err)
		}
	}()
}

// Reindex pushes all given listings synchronously.
func (s *Service) Reindex(records []ListingRecord) error {
	if !s.available() || len(records) == 0 {
		return nil
	}
	return s.meili.IndexListings(records)
}

func (s *Service) Close() {
	if s != nil && s.meili != nil {
		s.meili.Close()
	}
}

// Matching is the SQL fallback: a case-insensitive substring match on
// title and description.
func Matching(text string) func(db *gorm.DB) *gorm.DB {
	needle := strings.TrimSpace(strings.ToLower(text))
	return func(db *gorm.DB) *gorm.DB {
		if needle == "" {
			return db
		}
		pattern := "%" + escapeLike(needle) + "%"
		return db.Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", pattern, pattern)
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

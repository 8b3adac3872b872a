package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/campustroc/backend/internal/access"
	"github.com/campustroc/backend/internal/config"
	"github.com/campustroc/backend/internal/lifecycle"
	"github.com/campustroc/backend/internal/models"
	"github.com/campustroc/backend/internal/search"
	"github.com/campustroc/backend/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListingInput carries the editable fields of a listing.
type ListingInput struct {
	Title       string
	Description string
	Type        models.ListingType
	Campus      models.Campus
	Category    models.Category
}

func (in *ListingInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Type = models.ListingType(strings.ToUpper(strings.TrimSpace(string(in.Type))))
	in.Campus = models.Campus(strings.ToUpper(strings.TrimSpace(string(in.Campus))))
	in.Category = models.Category(strings.ToUpper(strings.TrimSpace(string(in.Category))))

	if n := utf8.RuneCountInString(in.Title); n < 3 || n > 120 {
		return invalidf("title must be between 3 and 120 characters")
	}
	if n := utf8.RuneCountInString(in.Description); n < 10 || n > 5000 {
		return invalidf("description must be between 10 and 5000 characters")
	}
	if !in.Type.Valid() {
		return invalidf("type must be DONATION or EXCHANGE")
	}
	if !in.Campus.Valid() {
		return invalidf("unknown campus %q", in.Campus)
	}
	if !in.Category.Valid() {
		return invalidf("unknown category %q", in.Category)
	}
	return nil
}

// ListingFilter narrows the public catalogue.
type ListingFilter struct {
	Campus   string
	Category string
	Type     string
	Query    string
	Page     Page
}

type ListingService struct {
	db       *gorm.DB
	store    storage.Store
	index    *search.Service
	ttl      time.Duration
	maxImage int64
	now      func() time.Time
}

func NewListingService(db *gorm.DB, store storage.Store, index *search.Service, cfg *config.Config) *ListingService {
	return &ListingService{
		db:       db,
		store:    store,
		index:    index,
		ttl:      cfg.ListingTTL,
		maxImage: cfg.MaxImageBytes,
		now:      utcNow,
	}
}

// Create stores the image and inserts the listing in PENDING_REVIEW.
func (s *ListingService) Create(ctx context.Context, actor *access.Actor, in ListingInput, image *multipart.FileHeader) (*models.Listing, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	upload, err := s.storeImage(ctx, image)
	if err != nil {
		return nil, err
	}

	expires := s.now().Add(s.ttl)
	listing := &models.Listing{
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		Campus:      in.Campus,
		Category:    in.Category,
		OwnerID:     actor.UserID,
		ExpiresAt:   &expires,
		Images:      []models.ListingImage{s.imageRecord(upload)},
	}
	lifecycle.Submit().Apply(listing)

	if err := s.db.WithContext(ctx).Create(listing).Error; err != nil {
		s.discard(ctx, upload.Key)
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	slog.Info("listing created", "listing_id", listing.ID.String(), "user_id", actor.UserID.String(), "campus", listing.Campus)
	return listing, nil
}

// Get returns a listing if actor may see it.
func (s *ListingService) Get(ctx context.Context, actor *access.Actor, id uuid.UUID) (*models.Listing, error) {
	listing, err := findListing(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !access.CanView(actor, access.SubjectOf(listing)) {
		return nil, ErrForbidden
	}
	return listing, nil
}

// Edit rewrites the listing and sends it back to review. image is optional
// and replaces the current pictures when given.
func (s *ListingService) Edit(ctx context.Context, actor *access.Actor, id uuid.UUID, in ListingInput, image *multipart.FileHeader) (*models.Listing, error) {
	listing, err := findListing(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !access.CanEdit(actor, access.SubjectOf(listing)) {
		return nil, ErrForbidden
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	outcome, err := lifecycle.Edit(lifecycle.SnapshotOf(listing))
	if err != nil {
		return nil, err
	}

	var upload *storage.Upload
	if image != nil {
		if upload, err = s.storeImage(ctx, image); err != nil {
			return nil, err
		}
	}

	listing.Title = in.Title
	listing.Description = in.Description
	listing.Type = in.Type
	listing.Campus = in.Campus
	listing.Category = in.Category
	outcome.Apply(listing)
	if outcome.To != models.StatePublished {
		listing.ValidatedAt = nil
		listing.ValidatedBy = nil
	}

	replaced := listing.Images
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Listing{}).
			Where("id = ? AND state = ?", listing.ID, outcome.From).
			Updates(map[string]interface{}{
				"title":          listing.Title,
				"description":    listing.Description,
				"type":           listing.Type,
				"campus":         listing.Campus,
				"category":       listing.Category,
				"state":          listing.State,
				"refusal_reason": listing.RefusalReason,
				"validated_at":   listing.ValidatedAt,
				"validated_by":   listing.ValidatedBy,
			})
		if result.Error != nil {
			return fmt.Errorf("update listing: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: listing changed concurrently", ErrInvalidTransition)
		}
		if upload != nil {
			if err := tx.Where("listing_id = ?", listing.ID).Delete(&models.ListingImage{}).Error; err != nil {
				return fmt.Errorf("drop images: %w", err)
			}
			img := s.imageRecord(upload)
			img.ListingID = listing.ID
			if err := tx.Create(&img).Error; err != nil {
				return fmt.Errorf("attach image: %w", err)
			}
			listing.Images = []models.ListingImage{img}
		}
		return applyEffects(tx, outcome.Effects)
	})
	if err != nil {
		if upload != nil {
			s.discard(ctx, upload.Key)
		}
		return nil, err
	}

	if upload != nil {
		for _, img := range replaced {
			s.discard(ctx, img.StorageKey)
		}
	}
	syncIndex(s.index, listing, outcome.Effects)

	slog.Info("listing edited", "listing_id", listing.ID.String(), "from", outcome.From, "to", outcome.To)
	return listing, nil
}

// Complete marks a published listing as done.
func (s *ListingService) Complete(ctx context.Context, actor *access.Actor, id uuid.UUID) (*models.Listing, error) {
	listing, err := findListing(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !access.CanComplete(actor, access.SubjectOf(listing)) {
		return nil, ErrForbidden
	}
	outcome, err := lifecycle.Complete(lifecycle.SnapshotOf(listing))
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, listing, outcome, nil); err != nil {
		return nil, err
	}
	return listing, nil
}

// commit writes the state change of outcome with extra column updates and
// applies its effects in one transaction. The update is guarded on the
// previous state so a concurrent transition makes it fail.
func (s *ListingService) commit(ctx context.Context, listing *models.Listing, outcome lifecycle.Outcome, extra map[string]interface{}) error {
	return commitTransition(ctx, s.db, s.index, listing, outcome, extra)
}

func commitTransition(ctx context.Context, db *gorm.DB, index *search.Service, listing *models.Listing, outcome lifecycle.Outcome, extra map[string]interface{}) error {
	updates := map[string]interface{}{
		"state":          outcome.To,
		"refusal_reason": outcome.RefusalReason,
	}
	for k, v := range extra {
		updates[k] = v
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Listing{}).
			Where("id = ? AND state = ?", listing.ID, outcome.From).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("update listing state: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: listing changed concurrently", ErrInvalidTransition)
		}
		return applyEffects(tx, outcome.Effects)
	})
	if err != nil {
		return err
	}

	outcome.Apply(listing)
	syncIndex(index, listing, outcome.Effects)
	slog.Info("listing transition", "listing_id", listing.ID.String(), "from", outcome.From, "to", outcome.To)
	return nil
}

// Delete removes a listing with its images, favorites, reports and
// conversations. Stored image objects are removed after commit.
func (s *ListingService) Delete(ctx context.Context, actor *access.Actor, id uuid.UUID) error {
	listing, err := findListing(s.db.WithContext(ctx), id)
	if err != nil {
		return err
	}
	if !access.CanDelete(actor, access.SubjectOf(listing)) {
		return ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conversationIDs []uuid.UUID
		if err := tx.Model(&models.Conversation{}).Where("listing_id = ?", id).Pluck("id", &conversationIDs).Error; err != nil {
			return err
		}
		if len(conversationIDs) > 0 {
			if err := tx.Where("conversation_id IN ?", conversationIDs).Delete(&models.Message{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Notification{}).Where("conversation_id IN ?", conversationIDs).Update("conversation_id", nil).Error; err != nil {
				return err
			}
		}
		steps := []interface{}{&models.Conversation{}, &models.Favorite{}, &models.Report{}, &models.ListingImage{}}
		for _, model := range steps {
			if err := tx.Where("listing_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Notification{}).Where("listing_id = ?", id).Update("listing_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Listing{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	for _, img := range listing.Images {
		s.discard(ctx, img.StorageKey)
	}
	s.index.Remove(id.String())

	slog.Info("listing deleted", "listing_id", id.String(), "user_id", actor.UserID.String())
	return nil
}

// ListPublished serves the public catalogue, newest first. A text query
// goes to the search engine when available and to SQL otherwise.
func (s *ListingService) ListPublished(ctx context.Context, f ListingFilter) ([]models.Listing, int64, error) {
	campus := models.Campus(strings.ToUpper(f.Campus))
	category := models.Category(strings.ToUpper(f.Category))
	typ := models.ListingType(strings.ToUpper(f.Type))
	if campus != "" && !campus.Valid() {
		return nil, 0, invalidf("unknown campus %q", f.Campus)
	}
	if category != "" && !category.Valid() {
		return nil, 0, invalidf("unknown category %q", f.Category)
	}
	if typ != "" && !typ.Valid() {
		return nil, 0, invalidf("type must be DONATION or EXCHANGE")
	}

	if strings.TrimSpace(f.Query) != "" {
		ids, total, ok := s.index.Search(search.Query{
			Text:     f.Query,
			Campus:   string(campus),
			Category: string(category),
			Type:     string(typ),
			Limit:    f.Page.Limit,
			Offset:   f.Page.Offset(),
		})
		if ok {
			listings, err := s.publishedByIDs(ctx, ids)
			return listings, int64(total), err
		}
	}

	base := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Listing{}).
			Where("state = ?", models.StatePublished).
			Scopes(search.Matching(f.Query))
		if campus != "" {
			q = q.Where("campus = ?", campus)
		}
		if category != "" {
			q = q.Where("category = ?", category)
		}
		if typ != "" {
			q = q.Where("type = ?", typ)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var listings []models.Listing
	err := base().Preload("Images", orderedImages).
		Order("created_at DESC").
		Limit(f.Page.Limit).Offset(f.Page.Offset()).
		Find(&listings).Error
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// publishedByIDs loads listings keeping the order of ids. Ids that are no
// longer published are skipped.
func (s *ListingService) publishedByIDs(ctx context.Context, ids []string) ([]models.Listing, error) {
	if len(ids) == 0 {
		return []models.Listing{}, nil
	}
	var found []models.Listing
	err := s.db.WithContext(ctx).Preload("Images", orderedImages).
		Where("id IN ? AND state = ?", ids, models.StatePublished).
		Find(&found).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Listing, len(found))
	for _, l := range found {
		byID[l.ID.String()] = l
	}
	out := make([]models.Listing, 0, len(found))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

// ListMine returns every listing of the actor, any state.
func (s *ListingService) ListMine(ctx context.Context, actor *access.Actor, state string) ([]models.Listing, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	q := s.db.WithContext(ctx).Preload("Images", orderedImages).Where("owner_id = ?", actor.UserID)
	if state != "" {
		q = q.Where("state = ?", strings.ToUpper(state))
	}
	var listings []models.Listing
	if err := q.Order("created_at DESC").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// ToggleFavorite adds the listing to the actor's favorites or removes it
// if already there. It reports the resulting membership.
func (s *ListingService) ToggleFavorite(ctx context.Context, actor *access.Actor, id uuid.UUID) (bool, error) {
	if actor == nil {
		return false, ErrUnauthenticated
	}
	listing, err := findListing(s.db.WithContext(ctx), id)
	if err != nil {
		return false, err
	}

	var favorited bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND listing_id = ?", actor.UserID, id).Delete(&models.Favorite{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			favorited = false
			return nil
		}
		if listing.State != models.StatePublished {
			return ErrNotPublished
		}
		favorited = true
		return tx.Create(&models.Favorite{UserID: actor.UserID, ListingID: id}).Error
	})
	if err != nil {
		return false, err
	}
	return favorited, nil
}

// ListFavorites returns the actor's favorite listings that are still public.
func (s *ListingService) ListFavorites(ctx context.Context, actor *access.Actor) ([]models.Listing, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	var listings []models.Listing
	err := s.db.WithContext(ctx).
		Select("listings.*").
		Joins("JOIN favorites ON favorites.listing_id = listings.id").
		Where("favorites.user_id = ? AND listings.state IN ?", actor.UserID,
			[]models.ListingState{models.StatePublished, models.StateCompleted}).
		Order("favorites.created_at DESC").
		Preload("Images", orderedImages).
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// IsFavorite reports whether the listing is in the actor's favorites.
func (s *ListingService) IsFavorite(ctx context.Context, actor *access.Actor, id uuid.UUID) (bool, error) {
	if actor == nil {
		return false, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND listing_id = ?", actor.UserID, id).Count(&n).Error
	return n > 0, err
}

// Reindex pushes every published listing to the search engine.
func (s *ListingService) Reindex(ctx context.Context) (int, error) {
	var listings []models.Listing
	if err := s.db.WithContext(ctx).Where("state = ?", models.StatePublished).Find(&listings).Error; err != nil {
		return 0, err
	}
	records := make([]search.ListingRecord, len(listings))
	for i := range listings {
		records[i] = search.RecordOf(&listings[i])
	}
	return len(records), s.index.Reindex(records)
}

func (s *ListingService) storeImage(ctx context.Context, fh *multipart.FileHeader) (*storage.Upload, error) {
	upload, err := storage.Inspect(fh, s.maxImage)
	if err != nil {
		if errors.Is(err, storage.ErrImageRequired) || errors.Is(err, storage.ErrImageTooLarge) || errors.Is(err, storage.ErrImageType) {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return nil, err
	}
	if err := storage.Save(ctx, s.store, upload); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}
	return upload, nil
}

func (s *ListingService) imageRecord(u *storage.Upload) models.ListingImage {
	return models.ListingImage{
		StorageKey:  u.Key,
		URL:         s.store.URL(u.Key),
		ContentType: u.ContentType,
		Size:        u.Size,
	}
}

func (s *ListingService) discard(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		slog.Warn("failed to remove stored image", "key", key, "error", err)
	}
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func findListing(db *gorm.DB, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := db.Preload("Images", orderedImages).First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}

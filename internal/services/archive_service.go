package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campustroc/backend/internal/lifecycle"
	"github.com/campustroc/backend/internal/models"
	"github.com/campustroc/backend/internal/search"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ArchiveOptions struct {
	DryRun bool
	// Limit caps the number of listings handled; 0 means no limit.
	Limit int
}

type ArchiveResult struct {
	Matched  int         `json:"matched"`
	Archived int         `json:"archived"`
	IDs      []uuid.UUID `json:"ids"`
}

// ArchiveService moves expired listings to ARCHIVED.
type ArchiveService struct {
	db    *gorm.DB
	index *search.Service
	now   func() time.Time
}

func NewArchiveService(db *gorm.DB, index *search.Service) *ArchiveService {
	return &ArchiveService{db: db, index: index, now: utcNow}
}

// ArchiveExpired archives every non-archived listing whose expiry date is
// at or before now, oldest expiry first. With DryRun nothing is written and
// Archived stays 0.
func (s *ArchiveService) ArchiveExpired(ctx context.Context, opts ArchiveOptions) (*ArchiveResult, error) {
	now := s.now()

	q := s.db.WithContext(ctx).
		Where("state <> ? AND expires_at IS NOT NULL AND expires_at <= ?", models.StateArchived, now).
		Order("expires_at ASC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	var candidates []models.Listing
	if err := q.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("select expired listings: %w", err)
	}

	result := &ArchiveResult{Matched: len(candidates), IDs: make([]uuid.UUID, 0, len(candidates))}
	if opts.DryRun || len(candidates) == 0 {
		for _, l := range candidates {
			result.IDs = append(result.IDs, l.ID)
		}
		return result, nil
	}

	var archived []lifecycle.Outcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range candidates {
			outcome, err := lifecycle.Expire(lifecycle.SnapshotOf(&candidates[i]), now)
			if err != nil {
				return err
			}
			res := tx.Model(&models.Listing{}).
				Where("id = ? AND state = ?", candidates[i].ID, outcome.From).
				Updates(map[string]interface{}{"state": outcome.To, "refusal_reason": outcome.RefusalReason})
			if res.Error != nil {
				return fmt.Errorf("archive listing %s: %w", candidates[i].ID, res.Error)
			}
			if res.RowsAffected == 0 {
				continue
			}
			if err := applyEffects(tx, outcome.Effects); err != nil {
				return err
			}
			outcome.Apply(&candidates[i])
			archived = append(archived, outcome)
			result.IDs = append(result.IDs, candidates[i].ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, id := range result.IDs {
		syncIndex(s.index, &models.Listing{ID: id}, archived[i].Effects)
	}
	result.Archived = len(result.IDs)
	return result, nil
}

// StartArchiver runs ArchiveExpired every interval until done is closed.
func (s *ArchiveService) StartArchiver(interval time.Duration, done <-chan struct{}) {
	if interval <= 0 {
		slog.Info("archiver disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				res, err := s.ArchiveExpired(context.Background(), ArchiveOptions{})
				if err != nil {
					slog.Error("archive sweep failed", "error", err)
				} else if res.Archived > 0 {
					slog.Info("archive sweep completed", "matched", res.Matched, "archived", res.Archived)
				}
			case <-done:
				return
			}
		}
	}()
}

package services

import (
	"fmt"

	"github.com/campustroc/backend/internal/lifecycle"
	"github.com/campustroc/backend/internal/models"
	"github.com/campustroc/backend/internal/search"
	"gorm.io/gorm"
)

// applyEffects performs the storage side of a transition inside tx.
func applyEffects(tx *gorm.DB, effects []lifecycle.Effect) error {
	for _, e := range effects {
		switch e.Kind {
		case lifecycle.EffectNotify:
			listingID := e.ListingID
			if err := notify(tx, models.Notification{
				RecipientID: e.Recipient,
				Type:        e.NotificationType,
				Message:     e.Message,
				ListingID:   &listingID,
			}); err != nil {
				return err
			}
		case lifecycle.EffectClearFavorites:
			if err := tx.Where("listing_id = ?", e.ListingID).Delete(&models.Favorite{}).Error; err != nil {
				return fmt.Errorf("clear favorites: %w", err)
			}
		}
	}
	return nil
}

// syncIndex mirrors a committed transition into the search index.
func syncIndex(idx *search.Service, l *models.Listing, effects []lifecycle.Effect) {
	for _, e := range effects {
		switch e.Kind {
		case lifecycle.EffectIndex:
			idx.Index(search.RecordOf(l))
		case lifecycle.EffectUnindex:
			idx.Remove(e.ListingID.String())
		}
	}
}

func notify(tx *gorm.DB, n models.Notification) error {
	if err := tx.Create(&n).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

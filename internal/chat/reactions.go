package chat

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"rosterhub/backend/internal/metrics"
	"rosterhub/backend/internal/models"
)

// Reactions is the reaction ledger: an idempotent per-message toggle of
// emoji → user-id sets.
type Reactions struct {
	db *gorm.DB
}

// NewReactions creates a Reactions service.
func NewReactions(db *gorm.DB) *Reactions {
	return &Reactions{db: db}
}

// Toggle adds userID under emoji on the message if absent, removes it if
// present, and returns the resulting reaction map. The read-modify-write is
// applied against the latest stored state via a revision check so a
// concurrent reaction from another user is never silently dropped; on a
// conflicting write it retries once against the freshly read state.
func (r *Reactions) Toggle(ctx context.Context, messageID string, userID uint, emoji string) (models.ReactionMap, error) {
	for attempt := 0; attempt < 2; attempt++ {
		var msg models.Message
		err := r.db.WithContext(ctx).First(&msg, "id = ?", messageID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		if err != nil {
			return nil, err
		}

		updated := cloneReactions(msg.Reactions)
		updated.Toggle(emoji, userID)

		res := r.db.WithContext(ctx).Model(&models.Message{}).
			Where("id = ? AND reactions_rev = ?", messageID, msg.ReactionsRev).
			Updates(map[string]interface{}{
				"reactions":     updated,
				"reactions_rev": msg.ReactionsRev + 1,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			metrics.ReactionsToggled.Inc()
			return updated, nil
		}
		// Another writer advanced the revision between our read and
		// write; re-read and try once more.
		metrics.ReactionConflicts.Inc()
	}
	return nil, ErrReactionConflict
}

func cloneReactions(src models.ReactionMap) models.ReactionMap {
	dst := make(models.ReactionMap, len(src))
	for emoji, ids := range src {
		dst[emoji] = append([]uint(nil), ids...)
	}
	return dst
}

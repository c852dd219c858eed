package chat

import (
	"context"
	"time"

	"gorm.io/gorm"

	"rosterhub/backend/internal/models"
)

// Unread computes per-channel unread counts from each member's read cursor
// and advances the cursor. The cursor is monotonic: an update that would
// move it backward is a no-op.
type Unread struct {
	db *gorm.DB
}

// NewUnread creates an Unread counter.
func NewUnread(db *gorm.DB) *Unread {
	return &Unread{db: db}
}

// Count returns the number of non-deleted messages created after the
// member's last_read_at cursor.
func (u *Unread) Count(ctx context.Context, channelID, userID uint) (int64, error) {
	member, err := membership(ctx, u.db, channelID, userID)
	if err != nil {
		return 0, err
	}

	var count int64
	err = u.db.WithContext(ctx).Model(&models.Message{}).
		Where("channel_id = ? AND is_deleted = ? AND created_at > ?",
			channelID, false, member.LastReadAt).
		Count(&count).Error
	return count, err
}

// MarkRead advances the member's read cursor to now. Expected to be called
// when a channel is opened for viewing and when a new message arrives while
// the channel is the active view.
func (u *Unread) MarkRead(ctx context.Context, channelID, userID uint) (time.Time, error) {
	return u.markReadAt(ctx, channelID, userID, time.Now().UTC())
}

func (u *Unread) markReadAt(ctx context.Context, channelID, userID uint, at time.Time) (time.Time, error) {
	member, err := membership(ctx, u.db, channelID, userID)
	if err != nil {
		return time.Time{}, err
	}
	if !at.After(member.LastReadAt) {
		// Backward (or equal) updates are rejected; report the cursor
		// that stands.
		return member.LastReadAt, nil
	}

	err = u.db.WithContext(ctx).Model(&models.ChannelMember{}).
		Where("channel_id = ? AND user_id = ? AND last_read_at < ?", channelID, userID, at).
		Update("last_read_at", at).Error
	if err != nil {
		return time.Time{}, err
	}
	return at, nil
}

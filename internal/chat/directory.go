package chat

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"rosterhub/backend/internal/models"
)

// ChannelEntry is one row of the channel directory: the channel plus the
// caller's standing in it and their unread count.
type ChannelEntry struct {
	Channel     models.Channel
	Role        models.MemberRole
	CanPost     bool
	IsMember    bool
	UnreadCount int64
}

// Directory lists the channels an identity may see, most recently updated
// first. It is read-only; membership rows are written by Memberships.
type Directory struct {
	db *gorm.DB
}

// NewDirectory creates a Directory.
func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// List returns the channels visible to the identity. A channel qualifies if
// the identity already holds a membership (which covers dm/group_dm, whose
// members always hold one), or the channel is team-scoped to a team the
// identity belongs to in its active role. Archived channels are excluded.
// Any data-access failure surfaces as ErrDirectoryUnavailable; the caller
// should retry with backoff and may keep showing the last loaded list.
func (d *Directory) List(ctx context.Context, id Identity) ([]ChannelEntry, error) {
	db := d.db.WithContext(ctx)

	query := db.Model(&models.Channel{}).
		Where("channels.archived = ?", false).
		Where(
			db.Where("channels.id IN (?)",
				db.Model(&models.ChannelMember{}).
					Select("channel_id").
					Where("user_id = ?", id.UserID),
			).Or(
				"channels.type IN ? AND channels.season_id = ? AND channels.team_id IN ?",
				[]models.ChannelType{models.ChannelTeamChat, models.ChannelPlayerChat},
				id.SeasonID,
				teamIDsOrNone(id.TeamIDs),
			),
		).
		Order("channels.updated_at DESC")

	var channels []models.Channel
	if err := query.Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	entries := make([]ChannelEntry, 0, len(channels))
	for _, ch := range channels {
		entry := ChannelEntry{Channel: ch}
		member, err := membership(ctx, db, ch.ID, id.UserID)
		switch err {
		case nil:
			entry.IsMember = true
			entry.Role = member.Role
			entry.CanPost = member.CanPost

			var unread int64
			err = db.Model(&models.Message{}).
				Where("channel_id = ? AND is_deleted = ? AND created_at > ?",
					ch.ID, false, member.LastReadAt).
				Count(&unread).Error
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
			}
			entry.UnreadCount = unread
		case ErrNotAMember:
			// Team-scoped channel the identity can see without a
			// membership row yet (e.g., a coach on a player chat).
		default:
			return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// teamIDsOrNone keeps the IN clause valid for identities with no teams.
func teamIDsOrNone(ids []uint) []uint {
	if len(ids) == 0 {
		return []uint{0}
	}
	return ids
}

package chat

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"rosterhub/backend/internal/models"
)

// CanRead reports whether the identity may read the channel's messages: the
// reader holds a membership, or the channel is a player chat and the reader
// is a coach (player chats are coach-post/parent-view, and coaches of the
// team read along without an explicit membership row).
func CanRead(ctx context.Context, db *gorm.DB, channelID uint, id Identity) (bool, error) {
	var member models.ChannelMember
	err := db.WithContext(ctx).
		Where("channel_id = ? AND user_id = ?", channelID, id.UserID).
		First(&member).Error
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if id.Role != models.RoleCoach {
		return false, nil
	}

	var channel models.Channel
	if err := db.WithContext(ctx).First(&channel, channelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrChannelNotFound
		}
		return false, err
	}
	if channel.Type != models.ChannelPlayerChat {
		return false, nil
	}
	return channel.TeamID != nil && id.OnTeam(*channel.TeamID), nil
}

// membership loads the caller's membership row, translating a missing row
// into ErrNotAMember.
func membership(ctx context.Context, db *gorm.DB, channelID, userID uint) (*models.ChannelMember, error) {
	var member models.ChannelMember
	err := db.WithContext(ctx).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotAMember
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

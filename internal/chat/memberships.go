package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"rosterhub/backend/internal/models"
)

// Memberships manages channel and membership provisioning: team channels
// are created lazily on first use, and a membership row is created when a
// user first joins a channel.
type Memberships struct {
	db *gorm.DB
}

// NewMemberships creates a Memberships service.
func NewMemberships(db *gorm.DB) *Memberships {
	return &Memberships{db: db}
}

// EnsureTeamChannel returns the team's channel of the given type, creating
// it if this is the first use.
func (m *Memberships) EnsureTeamChannel(ctx context.Context, seasonID, teamID uint, typ models.ChannelType, name string) (*models.Channel, error) {
	if typ != models.ChannelTeamChat && typ != models.ChannelPlayerChat {
		return nil, fmt.Errorf("channel type %q is not team-scoped", typ)
	}

	channel := models.Channel{
		SeasonID: seasonID,
		TeamID:   &teamID,
		Type:     typ,
		Name:     name,
	}
	err := m.db.WithContext(ctx).
		Where("season_id = ? AND team_id = ? AND type = ?", seasonID, teamID, typ).
		FirstOrCreate(&channel).Error
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

// Join creates the user's membership on the channel if it does not exist
// yet and returns it. Posting rights follow the channel type: on a player
// chat only coaches and channel admins may post, so parents and players get
// can_post=false there. Existing memberships are returned unchanged.
func (m *Memberships) Join(ctx context.Context, channelID uint, user models.User, role models.MemberRole) (*models.ChannelMember, error) {
	var channel models.Channel
	if err := m.db.WithContext(ctx).First(&channel, channelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, err
	}
	if channel.Archived {
		return nil, ErrChannelArchived
	}

	canPost := true
	if channel.Type == models.ChannelPlayerChat {
		canPost = user.Role == models.RoleCoach || role == models.MemberRoleAdmin
	}

	member := models.ChannelMember{
		ChannelID:   channelID,
		UserID:      user.ID,
		DisplayName: user.Nickname,
		Role:        role,
		CanPost:     canPost,
		LastReadAt:  time.Unix(0, 0),
	}
	err := m.db.WithContext(ctx).
		Where("channel_id = ? AND user_id = ?", channelID, user.ID).
		FirstOrCreate(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

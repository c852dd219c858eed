package models

import "gorm.io/gorm"

// ChannelType defines the kind of conversation a channel holds.
type ChannelType string

const (
	// ChannelTeamChat is the open chat for everyone attached to a team.
	ChannelTeamChat ChannelType = "team_chat"

	// ChannelPlayerChat is coach-post/parent-view: coaches post, parents
	// and players read along.
	ChannelPlayerChat ChannelType = "player_chat"

	ChannelDM      ChannelType = "dm"
	ChannelGroupDM ChannelType = "group_dm"
)

// Channel represents a conversation scope. Team-typed channels are created
// lazily on first use; DMs are created when the first message is composed.
// UpdatedAt doubles as the last-activity marker used to rank the directory.
type Channel struct {
	gorm.Model
	SeasonID uint        `gorm:"not null;index"`
	TeamID   *uint       `gorm:"index"` // nil for dm/group_dm
	Type     ChannelType `gorm:"size:50;not null;index"`
	Name     string      `gorm:"size:255;not null"`
	Archived bool        `gorm:"not null;default:false;index"`

	Season Season `gorm:"foreignKey:SeasonID"`
	Team   *Team  `gorm:"foreignKey:TeamID"`
}

package models

import "time"

// MemberRole defines a user's standing within a channel.
type MemberRole string

const (
	MemberRoleMember MemberRole = "member"
	MemberRoleAdmin  MemberRole = "admin"
)

// ChannelMember represents a user's relationship to a channel.
// The primary key is a composite of (ChannelID, UserID) to ensure uniqueness.
// After creation the only field that changes is LastReadAt, and it only ever
// moves forward.
type ChannelMember struct {
	ChannelID   uint       `gorm:"primaryKey"`
	UserID      uint       `gorm:"primaryKey"`
	DisplayName string     `gorm:"size:255;not null"`
	Role        MemberRole `gorm:"type:varchar(20);not null;default:'member'"`
	// No column default: gorm skips zero-valued fields that carry one, which
	// would silently persist read-only memberships as can_post=true. Every
	// creation path sets the flag explicitly.
	CanPost     bool       `gorm:"not null"`
	LastReadAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Channel Channel `gorm:"foreignKey:ChannelID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	User    User    `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

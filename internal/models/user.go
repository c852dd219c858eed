package models

import "gorm.io/gorm"

// UserRole defines what a user is within the league.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleCoach  UserRole = "coach"
	RoleParent UserRole = "parent"
	RolePlayer UserRole = "player"
)

// User represents a user in the system.
type User struct {
	gorm.Model
	Nickname     string   `gorm:"size:255;unique;not null"`
	Email        string   `gorm:"size:255;unique;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:50;not null;default:'player';index"`
	AvatarURL    string   `gorm:"size:512"`

	Teams []*Team `gorm:"many2many:team_members;"`
}

package models

import "gorm.io/gorm"

// Team represents a roster of players within a season.
type Team struct {
	gorm.Model
	SeasonID uint   `gorm:"not null;index"`
	Name     string `gorm:"size:255;not null"`

	Season  Season  `gorm:"foreignKey:SeasonID"`
	Members []*User `gorm:"many2many:team_members;"`
}

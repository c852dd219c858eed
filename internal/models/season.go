package models

import "gorm.io/gorm"

// Season represents a league season (e.g., "Fall 2026").
type Season struct {
	gorm.Model
	Name   string `gorm:"size:100;unique;not null"`
	Active bool   `gorm:"not null;default:false;index"`
}

package models

import "gorm.io/gorm"

// Template represents a message template referenced by workflow steps.
// Generated content is never stored here; steps hold template ids only.
type Template struct {
	gorm.Model
	Name    string  `gorm:"not null" json:"name"`
	Channel Channel `gorm:"not null;index" json:"channel"`
	Subject string  `json:"subject"` // email only
	Body    string  `gorm:"type:text" json:"body"`
	Status  string  `gorm:"default:'active'" json:"status"` // active, archived
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Contact represents a single lead/contact
type Contact struct {
	gorm.Model
	Email     string `gorm:"not null;index" json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Position  string `json:"position"`
	Phone     string `json:"phone"`
	Timezone  string `json:"timezone"`

	// Status
	IsVerified     bool `gorm:"default:false" json:"is_verified"`
	IsUnsubscribed bool `gorm:"default:false" json:"is_unsubscribed"`
	IsDoNotContact bool `gorm:"default:false" json:"is_do_not_contact"`

	// Metadata
	Source      string     `json:"source"`
	LastContact *time.Time `json:"last_contact"`

	// Relations
	Tags []ContactTag `gorm:"foreignKey:ContactID" json:"tags,omitempty"`
}

// Reachable reports whether the contact may still be messaged
func (c *Contact) Reachable() bool {
	return !c.IsUnsubscribed && !c.IsDoNotContact
}

// ContactTag represents tags for contacts (normalized)
type ContactTag struct {
	gorm.Model
	ContactID uint   `gorm:"not null;index" json:"contact_id"`
	Tag       string `gorm:"not null;index" json:"tag"`
}

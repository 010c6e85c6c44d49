package models

import (
	"time"

	"gorm.io/gorm"
)

// EnrollmentStatus represents the status of a contact's journey through a workflow
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusPaused    EnrollmentStatus = "paused"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusFailed    EnrollmentStatus = "failed"
	EnrollmentStatusOptedOut  EnrollmentStatus = "opted_out"
)

// IsValid checks if the enrollment status is valid
func (s EnrollmentStatus) IsValid() bool {
	switch s {
	case EnrollmentStatusActive, EnrollmentStatusPaused, EnrollmentStatusCompleted,
		EnrollmentStatusFailed, EnrollmentStatusOptedOut:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status ends the journey
func (s EnrollmentStatus) IsTerminal() bool {
	switch s {
	case EnrollmentStatusCompleted, EnrollmentStatusFailed, EnrollmentStatusOptedOut:
		return true
	default:
		return false
	}
}

// ResponseType represents how a contact engaged with a delivered message
type ResponseType string

const (
	ResponseOpened    ResponseType = "opened"
	ResponseClicked   ResponseType = "clicked"
	ResponseReplied   ResponseType = "replied"
	ResponseShared    ResponseType = "shared"
	ResponseConverted ResponseType = "converted"
)

// IsValid checks if the response type is valid
func (r ResponseType) IsValid() bool {
	switch r {
	case ResponseOpened, ResponseClicked, ResponseReplied, ResponseShared, ResponseConverted:
		return true
	default:
		return false
	}
}

// Advances reports whether this response type moves the enrollment to the
// next step. Opens, shares and conversions record engagement only; a
// conversion does not complete the journey, only sequence exhaustion does.
func (r ResponseType) Advances() bool {
	return r == ResponseClicked || r == ResponseReplied
}

// NextAction is the scheduled action for an enrollment's current step.
// Present iff the enrollment is active and steps remain.
type NextAction struct {
	Channel      Channel    `json:"channel"`
	TemplateID   uint       `json:"template_id"`
	ScheduledAt  time.Time  `json:"scheduled_at"`
	MessageID    string     `json:"message_id,omitempty"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
}

// LeadResponse is an append-only record of a contact's engagement at a step
type LeadResponse struct {
	Step         int          `json:"step"`
	Channel      Channel      `json:"channel"`
	ResponseType ResponseType `json:"response_type"`
	Content      string       `json:"content,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
	LeadScore    *int         `json:"lead_score,omitempty"`
}

// LeadEnrollment tracks one contact's progress through one workflow.
// A contact has at most one non-terminal enrollment per workflow.
type LeadEnrollment struct {
	gorm.Model
	WorkflowID uint `gorm:"not null;index" json:"workflow_id"`
	ContactID  uint `gorm:"not null;index" json:"contact_id"`

	CurrentStep  int              `gorm:"default:0" json:"current_step"` // monotone, never exceeds len(sequence)
	Status       EnrollmentStatus `gorm:"default:'active';index" json:"status"`
	StartedAt    time.Time        `json:"started_at"`
	LastActivity time.Time        `json:"last_activity"`

	NextAction *NextAction       `gorm:"type:jsonb;serializer:json" json:"next_action,omitempty"`
	Responses  []LeadResponse    `gorm:"type:jsonb;serializer:json" json:"responses"`
	Metadata   map[string]string `gorm:"type:jsonb;serializer:json" json:"metadata,omitempty"`
}

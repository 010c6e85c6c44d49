package models

import (
	"gorm.io/gorm"
)

// WorkflowStatus represents the lifecycle status of a follow-up workflow
type WorkflowStatus string

const (
	WorkflowStatusDraft     WorkflowStatus = "draft"
	WorkflowStatusActive    WorkflowStatus = "active"
	WorkflowStatusPaused    WorkflowStatus = "paused"
	WorkflowStatusCompleted WorkflowStatus = "completed"
)

// IsValid checks if the workflow status is valid
func (s WorkflowStatus) IsValid() bool {
	switch s {
	case WorkflowStatusDraft, WorkflowStatusActive, WorkflowStatusPaused, WorkflowStatusCompleted:
		return true
	default:
		return false
	}
}

// Channel represents a communication channel used by follow-up steps
type Channel string

const (
	ChannelEmail     Channel = "email"
	ChannelSMS       Channel = "sms"
	ChannelInstagram Channel = "instagram"
	ChannelLinkedIn  Channel = "linkedin"
	ChannelFacebook  Channel = "facebook"
	ChannelTwitter   Channel = "twitter"
	ChannelWhatsApp  Channel = "whatsapp"
	ChannelTikTok    Channel = "tiktok"
)

// IsValid checks if the channel is a supported channel kind
func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelInstagram, ChannelLinkedIn,
		ChannelFacebook, ChannelTwitter, ChannelWhatsApp, ChannelTikTok:
		return true
	default:
		return false
	}
}

// IsSocial reports whether the channel is a social platform
func (c Channel) IsSocial() bool {
	switch c {
	case ChannelInstagram, ChannelLinkedIn, ChannelFacebook,
		ChannelTwitter, ChannelWhatsApp, ChannelTikTok:
		return true
	default:
		return false
	}
}

// TriggerKind represents the event kind that enrolls a contact into a workflow
type TriggerKind string

const (
	TriggerNewLead         TriggerKind = "new_lead"
	TriggerFormSubmission  TriggerKind = "form_submission"
	TriggerEmailOpen       TriggerKind = "email_open"
	TriggerEmailClick      TriggerKind = "email_click"
	TriggerPageVisit       TriggerKind = "page_visit"
	TriggerTagAdded        TriggerKind = "tag_added"
	TriggerPurchase        TriggerKind = "purchase"
	TriggerWebinarSignup   TriggerKind = "webinar_signup"
	TriggerCartAbandonment TriggerKind = "cart_abandonment"
)

// IsValid checks if the trigger kind is valid
func (t TriggerKind) IsValid() bool {
	switch t {
	case TriggerNewLead, TriggerFormSubmission, TriggerEmailOpen, TriggerEmailClick,
		TriggerPageVisit, TriggerTagAdded, TriggerPurchase, TriggerWebinarSignup,
		TriggerCartAbandonment:
		return true
	default:
		return false
	}
}

// LearningMode controls how aggressively channel scoring leans on learned preferences
type LearningMode string

const (
	LearningConservative LearningMode = "conservative"
	LearningBalanced     LearningMode = "balanced"
	LearningAggressive   LearningMode = "aggressive"
)

// IsValid checks if the learning mode is valid
func (m LearningMode) IsValid() bool {
	switch m {
	case LearningConservative, LearningBalanced, LearningAggressive:
		return true
	default:
		return false
	}
}

// Operator represents a condition comparison operator
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "not_contains"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorIn          Operator = "in"
	OperatorExists      Operator = "exists"
)

// IsValid checks if the operator is valid
func (o Operator) IsValid() bool {
	switch o {
	case OperatorEquals, OperatorNotEquals, OperatorContains, OperatorNotContains,
		OperatorGreaterThan, OperatorLessThan, OperatorIn, OperatorExists:
		return true
	default:
		return false
	}
}

// ConditionValue is the comparison operand of a condition. Exactly one field is
// set depending on the operator: Text for string comparisons, Number for
// numeric ones, List for membership checks.
type ConditionValue struct {
	Text   string   `json:"text,omitempty"`
	Number *float64 `json:"number,omitempty"`
	List   []string `json:"list,omitempty"`
}

// Condition is a single (field, operator, value) predicate. A condition list
// uses AND semantics: all must hold.
type Condition struct {
	Field    string         `json:"field"`
	Operator Operator       `json:"operator"`
	Value    ConditionValue `json:"value"`
}

// StepBranch is an alternative channel/template for a step, taken when its
// condition holds for the enrolled contact
type StepBranch struct {
	Condition  Condition `json:"condition"`
	Channel    Channel   `json:"channel"`
	TemplateID uint      `json:"template_id"`
}

// SequenceStep represents a single step in a workflow sequence
type SequenceStep struct {
	StepNumber   int          `json:"step_number"` // 1-based, contiguous
	Channel      Channel      `json:"channel"`
	TemplateID   uint         `json:"template_id"`
	DelayMinutes int          `json:"delay_minutes"`
	Conditions   []Condition  `json:"conditions,omitempty"`
	Branches     []StepBranch `json:"branches,omitempty"`
}

// Segmentation describes the target audience of a workflow. Informational
// only, the orchestrator does not enforce it.
type Segmentation struct {
	AudienceID   string      `json:"audience_id,omitempty"`
	ExpectedSize int         `json:"expected_size,omitempty"`
	Filters      []Condition `json:"filters,omitempty"`
}

// TimingPolicy controls when workflow messages may be sent
type TimingPolicy struct {
	Timezone               string   `json:"timezone,omitempty"`
	SendTimes              []string `json:"send_times,omitempty"` // "15:04" times of day
	AvoidDays              []string `json:"avoid_days,omitempty"` // lowercase weekday names
	RespectContactTimezone bool     `json:"respect_contact_timezone"`
}

// AISettings controls which parts of a workflow are auto-optimized
type AISettings struct {
	OptimizeChannel bool         `json:"optimize_channel"`
	OptimizeTiming  bool         `json:"optimize_timing"`
	OptimizeContent bool         `json:"optimize_content"`
	LearningMode    LearningMode `json:"learning_mode,omitempty"`
}

// Workflow represents a declarative multi-step, multi-channel follow-up sequence
type Workflow struct {
	gorm.Model
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	Status      WorkflowStatus `gorm:"default:'draft';index" json:"status"`
	Trigger     TriggerKind    `gorm:"not null" json:"trigger"`

	// Structured fields stored as JSON
	Conditions     []Condition    `gorm:"type:jsonb;serializer:json" json:"conditions"`
	Channels       []Channel      `gorm:"type:jsonb;serializer:json" json:"channels"`
	Sequence       []SequenceStep `gorm:"type:jsonb;serializer:json" json:"sequence"`
	Segmentation   Segmentation   `gorm:"type:jsonb;serializer:json" json:"segmentation"`
	Timing         TimingPolicy   `gorm:"type:jsonb;serializer:json" json:"timing"`
	AIOptimization AISettings     `gorm:"type:jsonb;serializer:json" json:"ai_optimization"`
}

// HasChannel reports whether the channel is in the workflow's allowed set
func (w *Workflow) HasChannel(c Channel) bool {
	for _, ch := range w.Channels {
		if ch == c {
			return true
		}
	}
	return false
}

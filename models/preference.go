package models

import "gorm.io/gorm"

// PreferenceTier represents how strongly a contact favors a channel
type PreferenceTier string

const (
	PreferenceHigh   PreferenceTier = "high"
	PreferenceMedium PreferenceTier = "medium"
	PreferenceLow    PreferenceTier = "low"
	PreferenceNone   PreferenceTier = "none"
)

// IsValid checks if the preference tier is valid
func (p PreferenceTier) IsValid() bool {
	switch p {
	case PreferenceHigh, PreferenceMedium, PreferenceLow, PreferenceNone:
		return true
	default:
		return false
	}
}

// ChannelStats holds learned engagement statistics for one channel
type ChannelStats struct {
	Preference       PreferenceTier `json:"preference"`
	BestTimes        []string       `json:"best_times,omitempty"` // "15:04" times of day, ordered
	AvgResponseHours float64        `json:"avg_response_hours"`
	EngagementRate   float64        `json:"engagement_rate"` // 0..1 moving average
	Samples          int            `json:"samples"`
}

// ChannelPreference holds per-channel engagement statistics for a contact.
// Created lazily on the first recorded engagement, shared across workflows,
// and updated incrementally, never replaced.
type ChannelPreference struct {
	gorm.Model
	ContactID uint                     `gorm:"not null;uniqueIndex" json:"contact_id"`
	Channels  map[Channel]ChannelStats `gorm:"type:jsonb;serializer:json" json:"channels"`
}

// Stats returns the stats for a channel, if any have been recorded
func (p *ChannelPreference) Stats(c Channel) (ChannelStats, bool) {
	if p == nil || p.Channels == nil {
		return ChannelStats{}, false
	}
	s, ok := p.Channels[c]
	return s, ok
}

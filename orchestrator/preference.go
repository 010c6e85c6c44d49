package orchestrator

import (
	"fmt"
	"sort"
	"time"

	"leadflow/models"
)

// responseSignals maps a response type to the engagement value folded into
// the channel's moving average
var responseSignals = map[models.ResponseType]float64{
	models.ResponseOpened:    0.4,
	models.ResponseClicked:   0.7,
	models.ResponseReplied:   0.9,
	models.ResponseShared:    0.8,
	models.ResponseConverted: 1.0,
}

const maxBestTimes = 3

// recordEngagement folds a response into the contact's channel preference,
// creating it lazily on first engagement. The moving-average update merges
// additively, so two workflows recording for the same contact at nearly the
// same time both contribute signal instead of overwriting each other.
func (s *Service) recordEngagement(contactID uint, channel models.Channel,
	rt models.ResponseType, scheduledAt *time.Time) error {

	pref, err := s.prefs.Get(contactID)
	if err != nil {
		return err
	}
	if pref == nil {
		pref = &models.ChannelPreference{ContactID: contactID}
	}
	if pref.Channels == nil {
		pref.Channels = make(map[models.Channel]models.ChannelStats)
	}

	now := s.now()
	stats := pref.Channels[channel]
	applyResponse(&stats, rt, now, scheduledAt)
	pref.Channels[channel] = stats

	return s.prefs.Save(pref)
}

// applyResponse nudges one channel's stats with a single engagement signal
func applyResponse(stats *models.ChannelStats, rt models.ResponseType, at time.Time, scheduledAt *time.Time) {
	signal := responseSignals[rt]
	n := float64(stats.Samples)
	stats.EngagementRate = (stats.EngagementRate*n + signal) / (n + 1)

	if scheduledAt != nil && at.After(*scheduledAt) {
		hours := at.Sub(*scheduledAt).Hours()
		stats.AvgResponseHours = (stats.AvgResponseHours*n + hours) / (n + 1)
	}

	stats.Samples++
	recordBestTime(stats, at)

	// "none" is an explicit operator opt-down and is never overridden by
	// recorded engagement
	if stats.Preference != models.PreferenceNone {
		stats.Preference = tierForRate(stats.EngagementRate)
	}
}

func tierForRate(rate float64) models.PreferenceTier {
	switch {
	case rate >= 0.6:
		return models.PreferenceHigh
	case rate >= 0.25:
		return models.PreferenceMedium
	default:
		return models.PreferenceLow
	}
}

// recordBestTime tracks the hour buckets a contact tends to respond in,
// keeping the few most recent distinct hours sorted by time of day
func recordBestTime(stats *models.ChannelStats, at time.Time) {
	bucket := fmt.Sprintf("%02d:00", at.Hour())
	for _, t := range stats.BestTimes {
		if t == bucket {
			return
		}
	}
	stats.BestTimes = append(stats.BestTimes, bucket)
	if len(stats.BestTimes) > maxBestTimes {
		stats.BestTimes = stats.BestTimes[len(stats.BestTimes)-maxBestTimes:]
	}
	sort.Strings(stats.BestTimes)
}

// GetChannelPreference returns the contact's learned preferences, or nil when
// nothing has been recorded yet
func (s *Service) GetChannelPreference(contactID uint) (*models.ChannelPreference, error) {
	return s.prefs.Get(contactID)
}

package orchestrator

import "leadflow/models"

// preferenceMultipliers is the base scoring table. A channel whose tier is
// "none" scores zero and is effectively never selected unless it is the only
// option left after the fallback rule.
var preferenceMultipliers = map[models.PreferenceTier]float64{
	models.PreferenceHigh:   1.5,
	models.PreferenceMedium: 1.0,
	models.PreferenceLow:    0.5,
	models.PreferenceNone:   0,
}

// multiplierFor scales the base multiplier by learning mode: aggressive
// doubles the distance from 1.0, conservative halves it. "none" stays zero in
// every mode.
func multiplierFor(tier models.PreferenceTier, mode models.LearningMode) float64 {
	base, ok := preferenceMultipliers[tier]
	if !ok {
		base = 1.0
	}
	if base == 0 {
		return 0
	}
	switch mode {
	case models.LearningAggressive:
		return 1 + (base-1)*2
	case models.LearningConservative:
		return 1 + (base-1)*0.5
	default:
		return base
	}
}

// SelectChannel scores the available channels against the contact's learned
// preferences and returns the best one. Pure function: no side effects, and
// ties break by the original ordering of available (stable, first wins).
// With no preference data the fallback is email when available, otherwise the
// first candidate.
func SelectChannel(pref *models.ChannelPreference, available []models.Channel, mode models.LearningMode) models.Channel {
	if len(available) == 0 {
		return ""
	}

	fallback := available[0]
	for _, c := range available {
		if c == models.ChannelEmail {
			fallback = models.ChannelEmail
			break
		}
	}

	best := fallback
	bestScore := 0.0
	for _, c := range available {
		stats, ok := pref.Stats(c)
		if !ok {
			continue
		}
		// strictly-greater keeps the first of equally scored channels
		score := stats.EngagementRate * multiplierFor(stats.Preference, mode)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	return best
}

// SelectChannel picks the best channel for a contact from the available set
// using balanced learning. Read-only.
func (s *Service) SelectChannel(contactID uint, available []models.Channel) (models.Channel, error) {
	pref, err := s.prefs.Get(contactID)
	if err != nil {
		return "", err
	}
	return SelectChannel(pref, available, models.LearningBalanced), nil
}

package orchestrator

import (
	"strconv"
	"strings"
	"time"

	"leadflow/models"
)

// defaultSendTimes is the fallback send-time table used when a contact has no
// recorded best times for a channel
var defaultSendTimes = map[models.Channel][]string{
	models.ChannelEmail:     {"09:00", "14:00", "18:00"},
	models.ChannelSMS:       {"10:00", "15:00", "19:00"},
	models.ChannelWhatsApp:  {"10:00", "15:00", "19:00"},
	models.ChannelInstagram: {"12:00", "17:00", "20:00"},
	models.ChannelFacebook:  {"12:00", "17:00", "20:00"},
	models.ChannelLinkedIn:  {"08:00", "12:00", "17:00"},
	models.ChannelTwitter:   {"08:00", "12:00", "17:00"},
	models.ChannelTikTok:    {"16:00", "19:00", "21:00"},
}

// NextSendTime returns the next time-of-day to send on the channel: the first
// of the contact's recorded best times strictly later than now's hour, or the
// first entry when every candidate is earlier today (next-day send). Falls
// back to the per-channel default table with no preference data. Pure and
// non-blocking.
func NextSendTime(stats *models.ChannelStats, channel models.Channel, now time.Time) string {
	times := defaultSendTimes[channel]
	if len(times) == 0 {
		times = defaultSendTimes[models.ChannelEmail]
	}
	if stats != nil && len(stats.BestTimes) > 0 {
		times = stats.BestTimes
	}

	for _, t := range times {
		if hourOf(t) > now.Hour() {
			return t
		}
	}
	return times[0]
}

// SelectSendTime picks the next best send time-of-day for a contact, channel
// and timezone. Read-only.
func (s *Service) SelectSendTime(contactID uint, channel models.Channel, timezone string) (string, error) {
	pref, err := s.prefs.Get(contactID)
	if err != nil {
		return "", err
	}
	now := s.now().In(locationOrUTC(timezone))

	var stats *models.ChannelStats
	if st, ok := pref.Stats(channel); ok {
		stats = &st
	}
	return NextSendTime(stats, channel, now), nil
}

// alignSendTime shifts a scheduled time forward to the next allowed
// time-of-day under the workflow timing policy, honoring per-contact best
// times, avoid-days, and timezone.
func alignSendTime(base time.Time, policy models.TimingPolicy, stats *models.ChannelStats,
	channel models.Channel, contactTZ string) time.Time {

	tz := policy.Timezone
	if policy.RespectContactTimezone && contactTZ != "" {
		tz = contactTZ
	}
	loc := locationOrUTC(tz)
	local := base.In(loc)

	times := policy.SendTimes
	if stats != nil && len(stats.BestTimes) > 0 {
		times = stats.BestTimes
	}
	if len(times) == 0 {
		times = defaultSendTimes[channel]
	}
	if len(times) == 0 {
		return base
	}

	avoid := make(map[string]bool, len(policy.AvoidDays))
	for _, d := range policy.AvoidDays {
		avoid[strings.ToLower(d)] = true
	}

	day := local
	for i := 0; i < 8; i++ {
		if !avoid[strings.ToLower(day.Weekday().String())] {
			for _, t := range times {
				candidate := time.Date(day.Year(), day.Month(), day.Day(),
					hourOf(t), minuteOf(t), 0, 0, loc)
				if !candidate.Before(local) {
					return candidate
				}
			}
		}
		day = day.AddDate(0, 0, 1)
		day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	}
	return base
}

func locationOrUTC(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

func hourOf(t string) int {
	parts := strings.SplitN(t, ":", 2)
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0
	}
	return h
}

func minuteOf(t string) int {
	parts := strings.SplitN(t, ":", 2)
	if len(parts) < 2 {
		return 0
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0
	}
	return m
}

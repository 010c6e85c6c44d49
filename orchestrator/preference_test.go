package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/models"
)

func TestApplyResponseMovingAverage(t *testing.T) {
	var stats models.ChannelStats
	at := time.Date(2026, 3, 2, 14, 12, 0, 0, time.UTC)

	applyResponse(&stats, models.ResponseOpened, at, nil)
	assert.InDelta(t, 0.4, stats.EngagementRate, 1e-9)
	assert.Equal(t, 1, stats.Samples)
	assert.Equal(t, models.PreferenceMedium, stats.Preference)

	applyResponse(&stats, models.ResponseReplied, at, nil)
	// (0.4 + 0.9) / 2
	assert.InDelta(t, 0.65, stats.EngagementRate, 1e-9)
	assert.Equal(t, 2, stats.Samples)
	assert.Equal(t, models.PreferenceHigh, stats.Preference)
}

func TestApplyResponseTracksResponseHours(t *testing.T) {
	var stats models.ChannelStats
	scheduled := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	responded := scheduled.Add(6 * time.Hour)

	applyResponse(&stats, models.ResponseClicked, responded, &scheduled)
	assert.InDelta(t, 6.0, stats.AvgResponseHours, 1e-9)

	// responses timestamped before the send contribute no response-time signal
	early := scheduled.Add(-time.Hour)
	applyResponse(&stats, models.ResponseClicked, early, &scheduled)
	assert.InDelta(t, 6.0, stats.AvgResponseHours, 1e-9)
	assert.Equal(t, 2, stats.Samples)
}

func TestTierThresholds(t *testing.T) {
	assert.Equal(t, models.PreferenceHigh, tierForRate(0.6))
	assert.Equal(t, models.PreferenceHigh, tierForRate(0.95))
	assert.Equal(t, models.PreferenceMedium, tierForRate(0.25))
	assert.Equal(t, models.PreferenceMedium, tierForRate(0.59))
	assert.Equal(t, models.PreferenceLow, tierForRate(0.24))
	assert.Equal(t, models.PreferenceLow, tierForRate(0))
}

func TestNoneTierNeverOverridden(t *testing.T) {
	stats := models.ChannelStats{Preference: models.PreferenceNone}
	at := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

	applyResponse(&stats, models.ResponseConverted, at, nil)
	applyResponse(&stats, models.ResponseConverted, at, nil)

	assert.Equal(t, models.PreferenceNone, stats.Preference)
	assert.InDelta(t, 1.0, stats.EngagementRate, 1e-9)
}

func TestBestTimesCappedAndSorted(t *testing.T) {
	var stats models.ChannelStats
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	for _, hour := range []int{20, 8, 14, 8, 10} {
		applyResponse(&stats, models.ResponseOpened, day.Add(time.Duration(hour)*time.Hour), nil)
	}

	// the oldest bucket (08:00) was evicted when the fourth distinct hour came in
	require.Len(t, stats.BestTimes, maxBestTimes)
	assert.Equal(t, []string{"10:00", "14:00", "20:00"}, stats.BestTimes)
}

func TestRecordResponseFeedsPreferences(t *testing.T) {
	svc, st := newTestService(t)
	testContact(st, 1)
	w := threeStepWorkflow(t, svc)

	e, err := svc.Enroll(w.ID, 1, nil)
	require.NoError(t, err)

	_, err = svc.RecordResponse(e.ID, models.ResponseOpened, "", nil)
	require.NoError(t, err)
	_, err = svc.RecordResponse(e.ID, models.ResponseClicked, "", nil)
	require.NoError(t, err)

	pref, err := svc.GetChannelPreference(1)
	require.NoError(t, err)
	require.NotNil(t, pref)

	stats, ok := pref.Stats(models.ChannelEmail)
	require.True(t, ok)
	assert.Equal(t, 2, stats.Samples)
	// (0.4 + 0.7) / 2
	assert.InDelta(t, 0.55, stats.EngagementRate, 1e-9)
	assert.Equal(t, models.PreferenceMedium, stats.Preference)
}

func TestPreferencesSharedAcrossWorkflows(t *testing.T) {
	svc, st := newTestService(t)
	testContact(st, 1)
	w1 := threeStepWorkflow(t, svc)
	w2 := threeStepWorkflow(t, svc)

	e1, err := svc.Enroll(w1.ID, 1, nil)
	require.NoError(t, err)
	e2, err := svc.Enroll(w2.ID, 1, nil)
	require.NoError(t, err)

	_, err = svc.RecordResponse(e1.ID, models.ResponseReplied, "", nil)
	require.NoError(t, err)
	_, err = svc.RecordResponse(e2.ID, models.ResponseReplied, "", nil)
	require.NoError(t, err)

	pref, err := svc.GetChannelPreference(1)
	require.NoError(t, err)
	require.NotNil(t, pref)

	// both workflows contributed signal to the same preference record
	stats, ok := pref.Stats(models.ChannelEmail)
	require.True(t, ok)
	assert.Equal(t, 2, stats.Samples)
}

func TestGetChannelPreferenceUnknownContact(t *testing.T) {
	svc, _ := newTestService(t)

	pref, err := svc.GetChannelPreference(404)
	require.NoError(t, err)
	assert.Nil(t, pref)
}

package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/models"
)

func activeEnrollment(workflowID, contactID uint, next *models.NextAction) *models.LeadEnrollment {
	return &models.LeadEnrollment{
		WorkflowID: workflowID,
		ContactID:  contactID,
		Status:     models.EnrollmentStatusActive,
		NextAction: next,
	}
}

func TestMemoryWorkflowsRoundTrip(t *testing.T) {
	st := NewMemoryStore()
	repo := st.Workflows()

	w := &models.Workflow{
		Name:     "Test",
		Status:   models.WorkflowStatusActive,
		Trigger:  models.TriggerNewLead,
		Channels: []models.Channel{models.ChannelEmail},
	}
	require.NoError(t, repo.Create(w))
	require.NotZero(t, w.ID)

	got, err := repo.Get(w.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Test", got.Name)

	// unknown id soft-fails
	got, err = repo.Get(999)
	require.NoError(t, err)
	assert.Nil(t, got)

	// mutating the returned copy does not touch stored state
	got, _ = repo.Get(w.ID)
	got.Name = "mutated"
	again, _ := repo.Get(w.ID)
	assert.Equal(t, "Test", again.Name)
}

func TestMemoryListByTrigger(t *testing.T) {
	st := NewMemoryStore()
	repo := st.Workflows()

	mk := func(trigger models.TriggerKind, status models.WorkflowStatus) {
		require.NoError(t, repo.Create(&models.Workflow{
			Name: "w", Trigger: trigger, Status: status,
			Channels: []models.Channel{models.ChannelEmail},
		}))
	}
	mk(models.TriggerNewLead, models.WorkflowStatusActive)
	mk(models.TriggerNewLead, models.WorkflowStatusDraft)
	mk(models.TriggerPurchase, models.WorkflowStatusActive)

	flows, err := repo.ListByTrigger(models.TriggerNewLead, models.WorkflowStatusActive)
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, models.TriggerNewLead, flows[0].Trigger)
}

func TestMemoryFindActive(t *testing.T) {
	st := NewMemoryStore()
	repo := st.Enrollments()

	e := activeEnrollment(1, 5, nil)
	require.NoError(t, repo.Create(e))

	found, err := repo.FindActive(1, 5)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, e.ID, found.ID)

	// terminal enrollments do not count as active
	e.Status = models.EnrollmentStatusCompleted
	require.NoError(t, repo.Update(e))
	found, err = repo.FindActive(1, 5)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestMemoryFindByMessageID(t *testing.T) {
	st := NewMemoryStore()
	repo := st.Enrollments()

	e := activeEnrollment(1, 5, &models.NextAction{
		Channel:   models.ChannelEmail,
		MessageID: "msg-123",
	})
	require.NoError(t, repo.Create(e))

	found, err := repo.FindByMessageID("msg-123")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, e.ID, found.ID)

	found, err = repo.FindByMessageID("msg-999")
	require.NoError(t, err)
	assert.Nil(t, found)

	// empty message id never matches
	found, err = repo.FindByMessageID("")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestMemoryListDue(t *testing.T) {
	st := NewMemoryStore()
	repo := st.Enrollments()
	now := time.Now()
	dispatched := now.Add(-time.Hour)

	// due
	due := activeEnrollment(1, 1, &models.NextAction{ScheduledAt: now.Add(-10 * time.Minute)})
	require.NoError(t, repo.Create(due))
	// due but later than the first
	dueLater := activeEnrollment(1, 2, &models.NextAction{ScheduledAt: now.Add(-5 * time.Minute)})
	require.NoError(t, repo.Create(dueLater))
	// scheduled in the future
	future := activeEnrollment(1, 3, &models.NextAction{ScheduledAt: now.Add(time.Hour)})
	require.NoError(t, repo.Create(future))
	// already dispatched
	sent := activeEnrollment(1, 4, &models.NextAction{
		ScheduledAt: now.Add(-20 * time.Minute), DispatchedAt: &dispatched,
	})
	require.NoError(t, repo.Create(sent))
	// paused
	paused := activeEnrollment(1, 5, &models.NextAction{ScheduledAt: now.Add(-30 * time.Minute)})
	paused.Status = models.EnrollmentStatusPaused
	require.NoError(t, repo.Create(paused))
	// no pending action
	require.NoError(t, repo.Create(activeEnrollment(1, 6, nil)))

	got, err := repo.ListDue(now, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// ordered by scheduled time, earliest first
	assert.Equal(t, due.ID, got[0].ID)
	assert.Equal(t, dueLater.ID, got[1].ID)

	// limit applies after ordering
	got, err = repo.ListDue(now, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, due.ID, got[0].ID)
}

func TestMemoryDeleteByWorkflow(t *testing.T) {
	st := NewMemoryStore()
	repo := st.Enrollments()

	keep := activeEnrollment(2, 1, nil)
	require.NoError(t, repo.Create(activeEnrollment(1, 1, nil)))
	require.NoError(t, repo.Create(activeEnrollment(1, 2, nil)))
	require.NoError(t, repo.Create(keep))

	require.NoError(t, repo.DeleteByWorkflow(1))

	all, err := repo.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)
}

func TestMemoryPreferences(t *testing.T) {
	st := NewMemoryStore()
	repo := st.Preferences()

	p, err := repo.Get(1)
	require.NoError(t, err)
	assert.Nil(t, p)

	pref := &models.ChannelPreference{
		ContactID: 1,
		Channels: map[models.Channel]models.ChannelStats{
			models.ChannelEmail: {EngagementRate: 0.5, Samples: 2},
		},
	}
	require.NoError(t, repo.Save(pref))
	require.NotZero(t, pref.ID)

	got, err := repo.Get(1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Channels[models.ChannelEmail].Samples)

	// saving again keeps the same record id
	got.Channels[models.ChannelEmail] = models.ChannelStats{EngagementRate: 0.6, Samples: 3}
	require.NoError(t, repo.Save(got))
	again, err := repo.Get(1)
	require.NoError(t, err)
	assert.Equal(t, pref.ID, again.ID)
	assert.Equal(t, 3, again.Channels[models.ChannelEmail].Samples)
}

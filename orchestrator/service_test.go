package orchestrator

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/models"
	"leadflow/store"
)

func newTestService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	svc := NewService(st.Workflows(), st.Enrollments(), st.Preferences(), st.Contacts(),
		log.New(io.Discard, "", 0))
	return svc, st
}

func testContact(st *store.MemoryStore, id uint) *models.Contact {
	c := &models.Contact{
		Email:     "sam@acme.test",
		FirstName: "Sam",
		LastName:  "Rivera",
		Company:   "Acme",
	}
	c.ID = id
	st.Contacts().Put(c)
	return c
}

// threeStepWorkflow builds an active email workflow with three spaced steps
func threeStepWorkflow(t *testing.T, svc *Service) *models.Workflow {
	t.Helper()
	w := &models.Workflow{
		Name:    "Nurture",
		Status:  models.WorkflowStatusActive,
		Trigger: models.TriggerNewLead,
		Channels: []models.Channel{
			models.ChannelEmail,
		},
		Sequence: []models.SequenceStep{
			{StepNumber: 1, Channel: models.ChannelEmail, TemplateID: 11, DelayMinutes: 0},
			{StepNumber: 2, Channel: models.ChannelEmail, TemplateID: 12, DelayMinutes: 2 * 24 * 60},
			{StepNumber: 3, Channel: models.ChannelEmail, TemplateID: 13, DelayMinutes: 4 * 24 * 60},
		},
	}
	require.NoError(t, svc.CreateWorkflow(w))
	return w
}

func TestEnrollCreatesActiveEnrollment(t *testing.T) {
	svc, st := newTestService(t)
	testContact(st, 1)
	w := threeStepWorkflow(t, svc)

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	e, err := svc.Enroll(w.ID, 1, map[string]string{"utm": "spring"})
	require.NoError(t, err)
	require.NotNil(t, e)

	assert.Equal(t, models.EnrollmentStatusActive, e.Status)
	assert.Equal(t, 0, e.CurrentStep)
	assert.Equal(t, now, e.StartedAt)
	require.NotNil(t, e.NextAction)
	assert.Equal(t, models.ChannelEmail, e.NextAction.Channel)
	assert.Equal(t, uint(11), e.NextAction.TemplateID)
	assert.Equal(t, now, e.NextAction.ScheduledAt)
	assert.Equal(t, map[string]string{"utm": "spring"}, e.Metadata)
}

func TestEnrollIsIdempotentWhileActive(t *testing.T) {
	svc, st := newTestService(t)
	testContact(st, 1)
	w := threeStepWorkflow(t, svc)

	first, err := svc.Enroll(w.ID, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.Enroll(w.ID, 1, map[string]string{"ignored": "yes"})
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CurrentStep, second.CurrentStep)
	assert.Nil(t, second.Metadata)

	// a completed enrollment no longer blocks re-enrollment
	_, err = svc.UpdateEnrollmentStatus(first.ID, models.EnrollmentStatusCompleted)
	require.NoError(t, err)

	third, err := svc.Enroll(w.ID, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, third)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestEnrollRequiresActiveWorkflow(t *testing.T) {
	svc, st := newTestService(t)
	testContact(st, 1)

	// unknown workflow
	e, err := svc.Enroll(999, 1, nil)
	require.NoError(t, err)
	assert.Nil(t, e)

	// draft workflow
	w := &models.Workflow{
		Name:     "Draft flow",
		Trigger:  models.TriggerNewLead,
		Channels: []models.Channel{models.ChannelEmail},
	}
	require.NoError(t, svc.CreateWorkflow(w))
	assert.Equal(t, models.WorkflowStatusDraft, w.Status)

	e, err = svc.Enroll(w.ID, 1, nil)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestEnrollEmptySequenceCompletesImmediately(t *testing.T) {
	svc, st := newTestService(t)
	testContact(st, 1)

	w := &models.Workflow{
		Name:     "Empty",
		Status:   models.WorkflowStatusActive,
		Trigger:  models.TriggerNewLead,
		Channels: []models.Channel{models.ChannelEmail},
	}
	require.NoError(t, svc.CreateWorkflow(w))

	e, err := svc.Enroll(w.ID, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, models.EnrollmentStatusCompleted, e.Status)
	assert.Nil(t, e.NextAction)
}

func TestClickedResponseAdvancesSequence(t *testing.T) {
	svc, st := newTestService(t)
	testContact(st, 1)
	w := threeStepWorkflow(t, svc)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	e, err := svc.Enroll(w.ID, 1, nil)
	require.NoError(t, err)

	later := base.Add(3 * time.Hour)
	svc.now = func() time.Time { return later }

	ok, err := svc.RecordResponse(e.ID, models.ResponseClicked, "", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := svc.GetEnrollment(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStep)
	assert.Equal(t, models.EnrollmentStatusActive, got.Status)
	require.Len(t, got.Responses, 1)
	assert.Equal(t, 0, got.Responses[0].Step)
	assert.Equal(t, models.ResponseClicked, got.Responses[0].ResponseType)

	// delay for step 2 is computed from the response time, not the original
	// schedule, so late responses do not compound
	require.NotNil(t, got.NextAction)
	assert.Equal(t, uint(12), got.NextAction.TemplateID)
	assert.Equal(t, later.Add(2*24*time.Hour), got.NextAction.ScheduledAt)
}

func TestOpenedResponseRecordsWithoutAdvancing(t *testing.T) {
	svc, st := newTestService(t)
	testContact(st, 1)
	w := threeStepWorkflow(t, svc)

	e, err := svc.Enroll(w.ID, 1, nil)
	require.NoError(t, err)

	ok, err := svc.RecordResponse(e.ID, models.ResponseOpened, "", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := svc.GetEnrollment(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentStep)
	require.Len(t, got.Responses, 1)
}

func TestConversionDoesNotCompleteEnrollment(t *testing.T) {
	svc, st := newTestService(t)
	testContact(st, 1)
	w := threeStepWorkflow(t, svc)

	e, err := svc.Enroll(w.ID, 1, nil)
	require.NoError(t, err)

	score := 95
	ok, err := svc.RecordResponse(e.ID, models.ResponseConverted, "bought plan", &score)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := svc.GetEnrollment(e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, got.Status)
	assert.Equal(t, 0, got.CurrentStep)
	require.Len(t, got.Responses, 1)
	require.NotNil(t, got.Responses[0].LeadScore)
	assert.Equal(t, 95, *got.Responses[0].LeadScore)
}

func TestSequenceCompletion(t *testing.T) {
	svc, st := newTestService(t)
	testContact(st, 1)
	w := threeStepWorkflow(t, svc)

	e, err := svc.Enroll(w.ID, 1, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		ok, err := svc.AdvanceToNextStep(e.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	got, err := svc.GetEnrollment(e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusCompleted, got.Status)
	assert.Equal(t, 3, got.CurrentStep)
	assert.Nil(t, got.NextAction)

	// past the end there is nothing to advance
	ok, err := svc.AdvanceToNextStep(e.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdvanceUnknownEnrollment(t *testing.T) {
	svc, _ := newTestService(t)

	ok, err := svc.AdvanceToNextStep(42)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.RecordResponse(42, models.ResponseOpened, "", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateEnrollmentStatus(t *testing.T) {
	svc, st := newTestService(t)
	testContact(st, 1)
	w := threeStepWorkflow(t, svc)

	e, err := svc.Enroll(w.ID, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, e.NextAction)

	// pausing keeps the pending action so resume picks up where it left off
	ok, err := svc.UpdateEnrollmentStatus(e.ID, models.EnrollmentStatusPaused)
	require.NoError(t, err)
	assert.True(t, ok)
	got, _ := svc.GetEnrollment(e.ID)
	assert.Equal(t, models.EnrollmentStatusPaused, got.Status)
	assert.NotNil(t, got.NextAction)

	// a terminal status clears the pending action
	ok, err = svc.UpdateEnrollmentStatus(e.ID, models.EnrollmentStatusOptedOut)
	require.NoError(t, err)
	assert.True(t, ok)
	got, _ = svc.GetEnrollment(e.ID)
	assert.Equal(t, models.EnrollmentStatusOptedOut, got.Status)
	assert.Nil(t, got.NextAction)

	// reactivating mid-sequence recomputes the action
	ok, err = svc.UpdateEnrollmentStatus(e.ID, models.EnrollmentStatusActive)
	require.NoError(t, err)
	assert.True(t, ok)
	got, _ = svc.GetEnrollment(e.ID)
	assert.Equal(t, models.EnrollmentStatusActive, got.Status)
	require.NotNil(t, got.NextAction)
	assert.Equal(t, uint(11), got.NextAction.TemplateID)

	// unknown id
	ok, err = svc.UpdateEnrollmentStatus(999, models.EnrollmentStatusPaused)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOptOutContact(t *testing.T) {
	svc, st := newTestService(t)
	testContact(st, 1)
	w1 := threeStepWorkflow(t, svc)
	w2 := threeStepWorkflow(t, svc)

	e1, err := svc.Enroll(w1.ID, 1, nil)
	require.NoError(t, err)
	e2, err := svc.Enroll(w2.ID, 1, nil)
	require.NoError(t, err)

	n, err := svc.OptOutContact(1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []uint{e1.ID, e2.ID} {
		got, err := svc.GetEnrollment(id)
		require.NoError(t, err)
		assert.Equal(t, models.EnrollmentStatusOptedOut, got.Status)
		assert.Nil(t, got.NextAction)
	}
}

func TestHandleTriggerEnrollsMatchingWorkflows(t *testing.T) {
	svc, st := newTestService(t)
	contact := testContact(st, 1)
	contact.Company = "Acme"
	st.Contacts().Put(contact)

	matching := threeStepWorkflow(t, svc)

	gated := &models.Workflow{
		Name:     "Enterprise only",
		Status:   models.WorkflowStatusActive,
		Trigger:  models.TriggerNewLead,
		Channels: []models.Channel{models.ChannelEmail},
		Conditions: []models.Condition{
			{Field: "company", Operator: models.OperatorEquals, Value: models.ConditionValue{Text: "Globex"}},
		},
		Sequence: []models.SequenceStep{
			{StepNumber: 1, Channel: models.ChannelEmail, TemplateID: 7},
		},
	}
	require.NoError(t, svc.CreateWorkflow(gated))

	otherTrigger := &models.Workflow{
		Name:     "Cart recovery",
		Status:   models.WorkflowStatusActive,
		Trigger:  models.TriggerCartAbandonment,
		Channels: []models.Channel{models.ChannelEmail},
		Sequence: []models.SequenceStep{
			{StepNumber: 1, Channel: models.ChannelEmail, TemplateID: 8},
		},
	}
	require.NoError(t, svc.CreateWorkflow(otherTrigger))

	enrolled, err := svc.HandleTrigger(models.TriggerNewLead, 1, nil)
	require.NoError(t, err)
	require.Len(t, enrolled, 1)
	assert.Equal(t, matching.ID, enrolled[0].WorkflowID)
}

func TestHandleTriggerMetadataSatisfiesConditions(t *testing.T) {
	svc, st := newTestService(t)
	testContact(st, 1)

	w := &models.Workflow{
		Name:     "Big carts",
		Status:   models.WorkflowStatusActive,
		Trigger:  models.TriggerCartAbandonment,
		Channels: []models.Channel{models.ChannelEmail},
		Conditions: []models.Condition{
			{Field: "cart_value", Operator: models.OperatorGreaterThan,
				Value: models.ConditionValue{Number: floatPtr(100)}},
		},
		Sequence: []models.SequenceStep{
			{StepNumber: 1, Channel: models.ChannelEmail, TemplateID: 9, DelayMinutes: 60},
		},
	}
	require.NoError(t, svc.CreateWorkflow(w))

	enrolled, err := svc.HandleTrigger(models.TriggerCartAbandonment, 1, map[string]string{"cart_value": "250"})
	require.NoError(t, err)
	require.Len(t, enrolled, 1)

	enrolled, err = svc.HandleTrigger(models.TriggerCartAbandonment, 2, map[string]string{"cart_value": "40"})
	require.NoError(t, err)
	assert.Empty(t, enrolled)
}

func TestBranchOverridesStepChannel(t *testing.T) {
	svc, st := newTestService(t)
	contact := testContact(st, 1)
	contact.Phone = "+14155552671"
	st.Contacts().Put(contact)

	w := &models.Workflow{
		Name:     "Branching",
		Status:   models.WorkflowStatusActive,
		Trigger:  models.TriggerNewLead,
		Channels: []models.Channel{models.ChannelEmail, models.ChannelSMS},
		Sequence: []models.SequenceStep{
			{
				StepNumber: 1, Channel: models.ChannelEmail, TemplateID: 11,
				Branches: []models.StepBranch{
					{
						Condition: models.Condition{Field: "phone", Operator: models.OperatorExists},
						Channel:   models.ChannelSMS,
						TemplateID: 21,
					},
				},
			},
		},
	}
	require.NoError(t, svc.CreateWorkflow(w))

	e, err := svc.Enroll(w.ID, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, e.NextAction)
	assert.Equal(t, models.ChannelSMS, e.NextAction.Channel)
	assert.Equal(t, uint(21), e.NextAction.TemplateID)
}

func floatPtr(f float64) *float64 { return &f }

package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/models"
)

func TestCreateWorkflowDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	w := &models.Workflow{
		Name:     "Defaults",
		Trigger:  models.TriggerNewLead,
		Channels: []models.Channel{models.ChannelEmail},
	}
	require.NoError(t, svc.CreateWorkflow(w))

	assert.Equal(t, models.WorkflowStatusDraft, w.Status)
	assert.Equal(t, models.LearningBalanced, w.AIOptimization.LearningMode)
	assert.NotZero(t, w.ID)
}

func TestCreateWorkflowValidation(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []struct {
		name  string
		w     models.Workflow
		field string
	}{
		{
			name: "no channels",
			w: models.Workflow{
				Name:    "bad",
				Trigger: models.TriggerNewLead,
			},
			field: "channels",
		},
		{
			name: "unknown trigger",
			w: models.Workflow{
				Name:     "bad",
				Trigger:  "comet_sighting",
				Channels: []models.Channel{models.ChannelEmail},
			},
			field: "trigger",
		},
		{
			name: "non-contiguous step numbers",
			w: models.Workflow{
				Name:     "bad",
				Trigger:  models.TriggerNewLead,
				Channels: []models.Channel{models.ChannelEmail},
				Sequence: []models.SequenceStep{
					{StepNumber: 1, Channel: models.ChannelEmail},
					{StepNumber: 3, Channel: models.ChannelEmail},
				},
			},
			field: "sequence[1]",
		},
		{
			name: "step channel outside channel set",
			w: models.Workflow{
				Name:     "bad",
				Trigger:  models.TriggerNewLead,
				Channels: []models.Channel{models.ChannelEmail},
				Sequence: []models.SequenceStep{
					{StepNumber: 1, Channel: models.ChannelSMS},
				},
			},
			field: "sequence[0]",
		},
		{
			name: "negative delay",
			w: models.Workflow{
				Name:     "bad",
				Trigger:  models.TriggerNewLead,
				Channels: []models.Channel{models.ChannelEmail},
				Sequence: []models.SequenceStep{
					{StepNumber: 1, Channel: models.ChannelEmail, DelayMinutes: -5},
				},
			},
			field: "sequence[0]",
		},
		{
			name: "branch channel outside channel set",
			w: models.Workflow{
				Name:     "bad",
				Trigger:  models.TriggerNewLead,
				Channels: []models.Channel{models.ChannelEmail},
				Sequence: []models.SequenceStep{
					{
						StepNumber: 1, Channel: models.ChannelEmail,
						Branches: []models.StepBranch{
							{
								Condition: models.Condition{Field: "phone", Operator: models.OperatorExists},
								Channel:   models.ChannelSMS,
							},
						},
					},
				},
			},
			field: "sequence[0].branches[0]",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := tc.w
			err := svc.CreateWorkflow(&w)
			require.Error(t, err)
			ve, ok := IsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, tc.field, ve.Field)
			assert.Zero(t, w.ID, "invalid workflow must not be stored")
		})
	}
}

func TestUpdateWorkflowPatch(t *testing.T) {
	svc, _ := newTestService(t)
	w := threeStepWorkflow(t, svc)

	name := "Renamed"
	status := models.WorkflowStatusPaused
	updated, err := svc.UpdateWorkflow(w.ID, WorkflowPatch{Name: &name, Status: &status})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, models.WorkflowStatusPaused, updated.Status)
	// untouched fields survive
	assert.Len(t, updated.Sequence, 3)
	assert.Equal(t, models.TriggerNewLead, updated.Trigger)

	// a patch that breaks validation is rejected and leaves the stored
	// workflow unchanged
	badSeq := []models.SequenceStep{{StepNumber: 7, Channel: models.ChannelEmail}}
	_, err = svc.UpdateWorkflow(w.ID, WorkflowPatch{Sequence: &badSeq})
	require.Error(t, err)
	got, err := svc.GetWorkflow(w.ID)
	require.NoError(t, err)
	assert.Len(t, got.Sequence, 3)

	// unknown id
	updated, err = svc.UpdateWorkflow(999, WorkflowPatch{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestDeleteWorkflowCascades(t *testing.T) {
	svc, st := newTestService(t)
	testContact(st, 1)
	w := threeStepWorkflow(t, svc)

	e, err := svc.Enroll(w.ID, 1, nil)
	require.NoError(t, err)

	deleted, err := svc.DeleteWorkflow(w.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := svc.GetWorkflow(w.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	gone, err := svc.GetEnrollment(e.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// deleting again reports not found
	deleted, err = svc.DeleteWorkflow(w.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

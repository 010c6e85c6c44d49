package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/models"
)

func TestGenerateWorkflowTemplateObjectives(t *testing.T) {
	cases := []struct {
		objective string
		wantName  string
		trigger   models.TriggerKind
	}{
		{"recover abandoned carts", "Abandoned Cart Recovery", models.TriggerCartAbandonment},
		{"Cart reminder push", "Abandoned Cart Recovery", models.TriggerCartAbandonment},
		{"post-purchase thank you", "Post-Purchase Follow-Up", models.TriggerPurchase},
		{"onboarding drip", "Post-Purchase Follow-Up", models.TriggerPurchase},
		{"nurture inbound leads", "Lead Nurture Sequence", models.TriggerNewLead},
		{"something unrecognizable", "Lead Nurture Sequence", models.TriggerNewLead},
	}

	for _, tc := range cases {
		t.Run(tc.objective, func(t *testing.T) {
			w := GenerateWorkflowTemplate(tc.objective, "", []models.Channel{models.ChannelEmail})
			assert.Equal(t, tc.wantName, w.Name)
			assert.Equal(t, tc.trigger, w.Trigger)
			assert.Equal(t, models.WorkflowStatusDraft, w.Status)
		})
	}
}

func TestGenerateWorkflowTemplateIsDeterministic(t *testing.T) {
	a := GenerateWorkflowTemplate("win back cart abandoners", "smb", nil)
	b := GenerateWorkflowTemplate("win back cart abandoners", "smb", nil)
	assert.Equal(t, a, b)
}

func TestGeneratedTemplateCyclesChannels(t *testing.T) {
	channels := []models.Channel{models.ChannelEmail, models.ChannelSMS}
	w := GenerateWorkflowTemplate("nurture", "enterprise", channels)

	require.Len(t, w.Sequence, 4)
	assert.Equal(t, models.ChannelEmail, w.Sequence[0].Channel)
	assert.Equal(t, models.ChannelSMS, w.Sequence[1].Channel)
	assert.Equal(t, models.ChannelEmail, w.Sequence[2].Channel)
	assert.Equal(t, models.ChannelSMS, w.Sequence[3].Channel)

	for i, step := range w.Sequence {
		assert.Equal(t, i+1, step.StepNumber)
		assert.Zero(t, step.TemplateID, "template ids are left for the caller to bind")
	}
	assert.Equal(t, "enterprise", w.Segmentation.AudienceID)

	// no channels requested defaults to email
	w = GenerateWorkflowTemplate("nurture", "", nil)
	assert.Equal(t, []models.Channel{models.ChannelEmail}, w.Channels)
}

func TestGeneratedTemplateValidates(t *testing.T) {
	svc, _ := newTestService(t)

	w := GenerateWorkflowTemplate("abandoned cart", "",
		[]models.Channel{models.ChannelEmail, models.ChannelWhatsApp})
	require.NoError(t, svc.CreateWorkflow(w))
}

func TestPredictWorkflowPerformanceAverages(t *testing.T) {
	w := &models.Workflow{Channels: []models.Channel{models.ChannelEmail, models.ChannelSMS}}
	p := PredictWorkflowPerformance(w)

	assert.InDelta(t, (0.22+0.95)/2, p.OpenRate, 1e-9)
	assert.InDelta(t, (0.03+0.12)/2, p.ResponseRate, 1e-9)
	assert.InDelta(t, (0.02+0.04)/2, p.ConversionRate, 1e-9)

	// single channel is the baseline itself
	p = PredictWorkflowPerformance(&models.Workflow{Channels: []models.Channel{models.ChannelEmail}})
	assert.InDelta(t, 0.22, p.OpenRate, 1e-9)

	// no channels yields zeros
	p = PredictWorkflowPerformance(&models.Workflow{})
	assert.Zero(t, p.OpenRate)
	assert.Zero(t, p.ResponseRate)
	assert.Zero(t, p.ConversionRate)
}

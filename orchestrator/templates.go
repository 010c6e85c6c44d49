package orchestrator

import (
	"strings"

	"leadflow/models"
)

// workflowObjective is a canned skeleton key matched from free-text objectives
type workflowObjective string

const (
	objectiveLeadNurture   workflowObjective = "lead_nurture"
	objectiveAbandonedCart workflowObjective = "abandoned_cart"
	objectivePostPurchase  workflowObjective = "post_purchase"
)

// objectiveLexicon maps keywords found in an objective to a skeleton.
// Matching is a deterministic first-match lookup, not generation; unmatched
// objectives fall back to lead nurture.
var objectiveLexicon = []struct {
	word string
	obj  workflowObjective
}{
	{"cart", objectiveAbandonedCart},
	{"abandon", objectiveAbandonedCart},
	{"purchase", objectivePostPurchase},
	{"onboard", objectivePostPurchase},
	{"thank", objectivePostPurchase},
	{"nurtur", objectiveLeadNurture},
	{"welcome", objectiveLeadNurture},
	{"lead", objectiveLeadNurture},
}

type skeleton struct {
	name        string
	description string
	trigger     models.TriggerKind
	delays      []int // minutes per step
}

var skeletons = map[workflowObjective]skeleton{
	objectiveLeadNurture: {
		name:        "Lead Nurture Sequence",
		description: "Warm up new leads with a spaced multi-touch sequence",
		trigger:     models.TriggerNewLead,
		delays:      []int{0, 2 * 24 * 60, 4 * 24 * 60, 7 * 24 * 60},
	},
	objectiveAbandonedCart: {
		name:        "Abandoned Cart Recovery",
		description: "Win back contacts who left a checkout unfinished",
		trigger:     models.TriggerCartAbandonment,
		delays:      []int{60, 24 * 60, 3 * 24 * 60},
	},
	objectivePostPurchase: {
		name:        "Post-Purchase Follow-Up",
		description: "Thank buyers, gather feedback, and surface the next offer",
		trigger:     models.TriggerPurchase,
		delays:      []int{0, 3 * 24 * 60, 14 * 24 * 60},
	},
}

// GenerateWorkflowTemplate returns a canned draft workflow matching the
// objective. Steps cycle through the requested channels in order; template
// ids are left at zero for the caller to bind.
func GenerateWorkflowTemplate(objective, targetAudience string, channels []models.Channel) *models.Workflow {
	if len(channels) == 0 {
		channels = []models.Channel{models.ChannelEmail}
	}

	key := objectiveLeadNurture
	lowered := strings.ToLower(objective)
	for _, entry := range objectiveLexicon {
		if strings.Contains(lowered, entry.word) {
			key = entry.obj
			break
		}
	}
	sk := skeletons[key]

	steps := make([]models.SequenceStep, len(sk.delays))
	for i, delay := range sk.delays {
		steps[i] = models.SequenceStep{
			StepNumber:   i + 1,
			Channel:      channels[i%len(channels)],
			DelayMinutes: delay,
		}
	}

	return &models.Workflow{
		Name:        sk.name,
		Description: sk.description,
		Status:      models.WorkflowStatusDraft,
		Trigger:     sk.trigger,
		Channels:    channels,
		Sequence:    steps,
		Segmentation: models.Segmentation{
			AudienceID: targetAudience,
		},
		AIOptimization: models.AISettings{
			LearningMode: models.LearningBalanced,
		},
	}
}

// channelBaselines is the heuristic per-channel performance table used by
// PredictWorkflowPerformance
var channelBaselines = map[models.Channel]PerformancePrediction{
	models.ChannelEmail:     {OpenRate: 0.22, ResponseRate: 0.03, ConversionRate: 0.02},
	models.ChannelSMS:       {OpenRate: 0.95, ResponseRate: 0.12, ConversionRate: 0.04},
	models.ChannelWhatsApp:  {OpenRate: 0.85, ResponseRate: 0.15, ConversionRate: 0.05},
	models.ChannelInstagram: {OpenRate: 0.40, ResponseRate: 0.06, ConversionRate: 0.015},
	models.ChannelFacebook:  {OpenRate: 0.35, ResponseRate: 0.05, ConversionRate: 0.012},
	models.ChannelLinkedIn:  {OpenRate: 0.30, ResponseRate: 0.08, ConversionRate: 0.025},
	models.ChannelTwitter:   {OpenRate: 0.25, ResponseRate: 0.04, ConversionRate: 0.008},
	models.ChannelTikTok:    {OpenRate: 0.45, ResponseRate: 0.05, ConversionRate: 0.01},
}

// PerformancePrediction is a deterministic table-average estimate, not a model
type PerformancePrediction struct {
	OpenRate       float64 `json:"open_rate"`
	ResponseRate   float64 `json:"response_rate"`
	ConversionRate float64 `json:"conversion_rate"`
}

// PredictWorkflowPerformance averages the per-channel baseline rates across
// the workflow's selected channels
func PredictWorkflowPerformance(w *models.Workflow) PerformancePrediction {
	if len(w.Channels) == 0 {
		return PerformancePrediction{}
	}
	var sum PerformancePrediction
	for _, c := range w.Channels {
		b := channelBaselines[c]
		sum.OpenRate += b.OpenRate
		sum.ResponseRate += b.ResponseRate
		sum.ConversionRate += b.ConversionRate
	}
	n := float64(len(w.Channels))
	return PerformancePrediction{
		OpenRate:       sum.OpenRate / n,
		ResponseRate:   sum.ResponseRate / n,
		ConversionRate: sum.ConversionRate / n,
	}
}

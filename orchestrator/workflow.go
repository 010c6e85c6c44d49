package orchestrator

import (
	"fmt"

	"leadflow/models"
)

// WorkflowPatch holds partial workflow updates. Nil fields are left untouched.
type WorkflowPatch struct {
	Name           *string                `json:"name,omitempty"`
	Description    *string                `json:"description,omitempty"`
	Status         *models.WorkflowStatus `json:"status,omitempty"`
	Trigger        *models.TriggerKind    `json:"trigger,omitempty"`
	Conditions     *[]models.Condition    `json:"conditions,omitempty"`
	Channels       *[]models.Channel      `json:"channels,omitempty"`
	Sequence       *[]models.SequenceStep `json:"sequence,omitempty"`
	Segmentation   *models.Segmentation   `json:"segmentation,omitempty"`
	Timing         *models.TimingPolicy   `json:"timing,omitempty"`
	AIOptimization *models.AISettings     `json:"ai_optimization,omitempty"`
}

// CreateWorkflow validates and persists a new workflow definition. The
// workflow is not stored when validation fails.
func (s *Service) CreateWorkflow(w *models.Workflow) error {
	if w.Status == "" {
		w.Status = models.WorkflowStatusDraft
	}
	if w.AIOptimization.LearningMode == "" {
		w.AIOptimization.LearningMode = models.LearningBalanced
	}
	if err := validateWorkflow(w); err != nil {
		return err
	}
	return s.workflows.Create(w)
}

// UpdateWorkflow merges a partial update into an existing workflow,
// re-validating when the sequence or channel set changes. Returns (nil, nil)
// when the id is unknown.
func (s *Service) UpdateWorkflow(id uint, patch WorkflowPatch) (*models.Workflow, error) {
	w, err := s.workflows.Get(id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, nil
	}

	if patch.Name != nil {
		w.Name = *patch.Name
	}
	if patch.Description != nil {
		w.Description = *patch.Description
	}
	if patch.Status != nil {
		w.Status = *patch.Status
	}
	if patch.Trigger != nil {
		w.Trigger = *patch.Trigger
	}
	if patch.Conditions != nil {
		w.Conditions = *patch.Conditions
	}
	if patch.Channels != nil {
		w.Channels = *patch.Channels
	}
	if patch.Sequence != nil {
		w.Sequence = *patch.Sequence
	}
	if patch.Segmentation != nil {
		w.Segmentation = *patch.Segmentation
	}
	if patch.Timing != nil {
		w.Timing = *patch.Timing
	}
	if patch.AIOptimization != nil {
		w.AIOptimization = *patch.AIOptimization
	}

	if err := validateWorkflow(w); err != nil {
		return nil, err
	}
	if err := s.workflows.Update(w); err != nil {
		return nil, err
	}
	return w, nil
}

// GetWorkflow returns the workflow or nil when unknown
func (s *Service) GetWorkflow(id uint) (*models.Workflow, error) {
	return s.workflows.Get(id)
}

// ListWorkflows returns all workflow definitions
func (s *Service) ListWorkflows() ([]models.Workflow, error) {
	return s.workflows.List()
}

// DeleteWorkflow removes the workflow and cascades deletion of all its
// enrollments. Returns false when the id is unknown.
func (s *Service) DeleteWorkflow(id uint) (bool, error) {
	w, err := s.workflows.Get(id)
	if err != nil {
		return false, err
	}
	if w == nil {
		return false, nil
	}
	if err := s.enrollments.DeleteByWorkflow(id); err != nil {
		return false, err
	}
	if err := s.workflows.Delete(id); err != nil {
		return false, err
	}
	return true, nil
}

func validateWorkflow(w *models.Workflow) error {
	if !w.Status.IsValid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", w.Status)}
	}
	if !w.Trigger.IsValid() {
		return &ValidationError{Field: "trigger", Reason: fmt.Sprintf("unknown trigger %q", w.Trigger)}
	}
	if len(w.Channels) == 0 {
		return &ValidationError{Field: "channels", Reason: "at least one channel is required"}
	}
	for _, c := range w.Channels {
		if !c.IsValid() {
			return &ValidationError{Field: "channels", Reason: fmt.Sprintf("unknown channel %q", c)}
		}
	}
	if !w.AIOptimization.LearningMode.IsValid() {
		return &ValidationError{Field: "ai_optimization.learning_mode",
			Reason: fmt.Sprintf("unknown learning mode %q", w.AIOptimization.LearningMode)}
	}
	return validateSequence(w)
}

// validateSequence enforces the two structural invariants: step numbers form
// a contiguous 1..N range, and every step (and branch) channel is a member of
// the workflow's channel set.
func validateSequence(w *models.Workflow) error {
	for i, step := range w.Sequence {
		field := fmt.Sprintf("sequence[%d]", i)
		if step.StepNumber != i+1 {
			return &ValidationError{Field: field,
				Reason: fmt.Sprintf("step numbers must be contiguous from 1, got %d at position %d", step.StepNumber, i+1)}
		}
		if !w.HasChannel(step.Channel) {
			return &ValidationError{Field: field,
				Reason: fmt.Sprintf("channel %q is not in the workflow channel set", step.Channel)}
		}
		if step.DelayMinutes < 0 {
			return &ValidationError{Field: field, Reason: "delay must be >= 0 minutes"}
		}
		for j, b := range step.Branches {
			if !w.HasChannel(b.Channel) {
				return &ValidationError{Field: fmt.Sprintf("%s.branches[%d]", field, j),
					Reason: fmt.Sprintf("channel %q is not in the workflow channel set", b.Channel)}
			}
		}
	}
	return nil
}

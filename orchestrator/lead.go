package orchestrator

import (
	"time"

	"leadflow/models"
)

// Enroll creates an enrollment for a contact in a workflow. Enrollment is
// only permitted into active workflows; anything else is a defined no-op
// returning (nil, nil), which is distinct from a storage failure. Re-enrolling
// a contact with a non-terminal enrollment is idempotent and returns the
// existing instance unchanged.
func (s *Service) Enroll(workflowID, contactID uint, metadata map[string]string) (*models.LeadEnrollment, error) {
	w, err := s.workflows.Get(workflowID)
	if err != nil {
		return nil, err
	}
	if w == nil || w.Status != models.WorkflowStatusActive {
		return nil, nil
	}

	existing, err := s.enrollments.FindActive(workflowID, contactID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := s.now()
	e := &models.LeadEnrollment{
		WorkflowID:   workflowID,
		ContactID:    contactID,
		CurrentStep:  0,
		Status:       models.EnrollmentStatusActive,
		StartedAt:    now,
		LastActivity: now,
		Metadata:     metadata,
	}

	if len(w.Sequence) == 0 {
		e.Status = models.EnrollmentStatusCompleted
	} else {
		e.NextAction = s.computeNextAction(w, e)
	}

	if err := s.enrollments.Create(e); err != nil {
		return nil, err
	}
	s.logger.Printf("enrolled contact %d into workflow %d (enrollment %d)", contactID, workflowID, e.ID)
	return e, nil
}

// HandleTrigger enrolls a contact into every active workflow listening for
// the event whose conditions hold. Lookup failures on individual workflows
// are logged and skipped so one bad definition cannot block the rest.
func (s *Service) HandleTrigger(event models.TriggerKind, contactID uint, metadata map[string]string) ([]models.LeadEnrollment, error) {
	flows, err := s.workflows.ListByTrigger(event, models.WorkflowStatusActive)
	if err != nil {
		return nil, err
	}
	contact, err := s.contacts.Get(contactID)
	if err != nil {
		return nil, err
	}

	var enrolled []models.LeadEnrollment
	for i := range flows {
		w := &flows[i]
		if !EvaluateConditions(w.Conditions, contact, metadata) {
			continue
		}
		e, err := s.Enroll(w.ID, contactID, metadata)
		if err != nil {
			s.logger.Printf("trigger %s: enroll contact %d into workflow %d failed: %v", event, contactID, w.ID, err)
			continue
		}
		if e != nil {
			enrolled = append(enrolled, *e)
		}
	}
	return enrolled, nil
}

// RecordResponse appends an engagement record for the enrollment's current
// step, feeds the signal into the contact's channel preference, and advances
// the sequence when the response type warrants it (clicked/replied). Returns
// false when the enrollment id is unknown.
func (s *Service) RecordResponse(enrollmentID uint, rt models.ResponseType, content string, leadScore *int) (bool, error) {
	mu := s.lockFor(enrollmentID)
	mu.Lock()
	defer mu.Unlock()

	e, err := s.enrollments.Get(enrollmentID)
	if err != nil {
		return false, err
	}
	if e == nil {
		return false, nil
	}

	w, err := s.workflows.Get(e.WorkflowID)
	if err != nil {
		return false, err
	}

	now := s.now()
	channel := s.responseChannel(e, w)
	var scheduledAt *time.Time
	if e.NextAction != nil {
		t := e.NextAction.ScheduledAt
		scheduledAt = &t
	}

	e.Responses = append(e.Responses, models.LeadResponse{
		Step:         e.CurrentStep,
		Channel:      channel,
		ResponseType: rt,
		Content:      content,
		Timestamp:    now,
		LeadScore:    leadScore,
	})
	e.LastActivity = now

	if rt.Advances() && w != nil {
		s.advance(e, w)
	}

	if err := s.enrollments.Update(e); err != nil {
		return false, err
	}

	if err := s.recordEngagement(e.ContactID, channel, rt, scheduledAt); err != nil {
		// preference updates are best-effort; the response itself is recorded
		s.logger.Printf("preference update for contact %d failed: %v", e.ContactID, err)
	}
	return true, nil
}

// AdvanceToNextStep moves the enrollment to its next step, completing it when
// the sequence is exhausted. Returns false when the enrollment id is unknown
// or the sequence has already ended.
func (s *Service) AdvanceToNextStep(enrollmentID uint) (bool, error) {
	mu := s.lockFor(enrollmentID)
	mu.Lock()
	defer mu.Unlock()

	e, err := s.enrollments.Get(enrollmentID)
	if err != nil {
		return false, err
	}
	if e == nil {
		return false, nil
	}
	w, err := s.workflows.Get(e.WorkflowID)
	if err != nil {
		return false, err
	}
	if w == nil || e.CurrentStep >= len(w.Sequence) {
		return false, nil
	}

	s.advance(e, w)
	if err := s.enrollments.Update(e); err != nil {
		return false, err
	}
	return true, nil
}

// advance increments the step pointer. CurrentStep is monotone: it only ever
// grows, and reaching len(sequence) forces completion and clears NextAction.
// Delays are computed relative to now, not the previous scheduled time, so
// missed or late actions do not compound.
func (s *Service) advance(e *models.LeadEnrollment, w *models.Workflow) {
	if e.CurrentStep >= len(w.Sequence) {
		return
	}
	e.CurrentStep++
	e.LastActivity = s.now()

	if e.CurrentStep >= len(w.Sequence) {
		e.Status = models.EnrollmentStatusCompleted
		e.NextAction = nil
		s.logger.Printf("enrollment %d completed workflow %d", e.ID, w.ID)
		return
	}
	e.NextAction = s.computeNextAction(w, e)
}

// UpdateEnrollmentStatus applies a direct status transition, used for
// pause/resume and opt-out. Transitions are deliberately unguarded so
// operators can override state; the one rule enforced is that a terminal
// status clears NextAction so the dispatcher can never fire on a dead
// enrollment, and resuming an active enrollment mid-sequence restores it.
func (s *Service) UpdateEnrollmentStatus(enrollmentID uint, status models.EnrollmentStatus) (bool, error) {
	mu := s.lockFor(enrollmentID)
	mu.Lock()
	defer mu.Unlock()

	e, err := s.enrollments.Get(enrollmentID)
	if err != nil {
		return false, err
	}
	if e == nil {
		return false, nil
	}

	e.Status = status
	e.LastActivity = s.now()

	if status.IsTerminal() {
		e.NextAction = nil
	} else if status == models.EnrollmentStatusActive && e.NextAction == nil {
		if w, err := s.workflows.Get(e.WorkflowID); err == nil && w != nil && e.CurrentStep < len(w.Sequence) {
			e.NextAction = s.computeNextAction(w, e)
		}
	}

	if err := s.enrollments.Update(e); err != nil {
		return false, err
	}
	return true, nil
}

// GetEnrollment returns the enrollment or nil when unknown
func (s *Service) GetEnrollment(enrollmentID uint) (*models.LeadEnrollment, error) {
	return s.enrollments.Get(enrollmentID)
}

// ActiveEnrollmentsForContact lists the contact's in-flight enrollments
func (s *Service) ActiveEnrollmentsForContact(contactID uint) ([]models.LeadEnrollment, error) {
	return s.enrollments.ListActiveByContact(contactID)
}

// FindEnrollmentByMessage resolves a dispatched message id back to its
// enrollment. Tracking endpoints use this to attribute opens and clicks.
func (s *Service) FindEnrollmentByMessage(messageID string) (*models.LeadEnrollment, error) {
	return s.enrollments.FindByMessageID(messageID)
}

// OptOutContact moves every active enrollment of a contact to opted_out
func (s *Service) OptOutContact(contactID uint) (int, error) {
	active, err := s.enrollments.ListActiveByContact(contactID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range active {
		ok, err := s.UpdateEnrollmentStatus(e.ID, models.EnrollmentStatusOptedOut)
		if err != nil {
			s.logger.Printf("opt-out of enrollment %d failed: %v", e.ID, err)
			continue
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// computeNextAction derives the scheduled action for the enrollment's current
// step: branch conditions first, then optional preference-driven channel
// override, then delay and timing alignment.
func (s *Service) computeNextAction(w *models.Workflow, e *models.LeadEnrollment) *models.NextAction {
	step := w.Sequence[e.CurrentStep]
	channel := step.Channel
	templateID := step.TemplateID

	contact, err := s.contacts.Get(e.ContactID)
	if err != nil {
		s.logger.Printf("contact %d lookup failed: %v", e.ContactID, err)
	}

	for _, b := range step.Branches {
		if evaluateCondition(b.Condition, contact, e.Metadata) {
			channel = b.Channel
			templateID = b.TemplateID
			break
		}
	}

	var stats *models.ChannelStats
	pref, err := s.prefs.Get(e.ContactID)
	if err != nil {
		s.logger.Printf("preference lookup for contact %d failed: %v", e.ContactID, err)
	}

	if w.AIOptimization.OptimizeChannel {
		if best := SelectChannel(pref, w.Channels, w.AIOptimization.LearningMode); best != "" {
			channel = best
		}
	}
	if st, ok := pref.Stats(channel); ok {
		stats = &st
	}

	scheduledAt := s.now().Add(time.Duration(step.DelayMinutes) * time.Minute)
	if w.AIOptimization.OptimizeTiming {
		contactTZ := ""
		if contact != nil {
			contactTZ = contact.Timezone
		}
		scheduledAt = alignSendTime(scheduledAt, w.Timing, stats, channel, contactTZ)
	}

	return &models.NextAction{
		Channel:     channel,
		TemplateID:  templateID,
		ScheduledAt: scheduledAt,
	}
}

// responseChannel resolves the channel a response belongs to: the scheduled
// action's channel when present, else the current step's configured channel.
func (s *Service) responseChannel(e *models.LeadEnrollment, w *models.Workflow) models.Channel {
	if e.NextAction != nil {
		return e.NextAction.Channel
	}
	if w != nil && e.CurrentStep > 0 && e.CurrentStep <= len(w.Sequence) {
		return w.Sequence[e.CurrentStep-1].Channel
	}
	if w != nil && len(w.Sequence) > 0 {
		return w.Sequence[0].Channel
	}
	return models.ChannelEmail
}

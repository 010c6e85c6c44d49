package store

import (
	"sort"
	"sync"
	"time"

	"leadflow/models"

	"gorm.io/gorm"
)

// MemoryStore is a mutex-guarded in-memory implementation of the
// orchestrator repositories. It backs package tests and DB-less runs and
// mirrors the soft-fail contract of the GORM store: unknown ids return nil.
type MemoryStore struct {
	mu sync.RWMutex

	workflows   map[uint]*models.Workflow
	enrollments map[uint]*models.LeadEnrollment
	prefs       map[uint]*models.ChannelPreference
	contacts    map[uint]*models.Contact

	nextWorkflowID   uint
	nextEnrollmentID uint
	nextPrefID       uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workflows:   make(map[uint]*models.Workflow),
		enrollments: make(map[uint]*models.LeadEnrollment),
		prefs:       make(map[uint]*models.ChannelPreference),
		contacts:    make(map[uint]*models.Contact),
	}
}

// Workflows

type memoryWorkflows struct{ s *MemoryStore }

func (s *MemoryStore) Workflows() *memoryWorkflows { return &memoryWorkflows{s: s} }

func (r *memoryWorkflows) Create(w *models.Workflow) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextWorkflowID++
	w.ID = r.s.nextWorkflowID
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	cp := cloneWorkflow(w)
	r.s.workflows[w.ID] = cp
	return nil
}

func (r *memoryWorkflows) Get(id uint) (*models.Workflow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.workflows[id]
	if !ok {
		return nil, nil
	}
	return cloneWorkflow(w), nil
}

func (r *memoryWorkflows) Update(w *models.Workflow) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.workflows[w.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	w.UpdatedAt = time.Now()
	r.s.workflows[w.ID] = cloneWorkflow(w)
	return nil
}

func (r *memoryWorkflows) Delete(id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.workflows, id)
	return nil
}

func (r *memoryWorkflows) List() ([]models.Workflow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Workflow, 0, len(r.s.workflows))
	for _, w := range r.s.workflows {
		out = append(out, *cloneWorkflow(w))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryWorkflows) ListByTrigger(trigger models.TriggerKind, status models.WorkflowStatus) ([]models.Workflow, error) {
	all, _ := r.List()
	out := all[:0]
	for _, w := range all {
		if w.Trigger == trigger && w.Status == status {
			out = append(out, w)
		}
	}
	return out, nil
}

// Enrollments

type memoryEnrollments struct{ s *MemoryStore }

func (s *MemoryStore) Enrollments() *memoryEnrollments { return &memoryEnrollments{s: s} }

func (r *memoryEnrollments) Create(e *models.LeadEnrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextEnrollmentID++
	e.ID = r.s.nextEnrollmentID
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	r.s.enrollments[e.ID] = cloneEnrollment(e)
	return nil
}

func (r *memoryEnrollments) Get(id uint) (*models.LeadEnrollment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.enrollments[id]
	if !ok {
		return nil, nil
	}
	return cloneEnrollment(e), nil
}

func (r *memoryEnrollments) Update(e *models.LeadEnrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.enrollments[e.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	e.UpdatedAt = time.Now()
	r.s.enrollments[e.ID] = cloneEnrollment(e)
	return nil
}

func (r *memoryEnrollments) FindActive(workflowID, contactID uint) (*models.LeadEnrollment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var found *models.LeadEnrollment
	for _, e := range r.s.enrollments {
		if e.WorkflowID == workflowID && e.ContactID == contactID && !e.Status.IsTerminal() {
			if found == nil || e.ID < found.ID {
				found = e
			}
		}
	}
	if found == nil {
		return nil, nil
	}
	return cloneEnrollment(found), nil
}

func (r *memoryEnrollments) FindByMessageID(messageID string) (*models.LeadEnrollment, error) {
	if messageID == "" {
		return nil, nil
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.enrollments {
		if e.NextAction != nil && e.NextAction.MessageID == messageID {
			return cloneEnrollment(e), nil
		}
	}
	return nil, nil
}

func (r *memoryEnrollments) List() ([]models.LeadEnrollment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.LeadEnrollment, 0, len(r.s.enrollments))
	for _, e := range r.s.enrollments {
		out = append(out, *cloneEnrollment(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryEnrollments) ListByWorkflow(workflowID uint) ([]models.LeadEnrollment, error) {
	all, _ := r.List()
	out := all[:0]
	for _, e := range all {
		if e.WorkflowID == workflowID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryEnrollments) ListActiveByContact(contactID uint) ([]models.LeadEnrollment, error) {
	all, _ := r.List()
	out := all[:0]
	for _, e := range all {
		if e.ContactID == contactID && e.Status == models.EnrollmentStatusActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryEnrollments) ListDue(now time.Time, limit int) ([]models.LeadEnrollment, error) {
	all, _ := r.List()
	var out []models.LeadEnrollment
	for _, e := range all {
		if e.Status != models.EnrollmentStatusActive || e.NextAction == nil {
			continue
		}
		if e.NextAction.DispatchedAt != nil || e.NextAction.ScheduledAt.After(now) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NextAction.ScheduledAt.Before(out[j].NextAction.ScheduledAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryEnrollments) DeleteByWorkflow(workflowID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, e := range r.s.enrollments {
		if e.WorkflowID == workflowID {
			delete(r.s.enrollments, id)
		}
	}
	return nil
}

// Preferences

type memoryPreferences struct{ s *MemoryStore }

func (s *MemoryStore) Preferences() *memoryPreferences { return &memoryPreferences{s: s} }

func (r *memoryPreferences) Get(contactID uint) (*models.ChannelPreference, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.prefs[contactID]
	if !ok {
		return nil, nil
	}
	return clonePreference(p), nil
}

func (r *memoryPreferences) Save(p *models.ChannelPreference) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == 0 {
		r.s.nextPrefID++
		p.ID = r.s.nextPrefID
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	r.s.prefs[p.ContactID] = clonePreference(p)
	return nil
}

// Contacts

type memoryContacts struct{ s *MemoryStore }

func (s *MemoryStore) Contacts() *memoryContacts { return &memoryContacts{s: s} }

// Put stores or replaces a contact; test fixtures assign ids themselves
func (r *memoryContacts) Put(c *models.Contact) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	r.s.contacts[c.ID] = &cp
}

func (r *memoryContacts) Get(id uint) (*models.Contact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.contacts[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// clone helpers keep stored state isolated from caller mutation

func cloneWorkflow(w *models.Workflow) *models.Workflow {
	cp := *w
	cp.Conditions = append([]models.Condition(nil), w.Conditions...)
	cp.Channels = append([]models.Channel(nil), w.Channels...)
	cp.Sequence = append([]models.SequenceStep(nil), w.Sequence...)
	return &cp
}

func cloneEnrollment(e *models.LeadEnrollment) *models.LeadEnrollment {
	cp := *e
	cp.Responses = append([]models.LeadResponse(nil), e.Responses...)
	if e.NextAction != nil {
		na := *e.NextAction
		cp.NextAction = &na
	}
	if e.Metadata != nil {
		cp.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

func clonePreference(p *models.ChannelPreference) *models.ChannelPreference {
	cp := *p
	if p.Channels != nil {
		cp.Channels = make(map[models.Channel]models.ChannelStats, len(p.Channels))
		for k, v := range p.Channels {
			v.BestTimes = append([]string(nil), v.BestTimes...)
			cp.Channels[k] = v
		}
	}
	return &cp
}

// Package orchestrator implements the follow-up workflow engine: workflow
// management, per-contact enrollment state machines, channel selection and
// send-time optimization. All operations are synchronous computations over
// repository-backed state; delivery itself is the dispatcher's concern.
package orchestrator

import (
	"log"
	"sync"
	"time"

	"leadflow/models"
)

const lockStripes = 64

// WorkflowRepository persists workflow definitions. Get returns (nil, nil)
// when the id is unknown.
type WorkflowRepository interface {
	Create(w *models.Workflow) error
	Get(id uint) (*models.Workflow, error)
	Update(w *models.Workflow) error
	Delete(id uint) error
	List() ([]models.Workflow, error)
	ListByTrigger(trigger models.TriggerKind, status models.WorkflowStatus) ([]models.Workflow, error)
}

// EnrollmentRepository persists lead enrollments. Get and FindActive return
// (nil, nil) when nothing matches.
type EnrollmentRepository interface {
	Create(e *models.LeadEnrollment) error
	Get(id uint) (*models.LeadEnrollment, error)
	Update(e *models.LeadEnrollment) error
	FindActive(workflowID, contactID uint) (*models.LeadEnrollment, error)
	FindByMessageID(messageID string) (*models.LeadEnrollment, error)
	List() ([]models.LeadEnrollment, error)
	ListByWorkflow(workflowID uint) ([]models.LeadEnrollment, error)
	ListActiveByContact(contactID uint) ([]models.LeadEnrollment, error)
	ListDue(now time.Time, limit int) ([]models.LeadEnrollment, error)
	DeleteByWorkflow(workflowID uint) error
}

// PreferenceRepository persists per-contact channel preferences. Get returns
// (nil, nil) when the contact has no recorded engagement yet.
type PreferenceRepository interface {
	Get(contactID uint) (*models.ChannelPreference, error)
	Save(p *models.ChannelPreference) error
}

// ContactRepository reads contact records for condition evaluation and
// timezone lookups. Get returns (nil, nil) when the id is unknown.
type ContactRepository interface {
	Get(id uint) (*models.Contact, error)
}

// Service is the orchestration façade. Mutations on a given enrollment are
// serialized through a striped lock keyed by enrollment id so a response
// webhook and a manual advance cannot race each other.
type Service struct {
	workflows   WorkflowRepository
	enrollments EnrollmentRepository
	prefs       PreferenceRepository
	contacts    ContactRepository
	logger      *log.Logger

	locks [lockStripes]sync.Mutex
	now   func() time.Time
}

// NewService creates the orchestration service over the given repositories
func NewService(workflows WorkflowRepository, enrollments EnrollmentRepository,
	prefs PreferenceRepository, contacts ContactRepository, logger *log.Logger) *Service {
	return &Service{
		workflows:   workflows,
		enrollments: enrollments,
		prefs:       prefs,
		contacts:    contacts,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) lockFor(enrollmentID uint) *sync.Mutex {
	return &s.locks[enrollmentID%lockStripes]
}

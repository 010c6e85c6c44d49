// Package store provides the persistence implementations behind the
// orchestrator's repository interfaces: a GORM/Postgres store for production
// and an in-memory store for tests and DB-less runs.
package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"leadflow/models"
)

// GormStore implements the orchestrator repositories over a GORM connection
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Workflows

type gormWorkflows struct {
	db *gorm.DB
}

// Workflows returns the workflow repository view of the store
func (s *GormStore) Workflows() *gormWorkflows {
	return &gormWorkflows{db: s.db}
}

func (r *gormWorkflows) Create(w *models.Workflow) error {
	return r.db.Create(w).Error
}

func (r *gormWorkflows) Get(id uint) (*models.Workflow, error) {
	var w models.Workflow
	err := r.db.First(&w, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *gormWorkflows) Update(w *models.Workflow) error {
	return r.db.Save(w).Error
}

func (r *gormWorkflows) Delete(id uint) error {
	return r.db.Delete(&models.Workflow{}, id).Error
}

func (r *gormWorkflows) List() ([]models.Workflow, error) {
	var flows []models.Workflow
	err := r.db.Order("id").Find(&flows).Error
	return flows, err
}

func (r *gormWorkflows) ListByTrigger(trigger models.TriggerKind, status models.WorkflowStatus) ([]models.Workflow, error) {
	var flows []models.Workflow
	err := r.db.Where("trigger = ? AND status = ?", trigger, status).Order("id").Find(&flows).Error
	return flows, err
}

// Enrollments

type gormEnrollments struct {
	db *gorm.DB
}

// Enrollments returns the enrollment repository view of the store
func (s *GormStore) Enrollments() *gormEnrollments {
	return &gormEnrollments{db: s.db}
}

func (r *gormEnrollments) Create(e *models.LeadEnrollment) error {
	return r.db.Create(e).Error
}

func (r *gormEnrollments) Get(id uint) (*models.LeadEnrollment, error) {
	var e models.LeadEnrollment
	err := r.db.First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *gormEnrollments) Update(e *models.LeadEnrollment) error {
	return r.db.Save(e).Error
}

func (r *gormEnrollments) FindActive(workflowID, contactID uint) (*models.LeadEnrollment, error) {
	var e models.LeadEnrollment
	err := r.db.Where("workflow_id = ? AND contact_id = ? AND status NOT IN ?",
		workflowID, contactID, terminalStatuses()).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *gormEnrollments) FindByMessageID(messageID string) (*models.LeadEnrollment, error) {
	var e models.LeadEnrollment
	err := r.db.Where("next_action ->> 'message_id' = ?", messageID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *gormEnrollments) List() ([]models.LeadEnrollment, error) {
	var list []models.LeadEnrollment
	err := r.db.Order("id").Find(&list).Error
	return list, err
}

func (r *gormEnrollments) ListByWorkflow(workflowID uint) ([]models.LeadEnrollment, error) {
	var list []models.LeadEnrollment
	err := r.db.Where("workflow_id = ?", workflowID).Order("id").Find(&list).Error
	return list, err
}

func (r *gormEnrollments) ListActiveByContact(contactID uint) ([]models.LeadEnrollment, error) {
	var list []models.LeadEnrollment
	err := r.db.Where("contact_id = ? AND status = ?", contactID, models.EnrollmentStatusActive).
		Order("id").Find(&list).Error
	return list, err
}

// ListDue returns active enrollments whose scheduled action is due and not
// yet dispatched, oldest first
func (r *gormEnrollments) ListDue(now time.Time, limit int) ([]models.LeadEnrollment, error) {
	var list []models.LeadEnrollment
	err := r.db.
		Where("status = ?", models.EnrollmentStatusActive).
		Where("next_action IS NOT NULL").
		Where("(next_action ->> 'scheduled_at')::timestamptz <= ?", now).
		Where("next_action ->> 'dispatched_at' IS NULL").
		Order("(next_action ->> 'scheduled_at')::timestamptz").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *gormEnrollments) DeleteByWorkflow(workflowID uint) error {
	return r.db.Where("workflow_id = ?", workflowID).Delete(&models.LeadEnrollment{}).Error
}

// Preferences

type gormPreferences struct {
	db *gorm.DB
}

// Preferences returns the channel-preference repository view of the store
func (s *GormStore) Preferences() *gormPreferences {
	return &gormPreferences{db: s.db}
}

func (r *gormPreferences) Get(contactID uint) (*models.ChannelPreference, error) {
	var p models.ChannelPreference
	err := r.db.Where("contact_id = ?", contactID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormPreferences) Save(p *models.ChannelPreference) error {
	return r.db.Save(p).Error
}

// Contacts

type gormContacts struct {
	db *gorm.DB
}

// Contacts returns the contact repository view of the store
func (s *GormStore) Contacts() *gormContacts {
	return &gormContacts{db: s.db}
}

func (r *gormContacts) Get(id uint) (*models.Contact, error) {
	var c models.Contact
	err := r.db.Preload("Tags").First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func terminalStatuses() []models.EnrollmentStatus {
	return []models.EnrollmentStatus{
		models.EnrollmentStatusCompleted,
		models.EnrollmentStatusFailed,
		models.EnrollmentStatusOptedOut,
	}
}

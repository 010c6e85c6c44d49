package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"leadflow/models"
	"leadflow/orchestrator"
	"leadflow/utils"
)

const dispatchBatchSize = 100

// DispatchWorker delivers due follow-up actions. It polls for enrollments
// whose next action is scheduled and not yet dispatched, renders the message
// and hands it to the configured channel sender. Each action is dispatched at
// most once; a send failure is logged, not retried.
type DispatchWorker struct {
	DB          *gorm.DB
	Enrollments orchestrator.EnrollmentRepository
	Workflows   orchestrator.WorkflowRepository
	Contacts    orchestrator.ContactRepository
	Senders     utils.SenderRegistry
	Generator   utils.ContentGenerator // nil disables AI content
	BaseURL     string
	Interval    time.Duration
	Logger      *log.Logger
}

func NewDispatchWorker(db *gorm.DB, enrollments orchestrator.EnrollmentRepository,
	workflows orchestrator.WorkflowRepository, contacts orchestrator.ContactRepository,
	senders utils.SenderRegistry, generator utils.ContentGenerator,
	baseURL string, interval time.Duration, logger *log.Logger) *DispatchWorker {
	return &DispatchWorker{
		DB:          db,
		Enrollments: enrollments,
		Workflows:   workflows,
		Contacts:    contacts,
		Senders:     senders,
		Generator:   generator,
		BaseURL:     baseURL,
		Interval:    interval,
		Logger:      logger,
	}
}

func (dw *DispatchWorker) Start(ctx context.Context) {
	dw.Logger.Println("Dispatch worker started")

	ticker := time.NewTicker(dw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			dw.Logger.Println("Dispatch worker shutting down...")
			return
		case <-ticker.C:
			dw.processDueActions(ctx)
		}
	}
}

func (dw *DispatchWorker) processDueActions(ctx context.Context) {
	due, err := dw.Enrollments.ListDue(time.Now(), dispatchBatchSize)
	if err != nil {
		dw.Logger.Printf("Error fetching due actions: %v", err)
		return
	}

	for i := range due {
		if ctx.Err() != nil {
			return
		}
		if err := dw.dispatch(ctx, &due[i]); err != nil {
			dw.Logger.Printf("Error dispatching enrollment %d: %v", due[i].ID, err)
		}
	}
}

func (dw *DispatchWorker) dispatch(ctx context.Context, e *models.LeadEnrollment) error {
	if e.NextAction == nil {
		return nil
	}

	workflow, err := dw.Workflows.Get(e.WorkflowID)
	if err != nil {
		return err
	}
	if workflow == nil {
		return dw.fail(e, "workflow deleted")
	}

	contact, err := dw.Contacts.Get(e.ContactID)
	if err != nil {
		return err
	}
	if contact == nil {
		return dw.fail(e, "contact deleted")
	}
	if !contact.Reachable() {
		e.Status = models.EnrollmentStatusOptedOut
		e.NextAction = nil
		e.LastActivity = time.Now()
		return dw.Enrollments.Update(e)
	}

	subject, body, err := dw.renderMessage(ctx, workflow, contact, e)
	if err != nil {
		return dw.fail(e, err.Error())
	}

	sender, ok := dw.Senders[e.NextAction.Channel]
	if !ok {
		// channel not configured; leave the action pending so it goes out
		// once a sender is registered
		dw.Logger.Printf("No sender configured for channel %s (enrollment %d)", e.NextAction.Channel, e.ID)
		return nil
	}

	messageID := uuid.New().String()
	if e.NextAction.Channel == models.ChannelEmail {
		body = utils.InjectTracking(body, dw.BaseURL, messageID)
	}

	providerID, sendErr := sender.Send(utils.OutboundMessage{
		To:      contact,
		Channel: e.NextAction.Channel,
		Subject: subject,
		Body:    body,
	})

	// Dispatched at most once: the action is marked sent even when the
	// provider rejected it, so a flaky SMTP server cannot spam the lead.
	now := time.Now()
	e.NextAction.MessageID = messageID
	e.NextAction.DispatchedAt = &now
	e.LastActivity = now
	if err := dw.Enrollments.Update(e); err != nil {
		return err
	}

	if sendErr != nil {
		utils.LogError("dispatch_send_failed", sendErr, map[string]interface{}{
			"enrollment_id": e.ID,
			"channel":       e.NextAction.Channel,
			"message_id":    messageID,
		})
		return sendErr
	}

	utils.LogEvent("message_dispatched", map[string]interface{}{
		"enrollment_id": e.ID,
		"workflow_id":   e.WorkflowID,
		"contact_id":    e.ContactID,
		"channel":       e.NextAction.Channel,
		"message_id":    messageID,
		"provider_id":   providerID,
	})
	return nil
}

func (dw *DispatchWorker) renderMessage(ctx context.Context, workflow *models.Workflow,
	contact *models.Contact, e *models.LeadEnrollment) (string, string, error) {

	var template models.Template
	if err := dw.DB.First(&template, e.NextAction.TemplateID).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return "", "", err
		}
		return "", "", fmt.Errorf("template %d not found", e.NextAction.TemplateID)
	}

	vars := map[string]string{
		"first_name": contact.FirstName,
		"last_name":  contact.LastName,
		"company":    contact.Company,
		"position":   contact.Position,
		"email":      contact.Email,
	}

	subject := utils.RenderTemplate(template.Subject, vars)
	body := utils.RenderTemplate(template.Body, vars)

	if workflow.AIOptimization.OptimizeContent && dw.Generator != nil {
		prompt := fmt.Sprintf(
			"Personalize this %s follow-up message for %s %s at %s. Keep the intent, adjust the wording:\n\n%s",
			e.NextAction.Channel, contact.FirstName, contact.LastName, contact.Company, body,
		)
		generated, err := dw.Generator.Generate(ctx, prompt, vars)
		if err != nil {
			// fall back to the rendered template
			dw.Logger.Printf("Content generation failed for enrollment %d: %v", e.ID, err)
		} else if generated != "" {
			body = generated
		}
	}

	return subject, body, nil
}

func (dw *DispatchWorker) fail(e *models.LeadEnrollment, reason string) error {
	dw.Logger.Printf("Failing enrollment %d: %s", e.ID, reason)
	e.Status = models.EnrollmentStatusFailed
	e.NextAction = nil
	e.LastActivity = time.Now()
	return dw.Enrollments.Update(e)
}

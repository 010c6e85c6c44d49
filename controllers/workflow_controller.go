package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"leadflow/models"
	"leadflow/orchestrator"
	"leadflow/utils"
)

type WorkflowController struct {
	Service *orchestrator.Service
	Logger  *log.Logger
}

func NewWorkflowController(svc *orchestrator.Service, logger *log.Logger) *WorkflowController {
	return &WorkflowController{
		Service: svc,
		Logger:  logger,
	}
}

// CreateWorkflow creates a new follow-up workflow definition
func (wc *WorkflowController) CreateWorkflow(c *fiber.Ctx) error {
	var input models.Workflow
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := wc.Service.CreateWorkflow(&input); err != nil {
		if ve, ok := orchestrator.IsValidationError(err); ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": ve.Error(),
				"field": ve.Field,
			})
		}
		wc.Logger.Printf("failed to create workflow: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create workflow",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Workflow created successfully",
		"workflow": input,
	})
}

// GetWorkflows returns all workflow definitions
func (wc *WorkflowController) GetWorkflows(c *fiber.Ctx) error {
	workflows, err := wc.Service.ListWorkflows()
	if err != nil {
		wc.Logger.Printf("failed to list workflows: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch workflows",
		})
	}
	return c.JSON(workflows)
}

// GetWorkflow returns a single workflow definition
func (wc *WorkflowController) GetWorkflow(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))
	workflow, err := wc.Service.GetWorkflow(id)
	if err != nil {
		wc.Logger.Printf("failed to fetch workflow %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch workflow",
		})
	}
	if workflow == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Workflow not found",
		})
	}
	return c.JSON(workflow)
}

// UpdateWorkflow applies a partial update to a workflow definition
func (wc *WorkflowController) UpdateWorkflow(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	var patch orchestrator.WorkflowPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	workflow, err := wc.Service.UpdateWorkflow(id, patch)
	if err != nil {
		if ve, ok := orchestrator.IsValidationError(err); ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": ve.Error(),
				"field": ve.Field,
			})
		}
		wc.Logger.Printf("failed to update workflow %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update workflow",
		})
	}
	if workflow == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Workflow not found",
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Workflow updated successfully",
		"workflow": workflow,
	})
}

// DeleteWorkflow removes a workflow and all of its enrollments
func (wc *WorkflowController) DeleteWorkflow(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	deleted, err := wc.Service.DeleteWorkflow(id)
	if err != nil {
		wc.Logger.Printf("failed to delete workflow %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete workflow",
		})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Workflow not found",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Workflow deleted successfully",
	})
}

// EnrollLead enrolls a contact into a workflow
func (wc *WorkflowController) EnrollLead(c *fiber.Ctx) error {
	workflowID := utils.ParseUint(c.Params("id"))

	var input struct {
		ContactID uint              `json:"contact_id"`
		Metadata  map[string]string `json:"metadata"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	enrollment, err := wc.Service.Enroll(workflowID, input.ContactID, input.Metadata)
	if err != nil {
		wc.Logger.Printf("failed to enroll contact %d in workflow %d: %v", input.ContactID, workflowID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to enroll lead",
		})
	}
	if enrollment == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Workflow not found or not active",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Lead enrolled successfully",
		"enrollment": enrollment,
	})
}

// TriggerEvent fires a trigger event, enrolling the contact into every
// matching active workflow
func (wc *WorkflowController) TriggerEvent(c *fiber.Ctx) error {
	var input struct {
		Event     models.TriggerKind `json:"event"`
		ContactID uint               `json:"contact_id"`
		Metadata  map[string]string  `json:"metadata"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if !input.Event.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown trigger event",
		})
	}

	enrollments, err := wc.Service.HandleTrigger(input.Event, input.ContactID, input.Metadata)
	if err != nil {
		wc.Logger.Printf("trigger %s for contact %d failed: %v", input.Event, input.ContactID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process trigger",
		})
	}

	return c.JSON(fiber.Map{
		"message":     "Trigger processed",
		"enrollments": enrollments,
	})
}

// GenerateTemplate builds a pre-built workflow skeleton for a campaign objective
func (wc *WorkflowController) GenerateTemplate(c *fiber.Ctx) error {
	var input struct {
		Objective      string           `json:"objective"`
		TargetAudience string           `json:"target_audience"`
		Channels       []models.Channel `json:"channels"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	for _, ch := range input.Channels {
		if !ch.IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown channel: " + string(ch),
			})
		}
	}

	workflow := orchestrator.GenerateWorkflowTemplate(input.Objective, input.TargetAudience, input.Channels)
	return c.JSON(fiber.Map{
		"workflow": workflow,
	})
}

// PredictPerformance estimates open/response/conversion rates for a workflow
func (wc *WorkflowController) PredictPerformance(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	workflow, err := wc.Service.GetWorkflow(id)
	if err != nil {
		wc.Logger.Printf("failed to fetch workflow %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch workflow",
		})
	}
	if workflow == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Workflow not found",
		})
	}

	prediction := orchestrator.PredictWorkflowPerformance(workflow)
	return c.JSON(fiber.Map{
		"workflow_id": workflow.ID,
		"prediction":  prediction,
	})
}

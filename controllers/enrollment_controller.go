package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"leadflow/models"
	"leadflow/orchestrator"
	"leadflow/utils"
)

type EnrollmentController struct {
	Service *orchestrator.Service
	Logger  *log.Logger
}

func NewEnrollmentController(svc *orchestrator.Service, logger *log.Logger) *EnrollmentController {
	return &EnrollmentController{
		Service: svc,
		Logger:  logger,
	}
}

// GetEnrollment returns a single enrollment with its response history
func (ec *EnrollmentController) GetEnrollment(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	enrollment, err := ec.Service.GetEnrollment(id)
	if err != nil {
		ec.Logger.Printf("failed to fetch enrollment %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch enrollment",
		})
	}
	if enrollment == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Enrollment not found",
		})
	}
	return c.JSON(enrollment)
}

// RecordResponse records a lead engagement signal against an enrollment.
// Clicks and replies advance the sequence; opens, shares and conversions are
// recorded without advancing.
func (ec *EnrollmentController) RecordResponse(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	var input struct {
		ResponseType models.ResponseType `json:"response_type"`
		Content      string              `json:"content"`
		LeadScore    *int                `json:"lead_score"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if !input.ResponseType.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown response type",
		})
	}

	recorded, err := ec.Service.RecordResponse(id, input.ResponseType, input.Content, input.LeadScore)
	if err != nil {
		ec.Logger.Printf("failed to record %s on enrollment %d: %v", input.ResponseType, id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record response",
		})
	}
	if !recorded {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Enrollment not found or not active",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Response recorded",
	})
}

// AdvanceEnrollment manually advances an enrollment to its next step
func (ec *EnrollmentController) AdvanceEnrollment(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	advanced, err := ec.Service.AdvanceToNextStep(id)
	if err != nil {
		ec.Logger.Printf("failed to advance enrollment %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to advance enrollment",
		})
	}
	if !advanced {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Enrollment not found or already finished",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Enrollment advanced",
	})
}

// UpdateStatus changes an enrollment's lifecycle status (pause, resume, opt out)
func (ec *EnrollmentController) UpdateStatus(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	var input struct {
		Status models.EnrollmentStatus `json:"status"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if !input.Status.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown enrollment status",
		})
	}

	updated, err := ec.Service.UpdateEnrollmentStatus(id, input.Status)
	if err != nil {
		ec.Logger.Printf("failed to set enrollment %d status to %s: %v", id, input.Status, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update enrollment status",
		})
	}
	if !updated {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Enrollment not found",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Enrollment status updated",
	})
}

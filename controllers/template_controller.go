package controller

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"leadflow/models"
	"leadflow/utils"
)

type TemplateController struct {
	DB        *gorm.DB
	Logger    *log.Logger
	Generator utils.ContentGenerator // nil when no API key is configured
}

func NewTemplateController(db *gorm.DB, logger *log.Logger, gen utils.ContentGenerator) *TemplateController {
	return &TemplateController{
		DB:        db,
		Logger:    logger,
		Generator: gen,
	}
}

// CreateTemplate stores a new message template
func (tc *TemplateController) CreateTemplate(c *fiber.Ctx) error {
	var input struct {
		Name    string         `json:"name" validate:"required,max=200"`
		Channel models.Channel `json:"channel" validate:"required"`
		Subject string         `json:"subject"`
		Body    string         `json:"body" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if !input.Channel.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown channel",
		})
	}

	template := models.Template{
		Name:    input.Name,
		Channel: input.Channel,
		Subject: input.Subject,
		Body:    input.Body,
		Status:  "active",
	}
	if err := tc.DB.Create(&template).Error; err != nil {
		tc.Logger.Printf("failed to create template: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create template",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Template created successfully",
		"template": template,
	})
}

// GetTemplates returns all templates, optionally filtered by channel
func (tc *TemplateController) GetTemplates(c *fiber.Ctx) error {
	query := tc.DB.Where("status = ?", "active")
	if channel := c.Query("channel"); channel != "" {
		query = query.Where("channel = ?", channel)
	}

	var templates []models.Template
	if err := query.Find(&templates).Error; err != nil {
		tc.Logger.Printf("failed to list templates: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch templates",
		})
	}
	return c.JSON(templates)
}

// GetTemplate returns a single template
func (tc *TemplateController) GetTemplate(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	var template models.Template
	if err := tc.DB.First(&template, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Template not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch template",
		})
	}
	return c.JSON(template)
}

// UpdateTemplate updates a template in place
func (tc *TemplateController) UpdateTemplate(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	var template models.Template
	if err := tc.DB.First(&template, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Template not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch template",
		})
	}

	var input struct {
		Name    *string `json:"name"`
		Subject *string `json:"subject"`
		Body    *string `json:"body"`
		Status  *string `json:"status"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Name != nil {
		template.Name = *input.Name
	}
	if input.Subject != nil {
		template.Subject = *input.Subject
	}
	if input.Body != nil {
		template.Body = *input.Body
	}
	if input.Status != nil {
		template.Status = *input.Status
	}

	if err := tc.DB.Save(&template).Error; err != nil {
		tc.Logger.Printf("failed to update template %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update template",
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Template updated successfully",
		"template": template,
	})
}

// DeleteTemplate archives a template. Workflow steps keep referencing
// archived templates so in-flight enrollments are not broken.
func (tc *TemplateController) DeleteTemplate(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	result := tc.DB.Model(&models.Template{}).Where("id = ?", id).Update("status", "archived")
	if result.Error != nil {
		tc.Logger.Printf("failed to archive template %d: %v", id, result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete template",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Template not found",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Template archived successfully",
	})
}

// GenerateTemplate drafts template copy with the configured AI generator
func (tc *TemplateController) GenerateTemplate(c *fiber.Ctx) error {
	if tc.Generator == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Content generation is not configured",
		})
	}

	var input struct {
		Channel   models.Channel `json:"channel" validate:"required"`
		Objective string         `json:"objective" validate:"required,max=500"`
		Audience  string         `json:"audience" validate:"max=500"`
		Tone      string         `json:"tone" validate:"max=100"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if !input.Channel.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown channel",
		})
	}

	prompt := fmt.Sprintf(
		"Write a %s follow-up message for this objective: %s.",
		input.Channel, input.Objective,
	)
	if input.Audience != "" {
		prompt += " Audience: " + input.Audience + "."
	}
	if input.Tone != "" {
		prompt += " Tone: " + input.Tone + "."
	}
	prompt += " Use {{first_name}} and {{company}} placeholders where natural."

	body, err := tc.Generator.Generate(c.Context(), prompt, nil)
	if err != nil {
		utils.LogError("template_generation_failed", err, map[string]interface{}{
			"channel":   input.Channel,
			"objective": input.Objective,
		})
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Content generation failed",
		})
	}

	return c.JSON(fiber.Map{
		"channel": input.Channel,
		"body":    body,
	})
}

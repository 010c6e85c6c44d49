package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"leadflow/orchestrator"
	"leadflow/utils"
)

type AnalyticsController struct {
	Service *orchestrator.Service
	Logger  *log.Logger
}

func NewAnalyticsController(svc *orchestrator.Service, logger *log.Logger) *AnalyticsController {
	return &AnalyticsController{
		Service: svc,
		Logger:  logger,
	}
}

// GetAnalytics returns aggregate analytics across all workflows
func (ac *AnalyticsController) GetAnalytics(c *fiber.Ctx) error {
	analytics, err := ac.Service.WorkflowAnalytics(nil)
	if err != nil {
		ac.Logger.Printf("failed to compute analytics: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute analytics",
		})
	}
	return c.JSON(analytics)
}

// GetWorkflowAnalytics returns analytics scoped to a single workflow
func (ac *AnalyticsController) GetWorkflowAnalytics(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	analytics, err := ac.Service.WorkflowAnalytics(&id)
	if err != nil {
		ac.Logger.Printf("failed to compute analytics for workflow %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute analytics",
		})
	}
	if analytics == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Workflow not found",
		})
	}
	return c.JSON(analytics)
}

// HandleAnalyticsWS streams analytics snapshots over a websocket so
// dashboards can follow enrollment progress live
func (ac *AnalyticsController) HandleAnalyticsWS(c *websocket.Conn) {
	defer c.Close()

	var input struct {
		WorkflowID      *uint `json:"workflow_id"`
		IntervalSeconds int   `json:"interval_seconds"`
	}
	if err := c.ReadJSON(&input); err != nil {
		log.Printf("Error reading JSON: %v", err)
		return
	}

	interval := time.Duration(input.IntervalSeconds) * time.Second
	if interval < time.Second {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		analytics, err := ac.Service.WorkflowAnalytics(input.WorkflowID)
		if err != nil {
			log.Printf("Error computing analytics: %v", err)
			return
		}
		if analytics == nil {
			_ = c.WriteJSON(fiber.Map{"error": "workflow not found"})
			return
		}

		if err := c.WriteJSON(analytics); err != nil {
			log.Printf("Error writing JSON: %v", err)
			return
		}

		<-ticker.C
	}
}

package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	"leadflow/config"
	controller "leadflow/controllers"
	"leadflow/middleware"
	"leadflow/orchestrator"
	"leadflow/utils"
)

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, svc *orchestrator.Service) {
	// Initialize controllers with their respective loggers
	workflowController := controller.NewWorkflowController(svc, log.New(os.Stdout, "WORKFLOW: ", log.LstdFlags))
	enrollmentController := controller.NewEnrollmentController(svc, log.New(os.Stdout, "ENROLLMENT: ", log.LstdFlags))
	contactController := controller.NewContactController(db, svc, log.New(os.Stdout, "CONTACT: ", log.LstdFlags))
	analyticsController := controller.NewAnalyticsController(svc, log.New(os.Stdout, "ANALYTICS: ", log.LstdFlags))
	trackingController := controller.NewTrackingController(svc, log.New(os.Stdout, "TRACKING: ", log.LstdFlags))

	var generator utils.ContentGenerator
	if config.AppConfig.OpenAIKey != "" {
		generator = utils.NewOpenAIGenerator(config.AppConfig.OpenAIKey, config.AppConfig.OpenAIModel)
	}
	templateController := controller.NewTemplateController(db, log.New(os.Stdout, "TEMPLATE: ", log.LstdFlags), generator)

	// API group with versioning, rate limiting and request logging
	api := app.Group("/api/v1", middleware.APIRateLimiter(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Workflow routes
	workflow := api.Group("/workflows")
	workflow.Post("/", workflowController.CreateWorkflow)
	workflow.Get("/", workflowController.GetWorkflows)
	workflow.Get("/:id", workflowController.GetWorkflow)
	workflow.Put("/:id", workflowController.UpdateWorkflow)
	workflow.Delete("/:id", workflowController.DeleteWorkflow)
	workflow.Post("/:id/enroll", workflowController.EnrollLead)
	workflow.Get("/:id/analytics", analyticsController.GetWorkflowAnalytics)
	workflow.Get("/:id/predict", workflowController.PredictPerformance)
	workflow.Post("/generate", workflowController.GenerateTemplate)

	// Trigger endpoint for external events (form submitted, cart abandoned, ...)
	api.Post("/triggers", workflowController.TriggerEvent)

	// Enrollment routes
	enrollment := api.Group("/enrollments")
	enrollment.Get("/:id", enrollmentController.GetEnrollment)
	enrollment.Post("/:id/responses", enrollmentController.RecordResponse)
	enrollment.Post("/:id/advance", enrollmentController.AdvanceEnrollment)
	enrollment.Put("/:id/status", enrollmentController.UpdateStatus)

	// Contact routes
	contact := api.Group("/contacts")
	contact.Post("/", contactController.CreateContact)
	contact.Get("/", contactController.GetContacts)
	contact.Get("/:id", contactController.GetContact)
	contact.Put("/:id", contactController.UpdateContact)
	contact.Delete("/:id", contactController.DeleteContact)
	contact.Post("/:id/opt-out", contactController.OptOutContact)
	contact.Post("/:id/verify", contactController.VerifyContact)
	contact.Get("/:id/preferences", contactController.GetContactPreferences)

	// Template routes
	template := api.Group("/templates")
	template.Post("/", templateController.CreateTemplate)
	template.Get("/", templateController.GetTemplates)
	template.Get("/:id", templateController.GetTemplate)
	template.Put("/:id", templateController.UpdateTemplate)
	template.Delete("/:id", templateController.DeleteTemplate)
	template.Post("/generate", templateController.GenerateTemplate)

	// Analytics routes
	api.Get("/analytics", analyticsController.GetAnalytics)

	// WebSocket route for live analytics
	app.Get("/api/v1/analytics/live", websocket.New(func(c *websocket.Conn) {
		analyticsController.HandleAnalyticsWS(c)
	}))

	// Tracking routes stay outside the rate-limited API group; they are hit
	// by lead mail clients, not dashboard users
	app.Get("/track/open/:messageID/:token", trackingController.TrackOpen)
	app.Get("/track/click/:messageID/:token", trackingController.TrackClick)

	// Log initialization
	log.Println("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, db *gorm.DB, svc *orchestrator.Service) {
	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Setup API routes
	SetupAPIRoutes(app, db, svc)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}

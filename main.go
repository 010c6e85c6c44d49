package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"leadflow/config"
	"leadflow/middleware"
	"leadflow/models"
	"leadflow/orchestrator"
	"leadflow/routes"
	"leadflow/store"
	"leadflow/utils"
	"leadflow/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "LEADFLOW: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Sentry error reporting
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Build the orchestration service over the GORM repositories
	st := store.NewGormStore(config.DB)
	svc := orchestrator.NewService(
		st.Workflows(),
		st.Enrollments(),
		st.Preferences(),
		st.Contacts(),
		log.New(os.Stdout, "ORCHESTRATOR: ", log.LstdFlags),
	)

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Register channel senders. Only email ships a real transport; other
	// channels plug in through the same registry.
	senders := utils.SenderRegistry{}
	if config.AppConfig.SMTP.Host != "" {
		senders[models.ChannelEmail] = utils.NewMailer(
			config.AppConfig.SMTP.Host,
			config.AppConfig.SMTP.Port,
			config.AppConfig.SMTP.Username,
			config.AppConfig.SMTP.Password,
			config.AppConfig.SMTP.FromEmail,
			config.AppConfig.SMTP.FromName,
		)
	}

	var generator utils.ContentGenerator
	if config.AppConfig.OpenAIKey != "" {
		generator = utils.NewOpenAIGenerator(config.AppConfig.OpenAIKey, config.AppConfig.OpenAIModel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize and start the dispatch worker
	dispatchWorker := worker.NewDispatchWorker(
		config.DB,
		st.Enrollments(),
		st.Workflows(),
		st.Contacts(),
		senders,
		generator,
		config.AppConfig.BaseURL,
		config.AppConfig.DispatchInterval,
		log.New(os.Stdout, "DISPATCH: ", log.LstdFlags),
	)
	go dispatchWorker.Start(ctx)

	// Start the reply worker when an inbox is configured
	if config.AppConfig.IMAP.Host != "" {
		replyWorker := worker.NewReplyWorker(
			config.DB,
			svc,
			config.AppConfig.IMAP,
			config.AppConfig.ReplyPollInterval,
			log.New(os.Stdout, "REPLY: ", log.LstdFlags),
		)
		go replyWorker.Start(ctx)
	}

	// Setup routes
	routes.SetupRoutes(app, config.DB, svc)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}

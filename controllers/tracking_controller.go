package controller

import (
	"log"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"leadflow/models"
	"leadflow/orchestrator"
)

// trackingPixel is a 1x1 transparent GIF served for open tracking
var trackingPixel = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

type TrackingController struct {
	Service *orchestrator.Service
	Logger  *log.Logger
}

func NewTrackingController(svc *orchestrator.Service, logger *log.Logger) *TrackingController {
	return &TrackingController{
		Service: svc,
		Logger:  logger,
	}
}

// TrackOpen serves the open-tracking pixel and records an opened response.
// Always returns the pixel; the lead's mail client must never see an error.
func (tc *TrackingController) TrackOpen(c *fiber.Ctx) error {
	messageID := c.Params("messageID")

	if enrollment := tc.resolve(messageID); enrollment != nil {
		if _, err := tc.Service.RecordResponse(enrollment.ID, models.ResponseOpened, "", nil); err != nil {
			tc.Logger.Printf("failed to record open for message %s: %v", messageID, err)
		}
	}

	c.Set("Content-Type", "image/gif")
	c.Set("Cache-Control", "no-store, no-cache, must-revalidate")
	return c.Send(trackingPixel)
}

// TrackClick records a clicked response and redirects to the original URL
func (tc *TrackingController) TrackClick(c *fiber.Ctx) error {
	messageID := c.Params("messageID")

	target, err := url.QueryUnescape(c.Query("url"))
	if err != nil || target == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing redirect URL",
		})
	}

	if enrollment := tc.resolve(messageID); enrollment != nil {
		if _, err := tc.Service.RecordResponse(enrollment.ID, models.ResponseClicked, target, nil); err != nil {
			tc.Logger.Printf("failed to record click for message %s: %v", messageID, err)
		}
	}

	return c.Redirect(target, fiber.StatusFound)
}

func (tc *TrackingController) resolve(messageID string) *models.LeadEnrollment {
	if messageID == "" {
		return nil
	}
	enrollment, err := tc.Service.FindEnrollmentByMessage(messageID)
	if err != nil {
		tc.Logger.Printf("message lookup failed for %s: %v", messageID, err)
		return nil
	}
	return enrollment
}

package controller

import (
	"log"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"github.com/nyaruka/phonenumbers"
	"gorm.io/gorm"

	"leadflow/config"
	"leadflow/models"
	"leadflow/orchestrator"
	"leadflow/utils"
)

type ContactController struct {
	DB      *gorm.DB
	Service *orchestrator.Service
	Logger  *log.Logger
}

func NewContactController(db *gorm.DB, svc *orchestrator.Service, logger *log.Logger) *ContactController {
	return &ContactController{
		DB:      db,
		Service: svc,
		Logger:  logger,
	}
}

type contactInput struct {
	Email     string   `json:"email" validate:"required,email"`
	FirstName string   `json:"first_name" validate:"max=100"`
	LastName  string   `json:"last_name" validate:"max=100"`
	Company   string   `json:"company" validate:"max=200"`
	Position  string   `json:"position" validate:"max=200"`
	Phone     string   `json:"phone"`
	Timezone  string   `json:"timezone"`
	Source    string   `json:"source"`
	Tags      []string `json:"tags"`
}

// CreateContact adds a new contact
func (cc *ContactController) CreateContact(c *fiber.Ctx) error {
	var input contactInput
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
	if err := checkmail.ValidateFormat(input.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid email address",
		})
	}

	phone, err := normalizePhone(input.Phone)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid phone number",
		})
	}

	contact := models.Contact{
		Email:     strings.ToLower(input.Email),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Company:   input.Company,
		Position:  input.Position,
		Phone:     phone,
		Timezone:  input.Timezone,
		Source:    input.Source,
	}
	for _, tag := range input.Tags {
		contact.Tags = append(contact.Tags, models.ContactTag{Tag: tag})
	}

	if err := cc.DB.Create(&contact).Error; err != nil {
		cc.Logger.Printf("failed to create contact: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create contact",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Contact created successfully",
		"contact": contact,
	})
}

// GetContacts returns all contacts
func (cc *ContactController) GetContacts(c *fiber.Ctx) error {
	var contacts []models.Contact
	if err := cc.DB.Preload("Tags").Find(&contacts).Error; err != nil {
		cc.Logger.Printf("failed to list contacts: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch contacts",
		})
	}
	return c.JSON(contacts)
}

// GetContact returns a single contact
func (cc *ContactController) GetContact(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	var contact models.Contact
	if err := cc.DB.Preload("Tags").First(&contact, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Contact not found",
			})
		}
		cc.Logger.Printf("failed to fetch contact %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch contact",
		})
	}
	return c.JSON(contact)
}

// UpdateContact applies a partial update to a contact
func (cc *ContactController) UpdateContact(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	var contact models.Contact
	if err := cc.DB.First(&contact, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Contact not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch contact",
		})
	}

	var input map[string]interface{}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Only whitelisted columns are updatable
	allowed := map[string]bool{
		"first_name": true, "last_name": true, "company": true,
		"position": true, "phone": true, "timezone": true, "source": true,
	}
	updates := map[string]interface{}{}
	for k, v := range input {
		if allowed[k] {
			updates[k] = v
		}
	}

	if phone, ok := updates["phone"].(string); ok && phone != "" {
		normalized, err := normalizePhone(phone)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid phone number",
			})
		}
		updates["phone"] = normalized
	}

	if len(updates) > 0 {
		if err := cc.DB.Model(&contact).Updates(updates).Error; err != nil {
			cc.Logger.Printf("failed to update contact %d: %v", id, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update contact",
			})
		}
	}

	return c.JSON(fiber.Map{
		"message": "Contact updated successfully",
		"contact": contact,
	})
}

// DeleteContact removes a contact and its tags
func (cc *ContactController) DeleteContact(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	result := cc.DB.Delete(&models.Contact{}, id)
	if result.Error != nil {
		cc.Logger.Printf("failed to delete contact %d: %v", id, result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete contact",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Contact not found",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Contact deleted successfully",
	})
}

// OptOutContact marks a contact as do-not-contact and opts out every active
// enrollment they have
func (cc *ContactController) OptOutContact(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	if err := cc.DB.Model(&models.Contact{}).Where("id = ?", id).
		Update("is_do_not_contact", true).Error; err != nil {
		cc.Logger.Printf("failed to flag contact %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to opt out contact",
		})
	}

	optedOut, err := cc.Service.OptOutContact(id)
	if err != nil {
		cc.Logger.Printf("failed to opt out enrollments for contact %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to opt out contact",
		})
	}

	return c.JSON(fiber.Map{
		"message":              "Contact opted out",
		"enrollments_affected": optedOut,
	})
}

// VerifyContact runs syntax, MX and WHOIS checks on the contact's email
func (cc *ContactController) VerifyContact(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	var contact models.Contact
	if err := cc.DB.First(&contact, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Contact not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch contact",
		})
	}

	result := utils.VerifyEmail(contact.Email, c.QueryBool("whois"))
	if result.Deliverable != contact.IsVerified {
		if err := cc.DB.Model(&contact).Update("is_verified", result.Deliverable).Error; err != nil {
			cc.Logger.Printf("failed to store verification for contact %d: %v", id, err)
		}
	}

	return c.JSON(result)
}

// GetContactPreferences returns the contact's learned channel preferences
func (cc *ContactController) GetContactPreferences(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	pref, err := cc.Service.GetChannelPreference(id)
	if err != nil {
		cc.Logger.Printf("failed to fetch preferences for contact %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch preferences",
		})
	}
	if pref == nil {
		return c.JSON(fiber.Map{
			"contact_id": id,
			"channels":   fiber.Map{},
		})
	}
	return c.JSON(pref)
}

func normalizePhone(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	num, err := phonenumbers.Parse(raw, config.AppConfig.SMSRegion)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", utils.ErrInvalidPhoneNumber
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

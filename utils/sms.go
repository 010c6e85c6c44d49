package utils

import (
	"errors"
	"log"

	"github.com/nyaruka/phonenumbers"
)

var (
	// ErrInvalidPhoneNumber is returned when the phone number format is invalid
	ErrInvalidPhoneNumber = errors.New("invalid phone number format")
	// ErrNoPhoneNumber is returned when the contact has no phone number
	ErrNoPhoneNumber = errors.New("contact has no phone number")
)

// SMSProvider is implemented by SMS gateways (Twilio and friends)
type SMSProvider interface {
	SendSMS(to, body string) (sid string, err error)
}

// SMSSender validates and normalizes numbers before handing the message to
// the configured provider
type SMSSender struct {
	provider      SMSProvider
	defaultRegion string
	logger        *log.Logger
}

func NewSMSSender(provider SMSProvider, defaultRegion string, logger *log.Logger) *SMSSender {
	if defaultRegion == "" {
		defaultRegion = "US"
	}
	return &SMSSender{
		provider:      provider,
		defaultRegion: defaultRegion,
		logger:        logger,
	}
}

// Send delivers an SMS message to the contact's normalized phone number
func (s *SMSSender) Send(msg OutboundMessage) (string, error) {
	if msg.To == nil || msg.To.Phone == "" {
		return "", ErrNoPhoneNumber
	}

	normalized, err := s.NormalizePhone(msg.To.Phone)
	if err != nil {
		return "", err
	}

	sid, err := s.provider.SendSMS(normalized, msg.Body)
	if err != nil {
		return "", err
	}
	s.logger.Printf("sent SMS to %s (sid %s)", normalized, sid)
	return sid, nil
}

// NormalizePhone parses and validates a phone number, returning E.164 format
func (s *SMSSender) NormalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, s.defaultRegion)
	if err != nil {
		return "", ErrInvalidPhoneNumber
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhoneNumber
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

var _ ChannelSender = (*SMSSender)(nil)
var _ ChannelSender = (*Mailer)(nil)

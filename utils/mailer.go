package utils

import (
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer is the SMTP-backed email channel sender
type Mailer struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	fromName  string
}

func NewMailer(host string, port int, username, password, fromEmail, fromName string) *Mailer {
	return &Mailer{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// Send delivers an email message over SMTP
func (m *Mailer) Send(msg OutboundMessage) (string, error) {
	if msg.To == nil || msg.To.Email == "" {
		return "", errors.New("recipient email is required")
	}

	mail := gomail.NewMessage()
	mail.SetAddressHeader("From", m.fromEmail, m.fromName)
	mail.SetHeader("To", msg.To.Email)
	mail.SetHeader("Subject", msg.Subject)
	mail.SetBody("text/html", msg.Body)

	dialer := gomail.NewDialer(m.host, m.port, m.username, m.password)
	if err := dialer.DialAndSend(mail); err != nil {
		return "", fmt.Errorf("failed to send email to %s: %w", msg.To.Email, err)
	}
	return "", nil
}

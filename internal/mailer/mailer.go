package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/sky366trade/backend/internal/config"
)

// Sender delivers email. Satisfied by EmailService and by test fakes.
type Sender interface {
	Send(to, subject, body string) error
}

// EmailService sends mail through a plain SMTP transport.
type EmailService struct {
	cfg config.SMTPConfig
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Send sends a plain-text email.
func (s *EmailService) Send(to, subject, body string) error {
	if s.cfg.Host == "" || s.cfg.User == "" {
		return fmt.Errorf("SMTP not configured")
	}

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)

	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg)
}

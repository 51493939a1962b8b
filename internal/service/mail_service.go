package service

import (
	"fmt"
	"log"

	"learnly/config"
	"learnly/internal/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// MailService sends transactional email through SendGrid. Every send is
// best-effort: enrollment must never fail because email did.
type MailService struct {
	cfg *config.MailConfig
}

func NewMailService(cfg *config.MailConfig) *MailService {
	return &MailService{cfg: cfg}
}

func (s *MailService) enabled() bool {
	return s != nil && s.cfg != nil && s.cfg.SendGridAPIKey != ""
}

// SendEnrollmentConfirmed emails the student after the reconciler created
// their enrollment.
func (s *MailService) SendEnrollmentConfirmed(user *models.User, course *models.Course) {
	if !s.enabled() {
		return
	}
	subject := "You're enrolled: " + course.Title
	plain := fmt.Sprintf("Hi %s,\n\nYour enrollment in %q is confirmed. Head to your dashboard to start learning.\n\n- The Learnly team", user.Name, course.Title)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Your enrollment in <strong>%s</strong> is confirmed. Head to your dashboard to start learning.</p><p>— The Learnly team</p>", user.Name, course.Title)
	s.send(user.Email, user.Name, subject, plain, html)
}

// SendPaymentFailed notifies the student that a checkout attempt did not settle.
func (s *MailService) SendPaymentFailed(user *models.User, course *models.Course) {
	if !s.enabled() {
		return
	}
	subject := "Payment not completed for " + course.Title
	plain := fmt.Sprintf("Hi %s,\n\nYour payment for %q did not go through. No charge was made; you can retry checkout at any time.\n\n- The Learnly team", user.Name, course.Title)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Your payment for <strong>%s</strong> did not go through. No charge was made; you can retry checkout at any time.</p><p>— The Learnly team</p>", user.Name, course.Title)
	s.send(user.Email, user.Name, subject, plain, html)
}

func (s *MailService) send(toEmail, toName, subject, plain, html string) {
	from := mail.NewEmail(s.cfg.FromName, s.cfg.FromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plain, html)
	client := sendgrid.NewSendClient(s.cfg.SendGridAPIKey)
	resp, err := client.Send(message)
	if err != nil {
		log.Printf("[Mail] send failed to=%s: %v", toEmail, err)
		return
	}
	if resp.StatusCode >= 300 {
		log.Printf("[Mail] send rejected to=%s status=%d", toEmail, resp.StatusCode)
	}
}

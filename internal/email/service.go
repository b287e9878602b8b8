package email

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/madadental/clinic-api/config"
)

type Service interface {
	// SendAppointmentNotice notifies the clinic inbox about a new booking
	// request.
	SendAppointmentNotice(ctx context.Context, name, phone string, date time.Time, notes string) error
}

type smtpService struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *smtpService) SendAppointmentNotice(ctx context.Context, name, phone string, date time.Time, notes string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.ClinicTo)
	m.SetHeader("Subject", fmt.Sprintf("New appointment request: %s", date.Format("Mon 2 Jan 15:04")))
	m.SetBody("text/plain", fmt.Sprintf(
		"A new appointment was requested.\n\nName: %s\nPhone: %s\nDate: %s\nNotes: %s\n",
		name, phone, date.Format(time.RFC1123), notes,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send appointment notice: %w", err)
	}
	return nil
}

package infra

import (
	"fmt"
	"net/smtp"

	"knitmes/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for the manual-reconciliation alerts the
// lifecycle raises when a confirmed roll ends up without a recorded location
// or a dispatched roll loses its storage update.
type Mailer struct {
	host     string
	port     int
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// SendAlert mails a plain-text reconciliation alert to the supervisor inbox.
func (m *Mailer) SendAlert(to, subject, body string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return e.Send(m.addr, auth)
}

package notify

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"github.com/eero-drew/eero-business-dashboard/internal/config"
)

// Email sends alert events over SMTP with STARTTLS. The password is read
// from the environment at send time so it never lands in config files.
type Email struct {
	cfg config.EmailConfig
}

func NewEmail(cfg config.EmailConfig) *Email {
	return &Email{cfg: cfg}
}

func (e *Email) Name() string { return "email" }

func (e *Email) configured() bool {
	return e != nil && e.cfg.Host != "" && e.cfg.User != ""
}

func (e *Email) Send(ev Event) error {
	if !e.configured() {
		return nil
	}
	to := e.cfg.To
	if to == "" {
		to = e.cfg.User
	}
	subject, body := formatAlertEmail(ev)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	auth := smtp.PlainAuth("", e.cfg.User, os.Getenv(e.cfg.PassEnv), e.cfg.Host)
	return smtp.SendMail(addr, auth, e.cfg.From, []string{to}, []byte(msg.String()))
}

func formatAlertEmail(ev Event) (subject, body string) {
	a := ev.Alert
	verb := "raised"
	at := a.RaisedAt
	if ev.Type == EventResolved && a.ResolvedAt != nil {
		verb = "resolved"
		at = *a.ResolvedAt
	}
	subject = fmt.Sprintf("[eero Dashboard] %s: %s alert %s for network %s",
		strings.ToUpper(a.Severity), a.Kind, verb, a.NetworkID)
	body = fmt.Sprintf("%s\n\nNetwork: %s\nKind: %s\nSeverity: %s\nWhen: %s\n",
		a.Message, a.NetworkID, a.Kind, a.Severity, at.UTC().Format("2006-01-02 15:04:05 UTC"))
	return subject, body
}

package utils

import (
	"Go_Vault/config"
	"crypto/tls"
	"errors"
	"html"
	"net/smtp"

	"github.com/jordan-wright/email"
)

// ErrSMTPConfigMissing is returned when the SMTP settings are incomplete.
var ErrSMTPConfigMissing = errors.New("smtp config missing")

// ShareMail is the content of a share notification.
type ShareMail struct {
	To         string
	SharedBy   string
	FileName   string
	Permission string
	Message    string
	InboxURL   string
}

// SendShareMail notifies a recipient that a file was shared with them.
func SendShareMail(m ShareMail) error {
	cfg := config.AppConfig
	if cfg.SMTPHost == "" || cfg.SMTPPort == "" || cfg.SMTPUser == "" || cfg.SMTPPass == "" || cfg.SMTPFrom == "" {
		return ErrSMTPConfigMissing
	}

	e := email.NewEmail()
	e.From = cfg.SMTPFrom
	e.To = []string{m.To}
	e.Subject = m.SharedBy + " shared a file with you"
	body := `<h2>A file was shared with you</h2>
		<p><b>` + html.EscapeString(m.SharedBy) + `</b> shared <b>` + html.EscapeString(m.FileName) +
		`</b> with you (` + html.EscapeString(m.Permission) + `).</p>`
	if m.Message != "" {
		body += `<blockquote>` + html.EscapeString(m.Message) + `</blockquote>`
	}
	if m.InboxURL != "" {
		body += `<p><a href="` + html.EscapeString(m.InboxURL) + `">Open your shared files</a> to accept or decline.</p>`
	}
	e.HTML = []byte(body)

	addr := cfg.SMTPHost + ":" + cfg.SMTPPort
	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	tlsConfig := &tls.Config{ServerName: cfg.SMTPHost}
	if cfg.SMTPTLS {
		return e.SendWithTLS(addr, auth, tlsConfig)
	}
	if cfg.SMTPStartTLS {
		return e.SendWithStartTLS(addr, auth, tlsConfig)
	}
	return e.Send(addr, auth)
}

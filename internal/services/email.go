package services

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/teamflow/teamflow/internal/config"
	"github.com/teamflow/teamflow/pkg/logger"
)

// Mailer is the outbound email collaborator. Retries and backoff are
// its responsibility, not the core's.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer sends mail through a plain or TLS SMTP connection.
type SMTPMailer struct {
	config *config.SMTPConfig
}

func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{config: cfg}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	cfg := m.config
	if !cfg.Enabled || cfg.Host == "" {
		logger.Debug().Str("to", to).Msg("smtp disabled, mail dropped")
		return nil
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	headers := map[string]string{
		"From":         from,
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	var err error
	if cfg.UseTLS {
		err = m.sendTLS(addr, auth, from, to, message.String())
	} else {
		err = smtp.SendMail(addr, auth, from, []string{to}, []byte(message.String()))
	}

	if err != nil {
		logger.Error().Err(err).Str("to", to).Msg("send email")
		return err
	}

	logger.Info().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}

func (m *SMTPMailer) sendTLS(addr string, auth smtp.Auth, from, to, message string) error {
	tlsConfig := &tls.Config{ServerName: m.config.Host}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.config.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(message)); err != nil {
		return err
	}
	return w.Close()
}

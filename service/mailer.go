package service

import (
	"time"

	mail "github.com/go-mail/mail/v2"
)

// SMTPMailer sends plain-text mail through a configured SMTP relay.
type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	d := mail.NewDialer(host, port, username, password)
	d.Timeout = 10 * time.Second
	d.StartTLSPolicy = mail.OpportunisticStartTLS
	return &SMTPMailer{dialer: d, from: from}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}

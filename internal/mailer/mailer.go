package mailer

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/hollis/causeconnect/pkg/config"
)

// Mailer delivers transactional mail (reset links, donation receipts)
// over SMTP.
type Mailer struct {
	cfg  *config.SMTPConfig
	auth smtp.Auth
}

func New(cfg *config.SMTPConfig) *Mailer {
	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &Mailer{cfg: cfg, auth: auth}
}

type Message struct {
	To      string
	Subject string
	Body    string
}

func (m *Mailer) Send(msg *Message) error {
	if m.cfg.Host == "" {
		return fmt.Errorf("SMTP host is not configured")
	}

	data := buildMessage(m.cfg.From, msg)
	addr := m.cfg.Addr()

	if m.cfg.UseTLS {
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Host})
		if err != nil {
			return fmt.Errorf("dialing smtp over tls: %w", err)
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, m.cfg.Host)
		if err != nil {
			return fmt.Errorf("creating smtp client: %w", err)
		}
		defer client.Close()

		return m.sendWithClient(client, msg, data)
	}

	return smtp.SendMail(addr, m.auth, m.cfg.From, []string{msg.To}, data)
}

func (m *Mailer) sendWithClient(client *smtp.Client, msg *Message, data []byte) error {
	if m.auth != nil {
		if err := client.Auth(m.auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing message: %w", err)
	}

	return client.Quit()
}

func buildMessage(from string, msg *Message) []byte {
	b := &strings.Builder{}
	fmt.Fprintf(b, "From: %s\r\n", from)
	fmt.Fprintf(b, "To: %s\r\n", msg.To)
	fmt.Fprintf(b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// SendPasswordReset mails a reset link. The link embeds the opaque
// token and expires with it.
func (m *Mailer) SendPasswordReset(to, name, link string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"A password reset was requested for your account. Use the link below within one hour:\n\n"+
			"%s\n\n"+
			"If you did not request this, you can ignore this message.\n",
		name, link,
	)
	return m.Send(&Message{
		To:      to,
		Subject: "Reset your password",
		Body:    body,
	})
}

// SendDonationReceipt mails a thank-you note for a recorded donation.
func (m *Mailer) SendDonationReceipt(to, name string, amountCents int64, currency string, donatedAt time.Time) error {
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Thank you for your donation of %.2f %s received on %s.\n"+
			"This message serves as your receipt.\n",
		name, float64(amountCents)/100, currency, donatedAt.Format("January 2, 2006"),
	)
	return m.Send(&Message{
		To:      to,
		Subject: "Thank you for your donation",
		Body:    body,
	})
}

package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"tvnotifier/internal/config"
	"tvnotifier/internal/ports"
)

// Notifier delivers rendered digests over SMTP as single-part HTML mail.
type Notifier struct {
	host     string
	port     int
	user     string
	password string
	from     string

	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier wires SMTP credentials from configuration.
func NewNotifier(cfg config.SMTPConfig) *Notifier {
	return &Notifier{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		password: cfg.Password,
		from:     cfg.From,
		send:     smtp.SendMail,
	}
}

// SendDigest sends the HTML digest to all recipients in a single message.
// There is no retry; a delivery failure surfaces to the operator.
func (n *Notifier) SendDigest(ctx context.Context, subject, htmlBody string, recipients []string) error {
	if n.host == "" || n.from == "" {
		return fmt.Errorf("mail notifier misconfigured")
	}
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(n.from, recipients, subject, htmlBody)

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	var auth smtp.Auth
	if n.user != "" {
		auth = smtp.PlainAuth("", n.user, n.password, n.host)
	}

	if err := n.send(addr, auth, n.from, recipients, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// buildMessage assembles RFC 5322 headers plus the HTML body.
func buildMessage(from string, to []string, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")
	return []byte(b.String())
}

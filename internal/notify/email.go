package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jonesrussell/webwatch/internal/config"
	"github.com/jonesrussell/webwatch/internal/domain"
)

// EmailNotifier delivers hit digests over SMTP. The target is a
// comma-separated recipient list.
type EmailNotifier struct {
	host   string
	port   int
	user   string
	pass   string
	sender string
}

// NewEmailNotifier creates an email notifier from the notify settings.
func NewEmailNotifier(cfg config.NotifyConfig) *EmailNotifier {
	return &EmailNotifier{
		host:   cfg.SMTPHost,
		port:   cfg.SMTPPort,
		user:   cfg.SMTPUser,
		pass:   cfg.SMTPPass,
		sender: cfg.SMTPSender,
	}
}

// Channel returns the channel kind.
func (n *EmailNotifier) Channel() string {
	return domain.ChannelEmail
}

// Send delivers the message to every recipient in the target list.
func (n *EmailNotifier) Send(ctx context.Context, target string, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	recipients := splitRecipients(target)
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients in target %q", target)
	}

	var auth smtp.Auth
	if n.user != "" {
		auth = smtp.PlainAuth("", n.user, n.pass, n.host)
	}

	body := buildMIME(n.sender, recipients, msg.Subject(), msg.HTMLBody())
	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	if err := smtp.SendMail(addr, auth, n.sender, recipients, body); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func splitRecipients(target string) []string {
	var recipients []string
	for _, part := range strings.Split(target, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			recipients = append(recipients, trimmed)
		}
	}
	return recipients
}

func buildMIME(sender string, recipients []string, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", sender)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

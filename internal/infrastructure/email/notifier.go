package email

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	gomail "gopkg.in/mail.v2"

	"ArticlesDigest/internal/config"
	"ArticlesDigest/internal/ports"
)

const defaultSubject = "Weekly Digest"

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Notifier mails the digest as plain Markdown with an HTML alternative.
type Notifier struct {
	from   string
	to     []string
	sender sender
	md     goldmark.Markdown
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier builds an SMTP notifier from configuration.
func NewNotifier(cfg config.EmailConfig) *Notifier {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.Timeout = 10 * time.Second
	return newNotifier(cfg, dialer)
}

func newNotifier(cfg config.EmailConfig, s sender) *Notifier {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	var to []string
	for _, addr := range strings.Split(cfg.To, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	return &Notifier{from: from, to: to, sender: s, md: goldmark.New()}
}

// Name identifies the channel in logs and metrics.
func (n *Notifier) Name() string {
	return "email"
}

// PublishDigest renders the digest to HTML and sends it.
func (n *Notifier) PublishDigest(ctx context.Context, digest string) error {
	if len(n.to) == 0 || n.from == "" {
		return fmt.Errorf("email notifier misconfigured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var html bytes.Buffer
	if err := n.md.Convert([]byte(digest), &html); err != nil {
		return fmt.Errorf("render html: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to...)
	m.SetHeader("Subject", subject(digest))
	m.SetBody("text/plain", digest)
	m.AddAlternative("text/html", html.String())

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// subject uses the digest's top-level heading.
func subject(digest string) string {
	line, _, _ := strings.Cut(digest, "\n")
	if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok && title != "" {
		return title
	}
	return defaultSubject
}

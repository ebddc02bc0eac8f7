package queue

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Mailer delivers rendered messages.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// SMTPMailer sends through a plain SMTP relay, authenticating with PLAIN when
// a username is configured.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (s SMTPMailer) Send(_ context.Context, m Message) error {
	addr := net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	return smtp.SendMail(addr, auth, s.From, []string{m.To}, buildMIME(s.From, m))
}

func buildMIME(from string, m Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// FileMailer appends messages to a log file.  Used when no SMTP relay is
// configured.
type FileMailer struct {
	Path string

	mu sync.Mutex
}

func (f *FileMailer) Send(_ context.Context, m Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fh, err := os.OpenFile(f.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer fh.Close()

	line := fmt.Sprintf("[%s] to=%q subject=%q\n%s\n---\n",
		time.Now().UTC().Format(time.RFC3339), m.To, m.Subject, m.Body)
	if _, err := fh.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// MailHandler composes each envelope and sends it through mailer.
func MailHandler(mailer Mailer, baseURL string, log zerolog.Logger) Handler {
	return func(ctx context.Context, env Envelope) error {
		msg, err := Compose(env, baseURL)
		if err != nil {
			return err
		}
		if err := mailer.Send(ctx, msg); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		log.Info().Str("kind", string(env.Kind)).Str("to", msg.To).Msg("notification sent")
		return nil
	}
}

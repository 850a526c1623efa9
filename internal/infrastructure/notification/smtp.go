package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/google/uuid"
	appnotify "github.com/mayavriksh/backend/internal/application/notification"
	"github.com/mayavriksh/backend/internal/infrastructure/config"
)

const defaultDialTimeout = 10 * time.Second

// SMTPNotifier sends HTML email over SMTP, upgrading to TLS when the server
// offers STARTTLS
type SMTPNotifier struct {
	host    string
	addr    string
	from    string
	auth    smtp.Auth
	timeout time.Duration
}

// NewSMTPNotifier creates a notifier from config
func NewSMTPNotifier(cfg config.SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp sender address is required")
	}
	n := &SMTPNotifier{
		host:    cfg.Host,
		addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from:    cfg.From,
		timeout: defaultDialTimeout,
	}
	if cfg.Username != "" {
		n.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return n, nil
}

// Send delivers one message
func (n *SMTPNotifier) Send(ctx context.Context, msg appnotify.Message) error {
	body, err := n.compose(msg, time.Now())
	if err != nil {
		return err
	}

	conn, err := (&net.Dialer{Timeout: n.timeout}).DialContext(ctx, "tcp", n.addr)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", n.addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, n.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: n.host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if n.auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(n.auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := client.Mail(n.from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt %s: %w", msg.To, err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}
	return client.Quit()
}

// compose builds the RFC 5322 message with a quoted-printable HTML body
func (n *SMTPNotifier) compose(msg appnotify.Message, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	headers := []struct{ key, value string }{
		{"From", n.from},
		{"To", msg.To},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Date", now.Format(time.RFC1123Z)},
		{"Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), n.host)},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/html; charset="UTF-8"`},
		{"Content-Transfer-Encoding", "quoted-printable"},
	}
	for _, h := range headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.key, h.value)
	}
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(msg.HTMLBody)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ appnotify.Notifier = (*SMTPNotifier)(nil)

package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type deliverFunc func(ctx context.Context, from string, to []string, data []byte) error

// Mailer sends messages over SMTP.
type Mailer struct {
	cfg     MailConfig
	logger  *zap.Logger
	now     func() time.Time
	deliver deliverFunc
}

// NewMailer creates a Mailer. The configuration is validated on every send.
func NewMailer(cfg MailConfig, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Mailer{cfg: cfg, logger: logger, now: time.Now}
	m.deliver = m.smtp
	return m
}

// Notify composes msg and sends it to every configured recipient.
func (m *Mailer) Notify(ctx context.Context, msg Message) error {
	to, err := mail.ParseAddressList(m.cfg.To)
	if err != nil {
		return fmt.Errorf("parse recipients: %w", err)
	}
	rcpts := make([]string, 0, len(to))
	for _, addr := range to {
		rcpts = append(rcpts, addr.Address)
	}

	data, err := m.compose(msg, to)
	if err != nil {
		return err
	}

	m.logger.Info("Sending email", zap.Strings("to", rcpts), zap.String("subject", msg.Subject))
	if err := m.deliver(ctx, m.cfg.From, rcpts, data); err != nil {
		return fmt.Errorf("send mail to %s: %w", m.cfg.To, err)
	}
	return nil
}

func (m *Mailer) compose(msg Message, to []*mail.Address) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	recipients := make([]string, 0, len(to))
	for _, addr := range to {
		recipients = append(recipients, addr.String())
	}
	from := mail.Address{Name: m.cfg.FromName, Address: m.cfg.From}

	header := []string{
		"From: " + from.String(),
		"To: " + strings.Join(recipients, ", "),
		"Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject),
		"Date: " + m.now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=" + strconv.Quote(w.Boundary()),
	}
	buf.WriteString(strings.Join(header, "\r\n") + "\r\n\r\n")

	body, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	qp := quotedprintable.NewWriter(body)
	if _, err := qp.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}

	if msg.Attachment.Name != "" {
		ctype := mime.TypeByExtension(filepath.Ext(msg.Attachment.Name))
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		part, err := w.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {ctype},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": msg.Attachment.Name})},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64(part, msg.Attachment.Content); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBase64 writes content base64 encoded in lines of 76 characters.
func writeBase64(w io.Writer, content []byte) error {
	encoded := base64.StdEncoding.EncodeToString(content)
	for len(encoded) > 0 {
		n := min(76, len(encoded))
		if _, err := w.Write([]byte(encoded[:n] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}

func (m *Mailer) smtp(ctx context.Context, from string, to []string, data []byte) error {
	timeout := time.Duration(m.cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		conn.Close()
		return err
	}

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if m.cfg.StartTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}
	if m.cfg.Username == "" || m.cfg.Password == "" {
		m.logger.Warn("Skipping login to email")
	} else if err := c.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("recipient %s: %w", rcpt, err)
		}
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return c.Quit()
}

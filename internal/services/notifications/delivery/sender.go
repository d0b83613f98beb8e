package delivery

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/roomdesk/roomdesk/internal/platform/timeouts"
)

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	Addr     string
	Username string
	Password string
	From     string
	// InsecureSkipVerify disables certificate checks for STARTTLS.
	InsecureSkipVerify bool
}

// Send delivers msg. Malformed addresses and 5xx replies are permanent.
func (s SMTPSender) Send(ctx context.Context, msg Message) error {
	from, err := mail.ParseAddress(s.From)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("parse sender address: %w", err))
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("parse recipient address: %w", err))
	}
	host, _, err := net.SplitHostPort(s.Addr)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("parse smtp addr: %w", err))
	}

	dialer := net.Dialer{Timeout: timeouts.SMTPDial}
	conn, err := dialer.DialContext(ctx, "tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(timeouts.OutboundHTTP))
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host, InsecureSkipVerify: s.InsecureSkipVerify, MinVersion: tls.VersionTLS12}); err != nil {
			return classifySMTPError("starttls", err)
		}
	}
	if s.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", s.Username, s.Password, host)); err != nil {
			return classifySMTPError("auth", err)
		}
	}
	if err := client.Mail(from.Address); err != nil {
		return classifySMTPError("mail from", err)
	}
	if err := client.Rcpt(to.Address); err != nil {
		return classifySMTPError("rcpt to", err)
	}
	writer, err := client.Data()
	if err != nil {
		return classifySMTPError("data", err)
	}
	if _, err := writer.Write(formatMessage(from, to, msg, time.Now())); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return classifySMTPError("end data", err)
	}
	return client.Quit()
}

func classifySMTPError(step string, err error) error {
	wrapped := fmt.Errorf("smtp %s: %w", step, err)
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && protoErr.Code >= 500 {
		return backoff.Permanent(wrapped)
	}
	return wrapped
}

func formatMessage(from, to *mail.Address, msg Message, now time.Time) []byte {
	var b strings.Builder
	header := func(key, value string) {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}
	header("From", from.String())
	header("To", to.String())
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", now.UTC().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")
	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	Logger *log.Logger
}

// Send logs msg.
func (s LogSender) Send(_ context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return backoff.Permanent(errors.New("recipient address is empty"))
	}
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("mail to=%s subject=%q body=%q", msg.To, msg.Subject, msg.Body)
	return nil
}

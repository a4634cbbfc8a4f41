package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/smtp"
	"time"

	gomail "github.com/emersion/go-message/mail"
	"github.com/pkg/errors"
)

// SMTPSender submits mail through an authenticated relay using STARTTLS.
type SMTPSender struct {
	cfg *Config
	now func() time.Time
}

// NewSMTPSender creates a sender.
func NewSMTPSender(cfg *Config) *SMTPSender {
	return &SMTPSender{cfg: cfg, now: time.Now}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if _, err := gomail.ParseAddress(to); err != nil {
		return errors.Wrapf(err, "invalid recipient %q", to)
	}
	msg, err := s.compose(to, subject, body)
	if err != nil {
		return err
	}

	host, _, err := net.SplitHostPort(s.cfg.SMTPAddr)
	if err != nil {
		return errors.Wrapf(err, "invalid smtp address %q", s.cfg.SMTPAddr)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.cfg.SMTPAddr)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %s", s.cfg.SMTPAddr)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "smtp handshake failed")
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok && !s.cfg.Insecure {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return errors.Wrap(err, "starttls failed")
		}
	}
	if ok, _ := c.Extension("AUTH"); ok && s.cfg.Password != "" {
		if err := c.Auth(smtp.PlainAuth("", s.cfg.Address, s.cfg.Password, host)); err != nil {
			return errors.Wrap(err, "smtp auth failed")
		}
	}
	if err := c.Mail(s.cfg.Address); err != nil {
		return errors.Wrap(err, "smtp MAIL FROM failed")
	}
	if err := c.Rcpt(to); err != nil {
		return errors.Wrap(err, "smtp RCPT TO failed")
	}
	w, err := c.Data()
	if err != nil {
		return errors.Wrap(err, "smtp DATA failed")
	}
	if _, err := w.Write(msg); err != nil {
		return errors.Wrap(err, "failed to write message")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "message rejected")
	}
	return c.Quit()
}

// compose renders a single-part UTF-8 text message.
func (s *SMTPSender) compose(to, subject, body string) ([]byte, error) {
	var h gomail.Header
	h.SetDate(s.now())
	h.SetAddressList("From", []*gomail.Address{{Address: s.cfg.Address}})
	h.SetAddressList("To", []*gomail.Address{{Address: to}})
	h.SetSubject(subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := gomail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create message")
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, errors.Wrap(err, "failed to write body")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finish message")
	}
	return buf.Bytes(), nil
}

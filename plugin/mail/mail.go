// Package mail reads a mailbox over IMAP and sends mail over SMTP.
package mail

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned when no mailbox credentials are set.
var ErrNotConfigured = errors.New("mail: address and app password are required")

// Message is a fetched email reduced to what the assistant reads.
type Message struct {
	ID      string    `json:"id"`
	From    string    `json:"from"`
	Subject string    `json:"subject"`
	Content string    `json:"content"`
	Date    time.Time `json:"date,omitempty"`
}

// Reader fetches recent messages.
type Reader interface {
	// Fetch returns up to k of the newest INBOX messages, newest first,
	// optionally limited to a sender address.
	Fetch(ctx context.Context, k int, from string) ([]*Message, error)
}

// Sender delivers plain text mail.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Client is a full mailbox.
type Client interface {
	Reader
	Sender
}

// Config holds mailbox credentials and server addresses.
type Config struct {
	IMAPAddr string
	SMTPAddr string
	Address  string
	Password string
	// Insecure skips TLS on both protocols. Only used against local test servers.
	Insecure bool
}

// Validate checks that credentials are present.
func (c *Config) Validate() error {
	if c.Address == "" || c.Password == "" {
		return ErrNotConfigured
	}
	return nil
}

type client struct {
	*IMAPReader
	*SMTPSender
}

// NewClient combines an IMAP reader and an SMTP sender over one config.
func NewClient(cfg *Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &client{
		IMAPReader: NewIMAPReader(cfg),
		SMTPSender: NewSMTPSender(cfg),
	}, nil
}

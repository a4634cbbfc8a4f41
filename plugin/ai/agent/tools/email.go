package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/orbita/plugin/mail"
)

// FetchEmailsTool reads the newest messages of the inbox.
type FetchEmailsTool struct {
	reader mail.Reader
}

// NewFetchEmailsTool creates the fetch_emails tool.
func NewFetchEmailsTool(reader mail.Reader) *FetchEmailsTool {
	return &FetchEmailsTool{reader: reader}
}

func (t *FetchEmailsTool) Name() string { return "fetch_emails" }

func (t *FetchEmailsTool) Description() string {
	return "Read the content of the latest k emails. Can filter by the sender's email address."
}

func (t *FetchEmailsTool) Parameters() string {
	return `{
  "type": "object",
  "properties": {
    "k": {"type": "integer", "description": "Number of emails to read.", "minimum": 1},
    "target_email": {"type": "string", "description": "Sender address to filter by, if any."}
  },
  "required": ["k"]
}`
}

type fetchEmailsInput struct {
	K           int    `json:"k"`
	TargetEmail string `json:"target_email"`
}

func (t *FetchEmailsTool) Run(ctx context.Context, input string) (string, error) {
	var in fetchEmailsInput
	if err := decodeArgs(input, &in); err != nil {
		return "", err
	}
	if in.K <= 0 {
		in.K = 1
	}

	msgs, err := t.reader.Fetch(ctx, in.K, in.TargetEmail)
	if err != nil {
		return "", fmt.Errorf("reading emails: %w", err)
	}
	if len(msgs) == 0 {
		if in.TargetEmail != "" {
			return fmt.Sprintf("No emails found from %s.", in.TargetEmail), nil
		}
		return "The inbox is empty.", nil
	}
	return toJSON(msgs)
}

// SendEmailTool sends a plain text email.
type SendEmailTool struct {
	sender mail.Sender
}

// NewSendEmailTool creates the send_email tool.
func NewSendEmailTool(sender mail.Sender) *SendEmailTool {
	return &SendEmailTool{sender: sender}
}

func (t *SendEmailTool) Name() string { return "send_email" }

func (t *SendEmailTool) SideEffects() bool { return true }

func (t *SendEmailTool) Description() string {
	return "Send an email to a specific address."
}

func (t *SendEmailTool) Parameters() string {
	return `{
  "type": "object",
  "properties": {
    "to_email": {"type": "string", "description": "Recipient's email address."},
    "subject": {"type": "string", "description": "Email subject."},
    "body": {"type": "string", "description": "Email content."}
  },
  "required": ["to_email", "subject", "body"]
}`
}

type sendEmailInput struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (t *SendEmailTool) Run(ctx context.Context, input string) (string, error) {
	var in sendEmailInput
	if err := decodeArgs(input, &in); err != nil {
		return "", err
	}
	in.ToEmail = strings.TrimSpace(in.ToEmail)
	if in.ToEmail == "" {
		return "", invalidArgs("to_email is required")
	}

	if err := t.sender.Send(ctx, in.ToEmail, in.Subject, in.Body); err != nil {
		return "", fmt.Errorf("sending email: %w", err)
	}
	return fmt.Sprintf("Successfully sent to %s", in.ToEmail), nil
}

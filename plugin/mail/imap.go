package mail

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"
	"github.com/pkg/errors"
)

// MaxFetch caps how many messages one call reads.
const MaxFetch = 50

// IMAPReader reads the INBOX of one account.
type IMAPReader struct {
	cfg *Config
}

// NewIMAPReader creates a reader. Each Fetch opens its own session.
func NewIMAPReader(cfg *Config) *IMAPReader {
	return &IMAPReader{cfg: cfg}
}

func (r *IMAPReader) dial() (*imapclient.Client, error) {
	if r.cfg.Insecure {
		return imapclient.Dial(r.cfg.IMAPAddr)
	}
	return imapclient.DialTLS(r.cfg.IMAPAddr, nil)
}

func (r *IMAPReader) Fetch(ctx context.Context, k int, from string) ([]*Message, error) {
	if k <= 0 {
		return []*Message{}, nil
	}
	if k > MaxFetch {
		k = MaxFetch
	}

	c, err := r.dial()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", r.cfg.IMAPAddr)
	}
	defer func() {
		if err := c.Logout(); err != nil {
			slog.Debug("imap logout failed", "error", err)
		}
	}()

	// Abort the session when the caller gives up.
	stop := context.AfterFunc(ctx, func() { _ = c.Terminate() })
	defer stop()

	if err := c.Login(r.cfg.Address, r.cfg.Password); err != nil {
		return nil, errors.Wrap(err, "imap login failed")
	}
	if _, err := c.Select("INBOX", true); err != nil {
		return nil, errors.Wrap(err, "failed to select INBOX")
	}

	criteria := imap.NewSearchCriteria()
	if from = strings.TrimSpace(from); from != "" {
		criteria.Header.Add("From", from)
	}
	ids, err := c.Search(criteria)
	if err != nil {
		return nil, errors.Wrap(err, "imap search failed")
	}
	if len(ids) == 0 {
		return []*Message{}, nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > k {
		ids = ids[len(ids)-k:]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	fetched := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, fetched)
	}()

	var out []*Message
	seqs := make(map[*Message]uint32, len(ids))
	for msg := range fetched {
		m, err := parseMessage(msg, section)
		if err != nil {
			slog.Warn("skipping unreadable message", "seq", msg.SeqNum, "error", err)
			continue
		}
		seqs[m] = msg.SeqNum
		out = append(out, m)
	}
	if err := <-done; err != nil {
		return nil, errors.Wrap(err, "imap fetch failed")
	}

	sort.Slice(out, func(i, j int) bool { return seqs[out[i]] > seqs[out[j]] })
	return out, nil
}

func parseMessage(msg *imap.Message, section *imap.BodySectionName) (*Message, error) {
	m := &Message{ID: fmt.Sprint(msg.SeqNum)}
	if env := msg.Envelope; env != nil {
		m.Subject = env.Subject
		m.Date = env.Date
		if len(env.From) > 0 {
			m.From = formatAddress(env.From[0])
		}
	}

	body := msg.GetBody(section)
	if body == nil {
		return m, nil
	}
	mr, err := gomail.CreateReader(body)
	if err != nil {
		return nil, err
	}
	if subject, err := mr.Header.Subject(); err == nil && subject != "" {
		m.Subject = subject
	}
	if m.From == "" {
		if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
			m.From = addrs[0].String()
		}
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return m, nil
		}
		h, ok := part.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		if contentType != "" && contentType != "text/plain" {
			continue
		}
		text, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		m.Content = strings.TrimSpace(string(text))
		break
	}
	return m, nil
}

func formatAddress(a *imap.Address) string {
	addr := a.Address()
	if a.PersonalName == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", a.PersonalName, addr)
}

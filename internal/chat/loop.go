// Package chat runs the interactive terminal conversation.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hrygo/orbita/plugin/ai/manager"
)

// Sender runs one turn of a thread.
type Sender interface {
	Send(ctx context.Context, cfg manager.SessionConfig, input string) (*manager.TurnResult, error)
}

// Prompt is printed before each user line.
const Prompt = "You: "

// ReplyPrefix is printed before each assistant reply.
const ReplyPrefix = "Orbita: "

// IsExitCommand reports whether line ends the session.
func IsExitCommand(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit":
		return true
	}
	return false
}

// Loop reads user lines from in and writes replies to out.
type Loop struct {
	sender Sender
	cfg    manager.SessionConfig
	in     io.Reader
	out    io.Writer
}

// NewLoop creates a chat loop for one thread.
func NewLoop(sender Sender, cfg manager.SessionConfig, in io.Reader, out io.Writer) *Loop {
	return &Loop{sender: sender, cfg: cfg, in: in, out: out}
}

// Run chats until the user types exit or quit, input ends, or ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(l.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(l.out, Prompt)
		if !scanner.Scan() {
			fmt.Fprintln(l.out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if IsExitCommand(line) {
			fmt.Fprintln(l.out, ReplyPrefix+"Goodbye!")
			return nil
		}

		result, err := l.sender.Send(ctx, l.cfg, line)
		if err != nil {
			return fmt.Errorf("chat turn failed: %w", err)
		}
		fmt.Fprintln(l.out, ReplyPrefix+result.Reply)
	}
}

package chat

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/orbita/plugin/ai/manager"
)

type echoSender struct {
	inputs []string
	err    error
}

func (s *echoSender) Send(_ context.Context, _ manager.SessionConfig, input string) (*manager.TurnResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.inputs = append(s.inputs, input)
	return &manager.TurnResult{Reply: "echo " + input}, nil
}

func TestIsExitCommand(t *testing.T) {
	for _, line := range []string{"exit", "quit", "  EXIT ", "Quit"} {
		assert.True(t, IsExitCommand(line), line)
	}
	for _, line := range []string{"", "exiting", "quit now", "bye"} {
		assert.False(t, IsExitCommand(line), line)
	}
}

func TestLoop_StopsOnExit(t *testing.T) {
	sender := &echoSender{}
	var out bytes.Buffer
	in := strings.NewReader("hello\n\nwhat's up\nQUIT\nnever sent\n")

	err := NewLoop(sender, manager.SessionConfig{ThreadID: "t"}, in, &out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"hello", "what's up"}, sender.inputs)
	assert.Contains(t, out.String(), "Orbita: echo hello\n")
	assert.Contains(t, out.String(), "Orbita: echo what's up\n")
	assert.Contains(t, out.String(), "Orbita: Goodbye!")
}

func TestLoop_StopsOnEOF(t *testing.T) {
	sender := &echoSender{}
	var out bytes.Buffer

	err := NewLoop(sender, manager.SessionConfig{ThreadID: "t"}, strings.NewReader("hi"), &out).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"hi"}, sender.inputs)
}

func TestLoop_ReturnsTurnError(t *testing.T) {
	sender := &echoSender{err: manager.ErrMissingThreadID}
	var out bytes.Buffer

	err := NewLoop(sender, manager.SessionConfig{}, strings.NewReader("hi\n"), &out).Run(context.Background())
	assert.True(t, errors.Is(err, manager.ErrMissingThreadID))
}

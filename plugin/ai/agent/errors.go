// Package agent implements the handlers that serve a routed turn: a bounded
// tool-calling loop over the LLM plus the email, budget and calendar handlers
// built on it.
package agent

import "errors"

var (
	// ErrToolNotFound indicates the model asked for a tool the handler does not have.
	ErrToolNotFound = errors.New("tool not found")

	// ErrMaxIterations indicates the tool loop ran out of iterations before answering.
	ErrMaxIterations = errors.New("agent exceeded maximum iterations")

	// ErrDuplicateTool indicates two tools were registered under one name.
	ErrDuplicateTool = errors.New("duplicate tool")
)

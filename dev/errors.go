package dev

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidState is reported when an operation is called in the wrong session state.
var ErrInvalidState = errors.New("invalid session state")

// TimeoutError: no recognized pattern within the expect window.
type TimeoutError struct {
	Timeout time.Duration
	Buffer  string // text collected while waiting
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for prompt: buf=[%q]", e.Timeout, e.Buffer)
}

// ConnectionError reports transport failure: read, write, close or
// stream closed while waiting.
type ConnectionError struct {
	Op     string
	Buffer string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %s: %v: buf=[%q]", e.Op, e.Err, e.Buffer)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Cause supports errors.Cause from github.com/pkg/errors.
func (e *ConnectionError) Cause() error {
	return e.Err
}

// AuthenticationError: the device explicitly rejected the login.
type AuthenticationError struct {
	Buffer string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %v: buf=[%q]", e.Err, e.Buffer)
	}
	return fmt.Sprintf("authentication failed: buf=[%q]", e.Buffer)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// CommandError: a response line matched the vendor error pattern.
type CommandError struct {
	Command  string
	Line     string
	Response string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command '%s': device said: [%s]\n%s", e.Command, e.Line, e.Response)
}

// ProtocolError: the login dialog did not converge within the iteration cap.
type ProtocolError struct {
	Iterations int
	Buffer     string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("login dialog did not finish after %d prompts: buf=[%q]", e.Iterations, e.Buffer)
}

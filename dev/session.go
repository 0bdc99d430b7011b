package dev

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/udhos/clichat/conf"
	"github.com/udhos/clichat/otp"
)

// State is the session automaton state.
type State int

const (
	StateConnected State = iota
	StateAuthenticating
	StateAuthenticated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// PassphraseFunc computes the answer to a one-time password challenge.
// It must be a pure function.
type PassphraseFunc func(password, seed string, sequence, count int, hash, encoding string) (string, error)

// Options tune one session.
type Options struct {
	conf.SessionConfig
	Passphrase PassphraseFunc // nil: otp.Passphrase
	Debug      bool
}

// NewOptions returns the default session options.
func NewOptions() Options {
	return Options{SessionConfig: conf.NewSessionConfig()}
}

// Session drives the login dialog and command execution over one stream.
// A Session is not safe for concurrent use; it exclusively owns its stream.
type Session struct {
	label    string
	logger   hasPrintf
	stream   Stream
	matcher  *Matcher
	prompts  *PromptTable
	vendors  *VendorTable
	opt      Options
	state    State
	vendor   string
	profile  *VendorProfile
	response string // last captured response
	closed   sync.Once
	closeErr error
}

// NewSession binds a connected stream. The session closes the stream on Close.
func NewSession(logger hasPrintf, label string, stream Stream, prompts *PromptTable, vendors *VendorTable, opt Options) *Session {
	if opt.Timeout <= 0 {
		opt.Timeout = conf.DefaultTimeout
	}
	if opt.MaxIterations < 1 {
		opt.MaxIterations = conf.DefaultMaxIterations
	}
	if opt.Terminator == "" {
		opt.Terminator = conf.DefaultTerminator
	}
	if opt.OTPHash == "" {
		opt.OTPHash = conf.DefaultOTPHash
	}
	if opt.OTPEncoding == "" {
		opt.OTPEncoding = conf.DefaultOTPEncoding
	}
	if opt.OTPCount < 1 {
		opt.OTPCount = conf.DefaultOTPCount
	}
	if opt.Passphrase == nil {
		opt.Passphrase = otp.Passphrase
	}
	s := &Session{
		label:   label,
		logger:  logger,
		stream:  stream,
		matcher: NewMatcher(logger, stream, label, opt.Debug),
		prompts: prompts,
		vendors: vendors,
		opt:     opt,
		state:   StateConnected,
		vendor:  VendorUnknown,
	}
	s.profile = vendors.Resolve(VendorUnknown)
	return s
}

// State reports the automaton state.
func (s *Session) State() State {
	return s.state
}

// Vendor reports the detected vendor id, "unknown" until detection.
func (s *Session) Vendor() string {
	return s.vendor
}

// Profile is the vendor profile currently in effect.
func (s *Session) Profile() *VendorProfile {
	return s.profile
}

// Response is the text captured by the last successful expect.
func (s *Session) Response() string {
	return s.response
}

// Timeout is the per-expect time limit.
func (s *Session) Timeout() time.Duration {
	return s.opt.Timeout
}

func (s *Session) setVendor(id string) {
	s.vendor = id
	s.profile = s.vendors.Resolve(id)
	if s.profile.ID != id {
		s.logf("no profile for vendor '%s', using '%s'", id, s.profile.ID)
	}
}

// Send writes data to the stream as is.
func (s *Session) Send(data string) error {
	if s.opt.Debug {
		s.logf("debug send: [%q]", data)
	}
	if _, err := s.stream.Write([]byte(data)); err != nil {
		return &ConnectionError{Op: "write", Buffer: s.matcher.Buffered(), Err: errors.Wrapf(err, "%s: send %d bytes", s.label, len(data))}
	}
	return nil
}

// Sendln writes data followed by the line terminator.
func (s *Session) Sendln(data string) error {
	return s.Send(data + s.opt.Terminator)
}

func (s *Session) expect(rules []PromptRule) (*ExpectResult, error) {
	r, err := s.matcher.Expect(rules, s.opt.Timeout)
	if err != nil {
		return nil, err
	}
	s.response = r.Text
	return r, nil
}

// Close releases the stream. It may be called from another goroutine to
// abort a blocked expect.
func (s *Session) Close() error {
	s.closed.Do(func() {
		if err := s.stream.Close(); err != nil {
			s.closeErr = &ConnectionError{Op: "close", Err: errors.Wrap(err, s.label)}
		}
	})
	return s.closeErr
}

func (s *Session) logf(format string, v ...interface{}) {
	s.logger.Printf(fmt.Sprintf("session '%s': ", s.label)+format, v...)
}

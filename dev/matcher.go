package dev

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
)

// ExpectResult describes one successful expect.
type ExpectResult struct {
	Rule   PromptRule
	Groups []string // capture groups of the matched pattern
	Text   string   // text consumed since the previous match, including this one
	Before string   // Text up to the start of the match
}

type hasTimeout interface {
	Timeout() bool
}

// Matcher reads a stream until the buffered text matches a rule.
// Bytes past the match stay buffered for the next Expect call.
type Matcher struct {
	stream  Stream
	logger  hasPrintf
	label   string
	debug   bool
	buf     []byte // unconsumed input
	readBuf []byte
}

// NewMatcher creates a matcher owning the read side of stream.
func NewMatcher(logger hasPrintf, stream Stream, label string, debug bool) *Matcher {
	return &Matcher{
		stream:  stream,
		logger:  logger,
		label:   label,
		debug:   debug,
		readBuf: make([]byte, 4096),
	}
}

// Buffered returns the unconsumed input.
func (m *Matcher) Buffered() string {
	return string(m.buf)
}

// Expect waits up to timeout for any rule to match the whole unconsumed
// buffer. Rules are tested in list order; the first matching rule wins
// regardless of where in the text the match lies.
func (m *Matcher) Expect(rules []PromptRule, timeout time.Duration) (*ExpectResult, error) {
	if len(rules) < 1 {
		return nil, fmt.Errorf("Expect: empty rule list")
	}

	deadline := time.Now().Add(timeout)

	for {
		// leftover input may already hold the answer
		if r := m.find(rules); r != nil {
			return r, nil
		}

		if err := m.stream.SetReadDeadline(deadline); err != nil {
			return nil, &ConnectionError{Op: "set read deadline", Buffer: m.Buffered(), Err: errors.Wrap(err, m.label)}
		}

		n, readErr := m.stream.Read(m.readBuf)
		if n > 0 {
			if m.debug {
				m.logf("debug recv: [%q]", m.readBuf[:n])
			}
			m.buf = append(m.buf, m.readBuf[:n]...)
		}

		if readErr == nil {
			continue
		}

		if te, ok := readErr.(hasTimeout); ok && te.Timeout() {
			if r := m.find(rules); r != nil {
				return r, nil // data arrived along with the deadline
			}
			return nil, &TimeoutError{Timeout: timeout, Buffer: m.Buffered()}
		}

		if r := m.find(rules); r != nil {
			return r, nil // last data before EOF still counts
		}

		op := "read"
		if readErr == io.EOF {
			op = "read: peer closed stream"
		}
		return nil, &ConnectionError{Op: op, Buffer: m.Buffered(), Err: errors.Wrap(readErr, m.label)}
	}
}

func (m *Matcher) find(rules []PromptRule) *ExpectResult {
	if len(m.buf) < 1 {
		return nil
	}

	for _, rule := range rules {
		loc := rule.Pattern.FindSubmatchIndex(m.buf)
		if loc == nil {
			continue
		}

		r := &ExpectResult{
			Rule:   rule,
			Text:   string(m.buf[:loc[1]]),
			Before: string(m.buf[:loc[0]]),
		}

		for g := 2; g+1 < len(loc); g += 2 {
			if loc[g] < 0 {
				r.Groups = append(r.Groups, "")
				continue
			}
			r.Groups = append(r.Groups, string(m.buf[loc[g]:loc[g+1]]))
		}

		// consume through the match end
		m.buf = append(m.buf[:0], m.buf[loc[1]:]...)

		if m.debug {
			m.logf("debug match: %s", rule)
		}

		return r
	}

	return nil
}

func (m *Matcher) logf(format string, v ...interface{}) {
	m.logger.Printf(fmt.Sprintf("%s: ", m.label)+format, v...)
}

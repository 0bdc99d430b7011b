package dev

import (
	"strings"

	"github.com/pkg/errors"
)

// Execute sends one command and waits for the vendor shell prompt.
// The echoed command line is dropped from the returned response.
// A response line matching the vendor error pattern yields *CommandError.
func (s *Session) Execute(command string) (string, error) {
	if s.state != StateAuthenticated {
		return "", errors.Wrapf(ErrInvalidState, "Execute: session is %s", s.state)
	}

	if err := s.Sendln(command); err != nil {
		return "", err
	}

	prompt := PromptRule{Category: CategoryShellPrompt, Vendor: s.profile.ID, Pattern: s.profile.ShellPrompt}

	r, err := s.expect([]PromptRule{prompt})
	if err != nil {
		var te *TimeoutError
		if errors.As(err, &te) {
			return "", &ConnectionError{Op: "no response from device", Buffer: te.Buffer, Err: te}
		}
		return "", err
	}

	response := strings.TrimSuffix(dropFirstLine(r.Before), "\r")

	if line, found := findErrorLine(s.profile, response); found {
		return "", &CommandError{Command: command, Line: line, Response: r.Text}
	}

	return response, nil
}

func dropFirstLine(text string) string {
	i := strings.IndexByte(text, '\n')
	if i < 0 {
		return ""
	}
	return text[i+1:]
}

func findErrorLine(p *VendorProfile, response string) (string, bool) {
	if p.ErrorLine == nil {
		return "", false
	}
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimRight(line, "\r")
		if p.ErrorLine.MatchString(line) {
			return line, true
		}
	}
	return "", false
}

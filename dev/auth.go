package dev

import (
	"strings"

	"github.com/pkg/errors"
)

// Authenticate runs the login dialog until the shell prompt shows up or the
// device rejects the login. Prompts may arrive in any order; each
// recognized prompt decides the next step.
func (s *Session) Authenticate(username, password string) error {
	if s.state != StateConnected {
		return errors.Wrapf(ErrInvalidState, "Authenticate: session is %s", s.state)
	}

	s.state = StateAuthenticating

	if err := s.loginChat(username, password); err != nil {
		s.state = StateFailed
		return err
	}

	s.state = StateAuthenticated

	s.logf("authenticated: vendor=%s", s.vendor)

	// multi-line pager commands run one line at a time
	for _, cmd := range strings.Split(s.profile.PaginationCommand, "\n") {
		if cmd = strings.TrimSpace(cmd); cmd == "" {
			continue
		}
		if _, err := s.Execute(cmd); err != nil {
			return errors.Wrapf(err, "Authenticate: pager off command '%s'", cmd)
		}
	}

	return nil
}

// Authorize escalates privileges with the vendor escalation command.
// Vendors without one succeed immediately.
func (s *Session) Authorize(password string) error {
	if s.state != StateAuthenticated {
		return errors.Wrapf(ErrInvalidState, "Authorize: session is %s", s.state)
	}

	cmd := s.profile.EscalationCommand
	if cmd == "" {
		s.logf("authorize: vendor %s has no escalation command", s.profile.ID)
		return nil
	}

	if err := s.Sendln(cmd); err != nil {
		s.state = StateFailed
		return err
	}

	s.state = StateAuthenticating

	// the username should not be asked
	if err := s.loginChat("", password); err != nil {
		s.state = StateFailed
		return err
	}

	s.state = StateAuthenticated

	s.logf("authorized: vendor=%s", s.vendor)

	return nil
}

func (s *Session) loginChat(username, password string) error {

	var transcript strings.Builder

	for i := 0; i < s.opt.MaxIterations; i++ {
		r, err := s.expect(s.loginRules())
		if err != nil {
			return err
		}

		transcript.WriteString(r.Text)

		switch r.Rule.Category {
		case CategoryLoginFailure:
			s.logf("login: found login failure")
			return &AuthenticationError{Buffer: transcript.String()}

		case CategoryUserPrompt:
			s.logf("login: found username prompt: %s", r.Rule.Vendor)
			if s.vendor == VendorUnknown {
				s.setVendor(r.Rule.Vendor)
			}
			if err := s.Sendln(username); err != nil {
				return err
			}

		case CategoryOTPChallenge:
			s.logf("login: found otp challenge")
			phrase, otpErr := s.otpResponse(password, r)
			if otpErr != nil {
				var ae *AuthenticationError
				if errors.As(otpErr, &ae) {
					ae.Buffer = transcript.String()
				}
				return otpErr
			}
			// consume the password prompt following the challenge
			prompt, promptErr := s.expect(s.prompts.Only(CategoryCleartextPassword))
			if promptErr != nil {
				return promptErr
			}
			transcript.WriteString(prompt.Text)
			if err := s.Sendln(phrase); err != nil {
				return err
			}

		case CategoryCleartextPassword:
			s.logf("login: found password prompt")
			if err := s.Sendln(password); err != nil {
				return err
			}

		case CategoryVendorBanner:
			s.logf("login: found vendor banner: %s", r.Rule.Vendor)
			s.setVendor(r.Rule.Vendor)

		case CategoryShellPrompt:
			s.logf("login: found command prompt")
			if v := r.Rule.Vendor; v != "" && v != s.vendor {
				s.setVendor(v)
			}
			return nil
		}
	}

	return &ProtocolError{Iterations: s.opt.MaxIterations, Buffer: transcript.String() + s.matcher.Buffered()}
}

// loginRules is the prompt table plus the shell prompt of the detected vendor.
func (s *Session) loginRules() []PromptRule {
	rules := s.prompts.Rules()
	if s.vendor != VendorUnknown {
		rules = append(rules, PromptRule{Category: CategoryShellPrompt, Vendor: s.vendor, Pattern: s.profile.ShellPrompt})
	}
	return rules
}

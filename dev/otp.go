package dev

import (
	"fmt"
	"strconv"
)

type otpChallenge struct {
	sequence int
	seed     string
}

// parseOTPChallenge reads sequence and seed from the first two capture groups.
func parseOTPChallenge(groups []string) (otpChallenge, error) {
	if len(groups) < 2 {
		return otpChallenge{}, fmt.Errorf("otp challenge: expected sequence and seed, got %d groups", len(groups))
	}
	seq, seqErr := strconv.Atoi(groups[0])
	if seqErr != nil {
		return otpChallenge{}, fmt.Errorf("otp challenge: bad sequence '%s': %v", groups[0], seqErr)
	}
	if seq < 0 {
		return otpChallenge{}, fmt.Errorf("otp challenge: negative sequence: %d", seq)
	}
	if groups[1] == "" {
		return otpChallenge{}, fmt.Errorf("otp challenge: empty seed")
	}
	return otpChallenge{sequence: seq, seed: groups[1]}, nil
}

func (s *Session) otpResponse(password string, r *ExpectResult) (string, error) {
	c, parseErr := parseOTPChallenge(r.Groups)
	if parseErr != nil {
		return "", &AuthenticationError{Buffer: r.Text, Err: parseErr}
	}

	s.logf("otp challenge: sequence=%d seed=%s hash=%s", c.sequence, c.seed, s.opt.OTPHash)

	phrase, err := s.opt.Passphrase(password, c.seed, c.sequence, s.opt.OTPCount, s.opt.OTPHash, s.opt.OTPEncoding)
	if err != nil {
		return "", &AuthenticationError{Buffer: r.Text, Err: fmt.Errorf("otp passphrase: %v", err)}
	}

	return phrase, nil
}

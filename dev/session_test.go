package dev

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateLoginFailure(t *testing.T) {
	stream, dev := spawnDevice(t, []chat{{send: "\r\n% Login invalid\r\n\r\nUsername: "}})

	s := newTestSession(t, stream, 2*time.Second)

	err := s.Authenticate("lab", "pass")

	var ae *AuthenticationError
	require.True(t, errors.As(err, &ae), "want AuthenticationError, got %v", err)
	assert.Contains(t, ae.Buffer, "Login invalid")
	assert.Equal(t, StateFailed, s.State())

	s.Close()

	lines, extra := dev.received(t)
	assert.Empty(t, lines)
	assert.Empty(t, extra, "nothing must be sent")
}

func TestAuthenticateCiscoIOS(t *testing.T) {
	stream, dev := spawnDevice(t, []chat{
		{send: "\r\n\r\nUser Access Verification\r\n\r\nUsername: ", recv: true},
		{send: "\r\nPassword: ", recv: true},
		{send: "\r\nrouter>", recv: true},
		{send: "term len 0\r\nrouter>"},
	})

	s := newTestSession(t, stream, 2*time.Second)

	require.NoError(t, s.Authenticate("lab", "pass"))
	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, "cisco", s.Vendor())

	s.Close()

	lines, extra := dev.received(t)
	assert.Equal(t, []string{"lab", "pass", "term len 0"}, lines)
	assert.Empty(t, extra)
}

func TestAuthenticatePasswordOnly(t *testing.T) {
	stream, dev := spawnDevice(t, []chat{
		{send: "\r\nPassword: ", recv: true},
		{send: "\r\nrouter>"},
	})

	s := newTestSession(t, stream, 2*time.Second)

	require.NoError(t, s.Authenticate("lab", "pass"))
	assert.Equal(t, VendorUnknown, s.Vendor())

	s.Close()

	lines, _ := dev.received(t)
	assert.Equal(t, []string{"pass"}, lines)
}

func TestAuthenticateOTP(t *testing.T) {
	stream, dev := spawnDevice(t, []chat{
		{send: "\r\notp 5 abcde\r\nPassword: ", recv: true},
		{send: "\r\nhost$ "},
	})

	type otpCall struct {
		password, seed  string
		sequence, count int
		hash, encoding  string
	}
	var calls []otpCall

	logger := &testLogger{t}
	vendors, _ := BuildVendorTable(logger, nil)
	opt := NewOptions()
	opt.Timeout = 2 * time.Second
	opt.Passphrase = func(password, seed string, sequence, count int, hash, encoding string) (string, error) {
		calls = append(calls, otpCall{password, seed, sequence, count, hash, encoding})
		return "LOUD ABED BEAM", nil
	}
	s := NewSession(logger, "lab1", stream, DefaultPromptTable(), vendors, opt)

	require.NoError(t, s.Authenticate("lab", "secret"))
	assert.Equal(t, StateAuthenticated, s.State())

	s.Close()

	require.Len(t, calls, 1)
	assert.Equal(t, otpCall{"secret", "abcde", 5, 1, "md4", "sixword"}, calls[0])

	lines, _ := dev.received(t)
	assert.Equal(t, []string{"LOUD ABED BEAM"}, lines, "passphrase sent instead of password")
}

func TestAuthenticateOTPDefaultGenerator(t *testing.T) {
	stream, dev := spawnDevice(t, []chat{
		{send: "\r\notp-md5 1 TeSt ext\r\nPassword: ", recv: true},
		{send: "\r\nhost# "},
	})

	logger := &testLogger{t}
	vendors, _ := BuildVendorTable(logger, nil)
	opt := NewOptions()
	opt.Timeout = 2 * time.Second
	opt.OTPHash = "md5"
	s := NewSession(logger, "lab1", stream, DefaultPromptTable(), vendors, opt)

	require.NoError(t, s.Authenticate("lab", "This is a test."))

	s.Close()

	lines, _ := dev.received(t)
	assert.Equal(t, []string{"EASE OIL FUM CURE AWRY AVIS"}, lines)
}

func TestAuthenticateUsernameFirst(t *testing.T) {
	stream, dev := spawnDevice(t, []chat{
		{send: "Username: ", recv: true},
		{send: "Password: ", recv: true},
		{send: "\r\nrouter>", recv: true},
		{send: "term len 0\r\nrouter>"},
	})

	s := newTestSession(t, stream, 2*time.Second)

	require.NoError(t, s.Authenticate("lab", "pass"))
	assert.Equal(t, "cisco", s.Vendor())

	s.Close()

	lines, _ := dev.received(t)
	assert.Equal(t, []string{"lab", "pass", "term len 0"}, lines)
}

func TestAuthenticateIOSXRPrompt(t *testing.T) {
	stream, dev := spawnDevice(t, []chat{
		{send: "\r\nUsername: ", recv: true},
		{send: "\r\nPassword: ", recv: true},
		{send: "\r\nRP/0/RSP0/CPU0:xr1#", recv: true},
		{send: "terminal length 0\r\nRP/0/RSP0/CPU0:xr1#"},
	})

	s := newTestSession(t, stream, 2*time.Second)

	require.NoError(t, s.Authenticate("lab", "pass"))
	assert.Equal(t, "iosxr", s.Vendor(), "prompt overrides the username prompt guess")
	require.NoError(t, s.Authorize("en"), "no escalation on IOS XR")

	s.Close()

	lines, extra := dev.received(t)
	assert.Equal(t, []string{"lab", "pass", "terminal length 0"}, lines)
	assert.Empty(t, extra)
}

func TestAuthenticateMikrotikBanner(t *testing.T) {
	stream, dev := spawnDevice(t, []chat{
		{send: "\r\nLogin: ", recv: true},
		{send: "\r\nPassword: ", recv: true},
		{send: "\r\n\r\n  MikroTik RouterOS 6.48 (c) 1999-2020       http://www.mikrotik.com/\r\n\r\n[admin@MikroTik] > "},
	})

	s := newTestSession(t, stream, 2*time.Second)

	require.NoError(t, s.Authenticate("admin", "pass"))
	assert.Equal(t, "mikrotik", s.Vendor())

	s.Close()

	lines, extra := dev.received(t)
	assert.Equal(t, []string{"admin", "pass"}, lines)
	assert.Empty(t, extra)
}

func TestAuthenticateFortiOSPager(t *testing.T) {
	stream, dev := spawnDevice(t, []chat{
		{send: "FGT60E login: ", recv: true},
		{send: "Password: ", recv: true},
		{send: "\r\nWelcome !\r\n\r\nFGT60E # ", recv: true},
		{send: "config system console\r\n\r\nFGT60E (console) # ", recv: true},
		{send: "set output standard\r\n\r\nFGT60E (console) # ", recv: true},
		{send: "end\r\n\r\nFGT60E # "},
	})

	s := newTestSession(t, stream, 2*time.Second)

	require.NoError(t, s.Authenticate("admin", "pass"))
	assert.Equal(t, "fortios", s.Vendor())

	s.Close()

	lines, _ := dev.received(t)
	assert.Equal(t, []string{"admin", "pass", "config system console", "set output standard", "end"}, lines)
}

func TestAuthenticateHuaweiBanner(t *testing.T) {
	stream, dev := spawnDevice(t, []chat{
		{send: "\r\nHuawei Versatile Routing Platform Software\r\n"},
		{send: "\r\nUsername:", recv: true},
		{send: "\r\nPassword:", recv: true},
		{send: "\r\n<HUAWEI>", recv: true},
		{send: "screen-length 0 temporary\r\nInfo: The configuration takes effect on the current user terminal interface only.\r\n<HUAWEI>"},
	})

	s := newTestSession(t, stream, 2*time.Second)

	require.NoError(t, s.Authenticate("lab", "pass"))
	assert.Equal(t, "huawei", s.Vendor())

	s.Close()

	lines, _ := dev.received(t)
	assert.Equal(t, []string{"lab", "pass", "screen-length 0 temporary"}, lines)
}

func TestAuthenticateJunOS(t *testing.T) {
	stream, dev := spawnDevice(t, []chat{
		{send: "\r\nrouter1 (ttyp0)\r\n\r\nlogin: ", recv: true},
		{send: "\r\nPassword:", recv: true},
		{send: "\r\n--- JUNOS 12.3R6.6 built 2014-03-13\r\nlab@router1> ", recv: true},
		{send: "set cli screen-length 0 \r\nScreen length set to 0\r\n\r\nlab@router1> "},
	})

	s := newTestSession(t, stream, 2*time.Second)

	require.NoError(t, s.Authenticate("lab", "pass"))
	assert.Equal(t, "junos", s.Vendor())

	s.Close()

	lines, _ := dev.received(t)
	assert.Equal(t, []string{"lab", "pass", "set cli screen-length 0"}, lines)
}

func TestAuthenticateUnix(t *testing.T) {
	stream, dev := spawnDevice(t, []chat{
		{send: "Debian GNU/Linux 12\r\n\r\ndebian login: ", recv: true},
		{send: "Password: ", recv: true},
		{send: "\r\nLast login: Mon Oct 12 10:00:00 2026\r\nlab@debian:~$ "},
	})

	s := newTestSession(t, stream, 2*time.Second)

	require.NoError(t, s.Authenticate("lab", "pass"))
	assert.Equal(t, "unix", s.Vendor())

	s.Close()

	lines, _ := dev.received(t)
	assert.Equal(t, []string{"lab", "pass"}, lines)
}

func TestAuthenticateTwice(t *testing.T) {
	stream, _ := spawnDevice(t, []chat{{send: "\r\nrouter>"}})

	s := newTestSession(t, stream, 2*time.Second)
	defer s.Close()

	require.NoError(t, s.Authenticate("lab", "pass"))

	err := s.Authenticate("lab", "pass")
	assert.True(t, errors.Is(err, ErrInvalidState), "got %v", err)
}

func TestAuthenticateIterationCap(t *testing.T) {
	banner := chat{send: "\r\nHuawei Versatile Routing Platform\r\n"}
	stream, _ := spawnDevice(t, []chat{banner, banner, banner, banner})

	logger := &testLogger{t}
	vendors, _ := BuildVendorTable(logger, nil)
	opt := NewOptions()
	opt.Timeout = 2 * time.Second
	opt.MaxIterations = 3
	s := NewSession(logger, "lab1", stream, DefaultPromptTable(), vendors, opt)
	defer s.Close()

	err := s.Authenticate("lab", "pass")

	var pe *ProtocolError
	require.True(t, errors.As(err, &pe), "want ProtocolError, got %v", err)
	assert.Equal(t, 3, pe.Iterations)
	assert.Equal(t, StateFailed, s.State())
	assert.True(t, strings.Count(pe.Buffer, "Huawei Versatile Routing Platform") >= 3, "whole login transcript kept: %q", pe.Buffer)
}

func TestAuthenticateTimeout(t *testing.T) {
	stream, _ := spawnDevice(t, []chat{{send: "\r\nWelcome\r\n"}})

	s := newTestSession(t, stream, 300*time.Millisecond)
	defer s.Close()

	err := s.Authenticate("lab", "pass")

	var te *TimeoutError
	require.True(t, errors.As(err, &te), "want TimeoutError, got %v", err)
	assert.Contains(t, te.Buffer, "Welcome")
	assert.Equal(t, StateFailed, s.State())
}

func TestAuthorizeCisco(t *testing.T) {
	stream, dev := spawnDevice(t, []chat{
		{send: "\r\nUsername: ", recv: true},
		{send: "\r\nPassword: ", recv: true},
		{send: "\r\nrouter>", recv: true},
		{send: "term len 0\r\nrouter>", recv: true},
		{send: "enable\r\nPassword: ", recv: true},
		{send: "\r\nrouter#"},
	})

	s := newTestSession(t, stream, 2*time.Second)

	require.NoError(t, s.Authenticate("lab", "pass"))
	require.NoError(t, s.Authorize("en"))
	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, "cisco", s.Vendor())

	s.Close()

	lines, _ := dev.received(t)
	assert.Equal(t, []string{"lab", "pass", "term len 0", "enable", "en"}, lines)
}

func TestAuthorizeRejected(t *testing.T) {
	stream, _ := spawnDevice(t, []chat{
		{send: "\r\nUsername: ", recv: true},
		{send: "\r\nPassword: ", recv: true},
		{send: "\r\nrouter>", recv: true},
		{send: "term len 0\r\nrouter>", recv: true},
		{send: "enable\r\nPassword: ", recv: true},
		{send: "\r\n% Bad passwords\r\n\r\nrouter>"},
	})

	s := newTestSession(t, stream, 2*time.Second)
	defer s.Close()

	require.NoError(t, s.Authenticate("lab", "pass"))

	err := s.Authorize("wrong")

	var ae *AuthenticationError
	require.True(t, errors.As(err, &ae), "want AuthenticationError, got %v", err)
	assert.Equal(t, StateFailed, s.State())
}

func TestAuthorizeBadSecret(t *testing.T) {
	stream, _ := spawnDevice(t, []chat{
		{send: "\r\nUsername: ", recv: true},
		{send: "\r\nPassword: ", recv: true},
		{send: "\r\nrouter>", recv: true},
		{send: "term len 0\r\nrouter>", recv: true},
		{send: "enable\r\nPassword: ", recv: true},
		{send: "\r\n% Bad secrets\r\n\r\nrouter>"},
	})

	s := newTestSession(t, stream, 2*time.Second)
	defer s.Close()

	require.NoError(t, s.Authenticate("lab", "pass"))

	err := s.Authorize("wrong")

	var ae *AuthenticationError
	require.True(t, errors.As(err, &ae), "want AuthenticationError, got %v", err)
	assert.Contains(t, ae.Buffer, "Bad secrets")
	assert.Equal(t, StateFailed, s.State())
}

func TestAuthorizeWithoutEscalation(t *testing.T) {
	stream, dev := spawnDevice(t, []chat{
		{send: "debian login: ", recv: true},
		{send: "Password: ", recv: true},
		{send: "\r\nlab@debian:~$ "},
	})

	s := newTestSession(t, stream, 2*time.Second)

	require.NoError(t, s.Authenticate("lab", "pass"))
	require.NoError(t, s.Authorize("en"))

	s.Close()

	lines, extra := dev.received(t)
	assert.Equal(t, []string{"lab", "pass"}, lines)
	assert.Empty(t, extra)
}

func TestAuthorizeBeforeAuthenticate(t *testing.T) {
	stream, _ := spawnDevice(t, nil)

	s := newTestSession(t, stream, time.Second)
	defer s.Close()

	err := s.Authorize("en")
	assert.True(t, errors.Is(err, ErrInvalidState), "got %v", err)
}

func TestSendAfterClose(t *testing.T) {
	stream, _ := spawnDevice(t, nil)

	s := newTestSession(t, stream, time.Second)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "second close is a no-op")

	err := s.Sendln("show version")

	var ce *ConnectionError
	require.True(t, errors.As(err, &ce), "want ConnectionError, got %v", err)
	assert.NotNil(t, ce.Err)
}

// Package conf holds the clichat configuration: session options, prompt
// rules and vendor profiles, as plain data loaded from YAML.
package conf

import (
	"fmt"
	"io/ioutil"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the full configuration file.
type Config struct {
	Session SessionConfig      `yaml:"session"`
	Prompts []PromptRule       `yaml:"prompts,omitempty"` // empty: built-in table
	Vendors []VendorAttributes `yaml:"vendors,omitempty"` // added to or replacing built-in vendors
}

// SessionConfig holds per-session automaton options.
type SessionConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	Terminator    string        `yaml:"terminator"`
	MaxIterations int           `yaml:"max_iterations"`
	OTPHash       string        `yaml:"otp_hash"`
	OTPEncoding   string        `yaml:"otp_encoding"`
	OTPCount      int           `yaml:"otp_count"`
}

// PromptRule is the uncompiled form of a prompt table entry.
type PromptRule struct {
	Category string `yaml:"category"`
	Vendor   string `yaml:"vendor,omitempty"`
	Pattern  string `yaml:"pattern"`
}

// VendorAttributes is the uncompiled form of a vendor profile.
type VendorAttributes struct {
	ID                string `yaml:"id"`
	ShellPrompt       string `yaml:"shell_prompt"`
	ErrorLine         string `yaml:"error_line"`
	EscalationCommand string `yaml:"escalation_command,omitempty"` // enable
	PaginationCommand string `yaml:"pagination_command,omitempty"` // term len 0
	LineFilter        string `yaml:"line_filter,omitempty"`        // applied to saved output
}

// Default session values.
const (
	DefaultTimeout       = 20 * time.Second
	DefaultTerminator    = "\n"
	DefaultMaxIterations = 32
	DefaultOTPHash       = "md4"
	DefaultOTPEncoding   = "sixword"
	DefaultOTPCount      = 1
)

// New creates a configuration filled with defaults.
func New() *Config {
	return &Config{Session: NewSessionConfig()}
}

// NewSessionConfig returns the default session options.
func NewSessionConfig() SessionConfig {
	return SessionConfig{
		Timeout:       DefaultTimeout,
		Terminator:    DefaultTerminator,
		MaxIterations: DefaultMaxIterations,
		OTPHash:       DefaultOTPHash,
		OTPEncoding:   DefaultOTPEncoding,
		OTPCount:      DefaultOTPCount,
	}
}

// NewVendorAttr creates attributes shared by most CLI vendors.
func NewVendorAttr(id string) VendorAttributes {
	return VendorAttributes{
		ID:          id,
		ShellPrompt: `[\r\n][\-\w+.:@~/]+(?:\([^)\r\n]+\))?[>#$%] ?$`,
		ErrorLine:   `^%\s*(?:[Ee]rror|[Ii]nvalid|[Ii]ncomplete|[Uu]nrecognized|[Aa]mbiguous|[Uu]nknown|[Bb]ad)`,
	}
}

// DefaultPromptRules lists the built-in login dialog rules.
// Order inside a category is significant: cisco, junos and fortios user
// prompts are more specific than the unix one. A shell prompt rule tagged
// with a vendor also identifies the vendor.
func DefaultPromptRules() []PromptRule {
	return []PromptRule{
		{Category: "login-failure", Pattern: `(?i)(?:^|[\r\n])[%\s]*(?:login (?:failed|incorrect|invalid)|(?:incorrect|invalid) (?:login|password|username)|authentication failed|access denied|bad (?:passwords?|secrets?))`},
		{Category: "user-prompt", Vendor: "cisco", Pattern: `(?i)(?:^|[\r\n])user ?name: ?$`},
		{Category: "user-prompt", Vendor: "junos", Pattern: `(?i)(?:^|[\r\n])login: ?$`},
		{Category: "user-prompt", Vendor: "fortios", Pattern: `(?i)(?:^|[\r\n])(?:fortigate|fortiwifi|fgt)[\w\-.]* login: ?$`},
		{Category: "user-prompt", Vendor: "unix", Pattern: `(?i)(?:user|login): ?$`},
		{Category: "otp-challenge", Pattern: `(?i)(?:s/key|otp-md[45]|otp-sha1|otp)\s+(\d+)\s+(\S+)\s`},
		{Category: "cleartext-password", Pattern: `(?i)pass(?:word|code|phrase)[^\r\n:]*: ?$`},
		{Category: "vendor-banner", Vendor: "huawei", Pattern: `(?i)huawei (?:versatile routing platform|technologies)`},
		{Category: "vendor-banner", Vendor: "iosxr", Pattern: `Cisco IOS XR Software`},
		{Category: "vendor-banner", Vendor: "mikrotik", Pattern: `MikroTik RouterOS`},
		{Category: "vendor-banner", Vendor: "dmswitch", Pattern: `(?i)\bdm ?switch\b`},
		{Category: "shell-prompt", Vendor: "iosxr", Pattern: `[\r\n]RP/\d+/\w+/CPU\d+:[\-\w.]+[>#] ?$`},
		{Category: "shell-prompt", Pattern: `[\r\n](?:<[\w\-.:/]+>|\[[~*]?[\w\-.:/]+\]|[\-\w+.:@~/]+(?:\([^)\r\n]+\))?[>#$%]) ?$`},
	}
}

// Load reads a YAML configuration file. Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	b, readErr := ioutil.ReadFile(path)
	if readErr != nil {
		return nil, readErr
	}
	return Parse(b)
}

// Parse decodes a YAML configuration buffer.
func Parse(b []byte) (*Config, error) {
	c := New()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("conf: parse: %v", err)
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) check() error {
	if c.Session.Timeout <= 0 {
		return fmt.Errorf("conf: bad session timeout: %v", c.Session.Timeout)
	}
	if c.Session.MaxIterations < 1 {
		return fmt.Errorf("conf: bad max_iterations: %d", c.Session.MaxIterations)
	}
	if c.Session.OTPCount < 1 {
		return fmt.Errorf("conf: bad otp_count: %d", c.Session.OTPCount)
	}
	for i, v := range c.Vendors {
		if v.ID == "" {
			return fmt.Errorf("conf: vendor %d: missing id", i)
		}
	}
	return nil
}

// Dump encodes the configuration as YAML.
func (c *Config) Dump() ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	return b, nil
}

package conf

import (
	"io/ioutil"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := New()
	assert.Equal(t, 20*time.Second, c.Session.Timeout)
	assert.Equal(t, "\n", c.Session.Terminator)
	assert.Equal(t, 32, c.Session.MaxIterations)
	assert.Equal(t, "md4", c.Session.OTPHash)
	assert.Equal(t, "sixword", c.Session.OTPEncoding)
	assert.Equal(t, 1, c.Session.OTPCount)
	assert.Empty(t, c.Prompts)
	assert.Empty(t, c.Vendors)
}

func TestDefaultPromptRulesCompile(t *testing.T) {
	for _, r := range DefaultPromptRules() {
		_, err := regexp.Compile(r.Pattern)
		assert.NoError(t, err, "category=%s vendor=%s", r.Category, r.Vendor)
	}

	a := NewVendorAttr("x")
	_, err := regexp.Compile(a.ShellPrompt)
	assert.NoError(t, err)
	_, err = regexp.Compile(a.ErrorLine)
	assert.NoError(t, err)
}

func TestParse(t *testing.T) {
	input := `
session:
  timeout: 45s
  terminator: "\r"
  otp_hash: md5
prompts:
  - category: shell-prompt
    pattern: '[>#] ?$'
vendors:
  - id: nokia
    shell_prompt: '[\r\n][AB]:[\w\-.]+# ?$'
    pagination_command: environment no more
`
	c, err := Parse([]byte(input))
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, c.Session.Timeout)
	assert.Equal(t, "\r", c.Session.Terminator)
	assert.Equal(t, "md5", c.Session.OTPHash)
	assert.Equal(t, 32, c.Session.MaxIterations, "missing field keeps default")

	require.Len(t, c.Prompts, 1)
	assert.Equal(t, "shell-prompt", c.Prompts[0].Category)

	require.Len(t, c.Vendors, 1)
	assert.Equal(t, "nokia", c.Vendors[0].ID)
	assert.Equal(t, "environment no more", c.Vendors[0].PaginationCommand)
}

func TestParseErrors(t *testing.T) {
	bad := []string{
		"session: [",
		"session:\n  timeout: -1s\n",
		"session:\n  max_iterations: 0\n",
		"session:\n  otp_count: 0\n",
		"vendors:\n  - shell_prompt: '#$'\n",
	}
	for _, b := range bad {
		_, err := Parse([]byte(b))
		assert.Error(t, err, "input=%q", b)
	}
}

func TestLoadAndDump(t *testing.T) {
	c := New()
	c.Session.Timeout = 5 * time.Second
	c.Vendors = append(c.Vendors, NewVendorAttr("acme"))

	b, dumpErr := c.Dump()
	require.NoError(t, dumpErr)

	path := filepath.Join(t.TempDir(), "clichat.yaml")
	require.NoError(t, ioutil.WriteFile(path, b, 0640))

	loaded, loadErr := Load(path)
	require.NoError(t, loadErr)
	assert.Equal(t, c, loaded)

	_, missingErr := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, missingErr)
}

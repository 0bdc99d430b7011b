package main

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitBufLines(t *testing.T) {
	table := []struct {
		input string
		want  int
	}{
		{"", 0}, {"x", 1}, {"\n", 1}, {"x\n", 1}, {"\nx", 2}, {"x\nx", 2},
		{"\n\n", 2}, {"x\n\n", 2}, {"\nx\n", 2}, {"\n\nx", 3}, {"\n\nx\n", 3}, {"\n\n\n", 3},
	}
	for _, c := range table {
		assert.Len(t, splitBufLines([]byte(c.input)), c.want, "input=%q", c.input)
	}
}

func TestWriteDiff(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "r1.0")
	to := filepath.Join(dir, "r1.1")
	require.NoError(t, ioutil.WriteFile(from, []byte("a\nb\nc\n"), 0640))
	require.NoError(t, ioutil.WriteFile(to, []byte("a\nc\nd\n"), 0640))

	var out bytes.Buffer
	changes, err := writeDiff(&out, from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, changes)
	assert.Contains(t, out.String(), "-2: b\n")
	assert.Contains(t, out.String(), "+3: d\n")

	_, err = writeDiff(&out, from, filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}

func TestErrlogHistory(t *testing.T) {
	path := errlogPath(t.TempDir(), "r1")

	begin := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		r := result{ID: "r1", Host: "r1", Transport: "ssh", Vendor: "junos", Begin: begin, End: begin.Add(time.Duration(i) * time.Second)}
		require.NoError(t, errlog(discardLogger{}, r, path, 3))
	}

	buf, err := ioutil.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(buf), "\n"), "\n")
	require.Len(t, lines, 3, "history is bounded")
	assert.Contains(t, lines[0], "elapsed=4s", "newest first")
	assert.Contains(t, lines[2], "elapsed=2s")
	assert.Contains(t, lines[0], "success=true")
}

func TestNewLoggerLevels(t *testing.T) {
	var out bytes.Buffer

	logger, closer, err := newLogger(&out, logConfig{debug: true})
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.Printf("hello %s", "world")
	assert.Contains(t, out.String(), "hello world")

	out.Reset()

	quiet, _, quietErr := newLogger(&out, logConfig{disableStdout: true})
	require.NoError(t, quietErr)
	quiet.Printf("nobody hears this")
	assert.Empty(t, out.String())
}

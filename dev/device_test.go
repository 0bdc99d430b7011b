package dev

import (
	"net"
	"testing"
	"time"
)

// testLogger: wrap Printf interface around *testing.T
type testLogger struct {
	*testing.T
}

func (t *testLogger) Printf(format string, v ...interface{}) {
	t.Logf("client: "+format, v...)
}

// chat is one step of a bogus device dialog: emit send, then, if recv is
// set, read one line from the client. hangup closes the connection.
type chat struct {
	send   string
	recv   bool
	hangup bool
}

// bogusDevice plays a scripted dialog on the far end of a pipe.
type bogusDevice struct {
	conn  net.Conn
	lines chan string // lines received from client
	extra chan []byte // bytes received after the script ended
}

func spawnDevice(t *testing.T, script []chat) (Stream, *bogusDevice) {
	client, server := net.Pipe()
	return client, startDevice(t, server, script)
}

// startDevice plays script on the server side of conn.
func startDevice(t *testing.T, conn net.Conn, script []chat) *bogusDevice {
	d := &bogusDevice{
		conn:  conn,
		lines: make(chan string, 100),
		extra: make(chan []byte, 1),
	}

	go d.run(t, script)

	return d
}

func (d *bogusDevice) run(t *testing.T, script []chat) {
	defer d.conn.Close()
	defer close(d.lines)

	for i, c := range script {
		if c.send != "" {
			if _, err := d.conn.Write([]byte(c.send)); err != nil {
				t.Logf("bogusDevice: step %d: send error: %v", i, err)
				d.extra <- nil
				return
			}
		}
		if c.recv {
			line, err := readLine(d.conn)
			if err != nil {
				t.Logf("bogusDevice: step %d: recv error: %v", i, err)
				d.extra <- nil
				return
			}
			d.lines <- line
		}
		if c.hangup {
			d.extra <- nil
			return
		}
	}

	// drain until the client closes
	var extra []byte
	buf := make([]byte, 1000)
	for {
		n, err := d.conn.Read(buf)
		extra = append(extra, buf[:n]...)
		if err != nil {
			break
		}
	}
	d.extra <- extra
}

// received waits for the dialog to finish and returns what the client sent.
func (d *bogusDevice) received(t *testing.T) ([]string, []byte) {
	var extra []byte
	select {
	case extra = <-d.extra:
	case <-time.After(5 * time.Second):
		t.Fatalf("bogusDevice: dialog did not finish")
	}
	var lines []string
	for l := range d.lines {
		lines = append(lines, l)
	}
	return lines, extra
}

// readLine reads up to LF, dropping CR and telnet IAC sequences.
func readLine(c net.Conn) (string, error) {
	var line []byte
	b := make([]byte, 1)
	for {
		if _, err := c.Read(b); err != nil {
			return string(line), err
		}
		switch b[0] {
		case '\n':
			return string(line), nil
		case '\r':
		case 255: // IAC cmd opt
			skip := make([]byte, 2)
			if _, err := c.Read(skip[:1]); err != nil {
				return string(line), err
			}
			if _, err := c.Read(skip[1:]); err != nil {
				return string(line), err
			}
		default:
			line = append(line, b[0])
		}
	}
}

func newTestSession(t *testing.T, stream Stream, timeout time.Duration) *Session {
	logger := &testLogger{t}
	vendors, err := BuildVendorTable(logger, nil)
	if err != nil {
		t.Fatalf("BuildVendorTable: %v", err)
	}
	opt := NewOptions()
	opt.Timeout = timeout
	opt.Debug = true
	return NewSession(logger, "lab1", stream, DefaultPromptTable(), vendors, opt)
}

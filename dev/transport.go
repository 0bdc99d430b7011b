package dev

import (
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/ziutek/telnet"
	"golang.org/x/crypto/ssh"
)

// Stream is the character transport a session runs over.
// Close must unblock a pending Read.
type Stream interface {
	Read(b []byte) (n int, err error)
	Write(b []byte) (n int, err error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// OpenStream connects to hostPort using transport "telnet" or "ssh".
// For ssh, user and pass authenticate the ssh layer; the device may still
// run its own login dialog on the shell channel.
func OpenStream(logger hasPrintf, transport, hostPort, user, pass string, timeout time.Duration) (Stream, error) {
	switch transport {
	case "ssh":
		hp := forceHostPort(hostPort, "22")
		s, err := openSSH(hp, timeout, user, pass)
		if err != nil {
			return nil, fmt.Errorf("OpenStream: %v", err)
		}
		logger.Printf("OpenStream: ssh %s: connected", hp)
		return s, nil
	case "telnet", "":
		hp := forceHostPort(hostPort, "23")
		s, err := openTelnet(hp, timeout)
		if err != nil {
			return nil, fmt.Errorf("OpenStream: %v", err)
		}
		logger.Printf("OpenStream: telnet %s: connected", hp)
		return s, nil
	}
	return nil, fmt.Errorf("OpenStream: unsupported transport: [%s]", transport)
}

func forceHostPort(hostPort, defaultPort string) string {
	if _, _, err := net.SplitHostPort(hostPort); err == nil {
		return hostPort
	}
	return net.JoinHostPort(strings.Trim(hostPort, "[]"), defaultPort)
}

// telnet option negotiation is handled by the telnet connection.
func openTelnet(hostPort string, timeout time.Duration) (Stream, error) {
	conn, err := telnet.DialTimeout("tcp", hostPort, timeout)
	if err != nil {
		return nil, fmt.Errorf("openTelnet: %s: %v", hostPort, err)
	}
	return conn, nil
}

// NewTelnetStream wraps an established connection with telnet processing.
func NewTelnetStream(conn net.Conn) (Stream, error) {
	return telnet.NewConn(conn)
}

// streamSSH exposes a remote shell as a Stream.
// The shell output is copied into one end of a net.Pipe, so reads honor
// deadlines and Close unblocks them.
type streamSSH struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	local   net.Conn // read side
	remote  net.Conn // fed from shell stdout
}

func (s *streamSSH) Read(b []byte) (int, error) {
	return s.local.Read(b)
}

func (s *streamSSH) Write(b []byte) (int, error) {
	return s.stdin.Write(b)
}

func (s *streamSSH) SetReadDeadline(t time.Time) error {
	return s.local.SetReadDeadline(t)
}

func (s *streamSSH) Close() error {
	err1 := s.session.Close()
	err2 := s.client.Close()
	s.local.Close()
	s.remote.Close()
	if err2 != nil {
		return fmt.Errorf("close error: session=[%v] client=[%v]", err1, err2)
	}
	return nil
}

func (s *streamSSH) pump(stdout io.Reader) {
	io.Copy(s.remote, stdout)
	s.remote.Close() // reader sees EOF
}

// legacy algorithms kept for old network devices
var (
	sshKeyExchanges = []string{
		"curve25519-sha256@libssh.org",
		"ecdh-sha2-nistp256",
		"ecdh-sha2-nistp384",
		"ecdh-sha2-nistp521",
		"diffie-hellman-group14-sha1",
		"diffie-hellman-group1-sha1",
	}
	sshCiphers = []string{
		"aes128-ctr",
		"aes192-ctr",
		"aes256-ctr",
		"aes128-gcm@openssh.com",
		"aes128-cbc",
		"3des-cbc",
	}
)

func openSSH(hostPort string, timeout time.Duration, user, pass string) (Stream, error) {

	conn, dialErr := net.DialTimeout("tcp", hostPort, timeout)
	if dialErr != nil {
		return nil, fmt.Errorf("openSSH: Dial: %s: %v", hostPort, dialErr)
	}

	config := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.Password(pass),
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = pass
				}
				return answers, nil
			}),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
		Config: ssh.Config{
			KeyExchanges: sshKeyExchanges,
			Ciphers:      sshCiphers,
		},
	}

	// bound the handshake; cleared once connected
	conn.SetDeadline(time.Now().Add(timeout))

	c, chans, reqs, connErr := ssh.NewClientConn(conn, hostPort, config)
	if connErr != nil {
		conn.Close()
		return nil, fmt.Errorf("openSSH: NewClientConn: %s: %v", hostPort, connErr)
	}

	conn.SetDeadline(time.Time{})

	cli := ssh.NewClient(c, chans, reqs)

	ses, sessionErr := cli.NewSession()
	if sessionErr != nil {
		cli.Close()
		return nil, fmt.Errorf("openSSH: NewSession: %s: %v", hostPort, sessionErr)
	}

	modes := ssh.TerminalModes{}

	if ptyErr := ses.RequestPty("xterm", 80, 40, modes); ptyErr != nil {
		ses.Close()
		cli.Close()
		return nil, fmt.Errorf("openSSH: Pty: %s: %v", hostPort, ptyErr)
	}

	stdout, outErr := ses.StdoutPipe()
	if outErr != nil {
		ses.Close()
		cli.Close()
		return nil, fmt.Errorf("openSSH: StdoutPipe: %s: %v", hostPort, outErr)
	}

	stdin, inErr := ses.StdinPipe()
	if inErr != nil {
		ses.Close()
		cli.Close()
		return nil, fmt.Errorf("openSSH: StdinPipe: %s: %v", hostPort, inErr)
	}

	if shellErr := ses.Shell(); shellErr != nil {
		ses.Close()
		cli.Close()
		return nil, fmt.Errorf("openSSH: remote shell error: %s: %v", hostPort, shellErr)
	}

	local, remote := net.Pipe()

	s := &streamSSH{client: cli, session: ses, stdin: stdin, local: local, remote: remote}

	go s.pump(stdout)

	return s, nil
}

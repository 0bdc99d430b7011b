package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// result summarizes one run for the per-device error log.
type result struct {
	ID        string
	Host      string
	Transport string
	Vendor    string
	Capture   string
	Begin     time.Time
	End       time.Time
	Err       error
}

func (r result) String() string {
	msg := ""
	if r.Err != nil {
		msg = r.Err.Error()
	}
	return fmt.Sprintf("%s success=%v elapsed=%v vendor=%s dev=%s host=%s transport=%s capture=%s message=[%q]",
		r.End.Format(time.RFC3339), r.Err == nil, r.End.Sub(r.Begin), r.Vendor, r.ID, r.Host, r.Transport, r.Capture, msg)
}

// errlogPath places the error log next to the captures of id.
func errlogPath(repository, id string) string {
	return filepath.Join(repository, id) + ".errlog"
}

// errlog pushes r on top of the error log, keeping at most histSize lines.
func errlog(logger hasPrintf, r result, path string, histSize int) error {

	f, openErr := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0640)
	if openErr != nil {
		return fmt.Errorf("errlog: open: %v", openErr)
	}
	defer f.Close()

	lines, loadErr := loadLines(bufio.NewReader(f), histSize-1)
	if loadErr != nil {
		return fmt.Errorf("errlog: load '%s': %v", path, loadErr)
	}

	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("errlog: truncate '%s': %v", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("errlog: seek '%s': %v", path, err)
	}

	w := bufio.NewWriter(f)

	line := r.String()

	logger.Printf("errlog: push: '%s': %s", path, line)

	if _, err := w.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("errlog: write '%s': %v", path, err)
	}

	for _, l := range lines {
		if _, err := w.Write(l); err != nil {
			return fmt.Errorf("errlog: write '%s': %v", path, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("errlog: flush '%s': %v", path, err)
	}

	return f.Sync()
}

func loadLines(r *bufio.Reader, max int) ([][]byte, error) {
	var lines [][]byte

LOOP:
	for len(lines) < max {
		line, readErr := r.ReadBytes('\n')
		if len(line) > 0 {
			if line[len(line)-1] != '\n' {
				line = append(line, '\n')
			}
			lines = append(lines, line)
		}
		switch readErr {
		case nil:
		case io.EOF:
			break LOOP
		default:
			return lines, readErr
		}
	}

	return lines, nil
}

// Package store keeps a rotating repository of command captures.
//
// Captures for one device share a path prefix; each save creates
// prefix+N where N grows by one, and prefix+"last" holds the latest N.
// Paths of the form arn:aws:s3:region::bucket/key live on S3.
package store

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/udhos/equalfile"
)

type hasPrintf interface {
	Printf(fmt string, v ...interface{})
}

const contentType = "text/plain"

// Init sets the logger and the default S3 region.
func Init(logger hasPrintf, region string) {
	if logger == nil {
		panic("store.Init: nil logger")
	}
	s3init(logger, region)
}

// ExtractCaptureID returns the numeric suffix of a capture path.
func ExtractCaptureID(path string) (int, error) {
	lastDot := strings.LastIndexByte(path, '.')
	suffix := path[lastDot+1:]
	id, err := strconv.Atoi(suffix)
	if err != nil {
		return -1, fmt.Errorf("ExtractCaptureID: bad capture path [%s]: %v", path, err)
	}
	return id, nil
}

func capturePath(prefix, id string) string {
	return prefix + id
}

func lastIDPath(prefix string) string {
	return prefix + "last"
}

func joinPath(dir, name string) string {
	if s3path(dir) {
		return dir + "/" + name
	}
	return filepath.Join(dir, name)
}

// tryShortcut follows the prefix+"last" file.
func tryShortcut(prefix string) string {
	id, err := fileFirstLine(lastIDPath(prefix))
	if err != nil {
		return ""
	}
	path := capturePath(prefix, strings.TrimSpace(id))
	if fileExists(path) {
		return path
	}
	return ""
}

// FindLastCapture returns the path of the most recent capture.
func FindLastCapture(prefix string, logger hasPrintf) (string, error) {

	if path := tryShortcut(prefix); path != "" {
		return path, nil
	}

	logger.Printf("FindLastCapture: no shortcut for [%s]: scanning", prefix)

	dirname, matches, err := ListCaptures(prefix, logger)
	if err != nil {
		return "", err
	}

	if len(matches) < 1 {
		return "", fmt.Errorf("FindLastCapture: no capture found for prefix: %s", prefix)
	}

	maxID := -1
	last := ""
	for _, m := range matches {
		id, idErr := ExtractCaptureID(m)
		if idErr != nil {
			return "", fmt.Errorf("FindLastCapture: %v", idErr)
		}
		if id > maxID {
			maxID = id
			last = m
		}
	}

	lastPath := joinPath(dirname, last)

	logger.Printf("FindLastCapture: found: %s", lastPath)

	return lastPath, nil
}

type byCaptureID []string

func (s byCaptureID) Len() int      { return len(s) }
func (s byCaptureID) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s byCaptureID) Less(i, j int) bool {
	id1, _ := ExtractCaptureID(s[i])
	id2, _ := ExtractCaptureID(s[j])
	return id1 < id2
}

// ListCapturesSorted is ListCaptures ordered by capture id.
func ListCapturesSorted(prefix string, reverse bool, logger hasPrintf) (string, []string, error) {
	dirname, matches, err := ListCaptures(prefix, logger)
	if err != nil {
		return dirname, matches, err
	}
	if reverse {
		sort.Sort(sort.Reverse(byCaptureID(matches)))
	} else {
		sort.Sort(byCaptureID(matches))
	}
	return dirname, matches, nil
}

// ListCaptures returns the directory and the base names of the captures
// under prefix, in no particular order.
func ListCaptures(prefix string, logger hasPrintf) (string, []string, error) {

	dirname, names, err := dirList(prefix)
	if err != nil {
		return dirname, nil, err
	}

	logger.Printf("ListCaptures: prefix=[%s] names=%d", prefix, len(names))

	basename := baseName(prefix)

	var matches []string
	for _, n := range names {
		if !strings.HasPrefix(n, basename) {
			continue
		}
		if isDigits(n[len(basename):]) {
			matches = append(matches, n)
		}
	}

	return dirname, matches, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func baseName(prefix string) string {
	if s3path(prefix) {
		return prefix[strings.LastIndexByte(prefix, '/')+1:]
	}
	return filepath.Base(prefix)
}

func dirList(prefix string) (string, []string, error) {

	if s3path(prefix) {
		return s3dirList(prefix)
	}

	dirname := filepath.Dir(prefix)

	dir, err := os.Open(dirname)
	if err != nil {
		return dirname, nil, fmt.Errorf("dirList: error opening dir '%s': %v", dirname, err)
	}
	defer dir.Close()

	names, readErr := dir.Readdirnames(0)
	if readErr != nil {
		return dirname, nil, fmt.Errorf("dirList: error reading dir '%s': %v", dirname, readErr)
	}

	return dirname, names, nil
}

func fileFirstLine(path string) (string, error) {

	if s3path(path) {
		return s3fileFirstLine(path)
	}

	f, openErr := os.Open(path)
	if openErr != nil {
		return "", openErr
	}
	defer f.Close()

	r := bufio.NewReader(f)
	line, _, readErr := r.ReadLine()

	return string(line), readErr
}

func fileExists(path string) bool {

	if s3path(path) {
		return s3fileExists(path)
	}

	_, err := os.Stat(path)
	return err == nil
}

func fileRemove(path string) error {

	if s3path(path) {
		return s3fileRemove(path)
	}

	return os.Remove(path)
}

func fileRename(p1, p2 string) error {

	if s3path(p1) {
		return s3fileRename(p1, p2)
	}

	return os.Rename(p1, p2)
}

// FileRead loads a whole capture.
func FileRead(path string) ([]byte, error) {

	if s3path(path) {
		return s3fileRead(path)
	}

	return ioutil.ReadFile(path)
}

// FileInfo reports modification time and size of a capture.
func FileInfo(path string) (time.Time, int64, error) {

	if s3path(path) {
		return s3fileInfo(path)
	}

	info, statErr := os.Stat(path)
	if statErr != nil {
		return time.Time{}, 0, statErr
	}

	return info.ModTime(), info.Size(), nil
}

// MkDir creates the local directory for a prefix. S3 needs none.
func MkDir(path string) error {

	if s3path(path) {
		return nil
	}

	return os.MkdirAll(path, 0750)
}

func fileCompare(p1, p2 string) (bool, error) {

	if s3path(p1) {
		return s3fileCompare(p1, p2)
	}

	return equalfile.New(nil, equalfile.Options{}).CompareFile(p1, p2)
}

func writeFileBuf(path string, buf []byte) error {

	if s3path(path) {
		return s3fileput(path, buf, contentType)
	}

	return ioutil.WriteFile(path, buf, 0640)
}

func writeFile(path string, writeFunc func(io.Writer) error) error {

	if s3path(path) {
		var buf bytes.Buffer
		if err := writeFunc(&buf); err != nil {
			return fmt.Errorf("writeFile: [%s]: %v", path, err)
		}
		return s3fileput(path, buf.Bytes(), contentType)
	}

	f, createErr := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0640)
	if createErr != nil {
		return fmt.Errorf("writeFile: %v", createErr)
	}

	w := bufio.NewWriter(f)

	if err := writeFunc(w); err != nil {
		f.Close()
		return fmt.Errorf("writeFile: [%s]: %v", path, err)
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writeFile: flush: [%s]: %v", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("writeFile: close: [%s]: %v", path, err)
	}

	return nil
}

// SaveNewCapture writes a new capture through writeFunc and returns its
// path. With changesOnly, a capture identical to the previous one is
// discarded and the previous path is returned. Captures beyond maxFiles
// are erased, oldest first; maxFiles < 1 keeps all.
func SaveNewCapture(prefix string, maxFiles int, logger hasPrintf, writeFunc func(io.Writer) error, changesOnly bool) (string, error) {

	tmpPath := capturePath(prefix, "tmp")
	if fileExists(tmpPath) {
		return "", fmt.Errorf("SaveNewCapture: tmp file exists: [%s]", tmpPath)
	}

	if err := writeFile(tmpPath, writeFunc); err != nil {
		fileRemove(tmpPath)
		return "", fmt.Errorf("SaveNewCapture: %v", err)
	}

	defer func() {
		if fileExists(tmpPath) {
			fileRemove(tmpPath)
		}
	}()

	id := -1

	lastPath, findErr := FindLastCapture(prefix, logger)
	if findErr != nil {
		logger.Printf("SaveNewCapture: no previous capture: %v", findErr)
	} else {
		lastID, idErr := ExtractCaptureID(lastPath)
		if idErr != nil {
			return "", fmt.Errorf("SaveNewCapture: %v", idErr)
		}
		id = lastID

		if changesOnly {
			equal, equalErr := fileCompare(lastPath, tmpPath)
			switch {
			case equalErr != nil:
				logger.Printf("SaveNewCapture: could not compare previous=[%s] to new=[%s]: %v", lastPath, tmpPath, equalErr)
			case equal:
				logger.Printf("SaveNewCapture: unchanged since [%s]: discarding", lastPath)
				return lastPath, nil
			default:
				logger.Printf("SaveNewCapture: changed since [%s]", lastPath)
			}
		}
	}

	newID := id + 1
	newPath := capturePath(prefix, strconv.Itoa(newID))

	if fileExists(newPath) {
		return "", fmt.Errorf("SaveNewCapture: new file exists: [%s]", newPath)
	}

	if err := fileRename(tmpPath, newPath); err != nil {
		return "", fmt.Errorf("SaveNewCapture: rename '%s' to '%s': %v", tmpPath, newPath, err)
	}

	logger.Printf("SaveNewCapture: saved [%s]", newPath)

	shortcut := lastIDPath(prefix)
	if err := writeFileBuf(shortcut, []byte(strconv.Itoa(newID))); err != nil {
		logger.Printf("SaveNewCapture: shortcut '%s': %v", shortcut, err)
		// a stale shortcut would hide the new capture
		fileRemove(shortcut)
	}

	eraseOldFiles(prefix, maxFiles, logger)

	return newPath, nil
}

func eraseOldFiles(prefix string, maxFiles int, logger hasPrintf) {

	if maxFiles < 1 {
		return
	}

	dirname, matches, err := ListCapturesSorted(prefix, false, logger)
	if err != nil {
		logger.Printf("eraseOldFiles: %v", err)
		return
	}

	toDelete := len(matches) - maxFiles

	for i := 0; i < toDelete; i++ {
		path := joinPath(dirname, matches[i])
		logger.Printf("eraseOldFiles: delete: [%s]", path)
		if err := fileRemove(path); err != nil {
			logger.Printf("eraseOldFiles: delete: [%s]: %v", path, err)
		}
	}
}

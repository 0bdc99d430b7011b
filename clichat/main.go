package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/udhos/lockfile"

	"github.com/udhos/clichat/conf"
	"github.com/udhos/clichat/dev"
	"github.com/udhos/clichat/store"
)

const appName = "clichat"
const appVersion = "0.1"

type hasPrintf interface {
	Printf(fmt string, v ...interface{})
}

type options struct {
	configPath       string
	transport        string
	host             string
	id               string
	user             string
	pass             string
	enablePass       string
	commands         string
	repository       string
	maxFiles         int
	changesOnly      bool
	diff             bool
	timeout          time.Duration
	debug            bool
	errlogHistory    int
	logFile          string
	logMaxSize       int
	logMaxFiles      int
	disableStdoutLog bool
	s3region         string
	dumpConfig       bool
}

type app struct {
	opt     options
	cfg     *conf.Config
	logger  *logrus.Logger
	stdout  io.Writer
	prompts *dev.PromptTable
	vendors *dev.VendorTable
	filters *dev.FilterTable
	lock    lockfile.Lockfile
}

func (a *app) logf(format string, v ...interface{}) {
	a.logger.Printf(format, v...)
}

func defaultRegionName() string {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "sa-east-1"
	}
	return region
}

func defaultRepository() string {
	home := os.Getenv("CLICHAT_HOME")
	if home == "" {
		home = "/var/clichat"
	}
	return filepath.Join(home, "repo")
}

// captureID turns a host[:port] into a file name.
func captureID(host string) string {
	return strings.NewReplacer(":", "_", "/", "_", "[", "", "]", "").Replace(host)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opt options

	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opt.configPath, "config", "", "YAML configuration file (empty: built-in defaults)")
	fs.StringVar(&opt.transport, "transport", "telnet", "transport: telnet or ssh")
	fs.StringVar(&opt.host, "host", "", "device host[:port]")
	fs.StringVar(&opt.id, "id", "", "capture name (default: derived from host)")
	fs.StringVar(&opt.user, "user", "", "login username")
	fs.StringVar(&opt.pass, "pass", os.Getenv("CLICHAT_PASS"), "login password (default $CLICHAT_PASS)")
	fs.StringVar(&opt.enablePass, "enablePass", os.Getenv("CLICHAT_ENABLE_PASS"), "privilege escalation password (default $CLICHAT_ENABLE_PASS, then -pass)")
	fs.StringVar(&opt.commands, "commands", "", "commands to run, separated by ';'")
	fs.StringVar(&opt.repository, "repository", defaultRepository(), "capture repository: directory or arn:aws:s3:region::bucket/folder")
	fs.IntVar(&opt.maxFiles, "maxFiles", 120, "captures to keep per device (0: unlimited)")
	fs.BoolVar(&opt.changesOnly, "changesOnly", false, "do not save a capture identical to the previous one")
	fs.BoolVar(&opt.diff, "diff", false, "print differences from the previous capture")
	fs.DurationVar(&opt.timeout, "timeout", 0, "per-prompt timeout (0: from config)")
	fs.BoolVar(&opt.debug, "debug", false, "log every byte sent and received")
	fs.IntVar(&opt.errlogHistory, "errlogHistory", 60, "result lines kept in the device errlog")
	fs.StringVar(&opt.logFile, "logFile", "", "log file path (empty: no log file)")
	fs.IntVar(&opt.logMaxSize, "logMaxSize", 10, "log file size limit in megabytes")
	fs.IntVar(&opt.logMaxFiles, "logMaxFiles", 20, "number of rotated log files to keep")
	fs.BoolVar(&opt.disableStdoutLog, "disableStdoutLog", false, "disable logging to stdout")
	fs.StringVar(&opt.s3region, "s3region", defaultRegionName(), "AWS S3 region")
	fs.BoolVar(&opt.dumpConfig, "dumpConfig", false, "print the effective configuration and exit")

	if err := fs.Parse(args); err != nil {
		return opt, err
	}

	if opt.dumpConfig {
		return opt, nil
	}

	if opt.host == "" {
		return opt, fmt.Errorf("missing -host")
	}
	if opt.id == "" {
		opt.id = captureID(opt.host)
	}
	if opt.enablePass == "" {
		opt.enablePass = opt.pass
	}
	if opt.errlogHistory < 1 {
		return opt, fmt.Errorf("bad -errlogHistory: %d", opt.errlogHistory)
	}

	return opt, nil
}

func splitCommands(list string) []string {
	var cmds []string
	for _, c := range strings.Split(list, ";") {
		if c = strings.TrimSpace(c); c != "" {
			cmds = append(cmds, c)
		}
	}
	return cmds
}

func loadConfig(path string) (*conf.Config, error) {
	if path == "" {
		return conf.New(), nil
	}
	return conf.Load(path)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {

	opt, flagErr := parseFlags(args, stderr)
	if flagErr != nil {
		return flagErr
	}

	cfg, cfgErr := loadConfig(opt.configPath)
	if cfgErr != nil {
		return fmt.Errorf("config: %v", cfgErr)
	}
	if opt.timeout > 0 {
		cfg.Session.Timeout = opt.timeout
	}

	if opt.dumpConfig {
		b, dumpErr := cfg.Dump()
		if dumpErr != nil {
			return dumpErr
		}
		_, err := stdout.Write(b)
		return err
	}

	logger, logCloser, logErr := newLogger(stdout, logConfig{
		file:          opt.logFile,
		maxSizeMB:     opt.logMaxSize,
		maxFiles:      opt.logMaxFiles,
		disableStdout: opt.disableStdoutLog,
		debug:         opt.debug,
	})
	if logErr != nil {
		return fmt.Errorf("log: %v", logErr)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	a := &app{
		opt:     opt,
		cfg:     cfg,
		logger:  logger,
		stdout:  stdout,
		filters: dev.NewFilterTable(logger, opt.debug),
	}

	a.logf("%s %s starting: host=%s transport=%s", appName, appVersion, opt.host, opt.transport)

	var tableErr error
	if a.prompts, tableErr = dev.BuildPromptTable(cfg.Prompts); tableErr != nil {
		return fmt.Errorf("prompts: %v", tableErr)
	}
	if a.vendors, tableErr = dev.BuildVendorTable(logger, cfg.Vendors); tableErr != nil {
		return fmt.Errorf("vendors: %v", tableErr)
	}

	store.Init(logger, opt.s3region)

	if err := store.MkDir(opt.repository); err != nil {
		return fmt.Errorf("repository: %v", err)
	}

	if err := a.exclusiveLock(); err != nil {
		return err
	}
	defer a.exclusiveUnlock()

	r := a.chat()

	if store.S3Path(opt.repository) {
		a.logf("errlog: not kept on S3: %s", opt.repository)
	} else if err := errlog(logger, r, errlogPath(opt.repository, opt.id), opt.errlogHistory); err != nil {
		a.logf("%v", err)
	}

	if r.Err != nil {
		return r.Err
	}

	a.logf("done: %s", r.Capture)

	return nil
}

// chat runs the whole device dialog and saves the capture.
func (a *app) chat() result {
	r := result{
		ID:        a.opt.id,
		Host:      a.opt.host,
		Transport: a.opt.transport,
		Vendor:    dev.VendorUnknown,
		Begin:     time.Now(),
	}

	r.Capture, r.Vendor, r.Err = a.fetch()
	r.End = time.Now()

	if r.Err != nil {
		a.logf("%s: failed after %v: %v", a.opt.id, r.End.Sub(r.Begin), r.Err)
	}

	return r
}

func (a *app) fetch() (string, string, error) {
	opt := dev.NewOptions()
	opt.SessionConfig = a.cfg.Session
	opt.Debug = a.opt.debug

	stream, openErr := dev.OpenStream(a.logger, a.opt.transport, a.opt.host, a.opt.user, a.opt.pass, opt.Timeout)
	if openErr != nil {
		return "", dev.VendorUnknown, openErr
	}

	s := dev.NewSession(a.logger, a.opt.id, stream, a.prompts, a.vendors, opt)
	defer s.Close()

	if err := s.Authenticate(a.opt.user, a.opt.pass); err != nil {
		return "", s.Vendor(), err
	}

	if err := s.Authorize(a.opt.enablePass); err != nil {
		return "", s.Vendor(), err
	}

	var capture strings.Builder

	for _, cmd := range splitCommands(a.opt.commands) {
		out, execErr := s.Execute(cmd)
		if execErr != nil {
			return "", s.Vendor(), execErr
		}
		filtered, filterErr := a.filters.Apply(s.Profile().LineFilter, out)
		if filterErr != nil {
			return "", s.Vendor(), filterErr
		}
		capture.WriteString(filtered)
	}

	path, saveErr := a.save(capture.String())

	return path, s.Vendor(), saveErr
}

func (a *app) save(capture string) (string, error) {
	prefix := a.capturePrefix()

	previous, prevErr := store.FindLastCapture(prefix, a.logger)
	if prevErr != nil {
		previous = ""
	}

	writeFunc := func(w io.Writer) error {
		_, err := io.WriteString(w, capture)
		return err
	}

	path, saveErr := store.SaveNewCapture(prefix, a.opt.maxFiles, a.logger, writeFunc, a.opt.changesOnly)
	if saveErr != nil {
		return "", saveErr
	}

	if a.opt.diff && previous != "" && previous != path {
		changes, diffErr := writeDiff(a.stdout, previous, path)
		if diffErr != nil {
			a.logf("diff: %v", diffErr)
		} else {
			a.logf("diff: %d lines changed", changes)
		}
	}

	return path, nil
}

func (a *app) capturePrefix() string {
	if store.S3Path(a.opt.repository) {
		return strings.TrimSuffix(a.opt.repository, "/") + "/" + a.opt.id + "."
	}
	return filepath.Join(a.opt.repository, a.opt.id) + "."
}

// exclusiveLock keeps two runs from saving captures of the same device
// at once. S3 repositories are not locked.
func (a *app) exclusiveLock() error {
	if store.S3Path(a.opt.repository) {
		return nil
	}

	lockPath, absErr := filepath.Abs(a.capturePrefix() + "lock")
	if absErr != nil {
		return fmt.Errorf("exclusiveLock: %v", absErr)
	}

	var newErr error
	if a.lock, newErr = lockfile.New(lockPath); newErr != nil {
		return fmt.Errorf("exclusiveLock: new failure: '%s': %v", lockPath, newErr)
	}
	if err := a.lock.TryLock(); err != nil {
		return fmt.Errorf("exclusiveLock: lock failure: '%s': %v", lockPath, err)
	}

	return nil
}

func (a *app) exclusiveUnlock() {
	if store.S3Path(a.opt.repository) {
		return
	}
	if err := a.lock.Unlock(); err != nil {
		a.logf("exclusiveUnlock: %v", err)
	}
}

package main

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type logConfig struct {
	file          string // empty: no log file
	maxSizeMB     int
	maxFiles      int
	disableStdout bool
	debug         bool
}

// newLogger sends log lines to stdout and/or a size-rotated file.
// The returned closer releases the log file; it is nil without one.
func newLogger(stdout io.Writer, cfg logConfig) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	})

	if cfg.debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	var writers []io.Writer
	var closer io.Closer

	if !cfg.disableStdout {
		writers = append(writers, stdout)
	}

	if cfg.file != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.file), 0750); err != nil {
			return nil, nil, err
		}
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.file,
			MaxSize:    cfg.maxSizeMB,
			MaxBackups: cfg.maxFiles,
		}
		writers = append(writers, fileWriter)
		closer = fileWriter
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(ioutil.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	return logger, closer, nil
}

// Package logging builds the line-oriented log sink: every entry is appended
// to a log file and echoed to stdout.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// DefaultFile is the log file written in the working directory.
const DefaultFile = ".fauxNpm.log"

// New returns a logger writing to both the file at path (created if needed,
// always appended to) and stdout. The returned closer releases the file.
func New(path string, stdout io.Writer, level logrus.Level) (*logrus.Logger, io.Closer, error) {
	if path == "" {
		path = DefaultFile
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	var out io.Writer = f
	if stdout != nil {
		out = io.MultiWriter(stdout, f)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
	return logger, f, nil
}

// ParseLevel parses a level name, defaulting to info for empty input.
func ParseLevel(s string) (logrus.Level, error) {
	if s == "" {
		return logrus.InfoLevel, nil
	}
	return logrus.ParseLevel(s)
}

// Package logging builds the logfmt loggers shared by every subsystem.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// New returns a logfmt logger writing to w that drops records below levelName
// (debug, info, warn or error). Every record carries a UTC timestamp and caller.
func New(w io.Writer, levelName string) (log.Logger, error) {
	opt, err := levelOption(levelName)
	if err != nil {
		return nil, err
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = level.NewFilter(logger, opt)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return logger, nil
}

// Subsystem tags logger with the subsys key.
func Subsystem(logger log.Logger, name string) log.Logger {
	return log.With(logger, "subsys", name)
}

// Nop discards everything.
func Nop() log.Logger {
	return log.NewNopLogger()
}

func levelOption(name string) (level.Option, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return level.AllowDebug(), nil
	case "", "info":
		return level.AllowInfo(), nil
	case "warn", "warning":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	}
	return nil, fmt.Errorf("unknown log level %q", name)
}

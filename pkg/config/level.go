package config

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/fpgaroute/pkg/errors"
)

// ParseLevel maps a level name (debug, info, warn, error, fatal) to a log
// level.
func ParseLevel(s string) (log.Level, error) {
	l, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel, errors.Wrap(errors.ErrCodeInvalidConfig, err, "log: level %q", s)
	}
	return l, nil
}

// Formatter maps a log format name to a charmbracelet formatter.
func Formatter(s string) log.Formatter {
	switch s {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	}
	return log.TextFormatter
}

package config

import (
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

// ParseLevel maps LOG_LEVEL names onto gommon levels.  Unknown names fall
// back to INFO.
func ParseLevel(s string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off", "none":
		return log.OFF
	}
	return log.INFO
}

// NewLogger returns the application logger.  It is the same logger type
// Echo uses, so main installs it as e.Logger and every component shares
// one output and level.
func NewLogger(prefix string, lvl log.Lvl) *log.Logger {
	l := log.New(prefix)
	l.SetOutput(os.Stdout)
	l.SetLevel(lvl)
	l.SetHeader(`{"time":"${time_rfc3339}","level":"${level}","prefix":"${prefix}","file":"${short_file}","line":"${line}"}`)
	return l
}

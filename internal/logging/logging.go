// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Config selects level, format and destination.
type Config struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// SetLevel applies the configured level, falling back to info.
func (lc Config) SetLevel() {
	level, err := log.ParseLevel(lc.Level)
	if err != nil {
		log.WithError(err).
			WithField("level", lc.Level).
			Warn("using default log level info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// SetFormat picks the JSON or text formatter.
func (lc Config) SetFormat() {
	if lc.JSON {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

// Set applies the whole configuration. Logs go to stderr unless Output is
// set, keeping stdout for user-facing output.
func (lc Config) Set() {
	if lc.Output == nil {
		lc.Output = os.Stderr
	}
	lc.SetFormat()
	lc.SetLevel()
	log.SetOutput(lc.Output)

	log.WithFields(log.Fields{
		"json":  lc.JSON,
		"level": lc.Level,
	}).Debug("log configured")
}

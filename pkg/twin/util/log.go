// Package util provides logging and error helpers shared across the twin.
package util

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the global logger instance.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetLogLevel sets the logging level by name.
func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// SetLogOutput sets the log output destination.
func SetLogOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetJSONFormat enables JSON log format.
func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// WithField returns a logger with a field.
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithSwitch returns a logger scoped to a switch name.
func WithSwitch(name string) *logrus.Entry {
	return Logger.WithField("switch", name)
}

// WithPort returns a logger scoped to a switch/port pair.
func WithPort(switchName string, portID int) *logrus.Entry {
	return Logger.WithFields(logrus.Fields{"switch": switchName, "port": portID})
}

// WithOperation returns a logger with an operation field.
func WithOperation(operation string) *logrus.Entry {
	return Logger.WithField("operation", operation)
}

package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the application logger, a thin wrapper over logrus
type Logger struct {
	log *logrus.Logger
}

// NewLogger creates a new JSON-formatted logger
func NewLogger() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return &Logger{log: l}
}

// Info logs an informational message
func (l *Logger) Info(format string, v ...interface{}) {
	l.log.Infof(format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.log.Errorf(format, v...)
}

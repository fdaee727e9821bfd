package core

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// LogLevel mirrors the charmbracelet levels so callers do not import the
// logging library directly.
type LogLevel = log.Level

const (
	DebugLevel LogLevel = log.DebugLevel
	InfoLevel  LogLevel = log.InfoLevel
	WarnLevel  LogLevel = log.WarnLevel
	ErrorLevel LogLevel = log.ErrorLevel
	FatalLevel LogLevel = log.FatalLevel
)

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func getLogger() *logger {
	once.Do(
		func() {
			l := log.NewWithOptions(os.Stderr, log.Options{
				ReportCaller:    true,
				ReportTimestamp: true,
				TimeFormat:      time.RFC3339,
				Prefix:          "Temporal 🎞️ ",
				CallerOffset:    1,
			})
			l.SetLevel(log.InfoLevel)
			singleton = &logger{l}
		})
	return singleton
}

// SetLogLevel changes the level of the process-wide logger.
func SetLogLevel(level LogLevel) {
	getLogger().SetLevel(level)
}

// ParseLogLevel converts names such as "debug" or "warn" into a LogLevel.
func ParseLogLevel(name string) (LogLevel, error) {
	return log.ParseLevel(name)
}

// Log helpers take a message followed by alternating keys and values.
func LogDebug(msg string, args ...interface{}) {
	getLogger().Debug(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Info(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warn(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Error(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatal(msg, args...)
}

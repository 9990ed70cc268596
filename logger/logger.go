package logger

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// Logger is the logging interface handed to actions and pipe components.
type Logger interface {
	Trace(...interface{})
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Error(...interface{})
	Panic(...interface{})
	Fatal(...interface{})
}

// LoggerImpl wraps a logrus entry tagged with the service name.
type LoggerImpl struct {
	entry      *logrus.Entry
	level      string
	wantStacks bool
}

// NewLogger returns a text-format logger for CLI commands.
func NewLogger(serviceName string, level string, stackDumpOnPanic bool) *LoggerImpl {
	return newLoggerImpl(serviceName, level, stackDumpOnPanic)
}

// NewWebLogger returns a JSON-format logger for serve and lambda modes plus an
// exit handler so running pipes can be stopped before the process dies.
func NewWebLogger(serviceName string, level string, stackDumpOnPanic bool, exitHandlerFn func()) *LoggerImpl {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.RegisterExitHandler(exitHandlerFn)
	return newLoggerImpl(serviceName, level, stackDumpOnPanic)
}

func newLoggerImpl(serviceName string, level string, stackDumpOnPanic bool) *LoggerImpl {
	logrus.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		fmt.Println("Error setting up logging: ", err)
		os.Exit(1)
	}
	logrus.SetLevel(lvl)
	return &LoggerImpl{
		entry:      logrus.WithField("service", serviceName),
		level:      level,
		wantStacks: stackDumpOnPanic,
	}
}

func (l *LoggerImpl) Trace(message ...interface{}) {
	l.entry.Trace(message...)
}

func (l *LoggerImpl) Debug(message ...interface{}) {
	l.entry.Debug(message...)
}

func (l *LoggerImpl) Info(message ...interface{}) {
	l.entry.Info(message...)
}

func (l *LoggerImpl) Warn(message ...interface{}) {
	l.entry.Warn(message...)
}

// Error logs the message, attaching a stack trace when stack dumps are enabled.
func (l *LoggerImpl) Error(message ...interface{}) {
	if l.wantStacks {
		l.withStack().Error(message...)
		return
	}
	l.entry.Error(message...)
}

// Panic exits the process. A real panic with stack trace only happens when the
// user asked for stack dumps; otherwise this degrades to Fatal so CLI users see
// a clean error.
func (l *LoggerImpl) Panic(message ...interface{}) {
	if l.wantStacks {
		if l.isDebugging() {
			l.withStack().Panic(message...)
		} else {
			l.entry.Panic(message...)
		}
		return
	}
	l.entry.Fatal(message...)
}

// Fatal logs and exits 1. In debug/trace levels a stack trace is attached.
func (l *LoggerImpl) Fatal(message ...interface{}) {
	if l.isDebugging() {
		l.withStack().Fatal(message...)
		return
	}
	l.entry.Fatal(message...)
}

// SetOutput redirects all log output to the supplied writer.
func (l *LoggerImpl) SetOutput(writer io.Writer) {
	logrus.SetOutput(writer)
}

func (l *LoggerImpl) isDebugging() bool {
	return l.level == "debug" || l.level == "trace"
}

func (l *LoggerImpl) withStack() *logrus.Entry {
	return l.entry.WithField("stackTrace", fmt.Sprintf("%s", debug.Stack()))
}

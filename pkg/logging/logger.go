// Package logging defines the small structured-logging interface used
// across FlowSTT's components.
package logging

import (
	"io"
	"log"
)

// Logger is the capability every component logs through. It is deliberately
// minimal: callers format their own messages, the implementation decides
// where they go.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// NoOpLogger discards everything. Used as the default when a caller does
// not wire in a real logger.
type NoOpLogger struct{}

func (NoOpLogger) Debug(msg string, args ...interface{}) {}
func (NoOpLogger) Info(msg string, args ...interface{})  {}
func (NoOpLogger) Warn(msg string, args ...interface{})  {}
func (NoOpLogger) Error(msg string, args ...interface{}) {}

// StdLogger writes level-prefixed lines through the standard library's log
// package, matching the teacher's own reach for "log" over a logging
// framework (conversation.go, cmd/agent/main.go).
type StdLogger struct {
	out *log.Logger
}

// NewStdLogger builds a StdLogger writing to w with the standard date/time
// prefix.
func NewStdLogger(w io.Writer) *StdLogger {
	return &StdLogger{out: log.New(w, "", log.LstdFlags)}
}

func (l *StdLogger) Debug(msg string, args ...interface{}) { l.out.Printf("[DEBUG] "+msg, args...) }
func (l *StdLogger) Info(msg string, args ...interface{})  { l.out.Printf("[INFO] "+msg, args...) }
func (l *StdLogger) Warn(msg string, args ...interface{})  { l.out.Printf("[WARN] "+msg, args...) }
func (l *StdLogger) Error(msg string, args ...interface{}) { l.out.Printf("[ERROR] "+msg, args...) }

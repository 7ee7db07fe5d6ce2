package main

import (
	"context"
	"log/slog"
	"os"

	glog "github.com/goliatone/go-logger/glog"
)

var _ glog.Logger = (*slogLogger)(nil)

// slogLogger bridges the process-wide structured logger to the glog contract
// every component in this module accepts.
type slogLogger struct {
	base *slog.Logger
}

func newSlogLogger(name string) *slogLogger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return &slogLogger{base: slog.New(handler).With("logger", name)}
}

func (l *slogLogger) Trace(msg string, args ...any) {
	l.base.Debug(msg, args...)
}

func (l *slogLogger) Debug(msg string, args ...any) {
	l.base.Debug(msg, args...)
}

func (l *slogLogger) Info(msg string, args ...any) {
	l.base.Info(msg, args...)
}

func (l *slogLogger) Warn(msg string, args ...any) {
	l.base.Warn(msg, args...)
}

func (l *slogLogger) Error(msg string, args ...any) {
	l.base.Error(msg, args...)
}

func (l *slogLogger) Fatal(msg string, args ...any) {
	l.base.Error(msg, args...)
	os.Exit(1)
}

func (l *slogLogger) WithContext(context.Context) glog.Logger {
	return l
}

// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger provides a log/slog-backed logger with a custom five-level
// severity scheme (TRACE below DEBUG, OFF above ERROR) shared by every
// component.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fileid-go/fileid/cfg"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Custom severity levels. slog.LevelDebug/Info/Warn/Error already line up
// with DEBUG/INFO/WARNING/ERROR, so only TRACE and OFF are added.
const (
	LevelTrace slog.Level = slog.LevelDebug - 4
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelOff   slog.Level = slog.LevelError + 4
)

var severityNames = map[slog.Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARNING",
	LevelError: "ERROR",
}

// loggerFactory tracks the sink and formatting choices the package-level
// logger was last configured with, so severity and format can change at
// runtime without plumbing new arguments through every call site.
type loggerFactory struct {
	writer          io.Writer
	closer          io.Closer
	format          string
	level           cfg.LogSeverity
	logRotateConfig cfg.LogRotateConfig
}

var (
	programLevel         = new(slog.LevelVar)
	defaultLoggerFactory = &loggerFactory{
		writer: os.Stderr,
		format: "text",
		level:  cfg.InfoLogSeverity,
	}
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(os.Stderr, programLevel, ""))
)

func init() {
	setLoggingLevel(cfg.InfoLogSeverity, programLevel)
}

func severityToLevel(severity cfg.LogSeverity) slog.Level {
	switch severity {
	case cfg.TraceLogSeverity:
		return LevelTrace
	case cfg.DebugLogSeverity:
		return LevelDebug
	case cfg.WarningLogSeverity:
		return LevelWarn
	case cfg.ErrorLogSeverity:
		return LevelError
	case cfg.OffLogSeverity:
		return LevelOff
	default:
		return LevelInfo
	}
}

func setLoggingLevel(severity cfg.LogSeverity, levelVar *slog.LevelVar) {
	levelVar.Set(severityToLevel(severity))
}

// createJsonOrTextHandler builds the slog.Handler matching the factory's
// current format: a newline-delimited JSON handler for "json", a
// single-line "key=value" text handler otherwise, both rewriting slog's default
// attribute names ("level"/"msg") onto "severity"/"message".
func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, levelVar *slog.LevelVar, prefix string) slog.Handler {
	replaceAttr := func(groups []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case slog.LevelKey:
			level, _ := a.Value.Any().(slog.Level)
			name, ok := severityNames[level]
			if !ok {
				name = level.String()
			}
			return slog.String("severity", name)
		case slog.MessageKey:
			msg := a.Value.String()
			if prefix != "" {
				msg = prefix + msg
			}
			return slog.String("message", msg)
		case slog.TimeKey:
			t := a.Value.Time()
			if f.format == "json" {
				return slog.Group("timestamp",
					slog.Int64("seconds", t.Unix()),
					slog.Int64("nanos", int64(t.Nanosecond())))
			}
			return slog.String("time", t.Format("2006/01/02 15:04:05.000000"))
		}
		return a
	}

	opts := &slog.HandlerOptions{Level: levelVar, ReplaceAttr: replaceAttr}
	if f.format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func (f *loggerFactory) rebuild() {
	setLoggingLevel(f.level, programLevel)
	defaultLogger = slog.New(f.createJsonOrTextHandler(f.writer, programLevel, ""))
}

// InitLogFile redirects the package-level logger to config.FilePath, rotated
// per config.LogRotateConfig via lumberjack and buffered through an
// AsyncLogger so a slow disk never blocks a request-handling goroutine. An
// empty FilePath leaves the logger writing to stderr.
func InitLogFile(config cfg.LoggingConfig) error {
	if defaultLoggerFactory.closer != nil {
		if err := defaultLoggerFactory.closer.Close(); err != nil {
			return fmt.Errorf("closing previous log sink: %w", err)
		}
	}

	if config.FilePath == "" {
		defaultLoggerFactory = &loggerFactory{
			writer:          os.Stderr,
			format:          config.Format,
			level:           config.Severity,
			logRotateConfig: config.LogRotateConfig,
		}
		defaultLoggerFactory.rebuild()
		return nil
	}

	lj := &lumberjack.Logger{
		Filename:   string(config.FilePath),
		MaxSize:    config.LogRotateConfig.MaxFileSizeMB,
		MaxBackups: config.LogRotateConfig.BackupFileCount,
		Compress:   config.LogRotateConfig.Compress,
	}
	async := NewAsyncLogger(lj, 1024)

	defaultLoggerFactory = &loggerFactory{
		writer:          async,
		closer:          async,
		format:          config.Format,
		level:           config.Severity,
		logRotateConfig: config.LogRotateConfig,
	}
	defaultLoggerFactory.rebuild()
	return nil
}

// SetLogFormat changes the output format ("json", or anything else, treated
// as "text") of the package-level logger.
func SetLogFormat(format string) {
	defaultLoggerFactory.format = format
	defaultLoggerFactory.rebuild()
}

func logf(level slog.Level, format string, v ...interface{}) {
	defaultLogger.Log(context.Background(), level, fmt.Sprintf(format, v...))
}

func Tracef(format string, v ...interface{}) { logf(LevelTrace, format, v...) }
func Debugf(format string, v ...interface{}) { logf(LevelDebug, format, v...) }
func Infof(format string, v ...interface{})  { logf(LevelInfo, format, v...) }
func Warnf(format string, v ...interface{})  { logf(LevelWarn, format, v...) }
func Errorf(format string, v ...interface{}) { logf(LevelError, format, v...) }

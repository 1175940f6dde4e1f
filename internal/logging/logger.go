// Package logging provides the leveled, field-based logger threaded
// explicitly through every component (REDESIGN FLAGS: "process-wide
// logger singleton... pass a logger value through the pipeline
// explicitly"). It keeps the teacher's leveled-method shape
// (Info/Success/Warn/Error/Debug) but backs it with zerolog instead of
// hand-rolled ANSI string building, since this system runs many
// concurrent per-title/per-stream tasks and structured logs are how the
// rest of the retrieved pack's services handle that (ManuGH-xg2g,
// therealutkarshpriyadarshi-transcode).
package logging

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coilpress/muxctl/internal/config"
	"github.com/coilpress/muxctl/internal/term"
)

// statusField tags a log event with the teacher's finer-grained status
// ("success") on top of zerolog's own level, since zerolog's level set has
// no slot between Info and Warn and REDESIGN FLAGS rules out inventing a
// parallel level enum just to recover one extra color.
const statusField = "status"

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

// Logger wraps a zerolog.Logger pair (console + optional file) behind the
// teacher's leveled-method API, so every call site that migrated from the
// hand-rolled logger needed no signature changes.
type Logger struct {
	mu      sync.Mutex
	console zerolog.Logger
	file    *os.File
	fileLog *zerolog.Logger
	path    string
	verbose bool
}

// NewLogger builds a Logger from the resolved global config: console
// output goes through a zerolog.ConsoleWriter colored per cfg.ColorMode
// (via internal/term's TTY/NO_COLOR resolution), and, when cfg.LogFile is
// set, a second JSON-structured zerolog.Logger appends to that file so
// machine-readable logs and human-readable console output never have to
// agree on one format.
func NewLogger(cfg *config.GlobalConfig) (*Logger, error) {
	term.Configure(cfg.ColorMode)

	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05", NoColor: !term.Enabled()}
	cw.FieldsExclude = []string{statusField}
	cw.FormatExtra = formatStatusPrefix
	l := &Logger{
		console: zerolog.New(cw).With().Timestamp().Logger(),
		verbose: cfg.Verbose,
		path:    cfg.LogFile,
	}

	if cfg.LogFile != "" {
		if err := l.openFile(cfg.LogFile); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Logger) openFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("logging: create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("logging: open log file: %w", err)
	}
	fl := zerolog.New(f).With().Timestamp().Logger()
	l.file = f
	l.fileLog = &fl
	return nil
}

// WithField returns a derived Logger that tags every subsequent event with
// key=value, sharing the same open file handle (Close on the derived
// logger has no effect; call Close on the original once the batch ends).
// Used by internal/mission to stamp every line of one batch run with a
// correlation id, grounded on zerolog's own contextual-logger pattern
// rather than rebuilding one manually per call site.
func (l *Logger) WithField(key, value string) *Logger {
	derived := &Logger{
		console: l.console.With().Str(key, value).Logger(),
		verbose: l.verbose,
		path:    l.path,
	}
	if l.fileLog != nil {
		fl := l.fileLog.With().Str(key, value).Logger()
		derived.fileLog = &fl
	}
	return derived
}

// Close flushes and closes the log file, if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.fileLog = nil
		return err
	}
	return nil
}

func (l *Logger) emit(level zerolog.Level, status, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	ev := l.console.WithLevel(level)
	if status != "" {
		ev = ev.Str(statusField, status)
	}
	ev.Msg(msg)
	if l.fileLog != nil {
		fev := l.fileLog.WithLevel(level)
		if status != "" {
			fev = fev.Str(statusField, status)
		}
		fev.Msg(msg)
	}
}

// formatStatusPrefix renders a "[SUCCESS]" marker ahead of the message
// when an event carries statusField, matching the teacher's green
// SUCCESS marker distinct from plain blue INFO lines.
func formatStatusPrefix(fields map[string]interface{}, buf *bytes.Buffer) error {
	status, _ := fields[statusField].(string)
	if status != "success" {
		return nil
	}
	buf.WriteString(term.Green + "[SUCCESS]" + term.NC)
	return nil
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) { l.emit(zerolog.InfoLevel, "", format, args...) }

// Success logs a "stage completed successfully" message.
func (l *Logger) Success(format string, args ...interface{}) {
	l.emit(zerolog.InfoLevel, "success", format, args...)
}

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...interface{}) { l.emit(zerolog.WarnLevel, "", format, args...) }

// Error logs an error.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit(zerolog.ErrorLevel, "", format, args...)
}

// Debug logs a debug message only when verbose is true (matches the
// teacher's call-site-supplied verbose flag rather than a level filter,
// since some call sites want to force-show debug output regardless of
// global verbosity).
func (l *Logger) Debug(verbose bool, format string, args ...interface{}) {
	if !verbose && !l.verbose {
		return
	}
	l.emit(zerolog.DebugLevel, "", format, args...)
}

// RotateIfLarge implements the supplemented log-compression feature
// (original_source util/log_compress.py): once the open log file exceeds
// thresholdBytes, the current file is gzipped alongside a timestamped
// suffix and a fresh file is opened in its place. cmd/muxctl calls it
// once, after mission.Run has finished the whole batch.
func (l *Logger) RotateIfLarge(thresholdBytes int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil || l.path == "" {
		return nil
	}
	info, err := l.file.Stat()
	if err != nil {
		return fmt.Errorf("logging: stat log file: %w", err)
	}
	if info.Size() < thresholdBytes {
		return nil
	}

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("logging: close log file before rotation: %w", err)
	}
	rotated := fmt.Sprintf("%s.%s.gz", l.path, time.Now().UTC().Format("20060102T150405Z"))
	if err := gzipFile(l.path, rotated); err != nil {
		return fmt.Errorf("logging: compress rotated log: %w", err)
	}
	if err := os.Remove(l.path); err != nil {
		return fmt.Errorf("logging: remove uncompressed log after rotation: %w", err)
	}
	return l.openFile(l.path)
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		out.Close()
		return err
	}
	if err := gw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

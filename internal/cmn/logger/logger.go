package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	slogmulti "github.com/samber/slog-multi"
)

type Logger interface {
	Debug(msg string, tags ...any)
	Info(msg string, tags ...any)
	Warn(msg string, tags ...any)
	Error(msg string, tags ...any)

	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)

	With(attrs ...any) Logger
	WithGroup(name string) Logger

	// Write writes a message to the logger in free form.
	Write(string)
}

var _ Logger = (*appLogger)(nil)

type appLogger struct {
	logger         *slog.Logger
	guardedHandler *guardedHandler
	stdout         io.Writer
	stdoutMu       *sync.Mutex
	quiet          bool
	debug          bool
}

type Config struct {
	debug  bool
	format string
	writer io.Writer
	stderr io.Writer
	stdout io.Writer
	quiet  bool
}

type Option func(*Config)

// WithDebug sets the level of the logger to debug.
func WithDebug() Option {
	return func(o *Config) {
		o.debug = true
	}
}

// WithFormat sets the format of the logger (text or json).
func WithFormat(format string) Option {
	return func(o *Config) {
		o.format = format
	}
}

// WithWriter sets the file to write logs to.
func WithWriter(w io.Writer) Option {
	return func(o *Config) {
		o.writer = w
	}
}

// WithConsole replaces stderr and stdout as the console destinations.
func WithConsole(stderr, stdout io.Writer) Option {
	return func(o *Config) {
		o.stderr = stderr
		o.stdout = stdout
	}
}

// WithQuiet suppresses output to stderr.
func WithQuiet() Option {
	return func(o *Config) {
		o.quiet = true
	}
}

var defaultLogger = NewLogger(WithFormat("text"))

func NewLogger(opts ...Option) Logger {
	cfg := &Config{stderr: os.Stderr, stdout: os.Stdout}
	for _, opt := range opts {
		opt(cfg)
	}

	level := slog.LevelInfo
	if cfg.debug {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var (
		handlers       []slog.Handler
		guardedHandler *guardedHandler
	)

	if !cfg.quiet {
		handlers = append(handlers, newHandler(cfg.stderr, cfg.format, handlerOpts))
	}

	if cfg.writer != nil {
		handler := newHandler(cfg.writer, cfg.format, handlerOpts)
		guardedHandler = newGuardedHandler(handler, cfg.writer)
		handlers = append(handlers, guardedHandler)
	}

	return &appLogger{
		logger:         slog.New(slogmulti.Fanout(handlers...)),
		guardedHandler: guardedHandler,
		stdout:         cfg.stdout,
		stdoutMu:       &sync.Mutex{},
		quiet:          cfg.quiet,
		debug:          cfg.debug,
	}
}

var _ slog.Handler = (*guardedHandler)(nil)

// guardedHandler serializes writes to a shared log file so that records
// from concurrent entity workers do not interleave.
type guardedHandler struct {
	handler slog.Handler
	writer  io.Writer
	mu      *sync.Mutex
}

func newGuardedHandler(handler slog.Handler, writer io.Writer) *guardedHandler {
	return &guardedHandler{
		handler: handler,
		writer:  writer,
		mu:      &sync.Mutex{},
	}
}

// Enabled implements slog.Handler.
func (s *guardedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return s.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (s *guardedHandler) Handle(ctx context.Context, record slog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handler.Handle(ctx, record)
}

// WithAttrs implements slog.Handler.
func (s *guardedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &guardedHandler{
		handler: s.handler.WithAttrs(attrs),
		writer:  s.writer,
		mu:      s.mu,
	}
}

// WithGroup implements slog.Handler.
func (s *guardedHandler) WithGroup(name string) slog.Handler {
	return &guardedHandler{
		handler: s.handler.WithGroup(name),
		writer:  s.writer,
		mu:      s.mu,
	}
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Debugf implements logger.Logger.
func (a *appLogger) Debugf(format string, v ...any) {
	a.log(methodSkip, slog.LevelDebug, fmt.Sprintf(format, v...))
}

// Errorf implements logger.Logger.
func (a *appLogger) Errorf(format string, v ...any) {
	a.log(methodSkip, slog.LevelError, fmt.Sprintf(format, v...))
}

// Infof implements logger.Logger.
func (a *appLogger) Infof(format string, v ...any) {
	a.log(methodSkip, slog.LevelInfo, fmt.Sprintf(format, v...))
}

// Warnf implements logger.Logger.
func (a *appLogger) Warnf(format string, v ...any) {
	a.log(methodSkip, slog.LevelWarn, fmt.Sprintf(format, v...))
}

// Debug implements logger.Logger.
func (a *appLogger) Debug(msg string, tags ...any) {
	a.log(methodSkip, slog.LevelDebug, msg, tags...)
}

// Error implements logger.Logger.
func (a *appLogger) Error(msg string, tags ...any) {
	a.log(methodSkip, slog.LevelError, msg, tags...)
}

// Info implements logger.Logger.
func (a *appLogger) Info(msg string, tags ...any) {
	a.log(methodSkip, slog.LevelInfo, msg, tags...)
}

// Warn implements logger.Logger.
func (a *appLogger) Warn(msg string, tags ...any) {
	a.log(methodSkip, slog.LevelWarn, msg, tags...)
}

// Frames skipped by runtime.Callers to reach the caller of a Logger method
// or of a package-level helper in context.go.
const (
	methodSkip = 3 // runtime.Callers, log, the Logger method
	helperSkip = 4 // runtime.Callers, log, logContext, the package-level helper
)

// log records the message with the frame skip frames up as source.
func (a *appLogger) log(skip int, level slog.Level, msg string, tags ...any) {
	if !a.logger.Enabled(context.Background(), level) {
		return
	}

	var pc uintptr
	if a.debug {
		var pcs [1]uintptr
		runtime.Callers(skip, pcs[:])
		pc = pcs[0]
	}

	record := slog.NewRecord(time.Now(), level, msg, pc)
	record.Add(tags...)
	_ = a.logger.Handler().Handle(context.Background(), record)
}

// With implements logger.Logger.
func (a *appLogger) With(attrs ...any) Logger {
	return &appLogger{
		logger:         a.logger.With(attrs...),
		guardedHandler: a.guardedHandler,
		stdout:         a.stdout,
		stdoutMu:       a.stdoutMu,
		quiet:          a.quiet,
		debug:          a.debug,
	}
}

// WithGroup implements logger.Logger.
func (a *appLogger) WithGroup(name string) Logger {
	return &appLogger{
		logger:         a.logger.WithGroup(name),
		guardedHandler: a.guardedHandler,
		stdout:         a.stdout,
		stdoutMu:       a.stdoutMu,
		quiet:          a.quiet,
		debug:          a.debug,
	}
}

func (a *appLogger) Write(msg string) {
	if !a.quiet {
		a.stdoutMu.Lock()
		_, _ = fmt.Fprintf(a.stdout, "%s\n", msg)
		a.stdoutMu.Unlock()
	}
	if a.guardedHandler != nil {
		a.guardedHandler.mu.Lock()
		defer a.guardedHandler.mu.Unlock()
		_, _ = a.guardedHandler.writer.Write([]byte(msg + "\n"))
	}
}

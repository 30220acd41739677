package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/phsym/console-slog"
)

// Output formats understood by NewSlog
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatText    = "text"
)

// Options configures a slog backed Logger
type Options struct {
	Level     Level
	Format    string // console, json or text; console when empty
	AddSource bool
	Output    io.Writer // os.Stderr when nil
}

type SlogLogger struct {
	mu     sync.Mutex
	logger *slog.Logger
	level  *slog.LevelVar
}

var _ Logger = (*SlogLogger)(nil)

// NewSlog creates a slog instance
func NewSlog(opts Options) (Logger, error) {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	inst := &SlogLogger{level: &slog.LevelVar{}}
	inst.level.Set(toSlogLevel(opts.Level))

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", FormatConsole:
		handler = console.NewHandler(output, &console.HandlerOptions{
			AddSource:  opts.AddSource,
			Level:      inst.level,
			TimeFormat: time.TimeOnly,
		})
	case FormatJSON:
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{
			AddSource:   opts.AddSource,
			Level:       inst.level,
			ReplaceAttr: renameTime,
		})
	case FormatText:
		handler = slog.NewTextHandler(output, &slog.HandlerOptions{
			AddSource:   opts.AddSource,
			Level:       inst.level,
			ReplaceAttr: renameTime,
		})
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
	inst.logger = slog.New(handler)

	return inst, nil
}

// NewNop returns a logger that discards everything
func NewNop() Logger {
	l, _ := NewSlog(Options{Level: FatalLevel, Format: FormatText, Output: io.Discard})
	return l
}

func renameTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		a.Key = "ts"
	}
	return a
}

func (l *SlogLogger) Debug(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, keysAndValues...)
}

func (l *SlogLogger) Info(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, keysAndValues...)
}

func (l *SlogLogger) Warn(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, keysAndValues...)
}

func (l *SlogLogger) Error(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelError, msg, keysAndValues...)
}

func (l *SlogLogger) Fatal(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelError, msg, keysAndValues...)
	os.Exit(1)
}

func (l *SlogLogger) With(keyValues ...any) Logger {
	return &SlogLogger{
		logger: l.logger.With(keyValues...),
		level:  l.level,
	}
}

func (l *SlogLogger) Level() Level {
	switch lv := l.level.Level(); {
	case lv <= slog.LevelDebug:
		return DebugLevel
	case lv <= slog.LevelInfo:
		return InfoLevel
	case lv <= slog.LevelWarn:
		return WarnLevel
	default:
		return ErrorLevel
	}
}

func (l *SlogLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.level.Set(toSlogLevel(level))
}

// log is the low-level logging method for methods that take ...any.
// It must always be called directly by an exported logging method
// or function, because it uses a fixed call depth to obtain the pc.
func (l *SlogLogger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !l.logger.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	// skip [runtime.Callers, this function, this function's caller]
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.logger.Handler().Handle(ctx, r)
}

func toSlogLevel(level Level) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		// fatal records are written at error level; anything above disables output
		return slog.LevelError + 4
	}
}

// Package obslog owns the process-wide zap logger.
package obslog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

var (
	mu      sync.RWMutex
	current = zap.NewNop()
	sink    *os.File
)

// L returns the global logger. It is a no-op logger until Init runs.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Options selects the logger sinks. Console output goes to stderr so stdout
// stays free for the result line.
type Options struct {
	Level   string
	Format  string // legacy, console or json
	Console bool
	File    string // empty disables the file sink
	Caller  bool
}

const defaultLogFile = "cheese-desk.log"

// OptionsFromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_TO_CONSOLE, LOG_TO_FILE,
// LOG_FILE and LOG_CALLER.
func OptionsFromEnv() Options {
	opts := Options{
		Level:   envOr("LOG_LEVEL", "info"),
		Format:  envOr("LOG_FORMAT", "legacy"),
		Console: envBool("LOG_TO_CONSOLE", true),
		Caller:  envBool("LOG_CALLER", false),
	}
	if envBool("LOG_TO_FILE", false) {
		opts.File = strings.TrimSpace(envOr("LOG_FILE", filepath.Join("logs", defaultLogFile)))
	}
	return opts
}

func InitFromEnv() error { return Init(OptionsFromEnv()) }

// Init builds the global logger from opts and replaces the previous one.
func Init(opts Options) error {
	level := parseLevel(opts.Level)
	format := normalizeFormat(opts.Format)

	var cores []zapcore.Core
	if opts.Console {
		colored := format == "console" && term.IsTerminal(int(os.Stderr.Fd()))
		cores = append(cores, zapcore.NewCore(encoderFor(format, colored), zapcore.Lock(os.Stderr), level))
	}
	f, err := openSink(opts.File)
	if err != nil {
		return err
	}
	if f != nil {
		cores = append(cores, zapcore.NewCore(encoderFor(format, false), zapcore.AddSync(f), level))
	}
	if len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(encoderFor("console", false), zapcore.Lock(os.Stderr), level))
	}

	zopts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if opts.Caller || format == "legacy" {
		zopts = append(zopts, zap.AddCaller())
	}
	swap(zap.New(zapcore.NewTee(cores...), zopts...), f)
	return nil
}

func swap(logger *zap.Logger, f *os.File) {
	mu.Lock()
	prev := sink
	current, sink = logger, f
	mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
}

func openSink(path string) (*os.File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// Sync flushes the global logger, closes the log file and resets to a
// no-op logger.
func Sync() error {
	mu.Lock()
	defer mu.Unlock()
	_ = current.Sync()
	current = zap.NewNop()
	if sink == nil {
		return nil
	}
	err := sink.Close()
	sink = nil
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

func normalizeFormat(s string) string {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "json", "console":
		return f
	default:
		return "legacy"
	}
}

func encoderFor(format string, colored bool) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	switch format {
	case "json":
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	case "console":
		if colored {
			cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	default:
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		cfg.ConsoleSeparator = " | "
	}
	return zapcore.NewConsoleEncoder(cfg)
}

// parseLevel accepts zap level names plus "warning"; anything else is info.
func parseLevel(s string) zapcore.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return zapcore.WarnLevel
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func envOr(key, def string) string {
	if v := os.Getenv(key); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true")
}

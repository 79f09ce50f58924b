// Package logging provides config-driven categorized diagnostic logging for specbisect.
// Logs are written to a single file per day under the configured log directory,
// one zap named logger per category.
// Logging is controlled by debug_mode - when false, every logger is a no-op and
// nothing touches the filesystem. User-facing bisect output never goes through
// this package; it is rendered by internal/report.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem
type Category string

const (
	CategoryBoot    Category = "boot"    // CLI startup, flag handling
	CategoryConfig  Category = "config"  // Config file, .env and env overrides
	CategoryRunner  Category = "runner"  // Runner invocations and report parsing
	CategoryProcess Category = "process" // Subprocess spawning and teardown
	CategoryBisect  Category = "bisect"  // Baseline and reduction rounds
	CategoryReport  Category = "report"  // Progress reporter
)

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	DebugMode  bool
	Level      string
	JSONFormat bool
	Dir        string
	Categories map[string]bool
}

// Logger is a category-scoped printf-style logger.
type Logger struct {
	category Category
	z        *zap.Logger
	sugar    *zap.SugaredLogger
}

var (
	mu        sync.RWMutex
	base      = zap.NewNop()
	options   Options
	logFile   *os.File
	loggers   = make(map[Category]*Logger)
	sessionID string
)

// Initialize sets up the log file and root zap logger.
// Calling it again replaces the previous configuration.
func Initialize(opts Options) error {
	CloseAll()

	mu.Lock()
	defer mu.Unlock()

	options = opts
	if !opts.DebugMode {
		return nil // Silent no-op in production mode
	}

	dir := opts.Dir
	if dir == "" {
		dir = filepath.Join(".specbisect", "logs")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	date := time.Now().Format("2006-01-02")
	path := filepath.Join(dir, fmt.Sprintf("%s_specbisect.log", date))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if opts.JSONFormat {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(f), parseLevel(opts.Level))
	logFile = f
	base = zap.New(core)

	boot := newLogger(CategoryBoot)
	boot.Info("=== specbisect logging initialized ===")
	boot.Info("Log file: %s", path)
	boot.Info("Log level: %s", opts.Level)
	if len(opts.Categories) > 0 {
		enabled := 0
		for cat, on := range opts.Categories {
			if on {
				enabled++
			}
			boot.Debug("Category '%s': %v", cat, on)
		}
		boot.Info("Enabled categories: %d/%d", enabled, len(opts.Categories))
	}
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetSessionID tags every subsequent entry with the bisect session id.
func SetSessionID(id string) {
	mu.Lock()
	defer mu.Unlock()
	sessionID = id
	loggers = make(map[Category]*Logger)
}

// IsDebugMode returns whether debug logging is enabled
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return options.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabled(category)
}

func categoryEnabled(category Category) bool {
	if !options.DebugMode {
		return false
	}
	if options.Categories == nil {
		return true // All enabled by default in debug mode
	}
	enabled, exists := options.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// newLogger must be called with mu held.
func newLogger(category Category) *Logger {
	z := base.Named(string(category))
	if sessionID != "" {
		z = z.With(zap.String("session", sessionID))
	}
	return &Logger{category: category, z: z, sugar: z.Sugar()}
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode or the category is disabled.
func Get(category Category) *Logger {
	mu.RLock()
	if !categoryEnabled(category) {
		mu.RUnlock()
		nop := zap.NewNop()
		return &Logger{category: category, z: nop, sugar: nop.Sugar()}
	}
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := newLogger(category)
	loggers[category] = l
	return l
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) { l.sugar.Infof(format, args...) }

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// With returns a logger carrying structured fields on every entry.
func (l *Logger) With(fields ...zap.Field) *Logger {
	z := l.z.With(fields...)
	return &Logger{category: l.category, z: z, sugar: z.Sugar()}
}

// Zap exposes the underlying zap logger for structured calls.
func (l *Logger) Zap() *zap.Logger { return l.z }

// CloseAll flushes and closes the log file (call at shutdown)
func CloseAll() {
	mu.Lock()
	defer mu.Unlock()

	_ = base.Sync()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	base = zap.NewNop()
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - no-ops if the category is disabled
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) { Get(CategoryBoot).Info(format, args...) }

// BootDebug logs debug to the boot category
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }

// Config logs to the config category
func Config(format string, args ...interface{}) { Get(CategoryConfig).Info(format, args...) }

// ConfigDebug logs debug to the config category
func ConfigDebug(format string, args ...interface{}) { Get(CategoryConfig).Debug(format, args...) }

// Runner logs to the runner category
func Runner(format string, args ...interface{}) { Get(CategoryRunner).Info(format, args...) }

// RunnerDebug logs debug to the runner category
func RunnerDebug(format string, args ...interface{}) { Get(CategoryRunner).Debug(format, args...) }

// RunnerWarn logs a warning to the runner category
func RunnerWarn(format string, args ...interface{}) { Get(CategoryRunner).Warn(format, args...) }

// Process logs to the process category
func Process(format string, args ...interface{}) { Get(CategoryProcess).Info(format, args...) }

// ProcessDebug logs debug to the process category
func ProcessDebug(format string, args ...interface{}) { Get(CategoryProcess).Debug(format, args...) }

// ProcessWarn logs a warning to the process category
func ProcessWarn(format string, args ...interface{}) { Get(CategoryProcess).Warn(format, args...) }

// ProcessError logs an error to the process category
func ProcessError(format string, args ...interface{}) { Get(CategoryProcess).Error(format, args...) }

// Bisect logs to the bisect category
func Bisect(format string, args ...interface{}) { Get(CategoryBisect).Info(format, args...) }

// BisectDebug logs debug to the bisect category
func BisectDebug(format string, args ...interface{}) { Get(CategoryBisect).Debug(format, args...) }

// BisectWarn logs a warning to the bisect category
func BisectWarn(format string, args ...interface{}) { Get(CategoryBisect).Warn(format, args...) }

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}

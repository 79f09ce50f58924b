// Package subprocess is the lowest-level execution layer: it spawns the test
// runner, captures its output and tears it down on timeout or cancellation.
//
// Design Principles:
//   - Minimal logic: classification of what the output means happens in internal/runner
//   - Process groups: a killed runner takes its children with it
//   - Bounded capture: stdout/stderr are size-limited, optionally tee'd live
//   - Cross-platform: Windows and Unix support
package subprocess

import (
	"io"
	"strings"
	"time"
)

// DefaultMaxOutputBytes caps captured stdout and stderr (each).
const DefaultMaxOutputBytes int64 = 10 * 1024 * 1024

// Command represents a command to be executed.
type Command struct {
	// Binary is the executable to run (e.g., "rspec", "bundle").
	Binary string `json:"binary"`

	// Arguments are the command-line arguments.
	Arguments []string `json:"arguments"`

	// Dir is the directory to execute in. Empty means the executor default.
	Dir string `json:"dir,omitempty"`

	// Env holds extra variables (KEY=VALUE) added to the executor's environment.
	Env []string `json:"env,omitempty"`

	// Timeout bounds wall time. Zero means the executor default (which may be none).
	Timeout time.Duration `json:"timeout,omitempty"`

	// MaxOutputBytes limits each captured stream. Zero means the executor default.
	MaxOutputBytes int64 `json:"max_output_bytes,omitempty"`

	// Stream, when set, receives stdout and stderr as they are produced.
	Stream io.Writer `json:"-"`
}

// CommandString returns the full command as a string (for display/logging).
func (c Command) CommandString() string {
	if len(c.Arguments) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Arguments, " ")
}

// Result is the output of command execution.
type Result struct {
	// ExitCode is the command's exit code (-1 if not available).
	ExitCode int `json:"exit_code"`

	// Stdout is the captured standard output.
	Stdout string `json:"stdout"`

	// Stderr is the captured standard error.
	Stderr string `json:"stderr"`

	// Duration is how long the command ran.
	Duration time.Duration `json:"duration"`

	// StartedAt is when execution began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when execution completed.
	FinishedAt time.Time `json:"finished_at"`

	// Killed indicates the command was forcibly terminated.
	Killed bool `json:"killed"`

	// TimedOut indicates the kill was caused by the command timeout.
	TimedOut bool `json:"timed_out"`

	// KillReason explains why the command was killed.
	KillReason string `json:"kill_reason,omitempty"`

	// Truncated indicates output was truncated due to size limits.
	Truncated bool `json:"truncated"`

	// TruncatedBytes is how many bytes were discarded.
	TruncatedBytes int64 `json:"truncated_bytes,omitempty"`

	// Command is a copy of the command that was executed.
	Command *Command `json:"command,omitempty"`
}

// IsNonZeroExit returns true if the command ran but returned non-zero.
func (r *Result) IsNonZeroExit() bool {
	return !r.Killed && r.ExitCode != 0
}

// Output returns Stdout+Stderr, separated by a newline when both are present.
func (r *Result) Output() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return strings.TrimRight(r.Stdout, "\n") + "\n" + r.Stderr
}

// ExecutorConfig is the configuration for creating executors.
type ExecutorConfig struct {
	// DefaultDir is used when Command.Dir is empty.
	DefaultDir string `json:"default_dir"`

	// DefaultTimeout is used when Command.Timeout is zero. Zero means none.
	DefaultTimeout time.Duration `json:"default_timeout"`

	// MaxOutputBytes caps output capture per stream.
	MaxOutputBytes int64 `json:"max_output_bytes"`

	// InheritEnvironment passes the whole parent environment through.
	// When false only AllowedEnvironment is passed.
	InheritEnvironment bool `json:"inherit_environment"`

	// AllowedEnvironment lists variables to pass when not inheriting.
	AllowedEnvironment []string `json:"allowed_environment"`

	// WaitDelay bounds how long output is drained after the process exits
	// (grandchildren can hold the pipes open).
	WaitDelay time.Duration `json:"wait_delay"`
}

// DefaultExecutorConfig returns sensible defaults for driving a test runner.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		DefaultDir:         ".",
		DefaultTimeout:     0,
		MaxOutputBytes:     DefaultMaxOutputBytes,
		InheritEnvironment: true,
		AllowedEnvironment: []string{"PATH", "HOME", "USER", "LANG", "LC_ALL", "GEM_HOME", "GEM_PATH", "BUNDLE_GEMFILE"},
		WaitDelay:          2 * time.Second,
	}
}

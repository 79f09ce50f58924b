package subprocess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"specbisect/internal/logging"
)

// Executor is the interface for command execution.
type Executor interface {
	// Execute runs a command to completion and returns its result.
	// A non-nil error means the command could not be started at all; a
	// non-zero exit, timeout or cancellation is reported in the Result.
	Execute(ctx context.Context, cmd Command) (*Result, error)
}

// DirectExecutor executes commands directly on the host using os/exec.
type DirectExecutor struct {
	config ExecutorConfig
}

// NewDirectExecutorWithConfig creates a new direct executor with custom config.
func NewDirectExecutorWithConfig(config ExecutorConfig) *DirectExecutor {
	if config.MaxOutputBytes <= 0 {
		config.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if config.WaitDelay <= 0 {
		config.WaitDelay = DefaultExecutorConfig().WaitDelay
	}
	logging.ProcessDebug("Creating DirectExecutor: timeout=%s, maxOutput=%d bytes, inheritEnv=%v",
		config.DefaultTimeout, config.MaxOutputBytes, config.InheritEnvironment)
	return &DirectExecutor{config: config}
}

// Execute runs a command directly on the host.
func (e *DirectExecutor) Execute(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("binary is required")
	}

	timer := logging.StartTimer(logging.CategoryProcess, "Subprocess execution")
	defer timer.Stop()

	if cmd.Dir == "" {
		cmd.Dir = e.config.DefaultDir
	}
	timeout := cmd.Timeout
	if timeout == 0 {
		timeout = e.config.DefaultTimeout
	}
	maxOutput := e.config.MaxOutputBytes
	if cmd.MaxOutputBytes > 0 {
		maxOutput = cmd.MaxOutputBytes
	}

	logging.ProcessDebug("Executing: %s (dir=%s, timeout=%s)", cmd.CommandString(), cmd.Dir, timeout)

	result := &Result{ExitCode: -1, Command: &cmd}

	execCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	execCmd := exec.CommandContext(execCtx, cmd.Binary, cmd.Arguments...)
	execCmd.Dir = cmd.Dir
	execCmd.Env = e.buildEnvironment(cmd.Env)
	setupProcessGroup(execCmd)
	execCmd.Cancel = func() error { return killProcessGroup(execCmd) }

	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	execCmd.Stdout = outW
	execCmd.Stderr = errW

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutLimited := &limitedWriter{w: &stdoutBuf, max: maxOutput}
	stderrLimited := &limitedWriter{w: &stderrBuf, max: maxOutput}
	var live io.Writer
	if cmd.Stream != nil {
		live = &lockedWriter{w: cmd.Stream}
	}

	result.StartedAt = time.Now()
	startErr := execCmd.Start()
	// The child holds its own copies of the write ends.
	outW.Close()
	errW.Close()
	if startErr != nil {
		outR.Close()
		errR.Close()
		result.FinishedAt = time.Now()
		logging.ProcessError("Failed to start %s: %v", cmd.Binary, startErr)
		return result, fmt.Errorf("failed to start %s: %w", cmd.Binary, startErr)
	}
	logging.ProcessDebug("Started pid %d", execCmd.Process.Pid)

	var g errgroup.Group
	g.Go(func() error { return drain(outR, stdoutLimited, live) })
	g.Go(func() error { return drain(errR, stderrLimited, live) })
	drained := make(chan error, 1)
	go func() { drained <- g.Wait() }()

	waitErr := execCmd.Wait()

	var drainErr error
	select {
	case drainErr = <-drained:
	case <-time.After(e.config.WaitDelay):
		logging.ProcessWarn("Output still open %s after %s exited; closing pipes", e.config.WaitDelay, cmd.Binary)
		outR.Close()
		errR.Close()
		drainErr = <-drained
	}
	outR.Close()
	errR.Close()
	if drainErr != nil && !errors.Is(drainErr, os.ErrClosed) {
		logging.ProcessWarn("Output drain error: %v", drainErr)
	}

	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)
	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()

	if stdoutLimited.truncated || stderrLimited.truncated {
		result.Truncated = true
		result.TruncatedBytes = stdoutLimited.discarded + stderrLimited.discarded
		logging.ProcessWarn("Command output truncated: %d bytes discarded", result.TruncatedBytes)
	}

	switch {
	case waitErr == nil:
		result.ExitCode = 0
	case ctx.Err() != nil:
		result.Killed = true
		result.KillReason = "context canceled"
		logging.ProcessDebug("Command canceled: %s", cmd.Binary)
	case execCtx.Err() == context.DeadlineExceeded:
		result.Killed = true
		result.TimedOut = true
		result.KillReason = fmt.Sprintf("timeout after %s", timeout)
		logging.ProcessWarn("Command killed (timeout): %s after %s", cmd.Binary, timeout)
	default:
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			logging.ProcessDebug("Command exited non-zero: %s -> %d", cmd.Binary, result.ExitCode)
		} else {
			logging.ProcessError("Command wait failed: %s - %v", cmd.Binary, waitErr)
			return result, fmt.Errorf("waiting for %s: %w", cmd.Binary, waitErr)
		}
	}

	logging.Process("Command completed: %s -> exit=%d, duration=%s, stdout=%d bytes",
		cmd.Binary, result.ExitCode, result.Duration, len(result.Stdout))
	return result, nil
}

// buildEnvironment creates the environment variable list.
func (e *DirectExecutor) buildEnvironment(cmdEnv []string) []string {
	var env []string
	if e.config.InheritEnvironment {
		env = os.Environ()
	} else {
		for _, key := range e.config.AllowedEnvironment {
			if val, ok := os.LookupEnv(key); ok {
				env = append(env, key+"="+val)
			}
		}
	}
	return append(env, cmdEnv...)
}

func drain(r io.Reader, capture io.Writer, live io.Writer) error {
	dst := capture
	if live != nil {
		dst = io.MultiWriter(capture, live)
	}
	_, err := io.Copy(dst, r)
	return err
}

// lockedWriter serializes writes from the stdout and stderr drains.
// Errors from the live sink are dropped so a broken terminal never stalls
// the child on a full pipe.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, _ = lw.w.Write(p)
	return len(p), nil
}

// limitedWriter is an io.Writer that limits total bytes written.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
	discarded int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)

	if lw.written >= lw.max {
		lw.truncated = true
		lw.discarded += int64(n)
		return n, nil // Pretend we wrote it
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		lw.discarded += int64(n) - remaining
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		return n, err // Return original length to avoid "short write" errors
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}

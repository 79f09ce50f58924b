// Package runner drives the external test runner: it builds each invocation,
// runs it through the subprocess layer, reads the JSON report and classifies
// the run as a TrialRun.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"specbisect/internal/example"
	"specbisect/internal/logging"
	"specbisect/internal/signature"
	"specbisect/internal/subprocess"
)

// Options configures a Client.
type Options struct {
	// Command is the runner command line, e.g. "bundle exec rspec".
	Command string

	// Args are the user's runner arguments.
	Args []string

	Dir            string
	Env            []string
	TrialTimeout   time.Duration
	MaxOutputBytes int64

	// InconsistencyMarker is searched for in runner output.
	InconsistencyMarker string

	// QuoteIDs is auto, always or never.
	QuoteIDs string

	// Shell decides quoting when QuoteIDs is auto. Empty means $SHELL.
	Shell string

	SignatureMode signature.Mode
}

// Client runs the test runner. It is not safe for concurrent use.
type Client struct {
	command  []string
	args     Args
	opts     Options
	executor subprocess.Executor

	// pinnedSeed is the seed learned from the first baseline when the user
	// gave none.
	pinnedSeed string
}

// SplitCommand splits a runner command line with shell rules.
func SplitCommand(command string) ([]string, error) {
	words, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("invalid runner command %q: %w", command, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("runner command is empty")
	}
	return words, nil
}

// NewClient creates a client. A nil executor means a DirectExecutor.
func NewClient(opts Options, executor subprocess.Executor) (*Client, error) {
	command, err := SplitCommand(opts.Command)
	if err != nil {
		return nil, err
	}
	if opts.InconsistencyMarker == "" {
		opts.InconsistencyMarker = "The example ordering is inconsistent"
	}
	if opts.SignatureMode == "" {
		opts.SignatureMode = signature.ModeFull
	}
	if executor == nil {
		cfg := subprocess.DefaultExecutorConfig()
		if opts.Dir != "" {
			cfg.DefaultDir = opts.Dir
		}
		if opts.MaxOutputBytes > 0 {
			cfg.MaxOutputBytes = opts.MaxOutputBytes
		}
		executor = subprocess.NewDirectExecutorWithConfig(cfg)
	}

	c := &Client{
		command:  command,
		args:     ParseArgs(opts.Args),
		opts:     opts,
		executor: executor,
	}
	logging.Runner("Runner client: command=%q locations=%v options=%v order=%q seed=%q",
		command, c.args.Locations, c.args.Options, c.args.Order, c.args.Seed)
	return c, nil
}

// Args returns the parsed user arguments.
func (c *Client) Args() Args { return c.args }

// Seed returns the seed added to every run, empty if none.
func (c *Client) Seed() string { return c.pinnedSeed }

// RunBaseline runs the user's original locations. The first baseline that
// reports a seed pins it for every later run unless the user gave one
// (--seed N or --order rand:N).
func (c *Client) RunBaseline(ctx context.Context) (*TrialRun, error) {
	trial, err := c.run(ctx, nil, c.args.Locations)
	if err != nil {
		return nil, err
	}
	if c.pinnedSeed == "" && c.args.Seed == "" && trial.Seed != "" && trial.Outcome == OutcomeCompleted {
		c.pinnedSeed = trial.Seed
		logging.Runner("Pinned seed %s for subsequent runs", c.pinnedSeed)
	}
	return trial, nil
}

// Run executes exactly the given examples, once.
func (c *Client) Run(ctx context.Context, sel example.Selection) (*TrialRun, error) {
	if sel.Len() == 0 {
		return nil, fmt.Errorf("refusing to run an empty selection")
	}
	return c.run(ctx, sel, sel.Compact())
}

// Passthrough runs the runner once with the user's arguments, streaming its
// output, and returns the exit code.
func (c *Client) Passthrough(ctx context.Context, stream io.Writer) (int, error) {
	cmd := subprocess.Command{
		Binary:    c.command[0],
		Arguments: append(append([]string{}, c.command[1:]...), c.args.Raw...),
		Dir:       c.opts.Dir,
		Env:       c.opts.Env,
		Stream:    stream,
	}
	result, err := c.executor.Execute(ctx, cmd)
	if err != nil {
		return 1, err
	}
	if result.Killed {
		return 1, ctx.Err()
	}
	return result.ExitCode, nil
}

func (c *Client) run(ctx context.Context, sel example.Selection, targets []string) (*TrialRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := logging.Get(logging.CategoryRunner).With(zap.String("trial", id))

	reportFile, err := os.CreateTemp("", "specbisect-"+id[:8]+"-*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	reportPath := reportFile.Name()
	reportFile.Close()
	// The runner must create it; an empty leftover would read as a bad report.
	os.Remove(reportPath)
	defer os.Remove(reportPath)

	args := c.buildArgs(targets)
	args = append(args, "--format", "json", "--out", reportPath)

	trial := &TrialRun{
		ID:          id,
		Selection:   sel,
		OrderOption: c.args.Order,
		Args:        args,
		Command:     c.display(sel),
	}

	log.Debug("Running: %s", trial.Command)
	result, err := c.executor.Execute(ctx, subprocess.Command{
		Binary:    c.command[0],
		Arguments: args,
		Dir:       c.opts.Dir,
		Env:       c.opts.Env,
		Timeout:   c.opts.TrialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", c.command[0], err)
	}
	if result.Killed && !result.TimedOut {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.New("runner was killed: " + result.KillReason)
	}

	trial.Elapsed = result.Duration
	trial.ExitCode = result.ExitCode
	trial.Stdout = result.Stdout
	trial.Stderr = result.Stderr
	c.classify(trial, result, reportPath)

	log.Info("Trial %s: outcome=%s exit=%d failures=%d elapsed=%s",
		id[:8], trial.Outcome, trial.ExitCode, trial.Signature.Len(), trial.Elapsed)
	if trial.Diagnostic != "" {
		log.Debug("Diagnostic: %s", trial.Diagnostic)
	}
	return trial, nil
}

func (c *Client) classify(trial *TrialRun, result *subprocess.Result, reportPath string) {
	if result.TimedOut {
		trial.Outcome = OutcomeTimedOut
		trial.Diagnostic = "runner " + result.KillReason
		return
	}

	if strings.Contains(result.Output(), c.opts.InconsistencyMarker) {
		trial.Outcome = OutcomeOrderingInconsistency
		trial.Diagnostic = "runner reported an inconsistent example ordering"
		return
	}

	rep, err := readReport(reportPath)
	if err != nil {
		trial.Outcome = OutcomeLoadError
		trial.Diagnostic = err.Error()
		return
	}
	trial.AllIDs = rep.All
	trial.Seed = rep.Seed

	switch {
	case rep.LoadErrors > 0:
		trial.Outcome = OutcomeLoadError
		trial.Diagnostic = fmt.Sprintf("%d error(s) occurred outside of examples", rep.LoadErrors)
	case result.IsNonZeroExit() && len(rep.Failures) == 0:
		trial.Outcome = OutcomeLoadError
		trial.Diagnostic = fmt.Sprintf("runner exited %d without failing examples", result.ExitCode)
	default:
		trial.Outcome = OutcomeCompleted
		trial.Signature = signature.New(rep.Failures, c.opts.SignatureMode)
	}
}

// buildArgs assembles the argv after the binary for the given targets.
func (c *Client) buildArgs(targets []string) []string {
	args := make([]string, 0, len(c.command)+len(targets)+len(c.args.Options)+2)
	args = append(args, c.command[1:]...)
	args = append(args, targets...)
	args = append(args, c.args.Options...)
	if c.pinnedSeed != "" {
		args = append(args, "--seed", c.pinnedSeed)
	}
	return args
}

// ReproCommand renders a command line that runs exactly sel.
func (c *Client) ReproCommand(sel example.Selection) string {
	return c.display(sel)
}

func (c *Client) display(sel example.Selection) string {
	parts := []string{shellquote.Join(c.command...)}
	if sel == nil {
		if len(c.args.Locations) > 0 {
			parts = append(parts, shellquote.Join(c.args.Locations...))
		}
	} else {
		quote := c.quoteIDs()
		for _, loc := range sel.Compact() {
			if quote {
				loc = "'" + loc + "'"
			}
			parts = append(parts, loc)
		}
	}
	if len(c.args.Options) > 0 {
		parts = append(parts, shellquote.Join(c.args.Options...))
	}
	if c.pinnedSeed != "" {
		parts = append(parts, "--seed", c.pinnedSeed)
	}
	return strings.Join(parts, " ")
}

func (c *Client) quoteIDs() bool {
	switch c.opts.QuoteIDs {
	case "always":
		return true
	case "never":
		return false
	}
	shell := c.opts.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	return filepath.Base(shell) != "bash"
}

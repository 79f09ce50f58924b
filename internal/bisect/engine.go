// Package bisect finds the smallest set of examples that reproduces a
// failure. It establishes a baseline run, then removes chunks of
// non-failing examples round by round for as long as the exact same failure
// keeps reproducing, ending with a 1-minimal selection.
package bisect

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"specbisect/internal/example"
	"specbisect/internal/logging"
	"specbisect/internal/runner"
)

// Runner executes the suite. *runner.Client implements it.
type Runner interface {
	RunBaseline(ctx context.Context) (*runner.TrialRun, error)
	Run(ctx context.Context, sel example.Selection) (*runner.TrialRun, error)
	ReproCommand(sel example.Selection) string
}

// Reporter receives every state transition. Values passed in are snapshots
// and may be retained.
type Reporter interface {
	BisectStarting(options string)
	BaselineStarted()
	BaselineFinished(b *Baseline)
	RoundStarted(s State)
	TrialFinished(s State, trial *runner.TrialRun, removed bool)
	RoundFinished(r RoundSummary)
	BisectComplete(r *Result)
	BisectFailed(err *Error)
}

// RoundSummary describes a finished round.
type RoundSummary struct {
	// State is the state after the round's removals.
	State State

	// Ignored are the candidates proven unnecessary this round.
	Ignored []example.ID

	Trials  int
	Elapsed time.Duration
}

// Result is the outcome of a successful session.
type Result struct {
	// Minimal is fixed_failing plus the remaining necessary candidates, in baseline order.
	Minimal example.Selection

	Baseline *Baseline

	// Remaining are the necessary non-failing candidates.
	Remaining []example.ID

	Rounds            int
	Trials            int
	InitialCandidates int
	ReproCommand      string
	Elapsed           time.Duration

	// History holds every reduction trial in run order.
	History []*runner.TrialRun
}

// Options configures an Engine.
type Options struct {
	// Description is the user's runner arguments, echoed at start.
	Description string

	// VerifyBaseline runs the baseline twice.
	VerifyBaseline bool
}

// Engine runs one bisect session.
type Engine struct {
	runner   Runner
	reporter Reporter
	opts     Options
}

// New creates an engine.
func New(r Runner, rep Reporter, opts Options) *Engine {
	return &Engine{runner: r, reporter: rep, opts: opts}
}

// Run performs the whole search. Any error is a *Error, already reported
// through BisectFailed.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	session := uuid.NewString()
	logging.SetSessionID(session)
	log := logging.Get(logging.CategoryBisect).With(zap.String("options", e.opts.Description))
	log.Info("Bisect session %s starting", session)

	e.reporter.BisectStarting(e.opts.Description)
	e.reporter.BaselineStarted()

	b, err := EstablishBaseline(ctx, e.runner, e.opts.VerifyBaseline)
	if err != nil {
		return nil, e.fail(err)
	}
	e.reporter.BaselineFinished(b)

	state := NewState(b)
	res := &Result{Baseline: b, InitialCandidates: len(b.Candidates)}

	for !state.Done() {
		roundStart := time.Now()
		e.reporter.RoundStarted(state.Snapshot())
		log.Debug("Round %d: chunk=%d remaining=%d", state.Round, state.ChunkSize, len(state.Remaining))

		summary := RoundSummary{}
		for _, chunk := range state.Chunks() {
			if err := ctx.Err(); err != nil {
				return nil, e.fail(interruptedError(err))
			}

			sel := state.TrialSelection(chunk, b.Order)
			trial, err := e.runner.Run(ctx, sel)
			if err != nil {
				if ctx.Err() != nil {
					return nil, e.fail(interruptedError(ctx.Err()))
				}
				return nil, e.fail(runnerError(err))
			}
			trial = classifyTrial(b, trial)
			res.History = append(res.History, trial)
			summary.Trials++

			removed := e.reproduces(b, trial)
			if removed {
				state.Remove(chunk)
				summary.Ignored = append(summary.Ignored, chunk...)
			}
			e.reporter.TrialFinished(state.Snapshot(), trial, removed)
			// A removal ends the round; the next one re-partitions what is left.
			if removed {
				break
			}
		}

		summary.State = state.Snapshot()
		summary.Elapsed = time.Since(roundStart)
		e.reporter.RoundFinished(summary)
		res.Rounds = state.Round
		log.Info("Round %d finished: ignored=%d remaining=%d", state.Round, len(summary.Ignored), len(state.Remaining))

		if !state.Advance(len(summary.Ignored) > 0) {
			break
		}
	}

	res.Remaining = state.Snapshot().Remaining
	res.Minimal = b.FixedFailing.Union(example.NewSelection(res.Remaining...)).OrderedBy(b.Order)
	res.Trials = len(res.History)
	res.ReproCommand = e.runner.ReproCommand(res.Minimal)
	res.Elapsed = time.Since(start)

	log.Info("Bisect complete: %d -> %d candidates in %d rounds, %d trials", res.InitialCandidates, len(res.Remaining), res.Rounds, res.Trials)
	e.reporter.BisectComplete(res)
	return res, nil
}

// reproduces reports whether a trial proves its chunk unnecessary.
func (e *Engine) reproduces(b *Baseline, trial *runner.TrialRun) bool {
	if trial.Outcome != runner.OutcomeCompleted {
		logging.BisectDebug("Trial %s kept chunk: %s (%s)", trial.ID, trial.Outcome, trial.Diagnostic)
		return false
	}
	if !trial.Signature.Equivalent(b.Signature) {
		if logging.IsCategoryEnabled(logging.CategoryBisect) {
			logging.BisectDebug("Trial %s kept chunk: %v", trial.ID, b.Signature.Diff(trial.Signature))
		}
		return false
	}
	return true
}

func (e *Engine) fail(err error) error {
	var berr *Error
	if !errors.As(err, &berr) {
		berr = runnerError(err)
	}
	logging.BisectWarn("Bisect failed (%s): %s", berr.Kind, berr.Msg)
	e.reporter.BisectFailed(berr)
	return berr
}

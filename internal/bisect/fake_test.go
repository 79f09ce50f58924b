package bisect

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"specbisect/internal/example"
	"specbisect/internal/runner"
	"specbisect/internal/signature"
)

const specFile = "./spec/order_dependent_specs.rb"

func exampleIDs(n int) []example.ID {
	ids := make([]example.ID, n)
	for i := range ids {
		ids[i] = example.NewID(specFile, i+1, 1)
	}
	return ids
}

func eid(n int) example.ID { return example.NewID(specFile, n, 1) }

// failsWhen makes example `failing` fail whenever every one of `needs` ran
// before it.
func failsWhen(failing int, needs ...int) func([]example.ID) []signature.Failure {
	return func(ran []example.ID) []signature.Failure {
		seen := make(map[string]bool)
		for _, id := range ran {
			if id.Equal(eid(failing)) {
				for _, n := range needs {
					if !seen[eid(n).String()] {
						return nil
					}
				}
				return []signature.Failure{{ID: id, Class: "RuntimeError", Message: "expected state to be clean"}}
			}
			seen[id.String()] = true
		}
		return nil
	}
}

// fakeRunner simulates the suite in memory.
type fakeRunner struct {
	mu sync.Mutex

	all   []example.ID
	fails func(ran []example.ID) []signature.Failure

	// baseline, when set, replaces the n-th (1-based) baseline result.
	baseline func(n int) *runner.TrialRun
	// hook may rewrite a trial result.
	hook func(t *runner.TrialRun) *runner.TrialRun
	// onRun is called before every reduction trial.
	onRun func(n int)

	baselineRuns int
	runs         []example.Selection
}

func (f *fakeRunner) RunBaseline(ctx context.Context) (*runner.TrialRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.baselineRuns++
	n := f.baselineRuns
	f.mu.Unlock()
	if f.baseline != nil {
		if t := f.baseline(n); t != nil {
			return t, nil
		}
	}
	return f.result(f.all, nil), nil
}

func (f *fakeRunner) Run(ctx context.Context, sel example.Selection) (*runner.TrialRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.runs = append(f.runs, sel)
	n := len(f.runs)
	f.mu.Unlock()
	if f.onRun != nil {
		f.onRun(n)
	}
	t := f.result(sel.IDs(), sel)
	if f.hook != nil {
		t = f.hook(t)
	}
	return t, nil
}

func (f *fakeRunner) ReproCommand(sel example.Selection) string {
	return "rspec " + strings.Join(sel.Compact(), " ") + " --order defined"
}

func (f *fakeRunner) result(ran []example.ID, sel example.Selection) *runner.TrialRun {
	var failures []signature.Failure
	if f.fails != nil {
		failures = f.fails(ran)
	}
	cmd := "rspec"
	if sel != nil {
		cmd = f.ReproCommand(sel)
	}
	return &runner.TrialRun{
		ID:          fmt.Sprintf("trial-%d", len(f.runs)),
		Selection:   sel,
		OrderOption: "defined",
		Command:     cmd,
		Outcome:     runner.OutcomeCompleted,
		Signature:   signature.New(failures, signature.ModeFull),
		AllIDs:      ran,
	}
}

// recorder captures reporter events.
type recorder struct {
	started      string
	baseline     *Baseline
	rounds       []State
	trials       []bool
	summaries    []RoundSummary
	states       []State
	result       *Result
	failed       *Error
	baselineSeen bool
	onTrial      func()
}

func (r *recorder) BisectStarting(options string) { r.started = options }
func (r *recorder) BaselineStarted()              { r.baselineSeen = true }
func (r *recorder) BaselineFinished(b *Baseline)  { r.baseline = b }
func (r *recorder) RoundStarted(s State)          { r.rounds = append(r.rounds, s); r.states = append(r.states, s) }
func (r *recorder) TrialFinished(s State, _ *runner.TrialRun, removed bool) {
	r.trials = append(r.trials, removed)
	r.states = append(r.states, s)
	if r.onTrial != nil {
		r.onTrial()
	}
}
func (r *recorder) RoundFinished(s RoundSummary) { r.summaries = append(r.summaries, s) }
func (r *recorder) BisectComplete(res *Result)   { r.result = res }
func (r *recorder) BisectFailed(err *Error)      { r.failed = err }

package bisect

import (
	"context"
	"strings"
	"time"

	"specbisect/internal/example"
	"specbisect/internal/logging"
	"specbisect/internal/runner"
	"specbisect/internal/signature"
)

// Baseline is the validated result of running the full suite.
type Baseline struct {
	Trial *runner.TrialRun

	// Signature is the failure every trial must reproduce.
	Signature signature.Signature

	// Order is every example in the order the baseline ran them.
	Order []example.ID

	// FixedFailing are the failing examples, in run order.
	FixedFailing example.Selection

	// Candidates are all other examples, in run order.
	Candidates []example.ID

	// Runs counts runner invocations spent on the baseline.
	Runs int

	Elapsed time.Duration
}

// EstablishBaseline runs the whole suite and validates it as a starting
// point. With verify set the suite is run a second time and both runs must
// agree on failures and order.
func EstablishBaseline(ctx context.Context, r Runner, verify bool) (*Baseline, error) {
	start := time.Now()

	first, err := runBaseline(ctx, r)
	if err != nil {
		return nil, err
	}
	runs := 1
	if err := checkBaselineOutcome(first); err != nil {
		return nil, err
	}

	if verify {
		logging.Bisect("Verifying baseline with a second run")
		second, err := runBaseline(ctx, r)
		if err != nil {
			return nil, err
		}
		runs++
		if err := checkBaselineOutcome(second); err != nil {
			return nil, err
		}
		if err := compareBaselines(first, second); err != nil {
			return nil, err
		}
	}

	if first.Signature.Empty() {
		logging.BisectWarn("Baseline has no failures")
		return nil, &Error{Kind: KindNoFailures, Msg: msgNoFailures}
	}

	failing := example.NewSelection(first.Signature.IDs()...).OrderedBy(first.AllIDs)
	b := &Baseline{
		Trial:        first,
		Signature:    first.Signature,
		Order:        example.NewSelection(first.AllIDs...).IDs(),
		FixedFailing: failing,
		Candidates:   example.NewSelection(first.AllIDs...).Without(failing).IDs(),
		Runs:         runs,
		Elapsed:      time.Since(start),
	}
	logging.Bisect("Baseline: %d failing, %d candidates, seed=%q", b.FixedFailing.Len(), len(b.Candidates), first.Seed)
	return b, nil
}

func runBaseline(ctx context.Context, r Runner) (*runner.TrialRun, error) {
	trial, err := r.RunBaseline(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, interruptedError(ctx.Err())
		}
		return nil, runnerError(err)
	}
	return trial, nil
}

func checkBaselineOutcome(t *runner.TrialRun) error {
	switch t.Outcome {
	case runner.OutcomeCompleted:
		return nil
	case runner.OutcomeLoadError:
		logging.BisectWarn("Baseline failed to load: %s", t.Diagnostic)
		return loadError(t.Output())
	case runner.OutcomeOrderingInconsistency:
		logging.BisectWarn("Baseline ordering inconsistent: %s", t.Diagnostic)
		return inconsistentError("", t.Output())
	case runner.OutcomeTimedOut:
		logging.BisectWarn("Baseline timed out: %s", t.Diagnostic)
		return timeoutError(t.Diagnostic, t.Output())
	default:
		return runnerError(nil)
	}
}

func compareBaselines(first, second *runner.TrialRun) error {
	if !first.Signature.Equivalent(second.Signature) {
		diff := first.Signature.Diff(second.Signature)
		logging.BisectWarn("Baseline failures differ between runs: %v", diff)
		return inconsistentError("Two identical runs produced different failures:\n  "+strings.Join(diff, "\n  "), "")
	}
	if !sameOrder(first.AllIDs, second.AllIDs) {
		logging.BisectWarn("Baseline order differs between runs")
		return inconsistentError("Two identical runs executed examples in a different order.", "")
	}
	return nil
}

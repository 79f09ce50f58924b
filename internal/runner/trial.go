package runner

import (
	"time"

	"specbisect/internal/example"
	"specbisect/internal/signature"
)

// Outcome classifies a single run of the runner.
type Outcome int

const (
	// OutcomeCompleted means the suite ran and produced a report; Signature is set.
	OutcomeCompleted Outcome = iota
	// OutcomeLoadError means the suite could not be loaded or produced no usable report.
	OutcomeLoadError
	// OutcomeOrderingInconsistency means the examples did not run in the expected order.
	OutcomeOrderingInconsistency
	// OutcomeTimedOut means the run was killed by the trial timeout.
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeLoadError:
		return "load_error"
	case OutcomeOrderingInconsistency:
		return "ordering_inconsistency"
	case OutcomeTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// TrialRun is the immutable record of one runner invocation.
type TrialRun struct {
	// ID is unique per run (uuid).
	ID string

	// Selection is what was asked for; nil for a baseline run of the user's locations.
	Selection example.Selection

	// OrderOption is the --order value in effect.
	OrderOption string

	// Args is the argv after the runner binary.
	Args []string

	// Command is the display form, runnable in a shell.
	Command string

	Elapsed  time.Duration
	ExitCode int
	Stdout   string
	Stderr   string

	Outcome   Outcome
	Signature signature.Signature

	// AllIDs lists every example the report mentioned, in run order.
	AllIDs []example.ID

	// Seed is the seed the runner reported.
	Seed string

	// Diagnostic explains a non-completed outcome.
	Diagnostic string
}

// Output returns stdout followed by stderr.
func (t *TrialRun) Output() string {
	switch {
	case t.Stderr == "":
		return t.Stdout
	case t.Stdout == "":
		return t.Stderr
	default:
		return t.Stdout + "\n" + t.Stderr
	}
}

// WithOutcome returns a copy of the run reclassified, used when a check
// outside the runner (such as the order check) rejects it.
func (t *TrialRun) WithOutcome(o Outcome, diagnostic string) *TrialRun {
	cp := *t
	cp.Outcome = o
	cp.Diagnostic = diagnostic
	return &cp
}

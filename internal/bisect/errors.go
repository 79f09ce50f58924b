package bisect

import (
	"fmt"
	"strings"
)

// Kind classifies why a bisect session was aborted.
type Kind int

const (
	// KindBaselineLoad means the baseline run produced no usable results.
	KindBaselineLoad Kind = iota + 1
	// KindBaselineInconsistent means the baseline ordering or results are not reproducible.
	KindBaselineInconsistent
	// KindBaselineTimeout means the baseline run hit the trial timeout.
	KindBaselineTimeout
	// KindNoFailures means there is nothing to bisect.
	KindNoFailures
	// KindInterrupted means the session was cancelled.
	KindInterrupted
	// KindRunner means the runner could not be invoked at all.
	KindRunner
)

func (k Kind) String() string {
	switch k {
	case KindBaselineLoad:
		return "baseline_load"
	case KindBaselineInconsistent:
		return "baseline_inconsistent"
	case KindBaselineTimeout:
		return "baseline_timeout"
	case KindNoFailures:
		return "no_failures"
	case KindInterrupted:
		return "interrupted"
	case KindRunner:
		return "runner"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error aborts a bisect session.
type Error struct {
	Kind Kind

	// Msg is the user-facing explanation.
	Msg string

	// Output is the runner output that led to the abort, if any.
	Output string

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Report is the full abort message: Error() followed by the runner output
// unless the message already carries it.
func (e *Error) Report() string {
	msg := e.Error()
	out := strings.TrimRight(e.Output, "\n")
	if strings.TrimSpace(out) == "" || strings.Contains(msg, out) {
		return msg
	}
	return msg + "\n\nSpec run output:\n\n" + out
}

const (
	msgLoad = "Failed to get results from the spec run. Spec run output:\n\n"

	msgInconsistent = "The example ordering is inconsistent. " +
		"`--bisect` relies upon consistent ordering (e.g. by passing " +
		"`--seed` if you're using random ordering) to work properly."

	msgNoFailures = "No failures found. Bisect only works in the presence of one or more failing examples."
)

func loadError(output string) *Error {
	return &Error{Kind: KindBaselineLoad, Msg: msgLoad + output, Output: output}
}

func inconsistentError(detail, output string) *Error {
	msg := msgInconsistent
	if detail != "" {
		msg += "\n\n" + detail
	}
	return &Error{Kind: KindBaselineInconsistent, Msg: msg, Output: output}
}

func timeoutError(detail, output string) *Error {
	return &Error{
		Kind:   KindBaselineTimeout,
		Msg:    "The spec run did not finish in time (" + detail + "). Raise the trial timeout or fix the hang first.",
		Output: output,
	}
}

func interruptedError(err error) *Error {
	return &Error{Kind: KindInterrupted, Msg: "Bisect interrupted", Err: err}
}

func runnerError(err error) *Error {
	return &Error{Kind: KindRunner, Msg: "Failed to run the spec runner", Err: err}
}

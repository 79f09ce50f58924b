package report

import (
	"io"

	"specbisect/internal/bisect"
	"specbisect/internal/runner"
)

// Verbose lists ids, every trial command and each round's findings.
type Verbose struct {
	printer
}

var _ bisect.Reporter = (*Verbose)(nil)

// NewVerbose creates a verbose reporter.
func NewVerbose(w io.Writer, color string) *Verbose {
	return &Verbose{printer{w: w, styles: newStyles(w, color)}}
}

func (v *Verbose) BisectStarting(options string) { v.starting(options) }

func (v *Verbose) BaselineStarted() { v.baselineStarted() }

func (v *Verbose) BaselineFinished(b *bisect.Baseline) {
	v.printf(" (%s)\n", FormatDuration(b.Elapsed))
	v.printf(" - Failing examples (%d):\n", b.FixedFailing.Len())
	v.print(organize(b.FixedFailing))
	v.printf(" - Non-failing examples (%d):\n", len(b.Candidates))
	v.print(organize(b.Candidates))
	v.print("\n")
}

func (v *Verbose) RoundStarted(s bisect.State) {
	v.printf("Round %d: searching for %s (of %d) to ignore:\n",
		s.Round, pluralizeN(s.ChunkSize, "non-failing example"), len(s.Remaining))
}

func (v *Verbose) TrialFinished(_ bisect.State, trial *runner.TrialRun, _ bool) {
	v.printf(" - Running: %s (%s)\n", trial.Command, FormatDuration(trial.Elapsed))
	if trial.Outcome != runner.OutcomeCompleted {
		v.printf("   - Kept, %s: %s\n", trial.Outcome, trial.Diagnostic)
	}
}

func (v *Verbose) RoundFinished(r bisect.RoundSummary) {
	if len(r.Ignored) > 0 {
		v.printf(" - Examples we can safely ignore (%d):\n", len(r.Ignored))
		v.print(organize(r.Ignored))
		v.printf(" - Remaining non-failing examples (%d):\n", len(r.State.Remaining))
		v.print(organize(r.State.Remaining))
	}
	v.printf(" - Round finished (%s)\n", FormatDuration(r.Elapsed))
}

func (v *Verbose) BisectComplete(r *bisect.Result) { v.complete(r) }

func (v *Verbose) BisectFailed(err *bisect.Error) { v.failed(err) }

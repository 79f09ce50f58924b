package report

import (
	"fmt"
	"io"
	"strings"

	"specbisect/internal/bisect"
	"specbisect/internal/runner"
)

// printer tracks whether the cursor sits mid-line so an abort message
// always starts on a fresh line.
type printer struct {
	w       io.Writer
	styles  styles
	midLine bool
}

func (p *printer) print(s string) {
	if s == "" {
		return
	}
	fmt.Fprint(p.w, s)
	p.midLine = !strings.HasSuffix(s, "\n")
}

func (p *printer) printf(format string, args ...interface{}) {
	p.print(fmt.Sprintf(format, args...))
}

func (p *printer) starting(options string) {
	p.printf("Bisect started using options: %q\n", options)
}

func (p *printer) baselineStarted() {
	p.print("Running suite to find failures...")
}

func (p *printer) complete(r *bisect.Result) {
	p.print(p.styles.render(p.styles.complete, "Bisect complete!"))
	p.printf(" Reduced necessary non-failing examples from %d to %d in %s.\n\n",
		r.InitialCandidates, len(r.Remaining), FormatDuration(r.Elapsed))
	p.print("The minimal reproduction command is:\n")
	p.printf("  %s\n", r.ReproCommand)
}

func (p *printer) failed(err *bisect.Error) {
	if p.midLine {
		p.print("\n")
	}
	p.print(p.styles.render(p.styles.failed, "Bisect failed!"))
	p.printf(" %s\n", strings.TrimRight(err.Report(), "\n"))
}

// Terse prints one line per round with a dot per trial.
type Terse struct {
	printer
}

var _ bisect.Reporter = (*Terse)(nil)

// NewTerse creates a terse reporter; color is auto, always or never.
func NewTerse(w io.Writer, color string) *Terse {
	return &Terse{printer{w: w, styles: newStyles(w, color)}}
}

func (t *Terse) BisectStarting(options string) { t.starting(options) }

func (t *Terse) BaselineStarted() { t.baselineStarted() }

func (t *Terse) BaselineFinished(b *bisect.Baseline) {
	t.printf(" (%s)\n", FormatDuration(b.Elapsed))
	t.printf("Starting bisect with %s and %s.\n\n",
		pluralizeN(b.FixedFailing.Len(), "failed example"),
		pluralizeN(len(b.Candidates), "non-failing example"))
}

func (t *Terse) RoundStarted(s bisect.State) {
	t.printf("Round %d: searching for %s (of %d) to ignore: ",
		s.Round, pluralizeN(s.ChunkSize, "non-failing example"), len(s.Remaining))
}

func (t *Terse) TrialFinished(_ bisect.State, _ *runner.TrialRun, _ bool) { t.print(".") }

func (t *Terse) RoundFinished(r bisect.RoundSummary) {
	t.printf(" (%s)\n", FormatDuration(r.Elapsed))
}

func (t *Terse) BisectComplete(r *bisect.Result) { t.complete(r) }

func (t *Terse) BisectFailed(err *bisect.Error) { t.failed(err) }

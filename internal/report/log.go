package report

import (
	"go.uber.org/zap"

	"specbisect/internal/bisect"
	"specbisect/internal/logging"
	"specbisect/internal/runner"
)

// LogReporter writes every event to the diagnostic log.
type LogReporter struct{}

var _ bisect.Reporter = LogReporter{}

func (LogReporter) log() *zap.Logger { return logging.Get(logging.CategoryReport).Zap() }

func (l LogReporter) BisectStarting(options string) {
	l.log().Info("bisect starting", zap.String("options", options))
}

func (l LogReporter) BaselineStarted() { l.log().Debug("baseline started") }

func (l LogReporter) BaselineFinished(b *bisect.Baseline) {
	l.log().Info("baseline finished",
		zap.Int("failing", b.FixedFailing.Len()),
		zap.Int("candidates", len(b.Candidates)),
		zap.Int("runs", b.Runs),
		zap.Duration("elapsed", b.Elapsed))
	for _, id := range b.FixedFailing {
		if f, ok := b.Signature.Failure(id); ok {
			l.log().Debug("baseline failure",
				zap.Stringer("id", id),
				zap.String("class", f.Class),
				zap.String("message", f.Message))
		}
	}
}

func (l LogReporter) RoundStarted(s bisect.State) {
	l.log().Info("round started",
		zap.Int("round", s.Round),
		zap.Int("chunk", s.ChunkSize),
		zap.Int("remaining", len(s.Remaining)))
}

func (l LogReporter) TrialFinished(s bisect.State, trial *runner.TrialRun, removed bool) {
	l.log().Debug("trial finished",
		zap.String("trial", trial.ID),
		zap.Int("round", s.Round),
		zap.Stringer("outcome", trial.Outcome),
		zap.Bool("removed", removed),
		zap.Int("selection", trial.Selection.Len()),
		zap.Duration("elapsed", trial.Elapsed),
		zap.String("diagnostic", trial.Diagnostic))
}

func (l LogReporter) RoundFinished(r bisect.RoundSummary) {
	l.log().Info("round finished",
		zap.Int("round", r.State.Round),
		zap.Int("trials", r.Trials),
		zap.Int("ignored", len(r.Ignored)),
		zap.Int("remaining", len(r.State.Remaining)),
		zap.Duration("elapsed", r.Elapsed))
}

func (l LogReporter) BisectComplete(r *bisect.Result) {
	l.log().Info("bisect complete",
		zap.Int("from", r.InitialCandidates),
		zap.Int("to", len(r.Remaining)),
		zap.Int("rounds", r.Rounds),
		zap.Int("trials", r.Trials),
		zap.Strings("minimal", r.Minimal.Strings()),
		zap.String("repro", r.ReproCommand),
		zap.Duration("elapsed", r.Elapsed))
}

func (l LogReporter) BisectFailed(err *bisect.Error) {
	l.log().Warn("bisect failed",
		zap.Stringer("kind", err.Kind),
		zap.String("message", err.Msg),
		zap.String("output", err.Output))
}

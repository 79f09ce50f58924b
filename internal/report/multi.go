package report

import (
	"specbisect/internal/bisect"
	"specbisect/internal/runner"
)

// Multi fans every event out to several reporters, in order.
type Multi []bisect.Reporter

var _ bisect.Reporter = Multi(nil)

func (m Multi) BisectStarting(options string) {
	for _, r := range m {
		r.BisectStarting(options)
	}
}

func (m Multi) BaselineStarted() {
	for _, r := range m {
		r.BaselineStarted()
	}
}

func (m Multi) BaselineFinished(b *bisect.Baseline) {
	for _, r := range m {
		r.BaselineFinished(b)
	}
}

func (m Multi) RoundStarted(s bisect.State) {
	for _, r := range m {
		r.RoundStarted(s)
	}
}

func (m Multi) TrialFinished(s bisect.State, trial *runner.TrialRun, removed bool) {
	for _, r := range m {
		r.TrialFinished(s, trial, removed)
	}
}

func (m Multi) RoundFinished(summary bisect.RoundSummary) {
	for _, r := range m {
		r.RoundFinished(summary)
	}
}

func (m Multi) BisectComplete(res *bisect.Result) {
	for _, r := range m {
		r.BisectComplete(res)
	}
}

func (m Multi) BisectFailed(err *bisect.Error) {
	for _, r := range m {
		r.BisectFailed(err)
	}
}

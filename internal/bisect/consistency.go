package bisect

import (
	"fmt"

	"specbisect/internal/example"
	"specbisect/internal/runner"
)

// CheckOrder verifies that a trial ran only the examples it was given, in
// the baseline's relative order. A violation is returned as a description.
func CheckOrder(baselineOrder []example.ID, trial *runner.TrialRun) error {
	if trial.Outcome != runner.OutcomeCompleted {
		return nil
	}

	var requested map[string]struct{}
	if trial.Selection != nil {
		requested = keySet(trial.Selection)
	}
	ran := example.NewSelection(trial.AllIDs...)
	for _, id := range ran {
		if _, ok := requested[id.String()]; requested != nil && !ok {
			return fmt.Errorf("%s ran but was not requested", id)
		}
	}

	ranKeys := keySet(ran)
	expected := make([]example.ID, 0, ran.Len())
	for _, id := range baselineOrder {
		if _, ok := ranKeys[id.String()]; ok {
			expected = append(expected, id)
		}
	}
	if len(expected) != ran.Len() {
		return fmt.Errorf("%d example(s) ran that the baseline never ran", ran.Len()-len(expected))
	}
	for i := range expected {
		if !expected[i].Equal(ran[i]) {
			return fmt.Errorf("expected %s at position %d, got %s", expected[i], i+1, ran[i])
		}
	}
	return nil
}

// classifyTrial applies the order check, turning a violation into an
// ordering inconsistency for that trial.
func classifyTrial(b *Baseline, trial *runner.TrialRun) *runner.TrialRun {
	if err := CheckOrder(b.Order, trial); err != nil {
		return trial.WithOutcome(runner.OutcomeOrderingInconsistency, "order check: "+err.Error())
	}
	return trial
}

func sameOrder(a, b []example.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func keySet(ids []example.ID) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id.String()] = struct{}{}
	}
	return m
}

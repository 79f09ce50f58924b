package bisect

import "specbisect/internal/example"

// State is the search state threaded through the reduction loop.
type State struct {
	// FixedFailing never changes after the baseline.
	FixedFailing example.Selection

	// Remaining holds the candidates not yet proven unnecessary, in baseline order.
	Remaining []example.ID

	Round     int
	ChunkSize int
}

// NewState starts a search over the baseline's candidates.
func NewState(b *Baseline) State {
	s := State{
		FixedFailing: b.FixedFailing.IDs(),
		Remaining:    append([]example.ID(nil), b.Candidates...),
		Round:        1,
	}
	s.ChunkSize = ceilHalf(len(s.Remaining))
	return s
}

// Snapshot returns a deep copy safe to hand to reporters.
func (s State) Snapshot() State {
	cp := State{Round: s.Round, ChunkSize: s.ChunkSize}
	cp.FixedFailing = make(example.Selection, len(s.FixedFailing))
	for i, id := range s.FixedFailing {
		cp.FixedFailing[i] = example.NewID(id.File, id.Scope...)
	}
	cp.Remaining = make([]example.ID, len(s.Remaining))
	for i, id := range s.Remaining {
		cp.Remaining[i] = example.NewID(id.File, id.Scope...)
	}
	return cp
}

// Done reports whether there is nothing left to search.
func (s State) Done() bool { return len(s.Remaining) == 0 }

// Chunks partitions the remaining candidates for the current round.
func (s State) Chunks() [][]example.ID {
	return example.Chunks(s.Remaining, s.ChunkSize)
}

// TrialSelection is fixed_failing plus every remaining candidate outside
// chunk, in reference order.
func (s State) TrialSelection(chunk []example.ID, reference []example.ID) example.Selection {
	keep := example.NewSelection(s.Remaining...).Without(example.NewSelection(chunk...))
	return s.FixedFailing.Union(keep).OrderedBy(reference)
}

// Remove drops chunk from the remaining candidates.
func (s *State) Remove(chunk []example.ID) {
	s.Remaining = example.NewSelection(s.Remaining...).Without(example.NewSelection(chunk...)).IDs()
}

// Advance moves to the next round and reports whether the search continues.
// The search stops once a round at chunk size 1 removed nothing.
func (s *State) Advance(removed bool) bool {
	if s.Done() {
		return false
	}
	half := ceilHalf(len(s.Remaining))
	switch {
	case removed:
		s.ChunkSize = min(s.ChunkSize, half)
	case s.ChunkSize <= 1:
		return false
	default:
		s.ChunkSize = min(ceilHalf(s.ChunkSize), half)
	}
	s.Round++
	return true
}

func ceilHalf(n int) int {
	return (n + 1) / 2
}

// Package results holds the time-ordered snapshots of the current run.
//
// A Store is owned by the interactive loop: the orchestrator appends to it
// while handling progress events and the playback controller reads from it
// on the same goroutine, so it carries no lock.
package results

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/expressfrac/internal/frac"
)

var (
	ErrOutOfRange   = errors.New("results: index out of range")
	ErrNotMonotonic = errors.New("results: step time does not increase")
)

// NoIndex is the latest-index marker of an empty store.
const NoIndex = -1

type Store struct {
	steps  []frac.StepResult
	latest int
}

func NewStore() *Store {
	return &Store{latest: NoIndex}
}

// Reset empties the store.
func (s *Store) Reset() {
	s.steps = nil
	s.latest = NoIndex
}

// Append adds step if its time is strictly after the last one.
func (s *Store) Append(step frac.StepResult) error {
	if math.IsNaN(step.Time) || math.IsInf(step.Time, 0) {
		return fmt.Errorf("%w: t=%g is not finite", ErrNotMonotonic, step.Time)
	}
	if n := len(s.steps); n > 0 {
		prev := s.steps[n-1].Time
		if !(step.Time > prev) {
			return fmt.Errorf("%w: t=%g after t=%g", ErrNotMonotonic, step.Time, prev)
		}
	}
	s.steps = append(s.steps, step)
	s.latest = len(s.steps) - 1
	return nil
}

func (s *Store) Get(index int) (frac.StepResult, error) {
	if index < 0 || index >= len(s.steps) {
		return frac.StepResult{}, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, index, len(s.steps))
	}
	return s.steps[index], nil
}

func (s *Store) Len() int { return len(s.steps) }

// LatestIndex is the highest valid index, or NoIndex when empty.
func (s *Store) LatestIndex() int { return s.latest }

// Last returns the most recent step.
func (s *Store) Last() (frac.StepResult, bool) {
	if len(s.steps) == 0 {
		return frac.StepResult{}, false
	}
	return s.steps[len(s.steps)-1], true
}

// Times returns a copy of the step times in order.
func (s *Store) Times() []float64 {
	times := make([]float64, len(s.steps))
	for i, st := range s.steps {
		times[i] = st.Time
	}
	return times
}

// Series extracts one summary value per step, for history plots.
func (s *Store) Series(pick func(frac.Summary) float64) []float64 {
	out := make([]float64, len(s.steps))
	for i, st := range s.steps {
		out[i] = pick(st.Summary)
	}
	return out
}

// Steps returns a copy of the stored sequence. Field arrays are shared.
func (s *Store) Steps() []frac.StepResult {
	return append([]frac.StepResult(nil), s.steps...)
}

package average

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/gwillem/robocam/pkg/frame"
	"github.com/gwillem/robocam/pkg/similarity"
)

// Accumulator is a running per-sample sum plus the number of frames folded
// into it. The running mean is kept alongside the sum and is the reference
// every later frame is scored against.
type Accumulator struct {
	shape frame.Shape
	sum   []float64
	mean  []float64
	count int
}

// Decision records the outcome of one Step.
type Decision struct {
	Score    float64
	Accepted bool
}

// NewAccumulator seeds an accumulator with one frame (count = 1).
func NewAccumulator(seed frame.Frame) (*Accumulator, error) {
	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("seed frame: %w", err)
	}
	sum := seed.Float64s()
	return &Accumulator{
		shape: seed.Shape(),
		sum:   sum,
		mean:  append([]float64(nil), sum...),
		count: 1,
	}, nil
}

// Shape returns the shape every folded frame must have.
func (a *Accumulator) Shape() frame.Shape {
	return a.shape
}

// Count returns the number of frames folded in, seed included.
func (a *Accumulator) Count() int {
	return a.count
}

// Mean returns a copy of the running mean.
func (a *Accumulator) Mean() []float64 {
	return append([]float64(nil), a.mean...)
}

func (a *Accumulator) check(f frame.Frame) error {
	if f.Shape() != a.shape || f.Len() != a.shape.Len() {
		return fmt.Errorf("%w: %s vs %s", frame.ErrShapeMismatch, a.shape, f.Shape())
	}
	return nil
}

// Score compares f against the running mean.
func (a *Accumulator) Score(f frame.Frame) (float64, error) {
	if err := a.check(f); err != nil {
		return 0, err
	}
	return similarity.Scaled(a.mean, f.Float64s())
}

// Add folds f in unconditionally and refreshes the running mean.
func (a *Accumulator) Add(f frame.Frame) error {
	if err := a.check(f); err != nil {
		return err
	}
	floats.Add(a.sum, f.Float64s())
	a.count++
	floats.ScaleTo(a.mean, 1/float64(a.count), a.sum)
	return nil
}

// Step scores f against the running mean and folds it in when the score
// passes threshold. A rejected frame leaves the accumulator untouched.
func (a *Accumulator) Step(f frame.Frame, threshold float64) (Decision, error) {
	score, err := a.Score(f)
	if err != nil {
		return Decision{}, err
	}
	accepted := Accepts(score, threshold)
	if !accepted && threshold >= 1 {
		// The score cannot exceed 1, and a brightness-scaled copy scores
		// exactly 1, so only an exact match of the mean gets in.
		accepted = floats.Equal(a.mean, f.Float64s())
	}
	d := Decision{Score: score, Accepted: accepted}
	if d.Accepted {
		if err := a.Add(f); err != nil {
			return Decision{}, err
		}
	}
	return d, nil
}

// Frame divides the sum by the count, clamps each sample to [0, 255] and
// rounds to the nearest integer.
func (a *Accumulator) Frame() frame.Frame {
	out := frame.New(a.shape.Width, a.shape.Height, a.shape.Channels)
	n := float64(a.count)
	for i, s := range a.sum {
		out.Pix[i] = toSample(s / n)
	}
	return out
}

func toSample(v float64) uint8 {
	return uint8(math.Round(min(max(v, 0), 255)))
}

// Accepts reports whether a frame with the given score joins the average:
// the score must exceed threshold, and a threshold at or below 0 accepts
// every compared frame, including zero-mass ones. Scores never exceed 1, so
// from 1 upwards Accepts is always false and Step falls back to an exact
// comparison against the running mean.
func Accepts(score, threshold float64) bool {
	return threshold <= 0 || score > threshold
}

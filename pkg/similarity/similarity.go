// Package similarity scores how alike two equally sized images are.
//
// The main metric is a scale-normalized L1 similarity: each image is divided
// by its own total mass before the L1 distance is taken, so a uniform change
// in brightness (auto exposure drift) does not lower the score while
// structural changes do. Scores lie in [0, 1] with 1 meaning identical.
package similarity

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/gwillem/robocam/pkg/frame"
)

// Frames returns the scale-normalized similarity of two frames.
func Frames(a, b frame.Frame) (float64, error) {
	if err := frame.CheckShape(a, b); err != nil {
		return 0, err
	}
	return Scaled(a.Float64s(), b.Float64s())
}

// Scaled returns (2 - Σ|a/Σ|a| - b/Σ|b||) / 2. If either vector has zero
// mass the score is 0.
func Scaled(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d samples", frame.ErrShapeMismatch, len(a), len(b))
	}
	sa := floats.Norm(a, 1)
	sb := floats.Norm(b, 1)
	if sa == 0 || sb == 0 {
		return 0, nil
	}

	na := floats.ScaleTo(make([]float64, len(a)), 1/sa, a)
	nb := floats.ScaleTo(make([]float64, len(b)), 1/sb, b)
	d := floats.Distance(na, nb, 1)

	return clamp01((2 - d) / 2), nil
}

// UnscaledFrames returns the unnormalized L1 overlap of two frames.
func UnscaledFrames(a, b frame.Frame) (float64, error) {
	if err := frame.CheckShape(a, b); err != nil {
		return 0, err
	}
	return Unscaled(a.Float64s(), b.Float64s())
}

// Unscaled returns (Σ|a| + Σ|b| - Σ|a-b|) / (2·max(Σ|a|, Σ|b|)). Unlike
// Scaled it penalizes brightness differences. Two zero vectors score 0.
func Unscaled(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d samples", frame.ErrShapeMismatch, len(a), len(b))
	}
	wa := floats.Norm(a, 1)
	wb := floats.Norm(b, 1)
	if wa == 0 && wb == 0 {
		return 0, nil
	}
	wab := floats.Distance(a, b, 1)
	return clamp01((wa + wb - wab) / (2 * max(wa, wb))), nil
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

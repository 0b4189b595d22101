// Package average folds a burst of frames into one low-noise frame,
// dropping frames that disagree with the running consensus.
//
// The fold is a single greedy pass: the seed frame starts the running mean,
// and each remaining frame is scored against the current mean with the
// scale-normalized similarity. Frames scoring above the threshold are added
// and move the mean; the rest are dropped. Rejection is never an error.
package average

import (
	"fmt"
	"slices"

	"github.com/gwillem/robocam/pkg/frame"
	"github.com/gwillem/robocam/pkg/similarity"
)

// DefaultThreshold is the minimum similarity for a frame to be averaged in.
const DefaultThreshold = 0.75

// SeedStrategy picks the frame that starts the running mean.
type SeedStrategy int

const (
	// SeedLast seeds from the last frame of the burst. Later frames are the
	// most likely to have settled after a servo move. A corrupted last frame
	// makes every other frame look like an outlier.
	SeedLast SeedStrategy = iota

	// SeedMedian seeds from the frame closest to the per-sample median of
	// the burst, which survives a corrupted last frame.
	SeedMedian
)

func (s SeedStrategy) String() string {
	switch s {
	case SeedLast:
		return "last"
	case SeedMedian:
		return "median"
	default:
		return fmt.Sprintf("SeedStrategy(%d)", int(s))
	}
}

// ParseSeedStrategy parses "last" or "median".
func ParseSeedStrategy(s string) (SeedStrategy, error) {
	switch s {
	case "", "last":
		return SeedLast, nil
	case "median":
		return SeedMedian, nil
	default:
		return 0, fmt.Errorf("unknown seed strategy %q", s)
	}
}

// Averager holds the parameters of a burst fold.
type Averager struct {
	Threshold float64
	Seed      SeedStrategy
}

// Default returns an averager with the default threshold seeded from the
// last frame.
func Default() Averager {
	return Averager{Threshold: DefaultThreshold, Seed: SeedLast}
}

// Result is the outcome of one fold.
type Result struct {
	Frame     frame.Frame
	Accepted  int
	Total     int
	SeedIndex int
	// Scores holds each frame's score against the mean at the time it was
	// compared. The seed scores 1.
	Scores []float64
}

// Ratio returns the fraction of frames that made it into the average.
func (r Result) Ratio() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Accepted) / float64(r.Total)
}

// SeedOnly reports whether every frame but the seed was rejected. For bursts
// of more than one frame this usually means a bad capture.
func (r Result) SeedOnly() bool {
	return r.Total > 1 && r.Accepted == 1
}

// Average folds frames with the default seed strategy and returns the
// averaged frame and the number of frames accepted.
func Average(frames []frame.Frame, threshold float64) (frame.Frame, int, error) {
	res, err := Averager{Threshold: threshold}.Run(frames)
	if err != nil {
		return frame.Frame{}, 0, err
	}
	return res.Frame, res.Accepted, nil
}

// Run folds frames. All frames must share one shape; the burst is checked
// before anything is folded.
func (av Averager) Run(frames []frame.Frame) (Result, error) {
	if err := frame.CheckBurst(frames); err != nil {
		return Result{}, err
	}
	if err := frames[0].Validate(); err != nil {
		return Result{}, err
	}

	seed, err := av.seedIndex(frames)
	if err != nil {
		return Result{}, err
	}
	acc, err := NewAccumulator(frames[seed])
	if err != nil {
		return Result{}, err
	}

	scores := make([]float64, len(frames))
	scores[seed] = 1
	for i, f := range frames {
		if i == seed {
			continue
		}
		d, err := acc.Step(f, av.Threshold)
		if err != nil {
			return Result{}, fmt.Errorf("frame %d: %w", i, err)
		}
		scores[i] = d.Score
	}

	return Result{
		Frame:     acc.Frame(),
		Accepted:  acc.Count(),
		Total:     len(frames),
		SeedIndex: seed,
		Scores:    scores,
	}, nil
}

func (av Averager) seedIndex(frames []frame.Frame) (int, error) {
	switch av.Seed {
	case SeedLast:
		return len(frames) - 1, nil
	case SeedMedian:
		return medianSeed(frames)
	default:
		return 0, fmt.Errorf("unknown seed strategy %v", av.Seed)
	}
}

// medianSeed returns the index of the frame scoring highest against the
// per-sample median. Ties go to the later frame.
func medianSeed(frames []frame.Frame) (int, error) {
	if len(frames) <= 2 {
		return len(frames) - 1, nil
	}
	med := Median(frames)
	best, bestScore := len(frames)-1, -1.0
	for i, f := range frames {
		score, err := similarity.Scaled(med, f.Float64s())
		if err != nil {
			return 0, err
		}
		if score >= bestScore {
			best, bestScore = i, score
		}
	}
	return best, nil
}

// Median returns the per-sample median of a burst. For an even count it is
// the mean of the two middle samples. Frames must share one shape.
func Median(frames []frame.Frame) []float64 {
	if len(frames) == 0 {
		return nil
	}
	n := frames[0].Len()
	out := make([]float64, n)
	col := make([]uint8, len(frames))
	mid := len(frames) / 2
	for i := 0; i < n; i++ {
		for j, f := range frames {
			col[j] = f.Pix[i]
		}
		slices.Sort(col)
		if len(col)%2 == 1 {
			out[i] = float64(col[mid])
		} else {
			out[i] = (float64(col[mid-1]) + float64(col[mid])) / 2
		}
	}
	return out
}

// Mean averages every frame without any similarity gate.
func Mean(frames []frame.Frame) (frame.Frame, error) {
	if err := frame.CheckBurst(frames); err != nil {
		return frame.Frame{}, err
	}
	acc, err := NewAccumulator(frames[0])
	if err != nil {
		return frame.Frame{}, err
	}
	for _, f := range frames[1:] {
		if err := acc.Add(f); err != nil {
			return frame.Frame{}, err
		}
	}
	return acc.Frame(), nil
}

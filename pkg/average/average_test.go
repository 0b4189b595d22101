package average

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gwillem/robocam/pkg/frame"
)

// pair builds a 2x1 grayscale frame. For two-sample frames the similarity
// is 1 - |p - q| where p and q are the first sample's share of the total,
// which keeps the expected scores below easy to check by hand.
func pair(a, b uint8) frame.Frame {
	f := frame.New(2, 1, 1)
	f.Pix[0], f.Pix[1] = a, b
	return f
}

func repeat(f frame.Frame, n int) []frame.Frame {
	out := make([]frame.Frame, n)
	for i := range out {
		out[i] = f.Clone()
	}
	return out
}

func TestAverageAllAccept(t *testing.T) {
	burst := repeat(frame.Filled(4, 4, 3, 100), 5)

	got, n, err := Average(burst, 0.75)
	if err != nil {
		t.Fatalf("Average() error: %v", err)
	}
	if n != 5 {
		t.Errorf("accepted = %d, want 5", n)
	}
	if diff := cmp.Diff(frame.Filled(4, 4, 3, 100), got); diff != "" {
		t.Errorf("Average() mismatch (-want +got):\n%s", diff)
	}
}

func TestAverageSeedOutlier(t *testing.T) {
	burst := append(repeat(frame.Filled(4, 4, 3, 50), 4), frame.New(4, 4, 3))

	got, n, err := Average(burst, 0.75)
	if err != nil {
		t.Fatalf("Average() error: %v", err)
	}
	if n != 1 {
		t.Errorf("accepted = %d, want 1", n)
	}
	if diff := cmp.Diff(frame.New(4, 4, 3), got); diff != "" {
		t.Errorf("Average() mismatch (-want +got):\n%s", diff)
	}
}

func TestAverageSeedMedianSurvivesOutlier(t *testing.T) {
	burst := append(repeat(frame.Filled(4, 4, 3, 50), 4), frame.New(4, 4, 3))

	res, err := Averager{Threshold: 0.75, Seed: SeedMedian}.Run(burst)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.SeedIndex != 3 {
		t.Errorf("SeedIndex = %d, want 3", res.SeedIndex)
	}
	if res.Accepted != 4 {
		t.Errorf("Accepted = %d, want 4", res.Accepted)
	}
	if diff := cmp.Diff(frame.Filled(4, 4, 3, 50), res.Frame); diff != "" {
		t.Errorf("Run() mismatch (-want +got):\n%s", diff)
	}
}

func TestAverageRejectThenAccept(t *testing.T) {
	a := pair(10, 14) // share 10/24 against C's 1/2: score 1 - 1/12
	b := pair(200, 0) // share 1 against the mean of C and A (11/24): 1 - 13/24
	c := pair(12, 12) // seed
	burst := []frame.Frame{a, b, c}

	res, err := Averager{Threshold: 0.75}.Run(burst)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Accepted != 2 {
		t.Errorf("Accepted = %d, want 2 (C and A)", res.Accepted)
	}
	if res.SeedIndex != 2 {
		t.Errorf("SeedIndex = %d, want 2", res.SeedIndex)
	}
	wantScores := []float64{1 - 1.0/12, 1 - 13.0/24, 1}
	for i, want := range wantScores {
		if math.Abs(res.Scores[i]-want) > 1e-9 {
			t.Errorf("Scores[%d] = %v, want %v", i, res.Scores[i], want)
		}
	}
	if diff := cmp.Diff(pair(11, 13), res.Frame); diff != "" {
		t.Errorf("Run() mismatch (-want +got):\n%s", diff)
	}
}

func TestAverageSingleFrame(t *testing.T) {
	f := frame.New(3, 2, 3)
	for i := range f.Pix {
		f.Pix[i] = uint8(i * 11)
	}
	for _, threshold := range []float64{-1, 0, 0.5, 0.75, 1, 2} {
		got, n, err := Average([]frame.Frame{f}, threshold)
		if err != nil {
			t.Fatalf("Average(threshold=%v) error: %v", threshold, err)
		}
		if n != 1 {
			t.Errorf("Average(threshold=%v) accepted = %d, want 1", threshold, n)
		}
		if diff := cmp.Diff(f, got); diff != "" {
			t.Errorf("Average(threshold=%v) mismatch (-want +got):\n%s", threshold, diff)
		}
	}
}

// gradedBurst is seeded from its last frame (share 1/2). The expected counts
// per threshold follow from the running mean's share after each accept.
func gradedBurst() []frame.Frame {
	return []frame.Frame{
		pair(50, 50), // 1
		pair(80, 20), // 0.7 against 1/2
		pair(55, 45), // 0.95 against 1/2
		pair(10, 90), // 0.5125 after accepting everything so far, otherwise ~0.58
		pair(40, 60), // 0.91, 0.883 or 0.9 depending on what came before
		pair(50, 50), // seed
	}
}

func TestAverageThresholdMonotonic(t *testing.T) {
	tests := []struct {
		threshold float64
		want      int
	}{
		{-0.5, 6},
		{0, 6},
		{0.5, 6},
		{0.75, 4},
		{0.9, 3},
		{0.96, 2},
		{1, 2}, // the first frame equals the seed exactly
		{1.5, 2},
	}

	prev := math.MaxInt
	for _, tt := range tests {
		_, n, err := Average(gradedBurst(), tt.threshold)
		if err != nil {
			t.Fatalf("Average(threshold=%v) error: %v", tt.threshold, err)
		}
		if n != tt.want {
			t.Errorf("Average(threshold=%v) accepted = %d, want %d", tt.threshold, n, tt.want)
		}
		if n > prev {
			t.Errorf("accepted count rose from %d to %d at threshold %v", prev, n, tt.threshold)
		}
		prev = n
	}
}

func TestAverageThresholdOneNeedsExactMatch(t *testing.T) {
	// a brightness-scaled copy scores 1 but is not identical to the mean
	for _, threshold := range []float64{1, 1.5, 5} {
		burst := []frame.Frame{frame.Filled(4, 4, 3, 50), frame.Filled(4, 4, 3, 100)}
		got, n, err := Average(burst, threshold)
		if err != nil {
			t.Fatalf("Average(threshold=%v) error: %v", threshold, err)
		}
		if n != 1 {
			t.Errorf("Average(threshold=%v) accepted = %d, want 1", threshold, n)
		}
		if diff := cmp.Diff(burst[1].Pix, got.Pix); diff != "" {
			t.Errorf("Average(threshold=%v) did not return the seed (-want +got):\n%s", threshold, diff)
		}
	}

	_, n, err := Average(repeat(frame.Filled(4, 4, 3, 80), 3), 1)
	if err != nil {
		t.Fatalf("Average() error: %v", err)
	}
	if n != 3 {
		t.Errorf("identical burst at threshold 1: accepted = %d, want 3", n)
	}
}

func TestAverageGradedOutput(t *testing.T) {
	// At 0.75 the seed, 50/50, 55/45 and 40/60 are kept: (195, 205) / 4.
	got, _, err := Average(gradedBurst(), 0.75)
	if err != nil {
		t.Fatalf("Average() error: %v", err)
	}
	if diff := cmp.Diff(pair(49, 51), got); diff != "" {
		t.Errorf("Average() mismatch (-want +got):\n%s", diff)
	}
}

func TestAverageAllZero(t *testing.T) {
	burst := repeat(frame.New(4, 4, 1), 5)

	if _, n, _ := Average(burst, 0.75); n != 1 {
		t.Errorf("Average(threshold=0.75) accepted = %d, want 1", n)
	}
	if _, n, _ := Average(burst, 0); n != 5 {
		t.Errorf("Average(threshold=0) accepted = %d, want 5", n)
	}
}

func TestAverageErrors(t *testing.T) {
	if _, _, err := Average(nil, 0.75); !errors.Is(err, frame.ErrEmptyInput) {
		t.Errorf("Average(nil) = %v, want ErrEmptyInput", err)
	}

	burst := []frame.Frame{frame.New(4, 4, 3), frame.New(4, 4, 3), frame.New(4, 4, 1)}
	got, n, err := Average(burst, 0.75)
	if !errors.Is(err, frame.ErrShapeMismatch) {
		t.Fatalf("Average() = %v, want ErrShapeMismatch", err)
	}
	if n != 0 || got.Pix != nil {
		t.Errorf("Average() returned output alongside error: n=%d frame=%v", n, got.Shape())
	}
}

func TestAccumulatorStep(t *testing.T) {
	acc, err := NewAccumulator(pair(12, 12))
	if err != nil {
		t.Fatalf("NewAccumulator() error: %v", err)
	}

	d, err := acc.Step(pair(200, 0), 0.75)
	if err != nil {
		t.Fatalf("Step() error: %v", err)
	}
	if d.Accepted || math.Abs(d.Score-0.5) > 1e-9 {
		t.Errorf("Step(200,0) = %+v, want rejected with score 0.5", d)
	}
	if acc.Count() != 1 {
		t.Errorf("Count() = %d after reject, want 1", acc.Count())
	}

	d, err = acc.Step(pair(10, 14), 0.75)
	if err != nil {
		t.Fatalf("Step() error: %v", err)
	}
	if !d.Accepted {
		t.Errorf("Step(10,14) = %+v, want accepted", d)
	}
	if diff := cmp.Diff([]float64{11, 13}, acc.Mean()); diff != "" {
		t.Errorf("Mean() mismatch (-want +got):\n%s", diff)
	}

	if _, err := acc.Step(frame.New(3, 1, 1), 0.75); !errors.Is(err, frame.ErrShapeMismatch) {
		t.Errorf("Step() with wrong shape = %v, want ErrShapeMismatch", err)
	}
}

func TestToSampleClampThenRound(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-3, 0},
		{0.49, 0},
		{0.5, 1},
		{127.5, 128},
		{254.6, 255},
		{255.4, 255},
		{1e6, 255},
	}
	for _, tt := range tests {
		if got := toSample(tt.in); got != tt.want {
			t.Errorf("toSample(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAccepts(t *testing.T) {
	tests := []struct {
		score, threshold float64
		want             bool
	}{
		{0.8, 0.75, true},
		{0.75, 0.75, false},
		{0, 0, true},
		{0, -1, true},
		{1, 1, false},
		{0.999, 1, false},
		{1, 2, false},
	}
	for _, tt := range tests {
		if got := Accepts(tt.score, tt.threshold); got != tt.want {
			t.Errorf("Accepts(%v, %v) = %v, want %v", tt.score, tt.threshold, got, tt.want)
		}
	}
}

func TestMean(t *testing.T) {
	got, err := Mean([]frame.Frame{pair(10, 0), pair(20, 100), pair(31, 200)})
	if err != nil {
		t.Fatalf("Mean() error: %v", err)
	}
	if diff := cmp.Diff(pair(20, 100), got); diff != "" {
		t.Errorf("Mean() mismatch (-want +got):\n%s", diff)
	}
	if _, err := Mean(nil); !errors.Is(err, frame.ErrEmptyInput) {
		t.Errorf("Mean(nil) = %v, want ErrEmptyInput", err)
	}
}

func TestMedian(t *testing.T) {
	odd := Median([]frame.Frame{pair(1, 9), pair(5, 3), pair(3, 7)})
	if diff := cmp.Diff([]float64{3, 7}, odd); diff != "" {
		t.Errorf("Median(odd) mismatch (-want +got):\n%s", diff)
	}
	even := Median([]frame.Frame{pair(1, 9), pair(5, 3), pair(3, 7), pair(4, 0)})
	if diff := cmp.Diff([]float64{3.5, 5}, even); diff != "" {
		t.Errorf("Median(even) mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSeedStrategy(t *testing.T) {
	for _, s := range []SeedStrategy{SeedLast, SeedMedian} {
		got, err := ParseSeedStrategy(s.String())
		if err != nil || got != s {
			t.Errorf("ParseSeedStrategy(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseSeedStrategy("first"); err == nil {
		t.Error("ParseSeedStrategy(first) should fail")
	}
}

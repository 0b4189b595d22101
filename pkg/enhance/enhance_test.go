package enhance

import (
	"testing"

	"github.com/gwillem/robocam/pkg/frame"
)

func TestEdgesUniformIsBlank(t *testing.T) {
	for _, channels := range []int{1, 3} {
		f := frame.Filled(6, 5, channels, 120)
		out, err := Edges(f, DefaultOptions())
		if err != nil {
			t.Fatalf("Edges() error: %v", err)
		}
		if !frame.SameShape(f, out) {
			t.Fatalf("Edges() shape = %s, want %s", out.Shape(), f.Shape())
		}
		for i, v := range out.Pix {
			if v != 255 {
				t.Fatalf("channels=%d: pixel %d = %d, want 255", channels, i, v)
			}
		}
	}
}

func TestEdgesMarksDarkSide(t *testing.T) {
	// dark left half, bright right half
	f := frame.New(8, 4, 1)
	for y := 0; y < 4; y++ {
		for x := 4; x < 8; x++ {
			f.Set(x, y, 0, 200)
		}
	}
	out, err := Edges(f, DefaultOptions())
	if err != nil {
		t.Fatalf("Edges() error: %v", err)
	}
	// the blur bleeds brightness onto the dark side of the edge
	if got := out.At(3, 1, 0); got >= 255 {
		t.Errorf("pixel next to edge = %d, want darker than 255", got)
	}
	// on the bright side the residue is negative and saturates away
	if got := out.At(4, 1, 0); got != 255 {
		t.Errorf("bright side pixel = %d, want 255", got)
	}
}

func TestMassage(t *testing.T) {
	tests := []struct {
		x    int
		want uint8
	}{
		{-20, 255},
		{0, 255},
		{10, 220},
		{73, 0},
		{200, 0},
	}
	for _, tt := range tests {
		if got := massage(tt.x, DefaultGain); got != tt.want {
			t.Errorf("massage(%d) = %d, want %d", tt.x, got, tt.want)
		}
	}
}

func TestEdgesRejectsInvalid(t *testing.T) {
	if _, err := Edges(frame.Frame{Width: 2, Height: 2, Channels: 1}, DefaultOptions()); err == nil {
		t.Error("Edges() should reject a frame without pixels")
	}
}

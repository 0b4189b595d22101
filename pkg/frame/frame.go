// Package frame holds the in-memory still image used by the capture and
// averaging code.
package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch is returned when two frames that must be processed
	// together differ in width, height or channel count.
	ErrShapeMismatch = errors.New("frame shape mismatch")

	// ErrEmptyInput is returned when an operation needs at least one frame.
	ErrEmptyInput = errors.New("no frames")
)

// Frame is a row-major grid of 8-bit samples with interleaved channels.
// Channels is 1 for grayscale and 3 for RGB.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// Shape describes the dimensions shared by frames of one burst.
type Shape struct {
	Width    int
	Height   int
	Channels int
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Width, s.Height, s.Channels)
}

// Len returns the number of samples in a frame of this shape.
func (s Shape) Len() int {
	return s.Width * s.Height * s.Channels
}

// New returns a black frame.
func New(width, height, channels int) Frame {
	return Frame{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Filled returns a frame with every sample set to v.
func Filled(width, height, channels int, v uint8) Frame {
	f := New(width, height, channels)
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

// Shape returns the frame dimensions.
func (f Frame) Shape() Shape {
	return Shape{Width: f.Width, Height: f.Height, Channels: f.Channels}
}

// Len returns the number of samples.
func (f Frame) Len() int {
	return len(f.Pix)
}

func (f Frame) offset(x, y, c int) int {
	return (y*f.Width+x)*f.Channels + c
}

// At returns sample c of the pixel at (x, y).
func (f Frame) At(x, y, c int) uint8 {
	return f.Pix[f.offset(x, y, c)]
}

// Set writes sample c of the pixel at (x, y).
func (f Frame) Set(x, y, c int, v uint8) {
	f.Pix[f.offset(x, y, c)] = v
}

// Clone returns a deep copy.
func (f Frame) Clone() Frame {
	out := f
	out.Pix = append([]uint8(nil), f.Pix...)
	return out
}

// Float64s converts the samples to float64 in storage order.
func (f Frame) Float64s() []float64 {
	out := make([]float64, len(f.Pix))
	for i, v := range f.Pix {
		out[i] = float64(v)
	}
	return out
}

// Validate checks that Pix matches the declared dimensions.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", f.Width, f.Height)
	}
	if f.Channels != 1 && f.Channels != 3 {
		return fmt.Errorf("unsupported channel count %d", f.Channels)
	}
	if len(f.Pix) != f.Shape().Len() {
		return fmt.Errorf("frame %s has %d samples, want %d", f.Shape(), len(f.Pix), f.Shape().Len())
	}
	return nil
}

// SameShape reports whether a and b have identical dimensions.
func SameShape(a, b Frame) bool {
	return a.Shape() == b.Shape() && len(a.Pix) == len(b.Pix)
}

// CheckShape returns an error wrapping ErrShapeMismatch when a and b differ.
func CheckShape(a, b Frame) error {
	if SameShape(a, b) {
		return nil
	}
	return fmt.Errorf("%w: %s vs %s", ErrShapeMismatch, a.Shape(), b.Shape())
}

// CheckBurst verifies that every frame shares the shape of the first one.
func CheckBurst(frames []Frame) error {
	if len(frames) == 0 {
		return ErrEmptyInput
	}
	for i := 1; i < len(frames); i++ {
		if err := CheckShape(frames[0], frames[i]); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

// Package enhance turns an averaged frame into a line drawing of its edges.
package enhance

import (
	"image"
	"image/draw"

	"github.com/disintegration/gift"

	"github.com/gwillem/robocam/pkg/frame"
)

// Defaults for Edges.
const (
	DefaultIterations = 10
	DefaultGain       = 3.5
)

// kernel is a soft blur: half the weight on the centre, the rest spread
// evenly over the eight neighbours.
var kernel = []float32{
	1.0 / 16, 1.0 / 16, 1.0 / 16,
	1.0 / 16, 1.0 / 2, 1.0 / 16,
	1.0 / 16, 1.0 / 16, 1.0 / 16,
}

// Options tune Edges.
type Options struct {
	Iterations int     // blur passes
	Gain       float64 // multiplier applied to the blur residue
}

// DefaultOptions returns the settings used by the CLI.
func DefaultOptions() Options {
	return Options{Iterations: DefaultIterations, Gain: DefaultGain}
}

// Blur applies the soft blur kernel n times.
func Blur(img image.Image, n int) *image.NRGBA {
	filters := make([]gift.Filter, 0, n)
	for range n {
		filters = append(filters, gift.Convolution(kernel, false, false, false, 0))
	}
	g := gift.New(filters...)
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	if n == 0 {
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
		return dst
	}
	g.Draw(dst, img)
	return dst
}

// Edges blurs f, subtracts the original (saturating at zero) and maps the
// residue x to 255 - min(255, gain*x), so edges come out dark on white.
func Edges(f frame.Frame, opts Options) (frame.Frame, error) {
	if err := f.Validate(); err != nil {
		return frame.Frame{}, err
	}
	if opts.Iterations <= 0 {
		opts.Iterations = DefaultIterations
	}
	if opts.Gain <= 0 {
		opts.Gain = DefaultGain
	}

	blurred, err := frame.FromImage(Blur(f.ToImage(), opts.Iterations), f.Channels)
	if err != nil {
		return frame.Frame{}, err
	}

	out := frame.New(f.Width, f.Height, f.Channels)
	for i, b := range blurred.Pix {
		out.Pix[i] = massage(int(b)-int(f.Pix[i]), opts.Gain)
	}
	return out, nil
}

func massage(x int, gain float64) uint8 {
	if x < 0 {
		x = 0
	}
	v := int(float64(x) * gain)
	if v > 255 {
		v = 255
	}
	return uint8(255 - v)
}

// Package camera supplies still frames to the capture code.
package camera

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/gwillem/robocam/pkg/frame"
)

// Source hands back one still frame per call. NextFrame may block while the
// hardware delivers.
type Source interface {
	NextFrame(ctx context.Context) (frame.Frame, error)
}

// ImageSource produces raw decoded images before any transform.
type ImageSource interface {
	NextImage(ctx context.Context) (image.Image, error)
}

// Source kinds.
const (
	KindCommand = "command"
	KindFiles   = "files"
	KindScreen  = "screen"
)

// Config selects the frame source and the transform applied to each frame.
type Config struct {
	Kind     string   `json:"kind"`
	Command  []string `json:"command,omitempty"`
	Files    string   `json:"files,omitempty"` // directory or glob
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Channels int      `json:"channels"`
	FlipH    bool     `json:"flip_h"`
	FlipV    bool     `json:"flip_v"`
}

// DefaultConfig grabs 640x480 colour stills with fswebcam; the camera is
// mounted upside down.
func DefaultConfig() Config {
	return Config{
		Kind:     KindCommand,
		Command:  []string{"fswebcam", "--quiet", "--no-banner", "-r", "640x480", "--png", "0", "-"},
		Width:    640,
		Height:   480,
		Channels: 3,
		FlipH:    true,
		FlipV:    true,
	}
}

// Open builds the source described by cfg.
func Open(cfg Config) (Source, error) {
	var src ImageSource
	switch cfg.Kind {
	case KindCommand:
		s, err := NewCommandSource(cfg.Command...)
		if err != nil {
			return nil, err
		}
		src = s
	case KindFiles:
		s, err := NewFileSource(cfg.Files)
		if err != nil {
			return nil, err
		}
		src = s
	case KindScreen:
		src = NewScreenSource(image.Rectangle{})
	default:
		return nil, fmt.Errorf("unknown camera kind %q", cfg.Kind)
	}
	return New(src, TransformFrom(cfg)), nil
}

// Transform resizes and flips raw images before they become frames.
type Transform struct {
	Width    int
	Height   int
	Channels int
	FlipH    bool
	FlipV    bool
}

// TransformFrom extracts the transform part of cfg.
func TransformFrom(cfg Config) Transform {
	return Transform{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Channels: cfg.Channels,
		FlipH:    cfg.FlipH,
		FlipV:    cfg.FlipV,
	}
}

// Apply returns img resized to the configured size (when set) and flipped.
func (t Transform) Apply(img image.Image) image.Image {
	b := img.Bounds()
	if t.Width > 0 && t.Height > 0 && (b.Dx() != t.Width || b.Dy() != t.Height) {
		img = imaging.Resize(img, t.Width, t.Height, imaging.Linear)
	}
	if t.FlipH {
		img = imaging.FlipH(img)
	}
	if t.FlipV {
		img = imaging.FlipV(img)
	}
	return img
}

// Camera turns an ImageSource into a Source.
type Camera struct {
	src ImageSource
	tf  Transform
}

// New wraps src.
func New(src ImageSource, tf Transform) *Camera {
	if tf.Channels == 0 {
		tf.Channels = 3
	}
	return &Camera{src: src, tf: tf}
}

// NextFrame grabs, transforms and converts one image.
func (c *Camera) NextFrame(ctx context.Context) (frame.Frame, error) {
	img, err := c.src.NextImage(ctx)
	if err != nil {
		return frame.Frame{}, err
	}
	return frame.FromImage(c.tf.Apply(img), c.tf.Channels)
}

// Burst calls src exactly n times and returns the frames in capture order.
func Burst(ctx context.Context, src Source, n int) ([]frame.Frame, error) {
	if n <= 0 {
		return nil, fmt.Errorf("burst size %d: %w", n, frame.ErrEmptyInput)
	}
	frames := make([]frame.Frame, 0, n)
	for i := 0; i < n; i++ {
		f, err := src.NextFrame(ctx)
		if err != nil {
			return nil, fmt.Errorf("capture frame %d/%d: %w", i+1, n, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

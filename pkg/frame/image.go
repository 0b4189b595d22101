package frame

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// FromImage converts img into a frame with the requested channel count.
// Alpha is dropped; grayscale uses the luminance conversion from imaging.
func FromImage(img image.Image, channels int) (Frame, error) {
	if img == nil {
		return Frame{}, fmt.Errorf("nil image")
	}
	b := img.Bounds()
	if b.Empty() {
		return Frame{}, fmt.Errorf("empty image %v", b)
	}

	var src *image.NRGBA
	switch channels {
	case 1:
		src = imaging.Grayscale(img)
	case 3:
		src = imaging.Clone(img)
	default:
		return Frame{}, fmt.Errorf("unsupported channel count %d", channels)
	}

	f := New(b.Dx(), b.Dy(), channels)
	for y := 0; y < f.Height; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < f.Width; x++ {
			px := row[x*4 : x*4+4]
			o := f.offset(x, y, 0)
			if channels == 1 {
				f.Pix[o] = px[0]
				continue
			}
			f.Pix[o] = px[0]
			f.Pix[o+1] = px[1]
			f.Pix[o+2] = px[2]
		}
	}
	return f, nil
}

// ToImage returns an *image.Gray for single-channel frames and an opaque
// *image.NRGBA otherwise.
func (f Frame) ToImage() image.Image {
	rect := image.Rect(0, 0, f.Width, f.Height)
	if f.Channels == 1 {
		img := image.NewGray(rect)
		copy(img.Pix, f.Pix)
		return img
	}
	img := image.NewNRGBA(rect)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			o := f.offset(x, y, 0)
			img.SetNRGBA(x, y, color.NRGBA{R: f.Pix[o], G: f.Pix[o+1], B: f.Pix[o+2], A: 0xff})
		}
	}
	return img
}

// Load decodes an image file into a frame.
func Load(path string, channels int) (Frame, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return Frame{}, fmt.Errorf("open image: %w", err)
	}
	f, err := FromImage(img, channels)
	if err != nil {
		return Frame{}, fmt.Errorf("convert %s: %w", path, err)
	}
	return f, nil
}

// Save encodes the frame to path; the format follows the file extension.
func (f Frame) Save(path string) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if err := imaging.Save(f.ToImage(), path); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}

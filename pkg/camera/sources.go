package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/vova616/screenshot"
)

// FileSource replays image files in name order, starting over after the
// last one. Useful for re-running a capture offline.
type FileSource struct {
	mu    sync.Mutex
	paths []string
	next  int
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".tif": true, ".tiff": true, ".gif": true}

// NewFileSource lists the images in a directory, or the files matching a
// glob pattern.
func NewFileSource(pattern string) (*FileSource, error) {
	var paths []string
	if info, err := os.Stat(pattern); err == nil && info.IsDir() {
		entries, err := os.ReadDir(pattern)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", pattern, err)
		}
		for _, e := range entries {
			if !e.IsDir() && imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
				paths = append(paths, filepath.Join(pattern, e.Name()))
			}
		}
	} else {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		paths = matches
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images match %q", pattern)
	}
	sort.Strings(paths)
	return &FileSource{paths: paths}, nil
}

// Paths returns the files in replay order.
func (s *FileSource) Paths() []string {
	return append([]string(nil), s.paths...)
}

// NextImage decodes the next file.
func (s *FileSource) NextImage(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	path := s.paths[s.next]
	s.next = (s.next + 1) % len(s.paths)
	s.mu.Unlock()

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return img, nil
}

// CommandSource runs a still-capture program per frame and decodes the
// image it writes to stdout (fswebcam, libcamera-still -o -, ...).
type CommandSource struct {
	name string
	args []string
}

// NewCommandSource returns a source running argv.
func NewCommandSource(argv ...string) (*CommandSource, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, fmt.Errorf("capture command is empty")
	}
	return &CommandSource{name: argv[0], args: argv[1:]}, nil
}

// NextImage runs the command once.
func (s *CommandSource) NextImage(ctx context.Context) (image.Image, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.name, s.args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("run %s: %w: %s", s.name, err, msg)
		}
		return nil, fmt.Errorf("run %s: %w", s.name, err)
	}
	img, err := imaging.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode %s output: %w", s.name, err)
	}
	return img, nil
}

// ScreenSource grabs the desktop (or a region of it). It stands in for a
// camera when testing the capture pipeline on a workstation.
type ScreenSource struct {
	rect image.Rectangle
}

// NewScreenSource captures rect, or the whole screen when rect is empty.
func NewScreenSource(rect image.Rectangle) *ScreenSource {
	return &ScreenSource{rect: rect}
}

// NextImage grabs one screenshot.
func (s *ScreenSource) NextImage(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.rect.Empty() {
		img, err := screenshot.CaptureScreen()
		if err != nil {
			return nil, fmt.Errorf("capture screen: %w", err)
		}
		return img, nil
	}
	img, err := screenshot.CaptureRect(s.rect)
	if err != nil {
		return nil, fmt.Errorf("capture %v: %w", s.rect, err)
	}
	return img, nil
}

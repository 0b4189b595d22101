package main

import (
	"fmt"
	"log/slog"

	"github.com/gwillem/robocam/pkg/average"
	"github.com/gwillem/robocam/pkg/camera"
	"github.com/gwillem/robocam/pkg/frame"
)

type AverageCommand struct {
	Output    string  `short:"o" long:"output" default:"ave-img.png" description:"Output image"`
	Threshold float64 `short:"t" long:"threshold" default:"0.75" description:"Similarity a frame must exceed to be averaged"`
	Seed      string  `long:"seed" default:"last" choice:"last" choice:"median" description:"Reference frame the average starts from"`
	Plain     bool    `long:"plain" description:"Average every frame, without outlier rejection"`
	Gray      bool    `long:"gray" description:"Load the images as grayscale"`

	Args struct {
		Images []string `positional-arg-name:"image" required:"1" description:"Image files, directories or glob patterns"`
	} `positional-args:"yes"`
}

func (c *AverageCommand) Execute(args []string) error {
	logger := newLogger()

	seed, err := average.ParseSeedStrategy(c.Seed)
	if err != nil {
		return err
	}
	frames, err := loadFrames(c.Args.Images, channels(c.Gray))
	if err != nil {
		return err
	}
	logger.Debug("loaded burst", slog.Int("frames", len(frames)))

	var out frame.Frame
	if c.Plain {
		out, err = average.Mean(frames)
		if err != nil {
			return err
		}
		fmt.Printf("averaged %d images\n", len(frames))
	} else {
		res, err := average.Averager{Threshold: c.Threshold, Seed: seed}.Run(frames)
		if err != nil {
			return err
		}
		out = res.Frame
		logger.Debug("scores", slog.Any("scores", res.Scores), slog.Int("seed", res.SeedIndex))
		if res.SeedOnly() {
			logger.Warn("only the seed frame was kept", slog.Int("seed", res.SeedIndex))
		}
		fmt.Printf("averaged %d of %d images\n", res.Accepted, res.Total)
	}

	if err := out.Save(c.Output); err != nil {
		return err
	}
	logger.Info("saved", slog.String("path", c.Output))
	return nil
}

func channels(gray bool) int {
	if gray {
		return 1
	}
	return 3
}

// loadFrames expands each argument (file, directory or glob) in name order
// and loads the images.
func loadFrames(args []string, channels int) ([]frame.Frame, error) {
	var frames []frame.Frame
	for _, arg := range args {
		src, err := camera.NewFileSource(arg)
		if err != nil {
			return nil, err
		}
		for _, path := range src.Paths() {
			f, err := frame.Load(path, channels)
			if err != nil {
				return nil, err
			}
			frames = append(frames, f)
		}
	}
	return frames, nil
}

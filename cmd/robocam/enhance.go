package main

import (
	"log/slog"

	"github.com/gwillem/robocam/pkg/enhance"
	"github.com/gwillem/robocam/pkg/frame"
)

type EnhanceCommand struct {
	Output     string  `short:"o" long:"output" default:"edge-enhanced.png" description:"Output image"`
	Iterations int     `long:"iterations" default:"10" description:"Blur passes"`
	Gain       float64 `long:"gain" default:"3.5" description:"Edge darkness multiplier"`
	Gray       bool    `long:"gray" description:"Load the image as grayscale"`

	Args struct {
		Image string `positional-arg-name:"image" required:"yes"`
	} `positional-args:"yes"`
}

func (c *EnhanceCommand) Execute(args []string) error {
	logger := newLogger()

	src, err := frame.Load(c.Args.Image, channels(c.Gray))
	if err != nil {
		return err
	}
	out, err := enhance.Edges(src, enhance.Options{Iterations: c.Iterations, Gain: c.Gain})
	if err != nil {
		return err
	}
	if err := out.Save(c.Output); err != nil {
		return err
	}
	logger.Info("saved", slog.String("path", c.Output), slog.Int("iterations", c.Iterations))
	return nil
}

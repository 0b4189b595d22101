package main

import (
	"fmt"

	"github.com/gwillem/robocam/pkg/frame"
	"github.com/gwillem/robocam/pkg/similarity"
)

type SimmCommand struct {
	Unscaled bool `long:"unscaled" description:"Use the brightness sensitive score"`
	Gray     bool `long:"gray" description:"Load the images as grayscale"`

	Args struct {
		A string `positional-arg-name:"image1" required:"yes"`
		B string `positional-arg-name:"image2" required:"yes"`
	} `positional-args:"yes"`
}

func (c *SimmCommand) Execute(args []string) error {
	a, err := frame.Load(c.Args.A, channels(c.Gray))
	if err != nil {
		return err
	}
	b, err := frame.Load(c.Args.B, channels(c.Gray))
	if err != nil {
		return err
	}

	score := similarity.Frames
	if c.Unscaled {
		score = similarity.UnscaledFrames
	}
	s, err := score(a, b)
	if err != nil {
		return err
	}
	fmt.Printf("simm: %.6f\n", s)
	return nil
}

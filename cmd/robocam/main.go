package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Verbose bool   `short:"v" long:"verbose" description:"Enable debug logging"`
	Config  string `short:"c" long:"config" default:"robocam.json" description:"Configuration file written by setup"`

	Setup   SetupCommand   `command:"setup" description:"Find the board and pan servo and write the configuration"`
	Scan    ScanCommand    `command:"scan" description:"Capture a panorama of averaged frames"`
	Average AverageCommand `command:"average" alias:"avg" description:"Average a burst of image files with outlier rejection"`
	Simm    SimmCommand    `command:"simm" description:"Print the similarity of two images"`
	Enhance EnhanceCommand `command:"enhance" description:"Render the edges of an image as a line drawing"`
	Drive   DriveCommand   `command:"drive" description:"Drive the car from the keyboard"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "robocam - panorama capture and remote control for a servo camera car"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

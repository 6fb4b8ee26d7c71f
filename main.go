package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/achilleasa/pruner/cmd"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "pruner"
	app.Usage = "build and exercise bounding volume hierarchies for scene queries"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load pruner options from a YAML file",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build a tree over random primitives and print its statistics",
			Description: `
Generate random boxes, vertices or triangles and build an AABB tree over them
using the selected split rule and leaf limit. With --all-rules one tree is
built per split rule so their quality can be compared.`,
			Flags:  cmd.BuildFlags,
			Action: cmd.BuildTree,
		},
		{
			Name:  "cull",
			Usage: "cull random boxes against a camera frustum",
			Description: `
Register random boxes with a pruner, extract the six frustum planes of a
perspective camera and report how many boxes are visible and how many of
them straddle a frustum plane.`,
			Flags:  cmd.CullFlags,
			Action: cmd.CullObjects,
		},
		{
			Name:   "stab",
			Usage:  "cast random rays against random boxes",
			Flags:  cmd.StabFlags,
			Action: cmd.StabObjects,
		},
		{
			Name:  "simulate",
			Usage: "drive dynamic pruners through random object churn",
			Description: `
Register random boxes with one dynamic pruner per scene and apply random
add, remove and move operations for the requested number of ticks while the
pruner rebuilds its tree incrementally. Scenes run in parallel and the
object mapping of every pruner is verified after each tick.`,
			Flags:  cmd.SimulateFlags,
			Action: cmd.Simulate,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}

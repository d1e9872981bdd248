// Command render loads a JSON scene description and renders it to a PNG.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/lumenray/tracer/pkg/rtlog"
	"github.com/lumenray/tracer/pkg/scene"
	"github.com/urfave/cli"
)

var logger = rtlog.New("render")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("vv") {
		rtlog.SetLevel(rtlog.Debug)
		return
	}
	if ctx.GlobalBool("v") {
		rtlog.SetLevel(rtlog.Info)
	}
}

func renderScene(ctx *cli.Context) error {
	setupLogging(ctx)

	scenePath := ctx.String("scene")
	if scenePath == "" {
		return errors.New("missing required --scene flag")
	}

	loaded, err := scene.Load(scenePath)
	if err != nil {
		return err
	}

	if threads := ctx.Int("threads"); threads > 0 {
		loaded.Renderer.NumWorkers = threads
	}
	if spp := ctx.Int("spp"); spp > 0 {
		loaded.Renderer.SamplesPerPixel = spp
	}

	out := ctx.String("out")
	if out == "" {
		out = loaded.OutputFilename
	}

	logger.Noticef("rendering %s -> %s (%d workers, %d spp)", scenePath, out, loaded.Renderer.NumWorkers, loaded.Renderer.SamplesPerPixel)

	stats := loaded.Renderer.Render()
	logger.Noticef("render finished\n%s", stats.WriteTable())

	resolution := loaded.Renderer.Scene.Film.Resolution
	if err := loaded.Renderer.Scene.Film.WriteImageToFile(out, loaded.SplatScale, resolution); err != nil {
		return fmt.Errorf("render: writing %s: %w", out, err)
	}

	logger.Noticef("wrote %s", out)
	return nil
}

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "tracer"
	app.Usage = "render a JSON scene description with a physically based path tracer"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a scene file",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "scene",
					Usage: "path to the JSON scene description (required)",
				},
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output PNG path, overriding the scene file's Film.Filename",
				},
				cli.IntFlag{
					Name:  "threads",
					Usage: "number of tile-rendering workers, overriding the scene file's default (0 = runtime.NumCPU())",
				},
				cli.IntFlag{
					Name:  "spp",
					Usage: "samples per pixel, overriding the scene file's Sampler.SPP",
				},
			},
			Action: renderScene,
		},
		{
			Name:   "version",
			Usage:  "print the version",
			Action: func(ctx *cli.Context) error { fmt.Println(ctx.App.Version); return nil },
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Errorf("%s", err)
		os.Exit(1)
	}
}

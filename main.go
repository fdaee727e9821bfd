/*
This is an example of application that will use the
engine package to render the testbed scene headless
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima-temporal/engine"
	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/renderer"
	"github.com/spaghettifunk/anima-temporal/testbed"
)

func main() {
	opts := testbed.DefaultOptions()

	width := flag.Uint("width", uint(opts.Width), "output width in pixels")
	height := flag.Uint("height", uint(opts.Height), "output height in pixels")
	frames := flag.Uint64("frames", opts.Frames, "frames to render, 0 runs until interrupted")
	configPath := flag.String("config", "", "pipeline TOML file, reloaded on change")
	assetsDir := flag.String("assets", "assets", "asset directory")
	texture := flag.String("texture", "", "ground texture (.png, .jpg, .tga)")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	out := flag.String("out", "", "directory for frame images")
	saveEvery := flag.Uint64("save-every", 0, "also write every n-th frame")
	preview := flag.Float64("preview-scale", opts.PreviewScale, "scale of the denoised preview image")
	resizeAt := flag.Uint64("resize-at", 0, "resize after this many frames, 0 disables")
	resizeWidth := flag.Uint("resize-width", uint(opts.ResizeWidth), "width after the resize")
	resizeHeight := flag.Uint("resize-height", uint(opts.ResizeHeight), "height after the resize")
	workers := flag.Int("workers", 0, "worker goroutines, 0 uses one per CPU")
	serial := flag.Bool("serial", false, "run every pass on the frame goroutine")
	noise := flag.Float64("noise", float64(opts.Noise), "relative noise amplitude of the beauty pass")
	flag.Parse()

	level, err := core.ParseLogLevel(*logLevel)
	if err != nil {
		core.LogFatal("invalid log level", "level", *logLevel)
	}

	opts.Width = uint32(*width)
	opts.Height = uint32(*height)
	opts.Frames = *frames
	opts.ConfigPath = *configPath
	opts.AssetsDir = *assetsDir
	opts.TexturePath = *texture
	opts.LogLevel = level
	opts.OutputDir = *out
	opts.SaveEvery = *saveEvery
	opts.PreviewScale = *preview
	opts.ResizeAt = *resizeAt
	opts.ResizeWidth = uint32(*resizeWidth)
	opts.ResizeHeight = uint32(*resizeHeight)
	opts.Workers = *workers
	opts.Noise = float32(*noise)
	if *serial {
		opts.Backend = renderer.Serial
	}

	tb := testbed.NewTestGame(opts)

	e, err := engine.New(tb.Game)
	if err != nil {
		core.LogFatal(err.Error())
	}

	if err := e.Initialize(); err != nil {
		core.LogFatal(err.Error())
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// stop the frame loop; shutdown happens on the main goroutine
	go func() {
		<-sigCh
		e.Stop()
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError(err.Error())
	}
	if runErr != nil {
		core.LogFatal(runErr.Error())
	}
	for _, path := range tb.Written() {
		core.LogInfo("wrote", "path", path)
	}
}

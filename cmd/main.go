package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/gomilkdrop/audio"
	"github.com/richinsley/gomilkdrop/engine"
	"github.com/richinsley/gomilkdrop/glfwcontext"
	"github.com/richinsley/gomilkdrop/gpu"
	"github.com/richinsley/gomilkdrop/logging"
	"github.com/richinsley/gomilkdrop/options"
	"github.com/richinsley/gomilkdrop/pipeline"
	"github.com/richinsley/gomilkdrop/preset"
	"github.com/richinsley/gomilkdrop/renderer"
	"github.com/richinsley/gomilkdrop/texture"
	"github.com/richinsley/gomilkdrop/translator"
)

func init() {
	runtime.LockOSThread()
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(strings.ToUpper(s)))
	return l, err
}

func loadPipeline(path string) (*pipeline.Pipeline, error) {
	if path == "" {
		return pipeline.New(), nil
	}
	p, err := preset.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Logger().Info("loaded preset", "name", p.Name, "path", path)
	return p.Pipeline(), nil
}

func run(opts *options.Options) error {
	if err := glfwcontext.InitGraphics(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	defer glfwcontext.TerminateGraphics()

	record := *opts.Record
	win, err := glfwcontext.New(opts, !record)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer win.Shutdown()
	compileCtx, err := win.NewShared()
	if err != nil {
		return fmt.Errorf("failed to create compile context: %w", err)
	}
	defer compileCtx.Shutdown()

	win.MakeCurrent()
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logging.Logger().Info("OpenGL initialized", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	width, height := *opts.Width, *opts.Height
	if !record {
		width, height = win.GetFramebufferSize()
	}

	backend := gpu.NewGL()
	var paths []string
	if *opts.TexturePaths != "" {
		paths = filepath.SplitList(*opts.TexturePaths)
	}
	textures := texture.NewManager(backend, width, height, paths...)
	defer textures.Release()

	defaults, err := engine.NewDefaultPrograms(backend)
	if err != nil {
		return err
	}
	defer defaults.Release()

	gen, err := translator.NewANGLEGenerator(context.Background(), translator.OutputGLSL410)
	if err != nil {
		return err
	}

	dev, err := audio.NewDevice(audio.Options{
		File:       *opts.AudioInputFile,
		Device:     *opts.AudioInputDevice,
		Microphone: *opts.Microphone,
		Realtime:   !record,
		FFmpegPath: *opts.FFmpegPath,
	})
	if err != nil {
		return fmt.Errorf("failed to open audio input: %w", err)
	}
	analyzer := audio.NewAnalyzer(dev.SampleRate())
	samples, err := dev.Start()
	if err != nil {
		return fmt.Errorf("failed to start audio input: %w", err)
	}
	defer dev.Stop()
	go analyzer.Listen(samples)

	eng := engine.New(engine.Config{
		Backend:    backend,
		Textures:   textures,
		Transpiler: translator.New(backend, textures, gen),
		Defaults:   defaults,
		Audio:      analyzer,
		Width:      width,
		Height:     height,
		Seed:       time.Now().UnixNano(),
		Activate:   compileCtx.MakeCurrent,
		Deactivate: compileCtx.DetachCurrent,
	})
	defer eng.Close()

	r, err := renderer.NewRenderer(backend, eng, textures, defaults, width, height)
	if err != nil {
		return err
	}
	defer r.Destroy()

	a, err := loadPipeline(*opts.PresetA)
	if err != nil {
		return err
	}
	defer a.Release()
	b, err := loadPipeline(*opts.PresetB)
	if err != nil {
		return err
	}
	defer b.Release()

	eng.LoadPresetShadersAsync(a)
	eng.WaitCompile()
	eng.LoadPresetShadersAsync(b)

	pl := &player{
		engine:         eng,
		renderer:       r,
		analyzer:       analyzer,
		a:              a,
		b:              b,
		fps:            *opts.FPS,
		presetDuration: *opts.PresetDuration,
		transition:     *opts.Transition,
	}

	if record {
		return recordFrames(pl, r, opts)
	}

	start := win.Time()
	win.RegisterKeyCallback(glfw.KeyN, func() { pl.beginTransition(win.Time() - start) })
	for !win.ShouldClose() {
		fbWidth, fbHeight := win.GetFramebufferSize()
		if err := r.Resize(fbWidth, fbHeight); err != nil {
			return err
		}
		pl.renderAt(win.Time() - start)
		r.Present(fbWidth, fbHeight)
		win.EndFrame()
	}
	return nil
}

func recordFrames(pl *player, r *renderer.Renderer, opts *options.Options) error {
	fps := *opts.FPS
	rec := renderer.NewRecorder(renderer.RecordOptions{
		Output:     *opts.OutputFile,
		Width:      *opts.Width,
		Height:     *opts.Height,
		FPS:        fps,
		Codec:      *opts.Codec,
		FFmpegPath: *opts.FFmpegPath,
	})

	var pts int64
	write := func(px []byte) {
		rec.Write(&renderer.Frame{Pixels: px, PTS: pts})
		pts++
	}

	total := int(*opts.Duration * float64(fps))
	var readErr error
	for i := 0; i < total && readErr == nil; i++ {
		pl.renderAt(float64(i) / float64(fps))
		var px []byte
		px, readErr = r.Offscreen().ReadPixelsAsync()
		if px != nil {
			write(px)
		}
	}
	if readErr == nil {
		var rest [][]byte
		rest, readErr = r.Offscreen().Flush()
		for _, px := range rest {
			write(px)
		}
	}

	err := rec.Close()
	if readErr != nil {
		return fmt.Errorf("failed to read back frame %d: %w", pts, readErr)
	}
	if err == nil {
		logging.Logger().Info("recording finished", "output", *opts.OutputFile, "frames", pts)
	}
	return err
}

func main() {
	opts := &options.Options{
		PresetA:        flag.String("preset-a", "", "First preset (.milk)"),
		PresetB:        flag.String("preset-b", "", "Preset to transition to (.milk)"),
		TexturePaths:   flag.String("textures", "", "Texture search paths"),
		Width:          flag.Int("width", 1280, "Width of the output"),
		Height:         flag.Int("height", 720, "Height of the output"),
		FPS:            flag.Int("fps", 60, "Frames per second"),
		PresetDuration: flag.Float64("preset-duration", 10, "Seconds preset A is shown before the transition"),
		Transition:     flag.Float64("transition", 5, "Transition length in seconds"),
		LogLevel:       flag.String("loglevel", "info", "Log level: debug, info, warn, error"),
		Help:           flag.Bool("help", false, "Show help message"),

		AudioInputFile:   flag.String("audio-file", "", "Audio file decoded with ffmpeg"),
		AudioInputDevice: flag.String("audio-device", "", "FFmpeg audio capture device"),
		Microphone:       flag.Bool("mic", false, "Capture the default microphone"),
		FFmpegPath:       flag.String("ffmpeg", "", "Path to ffmpeg executable"),

		Record:     flag.Bool("record", false, "Render offscreen to a video file"),
		Duration:   flag.Float64("duration", 20, "Duration to record in seconds"),
		OutputFile: flag.String("output", "output.mp4", "Output file name for recording"),
		Codec:      flag.String("codec", "h264", "Video codec: h264 or hevc"),
	}
	flag.Parse()

	if *opts.Help {
		fmt.Println("Milkdrop preset viewer/recorder")
		flag.PrintDefaults()
		return
	}

	level, err := parseLevel(*opts.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -loglevel %q\n", *opts.LogLevel)
		os.Exit(2)
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(opts); err != nil {
		logging.Logger().Error("gomilkdrop failed", "err", err)
		os.Exit(1)
	}
}

package renderer

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/richinsley/gomilkdrop/logging"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Frame is one RGBA frame read back from the offscreen target, bottom row
// first.
type Frame struct {
	Pixels []byte
	PTS    int64
}

// RecordOptions configures the ffmpeg encoder.
type RecordOptions struct {
	Output     string
	Width      int
	Height     int
	FPS        int
	Codec      string // "h264" or "hevc"
	FFmpegPath string
}

// Recorder pipes raw frames into an ffmpeg process.
type Recorder struct {
	frames chan *Frame
	done   chan error
}

func encoderArgs(opts RecordOptions) (inputArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"format":    "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"framerate": opts.FPS,
	}
	outputArgs = ffmpeg.KwArgs{
		// GL rows come bottom first
		"vf":      "vflip",
		"pix_fmt": "yuv420p",
		"b:v":     "25M",
	}

	switch runtime.GOOS {
	case "darwin":
		if opts.Codec == "hevc" {
			outputArgs["c:v"] = "hevc_videotoolbox"
		} else {
			outputArgs["c:v"] = "h264_videotoolbox"
		}
	default:
		if opts.Codec == "hevc" {
			outputArgs["c:v"] = "libx265"
		} else {
			outputArgs["c:v"] = "libx264"
		}
	}
	if opts.Codec == "hevc" && strings.HasSuffix(opts.Output, ".mp4") {
		outputArgs["tag:v"] = "hvc1"
	}
	return inputArgs, outputArgs
}

// NewRecorder starts ffmpeg and the goroutine feeding it.
func NewRecorder(opts RecordOptions) *Recorder {
	r := &Recorder{
		frames: make(chan *Frame, numPBOs),
		done:   make(chan error, 1),
	}

	pipeReader, pipeWriter := io.Pipe()
	inputArgs, outputArgs := encoderArgs(opts)
	cmd := ffmpeg.Input("pipe:", inputArgs).
		Output(opts.Output, outputArgs).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()
	if opts.FFmpegPath != "" {
		cmd = cmd.SetFfmpegPath(opts.FFmpegPath)
	}

	errc := make(chan error, 1)
	go func() {
		err := cmd.Run()
		pipeReader.CloseWithError(io.ErrClosedPipe)
		errc <- err
	}()

	go func() {
		var werr error
		for frame := range r.frames {
			if werr != nil {
				continue
			}
			if _, werr = pipeWriter.Write(frame.Pixels); werr != nil {
				logging.Logger().Error("failed to write frame to ffmpeg", "pts", frame.PTS, "err", werr)
			}
		}
		pipeWriter.Close()
		if err := <-errc; err != nil {
			r.done <- fmt.Errorf("ffmpeg failed: %w", err)
			return
		}
		r.done <- werr
	}()

	logging.Logger().Info("recording", "output", opts.Output, "codec", outputArgs["c:v"])
	return r
}

// Write queues a frame, blocking while the encoder is behind.
func (r *Recorder) Write(f *Frame) {
	r.frames <- f
}

// Close flushes the queued frames and waits for ffmpeg to exit.
func (r *Recorder) Close() error {
	close(r.frames)
	return <-r.done
}

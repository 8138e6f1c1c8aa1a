package audio

import (
	"bufio"
	"errors"
	"io"
	"runtime"
	"strconv"
	"sync"

	"github.com/richinsley/gomilkdrop/logging"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// chunkFrames is the number of stereo frames delivered per chunk.
const chunkFrames = 1024

// FFmpegInput decodes a file or a live capture device with an ffmpeg
// process and delivers mono chunks.
type FFmpegInput struct {
	input      string
	inputArgs  ffmpeg.KwArgs
	ffmpegPath string
	sampleRate int

	mu     sync.Mutex
	reader *io.PipeReader
	writer *io.PipeWriter
	done   chan struct{}
}

// NewFFmpegFileInput reads path. With realtime set the file is paced at
// playback speed instead of decoded as fast as possible.
func NewFFmpegFileInput(path string, realtime bool, ffmpegPath string) *FFmpegInput {
	args := ffmpeg.KwArgs{}
	if realtime {
		args["re"] = ""
	}
	return &FFmpegInput{input: path, inputArgs: args, ffmpegPath: ffmpegPath, sampleRate: 44100}
}

// NewFFmpegDeviceInput captures from a platform audio device, for example
// "default" with pulse or ":0" with avfoundation.
func NewFFmpegDeviceInput(device string, ffmpegPath string) *FFmpegInput {
	args := ffmpeg.KwArgs{"fflags": "nobuffer"}
	switch runtime.GOOS {
	case "darwin":
		args["f"] = "avfoundation"
	case "linux":
		args["f"] = "pulse"
	case "windows":
		args["f"] = "dshow"
	}
	return &FFmpegInput{input: device, inputArgs: args, ffmpegPath: ffmpegPath, sampleRate: 44100}
}

func (d *FFmpegInput) Start() (<-chan []float32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done != nil {
		return nil, errors.New("ffmpeg input already started")
	}

	pipeReader, pipeWriter := io.Pipe()
	d.reader, d.writer = pipeReader, pipeWriter
	d.done = make(chan struct{})

	cmd := ffmpeg.Input(d.input, d.inputArgs).
		Output("pipe:", ffmpeg.KwArgs{
			"f":   "f32le",
			"c:a": "pcm_f32le",
			"ac":  "2",
			"ar":  strconv.Itoa(d.sampleRate),
		}).
		WithOutput(pipeWriter).
		ErrorToStdOut()
	if d.ffmpegPath != "" {
		cmd = cmd.SetFfmpegPath(d.ffmpegPath)
	}

	logging.Logger().Info("starting ffmpeg audio input", "input", d.input)
	go func() {
		if err := cmd.Run(); err != nil {
			logging.Logger().Warn("ffmpeg audio input finished with error", "input", d.input, "err", err)
		}
		pipeWriter.Close()
	}()

	out := make(chan []float32, 16)
	go d.readLoop(bufio.NewReaderSize(pipeReader, chunkFrames*8), out)
	return out, nil
}

func (d *FFmpegInput) readLoop(r io.Reader, out chan<- []float32) {
	defer close(out)
	defer close(d.done)

	buf := make([]byte, chunkFrames*2*4)
	for {
		n, err := io.ReadFull(r, buf)
		if n >= 8 {
			stereo := BytesToFloat32(buf[:n-n%8])
			select {
			case out <- DownmixStereoToMono(stereo):
			default:
				logging.Logger().Debug("audio channel full, dropping chunk")
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.ErrClosedPipe) {
				logging.Logger().Warn("ffmpeg audio read failed", "err", err)
			}
			return
		}
	}
}

// Stop closes the pipe, which ends the ffmpeg process on its next write.
func (d *FFmpegInput) Stop() error {
	d.mu.Lock()
	done := d.done
	reader := d.reader
	d.mu.Unlock()
	if done == nil {
		return nil
	}
	reader.Close()
	<-done
	return nil
}

func (d *FFmpegInput) SampleRate() int { return d.sampleRate }

// Options select the audio source for NewDevice.
type Options struct {
	File       string
	Device     string
	Microphone bool
	Realtime   bool
	FFmpegPath string
	SampleRate int
}

// NewDevice returns the device opts asks for: a file, an ffmpeg capture
// device, the portaudio microphone, or silence.
func NewDevice(opts Options) (AudioDevice, error) {
	rate := opts.SampleRate
	if rate <= 0 {
		rate = 44100
	}
	switch {
	case opts.File != "":
		return NewFFmpegFileInput(opts.File, opts.Realtime, opts.FFmpegPath), nil
	case opts.Device != "":
		return NewFFmpegDeviceInput(opts.Device, opts.FFmpegPath), nil
	case opts.Microphone:
		mic, err := NewMicrophone(rate)
		if err != nil {
			return nil, err
		}
		return mic, nil
	}
	return NewNullDevice(rate), nil
}

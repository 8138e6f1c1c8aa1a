package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/richinsley/gomilkdrop/logging"
)

// Microphone captures the default input device through portaudio.
type Microphone struct {
	sampleRate  int
	stream      *portaudio.Stream
	audioChan   chan []float32
	isStreaming bool
}

func NewMicrophone(sampleRate int) (*Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	return &Microphone{sampleRate: sampleRate}, nil
}

// audioCallback runs on the portaudio thread, which reuses in.
func (m *Microphone) audioCallback(in []float32) {
	chunk := make([]float32, len(in))
	copy(chunk, in)

	select {
	case m.audioChan <- chunk:
	default:
		logging.Logger().Debug("audio channel full, dropping chunk", "samples", len(chunk))
	}
}

func (m *Microphone) Start() (<-chan []float32, error) {
	m.audioChan = make(chan []float32, 16)

	host, err := portaudio.DefaultHostApi()
	if err != nil {
		close(m.audioChan)
		return nil, err
	}

	params := portaudio.HighLatencyParameters(host.DefaultInputDevice, nil)
	params.Input.Channels = 1
	params.SampleRate = float64(m.sampleRate)

	stream, err := portaudio.OpenStream(params, m.audioCallback)
	if err != nil {
		close(m.audioChan)
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		close(m.audioChan)
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}
	m.stream = stream
	m.isStreaming = true
	logging.Logger().Info("microphone capture started", "device", host.DefaultInputDevice.Name, "rate", m.sampleRate)
	return m.audioChan, nil
}

func (m *Microphone) Stop() error {
	if !m.isStreaming {
		return nil
	}
	m.isStreaming = false
	if err := m.stream.Close(); err != nil {
		portaudio.Terminate()
		return err
	}
	close(m.audioChan)
	return portaudio.Terminate()
}

func (m *Microphone) SampleRate() int { return m.sampleRate }

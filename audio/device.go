package audio

// Capturing from a microphone needs the portaudio library.
// macos:	brew install portaudio
// debian:	sudo apt-get install portaudio19-dev
// windows:	pacman -S mingw-w64-x86_64-portaudio

// AudioDevice produces mono sample chunks.
type AudioDevice interface {
	// Start begins capture and returns the channel chunks arrive on. The
	// channel is closed when the device stops.
	Start() (<-chan []float32, error)
	Stop() error
	SampleRate() int
}

// NullDevice is a silent device.
type NullDevice struct {
	rate int
}

func NewNullDevice(sampleRate int) *NullDevice {
	return &NullDevice{rate: sampleRate}
}

// Start returns an already closed channel.
func (d *NullDevice) Start() (<-chan []float32, error) {
	ch := make(chan []float32)
	close(ch)
	return ch, nil
}

func (d *NullDevice) Stop() error { return nil }

func (d *NullDevice) SampleRate() int { return d.rate }

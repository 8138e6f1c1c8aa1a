package audio

import (
	"math"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"github.com/richinsley/gomilkdrop/logging"
)

const (
	fftSize           = 1024
	historyBufferSize = fftSize * 4
)

// Band edges in Hz.
const (
	bassCutoff = 250
	midCutoff  = 2000
	trebCutoff = 8000
)

// Levels are the audio features of one frame, as percentages of their
// running average: 100 is average loudness for the track so far. The Att
// variants follow the immediate values with a fast attack and a slower
// release.
type Levels struct {
	Bass, Mid, Treb, Vol             float32
	BassAtt, MidAtt, TrebAtt, VolAtt float32
}

// Analyzer turns a sample stream into per-frame Levels.
type Analyzer struct {
	sampleRate int
	window     []float64

	mu            sync.Mutex
	historyBuffer []float32
	bufferPos     int

	frames  int
	longAvg [3]float64
	att     [4]float64
	levels  Levels
}

func NewAnalyzer(sampleRate int) *Analyzer {
	return &Analyzer{
		sampleRate:    sampleRate,
		window:        blackmanWindow(fftSize),
		historyBuffer: make([]float32, historyBufferSize),
	}
}

// Listen consumes device chunks until the channel closes. Run it on its
// own goroutine.
func (a *Analyzer) Listen(ch <-chan []float32) {
	for samples := range ch {
		a.Write(samples)
	}
	logging.Logger().Debug("audio channel closed, analyzer listener exiting")
}

// Write appends samples to the history.
func (a *Analyzer) Write(samples []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range samples {
		a.historyBuffer[a.bufferPos] = s
		a.bufferPos = (a.bufferPos + 1) % historyBufferSize
	}
}

func (a *Analyzer) recentSamples(n int) []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		index := (a.bufferPos - n + i + historyBufferSize) % historyBufferSize
		out[i] = float64(a.historyBuffer[index])
	}
	return out
}

// bandEnergies sums the squared magnitudes of the bass, mid and treble
// bins of the latest window.
func (a *Analyzer) bandEnergies() [3]float64 {
	samples := a.recentSamples(fftSize)
	for i := range samples {
		samples[i] *= a.window[i]
	}
	spectrum := fft.FFTReal(samples)

	var e [3]float64
	binHz := float64(a.sampleRate) / fftSize
	for i := 1; i < fftSize/2; i++ {
		hz := float64(i) * binHz
		re, im := real(spectrum[i]), imag(spectrum[i])
		power := re*re + im*im
		switch {
		case hz < bassCutoff:
			e[0] += power
		case hz < midCutoff:
			e[1] += power
		case hz < trebCutoff:
			e[2] += power
		}
	}
	return e
}

// Update analyses the latest window. Call it once per frame.
func (a *Analyzer) Update() Levels {
	imm := a.bandEnergies()

	a.mu.Lock()
	defer a.mu.Unlock()

	// adapt quickly while the average is still forming
	rate := 0.992
	if a.frames < 50 {
		rate = 0.9
	}
	var rel [4]float64
	for b := 0; b < 3; b++ {
		if a.frames == 0 {
			a.longAvg[b] = imm[b]
		} else {
			a.longAvg[b] = a.longAvg[b]*rate + imm[b]*(1-rate)
		}
		if a.longAvg[b] > 1e-12 {
			rel[b] = imm[b] / a.longAvg[b]
		}
	}
	rel[3] = (rel[0] + rel[1] + rel[2]) / 3

	for b := range rel {
		r := 0.5
		if rel[b] > a.att[b] {
			r = 0.2
		}
		if a.frames == 0 {
			a.att[b] = rel[b]
		} else {
			a.att[b] = a.att[b]*r + rel[b]*(1-r)
		}
	}
	a.frames++

	a.levels = Levels{
		Bass: float32(rel[0] * 100), Mid: float32(rel[1] * 100), Treb: float32(rel[2] * 100), Vol: float32(rel[3] * 100),
		BassAtt: float32(a.att[0] * 100), MidAtt: float32(a.att[1] * 100), TrebAtt: float32(a.att[2] * 100), VolAtt: float32(a.att[3] * 100),
	}
	return a.levels
}

// Levels returns the result of the last Update.
func (a *Analyzer) Levels() Levels {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.levels
}

func blackmanWindow(size int) []float64 {
	window := make([]float64, size)
	a0, a1, a2 := 0.42, 0.5, 0.08
	invSize := 1.0 / float64(size-1)
	for i := range window {
		t := float64(i) * invSize
		window[i] = a0 - a1*math.Cos(2*math.Pi*t) + a2*math.Cos(4*math.Pi*t)
	}
	return window
}

package options

// Options are the viewer's command-line settings. Fields are pointers so
// they can be bound directly to flag.
type Options struct {
	PresetA        *string
	PresetB        *string
	TexturePaths   *string // list separated by the OS path list separator
	Width          *int
	Height         *int
	FPS            *int
	PresetDuration *float64 // seconds preset A is shown before the transition
	Transition     *float64 // cross-fade length in seconds
	LogLevel       *string
	Help           *bool

	// Audio
	AudioInputFile   *string // file decoded through ffmpeg
	AudioInputDevice *string // ffmpeg capture device, e.g. "avfoundation::0"
	Microphone       *bool   // portaudio default input
	FFmpegPath       *string

	// Recording
	Record     *bool
	Duration   *float64
	OutputFile *string
	Codec      *string
}

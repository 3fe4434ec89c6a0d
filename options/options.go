package options

// FilterOptions collects every command-line switch the tool accepts.
// Pointer fields come straight from flag registration; a nil-valued
// filter flag was simply not given.
type FilterOptions struct {
	InputFile  *string
	OutputFile *string
	Width      *int
	Height     *int
	FPS        *int
	Codec      *string
	Bitrate    *string
	FFmpegPath *string

	// Filter parameters
	Brightness *float64
	Contrast   *float64
	Saturation *float64
	Hue        *float64
	Blur       *float64
	Sharpen    *float64
	Sepia      *float64
	Vignette   *float64
	Grain      *float64
	CrossProc  *float64

	Software  *bool // force the CPU path even when a GPU is available
	Offscreen *bool // prefer a windowless EGL surface over a hidden window
	Probe     *bool // report GPU and encoder availability, then exit
	Help      *bool
}

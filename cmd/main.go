package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/transform"

	"github.com/clipforge/framefx/cpufilter"
	"github.com/clipforge/framefx/effects"
	"github.com/clipforge/framefx/encoder"
	"github.com/clipforge/framefx/options"
	"github.com/clipforge/framefx/processor"
	"github.com/clipforge/framefx/surface"
	"github.com/clipforge/framefx/worker"
)

func parseFlags() *options.FilterOptions {
	opts := &options.FilterOptions{
		InputFile:  flag.String("input", "", "Input image or video file"),
		OutputFile: flag.String("output", "", "Output file (png, jpg, or video container)"),
		Width:      flag.Int("width", 0, "Output width (0 keeps the source width)"),
		Height:     flag.Int("height", 0, "Output height (0 keeps the source height)"),
		FPS:        flag.Int("fps", 30, "Frame rate for video output"),
		Codec:      flag.String("codec", "h264", "Video codec: h264 or hevc"),
		Bitrate:    flag.String("bitrate", "", "Video bitrate, e.g. 25M"),
		FFmpegPath: flag.String("ffmpeg", "", "Path to ffmpeg executable"),

		Brightness: flag.Float64("brightness", 0, "Brightness shift, -1 to 1"),
		Contrast:   flag.Float64("contrast", 1, "Contrast factor, 1 is neutral"),
		Saturation: flag.Float64("saturation", 1, "Saturation factor, 1 is neutral"),
		Hue:        flag.Float64("hue", 0, "Hue rotation in degrees"),
		Blur:       flag.Float64("blur", 0, "Gaussian blur radius in pixels"),
		Sharpen:    flag.Float64("sharpen", 0, "Sharpen amount"),
		Sepia:      flag.Float64("sepia", 0, "Sepia amount, 0 to 1"),
		Vignette:   flag.Float64("vignette", 0, "Vignette amount, 0 to 1"),
		Grain:      flag.Float64("grain", 0, "Film grain amount, 0 to 1"),
		CrossProc:  flag.Float64("crossprocess", 0, "Cross-process amount, 0 to 1"),

		Software:  flag.Bool("software", false, "Force the CPU filter path"),
		Offscreen: flag.Bool("offscreen", false, "Prefer a windowless GPU surface"),
		Probe:     flag.Bool("probe", false, "Report GPU and encoder availability, then exit"),
		Help:      flag.Bool("help", false, "Show help message"),
	}
	flag.Parse()
	return opts
}

func filterParams(opts *options.FilterOptions, time float32) *effects.Params {
	f := func(v float64) *float32 {
		f32 := float32(v)
		return &f32
	}
	params := &effects.Params{
		Brightness:   f(*opts.Brightness),
		Contrast:     f(*opts.Contrast),
		Saturation:   f(*opts.Saturation),
		Hue:          f(*opts.Hue),
		BlurRadius:   f(*opts.Blur),
		Sharpen:      f(*opts.Sharpen),
		Sepia:        f(*opts.Sepia),
		CrossProcess: f(*opts.CrossProc),
	}
	if *opts.Vignette != 0 {
		params.Vignette = &effects.VignetteParams{Amount: float32(*opts.Vignette), Radius: 0.75}
	}
	if *opts.Grain != 0 {
		params.FilmGrain = &effects.FilmGrainParams{Amount: float32(*opts.Grain), Time: time}
	}
	return params
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".webm": true, ".avi": true,
}

func isVideo(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// newWorker builds the frame worker, preferring the GPU path and
// falling back to the CPU filters when no context comes up. The
// returned cleanup releases GPU resources on the render thread.
func newWorker(opts *options.FilterOptions, width, height int) (*worker.Worker, func(), error) {
	if !*opts.Software {
		p := processor.New()
		w, err := worker.New(p, func() error {
			if err := surface.InitGraphics(); err != nil {
				return err
			}
			if !p.Initialize(width, height, *opts.Offscreen) {
				surface.TerminateGraphics()
				return fmt.Errorf("no usable rendering context")
			}
			return nil
		})
		if err == nil {
			log.Println("Using GPU filter path.")
			cleanup := func() {
				w.Do(func() error {
					p.Dispose()
					surface.TerminateGraphics()
					return nil
				})
				w.Close()
			}
			return w, cleanup, nil
		}
		log.Printf("GPU path unavailable (%v), falling back to CPU filters.", err)
	} else {
		log.Println("Using CPU filter path.")
	}

	w, err := worker.New(cpufilter.NewProcessor(), nil)
	if err != nil {
		return nil, nil, err
	}
	return w, w.Close, nil
}

func loadImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba, nil
}

func saveImage(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	default:
		return png.Encode(f, img)
	}
}

func processImage(opts *options.FilterOptions) error {
	img, err := loadImage(*opts.InputFile)
	if err != nil {
		return err
	}

	if *opts.Width > 0 || *opts.Height > 0 {
		width, height := *opts.Width, *opts.Height
		if width == 0 {
			width = img.Bounds().Dx() * height / img.Bounds().Dy()
		}
		if height == 0 {
			height = img.Bounds().Dy() * width / img.Bounds().Dx()
		}
		img = transform.Resize(img, width, height, transform.Linear)
	}

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()

	w, cleanup, err := newWorker(opts, width, height)
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := w.Process(img.Pix, width, height, filterParams(opts, 0))
	if err != nil {
		return fmt.Errorf("failed to filter image: %w", err)
	}

	result := &image.RGBA{Pix: out, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	if err := saveImage(*opts.OutputFile, result); err != nil {
		return err
	}
	log.Printf("Wrote %s (%dx%d)", *opts.OutputFile, width, height)
	return nil
}

func processVideo(opts *options.FilterOptions) error {
	width, height := *opts.Width, *opts.Height
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}

	cfg := encoder.Config{
		Width:      width,
		Height:     height,
		FPS:        *opts.FPS,
		Codec:      *opts.Codec,
		Bitrate:    *opts.Bitrate,
		FFmpegPath: *opts.FFmpegPath,
	}

	if available, err := encoder.ProbeEncoders(*opts.FFmpegPath); err == nil {
		if name, err := encoder.SelectEncoder(available, *opts.Codec); err == nil {
			cfg.Encoder = name
		}
	}

	dec, err := encoder.NewDecoder(*opts.InputFile, cfg)
	if err != nil {
		return err
	}
	defer dec.Close()

	enc, err := encoder.NewEncoder(*opts.OutputFile, cfg)
	if err != nil {
		return err
	}

	w, cleanup, err := newWorker(opts, width, height)
	if err != nil {
		return err
	}
	defer cleanup()

	var frames int
	for {
		pixels, err := dec.ReadFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		time := float32(frames) / float32(*opts.FPS)
		out, err := w.Process(pixels, width, height, filterParams(opts, time))
		if err != nil {
			return fmt.Errorf("failed to filter frame %d: %w", frames, err)
		}
		if err := enc.WriteFrame(out); err != nil {
			return err
		}
		frames++
	}

	if err := enc.Close(); err != nil {
		return err
	}
	log.Printf("Wrote %s (%d frames, %dx%d@%d)", *opts.OutputFile, frames, width, height, *opts.FPS)
	return nil
}

func probe(opts *options.FilterOptions) {
	if surface.Supported() {
		fmt.Println("GPU rendering: available")
	} else {
		fmt.Println("GPU rendering: unavailable (CPU filters will be used)")
	}

	available, err := encoder.ProbeEncoders(*opts.FFmpegPath)
	if err != nil {
		fmt.Printf("ffmpeg: %v\n", err)
		return
	}
	for _, codec := range []string{"h264", "hevc"} {
		if name, err := encoder.SelectEncoder(available, codec); err == nil {
			fmt.Printf("%s encoder: %s\n", codec, name)
		} else {
			fmt.Printf("%s encoder: none\n", codec)
		}
	}
}

func main() {
	opts := parseFlags()

	if *opts.Help {
		fmt.Println("framefx: GPU-accelerated image and video filters")
		flag.PrintDefaults()
		return
	}
	if *opts.Probe {
		probe(opts)
		return
	}
	if *opts.InputFile == "" || *opts.OutputFile == "" {
		log.Fatalf("Both -input and -output are required; see -help")
	}

	var err error
	if isVideo(*opts.InputFile) {
		err = processVideo(opts)
	} else {
		err = processImage(opts)
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

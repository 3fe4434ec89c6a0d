// Package encoder moves RGBA frames in and out of video containers
// through an external ffmpeg process. The processor itself never
// touches encoded media; it exchanges raw frame buffers with this
// package over pipes.
package encoder

import (
	"fmt"
	"io"
	"log"
	"runtime"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Config describes the raw frame stream on the Go side of the pipe.
type Config struct {
	Width      int
	Height     int
	FPS        int
	Codec      string // "h264" or "hevc"
	Bitrate    string // ffmpeg b:v syntax, e.g. "25M"; empty for default
	Encoder    string // explicit c:v name; empty selects per platform
	FFmpegPath string // empty uses ffmpeg from PATH
}

func (c Config) frameSize() int { return c.Width * c.Height * 4 }

func (c Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid frame rate %d", c.FPS)
	}
	return nil
}

// encoderCandidates lists c:v names to try in preference order,
// hardware encoders first, always ending in a software fallback.
func encoderCandidates(codec string) []string {
	switch codec {
	case "hevc":
		switch runtime.GOOS {
		case "linux":
			return []string{"hevc_nvenc", "libx265"}
		case "darwin":
			return []string{"hevc_videotoolbox", "libx265"}
		case "windows":
			return []string{"hevc_nvenc", "hevc_amf", "hevc_qsv", "libx265"}
		default:
			return []string{"libx265"}
		}
	default: // h264
		switch runtime.GOOS {
		case "linux":
			return []string{"h264_nvenc", "libx264"}
		case "darwin":
			return []string{"h264_videotoolbox", "libx264"}
		case "windows":
			return []string{"h264_nvenc", "h264_amf", "h264_qsv", "libx264"}
		default:
			return []string{"libx264"}
		}
	}
}

func getArgs(cfg Config, videoEncoder string) (inputArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"framerate": cfg.FPS,
	}

	outputArgs = ffmpeg.KwArgs{
		"c:v":     videoEncoder,
		"pix_fmt": "yuv420p",
	}
	if cfg.Bitrate != "" {
		outputArgs["b:v"] = cfg.Bitrate
	}
	switch videoEncoder {
	case "libx264", "libx265":
		outputArgs["preset"] = "slow"
	case "h264_nvenc", "hevc_nvenc":
		outputArgs["preset"] = "p2"
	}
	return
}

// Encoder pipes raw RGBA frames into an ffmpeg process that writes a
// container file. Frames are consumed in submission order; Close
// finishes the stream and reports the process result.
type Encoder struct {
	cfg        Config
	pipeWriter *io.PipeWriter
	done       chan error
}

func NewEncoder(outputFile string, cfg Config) (*Encoder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if outputFile == "" {
		return nil, fmt.Errorf("no output file given")
	}

	videoEncoder := cfg.Encoder
	if videoEncoder == "" {
		videoEncoder = encoderCandidates(cfg.Codec)[0]
	}

	pipeReader, pipeWriter := io.Pipe()
	inputArgs, outputArgs := getArgs(cfg, videoEncoder)

	ffmpegCmd := ffmpeg.Input("pipe:", inputArgs).
		Output(outputFile, outputArgs).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()
	if cfg.FFmpegPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(cfg.FFmpegPath)
	}

	log.Printf("Encoding %dx%d@%d to %s with %s", cfg.Width, cfg.Height, cfg.FPS, outputFile, videoEncoder)

	e := &Encoder{
		cfg:        cfg,
		pipeWriter: pipeWriter,
		done:       make(chan error, 1),
	}
	go func() {
		err := ffmpegCmd.Run()
		// Unblock a writer stuck on a dead process.
		pipeReader.CloseWithError(err)
		e.done <- err
	}()
	return e, nil
}

// WriteFrame submits one RGBA frame. The buffer must hold exactly
// width*height*4 bytes in top-left row order.
func (e *Encoder) WriteFrame(pixels []byte) error {
	if len(pixels) != e.cfg.frameSize() {
		return fmt.Errorf("frame is %d bytes, want %d for %dx%d", len(pixels), e.cfg.frameSize(), e.cfg.Width, e.cfg.Height)
	}
	if _, err := e.pipeWriter.Write(pixels); err != nil {
		return fmt.Errorf("failed to write frame to ffmpeg: %w", err)
	}
	return nil
}

// Close ends the frame stream and waits for ffmpeg to finish the file.
func (e *Encoder) Close() error {
	e.pipeWriter.Close()
	if err := <-e.done; err != nil {
		return fmt.Errorf("ffmpeg encoder failed: %w", err)
	}
	return nil
}

// Decoder pipes a container file through ffmpeg and yields raw RGBA
// frames at the configured size, scaling if the source differs.
type Decoder struct {
	cfg        Config
	pipeReader *io.PipeReader
	done       chan error
}

func NewDecoder(inputFile string, cfg Config) (*Decoder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	pipeReader, pipeWriter := io.Pipe()
	ffmpegCmd := ffmpeg.Input(inputFile).
		Output("pipe:", ffmpeg.KwArgs{
			"f":       "rawvideo",
			"pix_fmt": "rgba",
			"s":       fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
			"r":       cfg.FPS,
		}).
		WithOutput(pipeWriter).ErrorToStdOut()
	if cfg.FFmpegPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(cfg.FFmpegPath)
	}

	d := &Decoder{
		cfg:        cfg,
		pipeReader: pipeReader,
		done:       make(chan error, 1),
	}
	go func() {
		err := ffmpegCmd.Run()
		pipeWriter.CloseWithError(err)
		d.done <- err
	}()
	return d, nil
}

// ReadFrame returns the next RGBA frame, or io.EOF after the last one.
func (d *Decoder) ReadFrame() ([]byte, error) {
	pixels := make([]byte, d.cfg.frameSize())
	if _, err := io.ReadFull(d.pipeReader, pixels); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read frame from ffmpeg: %w", err)
	}
	return pixels, nil
}

func (d *Decoder) Close() error {
	d.pipeReader.Close()
	<-d.done
	return nil
}

package encoder

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// parseEncoders reads `ffmpeg -encoders` output and returns the set of
// available video encoder names. The listing has a capability column
// before the name; video encoders carry a leading V flag.
func parseEncoders(r io.Reader) map[string]bool {
	available := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	body := false
	for scanner.Scan() {
		line := scanner.Text()
		if !body {
			// The header ends with a dashed separator line.
			if strings.Contains(line, "------") {
				body = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.HasPrefix(fields[0], "V") {
			continue
		}
		available[fields[1]] = true
	}
	return available
}

// ProbeEncoders asks the ffmpeg binary which encoders it was built
// with. ffmpegPath empty means ffmpeg from PATH.
func ProbeEncoders(ffmpegPath string) (map[string]bool, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	out, err := exec.Command(ffmpegPath, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to probe ffmpeg encoders: %w", err)
	}
	return parseEncoders(strings.NewReader(string(out))), nil
}

// SelectEncoder picks the most preferred available encoder for a codec,
// trying platform hardware encoders before the software fallback.
func SelectEncoder(available map[string]bool, codec string) (string, error) {
	for _, name := range encoderCandidates(codec) {
		if available[name] {
			return name, nil
		}
	}
	return "", fmt.Errorf("no usable %s encoder in this ffmpeg build", codec)
}

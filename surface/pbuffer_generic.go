//go:build !linux

package surface

import "fmt"

// NewPbuffer is only available on linux, where EGL provides detached
// off-screen surfaces. Other platforms use a hidden window instead.
func NewPbuffer(width, height int) (Surface, error) {
	return nil, fmt.Errorf("egl pbuffer surfaces are not supported on this platform")
}

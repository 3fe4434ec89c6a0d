// Package surface provides the rendering surfaces the processor draws
// to: a persistent GLFW window surface (hidden or visible) that can
// observe context loss, and an ephemeral EGL pbuffer surface for
// display-less hosts.
package surface

import (
	"log"
	"runtime"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	glfw "github.com/go-gl/glfw/v3.3/glfw"
)

// Surface is a drawable target owning a GL context.
type Surface interface {
	// MakeCurrent binds the surface's context to the calling thread.
	MakeCurrent()
	// Size returns the surface's framebuffer size in pixels.
	Size() (int, int)
	// Destroy releases the surface and its context.
	Destroy()
}

// LossNotifier is implemented by surfaces whose context can be lost and
// restored by the driver. The processor only wires its recovery state
// machine to surfaces that implement it; an ephemeral pbuffer surface
// does not, and a lost pbuffer context is unrecoverable.
type LossNotifier interface {
	SetLossHandlers(onLost, onRestored func())
}

// InitGraphics initializes the windowing subsystem and pins the calling
// goroutine to its OS thread. Surfaces must be created and used from
// that thread afterwards.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return err
	}
	log.Printf("GLFW Initialized")
	return nil
}

// TerminateGraphics shuts down the windowing subsystem. Call it from
// the thread that ran InitGraphics, after every surface is destroyed.
func TerminateGraphics() {
	glfw.Terminate()
	log.Printf("GLFW Terminated")
}

// Supported reports whether a compatible rendering context can be
// acquired at all. It spins up a throwaway 1x1 hidden window, loads the
// GL entry points, and tears everything down again; no pipeline state
// is allocated.
func Supported() bool {
	if err := glfw.Init(); err != nil {
		return false
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.False)

	win, err := glfw.CreateWindow(1, 1, "framefx-probe", nil, nil)
	if err != nil {
		return false
	}
	defer win.Destroy()

	win.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return false
	}
	glfw.DetachCurrentContext()
	return true
}

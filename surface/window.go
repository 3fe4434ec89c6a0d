package surface

import (
	glfw "github.com/go-gl/glfw/v3.3/glfw"
)

// Window is a GLFW-backed surface. It is persistent and on-screen
// capable (visible or hidden), so it participates in the context
// loss/restoration lifecycle.
type Window struct {
	window     *glfw.Window
	onLost     func()
	onRestored func()
}

// NewWindow creates a window surface with its own GL 4.1 core context.
// With visible false the window is hidden, which is the usual mode for
// frame export.
func NewWindow(width, height int, visible bool) (*Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	if visible {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	win, err := glfw.CreateWindow(width, height, "framefx", nil, nil)
	if err != nil {
		return nil, err
	}
	return &Window{window: win}, nil
}

func (w *Window) MakeCurrent() {
	w.window.MakeContextCurrent()
}

func (w *Window) Size() (int, int) {
	return w.window.GetFramebufferSize()
}

func (w *Window) Destroy() {
	w.window.Destroy()
}

// SetLossHandlers registers the callbacks invoked when the driver
// reports a lost or restored context.
func (w *Window) SetLossHandlers(onLost, onRestored func()) {
	w.onLost = onLost
	w.onRestored = onRestored
}

// NotifyLost delivers a driver context-loss event. GLFW has no portable
// loss signal; hosts embedding the pipeline forward their platform's
// notification through here.
func (w *Window) NotifyLost() {
	if w.onLost != nil {
		w.onLost()
	}
}

// NotifyRestored delivers a driver context-restored event.
func (w *Window) NotifyRestored() {
	if w.onRestored != nil {
		w.onRestored()
	}
}

// Window returns the underlying *glfw.Window for hosts that need to
// pump events or share the context.
func (w *Window) Window() *glfw.Window {
	return w.window
}

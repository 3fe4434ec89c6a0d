// Package gfx abstracts the graphics calls the frame processor makes.
// The Backend interface is deliberately narrow: it covers exactly the
// operations the multi-pass renderer needs, so the renderer and the
// context-loss state machine can be exercised against a test double
// without a real GPU context.
package gfx

// Program is a linked GPU program handle.
type Program uint32

// Texture is a GPU texture handle.
type Texture uint32

// Framebuffer is an off-screen render target handle. DefaultFramebuffer
// addresses the surface itself.
type Framebuffer uint32

// DefaultFramebuffer is the visible (or pbuffer) surface.
const DefaultFramebuffer Framebuffer = 0

// Quad holds the full-screen quad geometry: a vertex array plus the two
// static vertex buffers (position and texture coordinate). The buffers
// never change after creation; resize only touches textures.
type Quad struct {
	VAO    uint32
	PosVBO uint32
	UVVBO  uint32
}

// Backend is the set of graphics operations the processor issues. All
// calls must happen on the thread owning the current context.
type Backend interface {
	// Init loads the API entry points. It requires a current context
	// and must be called again after a context restoration.
	Init() error

	CompileProgram(vertexSrc, fragmentSrc string) (Program, error)
	DeleteProgram(p Program)
	UseProgram(p Program)
	// UniformLocation resolves a uniform by its authored name; -1 means
	// the linked program does not declare it.
	UniformLocation(p Program, name string) int32
	Uniform1f(loc int32, v float32)
	Uniform2f(loc int32, x, y float32)
	Uniform3f(loc int32, x, y, z float32)
	Uniform1i(loc int32, v int32)

	CreateTexture(width, height int, pixels []byte) Texture
	UpdateTexture(t Texture, width, height int, pixels []byte)
	DeleteTexture(t Texture)
	// BindTexture binds t to the given texture unit.
	BindTexture(unit int, t Texture)

	CreateFramebuffer(t Texture) (Framebuffer, error)
	DeleteFramebuffer(f Framebuffer)
	BindFramebuffer(f Framebuffer)

	CreateQuad() (Quad, error)
	DeleteQuad(q Quad)
	DrawQuad(q Quad)

	Viewport(width, height int)
	// ReadPixels returns the bound framebuffer's RGBA contents in the
	// backend's native row order, which starts at the bottom-left.
	ReadPixels(width, height int) []byte
}

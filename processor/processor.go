// Package processor implements the GPU multi-pass pixel pipeline: it
// uploads a frame, walks the fixed filter order issuing one draw call
// per active effect through a reusable off-screen framebuffer, resolves
// the last pass to the surface, and reads the result back in top-left
// row order. It also owns the context-loss state machine and the
// per-effect program cache.
package processor

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/clipforge/framefx/effects"
	"github.com/clipforge/framefx/gfx"
	"github.com/clipforge/framefx/shader"
	"github.com/clipforge/framefx/surface"
)

type contextState int32

const (
	stateActive contextState = iota
	stateLost
	stateRestoring
)

// program is one cached compiled effect: the linked handle plus the
// resolved location of every uniform the effect's table declares. A
// location of -1 means the linked program does not declare the uniform;
// such uniforms are silently skipped when binding.
type program struct {
	handle    gfx.Program
	locations map[string]int32
}

// Processor owns a full set of GPU resources: one source texture, one
// framebuffer-backed ping-pong texture, the full-screen quad, and the
// program cache. Nothing is shared across instances. Calls to Process
// must be serialized by the caller; loss/restoration notifications may
// arrive asynchronously.
type Processor struct {
	backend gfx.Backend
	surf    surface.Surface
	ownSurf bool

	quad    gfx.Quad
	srcTex  gfx.Texture
	auxTex  gfx.Texture
	fboTex  gfx.Texture
	fbo     gfx.Framebuffer

	programs map[effects.Effect]*program
	broken   map[effects.Effect]bool
	resolve  *program

	width  int
	height int

	state       atomic.Int32
	initialized bool
}

// New returns an empty processor; Initialize acquires its surface and
// context.
func New() *Processor {
	return newProcessor(nil, nil, true)
}

// NewWith returns a processor bound to an injected backend and surface.
// The caller keeps ownership of the surface.
func NewWith(backend gfx.Backend, surf surface.Surface) *Processor {
	return newProcessor(backend, surf, false)
}

func newProcessor(backend gfx.Backend, surf surface.Surface, ownSurf bool) *Processor {
	p := &Processor{
		backend:  backend,
		surf:     surf,
		ownSurf:  ownSurf,
		programs: make(map[effects.Effect]*program),
		broken:   make(map[effects.Effect]bool),
	}
	p.state.Store(int32(stateActive))
	return p
}

// Initialize acquires a rendering context and creates the pipeline's
// GPU resources at the given frame size. With preferOffscreen true an
// ephemeral pbuffer surface is tried before the hidden-window surface;
// pbuffer contexts receive no loss notifications and are not
// recoverable. Returns false when no compatible context is available,
// in which case callers should fall back to the software path.
func (p *Processor) Initialize(width, height int, preferOffscreen bool) bool {
	if p.initialized {
		return true
	}
	if width <= 0 || height <= 0 {
		return false
	}

	if p.surf == nil {
		surf, err := acquireSurface(width, height, preferOffscreen)
		if err != nil {
			log.Printf("no compatible rendering context: %v", err)
			return false
		}
		p.surf = surf
		p.ownSurf = true
	}
	if p.backend == nil {
		p.backend = gfx.NewGLBackend()
	}

	p.surf.MakeCurrent()
	if err := p.backend.Init(); err != nil {
		log.Printf("graphics backend initialization failed: %v", err)
		return false
	}

	if err := p.createResources(width, height); err != nil {
		log.Printf("failed to create pipeline resources: %v", err)
		return false
	}

	// Loss recovery is only possible on persistent surfaces that can
	// report the events; a detached pbuffer surface never does.
	if ln, ok := p.surf.(surface.LossNotifier); ok {
		ln.SetLossHandlers(p.onContextLost, p.onContextRestored)
	}

	p.state.Store(int32(stateActive))
	p.initialized = true
	return true
}

func acquireSurface(width, height int, preferOffscreen bool) (surface.Surface, error) {
	if preferOffscreen {
		if pb, err := surface.NewPbuffer(width, height); err == nil {
			return pb, nil
		} else {
			log.Printf("pbuffer surface unavailable, using hidden window: %v", err)
		}
	}
	return surface.NewWindow(width, height, false)
}

// createResources builds the quad, the source/aux textures and the
// off-screen framebuffer at the given size. The quad's vertex buffers
// are created once; only textures change on resize.
func (p *Processor) createResources(width, height int) error {
	quad, err := p.backend.CreateQuad()
	if err != nil {
		return fmt.Errorf("failed to create quad geometry: %w", err)
	}
	p.quad = quad

	p.srcTex = p.backend.CreateTexture(width, height, nil)
	p.auxTex = p.backend.CreateTexture(width, height, nil)
	p.fboTex = p.backend.CreateTexture(width, height, nil)

	fbo, err := p.backend.CreateFramebuffer(p.fboTex)
	if err != nil {
		return fmt.Errorf("failed to create offscreen framebuffer: %w", err)
	}
	p.fbo = fbo

	p.width = width
	p.height = height
	return nil
}

// Dispose releases every owned GPU resource and detaches the loss
// handlers. Safe to call multiple times.
func (p *Processor) Dispose() {
	if !p.initialized {
		return
	}
	p.surf.MakeCurrent()
	for _, prog := range p.programs {
		p.backend.DeleteProgram(prog.handle)
	}
	p.programs = make(map[effects.Effect]*program)
	if p.resolve != nil {
		p.backend.DeleteProgram(p.resolve.handle)
		p.resolve = nil
	}
	p.backend.DeleteFramebuffer(p.fbo)
	p.backend.DeleteTexture(p.fboTex)
	p.backend.DeleteTexture(p.auxTex)
	p.backend.DeleteTexture(p.srcTex)
	p.backend.DeleteQuad(p.quad)

	if ln, ok := p.surf.(surface.LossNotifier); ok {
		ln.SetLossHandlers(nil, nil)
	}
	if p.ownSurf {
		p.surf.Destroy()
		p.surf = nil
		p.backend = nil
	}
	p.initialized = false
}

// IsContextLost reports whether the hardware context is currently lost
// or still being restored.
func (p *Processor) IsContextLost() bool {
	return contextState(p.state.Load()) != stateActive
}

// onContextLost handles the driver's loss notification. Every GPU-side
// handle is invalid from this point; they are dropped without delete
// calls and the processor is marked uninitialized. Effects that failed
// to compile stay unavailable for the session.
func (p *Processor) onContextLost() {
	p.state.Store(int32(stateLost))
	p.programs = make(map[effects.Effect]*program)
	p.resolve = nil
	p.quad = gfx.Quad{}
	p.srcTex = 0
	p.auxTex = 0
	p.fboTex = 0
	p.fbo = 0
	p.initialized = false
}

// onContextRestored re-acquires the context from the same surface and
// rebuilds the geometry and framebuffer at the last-known size. The
// program cache refills lazily on first subsequent use of each effect.
func (p *Processor) onContextRestored() {
	p.state.Store(int32(stateRestoring))
	p.surf.MakeCurrent()
	if err := p.backend.Init(); err != nil {
		log.Printf("context restoration failed: %v", err)
		p.state.Store(int32(stateLost))
		return
	}
	if err := p.createResources(p.width, p.height); err != nil {
		log.Printf("context restoration failed: %v", err)
		p.state.Store(int32(stateLost))
		return
	}
	p.initialized = true
	p.state.Store(int32(stateActive))
}

// resize reallocates the render textures for a new frame size. The
// quad's vertex buffers are in normalized device coordinates and never
// change.
func (p *Processor) resize(width, height int) {
	p.backend.UpdateTexture(p.fboTex, width, height, nil)
	p.backend.UpdateTexture(p.auxTex, width, height, nil)
	p.width = width
	p.height = height
}

// effectProgram returns the cached program for an effect, compiling it
// on first use. A compile or link failure marks the effect unavailable
// for the remainder of the session and the pass is skipped from then
// on.
func (p *Processor) effectProgram(e effects.Effect) (*program, bool) {
	if prog, ok := p.programs[e]; ok {
		return prog, true
	}
	if p.broken[e] {
		return nil, false
	}
	prog, err := p.compile(shader.Source(e), effects.UniformNames(e))
	if err != nil {
		log.Printf("effect %s is unavailable: %v", e, err)
		p.broken[e] = true
		return nil, false
	}
	p.programs[e] = prog
	return prog, true
}

// resolveProgram returns the final-pass resolve program, compiling it
// on first use.
func (p *Processor) resolveProgram() (*program, error) {
	if p.resolve != nil {
		return p.resolve, nil
	}
	prog, err := p.compile(shader.ResolveShader(), nil)
	if err != nil {
		return nil, err
	}
	p.resolve = prog
	return prog, nil
}

func (p *Processor) compile(fragmentSrc string, uniforms []string) (*program, error) {
	handle, err := p.backend.CompileProgram(shader.VertexShader(false), fragmentSrc)
	if err != nil {
		return nil, err
	}
	locations := make(map[string]int32, len(uniforms)+3)
	for _, name := range uniforms {
		locations[name] = p.backend.UniformLocation(handle, name)
	}
	locations["u_texture"] = p.backend.UniformLocation(handle, "u_texture")
	locations["u_texture2"] = p.backend.UniformLocation(handle, "u_texture2")
	return &program{handle: handle, locations: locations}, nil
}

func (p *Processor) bindUniform(prog *program, name string, values []float32) {
	loc, ok := prog.locations[name]
	if !ok || loc == -1 {
		return
	}
	switch len(values) {
	case 1:
		p.backend.Uniform1f(loc, values[0])
	case 2:
		p.backend.Uniform2f(loc, values[0], values[1])
	case 3:
		p.backend.Uniform3f(loc, values[0], values[1], values[2])
	}
}

func (p *Processor) bindSampler(prog *program, name string, unit int) {
	if loc, ok := prog.locations[name]; ok && loc != -1 {
		p.backend.Uniform1i(loc, int32(unit))
	}
}

// texelFor injects the sampling step the neighborhood effects need:
// blur steps along one axis, sharpen along both.
func (p *Processor) texelFor(prog *program, e effects.Effect, width, height int) {
	switch e {
	case effects.BlurHorizontal:
		p.bindUniform(prog, "u_texel", []float32{1 / float32(width), 0})
	case effects.BlurVertical:
		p.bindUniform(prog, "u_texel", []float32{0, 1 / float32(height)})
	case effects.Sharpen:
		p.bindUniform(prog, "u_texel", []float32{1 / float32(width), 1 / float32(height)})
	}
}

// Process applies the filter chain to one frame. The input is RGBA,
// top-left origin; the output matches. While uninitialized or lost the
// input is returned unchanged so a pipeline built on top keeps running.
// The one hard error is a dimension mismatch on the readback path.
func (p *Processor) Process(pixels []byte, width, height int, params *effects.Params) ([]byte, error) {
	if !p.initialized || p.IsContextLost() {
		return pixels, nil
	}
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return nil, fmt.Errorf("invalid frame dimensions: %dx%d with %d bytes", width, height, len(pixels))
	}

	p.surf.MakeCurrent()
	if width != p.width || height != p.height {
		p.resize(width, height)
	}
	p.backend.UpdateTexture(p.srcTex, width, height, pixels)
	p.backend.Viewport(width, height)

	// Ping-pong: the first active pass reads the uploaded frame into
	// the framebuffer; every later pass rebinds the framebuffer texture
	// as its read source and targets the framebuffer again. The resolve
	// below always targets the surface.
	readTex := p.srcTex
	for _, pass := range effects.Chain(params) {
		prog, ok := p.effectProgram(pass.Effect)
		if !ok {
			continue
		}
		p.backend.BindFramebuffer(p.fbo)
		p.backend.UseProgram(prog.handle)
		p.backend.BindTexture(0, readTex)
		p.bindSampler(prog, "u_texture", 0)
		for _, u := range pass.Uniforms {
			p.bindUniform(prog, u.Name, u.Values)
		}
		p.texelFor(prog, pass.Effect, width, height)
		p.backend.DrawQuad(p.quad)
		readTex = p.fboTex
	}

	out, err := p.resolveAndRead(readTex, width, height)
	if err != nil {
		return nil, err
	}
	// A loss notification that raced this call leaves the readback
	// contents undefined; degrade to the unmodified frame.
	if p.IsContextLost() {
		return pixels, nil
	}
	return out, nil
}

// resolveAndRead runs the mandatory final pass to the visible surface
// and reads the result back, reversing row order: the backend returns
// rows starting at the bottom-left, the caller's convention is
// top-left.
func (p *Processor) resolveAndRead(readTex gfx.Texture, width, height int) ([]byte, error) {
	prog, err := p.resolveProgram()
	if err != nil {
		return nil, fmt.Errorf("resolve pass unavailable: %w", err)
	}
	p.backend.BindFramebuffer(gfx.DefaultFramebuffer)
	p.backend.UseProgram(prog.handle)
	p.backend.BindTexture(0, readTex)
	p.bindSampler(prog, "u_texture", 0)
	p.backend.DrawQuad(p.quad)

	raw := p.backend.ReadPixels(width, height)
	return flipRows(raw, width, height), nil
}

// Transition blends two frames with a transition program at progress in
// [0,1] and returns the composite. Guards mirror Process.
func (p *Processor) Transition(a, b []byte, width, height int, kind effects.Effect, progress float32) ([]byte, error) {
	if !p.initialized || p.IsContextLost() {
		return a, nil
	}
	if width <= 0 || height <= 0 || len(a) != width*height*4 || len(b) != len(a) {
		return nil, fmt.Errorf("invalid frame dimensions: %dx%d with %d and %d bytes", width, height, len(a), len(b))
	}

	p.surf.MakeCurrent()
	if width != p.width || height != p.height {
		p.resize(width, height)
	}
	p.backend.UpdateTexture(p.srcTex, width, height, a)
	p.backend.UpdateTexture(p.auxTex, width, height, b)
	p.backend.Viewport(width, height)

	readTex := p.srcTex
	if prog, ok := p.effectProgram(kind); ok {
		p.backend.BindFramebuffer(p.fbo)
		p.backend.UseProgram(prog.handle)
		p.backend.BindTexture(0, p.srcTex)
		p.backend.BindTexture(1, p.auxTex)
		p.bindSampler(prog, "u_texture", 0)
		p.bindSampler(prog, "u_texture2", 1)
		p.bindUniform(prog, "u_progress", []float32{progress})
		p.backend.DrawQuad(p.quad)
		readTex = p.fboTex
	}

	out, err := p.resolveAndRead(readTex, width, height)
	if err != nil {
		return nil, err
	}
	if p.IsContextLost() {
		return a, nil
	}
	return out, nil
}

// flipRows reverses the row order of an RGBA buffer.
func flipRows(src []byte, width, height int) []byte {
	dst := make([]byte, len(src))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		srcRow := src[(height-1-y)*rowSize:]
		copy(dst[y*rowSize:(y+1)*rowSize], srcRow[:rowSize])
	}
	return dst
}

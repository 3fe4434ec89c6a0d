package processor

import (
	"fmt"
	"strings"

	"github.com/clipforge/framefx/cpufilter"
	"github.com/clipforge/framefx/effects"
	"github.com/clipforge/framefx/gfx"
	"github.com/clipforge/framefx/shader"
)

// fakeSurface stands in for a persistent window surface. It implements
// LossNotifier so tests can drive the loss/restoration state machine.
type fakeSurface struct {
	width      int
	height     int
	onLost     func()
	onRestored func()
}

func (s *fakeSurface) MakeCurrent()     {}
func (s *fakeSurface) Size() (int, int) { return s.width, s.height }
func (s *fakeSurface) Destroy()         {}

func (s *fakeSurface) SetLossHandlers(onLost, onRestored func()) {
	s.onLost = onLost
	s.onRestored = onRestored
}

func (s *fakeSurface) fireLost() {
	if s.onLost != nil {
		s.onLost()
	}
}

func (s *fakeSurface) fireRestored() {
	if s.onRestored != nil {
		s.onRestored()
	}
}

// detachedSurface has no loss notifications, like an EGL pbuffer.
type detachedSurface struct {
	width, height int
}

func (s *detachedSurface) MakeCurrent()     {}
func (s *detachedSurface) Size() (int, int) { return s.width, s.height }
func (s *detachedSurface) Destroy()         {}

type fakeTexture struct {
	width  int
	height int
	pix    []byte // texel row order: row 0 is v=0 (the backend's bottom)
}

type fakeProgram struct {
	fragmentSrc string
	locations   map[string]int32
	values      map[int32][]float32
	nextLoc     int32
}

// fakeBackend emulates the GL pipeline on the CPU. Draw calls evaluate
// the bound program's effect with the cpufilter math; ReadPixels hands
// back the bound target's texel rows as-is, which is the backend's
// bottom-up order. It counts shader compiles so cache behavior is
// observable.
type fakeBackend struct {
	compileCount int
	failContains string // CompileProgram fails for sources containing this

	nextHandle uint32
	textures   map[gfx.Texture]*fakeTexture
	programs   map[gfx.Program]*fakeProgram
	fbos       map[gfx.Framebuffer]gfx.Texture

	current   gfx.Program
	boundFBO  gfx.Framebuffer
	boundTex  [2]gfx.Texture
	viewportW int
	viewportH int
	surface   *fakeTexture
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextHandle: 1,
		textures:   make(map[gfx.Texture]*fakeTexture),
		programs:   make(map[gfx.Program]*fakeProgram),
		fbos:       make(map[gfx.Framebuffer]gfx.Texture),
		surface:    &fakeTexture{},
	}
}

func (b *fakeBackend) handle() uint32 {
	h := b.nextHandle
	b.nextHandle++
	return h
}

func (b *fakeBackend) Init() error { return nil }

func (b *fakeBackend) CompileProgram(vertexSrc, fragmentSrc string) (gfx.Program, error) {
	if b.failContains != "" && strings.Contains(fragmentSrc, b.failContains) {
		return 0, fmt.Errorf("failed to compile shader: synthetic error")
	}
	b.compileCount++
	p := gfx.Program(b.handle())
	b.programs[p] = &fakeProgram{
		fragmentSrc: fragmentSrc,
		locations:   make(map[string]int32),
		values:      make(map[int32][]float32),
	}
	return p, nil
}

func (b *fakeBackend) DeleteProgram(p gfx.Program) { delete(b.programs, p) }
func (b *fakeBackend) UseProgram(p gfx.Program)    { b.current = p }

func (b *fakeBackend) UniformLocation(p gfx.Program, name string) int32 {
	prog, ok := b.programs[p]
	if !ok {
		return -1
	}
	// Only uniforms the source actually declares get a location.
	if !strings.Contains(prog.fragmentSrc, " "+name+";") {
		return -1
	}
	if loc, ok := prog.locations[name]; ok {
		return loc
	}
	loc := prog.nextLoc
	prog.nextLoc++
	prog.locations[name] = loc
	return loc
}

func (b *fakeBackend) setUniform(loc int32, values ...float32) {
	if prog, ok := b.programs[b.current]; ok {
		prog.values[loc] = values
	}
}

func (b *fakeBackend) Uniform1f(loc int32, v float32)       { b.setUniform(loc, v) }
func (b *fakeBackend) Uniform2f(loc int32, x, y float32)    { b.setUniform(loc, x, y) }
func (b *fakeBackend) Uniform3f(loc int32, x, y, z float32) { b.setUniform(loc, x, y, z) }
func (b *fakeBackend) Uniform1i(loc int32, v int32)         { b.setUniform(loc, float32(v)) }

func (b *fakeBackend) CreateTexture(width, height int, pixels []byte) gfx.Texture {
	t := gfx.Texture(b.handle())
	tex := &fakeTexture{width: width, height: height, pix: make([]byte, width*height*4)}
	copy(tex.pix, pixels)
	b.textures[t] = tex
	return t
}

func (b *fakeBackend) UpdateTexture(t gfx.Texture, width, height int, pixels []byte) {
	tex := b.textures[t]
	tex.width = width
	tex.height = height
	tex.pix = make([]byte, width*height*4)
	copy(tex.pix, pixels)
}

func (b *fakeBackend) DeleteTexture(t gfx.Texture) { delete(b.textures, t) }

func (b *fakeBackend) BindTexture(unit int, t gfx.Texture) {
	if unit >= 0 && unit < len(b.boundTex) {
		b.boundTex[unit] = t
	}
}

func (b *fakeBackend) CreateFramebuffer(t gfx.Texture) (gfx.Framebuffer, error) {
	f := gfx.Framebuffer(b.handle())
	b.fbos[f] = t
	return f, nil
}

func (b *fakeBackend) DeleteFramebuffer(f gfx.Framebuffer) { delete(b.fbos, f) }
func (b *fakeBackend) BindFramebuffer(f gfx.Framebuffer)   { b.boundFBO = f }

func (b *fakeBackend) CreateQuad() (gfx.Quad, error) {
	return gfx.Quad{VAO: b.handle(), PosVBO: b.handle(), UVVBO: b.handle()}, nil
}

func (b *fakeBackend) DeleteQuad(q gfx.Quad) {}

func (b *fakeBackend) Viewport(width, height int) {
	b.viewportW = width
	b.viewportH = height
}

func (b *fakeBackend) target() *fakeTexture {
	if b.boundFBO == gfx.DefaultFramebuffer {
		return b.surface
	}
	return b.textures[b.fbos[b.boundFBO]]
}

// DrawQuad evaluates one full-screen pass: it snapshots the input
// texture, applies the bound program's effect, and writes the result
// into the bound target at the current viewport size.
func (b *fakeBackend) DrawQuad(q gfx.Quad) {
	prog := b.programs[b.current]
	input := b.textures[b.boundTex[0]]
	w, h := b.viewportW, b.viewportH

	src := make([]byte, len(input.pix))
	copy(src, input.pix)

	target := b.target()
	target.width = w
	target.height = h

	switch {
	case prog.fragmentSrc == shader.ResolveShader():
		target.pix = reverseRows(src, w, h)
	default:
		e, ok := b.effectFor(prog)
		if !ok {
			target.pix = src
			return
		}
		if e.IsTransition() {
			second := b.textures[b.boundTex[1]]
			progress := b.uniformScalar(prog, "u_progress")
			out, err := cpufilter.Transition(src, second.pix, w, h, e, progress)
			if err == nil {
				target.pix = out
			}
			return
		}
		pass := effects.Pass{Effect: e, Uniforms: b.uniformsOf(prog)}
		target.pix = cpufilter.ApplyPass(src, w, h, pass)
	}
}

// effectFor recovers the effect identity from the program's source. The
// two blur halves share a source; the direction uniform disambiguates.
func (b *fakeBackend) effectFor(prog *fakeProgram) (effects.Effect, bool) {
	all := []effects.Effect{
		effects.Passthrough, effects.Brightness, effects.Contrast,
		effects.Saturation, effects.Hue, effects.BlurHorizontal,
		effects.Sharpen, effects.Sepia, effects.Vignette,
		effects.ColorCorrection, effects.ChromaticAberration,
		effects.FilmGrain, effects.CrossProcess,
		effects.TransitionCrossfade, effects.TransitionWipe,
		effects.TransitionDissolve,
	}
	for _, e := range all {
		if shader.Source(e) == prog.fragmentSrc {
			if e == effects.BlurHorizontal {
				if texel, ok := b.uniformVec(prog, "u_texel"); ok && texel[1] != 0 {
					return effects.BlurVertical, true
				}
			}
			return e, true
		}
	}
	return effects.Passthrough, false
}

func (b *fakeBackend) uniformsOf(prog *fakeProgram) []effects.Uniform {
	var out []effects.Uniform
	for name, loc := range prog.locations {
		if values, ok := prog.values[loc]; ok {
			out = append(out, effects.Uniform{Name: name, Values: values})
		}
	}
	return out
}

func (b *fakeBackend) uniformScalar(prog *fakeProgram, name string) float32 {
	if v, ok := b.uniformVec(prog, name); ok && len(v) > 0 {
		return v[0]
	}
	return 0
}

func (b *fakeBackend) uniformVec(prog *fakeProgram, name string) ([]float32, bool) {
	loc, ok := prog.locations[name]
	if !ok {
		return nil, false
	}
	v, ok := prog.values[loc]
	return v, ok
}

// ReadPixels returns the bound target's rows in texel order, i.e. the
// backend's native bottom-up readback order.
func (b *fakeBackend) ReadPixels(width, height int) []byte {
	target := b.target()
	out := make([]byte, width*height*4)
	copy(out, target.pix)
	return out
}

func reverseRows(src []byte, width, height int) []byte {
	dst := make([]byte, len(src))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		copy(dst[y*rowSize:(y+1)*rowSize], src[(height-1-y)*rowSize:(height-y)*rowSize])
	}
	return dst
}

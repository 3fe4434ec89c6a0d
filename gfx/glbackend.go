package gfx

import (
	"context"
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	gst "github.com/richinsley/goshadertranslator"
)

var translator *gst.ShaderTranslator

// GLBackend is the real Backend, implemented on desktop OpenGL 4.1
// core. Fragment sources arrive in the WebGL2 dialect and are
// translated to GLSL 330 before compilation; uniform lookups go through
// the translator's mapped names.
type GLBackend struct {
	uniforms map[Program]map[string]string // authored name -> linked name
}

func NewGLBackend() *GLBackend {
	return &GLBackend{
		uniforms: make(map[Program]map[string]string),
	}
}

func (b *GLBackend) Init() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	return nil
}

func (b *GLBackend) CompileProgram(vertexSrc, fragmentSrc string) (Program, error) {
	if translator == nil {
		var err error
		translator, err = gst.NewShaderTranslator(context.Background())
		if err != nil {
			return 0, fmt.Errorf("failed to create shader translator: %w", err)
		}
	}

	fs, err := translator.TranslateShader(fragmentSrc, "fragment", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL330)
	if err != nil {
		return 0, fmt.Errorf("fragment shader translation failed: %w", err)
	}

	program, err := newProgram(vertexSrc, fs.Code)
	if err != nil {
		return 0, err
	}

	names := make(map[string]string, len(fs.Variables))
	for name, v := range fs.Variables {
		names[name] = v.MappedName
	}
	b.uniforms[Program(program)] = names
	return Program(program), nil
}

func (b *GLBackend) DeleteProgram(p Program) {
	delete(b.uniforms, p)
	gl.DeleteProgram(uint32(p))
}

func (b *GLBackend) UseProgram(p Program) {
	gl.UseProgram(uint32(p))
}

func (b *GLBackend) UniformLocation(p Program, name string) int32 {
	linked := name
	if names, ok := b.uniforms[p]; ok {
		if mapped, ok := names[name]; ok {
			linked = mapped
		}
	}
	return gl.GetUniformLocation(uint32(p), gl.Str(linked+"\x00"))
}

func (b *GLBackend) Uniform1f(loc int32, v float32)       { gl.Uniform1f(loc, v) }
func (b *GLBackend) Uniform2f(loc int32, x, y float32)    { gl.Uniform2f(loc, x, y) }
func (b *GLBackend) Uniform3f(loc int32, x, y, z float32) { gl.Uniform3f(loc, x, y, z) }
func (b *GLBackend) Uniform1i(loc int32, v int32)         { gl.Uniform1i(loc, v) }

func (b *GLBackend) CreateTexture(width, height int, pixels []byte) Texture {
	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	if pixels != nil {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	} else {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return Texture(texture)
}

func (b *GLBackend) UpdateTexture(t Texture, width, height int, pixels []byte) {
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	if pixels != nil {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	} else {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (b *GLBackend) DeleteTexture(t Texture) {
	id := uint32(t)
	gl.DeleteTextures(1, &id)
}

func (b *GLBackend) BindTexture(unit int, t Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

func (b *GLBackend) CreateFramebuffer(t Texture) (Framebuffer, error) {
	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, uint32(t), 0)
	if gl.CheckFramebufferStatus(gl.FRAMEBUFFER) != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.DeleteFramebuffers(1, &fbo)
		return 0, fmt.Errorf("offscreen framebuffer is not complete")
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return Framebuffer(fbo), nil
}

func (b *GLBackend) DeleteFramebuffer(f Framebuffer) {
	id := uint32(f)
	gl.DeleteFramebuffers(1, &id)
}

func (b *GLBackend) BindFramebuffer(f Framebuffer) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(f))
}

var quadPositions = []float32{
	-1.0, 1.0, -1.0, -1.0, 1.0, -1.0,
	-1.0, 1.0, 1.0, -1.0, 1.0, 1.0,
}

var quadTexCoords = []float32{
	0.0, 1.0, 0.0, 0.0, 1.0, 0.0,
	0.0, 1.0, 1.0, 0.0, 1.0, 1.0,
}

func (b *GLBackend) CreateQuad() (Quad, error) {
	var q Quad
	gl.GenVertexArrays(1, &q.VAO)
	gl.BindVertexArray(q.VAO)

	gl.GenBuffers(1, &q.PosVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, q.PosVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadPositions)*4, gl.Ptr(quadPositions), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))

	gl.GenBuffers(1, &q.UVVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, q.UVVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadTexCoords)*4, gl.Ptr(quadTexCoords), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return q, nil
}

func (b *GLBackend) DeleteQuad(q Quad) {
	gl.DeleteBuffers(1, &q.PosVBO)
	gl.DeleteBuffers(1, &q.UVVBO)
	gl.DeleteVertexArrays(1, &q.VAO)
}

func (b *GLBackend) DrawQuad(q Quad) {
	gl.BindVertexArray(q.VAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
}

func (b *GLBackend) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (b *GLBackend) ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		return 0, fmt.Errorf("failed to link program: %v", log)
	}

	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		return 0, fmt.Errorf("failed to compile shader: %v", logText)
	}
	return shader, nil
}

// Package cpufilter is the non-accelerated rendition of the filter
// chain: the same effects, the same numerical semantics, evaluated per
// pixel on the CPU. Hosts fall back to it when no compatible rendering
// context is available. Buffers are RGBA, 4 bytes per pixel, top-left
// origin; each pass quantizes back to 8 bits, matching the 8-bit
// ping-pong texture the GPU path renders through.
package cpufilter

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/clipforge/framefx/effects"
)

type rgba [4]float32

func load(src []byte, idx int) rgba {
	return rgba{
		float32(src[idx]) / 255.0,
		float32(src[idx+1]) / 255.0,
		float32(src[idx+2]) / 255.0,
		float32(src[idx+3]) / 255.0,
	}
}

func store(dst []byte, idx int, c rgba) {
	for i := 0; i < 4; i++ {
		v := c[i]
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		dst[idx+i] = byte(v*255.0 + 0.5)
	}
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func texel(src []byte, w, h, x, y int) rgba {
	x = clampi(x, 0, w-1)
	y = clampi(y, 0, h-1)
	return load(src, (y*w+x)*4)
}

// sampleBilinear reads the buffer at normalized coordinates with
// linear filtering and clamp-to-edge addressing, matching the GPU
// sampler state the processor configures.
func sampleBilinear(src []byte, w, h int, u, v float32) rgba {
	x := u*float32(w) - 0.5
	y := v*float32(h) - 0.5
	x0 := int(math32.Floor(x))
	y0 := int(math32.Floor(y))
	fx := x - float32(x0)
	fy := y - float32(y0)

	c00 := texel(src, w, h, x0, y0)
	c10 := texel(src, w, h, x0+1, y0)
	c01 := texel(src, w, h, x0, y0+1)
	c11 := texel(src, w, h, x0+1, y0+1)

	var out rgba
	for i := 0; i < 4; i++ {
		top := c00[i] + (c10[i]-c00[i])*fx
		bot := c01[i] + (c11[i]-c01[i])*fx
		out[i] = top + (bot-top)*fy
	}
	return out
}

// Luminance weights shared by saturation, sepia and grayscale
// conversion (ITU-R style).
const (
	lumR = 0.2989
	lumG = 0.587
	lumB = 0.114
)

func luminance(c rgba) float32 {
	return c[0]*lumR + c[1]*lumG + c[2]*lumB
}

func smoothstep(edge0, edge1, x float32) float32 {
	t := (x - edge0) / (edge1 - edge0)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}

func fract(x float32) float32 {
	return x - math32.Floor(x)
}

func rand2(u, v float32) float32 {
	return fract(math32.Sin(u*12.9898+v*78.233) * 43758.5453)
}

func rgbToHSV(r, g, b float32) (float32, float32, float32) {
	max := math32.Max(r, math32.Max(g, b))
	min := math32.Min(r, math32.Min(g, b))
	d := max - min

	var hue float32
	switch {
	case d == 0:
		hue = 0
	case max == r:
		hue = fract((g - b) / (6 * d))
	case max == g:
		hue = (b-r)/(6*d) + 1.0/3.0
	default:
		hue = (r-g)/(6*d) + 2.0/3.0
	}

	var sat float32
	if max > 0 {
		sat = d / max
	}
	return hue, sat, max
}

func hsvToRGB(hue, sat, val float32) (float32, float32, float32) {
	i := math32.Floor(hue * 6)
	f := hue*6 - i
	p := val * (1 - sat)
	q := val * (1 - f*sat)
	t := val * (1 - (1-f)*sat)

	switch int(i) % 6 {
	case 0:
		return val, t, p
	case 1:
		return q, val, p
	case 2:
		return p, val, t
	case 3:
		return p, q, val
	case 4:
		return t, p, val
	default:
		return val, p, q
	}
}

func uniformMap(pass effects.Pass) map[string][]float32 {
	m := make(map[string][]float32, len(pass.Uniforms))
	for _, u := range pass.Uniforms {
		m[u.Name] = u.Values
	}
	return m
}

func scalar(m map[string][]float32, name string, def float32) float32 {
	if v, ok := m[name]; ok && len(v) > 0 {
		return v[0]
	}
	return def
}

func vec(m map[string][]float32, name string, n int) []float32 {
	if v, ok := m[name]; ok && len(v) >= n {
		return v
	}
	return make([]float32, n)
}

// ApplyPass runs one effect pass over src and returns the new buffer.
// Unknown effects pass the input through, mirroring the shader
// catalog's passthrough fallback.
func ApplyPass(src []byte, width, height int, pass effects.Pass) []byte {
	dst := make([]byte, len(src))
	u := uniformMap(pass)

	perPixel := func(fn func(x, y int, c rgba) rgba) {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				idx := (y*width + x) * 4
				store(dst, idx, fn(x, y, load(src, idx)))
			}
		}
	}

	switch pass.Effect {
	case effects.Brightness:
		b := scalar(u, "u_brightness", 0)
		perPixel(func(x, y int, c rgba) rgba {
			return rgba{c[0] + b, c[1] + b, c[2] + b, c[3]}
		})

	case effects.Contrast:
		k := scalar(u, "u_contrast", 1)
		perPixel(func(x, y int, c rgba) rgba {
			return rgba{(c[0]-0.5)*k + 0.5, (c[1]-0.5)*k + 0.5, (c[2]-0.5)*k + 0.5, c[3]}
		})

	case effects.Saturation:
		s := scalar(u, "u_saturation", 1)
		perPixel(func(x, y int, c rgba) rgba {
			gray := luminance(c)
			return rgba{
				gray + (c[0]-gray)*s,
				gray + (c[1]-gray)*s,
				gray + (c[2]-gray)*s,
				c[3],
			}
		})

	case effects.Hue:
		degrees := scalar(u, "u_hue", 0)
		perPixel(func(x, y int, c rgba) rgba {
			hue, sat, val := rgbToHSV(c[0], c[1], c[2])
			hue = fract(hue + degrees/360.0)
			r, g, b := hsvToRGB(hue, sat, val)
			return rgba{r, g, b, c[3]}
		})

	case effects.BlurHorizontal, effects.BlurVertical:
		radius := scalar(u, "u_radius", 0)
		var du, dv float32
		if pass.Effect == effects.BlurHorizontal {
			du = 1.0 / float32(width)
		} else {
			dv = 1.0 / float32(height)
		}
		sigma := radius / 3.0
		perPixel(func(x, y int, c rgba) rgba {
			cu := (float32(x) + 0.5) / float32(width)
			cv := (float32(y) + 0.5) / float32(height)
			var sum [3]float32
			var total float32
			for i := -10; i <= 10; i++ {
				offset := float32(i) * radius / 10.0
				w := math32.Exp(-(offset * offset) / (2 * sigma * sigma))
				s := sampleBilinear(src, width, height, cu+du*offset, cv+dv*offset)
				sum[0] += s[0] * w
				sum[1] += s[1] * w
				sum[2] += s[2] * w
				total += w
			}
			return rgba{sum[0] / total, sum[1] / total, sum[2] / total, c[3]}
		})

	case effects.Sharpen:
		amount := scalar(u, "u_amount", 0)
		perPixel(func(x, y int, c rgba) rgba {
			l := texel(src, width, height, x-1, y)
			r := texel(src, width, height, x+1, y)
			up := texel(src, width, height, x, y-1)
			dn := texel(src, width, height, x, y+1)
			var out rgba
			for i := 0; i < 3; i++ {
				lap := 4*c[i] - l[i] - r[i] - up[i] - dn[i]
				out[i] = c[i] + amount*lap
			}
			out[3] = c[3]
			return out
		})

	case effects.Sepia:
		amount := scalar(u, "u_amount", 0)
		perPixel(func(x, y int, c rgba) rgba {
			gray := luminance(c)
			sep := rgba{
				math32.Min(gray*1.2, 1),
				gray,
				gray * 0.8,
			}
			return rgba{
				c[0] + (sep[0]-c[0])*amount,
				c[1] + (sep[1]-c[1])*amount,
				c[2] + (sep[2]-c[2])*amount,
				c[3],
			}
		})

	case effects.Vignette:
		amount := scalar(u, "u_amount", 0)
		radius := scalar(u, "u_radius", 0.75)
		perPixel(func(x, y int, c rgba) rgba {
			cu := (float32(x)+0.5)/float32(width) - 0.5
			cv := (float32(y)+0.5)/float32(height) - 0.5
			dist := math32.Sqrt(cu*cu + cv*cv)
			vig := smoothstep(radius, radius-0.3, dist)
			scale := (1 - amount) + amount*vig
			return rgba{c[0] * scale, c[1] * scale, c[2] * scale, c[3]}
		})

	case effects.ColorCorrection:
		lift := vec(u, "u_lift", 3)
		gamma := vec(u, "u_gamma", 3)
		gain := vec(u, "u_gain", 3)
		perPixel(func(x, y int, c rgba) rgba {
			var out rgba
			for i := 0; i < 3; i++ {
				g := math32.Max(gamma[i], 1e-4)
				v := math32.Pow(math32.Max(c[i], 0), 1.0/g)
				out[i] = v*gain[i] + lift[i]
			}
			out[3] = c[3]
			return out
		})

	case effects.ChromaticAberration:
		amount := scalar(u, "u_amount", 0)
		center := vec(u, "u_center", 2)
		perPixel(func(x, y int, c rgba) rgba {
			cu := (float32(x) + 0.5) / float32(width)
			cv := (float32(y) + 0.5) / float32(height)
			ou := (cu - center[0]) * amount
			ov := (cv - center[1]) * amount
			r := sampleBilinear(src, width, height, cu+ou, cv+ov)
			b := sampleBilinear(src, width, height, cu-ou, cv-ov)
			return rgba{r[0], c[1], b[2], c[3]}
		})

	case effects.FilmGrain:
		amount := scalar(u, "u_amount", 0)
		t := scalar(u, "u_time", 0)
		perPixel(func(x, y int, c rgba) rgba {
			cu := (float32(x) + 0.5) / float32(width)
			cv := (float32(y) + 0.5) / float32(height)
			noise := rand2(cu+t, cv+t)
			d := (noise - 0.5) * amount
			return rgba{c[0] + d, c[1] + d, c[2] + d, c[3]}
		})

	case effects.CrossProcess:
		amount := scalar(u, "u_amount", 0)
		perPixel(func(x, y int, c rgba) rgba {
			cp := rgba{
				smoothstep(0, 1, c[0]),
				math32.Pow(math32.Max(c[1], 0), 0.9),
				c[2]*0.85 + 0.05,
			}
			return rgba{
				c[0] + (cp[0]-c[0])*amount,
				c[1] + (cp[1]-c[1])*amount,
				c[2] + (cp[2]-c[2])*amount,
				c[3],
			}
		})

	default:
		copy(dst, src)
	}

	return dst
}

// ApplyChain expands params into the fixed-order pass list and applies
// every active pass in sequence.
func ApplyChain(src []byte, width, height int, params *effects.Params) []byte {
	passes := effects.Chain(params)
	if len(passes) == 0 {
		return append([]byte(nil), src...)
	}
	out := src
	for _, pass := range passes {
		out = ApplyPass(out, width, height, pass)
	}
	return out
}

// Transition blends two equally sized frames with the given transition
// kind at progress in [0,1].
func Transition(a, b []byte, width, height int, kind effects.Effect, progress float32) ([]byte, error) {
	if len(a) != width*height*4 || len(b) != len(a) {
		return nil, fmt.Errorf("invalid frame dimensions: %dx%d with %d and %d bytes", width, height, len(a), len(b))
	}
	dst := make([]byte, len(a))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := (y*width + x) * 4
			ca := load(a, idx)
			cb := load(b, idx)
			var t float32
			switch kind {
			case effects.TransitionWipe:
				cu := (float32(x) + 0.5) / float32(width)
				if cu <= progress {
					t = 1
				}
			case effects.TransitionDissolve:
				cu := (float32(x) + 0.5) / float32(width)
				cv := (float32(y) + 0.5) / float32(height)
				if rand2(cu, cv) <= progress {
					t = 1
				}
			default: // crossfade
				t = progress
			}
			var out rgba
			for i := 0; i < 4; i++ {
				out[i] = ca[i] + (cb[i]-ca[i])*t
			}
			store(dst, idx, out)
		}
	}
	return dst, nil
}

// Processor is the drop-in software counterpart to the GPU processor:
// same contract, no acceleration, never unavailable.
type Processor struct{}

func NewProcessor() *Processor { return &Processor{} }

// Process applies the filter chain and returns the transformed frame.
// Invalid dimensions are the only error.
func (p *Processor) Process(pixels []byte, width, height int, params *effects.Params) ([]byte, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return nil, fmt.Errorf("invalid frame dimensions: %dx%d with %d bytes", width, height, len(pixels))
	}
	return ApplyChain(pixels, width, height, params), nil
}

// Transition blends two frames; see the package-level Transition.
func (p *Processor) Transition(a, b []byte, width, height int, kind effects.Effect, progress float32) ([]byte, error) {
	return Transition(a, b, width, height, kind, progress)
}

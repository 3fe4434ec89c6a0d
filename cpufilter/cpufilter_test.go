package cpufilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/framefx/effects"
)

func f(v float32) *float32 { return &v }

func solidFrame(w, h int, r, g, b, a byte) []byte {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = r, g, b, a
	}
	return pix
}

func pass(e effects.Effect, uniforms ...effects.Uniform) effects.Pass {
	return effects.Pass{Effect: e, Uniforms: uniforms}
}

func scalarUniform(name string, v float32) effects.Uniform {
	return effects.Uniform{Name: name, Values: []float32{v}}
}

func TestBrightnessShiftsAndClamps(t *testing.T) {
	src := solidFrame(2, 2, 100, 200, 0, 255)
	out := ApplyPass(src, 2, 2, pass(effects.Brightness, scalarUniform("u_brightness", 0.5)))

	// 100/255 + 0.5 quantizes to 228; 200/255 clamps at 1.
	assert.Equal(t, byte(228), out[0])
	assert.Equal(t, byte(255), out[1])
	assert.Equal(t, byte(128), out[2])
	assert.Equal(t, byte(255), out[3], "alpha is untouched")
}

func TestContrastPivotsAtMidGray(t *testing.T) {
	src := solidFrame(1, 1, 128, 64, 192, 255)
	out := ApplyPass(src, 1, 1, pass(effects.Contrast, scalarUniform("u_contrast", 2)))

	assert.InDelta(t, 128, int(out[0]), 1, "mid gray is the fixed point")
	assert.Less(t, out[1], byte(64), "dark values get darker")
	assert.Greater(t, out[2], byte(192), "bright values get brighter")
}

func TestSaturationZeroIsGrayscale(t *testing.T) {
	src := solidFrame(2, 1, 255, 0, 0, 255)
	out := ApplyPass(src, 2, 1, pass(effects.Saturation, scalarUniform("u_saturation", 0)))

	// Pure red collapses to its luminance, 0.2989 * 255.
	assert.Equal(t, out[0], out[1])
	assert.Equal(t, out[1], out[2])
	assert.InDelta(t, 76, int(out[0]), 1)
}

func TestHueRotationCyclesChannels(t *testing.T) {
	src := solidFrame(1, 1, 255, 0, 0, 255)

	// 120 degrees turns red into green, 240 into blue, 360 back to red.
	green := ApplyPass(src, 1, 1, pass(effects.Hue, scalarUniform("u_hue", 120)))
	assert.Equal(t, []byte{0, 255, 0, 255}, green[:4])

	blue := ApplyPass(src, 1, 1, pass(effects.Hue, scalarUniform("u_hue", 240)))
	assert.Equal(t, []byte{0, 0, 255, 255}, blue[:4])

	full := ApplyPass(src, 1, 1, pass(effects.Hue, scalarUniform("u_hue", 360)))
	assert.Equal(t, src[:4], full[:4])
}

func TestHueNegativeWrapsAround(t *testing.T) {
	src := solidFrame(1, 1, 255, 0, 0, 255)
	minus := ApplyPass(src, 1, 1, pass(effects.Hue, scalarUniform("u_hue", -120)))
	plus := ApplyPass(src, 1, 1, pass(effects.Hue, scalarUniform("u_hue", 240)))
	assert.Equal(t, plus, minus)
}

func TestBlurPreservesConstantRegions(t *testing.T) {
	src := solidFrame(8, 8, 90, 120, 150, 255)
	out := ApplyPass(src, 8, 8, pass(effects.BlurHorizontal,
		scalarUniform("u_radius", 3)))
	for i := 0; i < len(out); i += 4 {
		assert.InDelta(t, 90, int(out[i]), 1)
		assert.InDelta(t, 120, int(out[i+1]), 1)
		assert.InDelta(t, 150, int(out[i+2]), 1)
	}
}

func TestBlurIsSymmetricAroundImpulse(t *testing.T) {
	w, h := 9, 1
	src := solidFrame(w, h, 0, 0, 0, 255)
	center := (0*w + 4) * 4
	src[center], src[center+1], src[center+2] = 255, 255, 255

	out := ApplyPass(src, w, h, pass(effects.BlurHorizontal,
		scalarUniform("u_radius", 2)))

	for d := 1; d <= 4; d++ {
		left := out[(4-d)*4]
		right := out[(4+d)*4]
		assert.InDelta(t, int(left), int(right), 1, "offset %d", d)
	}
	assert.Greater(t, out[center], out[center-4], "energy peaks at the impulse")
}

func TestSharpenBoostsEdges(t *testing.T) {
	w, h := 3, 1
	src := solidFrame(w, h, 100, 100, 100, 255)
	src[2*4], src[2*4+1], src[2*4+2] = 200, 200, 200

	out := ApplyPass(src, w, h, pass(effects.Sharpen,
		scalarUniform("u_amount", 0.5), effects.Uniform{Name: "u_texel", Values: []float32{1.0 / 3, 1}}))

	assert.Less(t, out[4], byte(100), "the dark side of the edge dips")
	assert.Greater(t, out[2*4], byte(200), "the bright side overshoots")
}

func TestSepiaFullStrengthTintsWarm(t *testing.T) {
	src := solidFrame(1, 1, 128, 128, 128, 255)
	out := ApplyPass(src, 1, 1, pass(effects.Sepia, scalarUniform("u_amount", 1)))

	assert.Greater(t, out[0], out[1])
	assert.Greater(t, out[1], out[2])
	assert.Equal(t, byte(255), out[3])
}

func TestVignetteDarkensCornersNotCenter(t *testing.T) {
	w, h := 16, 16
	src := solidFrame(w, h, 200, 200, 200, 255)
	out := ApplyPass(src, w, h, pass(effects.Vignette,
		scalarUniform("u_amount", 0.8), scalarUniform("u_radius", 0.5)))

	centerIdx := (8*w + 8) * 4
	cornerIdx := 0
	assert.InDelta(t, 200, int(out[centerIdx]), 1)
	assert.Less(t, out[cornerIdx], byte(200))

	// Radial symmetry: all four corners darken equally.
	tl := out[0]
	tr := out[(w-1)*4]
	bl := out[((h-1)*w)*4]
	br := out[((h-1)*w+w-1)*4]
	assert.Equal(t, tl, tr)
	assert.Equal(t, tl, bl)
	assert.Equal(t, tl, br)
}

func TestColorCorrectionIdentity(t *testing.T) {
	src := solidFrame(2, 2, 30, 120, 210, 255)
	out := ApplyPass(src, 2, 2, pass(effects.ColorCorrection,
		effects.Uniform{Name: "u_lift", Values: []float32{0, 0, 0}},
		effects.Uniform{Name: "u_gamma", Values: []float32{1, 1, 1}},
		effects.Uniform{Name: "u_gain", Values: []float32{1, 1, 1}}))
	assert.Equal(t, src, out)
}

func TestColorCorrectionLiftRaisesShadows(t *testing.T) {
	src := solidFrame(1, 1, 0, 0, 0, 255)
	out := ApplyPass(src, 1, 1, pass(effects.ColorCorrection,
		effects.Uniform{Name: "u_lift", Values: []float32{0.2, 0, 0}},
		effects.Uniform{Name: "u_gamma", Values: []float32{1, 1, 1}},
		effects.Uniform{Name: "u_gain", Values: []float32{1, 1, 1}}))
	assert.Equal(t, byte(51), out[0])
	assert.Equal(t, byte(0), out[1])
	assert.Equal(t, byte(0), out[2])
}

func TestChromaticAberrationLeavesCenterAlone(t *testing.T) {
	w, h := 9, 9
	src := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := (y*w + x) * 4
			src[idx] = byte(x * 28)
			src[idx+1] = byte(y * 28)
			src[idx+2] = 128
			src[idx+3] = 255
		}
	}
	out := ApplyPass(src, w, h, pass(effects.ChromaticAberration,
		scalarUniform("u_amount", 0.05),
		effects.Uniform{Name: "u_center", Values: []float32{0.5, 0.5}}))

	centerIdx := (4*w + 4) * 4
	assert.InDelta(t, int(src[centerIdx]), int(out[centerIdx]), 1)
	assert.Equal(t, src[centerIdx+1], out[centerIdx+1], "green never shifts")
}

func TestFilmGrainIsDeterministicPerSeed(t *testing.T) {
	src := solidFrame(4, 4, 128, 128, 128, 255)
	a := ApplyPass(src, 4, 4, pass(effects.FilmGrain,
		scalarUniform("u_amount", 0.3), scalarUniform("u_time", 1)))
	b := ApplyPass(src, 4, 4, pass(effects.FilmGrain,
		scalarUniform("u_amount", 0.3), scalarUniform("u_time", 1)))
	c := ApplyPass(src, 4, 4, pass(effects.FilmGrain,
		scalarUniform("u_amount", 0.3), scalarUniform("u_time", 2)))

	assert.Equal(t, a, b, "same seed, same grain")
	assert.NotEqual(t, a, c, "different seed, different grain")
	assert.NotEqual(t, src, a)
}

func TestUnknownEffectPassesThrough(t *testing.T) {
	src := solidFrame(3, 3, 9, 8, 7, 255)
	out := ApplyPass(src, 3, 3, pass(effects.Effect(999)))
	assert.Equal(t, src, out)
}

func TestApplyChainNoPassesCopiesInput(t *testing.T) {
	src := solidFrame(2, 2, 1, 2, 3, 255)
	out := ApplyChain(src, 2, 2, &effects.Params{})
	assert.Equal(t, src, out)
	out[0] = 99
	assert.Equal(t, byte(1), src[0], "output does not alias the input")
}

func TestApplyChainOrderMatters(t *testing.T) {
	src := solidFrame(4, 4, 60, 110, 160, 255)
	chained := ApplyChain(src, 4, 4, &effects.Params{
		Brightness: f(0.25),
		Contrast:   f(1.6),
	})

	step := ApplyPass(src, 4, 4, pass(effects.Brightness, scalarUniform("u_brightness", 0.25)))
	step = ApplyPass(step, 4, 4, pass(effects.Contrast, scalarUniform("u_contrast", 1.6)))
	assert.Equal(t, step, chained)

	reversed := ApplyPass(src, 4, 4, pass(effects.Contrast, scalarUniform("u_contrast", 1.6)))
	reversed = ApplyPass(reversed, 4, 4, pass(effects.Brightness, scalarUniform("u_brightness", 0.25)))
	assert.NotEqual(t, reversed, chained)
}

func TestTransitionCrossfadeEndpoints(t *testing.T) {
	a := solidFrame(2, 2, 255, 0, 0, 255)
	b := solidFrame(2, 2, 0, 0, 255, 255)

	start, err := Transition(a, b, 2, 2, effects.TransitionCrossfade, 0)
	require.NoError(t, err)
	assert.Equal(t, a, start)

	end, err := Transition(a, b, 2, 2, effects.TransitionCrossfade, 1)
	require.NoError(t, err)
	assert.Equal(t, b, end)

	mid, err := Transition(a, b, 2, 2, effects.TransitionCrossfade, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 128, int(mid[0]), 1)
	assert.InDelta(t, 128, int(mid[2]), 1)
}

func TestTransitionWipeSweepsLeftToRight(t *testing.T) {
	w, h := 8, 2
	a := solidFrame(w, h, 255, 0, 0, 255)
	b := solidFrame(w, h, 0, 255, 0, 255)

	out, err := Transition(a, b, w, h, effects.TransitionWipe, 0.5)
	require.NoError(t, err)

	assert.Equal(t, byte(0), out[0], "left half shows the incoming frame")
	assert.Equal(t, byte(255), out[1])
	last := (w - 1) * 4
	assert.Equal(t, byte(255), out[last], "right half still shows the outgoing frame")
	assert.Equal(t, byte(0), out[last+1])
}

func TestTransitionDissolveProportion(t *testing.T) {
	w, h := 32, 32
	a := solidFrame(w, h, 255, 255, 255, 255)
	b := solidFrame(w, h, 0, 0, 0, 255)

	out, err := Transition(a, b, w, h, effects.TransitionDissolve, 0.5)
	require.NoError(t, err)

	var swapped int
	for i := 0; i < len(out); i += 4 {
		if out[i] == 0 {
			swapped++
		}
	}
	total := w * h
	assert.Greater(t, swapped, total/4, "roughly half the pixels dissolve")
	assert.Less(t, swapped, 3*total/4)
}

func TestTransitionDimensionMismatch(t *testing.T) {
	a := solidFrame(2, 2, 0, 0, 0, 255)
	b := solidFrame(4, 4, 0, 0, 0, 255)
	_, err := Transition(a, b, 2, 2, effects.TransitionCrossfade, 0.5)
	assert.Error(t, err)
}

func TestProcessorValidatesDimensions(t *testing.T) {
	p := NewProcessor()
	_, err := p.Process(make([]byte, 10), 2, 2, nil)
	assert.Error(t, err)
	_, err = p.Process(nil, 0, 0, nil)
	assert.Error(t, err)

	src := solidFrame(2, 2, 5, 6, 7, 255)
	out, err := p.Process(src, 2, 2, &effects.Params{Brightness: f(0.1)})
	require.NoError(t, err)
	assert.NotEqual(t, src, out)
}

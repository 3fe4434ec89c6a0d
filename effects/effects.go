// Package effects defines the filter identifiers, the per-frame filter
// parameter set, and the fixed-order pass chain the processor executes.
package effects

// Effect identifies a single fragment program in the shader catalog.
type Effect int

const (
	Passthrough Effect = iota
	Brightness
	Contrast
	Saturation
	Hue
	BlurHorizontal
	BlurVertical
	Sharpen
	Sepia
	Vignette
	ColorCorrection
	ChromaticAberration
	FilmGrain
	CrossProcess

	// Transitions blend two frames and are not part of the single-frame
	// filter chain.
	TransitionCrossfade
	TransitionWipe
	TransitionDissolve
)

func (e Effect) String() string {
	switch e {
	case Passthrough:
		return "passthrough"
	case Brightness:
		return "brightness"
	case Contrast:
		return "contrast"
	case Saturation:
		return "saturation"
	case Hue:
		return "hue"
	case BlurHorizontal:
		return "blur-horizontal"
	case BlurVertical:
		return "blur-vertical"
	case Sharpen:
		return "sharpen"
	case Sepia:
		return "sepia"
	case Vignette:
		return "vignette"
	case ColorCorrection:
		return "color-correction"
	case ChromaticAberration:
		return "chromatic-aberration"
	case FilmGrain:
		return "film-grain"
	case CrossProcess:
		return "cross-process"
	case TransitionCrossfade:
		return "transition-crossfade"
	case TransitionWipe:
		return "transition-wipe"
	case TransitionDissolve:
		return "transition-dissolve"
	}
	return "unknown"
}

// IsTransition reports whether e blends two source frames rather than
// filtering one.
func (e Effect) IsTransition() bool {
	switch e {
	case TransitionCrossfade, TransitionWipe, TransitionDissolve:
		return true
	}
	return false
}

// VignetteParams controls the darkened-corners effect.
type VignetteParams struct {
	Amount float32
	Radius float32
}

// ColorCorrectionParams is a three-way color balance: lift shifts the
// shadows, gamma bends the midtones, gain scales the highlights. Each
// vector is one factor per RGB channel; the identity is lift (0,0,0),
// gamma (1,1,1), gain (1,1,1).
type ColorCorrectionParams struct {
	Lift  [3]float32
	Gamma [3]float32
	Gain  [3]float32
}

// ChromaticAberrationParams shifts the red and blue channels apart
// radially around Center (normalized [0,1] coordinates).
type ChromaticAberrationParams struct {
	Amount float32
	Center [2]float32
}

// FilmGrainParams adds pseudo-random luminance noise. Time seeds the
// noise so consecutive frames grain differently.
type FilmGrainParams struct {
	Amount float32
	Time   float32
}

// Params is the per-frame filter parameter set. A nil field means the
// corresponding pass is skipped; so does a field left at its neutral
// value (contrast 1, saturation 1, hue 0, and so on). Fields are
// independent; the application order is fixed by Chain.
type Params struct {
	Brightness          *float32
	Contrast            *float32
	Saturation          *float32
	Hue                 *float32 // degrees
	BlurRadius          *float32 // pixels
	Sharpen             *float32
	Sepia               *float32
	Vignette            *VignetteParams
	ColorCorrection     *ColorCorrectionParams
	ChromaticAberration *ChromaticAberrationParams
	FilmGrain           *FilmGrainParams
	CrossProcess        *float32
}

// Uniform is one named shader input for a pass. Values holds 1 to 3
// components depending on the uniform's GLSL type.
type Uniform struct {
	Name   string
	Values []float32
}

// Pass is a tagged descriptor for one draw call: which fragment program
// to bind and the uniform values it consumes. The renderer tolerates
// uniforms the linked program does not declare.
type Pass struct {
	Effect   Effect
	Uniforms []Uniform
}

func f32(v float32) Uniform { return Uniform{Values: []float32{v}} }

func named(n string, u Uniform) Uniform {
	u.Name = n
	return u
}

const identityEps = 1e-6

func neutral(p *float32, identity float32) bool {
	if p == nil {
		return true
	}
	d := *p - identity
	return d < identityEps && d > -identityEps
}

// Chain expands params into the ordered list of active passes. The
// order is fixed and observable (brightness-then-contrast differs from
// contrast-then-brightness); callers must not reorder it. Blur expands
// into its horizontal and vertical halves, each a full pass.
func Chain(p *Params) []Pass {
	if p == nil {
		return nil
	}
	var passes []Pass
	add := func(e Effect, uniforms ...Uniform) {
		passes = append(passes, Pass{Effect: e, Uniforms: uniforms})
	}

	if !neutral(p.Brightness, 0) {
		add(Brightness, named("u_brightness", f32(*p.Brightness)))
	}
	if !neutral(p.Contrast, 1) {
		add(Contrast, named("u_contrast", f32(*p.Contrast)))
	}
	if !neutral(p.Saturation, 1) {
		add(Saturation, named("u_saturation", f32(*p.Saturation)))
	}
	if !neutral(p.Hue, 0) {
		add(Hue, named("u_hue", f32(*p.Hue)))
	}
	if !neutral(p.BlurRadius, 0) {
		add(BlurHorizontal, named("u_radius", f32(*p.BlurRadius)))
		add(BlurVertical, named("u_radius", f32(*p.BlurRadius)))
	}
	if !neutral(p.Sharpen, 0) {
		add(Sharpen, named("u_amount", f32(*p.Sharpen)))
	}
	if !neutral(p.Sepia, 0) {
		add(Sepia, named("u_amount", f32(*p.Sepia)))
	}
	if v := p.Vignette; v != nil && v.Amount != 0 {
		add(Vignette,
			named("u_amount", f32(v.Amount)),
			named("u_radius", f32(v.Radius)))
	}
	if c := p.ColorCorrection; c != nil {
		add(ColorCorrection,
			Uniform{Name: "u_lift", Values: c.Lift[:]},
			Uniform{Name: "u_gamma", Values: c.Gamma[:]},
			Uniform{Name: "u_gain", Values: c.Gain[:]})
	}
	if c := p.ChromaticAberration; c != nil && c.Amount != 0 {
		add(ChromaticAberration,
			named("u_amount", f32(c.Amount)),
			Uniform{Name: "u_center", Values: c.Center[:]})
	}
	if g := p.FilmGrain; g != nil && g.Amount != 0 {
		add(FilmGrain,
			named("u_amount", f32(g.Amount)),
			named("u_time", f32(g.Time)))
	}
	if !neutral(p.CrossProcess, 0) {
		add(CrossProcess, named("u_amount", f32(*p.CrossProcess)))
	}
	return passes
}

// UniformNames lists the uniforms each effect's fragment program may
// declare, beyond the shared source sampler. The program cache resolves
// locations for exactly this set after linking; a missing declaration
// is tolerated silently.
func UniformNames(e Effect) []string {
	switch e {
	case Brightness:
		return []string{"u_brightness"}
	case Contrast:
		return []string{"u_contrast"}
	case Saturation:
		return []string{"u_saturation"}
	case Hue:
		return []string{"u_hue"}
	case BlurHorizontal, BlurVertical:
		return []string{"u_radius", "u_texel"}
	case Sharpen:
		return []string{"u_amount", "u_texel"}
	case Sepia, CrossProcess:
		return []string{"u_amount"}
	case Vignette:
		return []string{"u_amount", "u_radius"}
	case ColorCorrection:
		return []string{"u_lift", "u_gamma", "u_gain"}
	case ChromaticAberration:
		return []string{"u_amount", "u_center"}
	case FilmGrain:
		return []string{"u_amount", "u_time"}
	case TransitionCrossfade, TransitionWipe, TransitionDissolve:
		return []string{"u_progress"}
	}
	return nil
}

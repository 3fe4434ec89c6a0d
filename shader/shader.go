// Package shader is the fixed catalog of GPU programs used by the
// frame processor: one shared vertex program and one fragment program
// per effect or transition kind. Fragment sources are authored in the
// WebGL2 (GLSL ES 300) dialect; the GL backend translates them to
// desktop GLSL before compiling.
package shader

import (
	"github.com/clipforge/framefx/effects"
)

// The vertex program never varies per effect: it places the full-screen
// quad and forwards the texture coordinate.
const vertexShaderSourceGL = `#version 410 core
layout (location = 0) in vec2 in_pos;
layout (location = 1) in vec2 in_uv;
out vec2 frag_uv;
void main() {
    frag_uv = in_uv;
    gl_Position = vec4(in_pos, 0.0, 1.0);
}
`

const vertexShaderSourceGLES = `#version 300 es
layout (location = 0) in vec2 in_pos;
layout (location = 1) in vec2 in_uv;
out vec2 frag_uv;
void main() {
    frag_uv = in_uv;
    gl_Position = vec4(in_pos, 0.0, 1.0);
}
`

const fragmentHeader = `#version 300 es
precision highp float;
precision highp int;
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D u_texture;
`

const fragmentPassthrough = fragmentHeader + `
void main() {
    fragColor = texture(u_texture, frag_uv);
}
`

// The final resolve samples with a flipped v coordinate so the frame
// displays upright on a bottom-left-origin surface.
const fragmentResolve = fragmentHeader + `
void main() {
    fragColor = texture(u_texture, vec2(frag_uv.x, 1.0 - frag_uv.y));
}
`

const fragmentBrightness = fragmentHeader + `
uniform float u_brightness;
void main() {
    vec4 c = texture(u_texture, frag_uv);
    fragColor = vec4(clamp(c.rgb + u_brightness, 0.0, 1.0), c.a);
}
`

const fragmentContrast = fragmentHeader + `
uniform float u_contrast;
void main() {
    vec4 c = texture(u_texture, frag_uv);
    fragColor = vec4(clamp((c.rgb - 0.5) * u_contrast + 0.5, 0.0, 1.0), c.a);
}
`

const fragmentSaturation = fragmentHeader + `
uniform float u_saturation;
void main() {
    vec4 c = texture(u_texture, frag_uv);
    float gray = dot(c.rgb, vec3(0.2989, 0.587, 0.114));
    fragColor = vec4(clamp(mix(vec3(gray), c.rgb, u_saturation), 0.0, 1.0), c.a);
}
`

const fragmentHue = fragmentHeader + `
uniform float u_hue;

vec3 rgb2hsv(vec3 c) {
    vec4 K = vec4(0.0, -1.0 / 3.0, 2.0 / 3.0, -1.0);
    vec4 p = mix(vec4(c.bg, K.wz), vec4(c.gb, K.xy), step(c.b, c.g));
    vec4 q = mix(vec4(p.xyw, c.r), vec4(c.r, p.yzx), step(p.x, c.r));
    float d = q.x - min(q.w, q.y);
    float e = 1.0e-10;
    return vec3(abs(q.z + (q.w - q.y) / (6.0 * d + e)), d / (q.x + e), q.x);
}

vec3 hsv2rgb(vec3 c) {
    vec4 K = vec4(1.0, 2.0 / 3.0, 1.0 / 3.0, 3.0);
    vec3 p = abs(fract(c.xxx + K.xyz) * 6.0 - K.www);
    return c.z * mix(K.xxx, clamp(p - K.xxx, 0.0, 1.0), c.y);
}

void main() {
    vec4 c = texture(u_texture, frag_uv);
    vec3 hsv = rgb2hsv(c.rgb);
    hsv.x = fract(hsv.x + u_hue / 360.0);
    fragColor = vec4(hsv2rgb(hsv), c.a);
}
`

// Separable gaussian: 21 taps, offsets -10..10 in steps of radius/10,
// sigma = radius/3, normalized by the weight sum. The same program
// serves the horizontal and the vertical half; u_texel carries the step
// direction in uv units.
const fragmentGaussianBlur = fragmentHeader + `
uniform float u_radius;
uniform vec2 u_texel;
void main() {
    float sigma = u_radius / 3.0;
    vec3 sum = vec3(0.0);
    float total = 0.0;
    for (int i = -10; i <= 10; i++) {
        float offset = float(i) * u_radius / 10.0;
        float w = exp(-(offset * offset) / (2.0 * sigma * sigma));
        sum += texture(u_texture, frag_uv + u_texel * offset).rgb * w;
        total += w;
    }
    fragColor = vec4(sum / total, texture(u_texture, frag_uv).a);
}
`

// 5-tap discrete Laplacian scaled by amount, added back to center.
const fragmentSharpen = fragmentHeader + `
uniform float u_amount;
uniform vec2 u_texel;
void main() {
    vec4 c = texture(u_texture, frag_uv);
    vec3 lap = 4.0 * c.rgb
        - texture(u_texture, frag_uv + vec2(u_texel.x, 0.0)).rgb
        - texture(u_texture, frag_uv - vec2(u_texel.x, 0.0)).rgb
        - texture(u_texture, frag_uv + vec2(0.0, u_texel.y)).rgb
        - texture(u_texture, frag_uv - vec2(0.0, u_texel.y)).rgb;
    fragColor = vec4(clamp(c.rgb + u_amount * lap, 0.0, 1.0), c.a);
}
`

const fragmentSepia = fragmentHeader + `
uniform float u_amount;
void main() {
    vec4 c = texture(u_texture, frag_uv);
    float gray = dot(c.rgb, vec3(0.2989, 0.587, 0.114));
    vec3 sepia = clamp(gray * vec3(1.2, 1.0, 0.8), 0.0, 1.0);
    fragColor = vec4(mix(c.rgb, sepia, u_amount), c.a);
}
`

const fragmentVignette = fragmentHeader + `
uniform float u_amount;
uniform float u_radius;
void main() {
    vec4 c = texture(u_texture, frag_uv);
    float dist = distance(frag_uv, vec2(0.5));
    float vig = smoothstep(u_radius, u_radius - 0.3, dist);
    fragColor = vec4(c.rgb * mix(1.0 - u_amount, 1.0, vig), c.a);
}
`

const fragmentColorCorrection = fragmentHeader + `
uniform vec3 u_lift;
uniform vec3 u_gamma;
uniform vec3 u_gain;
void main() {
    vec4 c = texture(u_texture, frag_uv);
    vec3 rgb = pow(max(c.rgb, vec3(0.0)), 1.0 / max(u_gamma, vec3(1.0e-4)));
    rgb = rgb * u_gain + u_lift;
    fragColor = vec4(clamp(rgb, 0.0, 1.0), c.a);
}
`

const fragmentChromaticAberration = fragmentHeader + `
uniform float u_amount;
uniform vec2 u_center;
void main() {
    vec2 off = (frag_uv - u_center) * u_amount;
    float r = texture(u_texture, frag_uv + off).r;
    vec2 ga = texture(u_texture, frag_uv).ga;
    float b = texture(u_texture, frag_uv - off).b;
    fragColor = vec4(r, ga.x, b, ga.y);
}
`

const fragmentFilmGrain = fragmentHeader + `
uniform float u_amount;
uniform float u_time;

float rand(vec2 co) {
    return fract(sin(dot(co, vec2(12.9898, 78.233))) * 43758.5453);
}

void main() {
    vec4 c = texture(u_texture, frag_uv);
    float noise = rand(frag_uv + vec2(u_time));
    fragColor = vec4(clamp(c.rgb + (noise - 0.5) * u_amount, 0.0, 1.0), c.a);
}
`

const fragmentCrossProcess = fragmentHeader + `
uniform float u_amount;
void main() {
    vec4 c = texture(u_texture, frag_uv);
    vec3 cp = vec3(
        smoothstep(0.0, 1.0, c.r),
        pow(c.g, 0.9),
        c.b * 0.85 + 0.05);
    fragColor = vec4(mix(c.rgb, clamp(cp, 0.0, 1.0), u_amount), c.a);
}
`

// Transitions sample a second frame and blend by progress.
const transitionHeader = fragmentHeader + `
uniform sampler2D u_texture2;
uniform float u_progress;
`

const fragmentTransitionCrossfade = transitionHeader + `
void main() {
    vec4 a = texture(u_texture, frag_uv);
    vec4 b = texture(u_texture2, frag_uv);
    fragColor = mix(a, b, u_progress);
}
`

const fragmentTransitionWipe = transitionHeader + `
void main() {
    vec4 a = texture(u_texture, frag_uv);
    vec4 b = texture(u_texture2, frag_uv);
    fragColor = mix(a, b, step(frag_uv.x, u_progress));
}
`

const fragmentTransitionDissolve = transitionHeader + `
float rand(vec2 co) {
    return fract(sin(dot(co, vec2(12.9898, 78.233))) * 43758.5453);
}

void main() {
    vec4 a = texture(u_texture, frag_uv);
    vec4 b = texture(u_texture2, frag_uv);
    fragColor = mix(a, b, step(rand(frag_uv), u_progress));
}
`

// VertexShader returns the shared vertex program source.
func VertexShader(isGLES bool) string {
	if isGLES {
		return vertexShaderSourceGLES
	}
	return vertexShaderSourceGL
}

// Source returns the fragment program source for an effect. It is pure
// and total: an unrecognized identifier falls back to passthrough.
func Source(e effects.Effect) string {
	switch e {
	case effects.Brightness:
		return fragmentBrightness
	case effects.Contrast:
		return fragmentContrast
	case effects.Saturation:
		return fragmentSaturation
	case effects.Hue:
		return fragmentHue
	case effects.BlurHorizontal, effects.BlurVertical:
		return fragmentGaussianBlur
	case effects.Sharpen:
		return fragmentSharpen
	case effects.Sepia:
		return fragmentSepia
	case effects.Vignette:
		return fragmentVignette
	case effects.ColorCorrection:
		return fragmentColorCorrection
	case effects.ChromaticAberration:
		return fragmentChromaticAberration
	case effects.FilmGrain:
		return fragmentFilmGrain
	case effects.CrossProcess:
		return fragmentCrossProcess
	case effects.TransitionCrossfade:
		return fragmentTransitionCrossfade
	case effects.TransitionWipe:
		return fragmentTransitionWipe
	case effects.TransitionDissolve:
		return fragmentTransitionDissolve
	}
	return fragmentPassthrough
}

// ResolveShader returns the fragment source for the final resolve pass:
// a passthrough that flips the v coordinate so the read-back frame
// comes out of the bottom-left-origin surface in row order.
func ResolveShader() string {
	return fragmentResolve
}

//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/pls/encode"
	"github.com/gogpu/wgpu/hal"
)

// ShaderKind names one of the generated WGSL programs.
type ShaderKind uint8

const (
	// ShaderStencil writes no color; it only feeds the stencil and depth
	// tests. Used by the stencil and clip resolve pipelines.
	ShaderStencil ShaderKind = iota
	// ShaderCover resolves the paint and blends it. Used by the cover and
	// image mesh pipelines.
	ShaderCover
)

// String returns the program name.
func (k ShaderKind) String() string {
	switch k {
	case ShaderStencil:
		return "stencil"
	case ShaderCover:
		return "cover"
	default:
		return fmt.Sprintf("ShaderKind(%d)", k)
	}
}

// Vertex layout shared by every program: clip-space position with the
// normalized z index in z, the packed paint varying, clip rect distances.
const (
	vertexStride         = 48
	vertexPaintOffset    = 16
	vertexClipRectOffset = 32
)

// coverUniformSize is the size of the cover program's uniform block.
const coverUniformSize = 16

// shaderFlags lists the WGSL constants derived from a feature set.
func shaderFlags(f encode.Features) []struct {
	name string
	on   bool
} {
	return []struct {
		name string
		on   bool
	}{
		{"CLIPPING", f.Has(encode.FeatureClipping)},
		{"CLIP_RECT", f.Has(encode.FeatureClipRect)},
		{"ADVANCED_BLEND", f.Has(encode.FeatureAdvancedBlend)},
		{"EVEN_ODD", f.Has(encode.FeatureEvenOdd)},
		{"NESTED_CLIPPING", f.Has(encode.FeatureClipping | encode.FeatureNestedClipping)},
		{"HSL_BLEND_MODES", f.Has(encode.FeatureAdvancedBlend | encode.FeatureHSLBlendModes)},
	}
}

// Source returns the WGSL for kind specialized to f.
func Source(kind ShaderKind, f encode.Features) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// %s program, features %s\n\n", kind, f)
	for _, fl := range shaderFlags(f) {
		fmt.Fprintf(&b, "const %s: bool = %t;\n", fl.name, fl.on)
	}
	b.WriteString(clipRectWGSL)
	switch kind {
	case ShaderStencil:
		b.WriteString(stencilWGSL)
	case ShaderCover:
		b.WriteString(coverBindingsWGSL)
		if f.Has(encode.FeatureAdvancedBlend) {
			b.WriteString(dstBindingWGSL)
			b.WriteString(advancedBlendWGSL)
			b.WriteString(coverAdvancedMainWGSL)
		} else {
			b.WriteString(coverMainWGSL)
		}
	}
	return b.String()
}

// CompileSPIRV compiles WGSL to little-endian SPIR-V words.
func CompileSPIRV(src string) ([]uint32, error) {
	code, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile shader: %w", err)
	}
	if len(code)%4 != 0 {
		return nil, fmt.Errorf("gpu: compile shader: %d bytes is not a word stream", len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return words, nil
}

// shaderSource returns the hal source for kind, as WGSL or as SPIR-V
// compiled through naga.
func shaderSource(kind ShaderKind, f encode.Features, spirv bool) (hal.ShaderSource, error) {
	src := Source(kind, f)
	if !spirv {
		return hal.ShaderSource{WGSL: src}, nil
	}
	words, err := CompileSPIRV(src)
	if err != nil {
		return hal.ShaderSource{}, fmt.Errorf("%s program: %w", kind, err)
	}
	return hal.ShaderSource{SPIRV: words}, nil
}

const clipRectWGSL = `
fn outside_clip_rect(d: vec4<f32>) -> bool {
    return CLIP_RECT && min(min(d.x, d.y), min(d.z, d.w)) < 0.0;
}
`

const stencilWGSL = `
struct StencilIn {
    @location(0) position: vec4<f32>,
    @location(2) clip_rect: vec4<f32>,
}

struct StencilOut {
    @builtin(position) position: vec4<f32>,
    @location(0) clip_rect: vec4<f32>,
}

@vertex
fn vs_main(in: StencilIn) -> StencilOut {
    var out: StencilOut;
    out.position = in.position;
    out.clip_rect = in.clip_rect;
    return out;
}

@fragment
fn fs_main(in: StencilOut) -> @location(0) vec4<f32> {
    if (outside_clip_rect(in.clip_rect)) {
        discard;
    }
    return vec4<f32>(0.0);
}
`

const coverBindingsWGSL = `
struct Uniforms {
    blend_mode: u32,
    _pad0: u32,
    _pad1: u32,
    _pad2: u32,
}

@group(0) @binding(0) var<uniform> uniforms: Uniforms;
@group(0) @binding(1) var grad_texture: texture_2d<f32>;
@group(0) @binding(2) var image_texture: texture_2d<f32>;
@group(0) @binding(3) var linear_sampler: sampler;

struct CoverIn {
    @location(0) position: vec4<f32>,
    @location(1) paint: vec4<f32>,
    @location(2) clip_rect: vec4<f32>,
}

struct CoverOut {
    @builtin(position) position: vec4<f32>,
    @location(0) paint: vec4<f32>,
    @location(1) clip_rect: vec4<f32>,
}

@vertex
fn vs_main(in: CoverIn) -> CoverOut {
    var out: CoverOut;
    out.position = in.position;
    out.paint = in.paint;
    out.clip_rect = in.clip_rect;
    return out;
}

// Solid paints carry straight rgba. Gradients carry -row in w, the ramp
// span in |z| (radial when z < 0). Images carry uv and opacity with w = -2.
fn find_paint_color(paint: vec4<f32>) -> vec4<f32> {
    let duv_dx = dpdx(paint.xy);
    let duv_dy = dpdy(paint.xy);
    if (paint.w >= 0.0) {
        return paint;
    }
    if (paint.w > -1.0) {
        var t = paint.x;
        if (paint.z < 0.0) {
            t = length(paint.xy);
        }
        t = clamp(t, 0.0, 1.0);
        let span = abs(paint.z);
        let w = f32(textureDimensions(grad_texture).x);
        var u = t / w + span;
        if (span > 1.0) {
            u = t * (1.0 - 1.0 / w) + 0.5 / w;
        }
        return textureSampleLevel(grad_texture, linear_sampler, vec2<f32>(u, -paint.w), 0.0);
    }
    var c = textureSampleGrad(image_texture, linear_sampler, paint.xy, duv_dx, duv_dy);
    c.a = c.a * paint.z;
    return c;
}
`

const coverMainWGSL = `
@fragment
fn fs_main(in: CoverOut) -> @location(0) vec4<f32> {
    let color = find_paint_color(in.paint);
    if (outside_clip_rect(in.clip_rect)) {
        discard;
    }
    return vec4<f32>(color.rgb * color.a, color.a);
}
`

const dstBindingWGSL = `
@group(0) @binding(4) var dst_color_texture: texture_2d<f32>;
`

const advancedBlendWGSL = `
fn hard_light(s: f32, d: f32) -> f32 {
    if (s <= 0.5) {
        return d * 2.0 * s;
    }
    let s2 = 2.0 * s - 1.0;
    return d + s2 - d * s2;
}

fn color_dodge(s: f32, d: f32) -> f32 {
    if (d == 0.0) {
        return 0.0;
    }
    if (s >= 1.0) {
        return 1.0;
    }
    return min(1.0, d / (1.0 - s));
}

fn color_burn(s: f32, d: f32) -> f32 {
    if (d >= 1.0) {
        return 1.0;
    }
    if (s <= 0.0) {
        return 0.0;
    }
    return 1.0 - min(1.0, (1.0 - d) / s);
}

fn soft_light(s: f32, d: f32) -> f32 {
    if (s <= 0.5) {
        return d - (1.0 - 2.0 * s) * d * (1.0 - d);
    }
    var dd = sqrt(d);
    if (d <= 0.25) {
        dd = ((16.0 * d - 12.0) * d + 4.0) * d;
    }
    return d + (2.0 * s - 1.0) * (dd - d);
}

fn blend_channel(mode: u32, s: f32, d: f32) -> f32 {
    switch mode {
        case 1u: { return s + d - s * d; }
        case 2u: { return hard_light(d, s); }
        case 3u: { return min(s, d); }
        case 4u: { return max(s, d); }
        case 5u: { return color_dodge(s, d); }
        case 6u: { return color_burn(s, d); }
        case 7u: { return hard_light(s, d); }
        case 8u: { return soft_light(s, d); }
        case 9u: { return abs(s - d); }
        case 10u: { return s + d - 2.0 * s * d; }
        case 11u: { return s * d; }
        default: { return s; }
    }
}

fn lum(c: vec3<f32>) -> f32 {
    return dot(c, vec3<f32>(0.30, 0.59, 0.11));
}

fn sat(c: vec3<f32>) -> f32 {
    return max(c.r, max(c.g, c.b)) - min(c.r, min(c.g, c.b));
}

fn clip_color(c_in: vec3<f32>) -> vec3<f32> {
    var c = c_in;
    let l = lum(c);
    let n = min(c.r, min(c.g, c.b));
    let x = max(c.r, max(c.g, c.b));
    if (n < 0.0) {
        c = l + (c - l) * (l / (l - n));
    }
    if (x > 1.0) {
        c = l + (c - l) * ((1.0 - l) / (x - l));
    }
    return c;
}

fn set_lum(c: vec3<f32>, l: f32) -> vec3<f32> {
    return clip_color(c + (l - lum(c)));
}

fn set_sat(c: vec3<f32>, s: f32) -> vec3<f32> {
    let lo = min(c.r, min(c.g, c.b));
    let hi = max(c.r, max(c.g, c.b));
    if (hi <= lo) {
        return vec3<f32>(0.0);
    }
    return (c - lo) * (s / (hi - lo));
}

fn blend_hsl(mode: u32, s: vec3<f32>, d: vec3<f32>) -> vec3<f32> {
    switch mode {
        case 12u: { return set_lum(set_sat(s, sat(d)), lum(d)); }
        case 13u: { return set_lum(set_sat(d, sat(s)), lum(d)); }
        case 14u: { return set_lum(s, lum(d)); }
        default: { return set_lum(d, lum(s)); }
    }
}

fn unmultiply(c: vec4<f32>) -> vec4<f32> {
    if (c.a == 0.0) {
        return c;
    }
    return vec4<f32>(min(c.rgb / c.a, vec3<f32>(1.0)), c.a);
}

// src is straight, dst premultiplied; the result is premultiplied.
fn blend_color(src: vec4<f32>, dst: vec4<f32>, mode: u32) -> vec4<f32> {
    let sa = src.a;
    if (mode == 0u || mode > 15u || (mode >= 12u && !HSL_BLEND_MODES)) {
        return vec4<f32>(src.rgb * sa, sa) + dst * (1.0 - sa);
    }
    let d = unmultiply(dst);
    let da = d.a;
    var b: vec3<f32>;
    if (mode >= 12u) {
        b = blend_hsl(mode, src.rgb, d.rgb);
    } else {
        b = vec3<f32>(
            blend_channel(mode, src.r, d.r),
            blend_channel(mode, src.g, d.g),
            blend_channel(mode, src.b, d.b));
    }
    let rgb = src.rgb * (sa * (1.0 - da)) + d.rgb * (da * (1.0 - sa)) + b * (sa * da);
    return vec4<f32>(rgb, sa + da * (1.0 - sa));
}
`

const coverAdvancedMainWGSL = `
@fragment
fn fs_main(in: CoverOut) -> @location(0) vec4<f32> {
    let color = find_paint_color(in.paint);
    if (outside_clip_rect(in.clip_rect)) {
        discard;
    }
    let dst = textureLoad(dst_color_texture, vec2<i32>(floor(in.position.xy)), 0);
    return blend_color(color, dst, uniforms.blend_mode);
}
`

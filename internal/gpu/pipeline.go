//go:build !nogpu

package gpu

import (
	"fmt"
	"sort"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pls/encode"
	"github.com/gogpu/wgpu/hal"
)

// StencilReference is the stencil reference value every pipeline is
// drawn with. Bit 7 of the stencil holds the resident clip; bits 0-6 hold
// the winding number modulo 128.
const (
	StencilReference = 0x80
	stencilClipBit   = 0x80
	stencilWindMask  = 0x7f
)

// DepthStencilFormat is the format of the depth/stencil attachment.
const DepthStencilFormat = gputypes.TextureFormatDepth24PlusStencil8

// Pipeline identifies one fixed-function configuration.
type Pipeline uint8

const (
	// PipelineStencilForward adds +1 for front-facing patch triangles of
	// forward contours.
	PipelineStencilForward Pipeline = iota
	// PipelineStencilMirrored adds -1 for front-facing patch triangles of
	// mirrored contours.
	PipelineStencilMirrored
	// PipelineStencilInterior adds +1 for front and -1 for back faces.
	PipelineStencilInterior
	// PipelineCover paints where the winding passes the fill rule and
	// resets the winding.
	PipelineCover
	// PipelineClipResolve moves the winding test into the clip bit over a
	// full target quad.
	PipelineClipResolve
	// PipelineImageMesh paints a textured mesh.
	PipelineImageMesh
	pipelineCount
)

// String returns the pipeline name.
func (p Pipeline) String() string {
	switch p {
	case PipelineStencilForward:
		return "StencilForward"
	case PipelineStencilMirrored:
		return "StencilMirrored"
	case PipelineStencilInterior:
		return "StencilInterior"
	case PipelineCover:
		return "Cover"
	case PipelineClipResolve:
		return "ClipResolve"
	case PipelineImageMesh:
		return "ImageMesh"
	default:
		return fmt.Sprintf("Pipeline(%d)", p)
	}
}

// Key selects a pipeline within a variant.
type Key struct {
	Pipeline Pipeline
	// Clipped requires the clip bit. For PipelineClipResolve it means the
	// new clip intersects the resident one.
	Clipped bool
	// EvenOdd selects the even-odd test; only cover and clip resolve
	// pipelines have one.
	EvenOdd bool
}

func (k Key) String() string {
	s := k.Pipeline.String()
	if k.Clipped {
		s += "/clipped"
	}
	if k.EvenOdd {
		s += "/evenodd"
	}
	return s
}

// Keys lists the pipelines a variant for f contains.
func Keys(f encode.Features) []Key {
	clipping := f.Has(encode.FeatureClipping)
	nested := f.Has(encode.FeatureClipping | encode.FeatureNestedClipping)
	evenOdd := f.Has(encode.FeatureEvenOdd)

	var keys []Key
	for p := range pipelineCount {
		if p == PipelineClipResolve && !clipping {
			continue
		}
		for _, clipped := range []bool{false, true} {
			if clipped && (p == PipelineClipResolve && !nested || !clipping) {
				continue
			}
			keys = append(keys, Key{Pipeline: p, Clipped: clipped})
			if evenOdd && (p == PipelineCover || p == PipelineClipResolve) {
				keys = append(keys, Key{Pipeline: p, Clipped: clipped, EvenOdd: true})
			}
		}
	}
	return keys
}

func stencilFace(compare gputypes.CompareFunction, pass, fail hal.StencilOperation) hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     compare,
		FailOp:      fail,
		DepthFailOp: fail,
		PassOp:      pass,
	}
}

// depthStencilState returns the depth and stencil configuration of k.
// The compare functions are written against StencilReference.
func depthStencilState(k Key) *hal.DepthStencilState {
	ds := &hal.DepthStencilState{Format: DepthStencilFormat}
	keep := hal.StencilOperationKeep

	clipTest := gputypes.CompareFunctionAlways
	if k.Clipped {
		clipTest = gputypes.CompareFunctionEqual
	}

	switch k.Pipeline {
	case PipelineStencilForward, PipelineStencilMirrored, PipelineStencilInterior:
		op := hal.StencilOperationIncrementWrap
		if k.Pipeline == PipelineStencilMirrored {
			op = hal.StencilOperationDecrementWrap
		}
		ds.DepthCompare = gputypes.CompareFunctionLess
		ds.StencilFront = stencilFace(clipTest, op, keep)
		ds.StencilBack = ds.StencilFront
		if k.Pipeline == PipelineStencilInterior {
			ds.StencilBack = stencilFace(clipTest, hal.StencilOperationDecrementWrap, keep)
		}
		ds.StencilReadMask = stencilClipBit
		ds.StencilWriteMask = stencilWindMask

	case PipelineCover, PipelineClipResolve:
		// (ref & mask) op (stencil & mask), with ref = 0x80:
		//   nonzero             0x00 != s&0x7f
		//   nonzero, clipped    0x80 <  s
		//   even-odd            0x00 != s&0x01
		//   even-odd, clipped   0x80 <  s&0x81
		compare := gputypes.CompareFunctionNotEqual
		if k.Clipped {
			compare = gputypes.CompareFunctionLess
		}
		switch {
		case k.EvenOdd && k.Clipped:
			ds.StencilReadMask = 0x81
		case k.EvenOdd:
			ds.StencilReadMask = 0x01
		case k.Clipped:
			ds.StencilReadMask = 0xff
		default:
			ds.StencilReadMask = stencilWindMask
		}
		if k.Pipeline == PipelineCover {
			zero := hal.StencilOperationZero
			ds.DepthCompare = gputypes.CompareFunctionLess
			ds.DepthWriteEnabled = true
			ds.StencilFront = stencilFace(compare, zero, zero)
			ds.StencilWriteMask = stencilWindMask
		} else {
			ds.DepthCompare = gputypes.CompareFunctionAlways
			ds.StencilFront = stencilFace(compare, hal.StencilOperationReplace, hal.StencilOperationZero)
			ds.StencilWriteMask = 0xff
		}
		ds.StencilBack = ds.StencilFront

	case PipelineImageMesh:
		ds.DepthCompare = gputypes.CompareFunctionLess
		ds.DepthWriteEnabled = true
		ds.StencilFront = stencilFace(clipTest, keep, keep)
		ds.StencilBack = ds.StencilFront
		ds.StencilReadMask = stencilClipBit
	}
	return ds
}

func vertexBuffers(p Pipeline) []gputypes.VertexBufferLayout {
	attrs := []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},
		{Format: gputypes.VertexFormatFloat32x4, Offset: vertexClipRectOffset, ShaderLocation: 2},
	}
	if p == PipelineCover || p == PipelineImageMesh {
		attrs = append(attrs, gputypes.VertexAttribute{
			Format: gputypes.VertexFormatFloat32x4, Offset: vertexPaintOffset, ShaderLocation: 1,
		})
	}
	return []gputypes.VertexBufferLayout{{
		ArrayStride: vertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}}
}

func primitiveState(p Pipeline) gputypes.PrimitiveState {
	s := gputypes.PrimitiveState{
		Topology:  gputypes.PrimitiveTopologyTriangleList,
		FrontFace: gputypes.FrontFaceCCW,
		CullMode:  gputypes.CullModeNone,
	}
	if p == PipelineStencilForward || p == PipelineStencilMirrored {
		s.CullMode = gputypes.CullModeBack
	}
	return s
}

// Variant holds the shader modules and pipelines built for one feature
// set.
type Variant struct {
	features encode.Features
	device   hal.Device

	stencilShader hal.ShaderModule
	coverShader   hal.ShaderModule
	bindLayout    hal.BindGroupLayout
	stencilLayout hal.PipelineLayout
	coverLayout   hal.PipelineLayout
	pipelines     map[Key]hal.RenderPipeline
}

// Features returns the feature set the variant was built for.
func (v *Variant) Features() encode.Features { return v.features }

// Pipeline returns the pipeline for k.
func (v *Variant) Pipeline(k Key) (hal.RenderPipeline, bool) {
	p, ok := v.pipelines[k]
	return p, ok
}

// Keys returns the variant's pipeline keys in a stable order.
func (v *Variant) Keys() []Key {
	keys := make([]Key, 0, len(v.pipelines))
	for k := range v.pipelines {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// BindGroupLayout returns the cover programs' bind group layout.
func (v *Variant) BindGroupLayout() hal.BindGroupLayout { return v.bindLayout }

func newVariant(device hal.Device, format gputypes.TextureFormat, f encode.Features, spirv bool) (*Variant, error) {
	v := &Variant{features: f, device: device, pipelines: make(map[Key]hal.RenderPipeline)}
	if err := v.build(format, spirv); err != nil {
		v.destroy()
		return nil, fmt.Errorf("gpu: variant %s: %w", f, err)
	}
	return v, nil
}

func (v *Variant) build(format gputypes.TextureFormat, spirv bool) error {
	var err error
	if v.stencilShader, err = v.shaderModule(ShaderStencil, spirv); err != nil {
		return err
	}
	if v.coverShader, err = v.shaderModule(ShaderCover, spirv); err != nil {
		return err
	}
	if err = v.createLayouts(); err != nil {
		return err
	}
	for _, k := range Keys(v.features) {
		p, err := v.device.CreateRenderPipeline(v.pipelineDescriptor(k, format))
		if err != nil {
			return fmt.Errorf("create %s pipeline: %w", k, err)
		}
		v.pipelines[k] = p
	}
	return nil
}

func (v *Variant) shaderModule(kind ShaderKind, spirv bool) (hal.ShaderModule, error) {
	src, err := shaderSource(kind, v.features, spirv)
	if err != nil {
		return nil, err
	}
	m, err := v.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "pls_" + kind.String() + "_shader",
		Source: src,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s shader: %w", kind, err)
	}
	return m, nil
}

func (v *Variant) createLayouts() error {
	fragment := gputypes.ShaderStageFragment
	texture := &gputypes.TextureBindingLayout{
		SampleType:    gputypes.TextureSampleTypeFloat,
		ViewDimension: gputypes.TextureViewDimension2D,
	}
	entries := []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | fragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		},
		{Binding: 1, Visibility: fragment, Texture: texture},
		{Binding: 2, Visibility: fragment, Texture: texture},
		{Binding: 3, Visibility: fragment, Sampler: &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}},
	}
	if v.features.Has(encode.FeatureAdvancedBlend) {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    4,
			Visibility: fragment,
			Texture:    texture,
		})
	}

	var err error
	v.bindLayout, err = v.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "pls_cover_bind_layout",
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	v.stencilLayout, err = v.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "pls_stencil_pipe_layout",
	})
	if err != nil {
		return fmt.Errorf("create stencil pipeline layout: %w", err)
	}
	v.coverLayout, err = v.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "pls_cover_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{v.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create cover pipeline layout: %w", err)
	}
	return nil
}

func (v *Variant) pipelineDescriptor(k Key, format gputypes.TextureFormat) *hal.RenderPipelineDescriptor {
	module, layout := v.stencilShader, v.stencilLayout
	target := gputypes.ColorTargetState{Format: format, WriteMask: gputypes.ColorWriteMaskNone}
	if k.Pipeline == PipelineCover || k.Pipeline == PipelineImageMesh {
		module, layout = v.coverShader, v.coverLayout
		target.WriteMask = gputypes.ColorWriteMaskAll
		// Advanced variants blend in the fragment program against the
		// destination copy.
		if !v.features.Has(encode.FeatureAdvancedBlend) {
			premul := gputypes.BlendStatePremultiplied()
			target.Blend = &premul
		}
	}
	return &hal.RenderPipelineDescriptor{
		Label:  "pls_" + k.String(),
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    vertexBuffers(k.Pipeline),
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets:    []gputypes.ColorTargetState{target},
		},
		DepthStencil: depthStencilState(k),
		Multisample:  gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		Primitive:    primitiveState(k.Pipeline),
	}
}

func (v *Variant) destroy() {
	if v.device == nil {
		return
	}
	for k, p := range v.pipelines {
		v.device.DestroyRenderPipeline(p)
		delete(v.pipelines, k)
	}
	if v.coverLayout != nil {
		v.device.DestroyPipelineLayout(v.coverLayout)
		v.coverLayout = nil
	}
	if v.stencilLayout != nil {
		v.device.DestroyPipelineLayout(v.stencilLayout)
		v.stencilLayout = nil
	}
	if v.bindLayout != nil {
		v.device.DestroyBindGroupLayout(v.bindLayout)
		v.bindLayout = nil
	}
	if v.coverShader != nil {
		v.device.DestroyShaderModule(v.coverShader)
		v.coverShader = nil
	}
	if v.stencilShader != nil {
		v.device.DestroyShaderModule(v.stencilShader)
		v.stencilShader = nil
	}
}

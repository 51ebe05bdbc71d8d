package pls

import (
	"image/color"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pls/render"
)

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := pls.New(800, 600,
//	    pls.WithMode(pls.ModeDepthStencil),
//	    pls.WithClearColor(color.White))
type Option func(*options)

type options struct {
	mode        Mode
	features    Features
	granularity uint32
	workers     int
	load        LoadAction
	clear       color.NRGBA
	format      gputypes.TextureFormat
	device      render.DeviceHandle
	discard     float32
	bottomUp    bool
}

func defaultOptions() options {
	return options{
		mode:        ModeAuto,
		features:    AllFeatures,
		granularity: 1,
		load:        LoadClear,
		format:      gputypes.TextureFormatUndefined, // from the host, else RGBA8
		discard:     float32(math.NaN()),
	}
}

// WithMode forces a backend. The default, ModeAuto, lets SelectMode
// decide.
func WithMode(m Mode) Option {
	return func(o *options) { o.mode = m }
}

// WithFeatures limits the features flushes may use. Bits a flush requests
// beyond this mask are dropped with a warning. Defaults to AllFeatures.
func WithFeatures(f Features) Option {
	return func(o *options) { o.features = f }
}

// WithPathIDGranularity sets the spacing of encoded path ids for builders
// made by NewBuilder. Larger values survive lower-precision coverage
// storage at the cost of fewer ids per flush.
func WithPathIDGranularity(g uint32) Option {
	return func(o *options) { o.granularity = g }
}

// WithWorkers sets the number of raster workers. 0 uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLoadAction selects whether each flush clears the color target or
// keeps the previous flush's content.
func WithLoadAction(a LoadAction) Option {
	return func(o *options) { o.load = a }
}

// WithClearColor sets the color LoadClear fills the target with.
func WithClearColor(c color.Color) Option {
	return func(o *options) { o.clear = color.NRGBAModel.Convert(c).(color.NRGBA) }
}

// WithTargetFormat sets the output format. BGRA8Unorm swaps red and blue
// in the returned images.
func WithTargetFormat(f gputypes.TextureFormat) Option {
	return func(o *options) { o.format = f }
}

// WithDeviceHandle attaches the host's GPU device. The depth/stencil
// pipeline variants are then built on it.
func WithDeviceHandle(h render.DeviceHandle) Option {
	return func(o *options) { o.device = h }
}

// WithVertexDiscardValue sets the value written to a discarded vertex's
// position for builders made by NewBuilder. It must be non-finite.
func WithVertexDiscardValue(v float32) Option {
	return func(o *options) { o.discard = v }
}

// WithFragCoordBottomUp flips fragment y before paint transforms, for
// hosts whose window origin is bottom-left.
func WithFragCoordBottomUp(on bool) Option {
	return func(o *options) { o.bottomUp = on }
}

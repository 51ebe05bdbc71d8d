package pls

import (
	"errors"

	"github.com/gogpu/pls/encode"
	"github.com/gogpu/pls/internal/raster"
)

// Features is the capability bitset pipeline variants are built for.
type Features = encode.Features

// Feature bits.
const (
	FeatureClipping       = encode.FeatureClipping
	FeatureClipRect       = encode.FeatureClipRect
	FeatureAdvancedBlend  = encode.FeatureAdvancedBlend
	FeatureEvenOdd        = encode.FeatureEvenOdd
	FeatureNestedClipping = encode.FeatureNestedClipping
	FeatureHSLBlendModes  = encode.FeatureHSLBlendModes
	AllFeatures           = encode.AllFeatures
)

// LoadAction selects how a pass starts the color target.
type LoadAction = raster.LoadAction

// Load actions.
const (
	LoadClear    = raster.LoadClear
	LoadPreserve = raster.LoadPreserve
)

// Stats are the renderer's pipeline counters.
type Stats = raster.Snapshot

// Errors returned by flush validation.
var (
	ErrInvalidPathID      = encode.ErrInvalidPathID
	ErrInvalidPaintType   = encode.ErrInvalidPaintType
	ErrMissingResource    = encode.ErrMissingResource
	ErrInvalidGranularity = encode.ErrInvalidGranularity
	ErrInvalidTarget      = encode.ErrInvalidTarget
)

var (
	// ErrModeUnsupported is returned when a forced mode cannot run on the
	// host.
	ErrModeUnsupported = errors.New("pls: mode not supported")

	// ErrClosed is returned by a renderer after Close.
	ErrClosed = errors.New("pls: renderer closed")
)

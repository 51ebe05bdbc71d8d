package pls

import (
	"fmt"

	"github.com/gogpu/pls/render"
)

// Mode selects the raster backend.
type Mode int

const (
	// ModeAuto picks pixel local storage when the host has it and the
	// depth/stencil fallback otherwise.
	ModeAuto Mode = iota

	// ModePLS forces emulated pixel local storage.
	ModePLS

	// ModeDepthStencil forces the stencil-then-cover fallback.
	ModeDepthStencil
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "Auto"
	case ModePLS:
		return "PLS"
	case ModeDepthStencil:
		return "DepthStencil"
	default:
		return "Unknown"
	}
}

// SelectMode resolves requested against the host capabilities.
//
// Heuristics:
//   - Auto prefers PLS: it anti-aliases edges and needs no stencil pass.
//   - Auto falls back to depth/stencil when PLS is not available.
//   - A forced mode the host cannot run is an error.
func SelectMode(requested Mode, caps render.Capabilities) (Mode, error) {
	switch requested {
	case ModeAuto:
		if caps.PixelLocalStorage {
			return ModePLS, nil
		}
		if caps.DepthStencil {
			return ModeDepthStencil, nil
		}
	case ModePLS:
		if caps.PixelLocalStorage {
			return ModePLS, nil
		}
	case ModeDepthStencil:
		if caps.DepthStencil {
			return ModeDepthStencil, nil
		}
	}
	return requested, fmt.Errorf("%w: %s", ErrModeUnsupported, requested)
}

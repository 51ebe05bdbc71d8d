package pls

import (
	"errors"
	"testing"

	"github.com/gogpu/pls/render"
)

func TestModeString(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeAuto, "Auto"},
		{ModePLS, "PLS"},
		{ModeDepthStencil, "DepthStencil"},
		{Mode(9), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("Mode(%d).String() = %q, want %q", int(tt.mode), got, tt.want)
		}
	}
}

func TestSelectMode(t *testing.T) {
	cpu := render.Capabilities{PixelLocalStorage: true, DepthStencil: true}
	device := render.Capabilities{DepthStencil: true, Device: true}
	none := render.Capabilities{}

	tests := []struct {
		name      string
		requested Mode
		caps      render.Capabilities
		want      Mode
		wantErr   bool
	}{
		{"auto prefers PLS", ModeAuto, cpu, ModePLS, false},
		{"auto falls back", ModeAuto, device, ModeDepthStencil, false},
		{"auto without anything", ModeAuto, none, ModeAuto, true},
		{"forced PLS", ModePLS, cpu, ModePLS, false},
		{"forced PLS unsupported", ModePLS, device, ModePLS, true},
		{"forced depth stencil", ModeDepthStencil, cpu, ModeDepthStencil, false},
		{"forced depth stencil unsupported", ModeDepthStencil, none, ModeDepthStencil, true},
		{"unknown mode", Mode(7), cpu, Mode(7), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectMode(tt.requested, tt.caps)
			if tt.wantErr {
				if !errors.Is(err, ErrModeUnsupported) {
					t.Fatalf("err = %v, want ErrModeUnsupported", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("mode = %v, want %v", got, tt.want)
			}
		})
	}
}

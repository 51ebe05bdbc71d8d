package raster

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/pls/encode"
)

func TestNewTargetRejectsEmpty(t *testing.T) {
	for _, sz := range [][2]int{{0, 4}, {4, 0}, {-1, -1}} {
		if _, err := NewTarget(sz[0], sz[1], false); !errors.Is(err, encode.ErrInvalidTarget) {
			t.Errorf("NewTarget(%d, %d) error = %v", sz[0], sz[1], err)
		}
	}
}

func TestBeginClearAndResolve(t *testing.T) {
	tg, err := NewTarget(4, 2, true)
	if err != nil {
		t.Fatal(err)
	}
	tg.Begin(LoadClear, color.NRGBA{R: 255, A: 128})

	want := color.RGBA{R: 128, A: 128}
	if got := tg.Resolve(false).RGBAAt(3, 1); got != want {
		t.Errorf("RGBA resolve = %v, want %v", got, want)
	}
	if got := tg.Resolve(true).RGBAAt(0, 0); got != (color.RGBA{B: 128, A: 128}) {
		t.Errorf("BGRA resolve = %v", got)
	}
	for i := range tg.depth {
		if tg.depth[i] != 1 || tg.stencil[i] != 0 {
			t.Fatalf("depth/stencil at %d = %v/%v", i, tg.depth[i], tg.stencil[i])
		}
	}

	tg.coverage[0] = 7
	tg.Begin(LoadPreserve, color.NRGBA{G: 255, A: 255})
	if got := tg.Resolve(false).RGBAAt(0, 0); got != want {
		t.Errorf("preserved color = %v, want %v", got, want)
	}
	if tg.coverage[0] != 0 {
		t.Error("coverage plane not cleared")
	}
}

func TestLoad(t *testing.T) {
	tg, err := NewTarget(2, 2, false)
	if err != nil {
		t.Fatal(err)
	}
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.SetRGBA(1, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	tg.Load(src)
	if got := tg.Resolve(false).RGBAAt(1, 1); got != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("loaded pixel = %v", got)
	}
}

func TestLoadActionString(t *testing.T) {
	if LoadClear.String() != "Clear" || LoadPreserve.String() != "Preserve" || LoadAction(9).String() != "Unknown" {
		t.Error("LoadAction names wrong")
	}
}

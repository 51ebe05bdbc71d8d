package raster

import (
	"github.com/gogpu/pls/encode"
	"github.com/gogpu/pls/internal/paint"
	"github.com/gogpu/pls/internal/vertex"
	"golang.org/x/image/math/f32"
)

// RenderRamp renders color ramp spans into a new gradient texture of
// rows rows. Each span is a quad drawn with the ramp vertex program;
// colors interpolate across it.
func RenderRamp(spans []encode.ColorRampSpan, rows uint32, gradInverseViewportY float32) *paint.GradientTexture {
	tex := paint.NewGradientTexture(encode.GradTextureWidth, int(rows))
	if rows == 0 || gradInverseViewportY == 0 {
		return tex
	}
	w, h := tex.Width(), tex.Rows()
	for _, s := range spans {
		var pos, col [4]f32.Vec4
		for id := range pos {
			pos[id], col[id] = vertex.ColorRampVertex(s, uint32(id), gradInverseViewportY)
		}
		idx := vertex.RampStripIndices
		for k := 0; k < len(idx); k += 3 {
			a, b, c := idx[k], idx[k+1], idx[k+2]
			t, r := setupTriangle([3]f32.Vec4{pos[a], pos[b], pos[c]}, w, h, false)
			if r != setupOK {
				continue
			}
			for y := t.bounds.Min.Y; y < t.bounds.Max.Y; y++ {
				for x := t.bounds.Min.X; x < t.bounds.Max.X; x++ {
					if bw, ok := t.weights(x, y); ok {
						tex.Set(x, y, lerp4(bw, col[a], col[b], col[c]))
					}
				}
			}
		}
	}
	slogger().Debug("raster: rendered color ramps", "spans", len(spans), "rows", rows)
	return tex
}

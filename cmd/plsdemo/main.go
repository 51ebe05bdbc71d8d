// Command plsdemo renders a sample scene with the pls rasterizer and
// writes it as a PNG.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/chewxy/math32"
	"github.com/gogpu/pls"
	"github.com/gogpu/pls/encode"
	"golang.org/x/image/math/f32"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func main() {
	var (
		width   = flag.Int("width", 800, "image width")
		height  = flag.Int("height", 600, "image height")
		output  = flag.String("output", "pls.png", "output file")
		mode    = flag.String("mode", "auto", "raster mode: auto, pls or ds")
		workers = flag.Int("workers", 0, "raster workers, 0 for GOMAXPROCS")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		pls.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	m, err := parseMode(*mode)
	if err != nil {
		log.Fatal(err)
	}
	r, err := pls.New(*width, *height,
		pls.WithMode(m),
		pls.WithWorkers(*workers),
		pls.WithClearColor(color.NRGBA{R: 24, G: 26, B: 32, A: 255}))
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}
	defer r.Close()

	b := r.NewBuilder()
	if err := drawScene(b, float32(*width), float32(*height)); err != nil {
		log.Fatalf("Failed to encode scene: %v", err)
	}
	f, err := b.Finish()
	if err != nil {
		log.Fatalf("Failed to finish flush: %v", err)
	}
	img, err := r.Flush(f)
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}

	out, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		log.Fatalf("Failed to save: %v", err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	s := r.Stats()
	p := message.NewPrinter(language.English)
	p.Printf("%s: %dx%d, %s mode, %d draws\n", *output, *width, *height, r.Mode(), len(f.Draws))
	p.Printf("  triangles  %d (culled %d)\n", s.Triangles, s.TrianglesCulled)
	p.Printf("  fragments  %d (interlocked %d)\n", s.Fragments, s.InterlockedFragments)
	p.Printf("  variants   %d\n", r.Variants())
}

func parseMode(s string) (pls.Mode, error) {
	switch s {
	case "auto":
		return pls.ModeAuto, nil
	case "pls":
		return pls.ModePLS, nil
	case "ds", "depthstencil":
		return pls.ModeDepthStencil, nil
	}
	return pls.ModeAuto, fmt.Errorf("unknown mode %q", s)
}

func drawScene(b *encode.Builder, w, h float32) error {
	// Background gradient.
	bg := encode.Paint{
		Type:  encode.PaintTypeLinearGradient,
		Start: f32.Vec2{0, 0},
		End:   f32.Vec2{0, h},
		Stops: []encode.GradientStop{
			{T: 0, Color: color.NRGBA{R: 40, G: 60, B: 110, A: 255}},
			{T: 0.6, Color: color.NRGBA{R: 90, G: 60, B: 120, A: 255}},
			{T: 1, Color: color.NRGBA{R: 160, G: 90, B: 80, A: 255}},
		},
	}
	if _, err := b.Fill(geometry(rect(0, 0, w, h)), encode.NonZero, bg); err != nil {
		return err
	}

	// Overlapping translucent circles.
	for i, c := range []color.NRGBA{
		{R: 255, G: 80, B: 80, A: 200},
		{R: 80, G: 255, B: 80, A: 200},
		{R: 80, G: 80, B: 255, A: 200},
	} {
		cx := w*0.2 + float32(i%2)*w*0.06
		cy := h*0.25 + float32(i/2)*h*0.08
		if _, err := b.Fill(geometry(circle(cx, cy, h*0.1, 48)), encode.NonZero, encode.Solid(c)); err != nil {
			return err
		}
	}

	// Even-odd star with a radial gradient.
	star := encode.Paint{
		Type:   encode.PaintTypeRadialGradient,
		Center: f32.Vec2{w * 0.5, h * 0.3},
		Radius: h * 0.18,
		Stops: []encode.GradientStop{
			{T: 0, Color: color.NRGBA{R: 255, G: 240, B: 120, A: 255}},
			{T: 1, Color: color.NRGBA{R: 255, G: 120, B: 0, A: 255}},
		},
	}
	if _, err := b.Fill(geometry(starPoints(w*0.5, h*0.3, h*0.18, 5)), encode.EvenOdd, star); err != nil {
		return err
	}

	// Multiply blended square.
	mul := encode.Paint{Type: encode.PaintTypeSolid, Color: color.NRGBA{R: 255, G: 200, B: 0, A: 255}, Blend: encode.BlendMultiply}
	if _, err := b.Fill(geometry(rect(w*0.7, h*0.12, w*0.9, h*0.42)), encode.NonZero, mul); err != nil {
		return err
	}

	// Nested clip: the full canvas, then a circle. Stripes only show
	// inside the circle.
	if err := b.PushClip(geometry(rect(0, 0, w, h)), encode.NonZero); err != nil {
		return err
	}
	if err := b.PushClip(geometry(circle(w*0.5, h*0.72, h*0.2, 64)), encode.NonZero); err != nil {
		return err
	}
	for i := 0; i < 12; i++ {
		x := w*0.3 + float32(i)*w*0.04
		c := color.NRGBA{R: uint8(40 + i*18), G: 200, B: uint8(255 - i*18), A: 255}
		if _, err := b.Fill(geometry(rect(x, h*0.45, x+w*0.02, h)), encode.NonZero, encode.Solid(c)); err != nil {
			return err
		}
	}
	b.PopClip()
	b.PopClip()

	// Stroked outline around the clipped area.
	outline := circle(w*0.5, h*0.72, h*0.2, 64)[0]
	_, err := b.Stroke(outline, true, 4, encode.Solid(color.NRGBA{R: 255, G: 255, B: 255, A: 230}))
	return err
}

func geometry(contours [][]f32.Vec2) encode.Geometry {
	return encode.Geometry{Contours: contours}
}

func rect(x0, y0, x1, y1 float32) [][]f32.Vec2 {
	return [][]f32.Vec2{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}}
}

func circle(cx, cy, r float32, n int) [][]f32.Vec2 {
	pts := make([]f32.Vec2, n)
	for i := range pts {
		a := 2 * math32.Pi * float32(i) / float32(n)
		pts[i] = f32.Vec2{cx + r*math32.Cos(a), cy + r*math32.Sin(a)}
	}
	return [][]f32.Vec2{pts}
}

// starPoints connects every second vertex of an n-gon, so even-odd leaves
// the center open.
func starPoints(cx, cy, r float32, n int) [][]f32.Vec2 {
	pts := make([]f32.Vec2, n)
	for i := range pts {
		a := -math32.Pi/2 + 2*math32.Pi*float32(i*2%n)/float32(n)
		pts[i] = f32.Vec2{cx + r*math32.Cos(a), cy + r*math32.Sin(a)}
	}
	return [][]f32.Vec2{pts}
}

// Package render draws a wireframe overlay of a scene as seen through a
// viewport into a half-block terminal framebuffer.
package render

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/taigrr/viewnudge/pkg/math3d"
)

// Framebuffer holds overlay pixels. Two framebuffer rows share one terminal
// row, drawn as a ▀ half block.
//
// SetPixel, GetPixel and DrawLine address raster pixels with row 0 at the
// top. The helpers taking a math3d.Vec2 use viewport pixels instead, with
// the origin at the bottom-left as returned by viewport.WorldToScreen.
type Framebuffer struct {
	Width  int          // Terminal columns
	Height int          // 2x terminal rows
	Pixels []color.RGBA // Row-major, top row first
}

// NewFramebuffer creates a framebuffer of width x height pixels.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
	}
}

// Resize reallocates the pixels if the size changed.
func (fb *Framebuffer) Resize(width, height int) {
	if width == fb.Width && height == fb.Height {
		return
	}
	fb.Width, fb.Height = width, height
	fb.Pixels = make([]color.RGBA, width*height)
}

// Clear fills every pixel with c.
func (fb *Framebuffer) Clear(c color.RGBA) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
	}
}

// SetPixel sets the raster pixel (x, y). Out of bounds writes are dropped.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// GetPixel returns the raster pixel (x, y), or transparent black outside the
// framebuffer.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// DrawLine draws a raster line with Bresenham's algorithm.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		fb.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// raster flips a viewport pixel to raster orientation.
func (fb *Framebuffer) raster(p math3d.Vec2) math3d.Vec2 {
	return math3d.V2(p.X, float64(fb.Height)-p.Y)
}

// Plot sets the pixel under the viewport point p.
func (fb *Framebuffer) Plot(p math3d.Vec2, c color.RGBA) {
	r := fb.raster(p)
	fb.SetPixel(round(r.X), round(r.Y), c)
}

// DrawSegment draws the viewport segment a-b. Endpoints may lie far outside
// the framebuffer; the segment is clipped before rasterizing.
func (fb *Framebuffer) DrawSegment(a, b math3d.Vec2, c color.RGBA) {
	if fb.Width == 0 || fb.Height == 0 {
		return
	}
	ra, rb, ok := clipSegment(fb.raster(a), fb.raster(b), float64(fb.Width-1), float64(fb.Height-1))
	if !ok {
		return
	}
	fb.DrawLine(round(ra.X), round(ra.Y), round(rb.X), round(rb.Y), c)
}

// DrawCross draws a + of half size r centered on the viewport point p.
func (fb *Framebuffer) DrawCross(p math3d.Vec2, r int, c color.RGBA) {
	q := fb.raster(p)
	x, y := round(q.X), round(q.Y)
	fb.DrawLine(x-r, y, x+r, y, c)
	fb.DrawLine(x, y-r, x, y+r, c)
}

// DrawSquare draws the outline of a square of half size r centered on the
// viewport point p.
func (fb *Framebuffer) DrawSquare(p math3d.Vec2, r int, c color.RGBA) {
	q := fb.raster(p)
	x, y := round(q.X), round(q.Y)
	for i := -r; i <= r; i++ {
		fb.SetPixel(x+i, y-r, c)
		fb.SetPixel(x+i, y+r, c)
		fb.SetPixel(x-r, y+i, c)
		fb.SetPixel(x+r, y+i, c)
	}
}

// ToImage copies the framebuffer into an image, top row first.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for i, p := range fb.Pixels {
		img.Pix[4*i], img.Pix[4*i+1], img.Pix[4*i+2], img.Pix[4*i+3] = p.R, p.G, p.B, p.A
	}
	return img
}

// SavePNG writes the framebuffer to path as a PNG.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, fb.ToImage()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// clipSegment clips a-b to [0,maxX]x[0,maxY] (Liang-Barsky). A clipped
// endpoint lands exactly on the edge that clipped it.
func clipSegment(a, b math3d.Vec2, maxX, maxY float64) (math3d.Vec2, math3d.Vec2, bool) {
	d := b.Sub(a)
	t0, t1 := 0.0, 1.0
	e0, e1 := -1, -1
	edges := [4][2]float64{
		{-d.X, a.X},
		{d.X, maxX - a.X},
		{-d.Y, a.Y},
		{d.Y, maxY - a.Y},
	}
	for i, edge := range edges {
		p, q := edge[0], edge[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return a, b, false
			}
			if r > t0 {
				t0, e0 = r, i
			}
		} else {
			if r < t0 {
				return a, b, false
			}
			if r < t1 {
				t1, e1 = r, i
			}
		}
	}

	snap := func(p math3d.Vec2, edge int) math3d.Vec2 {
		switch edge {
		case 0:
			p.X = 0
		case 1:
			p.X = maxX
		case 2:
			p.Y = 0
		case 3:
			p.Y = maxY
		}
		return p
	}
	ca, cb := a, b
	if e0 >= 0 {
		ca = snap(a.Add(d.Scale(t0)), e0)
	}
	if e1 >= 0 {
		cb = snap(a.Add(d.Scale(t1)), e1)
	}
	return ca, cb, true
}

func round(f float64) int {
	return int(math.Round(f))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

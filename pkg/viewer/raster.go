package viewer

import (
	"image"
	"image/color"
	"math"

	"github.com/philipparndt/goknife/pkg/geometry"
)

// point is a projected vertex: screen pixels plus view depth
type point struct {
	x, y, z float64
}

// frame is a color buffer with a depth buffer of the same size
type frame struct {
	img   *image.RGBA
	depth []float64
}

func newFrame(width, height int, background color.RGBA) *frame {
	f := &frame{
		img:   image.NewRGBA(image.Rect(0, 0, max(width, 1), max(height, 1))),
		depth: make([]float64, max(width, 1)*max(height, 1)),
	}
	for i := range f.depth {
		f.depth[i] = math.Inf(1)
	}
	pix := f.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = background.R, background.G, background.B, background.A
	}
	return f
}

// plot sets a pixel if z passes the depth test
func (f *frame) plot(x, y int, z float64, col color.RGBA) {
	bounds := f.img.Bounds()
	if x < 0 || y < 0 || x >= bounds.Max.X || y >= bounds.Max.Y {
		return
	}
	idx := y*bounds.Max.X + x
	if z < f.depth[idx] {
		f.depth[idx] = z
		f.img.SetRGBA(x, y, col)
	}
}

// fillTriangle fills a triangle with depth testing using a scanline walk
func (f *frame) fillTriangle(a, b, c point, col color.RGBA) {
	// Sort vertices by Y coordinate (top to bottom)
	if a.y > b.y {
		a, b = b, a
	}
	if b.y > c.y {
		b, c = c, b
	}
	if a.y > b.y {
		a, b = b, a
	}

	bounds := f.img.Bounds()
	edges := [3][2]point{{a, b}, {b, c}, {a, c}}

	for y := int(math.Max(0, math.Ceil(a.y))); y <= int(math.Min(float64(bounds.Max.Y-1), c.y)); y++ {
		fy := float64(y)

		var xs, zs [2]float64
		found := 0
		for _, e := range edges {
			p, q := e[0], e[1]
			if p.y == q.y || fy < p.y || fy > q.y || found == 2 {
				continue
			}
			t := (fy - p.y) / (q.y - p.y)
			xs[found] = p.x + t*(q.x-p.x)
			zs[found] = p.z + t*(q.z-p.z)
			found++
		}
		if found < 2 {
			continue
		}

		// Ensure xStart < xEnd
		if xs[0] > xs[1] {
			xs[0], xs[1] = xs[1], xs[0]
			zs[0], zs[1] = zs[1], zs[0]
		}

		for x := int(math.Max(0, math.Ceil(xs[0]))); x <= int(math.Min(float64(bounds.Max.X-1), xs[1])); x++ {
			t := 0.0
			if xs[1] != xs[0] {
				t = (float64(x) - xs[0]) / (xs[1] - xs[0])
			}
			f.plot(x, y, zs[0]+t*(zs[1]-zs[0]), col)
		}
	}
}

// depthLine draws a line with depth testing. bias pulls the line towards
// the viewer so edges win against their own faces.
func (f *frame) depthLine(a, b point, bias float64, col color.RGBA) {
	steps := int(math.Max(math.Abs(b.x-a.x), math.Abs(b.y-a.y)))
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		x := a.x + t*(b.x-a.x)
		y := a.y + t*(b.y-a.y)
		z := a.z + t*(b.z-a.z) - bias
		f.plot(int(math.Round(x)), int(math.Round(y)), z, col)
	}
}

// line draws an overlay line using Bresenham's algorithm, ignoring depth
func (f *frame) line(p, q geometry.Vector2, col color.RGBA) {
	x1, y1 := int(math.Round(p.X)), int(math.Round(p.Y))
	x2, y2 := int(math.Round(q.X)), int(math.Round(q.Y))
	bounds := f.img.Bounds()

	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	sx, sy := -1, -1
	if x1 < x2 {
		sx = 1
	}
	if y1 < y2 {
		sy = 1
	}

	err := dx - dy

	for {
		if x1 >= 0 && x1 < bounds.Max.X && y1 >= 0 && y1 < bounds.Max.Y {
			f.img.SetRGBA(x1, y1, col)
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// dot draws a filled square marker centered on p
func (f *frame) dot(p geometry.Vector2, radius int, col color.RGBA) {
	cx, cy := int(math.Round(p.X)), int(math.Round(p.Y))
	bounds := f.img.Bounds()
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			if x >= 0 && x < bounds.Max.X && y >= 0 && y < bounds.Max.Y {
				f.img.SetRGBA(x, y, col)
			}
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

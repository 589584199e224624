package viewer

import (
	"image"
	"image/color"
	"math"

	"github.com/philipparndt/goknife/internal/cutgraph"
	"github.com/philipparndt/goknife/internal/knife"
	"github.com/philipparndt/goknife/internal/scene"
	"github.com/philipparndt/goknife/pkg/geometry"
)

var (
	background    = color.RGBA{30, 30, 34, 255}
	faceColor     = color.RGBA{150, 160, 175, 255}
	selectedColor = color.RGBA{230, 150, 60, 255}
	edgeColor     = color.RGBA{40, 40, 48, 255}
	cutColor      = color.RGBA{240, 70, 60, 255}
	invalidColor  = color.RGBA{120, 120, 120, 255}
	hitColor      = color.RGBA{255, 220, 60, 255}
	cursorColor   = color.RGBA{80, 220, 120, 255}
	pendingColor  = color.RGBA{255, 255, 255, 255}
)

// shade scales a color by the lighting factor
func shade(c color.RGBA, light float64) color.RGBA {
	light = 0.35 + 0.65*math.Max(0, math.Min(1, light))
	return color.RGBA{uint8(float64(c.R) * light), uint8(float64(c.G) * light), uint8(float64(c.B) * light), c.A}
}

// Draw renders the objects and, when tool is not nil, the pending cut into a
// width x height image. The camera viewport is scaled to the image size.
func Draw(cam *Camera, objects []*scene.Object, tool *knife.Tool, width, height int) *image.RGBA {
	f := newFrame(width, height, background)
	scale := float64(width) / float64(max(cam.Width, 1))
	project := func(p geometry.Vector3) (point, bool) {
		s, depth, ok := cam.Project(p)
		return point{s.X * scale, s.Y * scale, depth}, ok
	}
	bias := 1e-3 * math.Max(cam.Distance, 1)
	view := cam.ViewDir()

	for _, obj := range objects {
		m := obj.Mesh
		for _, face := range m.Faces() {
			if m.FaceHidden(face) {
				continue
			}
			col := faceColor
			if m.FaceSelected(face) {
				col = selectedColor
			}
			col = shade(col, math.Abs(obj.WorldFaceNormal(face).Dot(view)))
			for _, tri := range m.FaceTriangles(face) {
				a, okA := project(obj.WorldPosition(tri[0]))
				b, okB := project(obj.WorldPosition(tri[1]))
				c, okC := project(obj.WorldPosition(tri[2]))
				if okA && okB && okC {
					f.fillTriangle(a, b, c, col)
				}
			}
		}
		for _, e := range m.Edges() {
			ends := m.EdgeVerts(e)
			a, okA := project(obj.WorldPosition(ends[0]))
			b, okB := project(obj.WorldPosition(ends[1]))
			if !okA || !okB {
				continue
			}
			col := edgeColor
			if m.EdgeSelected(e) {
				col = selectedColor
			}
			f.depthLine(a, b, bias, col)
		}
	}

	if tool != nil {
		drawCut(f, tool, scale)
	}
	return f.img
}

func drawCut(f *frame, tool *knife.Tool, scale float64) {
	g := tool.Graph()
	onScreen := func(p geometry.Vector2) geometry.Vector2 { return p.Mul(scale) }
	screenOf := func(ref cutgraph.VertRef) (geometry.Vector2, bool) {
		v := g.Vert(ref)
		if v == nil {
			return geometry.Vector2{}, false
		}
		return tool.Project(v.Cage)
	}

	for _, ref := range g.Edges() {
		e := g.Edge(ref)
		if !e.IsCut && !e.IsInvalid {
			continue
		}
		a, okA := screenOf(e.V1)
		b, okB := screenOf(e.V2)
		if !okA || !okB {
			continue
		}
		col := cutColor
		if e.IsInvalid {
			col = invalidColor
		}
		f.line(onScreen(a), onScreen(b), col)
	}
	for _, ref := range g.Verts() {
		if v := g.Vert(ref); v.IsNew() && (v.IsCut || v.IsSplitting) {
			if s, ok := screenOf(ref); ok {
				f.dot(onScreen(s), 2, cutColor)
			}
		}
	}

	for _, h := range tool.Hits() {
		f.dot(onScreen(h.Screen), 2, hitColor)
	}

	cur := tool.Cursor()
	if prev, ok := tool.Previous(); ok && tool.State() == knife.StateIdle {
		f.line(onScreen(prev.Screen), onScreen(cur.Screen), pendingColor)
	}
	col := cursorColor
	if !cur.OnMesh {
		col = invalidColor
	}
	f.dot(onScreen(cur.Screen), 3, col)
}

package mesh

import (
	"math"

	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/philipparndt/goknife/pkg/stl"
)

// DefaultWeldTolerance merges STL corners closer than this distance
const DefaultWeldTolerance = 1e-6

// FromSTL builds a mesh from an STL model, welding coincident corners so
// neighboring triangles share edges. Degenerate triangles are dropped.
func FromSTL(model *stl.Model, tolerance float64) *Mesh {
	if tolerance <= 0 {
		tolerance = DefaultWeldTolerance
	}
	m := New(model.Name)
	index := make(map[[3]int64]VertID)

	weld := func(p geometry.Vector3) VertID {
		key := [3]int64{
			int64(math.Round(p.X / tolerance)),
			int64(math.Round(p.Y / tolerance)),
			int64(math.Round(p.Z / tolerance)),
		}
		if v, ok := index[key]; ok {
			return v
		}
		v := m.AddVertex(p)
		index[key] = v
		return v
	}

	for _, t := range model.Triangles {
		a, b, c := weld(t.V1), weld(t.V2), weld(t.V3)
		if a == b || b == c || a == c {
			continue
		}
		if _, err := m.AddFace(a, b, c); err != nil {
			continue
		}
	}
	return m
}

// ToSTL triangulates every visible face into an STL model
func (m *Mesh) ToSTL() *stl.Model {
	model := &stl.Model{Name: m.Name}
	for _, f := range m.Faces() {
		normal := m.FaceNormal(f)
		for _, tri := range m.FaceTriangles(f) {
			model.Triangles = append(model.Triangles, geometry.Triangle{
				Normal: normal,
				V1:     m.Position(tri[0]),
				V2:     m.Position(tri[1]),
				V3:     m.Position(tri[2]),
			})
		}
	}
	return model
}

// Bounds returns the bounding box of the live vertices
func (m *Mesh) Bounds() geometry.BoundingBox {
	box := geometry.NewBoundingBox()
	for _, v := range m.Verts() {
		box.Extend(m.Position(v))
	}
	return box
}

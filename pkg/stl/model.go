package stl

import (
	"errors"

	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/samber/lo"
)

// ErrInvalidSTL is returned for streams that are neither valid ASCII nor binary STL
var ErrInvalidSTL = errors.New("invalid STL data")

// Model is a triangle soup as stored in an STL file. Cutting happens on the
// welded mesh built from it.
type Model struct {
	Name      string
	Triangles []geometry.Triangle
}

// NewModel creates an empty model
func NewModel(name string) *Model {
	return &Model{Name: name}
}

// AddTriangle appends a triangle
func (m *Model) AddTriangle(triangle geometry.Triangle) {
	m.Triangles = append(m.Triangles, triangle)
}

// TriangleCount returns the number of triangles in the model
func (m *Model) TriangleCount() int {
	return len(m.Triangles)
}

// BoundingBox returns the box around all triangle corners
func (m *Model) BoundingBox() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for _, t := range m.Triangles {
		bbox.Union(t.Bounds())
	}
	return bbox
}

// SurfaceArea sums the triangle areas
func (m *Model) SurfaceArea() float64 {
	return lo.SumBy(m.Triangles, func(t geometry.Triangle) float64 { return t.Area() })
}

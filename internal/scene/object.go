// Package scene holds the objects a knife interaction operates on.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/philipparndt/goknife/pkg/mesh"
)

// Mesh is the editable mesh an object carries. *mesh.Mesh implements it.
type Mesh interface {
	Position(v mesh.VertID) geometry.Vector3
	Verts() []mesh.VertID
	Edges() []mesh.EdgeID
	Faces() []mesh.FaceID
	FaceVerts(f mesh.FaceID) []mesh.VertID
	FaceEdges(f mesh.FaceID) []mesh.EdgeID
	FacePositions(f mesh.FaceID) []geometry.Vector3
	FaceNormal(f mesh.FaceID) geometry.Vector3
	FaceTriangles(f mesh.FaceID) [][3]mesh.VertID
	FaceHidden(f mesh.FaceID) bool
	FaceSelected(f mesh.FaceID) bool
	EdgeSelected(e mesh.EdgeID) bool
	EdgeVerts(e mesh.EdgeID) [2]mesh.VertID
	EdgeFaces(e mesh.EdgeID) []mesh.FaceID
	EdgeBetween(a, b mesh.VertID) (mesh.EdgeID, bool)
	VertFaces(v mesh.VertID) []mesh.FaceID
	VertEdges(v mesh.VertID) []mesh.EdgeID

	AddVertex(pos geometry.Vector3) mesh.VertID
	RemoveVertex(v mesh.VertID) error
	SplitEdge(e mesh.EdgeID, t float64) (mesh.VertID, [2]mesh.EdgeID, error)
	RetriangulateFace(f mesh.FaceID, path []mesh.VertID) ([]mesh.FaceID, error)
	FillIsland(f mesh.FaceID, island []mesh.VertID, from, to mesh.VertID) ([]mesh.FaceID, error)

	ClearSelection()
	SelectVert(v mesh.VertID, selected bool)
	SelectEdge(e mesh.EdgeID, selected bool)
	Snapshot() *mesh.Snapshot
	Restore(s *mesh.Snapshot)
	NotifyUpdate(u mesh.Update)
}

// Object is a mesh placed in the world
type Object struct {
	Name      string
	Mesh      Mesh
	Transform mgl64.Mat4

	inverse mgl64.Mat4
}

// NewObject places a mesh with the given object-to-world transform
func NewObject(name string, m Mesh, transform mgl64.Mat4) *Object {
	return &Object{
		Name:      name,
		Mesh:      m,
		Transform: transform,
		inverse:   transform.Inv(),
	}
}

// ToWorld maps a local position to world space
func (o *Object) ToWorld(p geometry.Vector3) geometry.Vector3 {
	return p.Transform(o.Transform)
}

// ToLocal maps a world position to local space
func (o *Object) ToLocal(p geometry.Vector3) geometry.Vector3 {
	return p.Transform(o.inverse)
}

// AxisToWorld returns the object's local axis in world space
func (o *Object) AxisToWorld(axis int) geometry.Vector3 {
	return geometry.UnitAxis(axis).TransformDir(o.Transform).Normalize()
}

// WorldPosition returns a vertex position in world space
func (o *Object) WorldPosition(v mesh.VertID) geometry.Vector3 {
	return o.ToWorld(o.Mesh.Position(v))
}

// WorldFace returns the world-space loop of a face
func (o *Object) WorldFace(f mesh.FaceID) []geometry.Vector3 {
	points := o.Mesh.FacePositions(f)
	for i := range points {
		points[i] = o.ToWorld(points[i])
	}
	return points
}

// WorldFaceNormal returns the face normal in world space
func (o *Object) WorldFaceNormal(f mesh.FaceID) geometry.Vector3 {
	return geometry.PolygonNormal(o.WorldFace(f))
}

var _ Mesh = (*mesh.Mesh)(nil)

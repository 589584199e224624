// Package bvh indexes the triangles of the objects being cut for ray and
// slice queries. The hierarchy is an R-tree over padded triangle bounds.
package bvh

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/philipparndt/goknife/internal/scene"
	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/philipparndt/goknife/pkg/mesh"
)

const (
	// Epsilon pads triangle bounds and breaks distance ties
	Epsilon = 1e-5
	// LooseEpsilon enlarges triangles in barycentric space for snap candidates
	LooseEpsilon = 5e-4

	minChildren = 25
	maxChildren = 50
	maxChunks   = 64
)

// FaceFilter decides which faces are indexed
type FaceFilter interface {
	Accept(obj *scene.Object, index int, f mesh.FaceID) bool
}

// FaceFilterFunc adapts a function to FaceFilter
type FaceFilterFunc func(obj *scene.Object, index int, f mesh.FaceID) bool

// Accept calls fn
func (fn FaceFilterFunc) Accept(obj *scene.Object, index int, f mesh.FaceID) bool {
	return fn(obj, index, f)
}

// VisibleFaces accepts every face that is not hidden
var VisibleFaces FaceFilter = FaceFilterFunc(func(obj *scene.Object, _ int, f mesh.FaceID) bool {
	return !obj.Mesh.FaceHidden(f)
})

// SelectedFaces accepts visible selected faces
var SelectedFaces FaceFilter = FaceFilterFunc(func(obj *scene.Object, _ int, f mesh.FaceID) bool {
	return !obj.Mesh.FaceHidden(f) && obj.Mesh.FaceSelected(f)
})

// EntryFilter rejects entries during a single query
type EntryFilter func(e *Entry) bool

// Entry is one indexed triangle
type Entry struct {
	Object int
	Face   mesh.FaceID
	Tri    [3]mesh.VertID
	// Verts are the world-space corners
	Verts [3]geometry.Vector3

	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial
func (e *Entry) Bounds() rtreego.Rect {
	return e.rect
}

// Triangle returns the world-space triangle
func (e *Entry) Triangle() geometry.Triangle {
	tri := geometry.NewTriangle(geometry.Vector3{}, e.Verts[0], e.Verts[1], e.Verts[2])
	tri.Normal = tri.CalculateNormal()
	return tri
}

// Index is an immutable spatial index over triangles
type Index struct {
	tree    *rtreego.Rtree
	entries []*Entry
	bounds  geometry.BoundingBox
	reach   geometry.BoundingBox
}

// Build indexes the triangles of every face accepted by filter. A nil filter
// accepts all faces. Nothing eligible yields an empty index.
func Build(objects []*scene.Object, filter FaceFilter) *Index {
	ix := &Index{bounds: geometry.NewBoundingBox(), reach: geometry.NewBoundingBox()}
	var spatials []rtreego.Spatial

	for oi, obj := range objects {
		for _, f := range obj.Mesh.Faces() {
			if filter != nil && !filter.Accept(obj, oi, f) {
				continue
			}
			for _, tri := range obj.Mesh.FaceTriangles(f) {
				e := &Entry{Object: oi, Face: f, Tri: tri}
				box := geometry.NewBoundingBox()
				for k, v := range tri {
					e.Verts[k] = obj.WorldPosition(v)
					box.Extend(e.Verts[k])
				}
				if e.Triangle().Area() == 0 {
					continue
				}
				// loose hits may land slightly outside the triangle
				padded := box.Expand(Epsilon + LooseEpsilon*box.Diagonal())
				e.rect = toRect(padded)
				ix.bounds.Union(box)
				ix.reach.Union(padded)
				ix.entries = append(ix.entries, e)
				spatials = append(spatials, e)
			}
		}
	}

	ix.tree = rtreego.NewTree(3, minChildren, maxChildren, spatials...)
	return ix
}

func toRect(box geometry.BoundingBox) rtreego.Rect {
	// only fails on a dimension mismatch
	r, _ := rtreego.NewRectFromPoints(
		rtreego.Point{box.Min.X, box.Min.Y, box.Min.Z},
		rtreego.Point{box.Max.X, box.Max.Y, box.Max.Z},
	)
	return r
}

// Len returns the number of indexed triangles
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Bounds returns the world bounds of all indexed triangles
func (ix *Index) Bounds() geometry.BoundingBox {
	return ix.bounds
}

// Entries returns all indexed triangles
func (ix *Index) Entries() []*Entry {
	return ix.entries
}

// Search returns the entries whose bounds overlap box
func (ix *Index) Search(box geometry.BoundingBox) []*Entry {
	if ix.Len() == 0 || box.IsEmpty() {
		return nil
	}
	found := ix.tree.SearchIntersect(toRect(box))
	out := make([]*Entry, len(found))
	for i, s := range found {
		out[i] = s.(*Entry)
	}
	return out
}

// Slice returns the entries that may intersect the convex region spanned by
// points, typically the near and far ends of two view rays.
func (ix *Index) Slice(points ...geometry.Vector3) []*Entry {
	box := geometry.NewBoundingBox()
	for _, p := range points {
		box.Extend(p)
	}
	return ix.Search(box.Expand(Epsilon))
}

// clip returns the parameter range of the ray inside the index bounds
func (ix *Index) clip(ray Ray) (float64, float64, bool) {
	if ix.Len() == 0 {
		return 0, 0, false
	}
	t0, t1, ok := ix.reach.IntersectRay(ray.Origin, ray.Dir)
	if !ok {
		return 0, 0, false
	}
	t0 = math.Max(t0, 0)
	if ray.Max > 0 {
		t1 = math.Min(t1, ray.Max)
	}
	return t0, t1, t0 <= t1
}

// march visits every entry along the ray once, chunk by chunk in ray order.
// visit returns false to stop after the current chunk.
func (ix *Index) march(ray Ray, visit func(e *Entry, chunkEnd float64) bool) {
	t0, t1, ok := ix.clip(ray)
	if !ok {
		return
	}

	step := ix.bounds.Diagonal() / 16
	n := 1
	if step > 0 {
		n = int(math.Ceil((t1 - t0) / step))
	}
	n = max(1, min(n, maxChunks))
	step = (t1 - t0) / float64(n)

	seen := make(map[*Entry]bool)
	for i := 0; i < n; i++ {
		a := t0 + step*float64(i)
		b := a + step
		box := geometry.NewBoundingBox()
		box.Extend(ray.At(a))
		box.Extend(ray.At(b))

		more := true
		for _, e := range ix.Search(box.Expand(Epsilon)) {
			if seen[e] {
				continue
			}
			seen[e] = true
			if !visit(e, b) {
				more = false
			}
		}
		if !more {
			return
		}
	}
}

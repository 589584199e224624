package bvh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goknife/internal/scene"
	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/philipparndt/goknife/pkg/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v3(x, y, z float64) geometry.Vector3 {
	return geometry.NewVector3(x, y, z)
}

// plane builds an n x n grid of unit quads at height z
func plane(t *testing.T, n int, z float64) *scene.Object {
	t.Helper()
	m := mesh.New("plane")
	ids := make([][]mesh.VertID, n+1)
	for y := 0; y <= n; y++ {
		ids[y] = make([]mesh.VertID, n+1)
		for x := 0; x <= n; x++ {
			ids[y][x] = m.AddVertex(v3(float64(x), float64(y), z))
		}
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			_, err := m.AddFace(ids[y][x], ids[y][x+1], ids[y+1][x+1], ids[y+1][x])
			require.NoError(t, err)
		}
	}
	return scene.NewObject("plane", m, mgl64.Ident4())
}

func down(x, y float64) Ray {
	return NewRay(v3(x, y, 10), v3(0, 0, -1), 0)
}

func TestBuild(t *testing.T) {
	obj := plane(t, 4, 0)
	ix := Build([]*scene.Object{obj}, nil)
	assert.Equal(t, 32, ix.Len())
	assert.True(t, ix.Bounds().Max.ApproxEqual(v3(4, 4, 0), 1e-12))

	empty := Build([]*scene.Object{obj}, SelectedFaces)
	assert.Equal(t, 0, empty.Len())
	_, ok := empty.Raycast(down(1, 1), nil)
	assert.False(t, ok)
}

func TestBuildSkipsHiddenFaces(t *testing.T) {
	obj := plane(t, 2, 0)
	m := obj.Mesh.(*mesh.Mesh)
	m.SetFaceHidden(0, true)

	ix := Build([]*scene.Object{obj}, VisibleFaces)
	assert.Equal(t, 6, ix.Len())
	_, ok := ix.Raycast(down(0.5, 0.5), nil)
	assert.False(t, ok)
	_, ok = ix.Raycast(down(1.5, 0.5), nil)
	assert.True(t, ok)
}

func TestRaycastNearest(t *testing.T) {
	low := plane(t, 3, 0)
	high := plane(t, 3, 2)
	ix := Build([]*scene.Object{low, high}, nil)

	hit, ok := ix.Raycast(down(1.25, 2.5), nil)
	require.True(t, ok)
	assert.Equal(t, 1, hit.Object())
	assert.InDelta(t, 8.0, hit.Distance, 1e-9)
	assert.True(t, hit.Position.ApproxEqual(v3(1.25, 2.5, 2), 1e-9))
	assert.True(t, hit.Normal.ApproxEqual(v3(0, 0, 1), 1e-9))
	assert.Equal(t, mesh.FaceID(7), hit.Entry.Face)

	hit, ok = ix.Raycast(down(1.25, 2.5), func(e *Entry) bool { return e.Object == 0 })
	require.True(t, ok)
	assert.Equal(t, 0, hit.Object())

	_, ok = ix.Raycast(down(5, 5), nil)
	assert.False(t, ok)

	_, ok = ix.Raycast(NewRay(v3(1, 1, 10), v3(0, 0, -1), 5), nil)
	assert.False(t, ok, "max distance stops before the surfaces")
}

func TestRaycastAllOrdered(t *testing.T) {
	ix := Build([]*scene.Object{plane(t, 2, 0), plane(t, 2, 1), plane(t, 2, -3)}, nil)

	hits := ix.RaycastAll(down(0.3, 1.7), nil)
	require.Len(t, hits, 3)
	assert.Equal(t, []int{1, 0, 2}, []int{hits[0].Object(), hits[1].Object(), hits[2].Object()})
	assert.Less(t, hits[0].Distance, hits[1].Distance)
}

func TestRaycastAllOneHitPerFace(t *testing.T) {
	// the center of a unit quad lies on its triangulation diagonal
	ix := Build([]*scene.Object{plane(t, 1, 0), plane(t, 1, 2)}, nil)

	hits := ix.RaycastAll(down(0.5, 0.5), nil)
	require.Len(t, hits, 2)
	assert.Equal(t, 1, hits[0].Object())
	assert.Equal(t, 0, hits[1].Object())
	assert.InDelta(t, 8.0, hits[0].Distance, 1e-9)
	assert.InDelta(t, 10.0, hits[1].Distance, 1e-9)
}

func TestRaycastLooseGrazesEdge(t *testing.T) {
	ix := Build([]*scene.Object{plane(t, 1, 0)}, nil)
	ray := down(1+1e-4, 0.5)

	_, ok := ix.Raycast(ray, nil)
	assert.False(t, ok)
	hit, ok := ix.RaycastLoose(ray, nil)
	require.True(t, ok)
	assert.InDelta(t, 10.0, hit.Distance, 1e-9)
}

func TestRaycastTieBreakPrefersFacingFace(t *testing.T) {
	// a flat quad and a steep triangle meeting the ray at the same point
	m := mesh.New("tie")
	a := m.AddVertex(v3(0, 0, 0))
	b := m.AddVertex(v3(2, 0, 0))
	c := m.AddVertex(v3(2, 2, 0))
	d := m.AddVertex(v3(0, 2, 0))
	_, err := m.AddFace(a, b, c, d)
	require.NoError(t, err)
	e := m.AddVertex(v3(0, 1, -1))
	f := m.AddVertex(v3(2, 1, -1))
	g := m.AddVertex(v3(1, 1.2, 1))
	steep, err := m.AddFace(e, g, f)
	require.NoError(t, err)
	require.Greater(t, m.FaceNormal(steep).Dot(v3(0, 1, 0)), 0.9)

	ix := Build([]*scene.Object{scene.NewObject("tie", m, mgl64.Ident4())}, nil)
	hit, ok := ix.Raycast(down(1, 1.1), nil)
	require.True(t, ok)
	assert.Equal(t, mesh.FaceID(0), hit.Entry.Face)
}

func TestSlice(t *testing.T) {
	ix := Build([]*scene.Object{plane(t, 4, 0)}, nil)

	entries := ix.Slice(v3(0.5, 0.5, 5), v3(0.5, 0.5, -5), v3(0.6, 0.5, 5), v3(0.6, 0.5, -5))
	faces := map[mesh.FaceID]bool{}
	for _, e := range entries {
		faces[e.Face] = true
	}
	assert.True(t, faces[0])
	assert.False(t, faces[15])
}

func TestRaycastAllTieOrder(t *testing.T) {
	m := mesh.New("tie")
	a := m.AddVertex(v3(0, 0, 0))
	b := m.AddVertex(v3(2, 0, 0))
	c := m.AddVertex(v3(2, 2, 0))
	d := m.AddVertex(v3(0, 2, 0))
	_, err := m.AddFace(a, b, c, d)
	require.NoError(t, err)
	e := m.AddVertex(v3(0, 1, -1))
	f := m.AddVertex(v3(2, 1, -1))
	g := m.AddVertex(v3(1, 1.2, 1))
	_, err = m.AddFace(e, g, f)
	require.NoError(t, err)

	ix := Build([]*scene.Object{scene.NewObject("tie", m, mgl64.Ident4())}, nil)
	hits := ix.RaycastAll(down(1, 1.1), nil)
	require.Len(t, hits, 2)
	assert.Equal(t, mesh.FaceID(0), hits[0].Entry.Face)
	assert.Equal(t, mesh.FaceID(1), hits[1].Entry.Face)
}

package cutgraph

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

// strip builds n unit quads side by side along X
func strip(t *testing.T, n int) (*Graph, *mesh.Mesh) {
	t.Helper()
	m := mesh.New("strip")
	bottom := make([]mesh.VertID, n+1)
	top := make([]mesh.VertID, n+1)
	for i := 0; i <= n; i++ {
		bottom[i] = m.AddVertex(v3(float64(i), 0, 0))
		top[i] = m.AddVertex(v3(float64(i), 1, 0))
	}
	for i := 0; i < n; i++ {
		_, err := m.AddFace(bottom[i], bottom[i+1], top[i+1], top[i])
		require.NoError(t, err)
	}
	return New([]*scene.Object{scene.NewObject("strip", m, mgl64.Ident4())}), m
}

func edgeHit(g *Graph, m *mesh.Mesh, a, b mesh.VertID, perc float64) LineHit {
	e, _ := m.EdgeBetween(a, b)
	ref := g.RealEdge(0, e)
	ends := m.EdgeVerts(e)
	p := m.Position(ends[0]).Lerp(m.Position(ends[1]), perc)
	return LineHit{Target: EdgeTarget{Edge: ref}, Hit: p, Cage: p, Perc: perc}
}

func faceHit(f mesh.FaceID, p geometry.Vector3, lambda float64) LineHit {
	return LineHit{Target: FaceTarget{Face: f}, Hit: p, Cage: p, Lambda: lambda}
}

func TestRealWrappers(t *testing.T) {
	g, m := strip(t, 1)

	v := g.RealVert(0, 0)
	assert.Equal(t, v, g.RealVert(0, 0))
	assert.False(t, g.Vert(v).IsNew())
	assert.Equal(t, []mesh.FaceID{0}, g.Vert(v).Faces)

	edges := g.FaceEdges(0, 0)
	assert.Len(t, edges, 4)
	for _, r := range edges {
		e := g.Edge(r)
		assert.NotEqual(t, mesh.NoEdge, e.Real)
		assert.Equal(t, e.Real, e.Origin)
	}
	assert.Len(t, g.FaceVerts(0, 0), 4)
	assert.Equal(t, 4, m.EdgeCount())
}

func TestInsertPointSplitsEdgeOnce(t *testing.T) {
	g, m := strip(t, 1)
	hit := edgeHit(g, m, 0, 2, 0.5)
	wrapper := hit.Target.(EdgeTarget).Edge

	v, err := g.InsertPoint(hit)
	require.NoError(t, err)
	vert := g.Vert(v)
	require.NotNil(t, vert)
	assert.True(t, vert.IsNew())
	assert.True(t, vert.IsSplitting)
	assert.False(t, vert.IsFace)
	assert.Nil(t, g.Edge(wrapper), "split wrapper is stale")
	assert.Len(t, g.FaceEdges(0, 0), 5)

	// a later hit on one half within epsilon reuses the vertex
	halves := g.Vert(v).Edges
	require.Len(t, halves, 2)
	again := LineHit{Target: EdgeTarget{Edge: halves[0]}, Hit: vert.Pos.Add(v3(0, 1e-7, 0))}
	same, err := g.InsertPoint(again)
	require.NoError(t, err)
	assert.Equal(t, v, same)
	assert.Equal(t, 1, g.Stats().Splits/2)

	_, err = g.InsertPoint(hit)
	assert.ErrorIs(t, err, ErrStale)
}

func TestConnectConfinedToFace(t *testing.T) {
	g, m := strip(t, 1)
	a, err := g.InsertPoint(edgeHit(g, m, 0, 1, 0.5))
	require.NoError(t, err)
	b, err := g.InsertPoint(edgeHit(g, m, 3, 2, 0.5))
	require.NoError(t, err)

	r, err := g.Connect(a, b, mesh.NoFace)
	require.NoError(t, err)
	e := g.Edge(r)
	assert.Equal(t, mesh.FaceID(0), e.BaseFace)
	assert.True(t, e.IsCut)
	assert.True(t, g.Vert(a).IsCut)

	again, err := g.Connect(b, a, mesh.NoFace)
	require.NoError(t, err)
	assert.Equal(t, r, again)

	st := g.Stats()
	assert.Equal(t, 1, st.CutEdges)
	assert.Equal(t, 2, st.NewVerts)

	_, err = g.Connect(a, a, mesh.NoFace)
	assert.ErrorIs(t, err, ErrSameVert)
}

func TestConnectAcrossFacesIsInvalid(t *testing.T) {
	g, _ := strip(t, 2)
	a, err := g.InsertPoint(faceHit(0, v3(0.5, 0.5, 0), 0))
	require.NoError(t, err)
	b, err := g.InsertPoint(faceHit(1, v3(1.5, 0.5, 0), 1))
	require.NoError(t, err)

	_, err = g.Connect(a, b, mesh.NoFace)
	assert.ErrorIs(t, err, ErrNotConfined)
	st := g.Stats()
	assert.Equal(t, 1, st.Invalid)
	assert.Equal(t, 0, st.CutEdges)
	assert.Len(t, g.FaceEdges(0, 0), 4)
}

func TestConnectAlongBoundary(t *testing.T) {
	g, m := strip(t, 1)
	a, err := g.InsertPoint(edgeHit(g, m, 0, 1, 0.5))
	require.NoError(t, err)

	_, err = g.Connect(g.RealVert(0, 0), a, mesh.NoFace)
	assert.NoError(t, err, "the half edge already joins them")

	_, err = g.Connect(g.RealVert(0, 2), a, mesh.NoFace)
	assert.NoError(t, err)

	_, err = g.InsertPoint(edgeHit(g, m, 0, 1, 0.5))
	assert.ErrorIs(t, err, ErrStale)
}

func TestConnectSplitsContainingEdge(t *testing.T) {
	g, _ := strip(t, 1)
	a, _ := g.InsertPoint(faceHit(0, v3(0.2, 0.5, 0), 0))
	b, _ := g.InsertPoint(faceHit(0, v3(0.8, 0.5, 0), 1))
	long, err := g.Connect(a, b, 0)
	require.NoError(t, err)

	mid, _ := g.InsertPoint(faceHit(0, v3(0.5, 0.5, 0), 2))
	top, _ := g.InsertPoint(faceHit(0, v3(0.5, 0.8, 0), 3))
	_, err = g.Connect(mid, top, 0)
	require.NoError(t, err)

	assert.Nil(t, g.Edge(long))
	_, ok := g.EdgeBetween(a, mid)
	assert.True(t, ok)
	_, ok = g.EdgeBetween(mid, b)
	assert.True(t, ok)
	assert.True(t, g.Vert(mid).IsSplitting)
	assert.Equal(t, 3, g.Stats().CutEdges)
}

func TestRollback(t *testing.T) {
	g, m := strip(t, 1)
	hit := edgeHit(g, m, 0, 1, 0.5)
	wrapper := hit.Target.(EdgeTarget).Edge
	require.Len(t, g.FaceEdges(0, 0), 4)
	before := g.Stats()
	mark := g.Mark()

	a, err := g.InsertPoint(hit)
	require.NoError(t, err)
	b, err := g.InsertPoint(faceHit(0, v3(0.5, 0.5, 0), 1))
	require.NoError(t, err)
	_, err = g.Connect(a, b, 0)
	require.NoError(t, err)
	g.AppendSequence(a)

	g.Rollback(mark)
	assert.Equal(t, before, g.Stats())
	assert.Nil(t, g.Vert(a))
	assert.Nil(t, g.Vert(b))
	assert.NotNil(t, g.Edge(wrapper))
	assert.Len(t, g.FaceEdges(0, 0), 4)
	assert.Empty(t, g.Sequence())

	// slots are reused with fresh generations
	c, err := g.InsertPoint(faceHit(0, v3(0.3, 0.3, 0), 0))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, b, c)
	assert.Nil(t, g.Vert(a))
}

func TestAddCutAcrossStrip(t *testing.T) {
	g, m := strip(t, 3)
	// bottom vertices are even, top odd; vertical edge i joins 2i and 2i+1
	var hits []LineHit
	for i := 3; i >= 0; i-- {
		h := edgeHit(g, m, mesh.VertID(2*i), mesh.VertID(2*i+1), 0.4)
		h.Lambda = float64(i)
		hits = append(hits, h)
	}
	SortLineHits(hits)

	verts, cuts := g.AddCut(hits)
	assert.Len(t, verts, 4)
	assert.Equal(t, 3, cuts)
	assert.Equal(t, 3, g.Stats().CutEdges)

	// interior vertices are shared by two cut edges
	cutEdges := func(v VertRef) int {
		n := 0
		for _, r := range g.Vert(v).Edges {
			if g.Edge(r).IsCut {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 1, cutEdges(verts[0]))
	assert.Equal(t, 2, cutEdges(verts[1]))
	assert.Equal(t, 2, cutEdges(verts[2]))
	assert.Equal(t, 1, cutEdges(verts[3]))
}

func TestSequenceClosedLoop(t *testing.T) {
	g, _ := strip(t, 1)
	a, _ := g.InsertPoint(faceHit(0, v3(0.2, 0.2, 0), 0))
	b, _ := g.InsertPoint(faceHit(0, v3(0.8, 0.2, 0), 1))
	c, _ := g.InsertPoint(faceHit(0, v3(0.5, 0.8, 0), 2))

	g.NewSequence()
	for _, v := range []VertRef{a, b, b, c} {
		g.AppendSequence(v)
	}
	assert.Len(t, g.Sequence(), 3)
	assert.False(t, g.IsClosedLoop())

	g.AppendSequence(a)
	assert.True(t, g.IsClosedLoop())

	g.NewSequence()
	assert.False(t, g.IsClosedLoop())
}

func TestSortAndDedupeLineHits(t *testing.T) {
	v := VertRef{idx: 1, gen: 1}
	hits := []LineHit{
		{Target: FaceTarget{Face: 0}, Lambda: 5},
		{Target: VertTarget{Vert: v}, Lambda: 2, Depth: 3},
		{Target: VertTarget{Vert: v}, Lambda: 2, Depth: 1},
		{Target: FaceTarget{Face: 0}, Lambda: 1},
	}
	SortLineHits(hits)
	assert.Equal(t, []float64{1, 2, 2, 5}, []float64{hits[0].Lambda, hits[1].Lambda, hits[2].Lambda, hits[3].Lambda})
	assert.Equal(t, 1.0, hits[1].Depth)

	out := DedupeLineHits(hits, 0.5)
	assert.Len(t, out, 3)
}

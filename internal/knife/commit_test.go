package knife

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goknife/internal/cutgraph"
	"github.com/philipparndt/goknife/internal/scene"
	"github.com/philipparndt/goknife/pkg/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// splitAt wraps the real edge a-b and splits it at the given local position
func splitAt(t *testing.T, g *cutgraph.Graph, m *mesh.Mesh, a, b mesh.VertID, x, y float64) cutgraph.VertRef {
	t.Helper()
	e, ok := m.EdgeBetween(a, b)
	require.True(t, ok)
	p := v3(x, y, 0)
	v, _, err := g.SplitEdge(g.RealEdge(0, e), p, p)
	require.NoError(t, err)
	return v
}

func facePoint(t *testing.T, g *cutgraph.Graph, f mesh.FaceID, x, y float64) cutgraph.VertRef {
	t.Helper()
	p := v3(x, y, 0)
	v, err := g.InsertPoint(cutgraph.LineHit{Target: cutgraph.FaceTarget{Face: f}, Hit: p, Cage: p})
	require.NoError(t, err)
	return v
}

// crossStrip cuts every face of a strip of three horizontally at y=0.5
func crossStrip(t *testing.T, g *cutgraph.Graph, m *mesh.Mesh) {
	t.Helper()
	var verts []cutgraph.VertRef
	for i := 0; i <= 3; i++ {
		verts = append(verts, splitAt(t, g, m, mesh.VertID(2*i), mesh.VertID(2*i+1), float64(i)*0.5, 0.5))
	}
	for i := 0; i < 3; i++ {
		_, err := g.Connect(verts[i], verts[i+1], mesh.FaceID(i))
		require.NoError(t, err)
	}
}

func TestCommitSkipsZeroLengthCut(t *testing.T) {
	m := strip(t, 3, 0, 0, 0.5, 1, 0)
	objs := objects(m)
	g := cutgraph.New(objs)
	crossStrip(t, g, m)

	a := facePoint(t, g, 0, 0.2, 0.8)
	b := facePoint(t, g, 0, 0.2, 0.8+1e-8)
	_, err := g.Connect(a, b, 0)
	require.NoError(t, err)
	require.Equal(t, 4, g.Stats().CutEdges)

	res, err := Commit(g, objs, CommitOptions{ConnectIslands: true})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 3, res.FaceSplits)
	assert.Equal(t, 4, res.Splits)
	assert.Equal(t, 6, m.FaceCount())
	assert.Equal(t, 12, m.VertCount())
}

func TestCommitSkipsInvalidEdges(t *testing.T) {
	m := strip(t, 3, 0, 0, 0.5, 1, 0)
	objs := objects(m)
	g := cutgraph.New(objs)
	crossStrip(t, g, m)

	a := facePoint(t, g, 0, 0.25, 0.8)
	b := facePoint(t, g, 2, 1.25, 0.8)
	_, err := g.Connect(a, b, mesh.NoFace)
	require.ErrorIs(t, err, cutgraph.ErrNotConfined)

	res, err := Commit(g, objs, CommitOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 3, res.FaceSplits)
	// the loose face points were never placed
	assert.Equal(t, 12, m.VertCount())
}

func TestCommitDegenerateSplitInvalidatesCut(t *testing.T) {
	m := strip(t, 1, 0, 0, 0.5, 1, 0)
	objs := objects(m)
	g := cutgraph.New(objs)

	// a hair above vertex 0, too close for the mesh to split there
	a := splitAt(t, g, m, 0, 1, 0, 1e-8)
	b := splitAt(t, g, m, 2, 3, 0.5, 0.5)
	r, err := g.Connect(a, b, 0)
	require.NoError(t, err)

	res, err := Commit(g, objs, CommitOptions{})
	require.NoError(t, err)
	assert.True(t, g.Edge(r).IsInvalid)
	assert.Equal(t, 1, g.Stats().Invalid)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Splits)
	assert.Zero(t, res.FaceSplits)
	assert.Equal(t, 1, m.FaceCount())
	assert.Equal(t, 5, m.VertCount())
}

// brokenMesh fails every face cut after the edge splits went through
type brokenMesh struct {
	*mesh.Mesh
}

func (brokenMesh) RetriangulateFace(mesh.FaceID, []mesh.VertID) ([]mesh.FaceID, error) {
	return nil, errors.New("face table full")
}

func TestCommitRollsBackOnFailure(t *testing.T) {
	m := strip(t, 3, 0, 0, 0.5, 1, 0)
	objs := []*scene.Object{scene.NewObject(m.Name, brokenMesh{m}, mgl64.Ident4())}
	g := cutgraph.New(objs)
	crossStrip(t, g, m)

	verts, edges, faces := m.VertCount(), m.EdgeCount(), m.FaceCount()
	res, err := Commit(g, objs, CommitOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommit)
	assert.ErrorContains(t, err, "face table full")
	assert.False(t, res.Changed)
	assert.NotEmpty(t, res.Reason)

	assert.Equal(t, verts, m.VertCount())
	assert.Equal(t, edges, m.EdgeCount())
	assert.Equal(t, faces, m.FaceCount())
	assert.Empty(t, m.SelectedVerts())
}

func TestCommitNothing(t *testing.T) {
	m := quad(t)
	objs := objects(m)
	res, err := Commit(cutgraph.New(objs), objs, CommitOptions{})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "no cuts to apply", res.Reason)
	assert.Zero(t, m.Revision())
}

func TestCommitNotifiesOncePerMesh(t *testing.T) {
	m := strip(t, 3, 0, 0, 0.5, 1, 0)
	other := quad(t)
	objs := objects(m, other)
	g := cutgraph.New(objs)
	crossStrip(t, g, m)

	updates := 0
	m.OnUpdate(func(u mesh.Update) {
		updates++
		assert.True(t, u.Topology)
	})
	_, err := Commit(g, objs, CommitOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, updates)
	assert.Equal(t, 1, m.Revision())
	assert.Zero(t, other.Revision())
}

func TestCommitSelection(t *testing.T) {
	m := strip(t, 3, 0, 0, 0.5, 1, 0)
	m.SelectVert(0, true)
	objs := objects(m)

	g := cutgraph.New(objs)
	crossStrip(t, g, m)
	_, err := Commit(g, objs, CommitOptions{})
	require.NoError(t, err)
	assert.False(t, m.VertSelected(0))
	assert.Len(t, m.SelectedVerts(), 4)
	assert.Len(t, m.SelectedEdges(), 3)

	m2 := strip(t, 3, 0, 0, 0.5, 1, 0)
	m2.SelectVert(0, true)
	objs2 := objects(m2)
	g2 := cutgraph.New(objs2)
	crossStrip(t, g2, m2)
	_, err = Commit(g2, objs2, CommitOptions{Extend: true})
	require.NoError(t, err)
	assert.True(t, m2.VertSelected(0))
	assert.Len(t, m2.SelectedVerts(), 5)
}

func TestCommitPathThroughInteriorPoints(t *testing.T) {
	m := quad(t)
	objs := objects(m)
	g := cutgraph.New(objs)

	left := splitAt(t, g, m, 0, 1, 0, 0.5)
	mid := facePoint(t, g, 0, 0.5, 0.3)
	right := splitAt(t, g, m, 2, 3, 1, 0.5)
	for _, pair := range [][2]cutgraph.VertRef{{left, mid}, {mid, right}} {
		_, err := g.Connect(pair[0], pair[1], 0)
		require.NoError(t, err)
	}

	res, err := Commit(g, objs, CommitOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.FaceSplits)
	assert.Equal(t, 2, m.FaceCount())
	assert.Equal(t, 7, m.VertCount())
	assert.Len(t, m.SelectedEdges(), 2)

	total := 0.0
	for _, f := range m.Faces() {
		total += areaOf(m, f)
	}
	assert.InDelta(t, 1, total, 1e-9)
}

func TestCommitDanglingCutIsSkipped(t *testing.T) {
	m := quad(t)
	objs := objects(m)
	g := cutgraph.New(objs)

	left := splitAt(t, g, m, 0, 1, 0, 0.5)
	inner := facePoint(t, g, 0, 0.5, 0.5)
	_, err := g.Connect(left, inner, 0)
	require.NoError(t, err)

	res, err := Commit(g, objs, CommitOptions{ConnectIslands: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.FaceSplits)
	assert.Equal(t, 1, m.FaceCount())
}

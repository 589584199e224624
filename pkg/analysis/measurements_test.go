package analysis

import (
	"testing"

	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/philipparndt/goknife/pkg/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoFaces is a unit quad next to a triangle
func twoFaces(t *testing.T) *mesh.Mesh {
	m := mesh.New("two")
	for _, p := range []geometry.Vector3{
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(1, 0, 0),
		geometry.NewVector3(1, 1, 0),
		geometry.NewVector3(0, 1, 0),
		geometry.NewVector3(2, 0, 0),
	} {
		m.AddVertex(p)
	}
	_, err := m.AddFace(0, 1, 2, 3)
	require.NoError(t, err)
	_, err = m.AddFace(1, 4, 2)
	require.NoError(t, err)
	return m
}

func TestAnalyzeMesh(t *testing.T) {
	result := AnalyzeMesh(twoFaces(t))

	assert.Equal(t, 5, result.VertexCount)
	assert.Equal(t, 2, result.FaceCount)
	assert.Equal(t, 3, result.TriangleCount)
	assert.Equal(t, 6, result.EdgeCount)
	assert.Equal(t, 5, result.BoundaryEdges)
	assert.Equal(t, map[int]int{3: 1, 4: 1}, result.FaceSizes)
	assert.InDelta(t, 1.5, result.SurfaceArea, 1e-9)
	assert.InDelta(t, 1, result.MinEdgeLength, 1e-9)
	assert.InDelta(t, 1.4142135623730951, result.MaxEdgeLength, 1e-9)
	assert.Equal(t, geometry.NewVector3(2, 1, 0), result.Dimensions)
}

func TestAnalyzeEmptyMesh(t *testing.T) {
	result := AnalyzeMesh(mesh.New("empty"))
	assert.Zero(t, result.EdgeCount)
	assert.Zero(t, result.MaxEdgeLength)
}

func TestEdgeQueries(t *testing.T) {
	result := AnalyzeMesh(twoFaces(t))

	longest := FindLongestEdges(result, 1)
	require.Len(t, longest, 1)
	assert.InDelta(t, 1.4142135623730951, longest[0].Length, 1e-9)

	assert.Len(t, FindShortestEdges(result, 10), 6)
	assert.Empty(t, FindShortestEdges(result, -1))
	assert.Len(t, FindEdgesByLength(result, 0.5, 1.2), 5)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1.500000 units", FormatMeasurement(1.5, ""))
	assert.Equal(t, "2.000000 mm", FormatMeasurement(2, "mm"))
	assert.Equal(t, "(1.000000, 2.000000, 3.000000)", FormatVector(geometry.NewVector3(1, 2, 3)))
	assert.Equal(t, "45.00°", FormatAngle(45))
}

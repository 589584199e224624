package analysis

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/philipparndt/goknife/pkg/mesh"
	"github.com/samber/lo"
)

// EdgeInfo contains information about an edge of the mesh
type EdgeInfo struct {
	ID     mesh.EdgeID
	Start  geometry.Vector3
	End    geometry.Vector3
	Length float64
	// Faces is the number of faces using the edge; 1 marks a boundary
	Faces int
}

// MeasurementResult contains various measurements of a mesh
type MeasurementResult struct {
	BoundingBox   geometry.BoundingBox
	Dimensions    geometry.Vector3
	Volume        float64
	SurfaceArea   float64
	VertexCount   int
	FaceCount     int
	TriangleCount int
	EdgeCount     int
	BoundaryEdges int
	// FaceSizes counts faces by their number of corners
	FaceSizes     map[int]int
	MinEdgeLength float64
	MaxEdgeLength float64
	AvgEdgeLength float64
	AllEdges      []EdgeInfo
}

// AnalyzeMesh performs comprehensive analysis on a mesh
func AnalyzeMesh(m *mesh.Mesh) *MeasurementResult {
	faces := m.Faces()
	result := &MeasurementResult{
		BoundingBox: m.Bounds(),
		VertexCount: m.VertCount(),
		FaceCount:   len(faces),
		SurfaceArea: lo.SumBy(faces, func(f mesh.FaceID) float64 {
			return geometry.PolygonArea(m.FacePositions(f))
		}),
		TriangleCount: lo.SumBy(faces, func(f mesh.FaceID) int {
			return len(m.FaceTriangles(f))
		}),
		FaceSizes: lo.CountValuesBy(faces, func(f mesh.FaceID) int {
			return len(m.FaceVerts(f))
		}),
	}
	result.Dimensions = result.BoundingBox.Size()
	result.Volume = result.BoundingBox.Volume()

	result.AllEdges = lo.Map(m.Edges(), func(e mesh.EdgeID, _ int) EdgeInfo {
		ends := m.EdgeVerts(e)
		start, end := m.Position(ends[0]), m.Position(ends[1])
		return EdgeInfo{
			ID:     e,
			Start:  start,
			End:    end,
			Length: start.Distance(end),
			Faces:  len(m.EdgeFaces(e)),
		}
	})
	result.EdgeCount = len(result.AllEdges)
	if result.EdgeCount == 0 {
		return result
	}

	result.BoundaryEdges = lo.CountBy(result.AllEdges, func(e EdgeInfo) bool { return e.Faces == 1 })
	lengths := lo.Map(result.AllEdges, func(e EdgeInfo, _ int) float64 { return e.Length })
	result.MinEdgeLength = lo.Min(lengths)
	result.MaxEdgeLength = lo.Max(lengths)
	result.AvgEdgeLength = lo.Sum(lengths) / float64(result.EdgeCount)
	return result
}

// FindEdgesByLength finds all edges within a length range
func FindEdgesByLength(result *MeasurementResult, minLength, maxLength float64) []EdgeInfo {
	return lo.Filter(result.AllEdges, func(e EdgeInfo, _ int) bool {
		return e.Length >= minLength && e.Length <= maxLength
	})
}

// FindLongestEdges returns the N longest edges in the mesh
func FindLongestEdges(result *MeasurementResult, count int) []EdgeInfo {
	return sortedEdges(result, count, func(a, b EdgeInfo) int { return cmp.Compare(b.Length, a.Length) })
}

// FindShortestEdges returns the N shortest edges in the mesh
func FindShortestEdges(result *MeasurementResult, count int) []EdgeInfo {
	return sortedEdges(result, count, func(a, b EdgeInfo) int { return cmp.Compare(a.Length, b.Length) })
}

func sortedEdges(result *MeasurementResult, count int, order func(a, b EdgeInfo) int) []EdgeInfo {
	edges := slices.Clone(result.AllEdges)
	slices.SortStableFunc(edges, order)
	return edges[:min(max(count, 0), len(edges))]
}

// FormatMeasurement formats a measurement with appropriate units
func FormatMeasurement(value float64, unit string) string {
	if unit == "" {
		unit = "units"
	}
	return fmt.Sprintf("%.6f %s", value, unit)
}

// FormatVector formats a 3D vector
func FormatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}

// FormatAngle formats an angle in degrees
func FormatAngle(degrees float64) string {
	return fmt.Sprintf("%.2f°", degrees)
}

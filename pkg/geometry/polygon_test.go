package geometry

import (
	"math"
	"testing"
)

func square() []Vector3 {
	return []Vector3{
		NewVector3(0, 0, 0),
		NewVector3(2, 0, 0),
		NewVector3(2, 2, 0),
		NewVector3(0, 2, 0),
	}
}

func TestPolygonNormal(t *testing.T) {
	normal := PolygonNormal(square())
	expected := NewVector3(0, 0, 1)
	if !normal.ApproxEqual(expected, 1e-12) {
		t.Errorf("PolygonNormal failed: expected %v, got %v", expected, normal)
	}
}

func TestPolygonArea(t *testing.T) {
	area := PolygonArea(square())
	if math.Abs(area-4) > 1e-12 {
		t.Errorf("PolygonArea failed: expected 4, got %v", area)
	}
}

func TestPointInPolygon(t *testing.T) {
	if !PointInPolygon(NewVector3(1, 1, 0), square()) {
		t.Errorf("center should be inside the square")
	}
	if PointInPolygon(NewVector3(3, 1, 0), square()) {
		t.Errorf("point right of the square should be outside")
	}
}

func TestTriangulateConcave(t *testing.T) {
	// L shape
	points := []Vector3{
		NewVector3(0, 0, 0),
		NewVector3(2, 0, 0),
		NewVector3(2, 1, 0),
		NewVector3(1, 1, 0),
		NewVector3(1, 2, 0),
		NewVector3(0, 2, 0),
	}

	tris := Triangulate(points)
	if len(tris) != 4 {
		t.Fatalf("Triangulate failed: expected 4 triangles, got %d", len(tris))
	}

	total := 0.0
	for _, tri := range tris {
		total += NewTriangle(Vector3{}, points[tri[0]], points[tri[1]], points[tri[2]]).Area()
	}
	if math.Abs(total-3) > 1e-12 {
		t.Errorf("Triangulate failed: expected total area 3, got %v", total)
	}
}

package geometry

import "math"

// Triangle represents a triangular facet in 3D space
type Triangle struct {
	Normal     Vector3
	V1, V2, V3 Vector3
}

// NewTriangle creates a new triangle
func NewTriangle(normal, v1, v2, v3 Vector3) Triangle {
	return Triangle{
		Normal: normal,
		V1:     v1,
		V2:     v2,
		V3:     v3,
	}
}

// RayHit describes where a ray meets a triangle.
// U and V are the barycentric weights of V2 and V3.
type RayHit struct {
	T    float64
	U, V float64
}

// CalculateNormal computes the normal vector for the triangle
func (t Triangle) CalculateNormal() Vector3 {
	edge1 := t.V2.Sub(t.V1)
	edge2 := t.V3.Sub(t.V1)
	return edge1.Cross(edge2).Normalize()
}

// Area returns the surface area of the triangle
func (t Triangle) Area() float64 {
	edge1 := t.V2.Sub(t.V1)
	edge2 := t.V3.Sub(t.V1)
	cross := edge1.Cross(edge2)
	return cross.Length() / 2.0
}

// EdgeLengths returns the lengths of all three edges
func (t Triangle) EdgeLengths() [3]float64 {
	return [3]float64{
		t.V1.Distance(t.V2),
		t.V2.Distance(t.V3),
		t.V3.Distance(t.V1),
	}
}

// Perimeter returns the total length of all edges
func (t Triangle) Perimeter() float64 {
	lengths := t.EdgeLengths()
	return lengths[0] + lengths[1] + lengths[2]
}

// Center returns the centroid of the triangle
func (t Triangle) Center() Vector3 {
	return Vector3{
		X: (t.V1.X + t.V2.X + t.V3.X) / 3.0,
		Y: (t.V1.Y + t.V2.Y + t.V3.Y) / 3.0,
		Z: (t.V1.Z + t.V2.Z + t.V3.Z) / 3.0,
	}
}

// Bounds returns the axis-aligned bounding box of the triangle
func (t Triangle) Bounds() BoundingBox {
	bbox := NewBoundingBox()
	bbox.Extend(t.V1)
	bbox.Extend(t.V2)
	bbox.Extend(t.V3)
	return bbox
}

// Interpolate returns the point with barycentric weights u (V2) and v (V3)
func (t Triangle) Interpolate(u, v float64) Vector3 {
	w := 1 - u - v
	return t.V1.Mul(w).Add(t.V2.Mul(u)).Add(t.V3.Mul(v))
}

// IntersectRay runs the Moller-Trumbore test. eps enlarges the triangle in
// barycentric space so rays grazing an edge or vertex still register; pass 0
// for the exact test. Hits behind the origin are rejected.
func (t Triangle) IntersectRay(origin, dir Vector3, eps float64) (RayHit, bool) {
	const parallelEps = 1e-12

	edge1 := t.V2.Sub(t.V1)
	edge2 := t.V3.Sub(t.V1)

	h := dir.Cross(edge2)
	a := edge1.Dot(h)
	if math.Abs(a) < parallelEps {
		return RayHit{}, false
	}

	f := 1.0 / a
	s := origin.Sub(t.V1)
	u := f * s.Dot(h)
	if u < -eps || u > 1+eps {
		return RayHit{}, false
	}

	q := s.Cross(edge1)
	v := f * dir.Dot(q)
	if v < -eps || u+v > 1+eps {
		return RayHit{}, false
	}

	dist := f * edge2.Dot(q)
	if dist < 0 {
		return RayHit{}, false
	}
	return RayHit{T: dist, U: u, V: v}, true
}

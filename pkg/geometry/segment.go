package geometry

import "math"

// ClosestOnSegment2D returns the parameter t in [0,1] of the point on segment
// a-b closest to p, and the distance from p to that point.
func ClosestOnSegment2D(p, a, b Vector2) (float64, float64) {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return 0, p.Distance(a)
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = math.Max(0, math.Min(1, t))
	return t, p.Distance(a.Lerp(b, t))
}

// IntersectSegments2D intersects segments p1-p2 and q1-q2. It returns lambda
// along p and mu along q. Parallel or collinear segments report no hit.
// eps widens the accepted parameter range on both ends.
func IntersectSegments2D(p1, p2, q1, q2 Vector2, eps float64) (lambda, mu float64, ok bool) {
	r := p2.Sub(p1)
	s := q2.Sub(q1)
	denom := r.Cross(s)
	if math.Abs(denom) < 1e-12 {
		return 0, 0, false
	}
	qp := q1.Sub(p1)
	lambda = qp.Cross(s) / denom
	mu = qp.Cross(r) / denom
	if lambda < -eps || lambda > 1+eps || mu < -eps || mu > 1+eps {
		return lambda, mu, false
	}
	return lambda, mu, true
}

// IntersectLinePlane returns the parameter t where segment a-b crosses the
// plane through origin with the given normal. Segments lying in the plane,
// or not reaching it, report false.
func IntersectLinePlane(a, b, origin, normal Vector3) (float64, bool) {
	da := normal.Dot(a.Sub(origin))
	db := normal.Dot(b.Sub(origin))
	if (da > 0 && db > 0) || (da < 0 && db < 0) {
		return 0, false
	}
	denom := da - db
	if math.Abs(denom) < 1e-15 {
		return 0, false
	}
	return da / denom, true
}

// IntersectRayPlane returns the ray parameter where origin+dir*t meets the
// plane through point with the given normal.
func IntersectRayPlane(origin, dir, point, normal Vector3) (float64, bool) {
	denom := normal.Dot(dir)
	if math.Abs(denom) < 1e-15 {
		return 0, false
	}
	return normal.Dot(point.Sub(origin)) / denom, true
}

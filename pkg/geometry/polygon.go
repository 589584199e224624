package geometry

import "math"

// PolygonNormal computes the normal of a planar polygon with Newell's method.
// The result is normalized; degenerate polygons return the zero vector.
func PolygonNormal(points []Vector3) Vector3 {
	var n Vector3
	for i := range points {
		cur := points[i]
		next := points[(i+1)%len(points)]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	return n.Normalize()
}

// PolygonArea returns the area of a planar polygon
func PolygonArea(points []Vector3) float64 {
	var sum Vector3
	for i := range points {
		sum = sum.Add(points[i].Cross(points[(i+1)%len(points)]))
	}
	return sum.Dot(PolygonNormal(points)) / 2
}

// dominantAxes returns the two axes to keep when flattening along normal
func dominantAxes(normal Vector3) (int, int) {
	ax, ay, az := math.Abs(normal.X), math.Abs(normal.Y), math.Abs(normal.Z)
	switch {
	case az >= ax && az >= ay:
		if normal.Z < 0 {
			return 1, 0
		}
		return 0, 1
	case ay >= ax:
		if normal.Y < 0 {
			return 0, 2
		}
		return 2, 0
	default:
		if normal.X < 0 {
			return 2, 1
		}
		return 1, 2
	}
}

// Flatten projects polygon points into 2D along the polygon's dominant
// normal axis, keeping counter-clockwise winding.
func Flatten(points []Vector3, normal Vector3) []Vector2 {
	a, b := dominantAxes(normal)
	out := make([]Vector2, len(points))
	for i, p := range points {
		out[i] = Vector2{X: p.Axis(a), Y: p.Axis(b)}
	}
	return out
}

// PointInPolygon2D tests p against a closed polygon with the even-odd rule
func PointInPolygon2D(p Vector2, poly []Vector2) bool {
	inside := false
	j := len(poly) - 1
	for i := range poly {
		pi, pj := poly[i], poly[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) {
			x := (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y) + pi.X
			if p.X < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// PointInPolygon tests whether p lies inside the planar 3D polygon
func PointInPolygon(p Vector3, points []Vector3) bool {
	normal := PolygonNormal(points)
	flat := Flatten(points, normal)
	a, b := dominantAxes(normal)
	return PointInPolygon2D(Vector2{X: p.Axis(a), Y: p.Axis(b)}, flat)
}

// Triangulate splits a simple planar polygon into triangles by ear clipping
// and returns index triples into points. Keyhole polygons with a repeated
// bridge vertex are accepted. When no ear can be found the remainder is fanned.
func Triangulate(points []Vector3) [][3]int {
	n := len(points)
	if n < 3 {
		return nil
	}
	if n == 3 {
		return [][3]int{{0, 1, 2}}
	}

	normal := PolygonNormal(points)
	flat := Flatten(points, normal)

	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}

	tris := make([][3]int, 0, n-2)
	guard := 0
	for len(remaining) > 3 && guard < n*n {
		guard++
		clipped := false
		for i := range remaining {
			prev := remaining[(i+len(remaining)-1)%len(remaining)]
			cur := remaining[i]
			next := remaining[(i+1)%len(remaining)]
			if !isEar(flat, remaining, prev, cur, next) {
				continue
			}
			tris = append(tris, [3]int{prev, cur, next})
			remaining = append(remaining[:i], remaining[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			break
		}
	}

	for i := 1; i+1 < len(remaining); i++ {
		tris = append(tris, [3]int{remaining[0], remaining[i], remaining[i+1]})
	}
	return tris
}

func isEar(flat []Vector2, remaining []int, prev, cur, next int) bool {
	a, b, c := flat[prev], flat[cur], flat[next]
	if b.Sub(a).Cross(c.Sub(b)) <= 1e-14 {
		return false
	}
	for _, idx := range remaining {
		if idx == prev || idx == cur || idx == next {
			continue
		}
		p := flat[idx]
		// Bridge vertices repeat; a duplicate of a corner never blocks the ear.
		if p == a || p == b || p == c {
			continue
		}
		if pointInTriangle2D(p, a, b, c) {
			return false
		}
	}
	return true
}

func pointInTriangle2D(p, a, b, c Vector2) bool {
	d1 := b.Sub(a).Cross(p.Sub(a))
	d2 := c.Sub(b).Cross(p.Sub(b))
	d3 := a.Sub(c).Cross(p.Sub(c))
	return d1 >= 0 && d2 >= 0 && d3 >= 0
}

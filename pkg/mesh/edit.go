package mesh

import (
	"fmt"
	"math"

	"github.com/philipparndt/goknife/pkg/geometry"
)

// SplitEdge inserts a vertex at parameter t along e (measured from
// EdgeVerts(e)[0]) and replaces e with two edges. Every face using the edge
// gets the new vertex in its loop.
func (m *Mesh) SplitEdge(e EdgeID, t float64) (VertID, [2]EdgeID, error) {
	if !m.validEdge(e) {
		return NoVert, [2]EdgeID{NoEdge, NoEdge}, fmt.Errorf("edge %d: %w", e, ErrInvalid)
	}
	a, b := m.edges[e].v[0], m.edges[e].v[1]
	pa, pb := m.verts[a].pos, m.verts[b].pos
	length := pa.Distance(pb)
	if math.IsNaN(t) || t*length < DegenerateEpsilon || (1-t)*length < DegenerateEpsilon {
		return NoVert, [2]EdgeID{NoEdge, NoEdge}, fmt.Errorf("split edge %d at %.6f: %w", e, t, ErrDegenerate)
	}

	faces := m.EdgeFaces(e)
	selected := m.edges[e].selected

	nv := m.AddVertex(pa.Lerp(pb, t))
	m.removeEdge(e)
	e1 := m.ensureEdge(a, nv)
	e2 := m.ensureEdge(nv, b)
	m.edges[e1].selected = selected
	m.edges[e2].selected = selected

	for _, f := range faces {
		m.faces[f].verts = insertBetween(m.faces[f].verts, a, b, nv)
		m.verts[nv].faces = append(m.verts[nv].faces, f)
	}

	return nv, [2]EdgeID{e1, e2}, nil
}

// insertBetween puts v between every adjacent occurrence of a and b
func insertBetween(loop []VertID, a, b, v VertID) []VertID {
	out := make([]VertID, 0, len(loop)+2)
	for i, cur := range loop {
		out = append(out, cur)
		next := loop[(i+1)%len(loop)]
		if (cur == a && next == b) || (cur == b && next == a) {
			out = append(out, v)
		}
	}
	return out
}

// SplitFace connects two non-adjacent vertices of a face with a new edge
func (m *Mesh) SplitFace(f FaceID, a, b VertID) ([]FaceID, error) {
	return m.RetriangulateFace(f, []VertID{a, b})
}

// RetriangulateFace splits face f along path. The first and last vertices of
// path must be in the face loop; the vertices between them must be loose
// vertices not yet used by the face. When first and last are the same vertex
// the path is a loop hanging off the boundary and cuts out an inner face.
func (m *Mesh) RetriangulateFace(f FaceID, path []VertID) ([]FaceID, error) {
	if !m.validFace(f) {
		return nil, fmt.Errorf("face %d: %w", f, ErrInvalid)
	}
	if len(path) < 2 {
		return nil, fmt.Errorf("path needs at least 2 vertices: %w", ErrDegenerate)
	}
	loop := m.faces[f].verts
	first, last := path[0], path[len(path)-1]
	i := indexOf(loop, first)
	j := indexOf(loop, last)
	if i < 0 || j < 0 {
		return nil, fmt.Errorf("path ends %d-%d in face %d: %w", first, last, f, ErrNotInFace)
	}
	inner := path[1 : len(path)-1]
	for _, v := range inner {
		if !m.validVert(v) {
			return nil, fmt.Errorf("path vertex %d: %w", v, ErrInvalid)
		}
		if indexOf(loop, v) >= 0 {
			return nil, fmt.Errorf("path vertex %d already in face %d: %w", v, f, ErrDegenerate)
		}
	}

	if first == last {
		if len(inner) < 2 {
			return nil, fmt.Errorf("loop at vertex %d too short: %w", first, ErrDegenerate)
		}
		return m.fillLoop(f, i, first, inner)
	}

	n := len(loop)
	if len(inner) == 0 && (j == (i+1)%n || i == (j+1)%n) {
		return nil, fmt.Errorf("vertices %d and %d already share an edge: %w", first, last, ErrDegenerate)
	}

	// a -> ... -> b along the loop, then back along the path
	var face1, face2 []VertID
	for k := i; ; k = (k + 1) % n {
		face1 = append(face1, loop[k])
		if k == j {
			break
		}
	}
	face1 = append(face1, reversed(inner)...)

	for k := j; ; k = (k + 1) % n {
		face2 = append(face2, loop[k])
		if k == i {
			break
		}
	}
	face2 = append(face2, inner...)

	return m.replaceFace(f, face1, face2)
}

// FillIsland cuts a closed loop of loose vertices out of face f. The outer
// remainder keeps a bridge edge between boundary vertex from and loop vertex
// to, so both results stay single-boundary polygons.
func (m *Mesh) FillIsland(f FaceID, island []VertID, from, to VertID) ([]FaceID, error) {
	if !m.validFace(f) {
		return nil, fmt.Errorf("face %d: %w", f, ErrInvalid)
	}
	if len(island) < 3 {
		return nil, fmt.Errorf("island needs at least 3 vertices: %w", ErrDegenerate)
	}
	loop := m.faces[f].verts
	i := indexOf(loop, from)
	if i < 0 {
		return nil, fmt.Errorf("bridge vertex %d in face %d: %w", from, f, ErrNotInFace)
	}
	k := indexOf(island, to)
	if k < 0 {
		return nil, fmt.Errorf("bridge vertex %d not on island: %w", to, ErrNotInFace)
	}
	for _, v := range island {
		if !m.validVert(v) {
			return nil, fmt.Errorf("island vertex %d: %w", v, ErrInvalid)
		}
		if indexOf(loop, v) >= 0 {
			return nil, fmt.Errorf("island vertex %d already in face %d: %w", v, f, ErrDegenerate)
		}
	}

	rotated := append(append([]VertID(nil), island[k:]...), island[:k]...)
	return m.fillLoop(f, i, rotated[0], rotated[1:])
}

// fillLoop builds the inner face anchor+rest and the outer keyhole face that
// walks the boundary from loop[i] and then around the island the other way.
// When anchor is loop[i] itself the island hangs off the boundary and no
// bridge edge is needed.
func (m *Mesh) fillLoop(f FaceID, i int, anchor VertID, rest []VertID) ([]FaceID, error) {
	loop := m.faces[f].verts
	normal := m.FaceNormal(f)

	inner := append([]VertID{anchor}, rest...)
	if geometry.PolygonNormal(m.positions(inner)).Dot(normal) < 0 {
		inner = append([]VertID{anchor}, reversed(rest)...)
	}

	n := len(loop)
	bridged := loop[i] != anchor
	outer := make([]VertID, 0, n+len(inner)+2)
	for k := 0; k < n; k++ {
		outer = append(outer, loop[(i+k)%n])
	}
	if bridged {
		outer = append(outer, loop[i])
	}
	outer = append(outer, anchor)
	outer = append(outer, reversed(inner[1:])...)
	if bridged {
		outer = append(outer, anchor)
	}

	return m.replaceFace(f, inner, outer)
}

func (m *Mesh) replaceFace(f FaceID, loops ...[]VertID) ([]FaceID, error) {
	for _, lp := range loops {
		if err := m.checkLoop(lp); err != nil {
			return nil, err
		}
	}
	hidden, selected := m.faces[f].hidden, m.faces[f].selected
	m.removeFace(f)
	out := make([]FaceID, 0, len(loops))
	for _, lp := range loops {
		out = append(out, m.addFace(lp, hidden, selected))
	}
	return out, nil
}

func (m *Mesh) checkLoop(loop []VertID) error {
	if len(loop) < 3 {
		return fmt.Errorf("face with %d vertices: %w", len(loop), ErrDegenerate)
	}
	points := m.positions(loop)
	for k, p := range points {
		if p.Distance(points[(k+1)%len(points)]) < DegenerateEpsilon {
			return fmt.Errorf("zero-length edge at vertex %d: %w", loop[k], ErrDegenerate)
		}
	}
	if math.Abs(geometry.PolygonArea(points)) < DegenerateEpsilon*DegenerateEpsilon {
		return fmt.Errorf("zero-area face: %w", ErrDegenerate)
	}
	return nil
}

func (m *Mesh) positions(loop []VertID) []geometry.Vector3 {
	out := make([]geometry.Vector3, len(loop))
	for i, v := range loop {
		out[i] = m.verts[v].pos
	}
	return out
}

func indexOf(loop []VertID, v VertID) int {
	for i, x := range loop {
		if x == v {
			return i
		}
	}
	return -1
}

func reversed(in []VertID) []VertID {
	out := make([]VertID, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

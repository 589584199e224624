// Package mesh implements an editable polygon mesh with stable element
// indices. Removed elements leave tombstones so indices handed out earlier
// stay valid for lookups until the mesh is rebuilt.
package mesh

import (
	"errors"
	"fmt"

	"github.com/philipparndt/goknife/pkg/geometry"
)

// VertID identifies a vertex
type VertID int

// EdgeID identifies an edge
type EdgeID int

// FaceID identifies a face
type FaceID int

// Sentinels for "no element"
const (
	NoVert VertID = -1
	NoEdge EdgeID = -1
	NoFace FaceID = -1
)

// DegenerateEpsilon is the minimum length of an edge produced by a split
const DegenerateEpsilon = 1e-6

var (
	// ErrDegenerate is returned when an operation would create zero-length
	// edges, zero-area faces or duplicate vertices.
	ErrDegenerate = errors.New("degenerate geometry")
	// ErrNotInFace is returned when a vertex is not part of the face loop
	ErrNotInFace = errors.New("vertex not in face")
	// ErrInvalid is returned for removed or out-of-range elements
	ErrInvalid = errors.New("invalid element")
)

type vertex struct {
	pos      geometry.Vector3
	selected bool
	removed  bool
	faces    []FaceID
	edges    []EdgeID
}

type edge struct {
	v        [2]VertID
	selected bool
	removed  bool
}

type face struct {
	verts    []VertID
	hidden   bool
	selected bool
	removed  bool
}

// Mesh is an editable polygon mesh
type Mesh struct {
	Name string

	verts     []vertex
	edges     []edge
	faces     []face
	edgeIndex map[[2]VertID]EdgeID

	listeners []func(Update)
	revision  int
}

// New creates an empty mesh
func New(name string) *Mesh {
	return &Mesh{
		Name:      name,
		edgeIndex: make(map[[2]VertID]EdgeID),
	}
}

func edgeKey(a, b VertID) [2]VertID {
	if a > b {
		a, b = b, a
	}
	return [2]VertID{a, b}
}

// AddVertex adds a loose vertex and returns its index
func (m *Mesh) AddVertex(pos geometry.Vector3) VertID {
	m.verts = append(m.verts, vertex{pos: pos})
	return VertID(len(m.verts) - 1)
}

// RemoveVertex deletes a loose vertex that no edge or face uses
func (m *Mesh) RemoveVertex(v VertID) error {
	if !m.validVert(v) {
		return fmt.Errorf("vertex %d: %w", v, ErrInvalid)
	}
	if len(m.verts[v].edges) > 0 || len(m.verts[v].faces) > 0 {
		return fmt.Errorf("vertex %d still in use: %w", v, ErrInvalid)
	}
	m.verts[v].removed = true
	return nil
}

// AddFace adds a polygon over existing vertices, creating missing edges
func (m *Mesh) AddFace(verts ...VertID) (FaceID, error) {
	if len(verts) < 3 {
		return NoFace, fmt.Errorf("face needs at least 3 vertices, got %d: %w", len(verts), ErrDegenerate)
	}
	for i, v := range verts {
		if !m.validVert(v) {
			return NoFace, fmt.Errorf("vertex %d: %w", v, ErrInvalid)
		}
		if verts[(i+1)%len(verts)] == v {
			return NoFace, fmt.Errorf("repeated vertex %d: %w", v, ErrDegenerate)
		}
	}
	return m.addFace(verts, false, false), nil
}

func (m *Mesh) addFace(verts []VertID, hidden, selected bool) FaceID {
	loop := append([]VertID(nil), verts...)
	id := FaceID(len(m.faces))
	m.faces = append(m.faces, face{verts: loop, hidden: hidden, selected: selected})
	seen := make(map[VertID]bool, len(loop))
	for i, v := range loop {
		m.ensureEdge(v, loop[(i+1)%len(loop)])
		if !seen[v] {
			m.verts[v].faces = append(m.verts[v].faces, id)
			seen[v] = true
		}
	}
	return id
}

func (m *Mesh) removeFace(f FaceID) {
	fc := &m.faces[f]
	fc.removed = true
	for _, v := range fc.verts {
		m.verts[v].faces = removeID(m.verts[v].faces, f)
	}
}

func (m *Mesh) ensureEdge(a, b VertID) EdgeID {
	key := edgeKey(a, b)
	if e, ok := m.edgeIndex[key]; ok {
		return e
	}
	id := EdgeID(len(m.edges))
	m.edges = append(m.edges, edge{v: [2]VertID{a, b}})
	m.edgeIndex[key] = id
	m.verts[a].edges = append(m.verts[a].edges, id)
	m.verts[b].edges = append(m.verts[b].edges, id)
	return id
}

func (m *Mesh) removeEdge(e EdgeID) {
	ed := &m.edges[e]
	ed.removed = true
	delete(m.edgeIndex, edgeKey(ed.v[0], ed.v[1]))
	m.verts[ed.v[0]].edges = removeID(m.verts[ed.v[0]].edges, e)
	m.verts[ed.v[1]].edges = removeID(m.verts[ed.v[1]].edges, e)
}

func removeID[T comparable](ids []T, id T) []T {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func (m *Mesh) validVert(v VertID) bool {
	return v >= 0 && int(v) < len(m.verts) && !m.verts[v].removed
}

func (m *Mesh) validEdge(e EdgeID) bool {
	return e >= 0 && int(e) < len(m.edges) && !m.edges[e].removed
}

func (m *Mesh) validFace(f FaceID) bool {
	return f >= 0 && int(f) < len(m.faces) && !m.faces[f].removed
}

// VertCount returns the number of live vertices
func (m *Mesh) VertCount() int {
	n := 0
	for _, v := range m.verts {
		if !v.removed {
			n++
		}
	}
	return n
}

// EdgeCount returns the number of live edges
func (m *Mesh) EdgeCount() int {
	return len(m.edgeIndex)
}

// FaceCount returns the number of live faces
func (m *Mesh) FaceCount() int {
	n := 0
	for _, f := range m.faces {
		if !f.removed {
			n++
		}
	}
	return n
}

// Verts returns the live vertex indices in ascending order
func (m *Mesh) Verts() []VertID {
	out := make([]VertID, 0, len(m.verts))
	for i, v := range m.verts {
		if !v.removed {
			out = append(out, VertID(i))
		}
	}
	return out
}

// Edges returns the live edge indices in ascending order
func (m *Mesh) Edges() []EdgeID {
	out := make([]EdgeID, 0, len(m.edgeIndex))
	for i, e := range m.edges {
		if !e.removed {
			out = append(out, EdgeID(i))
		}
	}
	return out
}

// Faces returns the live face indices in ascending order
func (m *Mesh) Faces() []FaceID {
	out := make([]FaceID, 0, len(m.faces))
	for i, f := range m.faces {
		if !f.removed {
			out = append(out, FaceID(i))
		}
	}
	return out
}

// Position returns the position of a vertex
func (m *Mesh) Position(v VertID) geometry.Vector3 {
	return m.verts[v].pos
}

// EdgeVerts returns the two vertices of an edge
func (m *Mesh) EdgeVerts(e EdgeID) [2]VertID {
	return m.edges[e].v
}

// EdgeBetween returns the edge joining two vertices, if any
func (m *Mesh) EdgeBetween(a, b VertID) (EdgeID, bool) {
	e, ok := m.edgeIndex[edgeKey(a, b)]
	return e, ok
}

// EdgeFaces returns the faces using an edge
func (m *Mesh) EdgeFaces(e EdgeID) []FaceID {
	a, b := m.edges[e].v[0], m.edges[e].v[1]
	var out []FaceID
	for _, f := range m.verts[a].faces {
		if faceHasEdge(m.faces[f].verts, a, b) {
			out = append(out, f)
		}
	}
	return out
}

func faceHasEdge(loop []VertID, a, b VertID) bool {
	for i, v := range loop {
		next := loop[(i+1)%len(loop)]
		if (v == a && next == b) || (v == b && next == a) {
			return true
		}
	}
	return false
}

// VertFaces returns the faces using a vertex
func (m *Mesh) VertFaces(v VertID) []FaceID {
	return append([]FaceID(nil), m.verts[v].faces...)
}

// VertEdges returns the edges using a vertex
func (m *Mesh) VertEdges(v VertID) []EdgeID {
	return append([]EdgeID(nil), m.verts[v].edges...)
}

// FaceVerts returns the vertex loop of a face
func (m *Mesh) FaceVerts(f FaceID) []VertID {
	return append([]VertID(nil), m.faces[f].verts...)
}

// FaceEdges returns the edges of a face loop without duplicates
func (m *Mesh) FaceEdges(f FaceID) []EdgeID {
	loop := m.faces[f].verts
	out := make([]EdgeID, 0, len(loop))
	seen := make(map[EdgeID]bool, len(loop))
	for i, v := range loop {
		e, ok := m.EdgeBetween(v, loop[(i+1)%len(loop)])
		if ok && !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// FacePositions returns the positions of a face loop
func (m *Mesh) FacePositions(f FaceID) []geometry.Vector3 {
	loop := m.faces[f].verts
	out := make([]geometry.Vector3, len(loop))
	for i, v := range loop {
		out[i] = m.verts[v].pos
	}
	return out
}

// FaceNormal returns the unit normal of a face
func (m *Mesh) FaceNormal(f FaceID) geometry.Vector3 {
	return geometry.PolygonNormal(m.FacePositions(f))
}

// FaceCenter returns the average of a face's vertex positions
func (m *Mesh) FaceCenter(f FaceID) geometry.Vector3 {
	points := m.FacePositions(f)
	var sum geometry.Vector3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(points)))
}

// FaceHidden reports whether a face is hidden
func (m *Mesh) FaceHidden(f FaceID) bool {
	return m.faces[f].hidden
}

// SetFaceHidden hides or reveals a face
func (m *Mesh) SetFaceHidden(f FaceID, hidden bool) {
	m.faces[f].hidden = hidden
}

// FaceTriangles triangulates a face and returns vertex index triples
func (m *Mesh) FaceTriangles(f FaceID) [][3]VertID {
	loop := m.faces[f].verts
	tris := geometry.Triangulate(m.FacePositions(f))
	out := make([][3]VertID, len(tris))
	for i, tri := range tris {
		out[i] = [3]VertID{loop[tri[0]], loop[tri[1]], loop[tri[2]]}
	}
	return out
}

// Revision increments with every notified update
func (m *Mesh) Revision() int {
	return m.revision
}

// Package cutgraph tracks the vertices and edges a knife interaction adds on
// top of the meshes being cut. Nothing here touches the meshes; the graph is
// rolled back or handed to the finalizer.
package cutgraph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/philipparndt/goknife/internal/scene"
	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/philipparndt/goknife/pkg/mesh"
	"github.com/samber/lo"
)

// DefaultEpsilon is the local-space distance under which points coincide
const DefaultEpsilon = 1e-5

var (
	// ErrStale is returned for handles whose element was removed
	ErrStale = errors.New("stale handle")
	// ErrSameVert is returned when connecting a vertex to itself
	ErrSameVert = errors.New("connecting a vertex to itself")
	// ErrNotConfined is returned when two vertices share no face
	ErrNotConfined = errors.New("vertices share no face")
	// ErrOnBoundary is returned when a segment runs along an existing edge
	ErrOnBoundary = errors.New("segment lies on a face boundary")
)

// Vert is a point of the cut, either wrapping a real mesh vertex or new
type Vert struct {
	// Pos is the object-local position, Cage the world position
	Pos    geometry.Vector3
	Cage   geometry.Vector3
	Object int
	Real   mesh.VertID
	// OnEdge is the real edge a new vertex subdivides
	OnEdge mesh.EdgeID
	Faces  []mesh.FaceID
	Edges  []EdgeRef
	// IsFace marks a vertex strictly inside a single face
	IsFace      bool
	IsCut       bool
	IsInvalid   bool
	IsSplitting bool
	Layer       int
}

func (v Vert) clone() Vert {
	v.Faces = slices.Clone(v.Faces)
	v.Edges = slices.Clone(v.Edges)
	return v
}

// IsNew reports whether the vertex does not exist in the mesh yet
func (v *Vert) IsNew() bool {
	return v.Real == mesh.NoVert
}

// Edge is a segment of the cut or a wrapped real edge
type Edge struct {
	V1, V2 VertRef
	Object int
	Faces  []mesh.FaceID
	// BaseFace confines a cut edge; NoFace for edges along real edges
	BaseFace mesh.FaceID
	// Real is set while a wrapped real edge is unsplit
	Real mesh.EdgeID
	// Origin is the real edge a boundary segment lies on
	Origin    mesh.EdgeID
	IsCut     bool
	IsInvalid bool
	Splits    int
	Layer     int
}

func (e Edge) clone() Edge {
	e.Faces = slices.Clone(e.Faces)
	return e
}

// Other returns the endpoint of e that is not v
func (e *Edge) Other(v VertRef) VertRef {
	if e.V1 == v {
		return e.V2
	}
	return e.V1
}

type realKey struct {
	obj int
	id  int
}

type faceKey = realKey

// Stats summarizes the graph
type Stats struct {
	Verts    int
	NewVerts int
	Edges    int
	CutEdges int
	Invalid  int
	Splits   int
}

// Graph is the cut graph of one interaction
type Graph struct {
	Epsilon float64

	objects   []*scene.Object
	verts     []vertSlot
	edges     []edgeSlot
	freeVerts []int32
	freeEdges []int32
	gen       uint32

	realVerts map[realKey]VertRef
	realEdges map[realKey]EdgeRef
	faceEdges map[faceKey][]EdgeRef
	sequence  []VertRef
	journal   []func()
}

// New creates an empty graph over objects
func New(objects []*scene.Object) *Graph {
	g := &Graph{Epsilon: DefaultEpsilon, objects: objects}
	g.Reset()
	return g
}

// Reset discards every vertex, edge and journal entry
func (g *Graph) Reset() {
	g.verts = nil
	g.edges = nil
	g.freeVerts = nil
	g.freeEdges = nil
	g.realVerts = make(map[realKey]VertRef)
	g.realEdges = make(map[realKey]EdgeRef)
	g.faceEdges = make(map[faceKey][]EdgeRef)
	g.sequence = nil
	g.journal = nil
}

// Objects returns the objects the graph was created for
func (g *Graph) Objects() []*scene.Object {
	return g.objects
}

// Vert resolves a handle; nil when stale
func (g *Graph) Vert(r VertRef) *Vert {
	if r.IsZero() || int(r.idx) >= len(g.verts) {
		return nil
	}
	slot := &g.verts[r.idx]
	if !slot.alive || slot.gen != r.gen {
		return nil
	}
	return &slot.v
}

// Edge resolves a handle; nil when stale
func (g *Graph) Edge(r EdgeRef) *Edge {
	if r.IsZero() || int(r.idx) >= len(g.edges) {
		return nil
	}
	slot := &g.edges[r.idx]
	if !slot.alive || slot.gen != r.gen {
		return nil
	}
	return &slot.e
}

// Verts returns all live vertices in allocation order
func (g *Graph) Verts() []VertRef {
	var out []VertRef
	for i, s := range g.verts {
		if s.alive {
			out = append(out, VertRef{idx: int32(i), gen: s.gen})
		}
	}
	return out
}

// Edges returns all live edges in allocation order
func (g *Graph) Edges() []EdgeRef {
	var out []EdgeRef
	for i, s := range g.edges {
		if s.alive {
			out = append(out, EdgeRef{idx: int32(i), gen: s.gen})
		}
	}
	return out
}

// Stats counts the live elements
func (g *Graph) Stats() Stats {
	var st Stats
	for _, s := range g.verts {
		if !s.alive {
			continue
		}
		st.Verts++
		if s.v.IsNew() && (s.v.IsCut || s.v.IsSplitting) {
			st.NewVerts++
		}
	}
	for _, s := range g.edges {
		if !s.alive {
			continue
		}
		st.Edges++
		if s.e.IsCut {
			st.CutEdges++
		}
		if s.e.IsInvalid {
			st.Invalid++
		}
		st.Splits += s.e.Splits
	}
	return st
}

// RealVert returns the wrapper of a mesh vertex, creating it on first use
func (g *Graph) RealVert(obj int, v mesh.VertID) VertRef {
	key := realKey{obj, int(v)}
	if ref, ok := g.realVerts[key]; ok {
		return ref
	}
	o := g.objects[obj]
	pos := o.Mesh.Position(v)
	ref := g.allocVert(Vert{
		Pos:    pos,
		Cage:   o.ToWorld(pos),
		Object: obj,
		Real:   v,
		OnEdge: mesh.NoEdge,
		Faces:  o.Mesh.VertFaces(v),
	}, false)
	g.realVerts[key] = ref
	return ref
}

// RealEdge returns the wrapper of a mesh edge, creating it on first use.
// Once the wrapper has been split the returned handle is stale.
func (g *Graph) RealEdge(obj int, e mesh.EdgeID) EdgeRef {
	key := realKey{obj, int(e)}
	if ref, ok := g.realEdges[key]; ok {
		return ref
	}
	o := g.objects[obj]
	ends := o.Mesh.EdgeVerts(e)
	v1 := g.RealVert(obj, ends[0])
	v2 := g.RealVert(obj, ends[1])
	ref := g.allocEdge(Edge{
		V1:       v1,
		V2:       v2,
		Object:   obj,
		Faces:    o.Mesh.EdgeFaces(e),
		BaseFace: mesh.NoFace,
		Real:     e,
		Origin:   e,
	}, false)
	g.realEdges[key] = ref
	g.Vert(v1).Edges = append(g.Vert(v1).Edges, ref)
	g.Vert(v2).Edges = append(g.Vert(v2).Edges, ref)
	return ref
}

func (g *Graph) ensureFace(key faceKey) {
	if _, ok := g.faceEdges[key]; ok {
		return
	}
	var list []EdgeRef
	for _, e := range g.objects[key.obj].Mesh.FaceEdges(mesh.FaceID(key.id)) {
		list = append(list, g.RealEdge(key.obj, e))
	}
	g.faceEdges[key] = list
}

// FaceEdges returns the live edges bordering or inside a face, wrapping the
// face's real edges on first use.
func (g *Graph) FaceEdges(obj int, f mesh.FaceID) []EdgeRef {
	key := faceKey{obj, int(f)}
	g.ensureFace(key)
	return lo.Filter(g.faceEdges[key], func(r EdgeRef, _ int) bool {
		return g.Edge(r) != nil
	})
}

// FaceVerts returns the live vertices of the edges of a face
func (g *Graph) FaceVerts(obj int, f mesh.FaceID) []VertRef {
	var out []VertRef
	for _, r := range g.FaceEdges(obj, f) {
		e := g.Edge(r)
		out = append(out, e.V1, e.V2)
	}
	return lo.Uniq(out)
}

func (g *Graph) addFaceEdge(obj int, f mesh.FaceID, r EdgeRef) {
	key := faceKey{obj, int(f)}
	g.ensureFace(key)
	g.touchFace(key)
	g.faceEdges[key] = append(g.faceEdges[key], r)
}

func (g *Graph) removeFaceEdge(obj int, f mesh.FaceID, r EdgeRef) {
	key := faceKey{obj, int(f)}
	g.ensureFace(key)
	g.touchFace(key)
	g.faceEdges[key] = slices.DeleteFunc(slices.Clone(g.faceEdges[key]), func(x EdgeRef) bool { return x == r })
}

func (g *Graph) linkEdge(r EdgeRef) {
	e := g.Edge(r)
	v1, v2, obj, faces := e.V1, e.V2, e.Object, e.Faces
	for _, v := range []VertRef{v1, v2} {
		vert := g.touchVert(v)
		vert.Edges = append(vert.Edges, r)
	}
	for _, f := range faces {
		g.addFaceEdge(obj, f, r)
	}
}

func (g *Graph) unlinkEdge(r EdgeRef) {
	e := g.Edge(r)
	v1, v2, obj, faces := e.V1, e.V2, e.Object, slices.Clone(e.Faces)
	for _, v := range []VertRef{v1, v2} {
		vert := g.touchVert(v)
		vert.Edges = slices.DeleteFunc(vert.Edges, func(x EdgeRef) bool { return x == r })
	}
	for _, f := range faces {
		g.removeFaceEdge(obj, f, r)
	}
	g.killEdge(r)
}

// EdgeBetween returns the live edge joining two vertices
func (g *Graph) EdgeBetween(a, b VertRef) (EdgeRef, bool) {
	va := g.Vert(a)
	if va == nil {
		return EdgeRef{}, false
	}
	for _, r := range va.Edges {
		e := g.Edge(r)
		if e != nil && e.Other(a) == b {
			return r, true
		}
	}
	return EdgeRef{}, false
}

// CommonFace returns the lowest face both vertices belong to, or NoFace
func (g *Graph) CommonFace(a, b VertRef) mesh.FaceID {
	va, vb := g.Vert(a), g.Vert(b)
	if va == nil || vb == nil || va.Object != vb.Object {
		return mesh.NoFace
	}
	shared := lo.Intersect(va.Faces, vb.Faces)
	if len(shared) == 0 {
		return mesh.NoFace
	}
	return slices.Min(shared)
}

// origins returns the real edges a vertex lies on
func (g *Graph) origins(v *Vert) []mesh.EdgeID {
	switch {
	case v.IsFace:
		return nil
	case v.Real != mesh.NoVert:
		return g.objects[v.Object].Mesh.VertEdges(v.Real)
	default:
		return []mesh.EdgeID{v.OnEdge}
	}
}

// SplitEdge inserts a new vertex at local position pos on edge r. The edge
// is replaced by two halves; r becomes stale.
func (g *Graph) SplitEdge(r EdgeRef, pos, cage geometry.Vector3) (VertRef, [2]EdgeRef, error) {
	e := g.Edge(r)
	if e == nil {
		return VertRef{}, [2]EdgeRef{}, fmt.Errorf("split edge: %w", ErrStale)
	}
	old := e.clone()

	v := Vert{
		Pos:         pos,
		Cage:        cage,
		Object:      old.Object,
		Real:        mesh.NoVert,
		OnEdge:      old.Origin,
		Faces:       slices.Clone(old.Faces),
		IsFace:      old.Origin == mesh.NoEdge,
		IsCut:       old.IsCut,
		IsSplitting: true,
		Layer:       old.Layer,
	}
	nv := g.allocVert(v, true)

	g.unlinkEdge(r)

	halves := [2]EdgeRef{}
	for i, ends := range [2][2]VertRef{{old.V1, nv}, {nv, old.V2}} {
		half := old.clone()
		half.V1, half.V2 = ends[0], ends[1]
		half.Real = mesh.NoEdge
		half.Splits = old.Splits + 1
		halves[i] = g.allocEdge(half, true)
		g.linkEdge(halves[i])
	}
	return nv, halves, nil
}

// InsertPoint returns the vertex for a line hit: the hit vertex itself, an
// endpoint or new split of the hit edge, or a fresh vertex inside the face.
func (g *Graph) InsertPoint(hit LineHit) (VertRef, error) {
	switch t := hit.Target.(type) {
	case VertTarget:
		if g.Vert(t.Vert) == nil {
			return VertRef{}, fmt.Errorf("insert vertex hit: %w", ErrStale)
		}
		return t.Vert, nil

	case EdgeTarget:
		e := g.Edge(t.Edge)
		if e == nil {
			return VertRef{}, fmt.Errorf("insert edge hit: %w", ErrStale)
		}
		for _, end := range []VertRef{e.V1, e.V2} {
			if g.Vert(end).Pos.Distance(hit.Hit) < g.Epsilon {
				return end, nil
			}
		}
		nv, _, err := g.SplitEdge(t.Edge, hit.Hit, hit.Cage)
		if err != nil {
			return VertRef{}, err
		}
		if hit.Layer > 0 {
			g.touchVert(nv).Layer = hit.Layer
		}
		return nv, nil

	case FaceTarget:
		ref := g.allocVert(Vert{
			Pos:    hit.Hit,
			Cage:   hit.Cage,
			Object: hit.Object,
			Real:   mesh.NoVert,
			OnEdge: mesh.NoEdge,
			Faces:  []mesh.FaceID{t.Face},
			IsFace: true,
			Layer:  hit.Layer,
		}, true)
		return ref, nil
	}
	return VertRef{}, fmt.Errorf("line hit without target")
}

// containing returns a cut edge of face f whose interior holds v
func (g *Graph) containing(obj int, f mesh.FaceID, v VertRef) (EdgeRef, bool) {
	p := g.Vert(v).Pos
	for _, r := range g.FaceEdges(obj, f) {
		e := g.Edge(r)
		if e.V1 == v || e.V2 == v || e.BaseFace != f {
			continue
		}
		a, b := g.Vert(e.V1).Pos, g.Vert(e.V2).Pos
		ab := b.Sub(a)
		lenSq := ab.LengthSquared()
		if lenSq == 0 {
			continue
		}
		t := p.Sub(a).Dot(ab) / lenSq
		if t <= 0 || t >= 1 {
			continue
		}
		if a.Lerp(b, t).Distance(p) < g.Epsilon {
			return r, true
		}
	}
	return EdgeRef{}, false
}

// relink replaces edge r with two edges meeting at the existing vertex v
func (g *Graph) relink(r EdgeRef, v VertRef) {
	old := g.Edge(r).clone()
	g.unlinkEdge(r)
	for _, ends := range [2][2]VertRef{{old.V1, v}, {v, old.V2}} {
		half := old.clone()
		half.V1, half.V2 = ends[0], ends[1]
		half.Splits = old.Splits + 1
		g.linkEdge(g.allocEdge(half, true))
	}
	g.touchVert(v).IsSplitting = true
}

// Connect adds a cut edge between two vertices confined to face f. A NoFace
// f picks the common face. An existing edge is reused; an existing cut edge
// passing through either vertex is split there instead of being overlapped.
// Segments that would leave the face are kept as invalid edges.
func (g *Graph) Connect(a, b VertRef, f mesh.FaceID) (EdgeRef, error) {
	va, vb := g.Vert(a), g.Vert(b)
	if va == nil || vb == nil {
		return EdgeRef{}, fmt.Errorf("connect: %w", ErrStale)
	}
	if a == b {
		return EdgeRef{}, ErrSameVert
	}
	if r, ok := g.EdgeBetween(a, b); ok {
		if e := g.Edge(r); !e.IsCut && e.Origin == mesh.NoEdge {
			g.touchEdge(r).IsCut = true
		}
		return r, nil
	}

	obj := va.Object
	if f == mesh.NoFace {
		f = g.CommonFace(a, b)
	}
	if f == mesh.NoFace || va.Object != vb.Object || !slices.Contains(va.Faces, f) || !slices.Contains(vb.Faces, f) {
		r := g.allocEdge(Edge{
			V1: a, V2: b, Object: obj, BaseFace: mesh.NoFace,
			Real: mesh.NoEdge, Origin: mesh.NoEdge, IsInvalid: true,
		}, true)
		return r, fmt.Errorf("connect across faces: %w", ErrNotConfined)
	}

	if len(lo.Intersect(g.origins(va), g.origins(vb))) > 0 {
		return EdgeRef{}, ErrOnBoundary
	}

	for _, v := range []VertRef{a, b} {
		if r, ok := g.containing(obj, f, v); ok {
			g.relink(r, v)
		}
	}
	if r, ok := g.EdgeBetween(a, b); ok {
		return r, nil
	}

	layer := max(va.Layer, vb.Layer)
	r := g.allocEdge(Edge{
		V1:       a,
		V2:       b,
		Object:   obj,
		Faces:    []mesh.FaceID{f},
		BaseFace: f,
		Real:     mesh.NoEdge,
		Origin:   mesh.NoEdge,
		IsCut:    true,
		Layer:    layer,
	}, true)
	g.linkEdge(r)
	g.touchVert(a).IsCut = true
	g.touchVert(b).IsCut = true
	return r, nil
}

// Invalidate flags a cut edge that can no longer be applied
func (g *Graph) Invalidate(r EdgeRef) {
	if g.Edge(r) == nil {
		return
	}
	g.touchEdge(r).IsInvalid = true
}

// AddCut inserts the hits of one segment and connects each hit to the next
// later hit on the same object that shares a face with it. It returns the
// vertex of every hit, zero where insertion failed, and the number of edges
// added.
func (g *Graph) AddCut(hits []LineHit) ([]VertRef, int) {
	points := make([]VertRef, len(hits))
	verts := make([]VertRef, 0, len(hits))
	for i, h := range hits {
		v, err := g.InsertPoint(h)
		if err != nil {
			continue
		}
		points[i] = v
		if n := len(verts); n > 0 && verts[n-1] == v {
			continue
		}
		verts = append(verts, v)
	}

	cuts := 0
	for i, a := range verts {
		for _, b := range verts[i+1:] {
			if b == a {
				continue
			}
			f := g.CommonFace(a, b)
			if f == mesh.NoFace {
				continue
			}
			if _, err := g.Connect(a, b, f); err == nil {
				cuts++
			}
			break
		}
	}
	return points, cuts
}

// NewSequence starts a new polyline; the next appended vertex is its first
func (g *Graph) NewSequence() {
	prev := g.sequence
	g.sequence = nil
	g.record(func() { g.sequence = prev })
}

// AppendSequence records a placed point of the current polyline
func (g *Graph) AppendSequence(v VertRef) {
	if n := len(g.sequence); n > 0 && g.sequence[n-1] == v {
		return
	}
	prev := g.sequence
	g.sequence = append(slices.Clone(prev), v)
	g.record(func() { g.sequence = prev })
}

// Sequence returns the placed points of the current polyline
func (g *Graph) Sequence() []VertRef {
	return slices.Clone(g.sequence)
}

// IsClosedLoop reports whether the current polyline ends where it started
func (g *Graph) IsClosedLoop() bool {
	n := len(g.sequence)
	return n >= 4 && g.sequence[0] == g.sequence[n-1]
}

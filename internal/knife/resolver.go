package knife

import (
	"cmp"
	"math"
	"slices"

	"github.com/philipparndt/goknife/internal/bvh"
	"github.com/philipparndt/goknife/internal/cutgraph"
	"github.com/philipparndt/goknife/internal/scene"
	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/philipparndt/goknife/pkg/mesh"
)

// Projection maps between world space and screen pixels. *viewer.Camera
// implements it.
type Projection interface {
	Project(world geometry.Vector3) (geometry.Vector2, float64, bool)
	Unproject(screen geometry.Vector2, depth float64) geometry.Vector3
	ViewRay(screen geometry.Vector2) (origin, dir geometry.Vector3)
	IsOrthographic() bool
}

// Position is a snapped cursor position
type Position struct {
	Screen geometry.Vector2
	// Cage is the world position, Hit the object-local one
	Cage   geometry.Vector3
	Hit    geometry.Vector3
	Object int
	Face   mesh.FaceID
	Vert   cutgraph.VertRef
	Edge   cutgraph.EdgeRef
	OnMesh bool
}

type faceRef struct {
	obj  int
	face mesh.FaceID
}

// Resolver turns screen positions and segments into snapped positions and
// ordered line hits against the current cut graph.
type Resolver struct {
	// IgnoreSnap disables vertex and edge snapping of the cursor
	IgnoreSnap bool

	cfg     *Config
	proj    Projection
	graph   *cutgraph.Graph
	objects []*scene.Object
	index   *bvh.Index
	indexed map[faceRef]bool
}

// NewResolver creates a resolver. cfg is read on every query.
func NewResolver(cfg *Config, proj Projection, index *bvh.Index, graph *cutgraph.Graph) *Resolver {
	r := &Resolver{cfg: cfg, proj: proj, graph: graph, objects: graph.Objects()}
	r.SetIndex(index)
	return r
}

// SetIndex swaps the spatial index
func (r *Resolver) SetIndex(index *bvh.Index) {
	r.index = index
	r.indexed = make(map[faceRef]bool)
	for _, e := range index.Entries() {
		r.indexed[faceRef{e.Object, e.Face}] = true
	}
}

// SetProjection swaps the projection
func (r *Resolver) SetProjection(proj Projection) {
	r.proj = proj
}

func (r *Resolver) culling() bool {
	return r.cfg.CullBackfaces && !r.cfg.CutThrough
}

// frontFacing rejects triangles seen from behind while culling
func (r *Resolver) frontFacing(dir geometry.Vector3) bvh.EntryFilter {
	if !r.culling() {
		return nil
	}
	return func(e *bvh.Entry) bool {
		return e.Triangle().Normal.Dot(dir) < 0
	}
}

// offMeshDepth is the view depth used for cursor positions over empty space
func (r *Resolver) offMeshDepth() float64 {
	if r.index.Len() == 0 {
		return 1
	}
	_, depth, _ := r.proj.Project(r.index.Bounds().Center())
	return depth
}

// Snap finds the surface under a screen position and snaps it to a nearby
// cut vertex or edge of the face there.
func (r *Resolver) Snap(screen geometry.Vector2) Position {
	pos := Position{Screen: screen, Object: -1, Face: mesh.NoFace}
	origin, dir := r.proj.ViewRay(screen)
	hit, ok := r.index.RaycastLoose(bvh.NewRay(origin, dir, 0), r.frontFacing(dir))
	if !ok {
		pos.Cage = r.proj.Unproject(screen, r.offMeshDepth())
		return pos
	}

	obj := hit.Object()
	pos.OnMesh = true
	pos.Object = obj
	pos.Face = hit.Entry.Face
	pos.Cage = hit.Position
	pos.Hit = r.objects[obj].ToLocal(hit.Position)
	if r.IgnoreSnap {
		return pos
	}
	if snapped, ok := r.snapVert(pos); ok {
		return snapped
	}
	if snapped, ok := r.snapEdge(pos); ok {
		return snapped
	}
	return pos
}

func (r *Resolver) snapVert(pos Position) (Position, bool) {
	best := math.Inf(1)
	var out Position
	for _, ref := range r.graph.FaceVerts(pos.Object, pos.Face) {
		v := r.graph.Vert(ref)
		screen, _, ok := r.proj.Project(v.Cage)
		if !ok {
			continue
		}
		if d := screen.Distance(pos.Screen); d < r.cfg.VertexSnapPx && d < best {
			best = d
			out = pos
			out.Screen = screen
			out.Cage = v.Cage
			out.Hit = v.Pos
			out.Vert = ref
		}
	}
	return out, !math.IsInf(best, 1)
}

func (r *Resolver) snapEdge(pos Position) (Position, bool) {
	best := math.Inf(1)
	var out Position
	for _, ref := range r.graph.FaceEdges(pos.Object, pos.Face) {
		e := r.graph.Edge(ref)
		v1, v2 := r.graph.Vert(e.V1), r.graph.Vert(e.V2)
		s1, d1, ok1 := r.proj.Project(v1.Cage)
		s2, d2, ok2 := r.proj.Project(v2.Cage)
		if !ok1 || !ok2 {
			continue
		}
		s, dist := geometry.ClosestOnSegment2D(pos.Screen, s1, s2)
		if dist >= r.cfg.EdgeSnapPx || dist >= best {
			continue
		}
		t := r.worldParam(s, d1, d2)
		if r.cfg.MidpointSnap {
			t = 0.5
		}
		cage := v1.Cage.Lerp(v2.Cage, t)
		screen, _, _ := r.proj.Project(cage)
		best = dist
		out = pos
		out.Screen = screen
		out.Cage = cage
		out.Hit = v1.Pos.Lerp(v2.Pos, t)
		out.Edge = ref
	}
	return out, !math.IsInf(best, 1)
}

// worldParam converts a screen-space parameter along a projected segment
// into the parameter along the 3D segment with end depths da and db.
func (r *Resolver) worldParam(s, da, db float64) float64 {
	if r.proj.IsOrthographic() {
		return s
	}
	den := (1-s)*db + s*da
	if den == 0 {
		return s
	}
	return s * da / den
}

// cutPlane returns a point and normal of the plane swept by the view rays
// through a and b.
func (r *Resolver) cutPlane(a, b geometry.Vector2) (geometry.Vector3, geometry.Vector3, bool) {
	oa, da := r.proj.ViewRay(a)
	ob, db := r.proj.ViewRay(b)
	normal := da.Cross(ob.Add(db).Sub(oa))
	if normal.LengthSquared() == 0 {
		return oa, normal, false
	}
	return oa, normal.Normalize(), true
}

// visible reports whether a world point on the surface can be seen, and its
// depth layer counted in surfaces in front of it.
func (r *Resolver) visible(cage geometry.Vector3, screen geometry.Vector2, faces []mesh.FaceID, obj int) (bool, int) {
	origin, dir := r.proj.ViewRay(screen)
	dist := cage.Sub(origin).Dot(dir)
	tol := bvh.LooseEpsilon * math.Max(1, r.index.Bounds().Diagonal())

	if r.cfg.CutThrough {
		layer := 0
		for _, h := range r.index.RaycastAll(bvh.NewRay(origin, dir, 0), nil) {
			if h.Distance < dist-tol && !(h.Object() == obj && slices.Contains(faces, h.Entry.Face)) {
				layer++
			}
		}
		return true, layer
	}

	if r.culling() && len(faces) > 0 {
		front := slices.ContainsFunc(faces, func(f mesh.FaceID) bool {
			return r.objects[obj].WorldFaceNormal(f).Dot(dir) < 0
		})
		if !front {
			return false, 0
		}
	}
	if hit, ok := r.index.Raycast(bvh.NewRay(origin, dir, 0), r.frontFacing(dir)); ok && hit.Distance < dist-tol {
		return false, 0
	}
	return true, 0
}

// ResolveSegment returns the ordered hits of the screen segment a-b. Lambdas
// start at offset and grow by the segment's pixel length.
func (r *Resolver) ResolveSegment(a, b Position, offset float64) []cutgraph.LineHit {
	length := a.Screen.Distance(b.Screen)
	if !a.Vert.IsZero() && a.Vert == b.Vert {
		return nil
	}
	if length < 1e-9 {
		return nil
	}
	origin, normal, ok := r.cutPlane(a.Screen, b.Screen)
	if !ok {
		return nil
	}

	dir := b.Screen.Sub(a.Screen)
	param := func(s geometry.Vector2) float64 {
		return s.Sub(a.Screen).Dot(dir) / (length * length)
	}
	inRange := func(s float64, eps float64) bool {
		return s*length >= -eps && s*length <= length+eps
	}

	var hits []cutgraph.LineHit
	add := func(h cutgraph.LineHit, s float64, faces []mesh.FaceID) {
		vis, layer := r.visible(h.Cage, h.Screen, faces, h.Object)
		if !vis {
			return
		}
		h.Lambda = offset + math.Max(0, math.Min(1, s))*length
		h.Layer = layer
		hits = append(hits, h)
	}

	for _, fr := range r.sliceFaces(a.Screen, b.Screen) {
		for _, ref := range r.graph.FaceVerts(fr.obj, fr.face) {
			v := r.graph.Vert(ref)
			screen, depth, ok := r.proj.Project(v.Cage)
			if !ok {
				continue
			}
			if _, dist := geometry.ClosestOnSegment2D(screen, a.Screen, b.Screen); dist >= r.cfg.VertexEpsilon {
				continue
			}
			add(cutgraph.LineHit{
				Target: cutgraph.VertTarget{Vert: ref},
				Hit:    v.Pos, Cage: v.Cage, Screen: screen,
				Depth: depth, Object: v.Object,
			}, param(screen), v.Faces)
		}

		for _, ref := range r.graph.FaceEdges(fr.obj, fr.face) {
			e := r.graph.Edge(ref)
			v1, v2 := r.graph.Vert(e.V1), r.graph.Vert(e.V2)
			t, ok := geometry.IntersectLinePlane(v1.Cage, v2.Cage, origin, normal)
			if !ok {
				continue
			}
			cage := v1.Cage.Lerp(v2.Cage, t)
			screen, depth, ok := r.proj.Project(cage)
			if !ok {
				continue
			}
			s := param(screen)
			if !inRange(s, r.cfg.EdgeEpsilon) {
				continue
			}
			h := cutgraph.LineHit{
				Target: cutgraph.EdgeTarget{Edge: ref},
				Hit:    v1.Pos.Lerp(v2.Pos, t), Cage: cage, Screen: screen,
				Perc: t, Depth: depth, Object: e.Object,
			}
			// crossings next to an endpoint land on the endpoint
			for _, end := range []cutgraph.VertRef{e.V1, e.V2} {
				ev := r.graph.Vert(end)
				es, _, ok := r.proj.Project(ev.Cage)
				if ok && es.Distance(screen) < r.cfg.VertexEpsilon {
					h.Target = cutgraph.VertTarget{Vert: end}
					h.Hit, h.Cage, h.Screen = ev.Pos, ev.Cage, es
					break
				}
			}
			add(h, s, e.Faces)
		}
	}

	for i, p := range []Position{a, b} {
		if h, ok := r.endpointHit(p); ok {
			h.Lambda = offset + float64(i)*length
			hits = append(hits, h)
		}
	}

	cutgraph.SortLineHits(hits)
	return cutgraph.DedupeLineHits(hits, r.cfg.VertexEpsilon)
}

// endpointHit turns a snapped trail point into a hit. Points over empty
// space produce none.
func (r *Resolver) endpointHit(p Position) (cutgraph.LineHit, bool) {
	_, depth, _ := r.proj.Project(p.Cage)
	h := cutgraph.LineHit{Hit: p.Hit, Cage: p.Cage, Screen: p.Screen, Depth: depth, Object: p.Object}
	if v := r.graph.Vert(p.Vert); v != nil {
		h.Target = cutgraph.VertTarget{Vert: p.Vert}
		h.Hit, h.Cage, h.Object = v.Pos, v.Cage, v.Object
		return h, true
	}
	if e := r.graph.Edge(p.Edge); e != nil {
		a, b := r.graph.Vert(e.V1).Pos, r.graph.Vert(e.V2).Pos
		ab := b.Sub(a)
		if lenSq := ab.LengthSquared(); lenSq > 0 {
			h.Perc = math.Max(0, math.Min(1, p.Hit.Sub(a).Dot(ab)/lenSq))
		}
		h.Target = cutgraph.EdgeTarget{Edge: p.Edge}
		h.Object = e.Object
		return h, true
	}
	if p.OnMesh && r.indexed[faceRef{p.Object, p.Face}] {
		h.Target = cutgraph.FaceTarget{Face: p.Face}
		return h, true
	}
	return h, false
}

// sliceFaces returns the indexed faces whose triangles may meet the cut
// plane between the view rays through a and b, in a stable order.
func (r *Resolver) sliceFaces(a, b geometry.Vector2) []faceRef {
	if r.index.Len() == 0 {
		return nil
	}
	bounds := r.index.Bounds()
	oa, da := r.proj.ViewRay(a)
	ob, db := r.proj.ViewRay(b)
	reach := math.Max(oa.Distance(bounds.Center()), ob.Distance(bounds.Center())) + bounds.Diagonal()

	seen := make(map[faceRef]bool)
	var out []faceRef
	for _, e := range r.index.Slice(oa, oa.Add(da.Mul(reach)), ob, ob.Add(db.Mul(reach))) {
		fr := faceRef{e.Object, e.Face}
		if !seen[fr] {
			seen[fr] = true
			out = append(out, fr)
		}
	}
	slices.SortFunc(out, func(x, y faceRef) int {
		if c := cmp.Compare(x.obj, y.obj); c != 0 {
			return c
		}
		return cmp.Compare(x.face, y.face)
	})
	return out
}

// Resolve returns the hits of a whole trail ordered by cumulative lambda
func (r *Resolver) Resolve(trail []Position) []cutgraph.LineHit {
	var hits []cutgraph.LineHit
	offset := 0.0
	for i := 0; i+1 < len(trail); i++ {
		hits = append(hits, r.ResolveSegment(trail[i], trail[i+1], offset)...)
		offset += trail[i].Screen.Distance(trail[i+1].Screen)
	}
	cutgraph.SortLineHits(hits)
	return cutgraph.DedupeLineHits(hits, r.cfg.VertexEpsilon)
}

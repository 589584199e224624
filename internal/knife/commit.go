package knife

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/philipparndt/goknife/internal/cutgraph"
	"github.com/philipparndt/goknife/internal/scene"
	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/philipparndt/goknife/pkg/mesh"
	"github.com/samber/lo"
)

// ErrCommit wraps fatal mesh errors; the meshes are restored when returned
var ErrCommit = errors.New("commit failed")

// CommitOptions controls how a cut graph is applied
type CommitOptions struct {
	// Extend keeps the existing selection instead of replacing it
	Extend bool
	// ConnectIslands bridges closed loops that touch no face boundary
	ConnectIslands bool
}

// CommitResult summarizes an applied cut
type CommitResult struct {
	Changed      bool
	Splits       int
	FaceSplits   int
	Islands      int
	UncutIslands int
	// Skipped counts cut edges dropped as invalid or degenerate
	Skipped int
	Reason  string
}

type link struct {
	ref  cutgraph.EdgeRef
	a, b cutgraph.VertRef
}

func (l link) other(v cutgraph.VertRef) cutgraph.VertRef {
	if l.a == v {
		return l.b
	}
	return l.a
}

type committer struct {
	g       *cutgraph.Graph
	objects []*scene.Object
	opts    CommitOptions
	res     CommitResult
	log     *slog.Logger

	mapped   map[cutgraph.VertRef]mesh.VertID
	newVerts map[int][]mesh.VertID
	newEdges map[int][][2]mesh.VertID
	touched  map[int]bool
	links    map[cutgraph.VertRef][]link
}

// Commit applies the cut edges of g to the meshes. Real edges are split
// first, then every face is cut along its paths, front layers first. Invalid
// or degenerate pieces are skipped and counted; a fatal mesh error restores
// every mesh and returns an error wrapping ErrCommit.
func Commit(g *cutgraph.Graph, objects []*scene.Object, opts CommitOptions) (CommitResult, error) {
	c := &committer{
		g:        g,
		objects:  objects,
		opts:     opts,
		log:      Logger(),
		mapped:   make(map[cutgraph.VertRef]mesh.VertID),
		newVerts: make(map[int][]mesh.VertID),
		newEdges: make(map[int][][2]mesh.VertID),
		touched:  make(map[int]bool),
	}

	cuts := c.collect()
	if len(cuts) == 0 {
		c.res.Reason = "no cuts to apply"
		return c.res, nil
	}

	snapshots := make(map[int]*mesh.Snapshot)
	for _, l := range cuts {
		obj := g.Edge(l.ref).Object
		if _, ok := snapshots[obj]; !ok {
			snapshots[obj] = objects[obj].Mesh.Snapshot()
		}
	}

	if err := c.apply(cuts); err != nil {
		for obj, snap := range snapshots {
			objects[obj].Mesh.Restore(snap)
		}
		c.log.Error("commit rolled back", slog.Any("error", err))
		return CommitResult{Reason: err.Error()}, fmt.Errorf("%w: %w", ErrCommit, err)
	}

	c.finish()
	return c.res, nil
}

// collect returns the cut edges that can be applied. Invalid and
// zero-length edges are counted as skipped.
func (c *committer) collect() []link {
	var out []link
	for _, r := range c.g.Edges() {
		e := c.g.Edge(r)
		if e.IsInvalid {
			c.res.Skipped++
			continue
		}
		if !e.IsCut || e.BaseFace == mesh.NoFace {
			continue
		}
		if c.g.Vert(e.V1).Pos.Distance(c.g.Vert(e.V2).Pos) < mesh.DegenerateEpsilon {
			c.res.Skipped++
			continue
		}
		out = append(out, link{ref: r, a: e.V1, b: e.V2})
	}
	return out
}

func (c *committer) apply(cuts []link) error {
	if err := c.splitEdges(cuts); err != nil {
		return err
	}

	type group struct {
		obj   int
		face  mesh.FaceID
		layer int
		links []link
	}
	byFace := lo.GroupBy(cuts, func(l link) faceRef {
		e := c.g.Edge(l.ref)
		return faceRef{e.Object, e.BaseFace}
	})
	groups := make([]group, 0, len(byFace))
	for fr, links := range byFace {
		layer := lo.Min(lo.Map(links, func(l link, _ int) int { return c.g.Edge(l.ref).Layer }))
		groups = append(groups, group{obj: fr.obj, face: fr.face, layer: layer, links: links})
	}
	slices.SortFunc(groups, func(a, b group) int {
		return cmp.Or(cmp.Compare(a.layer, b.layer), cmp.Compare(a.obj, b.obj), cmp.Compare(a.face, b.face))
	})

	for _, grp := range groups {
		if err := c.cutFace(grp.obj, grp.face, grp.links); err != nil {
			return err
		}
	}
	return nil
}

// splitEdges inserts every new vertex lying on a real edge, in order along
// the edge so each split works on the remaining half.
func (c *committer) splitEdges(cuts []link) error {
	c.links = adjacency(cuts)
	onEdge := make(map[realEdgeKey][]cutgraph.VertRef)
	seen := make(map[cutgraph.VertRef]bool)
	for _, l := range cuts {
		for _, ref := range []cutgraph.VertRef{l.a, l.b} {
			if seen[ref] {
				continue
			}
			seen[ref] = true
			v := c.g.Vert(ref)
			switch {
			case !v.IsNew():
				c.mapped[ref] = v.Real
			case !v.IsFace && v.OnEdge != mesh.NoEdge:
				key := realEdgeKey{v.Object, v.OnEdge}
				onEdge[key] = append(onEdge[key], ref)
			}
		}
	}

	keys := lo.Keys(onEdge)
	slices.SortFunc(keys, func(a, b realEdgeKey) int {
		return cmp.Or(cmp.Compare(a.obj, b.obj), cmp.Compare(a.edge, b.edge))
	})
	for _, key := range keys {
		if err := c.splitEdge(key, onEdge[key]); err != nil {
			return err
		}
	}
	return nil
}

type realEdgeKey struct {
	obj  int
	edge mesh.EdgeID
}

func (c *committer) splitEdge(key realEdgeKey, refs []cutgraph.VertRef) error {
	m := c.objects[key.obj].Mesh
	ends := m.EdgeVerts(key.edge)
	a, b := m.Position(ends[0]), m.Position(ends[1])
	ab := b.Sub(a)
	lenSq := ab.LengthSquared()
	if lenSq == 0 {
		return nil
	}

	type split struct {
		ref cutgraph.VertRef
		t   float64
	}
	splits := lo.Map(refs, func(r cutgraph.VertRef, _ int) split {
		return split{r, c.g.Vert(r).Pos.Sub(a).Dot(ab) / lenSq}
	})
	slices.SortStableFunc(splits, func(x, y split) int { return cmp.Compare(x.t, y.t) })

	cur, t0 := key.edge, 0.0
	for _, s := range splits {
		nv, halves, err := m.SplitEdge(cur, (s.t-t0)/(1-t0))
		if errors.Is(err, mesh.ErrDegenerate) {
			c.log.Debug("skipping degenerate edge split", slog.Int("edge", int(key.edge)), slog.Float64("t", s.t))
			c.invalidate(s.ref)
			continue
		}
		if err != nil {
			return fmt.Errorf("split edge %d: %w", key.edge, err)
		}
		c.mapped[s.ref] = nv
		c.newVerts[key.obj] = append(c.newVerts[key.obj], nv)
		c.touched[key.obj] = true
		c.res.Splits++
		cur, t0 = halves[1], s.t
	}
	return nil
}

// cutFace applies the cut edges confined to one original face. The face
// may be replaced by several pieces as paths are applied.
func (c *committer) cutFace(obj int, face mesh.FaceID, links []link) error {
	m := c.objects[obj].Mesh
	pieces := []mesh.FaceID{face}

	pending := make([]link, 0, len(links))
	for _, l := range links {
		switch {
		case c.g.Edge(l.ref).IsInvalid:
			// counted when it was invalidated
		case c.placeable(l.a) && c.placeable(l.b):
			pending = append(pending, l)
		default:
			c.res.Skipped++
		}
	}

	onBoundary := func(v cutgraph.VertRef) bool {
		mv, ok := c.mapped[v]
		if !ok {
			return false
		}
		return slices.ContainsFunc(pieces, func(f mesh.FaceID) bool {
			return slices.Contains(m.FaceVerts(f), mv)
		})
	}

	for {
		path, used, ok := findPath(pending, onBoundary, c.mapped)
		if !ok {
			break
		}
		pending = slices.DeleteFunc(pending, func(l link) bool { return slices.Contains(used, l) })
		if err := c.applyPath(obj, &pieces, path, len(used)); err != nil {
			return err
		}
	}

	return c.fillIslands(obj, &pieces, pending, onBoundary)
}

// invalidate marks the cut edges ending at an unplaceable vertex
func (c *committer) invalidate(v cutgraph.VertRef) {
	for _, l := range c.links[v] {
		if c.g.Edge(l.ref).IsInvalid {
			continue
		}
		c.g.Invalidate(l.ref)
		c.res.Skipped++
	}
}

// placeable reports whether a cut vertex has or can get a mesh vertex
func (c *committer) placeable(v cutgraph.VertRef) bool {
	if _, ok := c.mapped[v]; ok {
		return true
	}
	return c.g.Vert(v).IsFace
}

// adjacency indexes links by vertex
func adjacency(links []link) map[cutgraph.VertRef][]link {
	adj := make(map[cutgraph.VertRef][]link)
	for _, l := range links {
		adj[l.a] = append(adj[l.a], l)
		adj[l.b] = append(adj[l.b], l)
	}
	return adj
}

// findPath searches for a chain of links that starts and ends on the face
// boundary and only passes through interior vertices. A chain may return
// to its start when it visits at least two interior vertices.
func findPath(pending []link, onBoundary func(cutgraph.VertRef) bool, mapped map[cutgraph.VertRef]mesh.VertID) ([]cutgraph.VertRef, []link, bool) {
	adj := adjacency(pending)
	starts := lo.Filter(lo.Keys(adj), func(v cutgraph.VertRef, _ int) bool { return onBoundary(v) })
	slices.SortFunc(starts, func(a, b cutgraph.VertRef) int { return cmp.Compare(mapped[a], mapped[b]) })

	type step struct {
		from  cutgraph.VertRef
		via   link
		depth int
	}
	for _, s := range starts {
		prev := map[cutgraph.VertRef]step{s: {}}
		queue := []cutgraph.VertRef{s}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			for _, l := range adj[u] {
				n := l.other(u)
				if u != s && l == prev[u].via {
					continue
				}
				end := n != s && onBoundary(n)
				loop := n == s && prev[u].depth >= 2
				if end || loop {
					return unwind(s, u, n, l, func(v cutgraph.VertRef) (cutgraph.VertRef, link) {
						return prev[v].from, prev[v].via
					})
				}
				if _, seen := prev[n]; seen || onBoundary(n) {
					continue
				}
				prev[n] = step{from: u, via: l, depth: prev[u].depth + 1}
				queue = append(queue, n)
			}
		}
	}
	return nil, nil, false
}

func unwind(start, last, end cutgraph.VertRef, final link, back func(cutgraph.VertRef) (cutgraph.VertRef, link)) ([]cutgraph.VertRef, []link, bool) {
	path := []cutgraph.VertRef{end, last}
	used := []link{final}
	for v := last; v != start; {
		from, via := back(v)
		path = append(path, from)
		used = append(used, via)
		v = from
	}
	slices.Reverse(path)
	return path, used, true
}

// meshVerts maps path vertices, creating loose mesh vertices for interior
// ones. created lists the vertices added for this call.
func (c *committer) meshVerts(obj int, path []cutgraph.VertRef) (ids, created []mesh.VertID) {
	m := c.objects[obj].Mesh
	ids = make([]mesh.VertID, len(path))
	for i, ref := range path {
		if mv, ok := c.mapped[ref]; ok {
			ids[i] = mv
			continue
		}
		mv := m.AddVertex(c.g.Vert(ref).Pos)
		ids[i] = mv
		created = append(created, mv)
	}
	return ids, created
}

func (c *committer) discard(obj int, created []mesh.VertID) {
	for _, v := range created {
		_ = c.objects[obj].Mesh.RemoveVertex(v)
	}
}

// pieceFor returns the face piece whose loop holds the path ends and whose
// area contains the start of the path.
func (c *committer) pieceFor(obj int, pieces []mesh.FaceID, ids []mesh.VertID) (int, bool) {
	m := c.objects[obj].Mesh
	first, last := ids[0], ids[len(ids)-1]
	var candidates []int
	for i, f := range pieces {
		loop := m.FaceVerts(f)
		if slices.Contains(loop, first) && slices.Contains(loop, last) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) <= 1 {
		return lo.First(candidates)
	}
	probe := m.Position(first).Lerp(m.Position(ids[1]), 0.5)
	for _, i := range candidates {
		if geometry.PointInPolygon(probe, m.FacePositions(pieces[i])) {
			return i, true
		}
	}
	return candidates[0], true
}

func (c *committer) applyPath(obj int, pieces *[]mesh.FaceID, path []cutgraph.VertRef, links int) error {
	m := c.objects[obj].Mesh
	ids, created := c.meshVerts(obj, path)
	idx, ok := c.pieceFor(obj, *pieces, ids)
	if !ok {
		c.discard(obj, created)
		c.res.Skipped += links
		return nil
	}

	faces, err := m.RetriangulateFace((*pieces)[idx], ids)
	if errors.Is(err, mesh.ErrDegenerate) || errors.Is(err, mesh.ErrNotInFace) {
		c.log.Debug("skipping face cut", slog.Int("face", int((*pieces)[idx])), slog.Any("error", err))
		c.discard(obj, created)
		c.res.Skipped += links
		return nil
	}
	if err != nil {
		return fmt.Errorf("cut face %d: %w", (*pieces)[idx], err)
	}

	*pieces = slices.Replace(*pieces, idx, idx+1, faces...)
	for i, ref := range path {
		c.mapped[ref] = ids[i]
	}
	c.record(obj, ids, created)
	c.res.FaceSplits++
	return nil
}

func (c *committer) record(obj int, chain []mesh.VertID, created []mesh.VertID) {
	c.newVerts[obj] = append(c.newVerts[obj], created...)
	for i := 0; i+1 < len(chain); i++ {
		c.newEdges[obj] = append(c.newEdges[obj], [2]mesh.VertID{chain[i], chain[i+1]})
	}
	c.touched[obj] = true
}

// fillIslands handles the links left after all boundary paths: simple
// closed loops become inner faces, anything else is dropped.
func (c *committer) fillIslands(obj int, pieces *[]mesh.FaceID, pending []link, onBoundary func(cutgraph.VertRef) bool) error {
	m := c.objects[obj].Mesh
	for len(pending) > 0 {
		component := connected(pending, pending[0].a)
		pending = slices.DeleteFunc(pending, func(l link) bool { return slices.Contains(component, l) })

		cycle, ok := simpleCycle(component)
		if !ok || slices.ContainsFunc(cycle, onBoundary) {
			c.res.Skipped += len(component)
			continue
		}
		if !c.opts.ConnectIslands {
			c.res.UncutIslands++
			continue
		}

		ids, created := c.meshVerts(obj, cycle)
		idx := slices.IndexFunc(*pieces, func(f mesh.FaceID) bool {
			return geometry.PointInPolygon(m.Position(ids[0]), m.FacePositions(f))
		})
		if idx < 0 {
			c.discard(obj, created)
			c.res.Skipped += len(component)
			continue
		}

		from, to := bridge(m, m.FaceVerts((*pieces)[idx]), ids)
		faces, err := m.FillIsland((*pieces)[idx], ids, from, to)
		if errors.Is(err, mesh.ErrDegenerate) || errors.Is(err, mesh.ErrNotInFace) {
			c.log.Debug("skipping island", slog.Any("error", err))
			c.discard(obj, created)
			c.res.Skipped += len(component)
			continue
		}
		if err != nil {
			return fmt.Errorf("fill island in face %d: %w", (*pieces)[idx], err)
		}

		*pieces = slices.Replace(*pieces, idx, idx+1, faces...)
		for i, ref := range cycle {
			c.mapped[ref] = ids[i]
		}
		c.record(obj, append(ids, ids[0]), created)
		c.newEdges[obj] = append(c.newEdges[obj], [2]mesh.VertID{from, to})
		c.res.Islands++
	}
	return nil
}

// connected returns the links reachable from start
func connected(links []link, start cutgraph.VertRef) []link {
	adj := adjacency(links)
	seen := map[cutgraph.VertRef]bool{start: true}
	queue := []cutgraph.VertRef{start}
	var out []link
	taken := make(map[link]bool)
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, l := range adj[u] {
			if !taken[l] {
				taken[l] = true
				out = append(out, l)
			}
			if n := l.other(u); !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return out
}

// simpleCycle orders the vertices of links forming one closed loop
func simpleCycle(links []link) ([]cutgraph.VertRef, bool) {
	if len(links) < 3 {
		return nil, false
	}
	adj := adjacency(links)
	for _, ls := range adj {
		if len(ls) != 2 {
			return nil, false
		}
	}
	start := links[0].a
	cycle := []cutgraph.VertRef{start}
	prev, cur := links[0], links[0].b
	for cur != start {
		cycle = append(cycle, cur)
		next := adj[cur][0]
		if next == prev {
			next = adj[cur][1]
		}
		prev, cur = next, next.other(cur)
	}
	return cycle, len(cycle) == len(links)
}

// bridge picks the closest pair of a boundary vertex and an island vertex
func bridge(m scene.Mesh, loop, island []mesh.VertID) (from, to mesh.VertID) {
	best := math.Inf(1)
	for _, a := range loop {
		for _, b := range island {
			if d := m.Position(a).DistanceSquared(m.Position(b)); d < best {
				best, from, to = d, a, b
			}
		}
	}
	return from, to
}

// finish selects the new geometry and notifies every changed mesh once
func (c *committer) finish() {
	c.res.Changed = c.res.Splits+c.res.FaceSplits+c.res.Islands > 0
	c.res.Reason = fmt.Sprintf("%d edge splits, %d face cuts, %d islands, %d skipped",
		c.res.Splits, c.res.FaceSplits, c.res.Islands, c.res.Skipped)

	objs := lo.Keys(c.touched)
	slices.Sort(objs)
	for _, obj := range objs {
		m := c.objects[obj].Mesh
		if !c.opts.Extend {
			m.ClearSelection()
		}
		for _, v := range c.newVerts[obj] {
			m.SelectVert(v, true)
		}
		for _, pair := range c.newEdges[obj] {
			if e, ok := m.EdgeBetween(pair[0], pair[1]); ok {
				m.SelectEdge(e, true)
			}
		}
		m.NotifyUpdate(mesh.Update{Topology: true, Selection: true})
	}
	c.log.Info("cut committed",
		slog.Int("splits", c.res.Splits),
		slog.Int("face_splits", c.res.FaceSplits),
		slog.Int("islands", c.res.Islands),
		slog.Int("skipped", c.res.Skipped))
}

package cutgraph

import "slices"

// VertRef is a generational handle to a Vert. The zero value is invalid.
type VertRef struct {
	idx int32
	gen uint32
}

// EdgeRef is a generational handle to an Edge. The zero value is invalid.
type EdgeRef struct {
	idx int32
	gen uint32
}

// IsZero reports whether the handle was never assigned
func (r VertRef) IsZero() bool { return r.gen == 0 }

// IsZero reports whether the handle was never assigned
func (r EdgeRef) IsZero() bool { return r.gen == 0 }

type vertSlot struct {
	gen   uint32
	alive bool
	v     Vert
}

type edgeSlot struct {
	gen   uint32
	alive bool
	e     Edge
}

func (g *Graph) nextGen() uint32 {
	g.gen++
	return g.gen
}

// record pushes an undo step. Steps run in reverse on Rollback.
func (g *Graph) record(undo func()) {
	g.journal = append(g.journal, undo)
}

// allocVert stores v in a free slot. journaled allocations may reuse slots;
// permanent ones (real wrappers) always append so the free list stays LIFO.
func (g *Graph) allocVert(v Vert, journaled bool) VertRef {
	var idx int32
	if n := len(g.freeVerts); journaled && n > 0 {
		idx = g.freeVerts[n-1]
		g.freeVerts = g.freeVerts[:n-1]
	} else {
		idx = int32(len(g.verts))
		g.verts = append(g.verts, vertSlot{})
	}
	prev := g.verts[idx]
	g.verts[idx] = vertSlot{gen: g.nextGen(), alive: true, v: v}
	if journaled {
		g.record(func() {
			g.verts[idx] = prev
			g.freeVerts = append(g.freeVerts, idx)
		})
	}
	return VertRef{idx: idx, gen: g.verts[idx].gen}
}

func (g *Graph) allocEdge(e Edge, journaled bool) EdgeRef {
	var idx int32
	if n := len(g.freeEdges); journaled && n > 0 {
		idx = g.freeEdges[n-1]
		g.freeEdges = g.freeEdges[:n-1]
	} else {
		idx = int32(len(g.edges))
		g.edges = append(g.edges, edgeSlot{})
	}
	prev := g.edges[idx]
	g.edges[idx] = edgeSlot{gen: g.nextGen(), alive: true, e: e}
	if journaled {
		g.record(func() {
			g.edges[idx] = prev
			g.freeEdges = append(g.freeEdges, idx)
		})
	}
	return EdgeRef{idx: idx, gen: g.edges[idx].gen}
}

func (g *Graph) killEdge(r EdgeRef) {
	idx := r.idx
	prev := g.edges[idx]
	prev.e = prev.e.clone()
	g.edges[idx].alive = false
	g.freeEdges = append(g.freeEdges, idx)
	g.record(func() {
		g.edges[idx] = prev
		g.freeEdges = removeLast(g.freeEdges, idx)
	})
}

// touchVert journals the current state of a vertex before it is mutated
func (g *Graph) touchVert(r VertRef) *Vert {
	idx := r.idx
	prev := g.verts[idx]
	prev.v = prev.v.clone()
	g.record(func() { g.verts[idx] = prev })
	return &g.verts[idx].v
}

func (g *Graph) touchEdge(r EdgeRef) *Edge {
	idx := r.idx
	prev := g.edges[idx]
	prev.e = prev.e.clone()
	g.record(func() { g.edges[idx] = prev })
	return &g.edges[idx].e
}

func (g *Graph) touchFace(key faceKey) {
	prev, ok := g.faceEdges[key]
	prev = slices.Clone(prev)
	g.record(func() {
		if ok {
			g.faceEdges[key] = prev
		} else {
			delete(g.faceEdges, key)
		}
	})
}

func removeLast(ids []int32, idx int32) []int32 {
	for i := len(ids) - 1; i >= 0; i-- {
		if ids[i] == idx {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Mark returns a journal position to roll back to
func (g *Graph) Mark() int {
	return len(g.journal)
}

// Rollback undoes every change made after mark. Handles created since then
// become stale.
func (g *Graph) Rollback(mark int) {
	for len(g.journal) > mark {
		n := len(g.journal) - 1
		undo := g.journal[n]
		g.journal = g.journal[:n]
		undo()
	}
}

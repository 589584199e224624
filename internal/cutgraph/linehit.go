package cutgraph

import (
	"cmp"
	"slices"

	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/philipparndt/goknife/pkg/mesh"
)

// Target is what a line hit landed on: VertTarget, EdgeTarget or FaceTarget
type Target interface {
	isTarget()
}

// VertTarget is a hit snapped onto an existing vertex
type VertTarget struct {
	Vert VertRef
}

// EdgeTarget is a hit crossing an existing edge
type EdgeTarget struct {
	Edge EdgeRef
}

// FaceTarget is a hit strictly inside a face
type FaceTarget struct {
	Face mesh.FaceID
}

func (VertTarget) isTarget() {}
func (EdgeTarget) isTarget() {}
func (FaceTarget) isTarget() {}

// LineHit is one crossing of the cut line with the surface
type LineHit struct {
	Target Target
	// Hit is object-local, Cage world space
	Hit    geometry.Vector3
	Cage   geometry.Vector3
	Screen geometry.Vector2
	// Lambda is the position along the cumulative cut line in pixels
	Lambda float64
	// Perc is the position along the crossed edge
	Perc   float64
	Depth  float64
	Object int
	Layer  int
}

// SortLineHits orders hits by lambda, then depth
func SortLineHits(hits []LineHit) {
	slices.SortStableFunc(hits, func(a, b LineHit) int {
		if c := cmp.Compare(a.Lambda, b.Lambda); c != 0 {
			return c
		}
		return cmp.Compare(a.Depth, b.Depth)
	})
}

// sameTarget reports whether two hits landed on the same element
func sameTarget(a, b LineHit) bool {
	switch ta := a.Target.(type) {
	case VertTarget:
		tb, ok := b.Target.(VertTarget)
		return ok && ta.Vert == tb.Vert
	case EdgeTarget:
		tb, ok := b.Target.(EdgeTarget)
		return ok && ta.Edge == tb.Edge
	}
	return false
}

// DedupeLineHits drops hits on the same vertex or edge as the previous kept
// hit when their lambdas are within eps. Hits must be sorted.
func DedupeLineHits(hits []LineHit, eps float64) []LineHit {
	out := hits[:0]
	for _, h := range hits {
		if n := len(out); n > 0 {
			prev := out[n-1]
			if sameTarget(prev, h) && h.Lambda-prev.Lambda < eps {
				continue
			}
		}
		out = append(out, h)
	}
	return out
}

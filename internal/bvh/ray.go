package bvh

import (
	"cmp"
	"math"
	"slices"

	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/philipparndt/goknife/pkg/mesh"
)

// Ray is a half-line; Max <= 0 means unbounded
type Ray struct {
	Origin geometry.Vector3
	Dir    geometry.Vector3
	Max    float64
}

// NewRay normalizes dir
func NewRay(origin, dir geometry.Vector3, maxDist float64) Ray {
	return Ray{Origin: origin, Dir: dir.Normalize(), Max: maxDist}
}

// At returns the point at distance t
func (r Ray) At(t float64) geometry.Vector3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Hit is a ray/triangle intersection
type Hit struct {
	Entry    *Entry
	Distance float64
	Position geometry.Vector3
	Normal   geometry.Vector3
	U, V     float64
}

// Object returns the index of the hit object
func (h Hit) Object() int {
	return h.Entry.Object
}

// Facing returns |normal . dir|, larger when the face looks at the ray
func (h Hit) Facing(dir geometry.Vector3) float64 {
	return math.Abs(h.Normal.Dot(dir))
}

func intersect(e *Entry, ray Ray, eps float64) (Hit, bool) {
	tri := e.Triangle()
	rh, ok := tri.IntersectRay(ray.Origin, ray.Dir, eps)
	if !ok || (ray.Max > 0 && rh.T > ray.Max) {
		return Hit{}, false
	}
	return Hit{
		Entry:    e,
		Distance: rh.T,
		Position: tri.Interpolate(rh.U, rh.V),
		Normal:   tri.Normal,
		U:        rh.U,
		V:        rh.V,
	}, true
}

// better reports whether a should replace b as the nearest hit
func better(a, b Hit, dir geometry.Vector3) bool {
	if math.Abs(a.Distance-b.Distance) < Epsilon {
		return a.Facing(dir) > b.Facing(dir)
	}
	return a.Distance < b.Distance
}

// Raycast returns the nearest exact hit along the ray
func (ix *Index) Raycast(ray Ray, filter EntryFilter) (Hit, bool) {
	return ix.nearest(ray, filter, 0)
}

// RaycastLoose is Raycast with triangles enlarged by LooseEpsilon so rays
// grazing an edge still produce a candidate.
func (ix *Index) RaycastLoose(ray Ray, filter EntryFilter) (Hit, bool) {
	return ix.nearest(ray, filter, LooseEpsilon)
}

func (ix *Index) nearest(ray Ray, filter EntryFilter, eps float64) (Hit, bool) {
	var best Hit
	found := false
	ix.march(ray, func(e *Entry, chunkEnd float64) bool {
		if filter != nil && !filter(e) {
			return true
		}
		if h, ok := intersect(e, ray, eps); ok && (!found || better(h, best, ray.Dir)) {
			best, found = h, true
		}
		return !found || best.Distance > chunkEnd
	})
	return best, found
}

// RaycastAll returns one exact hit per crossed face, nearest first. Hits
// within Epsilon of each other are ordered by how much their face looks at
// the ray.
func (ix *Index) RaycastAll(ray Ray, filter EntryFilter) []Hit {
	type faceKey struct {
		obj  int
		face mesh.FaceID
	}
	nearest := make(map[faceKey]int)
	var hits []Hit
	ix.march(ray, func(e *Entry, _ float64) bool {
		if filter != nil && !filter(e) {
			return true
		}
		h, ok := intersect(e, ray, 0)
		if !ok {
			return true
		}
		key := faceKey{e.Object, e.Face}
		if i, seen := nearest[key]; seen {
			if h.Distance < hits[i].Distance {
				hits[i] = h
			}
			return true
		}
		nearest[key] = len(hits)
		hits = append(hits, h)
		return true
	})

	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	for i := 0; i < len(hits); {
		j := i + 1
		for j < len(hits) && hits[j].Distance-hits[i].Distance < Epsilon {
			j++
		}
		slices.SortStableFunc(hits[i:j], func(a, b Hit) int {
			return cmp.Compare(b.Facing(ray.Dir), a.Facing(ray.Dir))
		})
		i = j
	}
	return hits
}

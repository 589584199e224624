package geometry

import "math"

// BoundingBox represents an axis-aligned bounding box
type BoundingBox struct {
	Min Vector3
	Max Vector3
}

// NewBoundingBox creates an empty bounding box
func NewBoundingBox() BoundingBox {
	return BoundingBox{
		Min: Vector3{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64},
		Max: Vector3{X: -math.MaxFloat64, Y: -math.MaxFloat64, Z: -math.MaxFloat64},
	}
}

// Extend expands the bounding box to include a point
func (b *BoundingBox) Extend(point Vector3) {
	b.Min = b.Min.Min(point)
	b.Max = b.Max.Max(point)
}

// Union expands the bounding box to include another box
func (b *BoundingBox) Union(other BoundingBox) {
	if other.IsEmpty() {
		return
	}
	b.Extend(other.Min)
	b.Extend(other.Max)
}

// IsEmpty reports whether nothing has been added to the box
func (b BoundingBox) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Expand returns the box grown by margin on every side
func (b BoundingBox) Expand(margin float64) BoundingBox {
	m := NewVector3(margin, margin, margin)
	return BoundingBox{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// Size returns the dimensions of the bounding box
func (b BoundingBox) Size() Vector3 {
	return b.Max.Sub(b.Min)
}

// Center returns the center point of the bounding box
func (b BoundingBox) Center() Vector3 {
	return Vector3{
		X: (b.Min.X + b.Max.X) / 2.0,
		Y: (b.Min.Y + b.Max.Y) / 2.0,
		Z: (b.Min.Z + b.Max.Z) / 2.0,
	}
}

// Diagonal returns the length of the bounding box diagonal
func (b BoundingBox) Diagonal() float64 {
	size := b.Size()
	return size.Length()
}

// Volume returns the volume of the bounding box
func (b BoundingBox) Volume() float64 {
	size := b.Size()
	return size.X * size.Y * size.Z
}

// Corners returns the eight corner points of the box
func (b BoundingBox) Corners() [8]Vector3 {
	return [8]Vector3{
		{b.Min.X, b.Min.Y, b.Min.Z},
		{b.Max.X, b.Min.Y, b.Min.Z},
		{b.Min.X, b.Max.Y, b.Min.Z},
		{b.Max.X, b.Max.Y, b.Min.Z},
		{b.Min.X, b.Min.Y, b.Max.Z},
		{b.Max.X, b.Min.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Max.Z},
		{b.Max.X, b.Max.Y, b.Max.Z},
	}
}

// IntersectRay clips the ray origin+dir*t against the box using the slab
// method and returns the entry and exit parameters.
func (b BoundingBox) IntersectRay(origin, dir Vector3) (tmin, tmax float64, ok bool) {
	tmin, tmax = math.Inf(-1), math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		o := origin.Axis(axis)
		d := dir.Axis(axis)
		lo, hi := b.Min.Axis(axis), b.Max.Axis(axis)
		if math.Abs(d) < 1e-15 {
			if o < lo || o > hi {
				return 0, 0, false
			}
			continue
		}
		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, 0, false
		}
	}
	return tmin, tmax, true
}

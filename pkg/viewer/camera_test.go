package viewer

import (
	"testing"

	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrthoCameraProject(t *testing.T) {
	c := NewOrthoCamera(geometry.NewVector3(0.5, 0.5, 0), 1, 100, 100)

	screen, depth, ok := c.Project(geometry.NewVector3(0, 0, 0))
	require.True(t, ok)
	assert.InDelta(t, 25, screen.X, 1e-9)
	assert.InDelta(t, 75, screen.Y, 1e-9)
	assert.InDelta(t, 10, depth, 1e-9)

	screen, _, _ = c.Project(geometry.NewVector3(1, 1, 0))
	assert.InDelta(t, 75, screen.X, 1e-9)
	assert.InDelta(t, 25, screen.Y, 1e-9)
}

func TestOrthoViewRayIsParallel(t *testing.T) {
	c := NewOrthoCamera(geometry.NewVector3(0, 0, 0), 2, 200, 100)

	o1, d1 := c.ViewRay(geometry.NewVector2(10, 10))
	o2, d2 := c.ViewRay(geometry.NewVector2(150, 80))
	assert.True(t, d1.ApproxEqual(geometry.NewVector3(0, 0, -1), 1e-9))
	assert.True(t, d1.ApproxEqual(d2, 1e-9))
	assert.False(t, o1.ApproxEqual(o2, 1e-6))

	p := c.Unproject(geometry.NewVector2(150, 80), c.Distance)
	assert.InDelta(t, 0, p.Z, 1e-6)
	back, _, ok := c.Project(p)
	require.True(t, ok)
	assert.InDelta(t, 150, back.X, 1e-6)
	assert.InDelta(t, 80, back.Y, 1e-6)
}

func TestPerspectiveRoundTrip(t *testing.T) {
	bbox := geometry.NewBoundingBox()
	bbox.Extend(geometry.NewVector3(-1, -1, -1))
	bbox.Extend(geometry.NewVector3(1, 1, 1))
	c := NewCamera(bbox)
	c.SetViewport(640, 480)
	c.Rotate(0.3, 0.5)

	point := geometry.NewVector3(0.25, -0.5, 0.75)
	screen, depth, ok := c.Project(point)
	require.True(t, ok)

	origin, dir := c.ViewRay(screen)
	assert.True(t, origin.ApproxEqual(c.Position, 1e-9))
	toPoint := point.Sub(origin).Normalize()
	assert.InDelta(t, 1, dir.Dot(toPoint), 1e-9)

	assert.True(t, c.Unproject(screen, depth).ApproxEqual(point, 1e-6))

	_, _, ok = c.Project(c.Position.Sub(c.ViewDir()))
	assert.False(t, ok, "points behind the eye are rejected")
}

func TestPan(t *testing.T) {
	c := NewOrthoCamera(geometry.NewVector3(0, 0, 0), 1, 100, 100)
	before, _, _ := c.Project(geometry.NewVector3(0, 0, 0))
	c.Pan(10, 0)
	after, _, _ := c.Project(geometry.NewVector3(0, 0, 0))
	assert.InDelta(t, before.X+10, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
}

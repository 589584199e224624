package viewer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goknife/pkg/geometry"
)

// Camera is an orbit camera around Target that maps between world space and
// screen pixels. Screen coordinates start top-left with Y pointing down.
type Camera struct {
	Position  geometry.Vector3
	Target    geometry.Vector3
	Up        geometry.Vector3
	FOV       float64 // Field of view in radians
	Distance  float64
	RotationX float64 // Rotation around X axis (vertical)
	RotationY float64 // Rotation around Y axis (horizontal)

	// Orthographic switches to a parallel projection showing OrthoScale
	// world units above and below the target.
	Orthographic bool
	OrthoScale   float64

	Near, Far     float64
	Width, Height int
}

// NewCamera creates a new camera positioned to view a bounding box
func NewCamera(bbox geometry.BoundingBox) *Camera {
	center := bbox.Center()
	size := bbox.Size()
	distance := math.Max(size.X, math.Max(size.Y, size.Z)) * 2.0
	if distance == 0 {
		distance = 1
	}

	c := &Camera{
		Target:     center,
		Up:         geometry.NewVector3(0, 1, 0),
		FOV:        math.Pi / 4, // 45 degrees
		Distance:   distance,
		OrthoScale: distance / 2,
		Near:       distance / 100,
		Far:        distance * 100,
		Width:      800,
		Height:     600,
	}
	c.UpdatePosition()
	return c
}

// NewOrthoCamera looks down -Z at target, showing scale world units above
// and below it in a width x height viewport.
func NewOrthoCamera(target geometry.Vector3, scale float64, width, height int) *Camera {
	c := &Camera{
		Target:       target,
		Up:           geometry.NewVector3(0, 1, 0),
		FOV:          math.Pi / 4,
		Distance:     10 * scale,
		Orthographic: true,
		OrthoScale:   scale,
		Near:         scale / 100,
		Far:          1000 * scale,
		Width:        width,
		Height:       height,
	}
	c.UpdatePosition()
	return c
}

// SetViewport updates the pixel size of the view
func (c *Camera) SetViewport(width, height int) {
	c.Width = max(width, 1)
	c.Height = max(height, 1)
}

// UpdatePosition updates camera position based on rotation angles
func (c *Camera) UpdatePosition() {
	// Calculate position based on spherical coordinates
	x := c.Distance * math.Cos(c.RotationX) * math.Sin(c.RotationY)
	y := c.Distance * math.Sin(c.RotationX)
	z := c.Distance * math.Cos(c.RotationX) * math.Cos(c.RotationY)

	c.Position = c.Target.Add(geometry.NewVector3(x, y, z))
}

// Rotate rotates the camera by the given angles
func (c *Camera) Rotate(deltaX, deltaY float64) {
	c.RotationX += deltaX
	c.RotationY += deltaY

	// Clamp X rotation to prevent gimbal lock
	maxAngle := math.Pi/2 - 0.1
	if c.RotationX > maxAngle {
		c.RotationX = maxAngle
	}
	if c.RotationX < -maxAngle {
		c.RotationX = -maxAngle
	}

	c.UpdatePosition()
}

// Zoom changes the camera distance
func (c *Camera) Zoom(delta float64) {
	c.Distance *= (1.0 + delta)
	if c.Distance < 0.1 {
		c.Distance = 0.1
	}
	c.OrthoScale *= (1.0 + delta)
	c.UpdatePosition()
}

// Pan moves the target by a screen-space offset in pixels
func (c *Camera) Pan(dx, dy float64) {
	_, right, up := c.basis()
	perPixel := 2 * c.viewHalfHeight() / float64(c.Height)
	c.Target = c.Target.Add(right.Mul(-dx * perPixel)).Add(up.Mul(dy * perPixel))
	c.UpdatePosition()
}

func (c *Camera) viewHalfHeight() float64 {
	if c.Orthographic {
		return c.OrthoScale
	}
	return c.Distance * math.Tan(c.FOV/2)
}

func (c *Camera) basis() (forward, right, up geometry.Vector3) {
	forward = c.Target.Sub(c.Position).Normalize()
	right = forward.Cross(c.Up).Normalize()
	up = right.Cross(forward).Normalize()
	return forward, right, up
}

// ViewDir returns the unit direction the camera looks at
func (c *Camera) ViewDir() geometry.Vector3 {
	forward, _, _ := c.basis()
	return forward
}

// View returns the world-to-camera matrix
func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position.Vec3(), c.Target.Vec3(), c.Up.Vec3())
}

// Projection returns the camera-to-clip matrix
func (c *Camera) Projection() mgl64.Mat4 {
	aspect := float64(c.Width) / float64(c.Height)
	if c.Orthographic {
		s := c.OrthoScale
		return mgl64.Ortho(-s*aspect, s*aspect, -s, s, -c.Far, c.Far)
	}
	return mgl64.Perspective(c.FOV, aspect, c.Near, c.Far)
}

// Project maps a world point to screen pixels and its depth along the view
// direction. ok is false for points behind the camera or outside the clip
// range.
func (c *Camera) Project(point geometry.Vector3) (geometry.Vector2, float64, bool) {
	win := mgl64.Project(point.Vec3(), c.View(), c.Projection(), 0, 0, c.Width, c.Height)
	depth := point.Sub(c.Position).Dot(c.ViewDir())
	screen := geometry.NewVector2(win[0], float64(c.Height)-win[1])
	ok := win[2] >= 0 && win[2] <= 1
	if !c.Orthographic && depth < c.Near {
		ok = false
	}
	return screen, depth, ok
}

// ViewRay returns the ray through a screen pixel. Perspective rays start at
// the eye; orthographic rays start on the back clip plane of that pixel.
func (c *Camera) ViewRay(screen geometry.Vector2) (origin, dir geometry.Vector3) {
	view, proj := c.View(), c.Projection()
	winY := float64(c.Height) - screen.Y
	near, errNear := mgl64.UnProject(mgl64.Vec3{screen.X, winY, 0}, view, proj, 0, 0, c.Width, c.Height)
	far, errFar := mgl64.UnProject(mgl64.Vec3{screen.X, winY, 1}, view, proj, 0, 0, c.Width, c.Height)
	if errNear != nil || errFar != nil {
		return c.Position, c.ViewDir()
	}
	dir = geometry.FromVec3(far.Sub(near)).Normalize()
	if c.Orthographic {
		return geometry.FromVec3(near), dir
	}
	return c.Position, dir
}

// Unproject returns the point under a screen pixel at the given view depth
func (c *Camera) Unproject(screen geometry.Vector2, depth float64) geometry.Vector3 {
	origin, dir := c.ViewRay(screen)
	forward := c.ViewDir()
	along := dir.Dot(forward)
	if along == 0 {
		return origin
	}
	offset := origin.Sub(c.Position).Dot(forward)
	return origin.Add(dir.Mul((depth - offset) / along))
}

// IsOrthographic reports whether the projection is parallel
func (c *Camera) IsOrthographic() bool {
	return c.Orthographic
}

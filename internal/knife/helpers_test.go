package knife

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goknife/internal/scene"
	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/philipparndt/goknife/pkg/mesh"
	"github.com/stretchr/testify/require"
)

func v3(x, y, z float64) geometry.Vector3 {
	return geometry.NewVector3(x, y, z)
}

// topView looks down -Z from z=10. World (0,0) is pixel (25,75) and one
// world unit is 50 pixels.
type topView struct{}

func (topView) Project(p geometry.Vector3) (geometry.Vector2, float64, bool) {
	return geometry.NewVector2(25+50*p.X, 75-50*p.Y), 10 - p.Z, true
}

func (topView) Unproject(s geometry.Vector2, depth float64) geometry.Vector3 {
	return v3((s.X-25)/50, (75-s.Y)/50, 10-depth)
}

func (v topView) ViewRay(s geometry.Vector2) (geometry.Vector3, geometry.Vector3) {
	return v.Unproject(s, 0), v3(0, 0, -1)
}

func (topView) IsOrthographic() bool { return true }

// strip builds n quads of the given width side by side at height z, facing
// +Z. Bottom vertices are even, top vertices odd.
func strip(t *testing.T, n int, x0, y0, width, height, z float64) *mesh.Mesh {
	t.Helper()
	m := mesh.New("strip")
	for i := 0; i <= n; i++ {
		m.AddVertex(v3(x0+float64(i)*width, y0, z))
		m.AddVertex(v3(x0+float64(i)*width, y0+height, z))
	}
	for i := 0; i < n; i++ {
		b0, t0 := mesh.VertID(2*i), mesh.VertID(2*i+1)
		b1, t1 := mesh.VertID(2*i+2), mesh.VertID(2*i+3)
		_, err := m.AddFace(b0, b1, t1, t0)
		require.NoError(t, err)
	}
	return m
}

// quad is the unit square at z=0
func quad(t *testing.T) *mesh.Mesh {
	return strip(t, 1, 0, 0, 1, 1, 0)
}

func objects(meshes ...*mesh.Mesh) []*scene.Object {
	out := make([]*scene.Object, len(meshes))
	for i, m := range meshes {
		out[i] = scene.NewObject(m.Name, m, mgl64.Ident4())
	}
	return out
}

func newTool(t *testing.T, cfg Config, meshes ...*mesh.Mesh) *Tool {
	t.Helper()
	tool, err := NewTool(objects(meshes...), topView{}, cfg)
	require.NoError(t, err)
	return tool
}

// click presses and releases the button at x, y
func click(tool *Tool, x, y float64) Result {
	tool.Handle(Pointer(PointerMove, x, y))
	tool.Handle(Pointer(ButtonDown, x, y))
	return tool.Handle(Pointer(ButtonUp, x, y))
}

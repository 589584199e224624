package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goknife/internal/knife"
	"github.com/philipparndt/goknife/internal/scene"
	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/philipparndt/goknife/pkg/mesh"
	"github.com/philipparndt/goknife/pkg/viewer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const crossTrail = `
camera:
  ortho: true
  target: [0.5, 0.5, 0]
  width: 100
  height: 100
steps:
  - click: [[10, 50], [90, 50]]
`

func quadTool(t *testing.T, s *Script) (*knife.Tool, *mesh.Mesh) {
	t.Helper()
	m := mesh.New("quad")
	for _, p := range []geometry.Vector3{
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(1, 0, 0),
		geometry.NewVector3(1, 1, 0),
		geometry.NewVector3(0, 1, 0),
	} {
		m.AddVertex(p)
	}
	_, err := m.AddFace(0, 1, 2, 3)
	require.NoError(t, err)

	c := s.Camera
	cam := viewer.NewOrthoCamera(geometry.NewVector3(c.Target[0], c.Target[1], c.Target[2]), c.Scale, c.Width, c.Height)
	tool, err := knife.NewTool([]*scene.Object{scene.NewObject("quad", m, mgl64.Ident4())}, cam, knife.DefaultConfig())
	require.NoError(t, err)
	return tool, m
}

func TestRunConfirmsAtEnd(t *testing.T) {
	s, err := Parse([]byte(crossTrail))
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.Camera.Scale)

	tool, m := quadTool(t, s)
	rep := s.Run(tool)
	require.NotNil(t, rep.Commit)
	assert.Equal(t, 1, rep.Commit.FaceSplits)
	assert.Equal(t, 2, m.FaceCount())
	assert.NotEmpty(t, rep.Messages())
}

func TestRunStopsOnCancel(t *testing.T) {
	s, err := Parse([]byte(crossTrail + "  - event: cancel\n  - click: [[50, 10], [50, 90]]\n"))
	require.NoError(t, err)

	tool, m := quadTool(t, s)
	rep := s.Run(tool)
	assert.Nil(t, rep.Commit)
	assert.True(t, rep.Results[len(rep.Results)-1].Done)
	assert.Equal(t, 1, m.FaceCount())
}

func TestRunDragAndEvents(t *testing.T) {
	s, err := Parse([]byte(`
camera: {ortho: true, target: [0.5, 0.5, 0], width: 100, height: 100}
steps:
  - event: lock-axis
    axis: 0
  - drag: [[10, 50], [40, 52], [70, 48], [90, 50]]
  - event: undo
  - drag: [[10, 40], [90, 40]]
`))
	require.NoError(t, err)

	tool, m := quadTool(t, s)
	rep := s.Run(tool)
	require.NotNil(t, rep.Commit)
	assert.Equal(t, 1, rep.Commit.FaceSplits)
	assert.Equal(t, 2, m.FaceCount())
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"unknown event": "steps:\n  - event: explode\n",
		"two kinds":     "steps:\n  - event: undo\n    click: [[1, 2]]\n",
		"empty step":    "steps:\n  - axis: 1\n",
		"bad camera":    "camera: {width: 0}\n",
		"not yaml":      "steps: [",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.ErrorIs(t, err, ErrInvalidScript)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trail.yaml")
	require.NoError(t, os.WriteFile(path, []byte(crossTrail), 0o644))
	s, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Steps, 1)

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

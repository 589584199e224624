package knife

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, "knife.yaml", `
vertex_snap_px: 14
angle_snap: relative
angle_increment: 15
cut_through: true
measure: Distance
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 14.0, cfg.VertexSnapPx)
	assert.Equal(t, AngleRelative, cfg.AngleSnap)
	assert.Equal(t, 15.0, cfg.AngleIncrement)
	assert.True(t, cfg.CutThrough)
	assert.Equal(t, MeasureDistance, cfg.Measure)
	// untouched keys keep their defaults
	assert.Equal(t, DefaultConfig().EdgeSnapPx, cfg.EdgeSnapPx)
	assert.True(t, cfg.ConnectIslands)
}

func TestLoadConfigTOML(t *testing.T) {
	path := writeFile(t, "knife.toml", `
edge_snap_px = 4.5
angle_snap = "screen"
connect_islands = false
extend_selection = true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4.5, cfg.EdgeSnapPx)
	assert.Equal(t, AngleScreen, cfg.AngleSnap)
	assert.False(t, cfg.ConnectIslands)
	assert.True(t, cfg.Extend)
	assert.Equal(t, 30.0, cfg.AngleIncrement)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "bad.yaml", "angle_snap: diagonal\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(writeFile(t, "range.yml", "angle_increment: 0\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(writeFile(t, "broken.toml", "edge_snap_px = \n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative vertex radius", func(c *Config) { c.VertexSnapPx = -1 }},
		{"negative epsilon", func(c *Config) { c.EdgeEpsilon = -0.1 }},
		{"increment too large", func(c *Config) { c.AngleIncrement = 181 }},
		{"zero spacing", func(c *Config) { c.SampleSpacingPx = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

			_, err := NewTool(nil, topView{}, cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestModeText(t *testing.T) {
	text, err := AngleRelative.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "relative", string(text))
	assert.Equal(t, "AngleMode(7)", AngleMode(7).String())

	var m MeasureMode
	require.NoError(t, m.UnmarshalText([]byte("ANGLE")))
	assert.Equal(t, MeasureAngle, m)
}

func TestSessionLogging(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })

	tool := newTool(t, DefaultConfig(), quad(t))
	require.NotEmpty(t, tool.Session())
	tool.Handle(Event{Kind: Cancel})

	out := buf.String()
	assert.Contains(t, out, "knife started")
	assert.Contains(t, out, "session="+tool.Session())
	assert.Contains(t, out, "event=cancel")
}

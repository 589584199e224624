package knife

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for out-of-range settings
var ErrInvalidConfig = errors.New("invalid knife config")

// AngleMode selects how angle snapping measures the segment direction
type AngleMode int

const (
	AngleNone AngleMode = iota
	// AngleScreen snaps relative to the screen horizontal
	AngleScreen
	// AngleRelative snaps relative to a reference edge at the previous point
	AngleRelative
)

var angleModeNames = []string{"none", "screen", "relative"}

func (m AngleMode) String() string {
	if m < 0 || int(m) >= len(angleModeNames) {
		return fmt.Sprintf("AngleMode(%d)", int(m))
	}
	return angleModeNames[m]
}

// MarshalText implements encoding.TextMarshaler
func (m AngleMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *AngleMode) UnmarshalText(text []byte) error {
	for i, name := range angleModeNames {
		if strings.EqualFold(string(text), name) {
			*m = AngleMode(i)
			return nil
		}
	}
	return fmt.Errorf("angle mode %q: %w", text, ErrInvalidConfig)
}

// MeasureMode selects which parts of the pending segment are measured
type MeasureMode int

const (
	MeasureNone MeasureMode = iota
	MeasureBoth
	MeasureDistance
	MeasureAngle
)

var measureModeNames = []string{"none", "both", "distance", "angle"}

func (m MeasureMode) String() string {
	if m < 0 || int(m) >= len(measureModeNames) {
		return fmt.Sprintf("MeasureMode(%d)", int(m))
	}
	return measureModeNames[m]
}

// MarshalText implements encoding.TextMarshaler
func (m MeasureMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *MeasureMode) UnmarshalText(text []byte) error {
	for i, name := range measureModeNames {
		if strings.EqualFold(string(text), name) {
			*m = MeasureMode(i)
			return nil
		}
	}
	return fmt.Errorf("measure mode %q: %w", text, ErrInvalidConfig)
}

// Config holds the knife settings. Pixel values are screen distances.
type Config struct {
	// Cursor snap radii
	VertexSnapPx float64 `yaml:"vertex_snap_px" toml:"vertex_snap_px"`
	EdgeSnapPx   float64 `yaml:"edge_snap_px" toml:"edge_snap_px"`

	// Line hit tolerances
	VertexEpsilon float64 `yaml:"vertex_epsilon" toml:"vertex_epsilon"`
	EdgeEpsilon   float64 `yaml:"edge_epsilon" toml:"edge_epsilon"`

	AngleSnap      AngleMode `yaml:"angle_snap" toml:"angle_snap"`
	AngleIncrement float64   `yaml:"angle_increment" toml:"angle_increment"` // degrees

	CutThrough     bool `yaml:"cut_through" toml:"cut_through"`
	OnlySelected   bool `yaml:"only_selected" toml:"only_selected"`
	MidpointSnap   bool `yaml:"midpoint_snap" toml:"midpoint_snap"`
	ConnectIslands bool `yaml:"connect_islands" toml:"connect_islands"`
	Extend         bool `yaml:"extend_selection" toml:"extend_selection"`
	CullBackfaces  bool `yaml:"cull_backfaces" toml:"cull_backfaces"`

	// SampleSpacingPx is the minimum pointer travel between drag samples
	SampleSpacingPx float64     `yaml:"sample_spacing_px" toml:"sample_spacing_px"`
	Measure         MeasureMode `yaml:"measure" toml:"measure"`
}

// DefaultConfig returns the stock knife settings
func DefaultConfig() Config {
	return Config{
		VertexSnapPx:    10,
		EdgeSnapPx:      8,
		VertexEpsilon:   0.5,
		EdgeEpsilon:     0.05,
		AngleSnap:       AngleNone,
		AngleIncrement:  30,
		ConnectIslands:  true,
		CullBackfaces:   true,
		SampleSpacingPx: 8,
		Measure:         MeasureNone,
	}
}

// Validate checks the ranges of all settings
func (c Config) Validate() error {
	switch {
	case c.VertexSnapPx < 0 || c.EdgeSnapPx < 0:
		return fmt.Errorf("snap radius must not be negative: %w", ErrInvalidConfig)
	case c.VertexEpsilon < 0 || c.EdgeEpsilon < 0:
		return fmt.Errorf("hit epsilon must not be negative: %w", ErrInvalidConfig)
	case c.AngleIncrement <= 0 || c.AngleIncrement > 180:
		return fmt.Errorf("angle increment %g outside (0, 180]: %w", c.AngleIncrement, ErrInvalidConfig)
	case c.SampleSpacingPx <= 0:
		return fmt.Errorf("sample spacing must be positive: %w", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads settings over the defaults. Files ending in .toml are
// decoded as TOML, everything else as YAML.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

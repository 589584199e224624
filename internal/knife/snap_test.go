package knife

import (
	"math"
	"testing"

	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/stretchr/testify/assert"
)

func polar(origin geometry.Vector2, degrees, length float64) geometry.Vector2 {
	rad := degrees * math.Pi / 180
	return origin.Add(geometry.NewVector2(math.Cos(rad), -math.Sin(rad)).Mul(length))
}

func TestSnapperScreenAngle(t *testing.T) {
	s := Snapper{Mode: AngleScreen, Increment: 30}
	origin := geometry.NewVector2(100, 100)

	tests := []struct {
		in, want float64
	}{
		{33, 30},
		{44, 30},
		{46, 60},
		{-10, 0},
		{160, 150},
	}
	for _, tt := range tests {
		p, ok := s.Apply(Constraint{Origin: origin}, polar(origin, tt.in, 50))
		assert.True(t, ok)
		assert.InDelta(t, tt.want, s.Angle, 1e-9, "input %g", tt.in)
		got := screenAngle(p.Sub(origin)) * 180 / math.Pi
		assert.InDelta(t, tt.want, got, 1e-9, "input %g", tt.in)
	}
}

func TestSnapperRelativeAngle(t *testing.T) {
	s := Snapper{Mode: AngleRelative, Increment: 45}
	origin := geometry.NewVector2(0, 0)
	refs := []geometry.Vector2{polar(geometry.Vector2{}, 10, 1), polar(geometry.Vector2{}, 100, 1)}

	_, ok := s.Apply(Constraint{Origin: origin}, polar(origin, 60, 20))
	assert.False(t, ok, "relative snapping needs a reference")

	p, ok := s.Apply(Constraint{Origin: origin, References: refs}, polar(origin, 60, 20))
	assert.True(t, ok)
	assert.InDelta(t, 45, s.Angle, 1e-9)
	assert.InDelta(t, 55, screenAngle(p)*180/math.Pi, 1e-9)

	s.CycleReference()
	p, _ = s.Apply(Constraint{Origin: origin, References: refs}, polar(origin, 60, 20))
	assert.InDelta(t, -45, s.Angle, 1e-9)
	assert.InDelta(t, 55, screenAngle(p)*180/math.Pi, 1e-9)

	s.CycleReference()
	ref, _ := s.Reference(refs)
	assert.Equal(t, refs[0], ref)
}

func TestSnapperToggle(t *testing.T) {
	s := NewSnapper(DefaultConfig())
	assert.False(t, s.Active())
	assert.Equal(t, AngleScreen, s.ToggleAngle())
	assert.True(t, s.Active())
	s.CycleReference()
	assert.Equal(t, AngleRelative, s.ToggleAngle())
	assert.Zero(t, s.reference)
	assert.Equal(t, AngleNone, s.ToggleAngle())
	assert.False(t, s.Active())
}

func TestSnapperLockAxis(t *testing.T) {
	var s Snapper
	assert.Equal(t, AxisGlobal, s.LockAxis(0))
	assert.Equal(t, AxisLocal, s.LockAxis(0))
	assert.Equal(t, AxisNone, s.LockAxis(0))
	assert.Equal(t, AxisGlobal, s.LockAxis(0))
	assert.Equal(t, AxisGlobal, s.LockAxis(2))
	assert.Equal(t, 2, s.Axis)
	assert.Equal(t, "global", s.AxisMode.String())
}

func TestSnapperAxisWins(t *testing.T) {
	s := Snapper{Mode: AngleScreen, Increment: 30, AxisMode: AxisGlobal}
	origin := geometry.NewVector2(10, 10)
	c := Constraint{Origin: origin, Axis: geometry.NewVector2(3, 4)}

	p, ok := s.Apply(c, geometry.NewVector2(20, 10))
	assert.True(t, ok)
	assert.InDelta(t, 13.6, p.X, 1e-9)
	assert.InDelta(t, 14.8, p.Y, 1e-9)

	// an axis seen end-on leaves only the angle snap
	c.Axis = geometry.Vector2{}
	p, _ = s.Apply(c, geometry.NewVector2(20, 10))
	assert.Equal(t, geometry.NewVector2(20, 10), p)
	assert.Zero(t, s.Angle)
}

func TestSnapperAtOrigin(t *testing.T) {
	s := Snapper{Mode: AngleScreen, Increment: 30}
	p, ok := s.Apply(Constraint{Origin: geometry.NewVector2(5, 5)}, geometry.NewVector2(5, 5))
	assert.False(t, ok)
	assert.Equal(t, geometry.NewVector2(5, 5), p)
}

func TestSegmentAngle(t *testing.T) {
	a := Position{Screen: geometry.NewVector2(0, 0)}
	assert.InDelta(t, 90, segmentAngle(a, Position{Screen: geometry.NewVector2(0, -10)}), 1e-9)
	assert.InDelta(t, 270, segmentAngle(a, Position{Screen: geometry.NewVector2(0, 10)}), 1e-9)
	assert.Zero(t, segmentAngle(a, a))
}

func TestMeasureText(t *testing.T) {
	prev := Position{Cage: v3(0, 0, 0)}
	curr := Position{Cage: v3(3, 4, 0)}

	m := measure(MeasureBoth, prev, curr, 30)
	assert.Equal(t, 5.0, m.Distance)
	assert.Contains(t, m.Text, "5.000000")
	assert.Contains(t, m.Text, "30.00°")

	m = measure(MeasureDistance, prev, curr, 30)
	assert.NotContains(t, m.Text, "°")

	m = measure(MeasureNone, prev, curr, 30)
	assert.Empty(t, m.Text)
	assert.Zero(t, m.Distance)
}

package knife

import (
	"math"

	"github.com/philipparndt/goknife/pkg/geometry"
)

// AxisMode selects the frame of an axis lock
type AxisMode int

const (
	AxisNone AxisMode = iota
	AxisGlobal
	// AxisLocal follows the object transform
	AxisLocal
)

func (m AxisMode) String() string {
	switch m {
	case AxisGlobal:
		return "global"
	case AxisLocal:
		return "local"
	}
	return "none"
}

// Constraint is the screen-space context of one constrained segment
type Constraint struct {
	// Origin is the screen position of the previous point
	Origin geometry.Vector2
	// References are screen directions of the edges at the previous point,
	// used by relative angle snapping
	References []geometry.Vector2
	// Axis is the screen direction of the locked axis, zero when none
	Axis geometry.Vector2
}

// Snapper constrains the cursor relative to the previous point
type Snapper struct {
	Mode      AngleMode
	Increment float64 // degrees

	AxisMode AxisMode
	Axis     int

	reference int
	// Angle is the last snapped angle in degrees, counter-clockwise on screen
	Angle float64
}

// NewSnapper creates a snapper from the config defaults
func NewSnapper(cfg Config) Snapper {
	return Snapper{Mode: cfg.AngleSnap, Increment: cfg.AngleIncrement}
}

// Active reports whether any constraint applies
func (s *Snapper) Active() bool {
	return s.Mode != AngleNone || s.AxisMode != AxisNone
}

// ToggleAngle cycles none, screen and relative angle snapping
func (s *Snapper) ToggleAngle() AngleMode {
	s.Mode = (s.Mode + 1) % 3
	s.reference = 0
	return s.Mode
}

// CycleReference moves relative snapping to the next reference edge
func (s *Snapper) CycleReference() {
	s.reference++
}

// LockAxis cycles none, global and local for the same axis; a different
// axis starts over at global.
func (s *Snapper) LockAxis(axis int) AxisMode {
	if axis != s.Axis || s.AxisMode == AxisNone {
		s.Axis = axis
		s.AxisMode = AxisGlobal
		return s.AxisMode
	}
	s.AxisMode = (s.AxisMode + 1) % 3
	return s.AxisMode
}

// Reference returns the active reference direction for relative snapping
func (s *Snapper) Reference(refs []geometry.Vector2) (geometry.Vector2, bool) {
	if len(refs) == 0 {
		return geometry.Vector2{}, false
	}
	return refs[s.reference%len(refs)], true
}

// screenAngle measures counter-clockwise with screen Y pointing down
func screenAngle(v geometry.Vector2) float64 {
	return math.Atan2(-v.Y, v.X)
}

func screenDir(angle float64) geometry.Vector2 {
	return geometry.NewVector2(math.Cos(angle), -math.Sin(angle))
}

// Apply returns the constrained cursor position. The cursor is projected
// onto the locked axis, or onto the nearest snapped direction. It reports
// false when nothing constrained the cursor.
func (s *Snapper) Apply(c Constraint, cursor geometry.Vector2) (geometry.Vector2, bool) {
	delta := cursor.Sub(c.Origin)
	if delta.Length() == 0 {
		return cursor, false
	}

	if s.AxisMode != AxisNone && c.Axis.Length() > 0 {
		axis := c.Axis.Normalize()
		s.Angle = math.Mod(screenAngle(axis)*180/math.Pi+360, 360)
		return c.Origin.Add(axis.Mul(delta.Dot(axis))), true
	}

	var base float64
	switch s.Mode {
	case AngleScreen:
	case AngleRelative:
		ref, ok := s.Reference(c.References)
		if !ok || ref.Length() == 0 {
			return cursor, false
		}
		base = screenAngle(ref)
	default:
		return cursor, false
	}

	step := s.Increment * math.Pi / 180
	rel := screenAngle(delta) - base
	snapped := math.Round(rel/step) * step
	s.Angle = math.Round(snapped*180/math.Pi*1e9) / 1e9
	dir := screenDir(base + snapped)
	return c.Origin.Add(dir.Mul(delta.Dot(dir))), true
}

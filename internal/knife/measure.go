package knife

import (
	"fmt"
	"math"
	"strings"

	"github.com/philipparndt/goknife/pkg/analysis"
)

// Measurement describes the pending segment
type Measurement struct {
	Mode MeasureMode
	// Distance is the world length of the segment
	Distance float64
	// Angle is in degrees, against the screen horizontal or the reference
	// edge when relative snapping is on
	Angle float64
	Text  string
}

// measure builds the measurement of the segment prev-curr
func measure(mode MeasureMode, prev, curr Position, angle float64) Measurement {
	m := Measurement{Mode: mode}
	if mode == MeasureNone {
		return m
	}
	m.Distance = prev.Cage.Distance(curr.Cage)
	m.Angle = angle

	var parts []string
	if mode == MeasureBoth || mode == MeasureDistance {
		parts = append(parts, analysis.FormatMeasurement(m.Distance, ""))
	}
	if mode == MeasureBoth || mode == MeasureAngle {
		parts = append(parts, analysis.FormatAngle(m.Angle))
	}
	m.Text = strings.Join(parts, "  ")
	return m
}

// segmentAngle is the counter-clockwise screen angle of prev-curr in degrees
func segmentAngle(prev, curr Position) float64 {
	d := curr.Screen.Sub(prev.Screen)
	if d.Length() == 0 {
		return 0
	}
	return math.Mod(screenAngle(d)*180/math.Pi+360, 360)
}

func (m Measurement) String() string {
	if m.Mode == MeasureNone {
		return ""
	}
	return fmt.Sprintf("%s: %s", m.Mode, m.Text)
}

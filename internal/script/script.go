// Package script replays recorded knife input from YAML trail files.
//
// A trail file names the view the screen coordinates refer to and a list of
// steps. Each step is a series of clicks, one drag, or a single named event:
//
//	camera:
//	  ortho: true
//	  target: [0.5, 0.5, 0]
//	  scale: 1
//	  width: 100
//	  height: 100
//	steps:
//	  - click: [[10, 50], [90, 50]]
//	  - event: toggle-angle-snap
//	  - drag: [[40, 60], [50, 55], [60, 50]]
//	  - event: confirm
package script

import (
	"errors"
	"fmt"
	"os"

	"github.com/philipparndt/goknife/internal/knife"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScript is returned for malformed trail files
var ErrInvalidScript = errors.New("invalid trail script")

// Camera describes the view of a trail. Ortho views look down -Z at Target
// showing Scale units above and below it; perspective views frame the
// models and then rotate by Rotate radians.
type Camera struct {
	Ortho  bool       `yaml:"ortho"`
	Target [3]float64 `yaml:"target"`
	Scale  float64    `yaml:"scale"`
	Rotate [2]float64 `yaml:"rotate"`
	Width  int        `yaml:"width"`
	Height int        `yaml:"height"`
}

// Step is one entry of a trail
type Step struct {
	Click [][2]float64 `yaml:"click,omitempty"`
	Drag  [][2]float64 `yaml:"drag,omitempty"`
	Event string       `yaml:"event,omitempty"`
	Axis  int          `yaml:"axis,omitempty"`
	On    bool         `yaml:"on,omitempty"`

	kind knife.EventKind
}

// Script is a parsed trail file
type Script struct {
	Camera Camera `yaml:"camera"`
	Steps  []Step `yaml:"steps"`
}

// Report collects the outcome of a replay
type Report struct {
	Results []knife.Result
	Commit  *knife.CommitResult
}

// Messages returns the non-empty messages of all results
func (r Report) Messages() []string {
	var out []string
	for _, res := range r.Results {
		if res.Message != "" {
			out = append(out, res.Message)
		}
	}
	return out
}

// Load reads and validates a trail file
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trail: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a trail
func Parse(data []byte) (*Script, error) {
	s := &Script{Camera: Camera{Width: 800, Height: 600, Scale: 1}}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	if s.Camera.Width <= 0 || s.Camera.Height <= 0 || s.Camera.Scale <= 0 {
		return nil, fmt.Errorf("%w: camera size and scale must be positive", ErrInvalidScript)
	}
	for i := range s.Steps {
		step := &s.Steps[i]
		set := 0
		if len(step.Click) > 0 {
			set++
		}
		if len(step.Drag) > 0 {
			set++
		}
		if step.Event != "" {
			kind, err := knife.ParseEventKind(step.Event)
			if err != nil {
				return nil, fmt.Errorf("%w: step %d: %w", ErrInvalidScript, i+1, err)
			}
			step.kind = kind
			set++
		}
		if set != 1 {
			return nil, fmt.Errorf("%w: step %d needs exactly one of click, drag or event", ErrInvalidScript, i+1)
		}
	}
	return s, nil
}

// Run replays the steps on tool. A trail that does not end the interaction
// is confirmed.
func (s *Script) Run(tool *knife.Tool) Report {
	var rep Report
	send := func(ev knife.Event) bool {
		res := tool.Handle(ev)
		rep.Results = append(rep.Results, res)
		if res.Commit != nil {
			rep.Commit = res.Commit
		}
		return res.Done
	}
	at := func(kind knife.EventKind, p [2]float64) knife.Event {
		return knife.Pointer(kind, p[0], p[1])
	}

	for _, step := range s.Steps {
		switch {
		case len(step.Click) > 0:
			for _, p := range step.Click {
				send(at(knife.PointerMove, p))
				send(at(knife.ButtonDown, p))
				send(at(knife.ButtonUp, p))
			}
		case len(step.Drag) > 0:
			send(at(knife.PointerMove, step.Drag[0]))
			send(at(knife.ButtonDown, step.Drag[0]))
			for _, p := range step.Drag[1:] {
				send(at(knife.PointerMove, p))
			}
			send(at(knife.ButtonUp, step.Drag[len(step.Drag)-1]))
		default:
			if send(knife.Event{Kind: step.kind, Axis: step.Axis, On: step.On}) {
				return rep
			}
		}
	}
	send(knife.Event{Kind: knife.Confirm})
	return rep
}

// Package knife implements the interactive knife: cursor snapping, line hit
// resolution against the cut graph, the modal state machine and the commit
// that applies a finished cut to the meshes.
package knife

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/philipparndt/goknife/internal/bvh"
	"github.com/philipparndt/goknife/internal/cutgraph"
	"github.com/philipparndt/goknife/internal/scene"
	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/philipparndt/goknife/pkg/mesh"
)

var (
	// ErrTrailTooShort is reported when a segment has no screen length
	ErrTrailTooShort = errors.New("trail too short")
	// ErrNoHits is reported when a segment misses every surface
	ErrNoHits = errors.New("cut does not cross the mesh")
)

// State is the modal state of the tool
type State int

const (
	StateIdle State = iota
	StateDragging
	StatePanning
)

func (s State) String() string {
	switch s {
	case StateDragging:
		return "dragging"
	case StatePanning:
		return "panning"
	}
	return "idle"
}

// EventKind enumerates the input the tool reacts to
type EventKind int

const (
	PointerMove EventKind = iota
	ButtonDown
	ButtonUp
	PanBegin
	PanEnd
	Confirm
	Cancel
	Undo
	NewCut
	CloseLoop
	ToggleAngleSnap
	CycleSnapReference
	LockAxis
	SetMidpointSnap
	SetIgnoreSnap
	ToggleCutThrough
	ToggleMeasure
)

var eventNames = [...]string{
	"pointer-move", "button-down", "button-up", "pan-begin", "pan-end",
	"confirm", "cancel", "undo", "new-cut", "close-loop", "toggle-angle-snap",
	"cycle-snap-reference", "lock-axis", "set-midpoint-snap", "set-ignore-snap",
	"toggle-cut-through", "toggle-measure",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventNames[k]
}

// ParseEventKind returns the event kind with the given name
func ParseEventKind(name string) (EventKind, error) {
	for i, n := range eventNames {
		if n == name {
			return EventKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown event %q", name)
}

// Event is one input event. Pos is used by pointer events, Axis by LockAxis
// and On by the Set* events.
type Event struct {
	Kind EventKind
	Pos  geometry.Vector2
	Axis int
	On   bool
}

// Pointer creates a pointer event at screen position x, y
func Pointer(kind EventKind, x, y float64) Event {
	return Event{Kind: kind, Pos: geometry.NewVector2(x, y)}
}

// Result reports the outcome of an event
type Result struct {
	// Changed is set when the cut graph or the meshes changed
	Changed bool
	Message string
	// Done marks the end of the interaction, after Confirm or Cancel
	Done   bool
	Commit *CommitResult
}

// Tool is the knife interaction over a set of objects
type Tool struct {
	cfg      Config
	objects  []*scene.Object
	proj     Projection
	index    *bvh.Index
	graph    *cutgraph.Graph
	resolver *Resolver
	snapper  Snapper
	undo     undoStack
	log      *slog.Logger
	session  string

	state   State
	resume  State
	pointer geometry.Vector2
	curr    Position
	prev    Position
	hasPrev bool

	// stroke is the trail of the button press in progress; anchor is the
	// index of the point constraints are measured from
	stroke     []Position
	anchor     int
	strokeMark int
	strokeEnd  Position
	strokeCuts int

	hits    []cutgraph.LineHit
	measure Measurement
}

// NewTool starts a knife interaction
func NewTool(objects []*scene.Object, proj Projection, cfg Config) (*Tool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Tool{
		cfg:     cfg,
		objects: objects,
		proj:    proj,
		graph:   cutgraph.New(objects),
		snapper: NewSnapper(cfg),
	}
	t.log, t.session = sessionLogger()
	t.index = t.buildIndex()
	t.resolver = NewResolver(&t.cfg, proj, t.index, t.graph)
	t.log.Info("knife started", slog.Int("objects", len(objects)), slog.Int("triangles", t.index.Len()))
	return t, nil
}

func (t *Tool) buildIndex() *bvh.Index {
	filter := bvh.VisibleFaces
	if t.cfg.OnlySelected {
		filter = bvh.SelectedFaces
	}
	return bvh.Build(t.objects, filter)
}

// Session returns the id tagging this interaction's log records
func (t *Tool) Session() string { return t.session }

// State returns the modal state
func (t *Tool) State() State { return t.state }

// Graph returns the cut graph
func (t *Tool) Graph() *cutgraph.Graph { return t.graph }

// Config returns the current settings
func (t *Tool) Config() Config { return t.cfg }

// Snapper returns the constraint state
func (t *Tool) Snapper() Snapper { return t.snapper }

// Cursor returns the snapped cursor position
func (t *Tool) Cursor() Position { return t.curr }

// Project maps a world point to the screen of the current view
func (t *Tool) Project(world geometry.Vector3) (geometry.Vector2, bool) {
	screen, _, ok := t.proj.Project(world)
	return screen, ok
}

// SetProjection switches to a new view. Placed points keep their world
// positions and are projected again.
func (t *Tool) SetProjection(proj Projection) {
	t.proj = proj
	t.resolver.SetProjection(proj)
	t.reproject()
}

// Previous returns the last placed point, if any
func (t *Tool) Previous() (Position, bool) { return t.prev, t.hasPrev }

// Hits returns the line hits of the pending segment or stroke
func (t *Tool) Hits() []cutgraph.LineHit { return slices.Clone(t.hits) }

// Measurement returns the measurement of the pending segment
func (t *Tool) Measurement() Measurement { return t.measure }

// UndoDepth returns the number of strokes that can be undone
func (t *Tool) UndoDepth() int { return t.undo.Len() }

// Handle feeds one event through the state machine
func (t *Tool) Handle(ev Event) Result {
	if ev.Kind != PointerMove {
		t.log.Debug("knife event", slog.String("event", ev.Kind.String()), slog.String("state", t.state.String()))
	}
	switch ev.Kind {
	case PointerMove:
		return t.onMove(ev.Pos)
	case ButtonDown:
		return t.onButtonDown(ev.Pos)
	case ButtonUp:
		return t.onButtonUp(ev.Pos)
	case PanBegin:
		if t.state != StatePanning {
			t.resume, t.state = t.state, StatePanning
		}
		return Result{}
	case PanEnd:
		if t.state == StatePanning {
			t.state = t.resume
			t.reproject()
		}
		return Result{}
	case Confirm:
		return t.confirm()
	case Cancel:
		return t.cancel()
	case Undo:
		return t.undoStroke()
	case NewCut:
		res := t.settle()
		t.hasPrev = false
		t.hits = nil
		return res
	case CloseLoop:
		return t.closeLoop()
	case ToggleAngleSnap:
		mode := t.snapper.ToggleAngle()
		return t.refresh(fmt.Sprintf("angle snapping: %s", mode))
	case CycleSnapReference:
		t.snapper.CycleReference()
		return t.refresh("next reference edge")
	case LockAxis:
		if ev.Axis < 0 || ev.Axis > 2 {
			return Result{Message: fmt.Sprintf("no axis %d", ev.Axis)}
		}
		mode := t.snapper.LockAxis(ev.Axis)
		return t.refresh(fmt.Sprintf("axis %c lock: %s", "XYZ"[ev.Axis], mode))
	case SetMidpointSnap:
		t.cfg.MidpointSnap = ev.On
		return t.refresh("")
	case SetIgnoreSnap:
		t.resolver.IgnoreSnap = ev.On
		return t.refresh("")
	case ToggleCutThrough:
		t.cfg.CutThrough = !t.cfg.CutThrough
		t.index = t.buildIndex()
		t.resolver.SetIndex(t.index)
		return t.refresh(fmt.Sprintf("cut through: %t", t.cfg.CutThrough))
	case ToggleMeasure:
		t.cfg.Measure = (t.cfg.Measure + 1) % 4
		t.updateMeasure()
		return Result{Message: fmt.Sprintf("measure: %s", t.cfg.Measure)}
	}
	return Result{}
}

// origin returns the point the pending segment starts from
func (t *Tool) origin() (Position, bool) {
	if t.state == StateDragging || (t.state == StatePanning && t.resume == StateDragging) {
		return t.stroke[t.anchor], true
	}
	return t.prev, t.hasPrev
}

// cursor snaps a screen position, applying angle and axis constraints
func (t *Tool) cursor(screen geometry.Vector2) Position {
	if origin, ok := t.origin(); ok && t.snapper.Active() {
		if p, constrained := t.snapper.Apply(t.constraint(origin), screen); constrained {
			ignore := t.resolver.IgnoreSnap
			t.resolver.IgnoreSnap = true
			pos := t.resolver.Snap(p)
			t.resolver.IgnoreSnap = ignore
			return pos
		}
	}
	return t.resolver.Snap(screen)
}

func (t *Tool) constrained() bool {
	origin, ok := t.origin()
	if !ok || !t.snapper.Active() {
		return false
	}
	s := t.snapper
	_, constrained := s.Apply(t.constraint(origin), t.pointer)
	return constrained
}

func (t *Tool) constraint(origin Position) Constraint {
	c := Constraint{Origin: origin.Screen}

	var ends []cutgraph.VertRef
	if v := t.graph.Vert(origin.Vert); v != nil {
		for _, r := range v.Edges {
			if e := t.graph.Edge(r); e != nil {
				ends = append(ends, e.Other(origin.Vert))
			}
		}
	} else if e := t.graph.Edge(origin.Edge); e != nil {
		ends = append(ends, e.V2)
	}
	for _, ref := range ends {
		if screen, _, ok := t.proj.Project(t.graph.Vert(ref).Cage); ok && screen != origin.Screen {
			c.References = append(c.References, screen.Sub(origin.Screen))
		}
	}

	if t.snapper.AxisMode != AxisNone {
		axis := geometry.UnitAxis(t.snapper.Axis)
		if t.snapper.AxisMode == AxisLocal && origin.Object >= 0 {
			axis = t.objects[origin.Object].AxisToWorld(t.snapper.Axis)
		}
		reach := max(t.index.Bounds().Diagonal()*0.1, 1e-3)
		if screen, _, ok := t.proj.Project(origin.Cage.Add(axis.Mul(reach))); ok {
			c.Axis = screen.Sub(origin.Screen)
		}
	}
	return c
}

func (t *Tool) onMove(screen geometry.Vector2) Result {
	t.pointer = screen
	if t.state == StatePanning {
		return Result{}
	}
	t.curr = t.cursor(screen)

	if t.state != StateDragging {
		t.hits = nil
		if t.hasPrev {
			t.hits = t.resolver.ResolveSegment(t.prev, t.curr, 0)
		}
		t.updateMeasure()
		return Result{}
	}

	t.extendStroke(false)
	return t.applyStroke()
}

// extendStroke adds the cursor to the stroke. Constrained strokes keep one
// straight segment from the anchor; free strokes are sampled.
func (t *Tool) extendStroke(final bool) {
	if t.constrained() {
		t.stroke = append(t.stroke[:t.anchor+1], t.curr)
		return
	}
	last := t.stroke[len(t.stroke)-1]
	d := last.Screen.Distance(t.curr.Screen)
	if d >= t.cfg.SampleSpacingPx || (final && d > 0) {
		t.stroke = append(t.stroke, t.curr)
	}
}

func (t *Tool) pushFrame() {
	t.undo.push(undoFrame{
		mark:    t.graph.Mark(),
		splits:  t.graph.Stats().Splits,
		prev:    t.prev,
		hasPrev: t.hasPrev,
		measure: t.measure,
	})
}

func (t *Tool) onButtonDown(screen geometry.Vector2) Result {
	if t.state != StateIdle {
		return Result{}
	}
	t.pointer = screen
	t.curr = t.cursor(screen)
	t.pushFrame()
	if t.hasPrev {
		t.stroke = []Position{t.prev, t.curr}
	} else {
		t.graph.NewSequence()
		t.stroke = []Position{t.curr}
	}
	t.anchor = len(t.stroke) - 1
	t.strokeMark = t.graph.Mark()
	t.state = StateDragging
	return t.applyStroke()
}

func (t *Tool) onButtonUp(screen geometry.Vector2) Result {
	if t.state != StateDragging {
		return Result{}
	}
	t.pointer = screen
	t.curr = t.cursor(screen)
	t.extendStroke(true)
	res := t.applyStroke()
	t.finishStroke()
	return res
}

// applyStroke rolls back the pending stroke and inserts it again segment by
// segment. Each segment starts at the vertex the previous one ended on.
func (t *Tool) applyStroke() Result {
	t.graph.Rollback(t.strokeMark)
	t.hits = nil
	t.strokeCuts = 0
	t.strokeEnd = t.stroke[len(t.stroke)-1]
	if len(t.stroke) < 2 {
		t.updateMeasure()
		return Result{}
	}

	pts := slices.Clone(t.stroke)
	offset, total := 0.0, 0.0
	for i := 0; i+1 < len(pts); i++ {
		length := pts[i].Screen.Distance(pts[i+1].Screen)
		total += length
		hits := t.resolver.ResolveSegment(pts[i], pts[i+1], offset)
		points, cuts := t.graph.AddCut(hits)
		t.strokeCuts += cuts
		t.hits = append(t.hits, hits...)

		if n := len(hits); n > 0 {
			if !points[0].IsZero() && hits[0].Lambda <= offset {
				pts[i].Vert = points[0]
			}
			if !points[n-1].IsZero() && hits[n-1].Lambda >= offset+length {
				pts[i+1].Vert = points[n-1]
			}
		}
		offset += length
	}

	for _, p := range []Position{pts[0], pts[len(pts)-1]} {
		if t.graph.Vert(p.Vert) != nil {
			t.graph.AppendSequence(p.Vert)
		}
	}
	t.strokeEnd = pts[len(pts)-1]
	t.updateMeasure()

	res := Result{Changed: len(t.hits) > 0}
	switch {
	case total < t.cfg.VertexEpsilon:
		res.Message = ErrTrailTooShort.Error()
	case len(t.hits) == 0:
		res.Message = ErrNoHits.Error()
	}
	return res
}

// finishStroke places the end of the stroke as the new previous point
func (t *Tool) finishStroke() {
	if frame := t.undo.top(); frame != nil {
		frame.cuts = t.strokeCuts
		frame.splits = t.graph.Stats().Splits - frame.splits
	}
	t.prev, t.hasPrev = t.strokeEnd, true
	if t.graph.IsClosedLoop() {
		t.hasPrev = false
	}
	t.state = StateIdle
	t.stroke = nil
	t.log.Debug("stroke placed", slog.Int("cuts", t.strokeCuts), slog.Bool("closed", t.graph.IsClosedLoop()))
}

// settle finishes a stroke in progress, including one interrupted by a pan
func (t *Tool) settle() Result {
	if t.state == StatePanning {
		t.state = t.resume
		t.reproject()
	}
	if t.state == StateDragging {
		return t.onButtonUp(t.pointer)
	}
	return Result{}
}

func (t *Tool) closeLoop() Result {
	t.settle()
	seq := t.graph.Sequence()
	if !t.hasPrev || len(seq) < 3 {
		return Result{Message: "a loop needs at least three points"}
	}
	first := t.graph.Vert(seq[0])
	screen, _, _ := t.proj.Project(first.Cage)
	start := Position{
		Screen: screen,
		Cage:   first.Cage,
		Hit:    first.Pos,
		Object: first.Object,
		Face:   mesh.NoFace,
		Vert:   seq[0],
		OnMesh: true,
	}
	if len(first.Faces) > 0 {
		start.Face = first.Faces[0]
	}

	t.pushFrame()
	t.stroke = []Position{t.prev, start}
	t.anchor = 0
	t.strokeMark = t.graph.Mark()
	t.state = StateDragging
	res := t.applyStroke()
	t.finishStroke()
	return res
}

func (t *Tool) undoStroke() Result {
	t.state = StateIdle
	t.stroke = nil
	frame, ok := t.undo.pop()
	if !ok {
		return Result{Message: "nothing to undo"}
	}
	t.graph.Rollback(frame.mark)
	t.prev, t.hasPrev = frame.prev, frame.hasPrev
	t.measure = frame.measure
	t.hits = nil
	return Result{Changed: true, Message: fmt.Sprintf("undid %d cuts", frame.cuts)}
}

func (t *Tool) confirm() Result {
	t.settle()
	res, err := Commit(t.graph, t.objects, CommitOptions{
		Extend:         t.cfg.Extend,
		ConnectIslands: t.cfg.ConnectIslands,
	})
	t.reset()
	if err != nil {
		t.log.Error("knife commit failed", slog.Any("error", err))
		return Result{Message: err.Error(), Done: true, Commit: &res}
	}
	if res.Changed {
		// the meshes changed under the index
		t.index = t.buildIndex()
		t.resolver.SetIndex(t.index)
	}
	t.log.Info("knife confirmed", slog.Bool("changed", res.Changed), slog.String("reason", res.Reason))
	return Result{Changed: res.Changed, Message: res.Reason, Done: true, Commit: &res}
}

func (t *Tool) cancel() Result {
	t.reset()
	t.log.Info("knife cancelled")
	return Result{Message: "cut cancelled", Done: true}
}

func (t *Tool) reset() {
	t.graph.Reset()
	t.undo.clear()
	t.state = StateIdle
	t.stroke = nil
	t.hasPrev = false
	t.hits = nil
	t.measure = Measurement{Mode: t.cfg.Measure}
}

// refresh re-evaluates the cursor after a setting changed
func (t *Tool) refresh(msg string) Result {
	if t.state == StatePanning {
		return Result{Message: msg}
	}
	res := t.onMove(t.pointer)
	res.Message = msg
	return res
}

// reproject updates screen positions after the view moved
func (t *Tool) reproject() {
	update := func(p *Position) {
		if screen, _, ok := t.proj.Project(p.Cage); ok {
			p.Screen = screen
		}
	}
	update(&t.prev)
	for i := range t.stroke {
		update(&t.stroke[i])
	}
}

func (t *Tool) updateMeasure() {
	origin, ok := t.origin()
	if !ok || t.cfg.Measure == MeasureNone {
		t.measure = Measurement{Mode: t.cfg.Measure}
		return
	}
	angle := segmentAngle(origin, t.curr)
	if t.snapper.Active() && t.constrained() {
		angle = t.snapper.Angle
	}
	t.measure = measure(t.cfg.Measure, origin, t.curr, angle)
}

package viewer

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/philipparndt/goknife/internal/knife"
	"github.com/philipparndt/goknife/internal/scene"
	"github.com/philipparndt/goknife/pkg/geometry"
)

// KnifeView is a fyne widget that shows the objects and runs the knife tool
// on mouse and keyboard input. A new tool starts after each confirm or
// cancel, keeping the current settings.
type KnifeView struct {
	widget.BaseWidget
	objects []*scene.Object
	camera  *Camera
	tool    *knife.Tool

	raster   *canvas.Raster
	status   *canvas.Text
	panning  bool
	panFrom  fyne.Position
	onResult func(knife.Result)
}

// NewKnifeView creates the view with a camera framing all objects
func NewKnifeView(objects []*scene.Object, cfg knife.Config) (*KnifeView, error) {
	bounds := geometry.NewBoundingBox()
	for _, obj := range objects {
		for _, v := range obj.Mesh.Verts() {
			bounds.Extend(obj.WorldPosition(v))
		}
	}
	v := &KnifeView{
		objects: objects,
		camera:  NewCamera(bounds),
		status:  canvas.NewText("", color.White),
	}
	tool, err := knife.NewTool(objects, v.camera, cfg)
	if err != nil {
		return nil, err
	}
	v.tool = tool
	v.raster = canvas.NewRaster(v.draw)
	v.status.TextSize = 12
	v.ExtendBaseWidget(v)
	return v, nil
}

// Tool returns the running knife tool
func (v *KnifeView) Tool() *knife.Tool { return v.tool }

// Camera returns the view camera
func (v *KnifeView) Camera() *Camera { return v.camera }

// SetOnResult sets the callback for every event result
func (v *KnifeView) SetOnResult(callback func(knife.Result)) {
	v.onResult = callback
}

// Handle feeds an event to the tool and redraws
func (v *KnifeView) Handle(ev knife.Event) knife.Result {
	res := v.tool.Handle(ev)
	if res.Done {
		if tool, err := knife.NewTool(v.objects, v.camera, v.tool.Config()); err == nil {
			v.tool = tool
		}
	}
	v.updateStatus(res)
	if v.onResult != nil {
		v.onResult(res)
	}
	v.Refresh()
	return res
}

func (v *KnifeView) updateStatus(res knife.Result) {
	text := v.tool.Measurement().Text
	if res.Message != "" {
		text = res.Message
	}
	v.status.Text = text
}

// changeView applies a camera change while the tool treats it as a pan
func (v *KnifeView) changeView(change func()) {
	v.tool.Handle(knife.Event{Kind: knife.PanBegin})
	change()
	v.tool.Handle(knife.Event{Kind: knife.PanEnd})
	v.Refresh()
}

func (v *KnifeView) draw(w, h int) image.Image {
	return Draw(v.camera, v.objects, v.tool, w, h)
}

// CreateRenderer creates the renderer for the widget
func (v *KnifeView) CreateRenderer() fyne.WidgetRenderer {
	return &knifeViewRenderer{view: v}
}

// MouseIn implements desktop.Hoverable
func (v *KnifeView) MouseIn(ev *desktop.MouseEvent) {
	v.MouseMoved(ev)
}

// MouseMoved implements desktop.Hoverable
func (v *KnifeView) MouseMoved(ev *desktop.MouseEvent) {
	if v.panning {
		dx, dy := ev.Position.X-v.panFrom.X, ev.Position.Y-v.panFrom.Y
		v.panFrom = ev.Position
		v.camera.Pan(float64(dx), float64(dy))
		v.Refresh()
		return
	}
	v.Handle(pointer(knife.PointerMove, ev.Position))
}

// MouseOut implements desktop.Hoverable
func (v *KnifeView) MouseOut() {}

// MouseDown implements desktop.Mouseable
func (v *KnifeView) MouseDown(ev *desktop.MouseEvent) {
	if c := fyne.CurrentApp(); c != nil {
		if d := c.Driver(); d != nil {
			if cv := d.CanvasForObject(v); cv != nil {
				cv.Focus(v)
			}
		}
	}
	switch ev.Button {
	case desktop.MouseButtonPrimary:
		v.Handle(pointer(knife.ButtonDown, ev.Position))
	case desktop.MouseButtonSecondary, desktop.MouseButtonTertiary:
		v.panning = true
		v.panFrom = ev.Position
		v.tool.Handle(knife.Event{Kind: knife.PanBegin})
	}
}

// MouseUp implements desktop.Mouseable
func (v *KnifeView) MouseUp(ev *desktop.MouseEvent) {
	if v.panning {
		v.panning = false
		v.Handle(knife.Event{Kind: knife.PanEnd})
		return
	}
	if ev.Button == desktop.MouseButtonPrimary {
		v.Handle(pointer(knife.ButtonUp, ev.Position))
	}
}

// Dragged handles pointer motion while the primary button is held
func (v *KnifeView) Dragged(ev *fyne.DragEvent) {
	v.Handle(pointer(knife.PointerMove, ev.Position))
}

// DragEnd implements fyne.Draggable; the stroke ends on MouseUp
func (v *KnifeView) DragEnd() {}

// Scrolled handles scroll events for zooming
func (v *KnifeView) Scrolled(ev *fyne.ScrollEvent) {
	delta := -float64(ev.Scrolled.DY) * 0.001
	v.changeView(func() { v.camera.Zoom(delta) })
}

// FocusGained implements fyne.Focusable
func (v *KnifeView) FocusGained() {}

// FocusLost implements fyne.Focusable
func (v *KnifeView) FocusLost() {}

// TypedRune implements fyne.Focusable
func (v *KnifeView) TypedRune(r rune) {
	if ev, ok := runeEvent(r); ok {
		v.Handle(ev)
	}
}

// TypedKey implements fyne.Focusable
func (v *KnifeView) TypedKey(key *fyne.KeyEvent) {
	if ev, ok := keyEvent(key.Name); ok {
		v.Handle(ev)
	}
}

// KeyDown implements desktop.Keyable
func (v *KnifeView) KeyDown(key *fyne.KeyEvent) {
	if ev, ok := modifierEvent(key.Name, true); ok {
		v.Handle(ev)
	}
}

// KeyUp implements desktop.Keyable
func (v *KnifeView) KeyUp(key *fyne.KeyEvent) {
	if ev, ok := modifierEvent(key.Name, false); ok {
		v.Handle(ev)
	}
}

func pointer(kind knife.EventKind, pos fyne.Position) knife.Event {
	return knife.Pointer(kind, float64(pos.X), float64(pos.Y))
}

// knifeViewRenderer implements fyne.WidgetRenderer
type knifeViewRenderer struct {
	view *KnifeView
}

func (r *knifeViewRenderer) Layout(size fyne.Size) {
	v := r.view
	v.changeView(func() { v.camera.SetViewport(int(size.Width), int(size.Height)) })
	v.raster.Resize(size)
	v.status.Move(fyne.NewPos(8, size.Height-v.status.MinSize().Height-4))
}

func (r *knifeViewRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 400)
}

func (r *knifeViewRenderer) Refresh() {
	r.view.status.Refresh()
	r.view.raster.Refresh()
}

func (r *knifeViewRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.view.raster, r.view.status}
}

func (r *knifeViewRenderer) Destroy() {}

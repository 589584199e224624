package viewer

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/philipparndt/goknife/internal/knife"
)

// KeyHelp lists the keyboard bindings of the knife view
const KeyHelp = `Click or drag: place cut points
Enter: apply cut    Esc: cancel
Backspace: undo stroke    E: new cut    C: close loop
A: angle snap    R: next reference edge
X / Y / Z: axis lock    T: cut through    M: measure
Shift: midpoint snap    Ctrl: ignore snapping
Right drag: pan    Scroll: zoom`

func keyEvent(name fyne.KeyName) (knife.Event, bool) {
	switch name {
	case fyne.KeyReturn, fyne.KeyEnter:
		return knife.Event{Kind: knife.Confirm}, true
	case fyne.KeyEscape:
		return knife.Event{Kind: knife.Cancel}, true
	case fyne.KeyBackspace:
		return knife.Event{Kind: knife.Undo}, true
	}
	return knife.Event{}, false
}

func runeEvent(r rune) (knife.Event, bool) {
	switch r {
	case 'e', 'E':
		return knife.Event{Kind: knife.NewCut}, true
	case 'c', 'C':
		return knife.Event{Kind: knife.CloseLoop}, true
	case 'a', 'A':
		return knife.Event{Kind: knife.ToggleAngleSnap}, true
	case 'r', 'R':
		return knife.Event{Kind: knife.CycleSnapReference}, true
	case 'x', 'X', 'y', 'Y', 'z', 'Z':
		axis := int((r | 0x20) - 'x')
		return knife.Event{Kind: knife.LockAxis, Axis: axis}, true
	case 't', 'T':
		return knife.Event{Kind: knife.ToggleCutThrough}, true
	case 'm', 'M':
		return knife.Event{Kind: knife.ToggleMeasure}, true
	}
	return knife.Event{}, false
}

// modifierEvent maps held modifier keys to snapping switches
func modifierEvent(name fyne.KeyName, down bool) (knife.Event, bool) {
	switch name {
	case desktop.KeyShiftLeft, desktop.KeyShiftRight:
		return knife.Event{Kind: knife.SetMidpointSnap, On: down}, true
	case desktop.KeyControlLeft, desktop.KeyControlRight:
		return knife.Event{Kind: knife.SetIgnoreSnap, On: down}, true
	}
	return knife.Event{}, false
}

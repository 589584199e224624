package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goknife/internal/knife"
	"github.com/philipparndt/goknife/internal/scene"
	"github.com/philipparndt/goknife/pkg/analysis"
	"github.com/philipparndt/goknife/pkg/mesh"
	"github.com/philipparndt/goknife/pkg/stl"
	"github.com/philipparndt/goknife/pkg/viewer"
)

type App struct {
	window fyne.Window
	mesh   *mesh.Mesh
	cfg    knife.Config
	view   *viewer.KnifeView
	info   *CutInfo
}

type CutInfo struct {
	modelLabel   *widget.Label
	stateLabel   *widget.Label
	measureLabel *widget.Label
	lastCutLabel *widget.Label
	messageLabel *widget.Label
}

func main() {
	a := app.New()
	w := a.NewWindow("GoKnife - Mesh Knife")

	appInstance := &App{
		window: w,
		cfg:    knife.DefaultConfig(),
	}

	// goknife-gui [model.stl] [settings.yaml|settings.toml]
	if len(os.Args) > 2 {
		cfg, err := knife.LoadConfig(os.Args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		appInstance.cfg = cfg
	}

	if len(os.Args) > 1 {
		appInstance.loadFile(os.Args[1])
	} else {
		appInstance.showWelcomeScreen()
	}

	w.Resize(fyne.NewSize(1200, 800))
	w.ShowAndRun()
}

func (a *App) showWelcomeScreen() {
	welcomeLabel := widget.NewLabel("Welcome to GoKnife")
	welcomeLabel.TextStyle = fyne.TextStyle{Bold: true}

	instructionLabel := widget.NewLabel("Click 'Open STL File' to load a mesh to cut")

	openButton := widget.NewButton("Open STL File", func() {
		a.showFileDialog()
	})

	content := container.NewVBox(
		layout.NewSpacer(),
		container.NewCenter(welcomeLabel),
		container.NewCenter(instructionLabel),
		layout.NewSpacer(),
		container.NewCenter(openButton),
		layout.NewSpacer(),
	)

	a.window.SetContent(content)
}

func (a *App) showFileDialog() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		a.loadFile(reader.URI().Path())
	}, a.window)
}

func (a *App) showSaveDialog() {
	dialog.ShowFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if writer == nil {
			return
		}
		defer writer.Close()

		if err := stl.WriteBinary(writer, a.mesh.ToSTL()); err != nil {
			dialog.ShowError(fmt.Errorf("failed to save STL file: %w", err), a.window)
			return
		}
		a.info.messageLabel.SetText("Saved " + writer.URI().Name())
	}, a.window)
}

func (a *App) loadFile(filename string) {
	model, err := stl.Parse(filename)
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to load STL file: %w", err), a.window)
		return
	}

	m := mesh.FromSTL(model, 0)
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	view, err := viewer.NewKnifeView([]*scene.Object{scene.NewObject(m.Name, m, mgl64.Ident4())}, a.cfg)
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}

	a.mesh = m
	a.view = view
	a.setupMainUI()
}

func (a *App) setupMainUI() {
	a.info = &CutInfo{
		modelLabel:   widget.NewLabel(""),
		stateLabel:   widget.NewLabel("State: idle"),
		measureLabel: widget.NewLabel("Measure: -"),
		lastCutLabel: widget.NewLabel("Last cut: -"),
		messageLabel: widget.NewLabel(""),
	}
	a.info.lastCutLabel.TextStyle = fyne.TextStyle{Bold: true}
	a.info.messageLabel.Wrapping = fyne.TextWrapWord

	a.view.SetOnResult(a.updateCutInfo)
	a.updateModelInfo()

	openButton := widget.NewButton("Open File", func() {
		a.showFileDialog()
	})
	saveButton := widget.NewButton("Save As...", func() {
		a.showSaveDialog()
	})
	confirmButton := widget.NewButton("Confirm Cut", func() {
		a.view.Handle(knife.Event{Kind: knife.Confirm})
	})
	cancelButton := widget.NewButton("Cancel Cut", func() {
		a.view.Handle(knife.Event{Kind: knife.Cancel})
	})

	// checks mirror settings the keyboard can also toggle
	cutThroughCheck := widget.NewCheck("Cut Through", func(checked bool) {
		if a.view.Tool().Config().CutThrough != checked {
			a.view.Handle(knife.Event{Kind: knife.ToggleCutThrough})
		}
	})
	cutThroughCheck.SetChecked(a.cfg.CutThrough)

	instructions := widget.NewLabel("Controls:\n" + viewer.KeyHelp)
	instructions.Wrapping = fyne.TextWrapWord

	infoPanel := container.NewVBox(
		widget.NewLabel("Model Information:"),
		widget.NewSeparator(),
		a.info.modelLabel,
		widget.NewSeparator(),
		widget.NewLabel("Knife:"),
		widget.NewSeparator(),
		a.info.stateLabel,
		a.info.measureLabel,
		a.info.lastCutLabel,
		a.info.messageLabel,
		widget.NewSeparator(),
		widget.NewLabel("Options:"),
		cutThroughCheck,
		widget.NewSeparator(),
		instructions,
		widget.NewSeparator(),
		confirmButton,
		cancelButton,
		openButton,
		saveButton,
	)

	infoScroll := container.NewVScroll(infoPanel)
	infoScroll.SetMinSize(fyne.NewSize(300, 0))

	content := container.NewBorder(
		nil,
		nil,
		nil,
		infoScroll,
		a.view,
	)

	a.window.SetContent(content)
	a.window.Canvas().Focus(a.view)
}

func (a *App) updateModelInfo() {
	result := analysis.AnalyzeMesh(a.mesh)
	a.info.modelLabel.SetText(fmt.Sprintf(
		"Model: %s\nVertices: %d\nEdges: %d\nFaces: %d\nSurface Area: %.2f\n\nDimensions:\n  X: %.2f\n  Y: %.2f\n  Z: %.2f",
		a.mesh.Name,
		result.VertexCount,
		result.EdgeCount,
		result.FaceCount,
		result.SurfaceArea,
		result.Dimensions.X,
		result.Dimensions.Y,
		result.Dimensions.Z,
	))
}

func (a *App) updateCutInfo(res knife.Result) {
	tool := a.view.Tool()
	a.info.stateLabel.SetText(fmt.Sprintf("State: %s, %d strokes", tool.State(), tool.UndoDepth()))
	if text := tool.Measurement().Text; text != "" {
		a.info.measureLabel.SetText("Measure: " + text)
	} else {
		a.info.measureLabel.SetText("Measure: -")
	}
	if res.Message != "" {
		a.info.messageLabel.SetText(res.Message)
	}

	if res.Commit == nil {
		return
	}
	c := res.Commit
	if c.Changed {
		a.info.lastCutLabel.SetText(fmt.Sprintf("Last cut: %d splits, %d faces cut", c.Splits, c.FaceSplits))
		a.updateModelInfo()
	} else {
		a.info.lastCutLabel.SetText("Last cut: no change")
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/goknife/internal/scene"
	"github.com/philipparndt/goknife/pkg/mesh"
	"github.com/philipparndt/goknife/pkg/openscad"
	"github.com/philipparndt/goknife/pkg/stl"
)

var weldTolerance float64

// loadMesh parses an STL file, or renders an OpenSCAD file, and welds it
// into an editable mesh
func loadMesh(ctx context.Context, filename string) (*mesh.Mesh, error) {
	var model *stl.Model
	var err error
	if openscad.IsSource(filename) {
		model, err = renderer().Render(ctx, filename)
	} else {
		model, err = stl.Parse(filename)
		if err != nil {
			err = fmt.Errorf("error parsing STL file: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}

	m := mesh.FromSTL(model, weldTolerance)
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return m, nil
}

// loadObjects loads every file as an object at the origin
func loadObjects(ctx context.Context, filenames []string) ([]*scene.Object, error) {
	objects := make([]*scene.Object, 0, len(filenames))
	for _, name := range filenames {
		m, err := loadMesh(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		objects = append(objects, scene.NewObject(m.Name, m, mgl64.Ident4()))
	}
	return objects, nil
}

// watchedFiles expands OpenSCAD models to every file they use or include
func watchedFiles(files []string) ([]string, error) {
	var out []string
	for _, name := range files {
		if !openscad.IsSource(name) {
			out = append(out, name)
			continue
		}
		deps, err := renderer().ResolveDependencies(name)
		if err != nil {
			return nil, err
		}
		out = append(out, deps...)
	}
	return out, nil
}

func renderer() *openscad.Renderer {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return openscad.NewRenderer(wd)
}

// Package openscad turns OpenSCAD sources into meshes the knife can cut.
package openscad

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/philipparndt/goknife/pkg/stl"
)

// ErrNotInstalled is returned when the openscad binary is not on PATH
var ErrNotInstalled = errors.New("openscad not found in PATH, install it from https://openscad.org/")

var dependencyRegex = regexp.MustCompile(`^\s*(?:use|include)\s*<([^>]+)>`)

// IsSource reports whether a model path names an OpenSCAD file
func IsSource(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".scad")
}

// Renderer renders OpenSCAD files relative to a work directory
type Renderer struct {
	workDir string
	binary  string
}

// NewRenderer creates a renderer using the openscad binary on PATH
func NewRenderer(workDir string) *Renderer {
	return &Renderer{
		workDir: workDir,
		binary:  "openscad",
	}
}

func (r *Renderer) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.workDir, path)
}

// RenderToSTL runs openscad to write scadFile as STL to outputFile
func (r *Renderer) RenderToSTL(ctx context.Context, scadFile, outputFile string) error {
	bin, err := exec.LookPath(r.binary)
	if err != nil {
		return ErrNotInstalled
	}

	cmd := exec.CommandContext(ctx, bin, "-o", outputFile, r.abs(scadFile))
	cmd.Dir = r.workDir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		if output.Len() > 0 {
			return fmt.Errorf("failed to render %s: %w\n%s", scadFile, err, strings.TrimSpace(output.String()))
		}
		return fmt.Errorf("failed to render %s: %w", scadFile, err)
	}
	return nil
}

// Render renders scadFile into a temporary STL and parses it
func (r *Renderer) Render(ctx context.Context, scadFile string) (*stl.Model, error) {
	tmp, err := os.CreateTemp("", "goknife-*.stl")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary STL: %w", err)
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	if err := r.RenderToSTL(ctx, scadFile, tmp.Name()); err != nil {
		return nil, err
	}
	model, err := stl.Parse(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered %s: %w", scadFile, err)
	}
	if model.Name == "" {
		model.Name = strings.TrimSuffix(filepath.Base(scadFile), filepath.Ext(scadFile))
	}
	return model, nil
}

// ResolveDependencies returns scadFile and every file it reaches through
// use and include statements, as absolute paths
func (r *Renderer) ResolveDependencies(scadFile string) ([]string, error) {
	visited := make(map[string]bool)
	var deps []string

	var visit func(path string) error
	visit = func(path string) error {
		if visited[path] {
			return nil
		}
		visited[path] = true
		deps = append(deps, path)

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		refs, err := ParseDependencies(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("error reading %s: %w", path, err)
		}
		for _, ref := range refs {
			if err := visit(r.resolveDepPath(ref, filepath.Dir(path))); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(r.abs(scadFile)); err != nil {
		return nil, err
	}
	return deps, nil
}

// ParseDependencies lists the paths named by use and include statements
func ParseDependencies(src io.Reader) ([]string, error) {
	var refs []string
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}
		if m := dependencyRegex.FindStringSubmatch(line); len(m) > 1 {
			refs = append(refs, m[1])
		}
	}
	return refs, scanner.Err()
}

// resolveDepPath tries the including file's directory before the work directory
func (r *Renderer) resolveDepPath(depPath, currentDir string) string {
	local := filepath.Clean(filepath.Join(currentDir, depPath))
	if strings.HasPrefix(depPath, "./") || strings.HasPrefix(depPath, "../") {
		return local
	}
	if _, err := os.Stat(local); err == nil {
		return local
	}
	return filepath.Clean(filepath.Join(r.workDir, depPath))
}

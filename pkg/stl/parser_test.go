package stl

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/philipparndt/goknife/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const asciiQuad = `solid quad
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 1 1 0
    endloop
  endfacet
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 1 0
      vertex 0 1 0
    endloop
  endfacet
endsolid quad
`

func TestParseASCII(t *testing.T) {
	model, err := ParseReader(strings.NewReader(asciiQuad))
	require.NoError(t, err)
	assert.Equal(t, "quad", model.Name)
	assert.Equal(t, 2, model.TriangleCount())
	assert.InDelta(t, 1.0, model.SurfaceArea(), 1e-9)

	box := model.BoundingBox()
	assert.Equal(t, geometry.NewVector3(1, 1, 0), box.Max)
}

func TestParseASCIIErrors(t *testing.T) {
	tests := map[string]string{
		"bad number":   strings.Replace(asciiQuad, "vertex 1 0 0", "vertex 1 x 0", 1),
		"two vertices": strings.Replace(asciiQuad, "      vertex 1 0 0\n", "", 1),
		"no normal":    strings.Replace(asciiQuad, "facet normal 0 0 1", "facet", 1),
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseReader(strings.NewReader(src))
			assert.ErrorIs(t, err, ErrInvalidSTL)
		})
	}
}

func TestParseBinaryWithSolidHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, sampleModel()))
	data := buf.Bytes()
	copy(data, "solid exported by some cad tool")

	model, err := ParseReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, model.TriangleCount())
	assert.Equal(t, "solid exported by some cad tool", model.Name)
}

func TestParseTruncatedBinary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, sampleModel()))
	data := buf.Bytes()
	binary.LittleEndian.PutUint32(data[80:], 3)

	_, err := ParseReader(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrInvalidSTL)

	_, err = ParseReader(bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.stl")
	require.NoError(t, os.WriteFile(path, []byte(asciiQuad), 0o644))
	model, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, 2, model.TriangleCount())

	_, err = Parse(filepath.Join(t.TempDir(), "missing.stl"))
	assert.Error(t, err)
}

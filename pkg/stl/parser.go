package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/philipparndt/goknife/pkg/geometry"
)

const (
	headerSize = 80
	recordSize = 50
)

// Parse reads an ASCII or binary STL file
func Parse(filename string) (*Model, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file)
}

// ParseReader decodes an ASCII or binary STL stream. Binary files whose
// header starts with "solid" are recognized by their size.
func ParseReader(reader io.ReadSeeker) (*Model, error) {
	size, err := reader.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to size stream: %w", err)
	}
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to reset file pointer: %w", err)
	}

	head := make([]byte, headerSize+4)
	n, err := io.ReadFull(reader, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read file header: %w", err)
	}
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to reset file pointer: %w", err)
	}

	if n == len(head) {
		count := int64(binary.LittleEndian.Uint32(head[headerSize:]))
		if size == headerSize+4+count*recordSize {
			return parseBinary(reader)
		}
	}
	if bytes.HasPrefix(bytes.TrimLeft(head[:n], " \t\r\n"), []byte("solid")) {
		return parseASCII(reader)
	}
	return parseBinary(reader)
}

// parseASCII reads facets; malformed numbers and facets without exactly
// three vertices are errors
func parseASCII(reader io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(reader)
	model := NewModel("")

	var normal geometry.Vector3
	var corners []geometry.Vector3
	line := 0

	vector := func(fields []string) (geometry.Vector3, error) {
		var xyz [3]float64
		for i := range xyz {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return geometry.Vector3{}, fmt.Errorf("line %d: %w: %w", line, ErrInvalidSTL, err)
			}
			xyz[i] = v
		}
		return geometry.NewVector3(xyz[0], xyz[1], xyz[2]), nil
	}

	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "solid":
			if len(fields) > 1 && model.Name == "" {
				model.Name = strings.Join(fields[1:], " ")
			}
		case "facet":
			if len(fields) < 5 || fields[1] != "normal" {
				return nil, fmt.Errorf("line %d: %w: facet without normal", line, ErrInvalidSTL)
			}
			v, err := vector(fields[2:])
			if err != nil {
				return nil, err
			}
			normal = v
			corners = corners[:0]
		case "vertex":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: %w: short vertex", line, ErrInvalidSTL)
			}
			v, err := vector(fields[1:])
			if err != nil {
				return nil, err
			}
			corners = append(corners, v)
		case "endfacet":
			if len(corners) != 3 {
				return nil, fmt.Errorf("line %d: %w: facet with %d vertices", line, ErrInvalidSTL, len(corners))
			}
			model.AddTriangle(geometry.NewTriangle(normal, corners[0], corners[1], corners[2]))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASCII STL: %w", err)
	}
	return model, nil
}

// parseBinary reads the 80 byte header, the triangle count and one 50 byte
// record per triangle
func parseBinary(reader io.Reader) (*Model, error) {
	r := bufio.NewReader(reader)
	head := make([]byte, headerSize+4)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("failed to read header: %w: %w", ErrInvalidSTL, err)
	}

	model := NewModel(strings.TrimSpace(string(bytes.TrimRight(head[:headerSize], "\x00"))))
	count := binary.LittleEndian.Uint32(head[headerSize:])
	model.Triangles = make([]geometry.Triangle, 0, min(count, 1<<20))

	record := make([]byte, recordSize)
	vec := func(off int) geometry.Vector3 {
		f := func(i int) float64 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(record[off+4*i:])))
		}
		return geometry.NewVector3(f(0), f(1), f(2))
	}
	for i := range count {
		if _, err := io.ReadFull(r, record); err != nil {
			return nil, fmt.Errorf("failed to read triangle %d of %d: %w: %w", i, count, ErrInvalidSTL, err)
		}
		model.AddTriangle(geometry.NewTriangle(vec(0), vec(12), vec(24), vec(36)))
	}
	return model, nil
}

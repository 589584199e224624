package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
)

// Write saves a model to filename. The ascii flag or a .ascii.stl suffix
// selects the text format; everything else is written as binary.
func Write(filename string, model *Model, ascii bool) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if ascii || strings.HasSuffix(strings.ToLower(filename), ".ascii.stl") {
		err = WriteASCII(file, model)
	} else {
		err = WriteBinary(file, model)
	}
	if err != nil {
		return err
	}
	return file.Close()
}

// WriteBinary encodes a model in binary STL format
func WriteBinary(writer io.Writer, model *Model) error {
	w := bufio.NewWriter(writer)

	// Other readers sniff a leading "solid" as ASCII.
	header := make([]byte, 80)
	copy(header, strings.TrimPrefix(model.Name, "solid"))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(model.Triangles))); err != nil {
		return fmt.Errorf("failed to write triangle count: %w", err)
	}

	for i, triangle := range model.Triangles {
		normal := triangle.Normal
		if normal.LengthSquared() == 0 {
			normal = triangle.CalculateNormal()
		}
		record := [12]float32{
			float32(normal.X), float32(normal.Y), float32(normal.Z),
			float32(triangle.V1.X), float32(triangle.V1.Y), float32(triangle.V1.Z),
			float32(triangle.V2.X), float32(triangle.V2.Y), float32(triangle.V2.Z),
			float32(triangle.V3.X), float32(triangle.V3.Y), float32(triangle.V3.Z),
		}
		if err := binary.Write(w, binary.LittleEndian, record); err != nil {
			return fmt.Errorf("failed to write triangle %d: %w", i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(0)); err != nil {
			return fmt.Errorf("failed to write attribute for triangle %d: %w", i, err)
		}
	}

	return w.Flush()
}

// WriteASCII encodes a model in ASCII STL format
func WriteASCII(writer io.Writer, model *Model) error {
	w := bufio.NewWriter(writer)

	name := model.Name
	if name == "" {
		name = "goknife"
	}
	fmt.Fprintf(w, "solid %s\n", name)
	for _, triangle := range model.Triangles {
		normal := triangle.Normal
		if normal.LengthSquared() == 0 {
			normal = triangle.CalculateNormal()
		}
		fmt.Fprintf(w, "  facet normal %g %g %g\n", normal.X, normal.Y, normal.Z)
		fmt.Fprintf(w, "    outer loop\n")
		for _, v := range []struct{ X, Y, Z float64 }{
			{triangle.V1.X, triangle.V1.Y, triangle.V1.Z},
			{triangle.V2.X, triangle.V2.Y, triangle.V2.Z},
			{triangle.V3.X, triangle.V3.Y, triangle.V3.Z},
		} {
			fmt.Fprintf(w, "      vertex %g %g %g\n", v.X, v.Y, v.Z)
		}
		fmt.Fprintf(w, "    endloop\n")
		fmt.Fprintf(w, "  endfacet\n")
	}
	fmt.Fprintf(w, "endsolid %s\n", name)

	return w.Flush()
}

package mesh

// Snapshot is a deep copy of a mesh's geometry, topology and selection
type Snapshot struct {
	verts     []vertex
	edges     []edge
	faces     []face
	edgeIndex map[[2]VertID]EdgeID
}

// Snapshot captures the current state so it can be restored later
func (m *Mesh) Snapshot() *Snapshot {
	s := &Snapshot{
		verts:     make([]vertex, len(m.verts)),
		edges:     append([]edge(nil), m.edges...),
		faces:     make([]face, len(m.faces)),
		edgeIndex: make(map[[2]VertID]EdgeID, len(m.edgeIndex)),
	}
	for i, v := range m.verts {
		v.faces = append([]FaceID(nil), v.faces...)
		v.edges = append([]EdgeID(nil), v.edges...)
		s.verts[i] = v
	}
	for i, f := range m.faces {
		f.verts = append([]VertID(nil), f.verts...)
		s.faces[i] = f
	}
	for k, v := range m.edgeIndex {
		s.edgeIndex[k] = v
	}
	return s
}

// Restore replaces the mesh state with a snapshot. The snapshot stays usable.
func (m *Mesh) Restore(s *Snapshot) {
	copied := s.clone()
	m.verts = copied.verts
	m.edges = copied.edges
	m.faces = copied.faces
	m.edgeIndex = copied.edgeIndex
}

func (s *Snapshot) clone() *Snapshot {
	tmp := &Mesh{verts: s.verts, edges: s.edges, faces: s.faces, edgeIndex: s.edgeIndex}
	return tmp.Snapshot()
}

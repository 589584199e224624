package mesh

// Update describes what changed in a mesh notification
type Update struct {
	Topology  bool
	Selection bool
}

// OnUpdate registers a listener called by NotifyUpdate
func (m *Mesh) OnUpdate(fn func(Update)) {
	m.listeners = append(m.listeners, fn)
}

// NotifyUpdate bumps the revision and informs listeners
func (m *Mesh) NotifyUpdate(u Update) {
	m.revision++
	for _, fn := range m.listeners {
		fn(u)
	}
}

// ClearSelection deselects every element
func (m *Mesh) ClearSelection() {
	for i := range m.verts {
		m.verts[i].selected = false
	}
	for i := range m.edges {
		m.edges[i].selected = false
	}
	for i := range m.faces {
		m.faces[i].selected = false
	}
}

// SelectVert sets the selection state of a vertex
func (m *Mesh) SelectVert(v VertID, selected bool) {
	m.verts[v].selected = selected
}

// SelectEdge sets the selection state of an edge and its vertices
func (m *Mesh) SelectEdge(e EdgeID, selected bool) {
	m.edges[e].selected = selected
	if selected {
		m.verts[m.edges[e].v[0]].selected = true
		m.verts[m.edges[e].v[1]].selected = true
	}
}

// SelectFace sets the selection state of a face
func (m *Mesh) SelectFace(f FaceID, selected bool) {
	m.faces[f].selected = selected
}

// VertSelected reports whether a vertex is selected
func (m *Mesh) VertSelected(v VertID) bool {
	return m.verts[v].selected
}

// EdgeSelected reports whether an edge is selected
func (m *Mesh) EdgeSelected(e EdgeID) bool {
	return m.edges[e].selected
}

// FaceSelected reports whether a face is selected
func (m *Mesh) FaceSelected(f FaceID) bool {
	return m.faces[f].selected
}

// SelectedVerts returns the selected live vertices
func (m *Mesh) SelectedVerts() []VertID {
	var out []VertID
	for i, v := range m.verts {
		if v.selected && !v.removed {
			out = append(out, VertID(i))
		}
	}
	return out
}

// SelectedEdges returns the selected live edges
func (m *Mesh) SelectedEdges() []EdgeID {
	var out []EdgeID
	for i, e := range m.edges {
		if e.selected && !e.removed {
			out = append(out, EdgeID(i))
		}
	}
	return out
}

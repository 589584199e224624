package knife

// undoFrame remembers the tool state before one placed stroke
type undoFrame struct {
	mark    int
	splits  int
	cuts    int
	prev    Position
	hasPrev bool
	measure Measurement
}

type undoStack struct {
	frames []undoFrame
}

func (s *undoStack) push(f undoFrame) {
	s.frames = append(s.frames, f)
}

func (s *undoStack) pop() (undoFrame, bool) {
	n := len(s.frames)
	if n == 0 {
		return undoFrame{}, false
	}
	f := s.frames[n-1]
	s.frames = s.frames[:n-1]
	return f, true
}

func (s *undoStack) top() *undoFrame {
	if len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

func (s *undoStack) clear() {
	s.frames = nil
}

// Len returns the number of frames
func (s *undoStack) Len() int {
	return len(s.frames)
}

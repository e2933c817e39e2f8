package gesture

// DefaultWindow is the number of recent labels the smoother votes over.
const DefaultWindow = 7

// Smoother suppresses one-frame flicker in the label stream with a majority vote
// over the last W classifications.
//
// Every pushed label occupies a slot, None included, so empty frames push real
// labels out of the window, but None never wins the vote. Among labels tied on the
// highest count, the one whose first occurrence in the window is oldest wins.
//
// A Smoother belongs to one session and is not safe for concurrent use.
type Smoother struct {
	buf   []Label
	start int
	size  int
}

// NewSmoother creates a Smoother with the given window size.
// Sizes less than or equal to 0 fall back to DefaultWindow.
func NewSmoother(window int) *Smoother {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Smoother{buf: make([]Label, window)}
}

// Push appends a label, evicting the oldest entry when the window is full, and
// returns the stabilized label.
func (s *Smoother) Push(l Label) Label {
	if s.size < len(s.buf) {
		s.buf[(s.start+s.size)%len(s.buf)] = l
		s.size++
	} else {
		s.buf[s.start] = l
		s.start = (s.start + 1) % len(s.buf)
	}
	return s.Stable()
}

// Stable returns the current vote without modifying the window.
func (s *Smoother) Stable() Label {
	var counts [LabelCount]int
	var order [LabelCount]Label
	seen := 0

	for i := 0; i < s.size; i++ {
		l := s.buf[(s.start+i)%len(s.buf)]
		if l == None || l >= LabelCount {
			continue
		}
		if counts[l] == 0 {
			order[seen] = l
			seen++
		}
		counts[l]++
	}

	best := None
	for _, l := range order[:seen] {
		if best == None || counts[l] > counts[best] {
			best = l
		}
	}
	return best
}

// Window returns the labels currently held, oldest first.
func (s *Smoother) Window() []Label {
	out := make([]Label, s.size)
	for i := range out {
		out[i] = s.buf[(s.start+i)%len(s.buf)]
	}
	return out
}

// Reset empties the window.
func (s *Smoother) Reset() {
	s.start = 0
	s.size = 0
}

// Cap returns the window size.
func (s *Smoother) Cap() int {
	return len(s.buf)
}

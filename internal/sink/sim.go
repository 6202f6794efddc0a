package sink

import "sync"

// SimSink captures everything written to it in memory, standing in for
// the physical codec in tests and the demo binary's headless mode.
type SimSink struct {
	mu      sync.Mutex
	ready   bool
	written []int16
	writes  int
}

// NewSimSink returns a SimSink. readyImmediately controls whether Ready
// reports true from construction or only after SetReady(true). Write
// captures frames either way.
func NewSimSink(readyImmediately bool) *SimSink {
	return &SimSink{ready: readyImmediately}
}

func (s *SimSink) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// SetReady flips the sink's readiness, simulating the outside world
// signaling that the hardware codec has finished initializing.
func (s *SimSink) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

func (s *SimSink) Write(frames []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = append(s.written, frames...)
	s.writes++
	return len(frames), nil
}

// Frames returns a copy of every stereo sample written so far.
func (s *SimSink) Frames() []int16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int16, len(s.written))
	copy(out, s.written)
	return out
}

// WriteCount returns how many times Write has been called.
func (s *SimSink) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

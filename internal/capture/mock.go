package capture

import (
	"sync"

	"github.com/ayusman/mugglewand/internal/pipeline"
)

// MockSource plays back an in-memory slice of samples.
type MockSource struct {
	samples []pipeline.Sample
	index   int
	loop    bool
	closed  bool
	mu      sync.Mutex
}

func NewMockSource(samples []pipeline.Sample, loop bool) *MockSource {
	return &MockSource{
		samples: append([]pipeline.Sample(nil), samples...),
		loop:    loop,
	}
}

func (m *MockSource) Read() (pipeline.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return pipeline.Sample{}, ErrSourceClosed
	}
	if len(m.samples) == 0 {
		return pipeline.Sample{}, ErrNoSample
	}

	if m.index >= len(m.samples) {
		if !m.loop {
			return pipeline.Sample{}, ErrSourceClosed
		}
		m.index = 0
	}

	s := m.samples[m.index]
	m.index++
	return s, nil
}

func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Remaining returns how many samples are left before the end of the
// recording. Looping sources never run out but still report the
// distance to the next wrap.
func (m *MockSource) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.samples) - m.index
}

// SetSamples replaces the sequence and restarts playback.
func (m *MockSource) SetSamples(samples []pipeline.Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append([]pipeline.Sample(nil), samples...)
	m.index = 0
}

// Reset restarts playback from the beginning.
func (m *MockSource) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = 0
}

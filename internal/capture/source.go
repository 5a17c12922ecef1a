// Package capture provides sources of wand samples: recorded sessions,
// in-memory fixtures and live samples pushed from another process.
package capture

import (
	"errors"
	"sync"

	"github.com/ayusman/mugglewand/internal/pipeline"
)

var (
	// ErrSourceClosed is returned once a source is closed or exhausted.
	ErrSourceClosed = errors.New("sample source closed")
	// ErrNoSample is returned by a source that has nothing to play.
	ErrNoSample = errors.New("no samples available")
)

// Source yields one sample per pipeline tick.
type Source interface {
	Read() (pipeline.Sample, error)
	Close() error
}

// DefaultChanBuffer is the ChanSource buffer size when none is given.
const DefaultChanBuffer = 64

// ChanSource is fed by Push and never blocks on Read: when no sample is
// waiting it returns a zero-intensity sample, which the pipeline treats
// as "wand not visible".
type ChanSource struct {
	samples chan pipeline.Sample
	mu      sync.RWMutex
	closed  bool
}

// NewChanSource creates a ChanSource with the given buffer size.
func NewChanSource(buffer int) *ChanSource {
	if buffer <= 0 {
		buffer = DefaultChanBuffer
	}
	return &ChanSource{samples: make(chan pipeline.Sample, buffer)}
}

// Push queues s. It reports false when the source is closed or the
// buffer is full, in which case s is dropped.
func (c *ChanSource) Push(s pipeline.Sample) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.samples <- s:
		return true
	default:
		return false
	}
}

func (c *ChanSource) Read() (pipeline.Sample, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return pipeline.Sample{}, ErrSourceClosed
	}

	select {
	case s := <-c.samples:
		return s, nil
	default:
		return pipeline.Sample{}, nil
	}
}

// Pending returns the number of buffered samples.
func (c *ChanSource) Pending() int {
	return len(c.samples)
}

func (c *ChanSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

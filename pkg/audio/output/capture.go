// ABOUTME: Capture sink implementing Output without a device
// ABOUTME: Records written samples for tests and offline rendering
package output

import (
	"fmt"
	"sync"
)

// Capture is an Output that records everything written to it.
// Writes never block, so callers drive the render loop manually.
type Capture struct {
	mu         sync.Mutex
	samples    []int32
	sampleRate int
	channels   int
	open       bool
	resumed    bool
}

// NewCapture creates a capture sink
func NewCapture() *Capture {
	return &Capture{}
}

// Open records the stream format
func (c *Capture) Open(sampleRate, channels int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sampleRate = sampleRate
	c.channels = channels
	c.open = true
	return nil
}

// Write appends samples to the capture buffer
func (c *Capture) Write(samples []int32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return fmt.Errorf("capture not open")
	}
	c.samples = append(c.samples, samples...)
	return nil
}

// Resume marks the sink as resumed
func (c *Capture) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumed = true
	return nil
}

// Close marks the sink closed
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

// Samples returns a copy of everything written so far
func (c *Capture) Samples() []int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int32, len(c.samples))
	copy(out, c.samples)
	return out
}

// Resumed reports whether Resume was called
func (c *Capture) Resumed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resumed
}

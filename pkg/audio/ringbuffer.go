package audio

import "sync"

// ringCapacitySeconds is the minimum retained window per spec §4.3 ("Fixed
// capacity >= 5 seconds of mono-16k samples").
const ringCapacitySeconds = 5

// RingBuffer is the single-writer, multi-reader mono-16k sample bus (C4).
// The writer (the mixer) never blocks: on overflow the oldest unread
// samples are silently dropped and DroppedCount is incremented. Readers
// address samples by the monotonic sample index, not by ring offset, so a
// slow reader observes ErrSampleIndexExpired rather than silently reading
// garbage once its window has been evicted.
type RingBuffer struct {
	mu       sync.Mutex
	buf      []float32
	cap      int
	writePos uint64 // next sample index to be written (= total samples written)
	dropped  uint64
}

// NewRingBuffer creates a ring buffer sized for at least ringCapacitySeconds
// of audio at sampleRate.
func NewRingBuffer(sampleRate int) *RingBuffer {
	cap := sampleRate * ringCapacitySeconds
	if cap <= 0 {
		cap = 16000 * ringCapacitySeconds
	}
	return &RingBuffer{buf: make([]float32, cap), cap: cap}
}

// Write appends samples, returning the sample index assigned to the first
// written sample. The writer never blocks; the oldest retained samples are
// overwritten once the buffer wraps.
func (r *RingBuffer) Write(samples []float32) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.writePos
	if len(samples) > r.cap {
		// Only the most recent cap samples can ever be retained.
		dropped := len(samples) - r.cap
		samples = samples[dropped:]
		start += uint64(dropped)
		r.writePos += uint64(dropped)
	}

	for _, s := range samples {
		r.buf[r.writePos%uint64(r.cap)] = s
		r.writePos++
	}

	// dropped is the total count of samples ever evicted by capacity, which
	// is just how far writePos has run past cap — this also covers the
	// steady-state case where many small writes each overtake a little more
	// of the unread region, not just a single oversized write.
	if r.writePos > uint64(r.cap) {
		r.dropped = r.writePos - uint64(r.cap)
	}

	return start
}

// Head returns the sample index one past the most recently written sample.
func (r *RingBuffer) Head() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writePos
}

// DroppedCount reports how many samples were discarded because they arrived
// faster than the buffer could retain, for the samples_dropped{count}
// status counter in spec §4.3.
func (r *RingBuffer) DroppedCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// oldestRetained returns the lowest sample index still present in the ring.
func (r *RingBuffer) oldestRetained() uint64 {
	if r.writePos < uint64(r.cap) {
		return 0
	}
	return r.writePos - uint64(r.cap)
}

// Read copies the samples in [start, end) into a new slice. It fails with
// ErrSampleIndexExpired if any part of that range has already been
// overwritten, and returns a short slice if end is ahead of what has been
// written so far (end is clamped to Head()).
func (r *RingBuffer) Read(start, end uint64) ([]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if end > r.writePos {
		end = r.writePos
	}
	if end <= start {
		return nil, nil
	}
	if start < r.oldestRetained() {
		return nil, ErrSampleIndexExpired
	}

	out := make([]float32, end-start)
	for i := range out {
		out[i] = r.buf[(start+uint64(i))%uint64(r.cap)]
	}
	return out, nil
}

// Cursor returns a read cursor starting at the current write head, so a new
// reader only observes samples written after it attaches.
func (r *RingBuffer) Cursor() *Cursor {
	return &Cursor{rb: r, pos: r.Head()}
}

// Cursor is a per-reader position into a RingBuffer. Multiple cursors can
// read concurrently; the buffer itself holds no knowledge of them (spec §9).
type Cursor struct {
	rb  *RingBuffer
	pos uint64
}

// Pos returns the cursor's next unread sample index.
func (c *Cursor) Pos() uint64 { return c.pos }

// Available returns how many unread samples are ready without blocking.
func (c *Cursor) Available() uint64 {
	head := c.rb.Head()
	if head <= c.pos {
		return 0
	}
	return head - c.pos
}

// Drain reads every sample available since the last Drain/Read and advances
// the cursor. Returns ErrSampleIndexExpired (and resyncs to the oldest
// retained index) if the reader fell behind far enough to lose data.
func (c *Cursor) Drain() ([]float32, error) {
	head := c.rb.Head()
	samples, err := c.rb.Read(c.pos, head)
	if err != nil {
		c.pos = c.rb.oldestRetainedSafe()
		return nil, err
	}
	c.pos = head
	return samples, nil
}

// oldestRetainedSafe is the locking wrapper for oldestRetained used from a
// Cursor, which does not hold RingBuffer's mutex.
func (r *RingBuffer) oldestRetainedSafe() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.oldestRetained()
}

// Package ring implements the single-producer/single-consumer byte ring
// that connects a decoder task to the mixer loop. The decoder blocks on
// Write when the ring is full (backpressure); the mixer drains it with a
// non-blocking, bounded TryRead once per tick.
package ring

import "sync"

// Ring is a fixed-capacity SPSC byte buffer. One usable slot is always
// kept empty to disambiguate full from empty, matching the classic
// head/tail ring accounting.
type Ring struct {
	buf        []byte
	size       int
	readIndex  int
	writeIndex int
	cancelled  bool

	mu   sync.Mutex
	cond *sync.Cond
}

// New creates a Ring backed by capacity bytes. One byte is kept empty, so
// Capacity reports capacity-1 usable bytes.
func New(capacity int) *Ring {
	r := &Ring{
		buf:  make([]byte, capacity),
		size: capacity,
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

func (r *Ring) availableWrite() int {
	if r.writeIndex >= r.readIndex {
		return r.size - (r.writeIndex - r.readIndex) - 1
	}
	return r.readIndex - r.writeIndex - 1
}

func (r *Ring) availableRead() int {
	if r.writeIndex >= r.readIndex {
		return r.writeIndex - r.readIndex
	}
	return r.size - r.readIndex + r.writeIndex
}

// Write blocks until all of data has been copied into the ring or the ring
// is Cancel'd, whichever comes first. It returns the number of bytes
// actually written; a short count means Cancel interrupted the wait.
func (r *Ring) Write(data []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	written := 0
	for written < len(data) {
		for r.availableWrite() == 0 && !r.cancelled {
			r.cond.Wait()
		}
		if r.cancelled {
			return written
		}

		avail := r.availableWrite()
		remaining := data[written:]
		if len(remaining) > avail {
			remaining = remaining[:avail]
		}

		var n int
		if r.writeIndex >= r.readIndex {
			n = copy(r.buf[r.writeIndex:], remaining)
			r.writeIndex = (r.writeIndex + n) % r.size
		} else {
			n = copy(r.buf[r.writeIndex:r.readIndex-1], remaining)
			r.writeIndex += n
		}
		written += n
		r.cond.Broadcast()
	}
	return written
}

// TryRead performs a non-blocking read of up to n bytes. It returns nil if
// no bytes are currently available.
func (r *Ring) TryRead(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	avail := r.availableRead()
	if avail == 0 {
		return nil
	}
	if avail > n {
		avail = n
	}

	data := make([]byte, avail)
	if r.readIndex+avail <= r.size {
		copy(data, r.buf[r.readIndex:r.readIndex+avail])
	} else {
		part1 := r.size - r.readIndex
		copy(data, r.buf[r.readIndex:])
		copy(data[part1:], r.buf[:avail-part1])
	}
	r.readIndex = (r.readIndex + avail) % r.size
	r.cond.Broadcast()
	return data
}

// Cancel wakes any writer currently blocked in Write and makes future Write
// calls return immediately with a short count, until Reset.
func (r *Ring) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = true
	r.cond.Broadcast()
}

// Reset clears the ring and un-cancels it, for reuse by a new decoder once
// the previous one is confirmed to have exited.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readIndex = 0
	r.writeIndex = 0
	r.cancelled = false
}

// Capacity returns the ring's usable byte capacity.
func (r *Ring) Capacity() int {
	return r.size - 1
}

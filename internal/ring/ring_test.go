package ring

import (
	"bytes"
	"sync"
	"testing"
	"time"
)

func TestRing_ConcurrentReadWrite(t *testing.T) {
	const total = 200_000
	const capacity = 8192
	const writeChunk = 256
	const readChunk = 192 // deliberately unaligned with writeChunk

	r := New(capacity)

	source := make([]byte, total)
	for i := range source {
		source[i] = byte(i)
	}

	dest := make([]byte, 0, total)
	var destMu sync.Mutex

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for written := 0; written < total; {
			end := written + writeChunk
			if end > total {
				end = total
			}
			n := r.Write(source[written:end])
			written += n
		}
	}()

	go func() {
		defer wg.Done()
		for read := 0; read < total; {
			chunk := r.TryRead(readChunk)
			if chunk == nil {
				time.Sleep(time.Microsecond)
				continue
			}
			destMu.Lock()
			dest = append(dest, chunk...)
			destMu.Unlock()
			read += len(chunk)
		}
	}()

	wg.Wait()

	if len(dest) != total {
		t.Fatalf("data loss: expected %d bytes, got %d", total, len(dest))
	}
	if !bytes.Equal(source, dest) {
		t.Fatal("data corruption across ring transfer")
	}
}

func TestRing_CancelUnblocksWriter(t *testing.T) {
	r := New(16)
	// Fill the ring so the writer must block.
	r.Write(make([]byte, r.Capacity()))

	done := make(chan int, 1)
	go func() {
		n := r.Write(make([]byte, 100))
		done <- n
	}()

	time.Sleep(10 * time.Millisecond)
	r.Cancel()

	select {
	case n := <-done:
		if n != 0 {
			t.Errorf("Write after Cancel returned %d, want 0 (nothing more fit before cancellation)", n)
		}
	case <-time.After(time.Second):
		t.Fatal("Write did not unblock after Cancel")
	}
}

func TestRing_TryReadNonBlockingWhenEmpty(t *testing.T) {
	r := New(16)
	if got := r.TryRead(4); got != nil {
		t.Errorf("TryRead on empty ring = %v, want nil", got)
	}
}

func TestRing_ResetAllowsReuse(t *testing.T) {
	r := New(16)
	r.Write([]byte{1, 2, 3})
	r.Cancel()
	r.Reset()

	n := r.Write([]byte{4, 5, 6})
	if n != 3 {
		t.Fatalf("Write after Reset wrote %d bytes, want 3", n)
	}
	got := r.TryRead(3)
	if !bytes.Equal(got, []byte{4, 5, 6}) {
		t.Errorf("TryRead after Reset = %v, want [4 5 6]", got)
	}
}

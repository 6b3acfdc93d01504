package audio

import (
	"fmt"
	"sync"
	"time"
)

// ringBuffer is the frame queue between the renderer and a device callback.
// The renderer writes through Acquire/Release; the device drains it with
// Read, which also signals the wake event.
type ringBuffer struct {
	mu       sync.Mutex
	data     []byte
	stride   int
	capacity int // frames
	readPos  int // byte offset of the oldest queued frame
	queued   int // frames
	acquired int // frames handed out by Acquire
	staging  []byte
	wake     chan struct{}
}

func newRingBuffer(capacityFrames, stride int) *ringBuffer {
	return &ringBuffer{
		data:     make([]byte, capacityFrames*stride),
		stride:   stride,
		capacity: capacityFrames,
		staging:  make([]byte, capacityFrames*stride),
		wake:     make(chan struct{}, 1),
	}
}

// Capacity returns the ring size in frames
func (r *ringBuffer) Capacity() int {
	return r.capacity
}

// Padding returns the queued frame count
func (r *ringBuffer) Padding() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queued
}

// Acquire hands out a staging region for frames frames
func (r *ringBuffer) Acquire(frames int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if frames < 0 || frames > r.capacity-r.queued {
		return nil, fmt.Errorf("%w: %d frames requested, %d free", ErrBufferOverrun, frames, r.capacity-r.queued)
	}
	if r.acquired != 0 {
		return nil, fmt.Errorf("acquire while %d frames are outstanding", r.acquired)
	}
	r.acquired = frames
	return r.staging[:frames*r.stride], nil
}

// Release copies the first frames staged frames into the ring
func (r *ringBuffer) Release(frames int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if frames < 0 || frames > r.acquired {
		return fmt.Errorf("release of %d frames exceeds %d acquired", frames, r.acquired)
	}

	size := len(r.data)
	writePos := (r.readPos + r.queued*r.stride) % size
	src := r.staging[:frames*r.stride]
	n := copy(r.data[writePos:], src)
	copy(r.data, src[n:])

	r.queued += frames
	r.acquired = 0
	return nil
}

// Read drains up to len(p) bytes of whole frames into p and returns the
// byte count. Every call signals the wake event.
func (r *ringBuffer) Read(p []byte) int {
	r.mu.Lock()
	frames := min(len(p)/r.stride, r.queued)
	want := frames * r.stride
	n := copy(p[:want], r.data[r.readPos:])
	copy(p[n:want], r.data)
	r.readPos = (r.readPos + want) % len(r.data)
	r.queued -= frames
	r.mu.Unlock()

	r.signal()
	return want
}

func (r *ringBuffer) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until the consumer signals or timeout elapses
func (r *ringBuffer) Wait(timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-r.wake:
		return nil
	case <-timer.C:
		return ErrWaitTimeout
	}
}

package kms

import (
	"github.com/zhangyaninga/kwin-drm/output"
)

// Buffer is scanout memory handed to the kernel.
type Buffer interface {
	FbID() uint32
	Handle() uint32
	Stride() uint32
	Size() output.Size
	// Release frees the buffer. It is called once the kernel no longer
	// scans it out.
	Release()
}

func needsModeChange(current, next Buffer) bool {
	return current.Size() != next.Size() || current.Stride() != next.Stride()
}

// bufferSlots holds what a CRTC or plane displays and what it will display
// after the pending flip. A buffer is never in both slots.
type bufferSlots struct {
	current, next Buffer
}

func (s *bufferSlots) Current() Buffer {
	return s.current
}

func (s *bufferSlots) Next() Buffer {
	return s.next
}

func (s *bufferSlots) setNext(b Buffer) error {
	if b != nil && b == s.current {
		return ErrBufferInUse
	}
	s.next = b
	return nil
}

func (s *bufferSlots) setCurrent(b Buffer) {
	s.current = b
}

// holds reports whether the kernel may still read b.
func (s *bufferSlots) holds(b Buffer) bool {
	return b != nil && (b == s.current || b == s.next)
}

// flip completes the pending flip: next becomes current and, with release,
// the previous current buffer is freed.
func (s *bufferSlots) flip(release bool) {
	if release && s.current != nil && s.current != s.next {
		s.current.Release()
	}
	s.current = s.next
	s.next = nil
}

func (s *bufferSlots) clear(release bool) {
	if release {
		if s.next != nil && s.next != s.current {
			s.next.Release()
		}
		if s.current != nil {
			s.current.Release()
		}
	}
	s.current, s.next = nil, nil
}

// dropNext forgets the queued buffer of a failed commit.
func (s *bufferSlots) dropNext(release bool) {
	if release && s.next != nil {
		s.next.Release()
	}
	s.next = nil
}

// retained is a buffer owned elsewhere; flips never free it.
type retained struct {
	Buffer
}

func (retained) Release() {}

package mode

import (
	"encoding/binary"
	"os"

	"golang.org/x/xerrors"
)

// Event types read from the card, see DRM_EVENT_*.
const (
	EventVBlank       = 0x01
	EventFlipComplete = 0x02
	EventCrtcSequence = 0x03
)

const (
	eventHeaderLen = 8
	vblankEventLen = 32
)

// Event is a decoded struct drm_event_vblank. UserData is the value passed
// to PageFlip or AtomicCommit.
type Event struct {
	Type     uint32
	UserData uint64
	Sec      uint32
	Usec     uint32
	Sequence uint32
	CrtcID   uint32
}

// ParseEvents decodes the events of one read from the card. Unknown event
// types are skipped, a truncated trailing event is dropped.
func ParseEvents(buf []byte) []Event {
	var events []Event
	for len(buf) >= eventHeaderLen {
		typ := binary.NativeEndian.Uint32(buf[0:])
		length := int(binary.NativeEndian.Uint32(buf[4:]))
		if length < eventHeaderLen || length > len(buf) {
			break
		}
		if (typ == EventVBlank || typ == EventFlipComplete) && length >= vblankEventLen {
			events = append(events, Event{
				Type:     typ,
				UserData: binary.NativeEndian.Uint64(buf[8:]),
				Sec:      binary.NativeEndian.Uint32(buf[16:]),
				Usec:     binary.NativeEndian.Uint32(buf[20:]),
				Sequence: binary.NativeEndian.Uint32(buf[24:]),
				CrtcID:   binary.NativeEndian.Uint32(buf[28:]),
			})
		}
		buf = buf[length:]
	}
	return events
}

// ReadEvents blocks until the kernel has events queued on the card.
func ReadEvents(file *os.File) ([]Event, error) {
	buf := make([]byte, 1024)
	n, err := file.Read(buf)
	if err != nil {
		return nil, xerrors.Errorf("failed to read drm events: %w", err)
	}
	return ParseEvents(buf[:n]), nil
}

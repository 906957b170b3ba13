package drm

import (
	"os"
	"unsafe"

	"golang.org/x/xerrors"

	"github.com/zhangyaninga/kwin-drm/ioctl"
)

type (
	capability struct {
		cap uint64
		val uint64
	}
)

const (
	CapDumbBuffer = iota + 1
	CapVBlankHighCRTC
	CapDumbPreferredDepth
	CapDumbPreferShadow
	CapPrime
	CapTimestampMonotonic
	CapAsyncPageFlip
	CapCursorWidth
	CapCursorHeight

	CapAddFB2Modifiers = 0x10
	CapPageFlipTarget  = 0x11
	CapCrtcInVBlank    = 0x12
)

// Client capabilities, see DRM_CLIENT_CAP_*.
const (
	ClientCapStereo3D = iota + 1
	ClientCapUniversalPlanes
	ClientCapAtomic
)

func HasDumbBuffer(file *os.File) bool {
	val, err := GetCap(file, CapDumbBuffer)
	if err != nil {
		return false
	}
	return val != 0
}

// GetCap queries a driver capability.
func GetCap(file *os.File, capID uint64) (uint64, error) {
	c := &capability{cap: capID}
	err := ioctl.Do(file.Fd(), uintptr(IOCTLGetCap), uintptr(unsafe.Pointer(c)))
	if err != nil {
		return 0, xerrors.Errorf("failed to get cap %d: %w", capID, err)
	}
	return c.val, nil
}

// SetClientCap asks the kernel to expose a feature to this client, e.g.
// universal planes or the atomic mode-setting interface.
func SetClientCap(file *os.File, capID, value uint64) error {
	c := &capability{cap: capID, val: value}
	err := ioctl.Do(file.Fd(), uintptr(IOCTLSetClientCap), uintptr(unsafe.Pointer(c)))
	if err != nil {
		return xerrors.Errorf("failed to set client cap %d: %w", capID, err)
	}
	return nil
}

// CursorSize returns the largest cursor the hardware scans out, falling back
// to 64x64 when the driver does not report it.
func CursorSize(file *os.File) (width, height uint64) {
	width, height = 64, 64
	if w, err := GetCap(file, CapCursorWidth); err == nil && w > 0 {
		width = w
	}
	if h, err := GetCap(file, CapCursorHeight); err == nil && h > 0 {
		height = h
	}
	return
}

package mode

import (
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/xerrors"

	"github.com/zhangyaninga/kwin-drm"
	"github.com/zhangyaninga/kwin-drm/ioctl"
)

// Cursor ioctl flags, see DRM_MODE_CURSOR_*.
const (
	CursorBO   = 0x01
	CursorMove = 0x02
)

type (
	sysPageFlip struct {
		crtcID   uint32
		fbID     uint32
		flags    uint32
		reserved uint32
		userData uint64
	}

	sysCursor struct {
		flags  uint32
		crtcID uint32
		x, y   int32
		width  uint32
		height uint32
		handle uint32
	}

	sysCrtcLut struct {
		crtcID    uint32
		gammaSize uint32

		red   uintptr
		green uintptr
		blue  uintptr
	}
)

var (
	// DRM_IOWR(0xA3, struct drm_mode_cursor)
	IOCTLModeCursor = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysCursor{})), drm.IOCTLBase, 0xA3)

	// DRM_IOWR(0xA4, struct drm_mode_crtc_lut)
	IOCTLModeGetGamma = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysCrtcLut{})), drm.IOCTLBase, 0xA4)

	// DRM_IOWR(0xA5, struct drm_mode_crtc_lut)
	IOCTLModeSetGamma = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysCrtcLut{})), drm.IOCTLBase, 0xA5)

	// DRM_IOWR(0xB0, struct drm_mode_crtc_page_flip)
	IOCTLModePageFlip = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysPageFlip{})), drm.IOCTLBase, 0xB0)
)

// PageFlip schedules bufferid for scanout on the next vblank.
func PageFlip(file *os.File, crtcid, bufferid, flags uint32, userData uint64) error {
	req := &sysPageFlip{crtcID: crtcid, fbID: bufferid, flags: flags, userData: userData}
	err := ioctl.DoPtr(file.Fd(), IOCTLModePageFlip, req)
	if err != nil {
		return xerrors.Errorf("DRM_IOCTL_MODE_PAGE_FLIP crtc %d: %w", crtcid, err)
	}
	return nil
}

// SetCursor shows the buffer object as cursor image, a zero handle hides
// the cursor.
func SetCursor(file *os.File, crtcid, handle, width, height uint32) error {
	req := &sysCursor{
		flags:  CursorBO,
		crtcID: crtcid,
		width:  width,
		height: height,
		handle: handle,
	}
	err := ioctl.DoPtr(file.Fd(), IOCTLModeCursor, req)
	if err != nil {
		return xerrors.Errorf("DRM_IOCTL_MODE_CURSOR crtc %d: %w", crtcid, err)
	}
	return nil
}

func MoveCursor(file *os.File, crtcid uint32, x, y int32) error {
	req := &sysCursor{flags: CursorMove, crtcID: crtcid, x: x, y: y}
	err := ioctl.DoPtr(file.Fd(), IOCTLModeCursor, req)
	if err != nil {
		return xerrors.Errorf("DRM_IOCTL_MODE_CURSOR move crtc %d: %w", crtcid, err)
	}
	return nil
}

// GetGamma reads the legacy gamma lookup table of the CRTC.
func GetGamma(file *os.File, crtcid uint32, size int) (red, green, blue []uint16, err error) {
	if size <= 0 {
		return nil, nil, nil, xerrors.Errorf("crtc %d has no gamma table", crtcid)
	}
	red = make([]uint16, size)
	green = make([]uint16, size)
	blue = make([]uint16, size)
	req := &sysCrtcLut{
		crtcID:    crtcid,
		gammaSize: uint32(size),
		red:       uintptr(unsafe.Pointer(&red[0])),
		green:     uintptr(unsafe.Pointer(&green[0])),
		blue:      uintptr(unsafe.Pointer(&blue[0])),
	}
	err = ioctl.DoPtr(file.Fd(), IOCTLModeGetGamma, req)
	runtime.KeepAlive(red)
	runtime.KeepAlive(green)
	runtime.KeepAlive(blue)
	if err != nil {
		return nil, nil, nil, xerrors.Errorf("DRM_IOCTL_MODE_GETGAMMA crtc %d: %w", crtcid, err)
	}
	return red, green, blue, nil
}

func SetGamma(file *os.File, crtcid uint32, red, green, blue []uint16) error {
	if len(red) == 0 || len(red) != len(green) || len(red) != len(blue) {
		return xerrors.Errorf("gamma ramp sizes differ: %d/%d/%d", len(red), len(green), len(blue))
	}
	req := &sysCrtcLut{
		crtcID:    crtcid,
		gammaSize: uint32(len(red)),
		red:       uintptr(unsafe.Pointer(&red[0])),
		green:     uintptr(unsafe.Pointer(&green[0])),
		blue:      uintptr(unsafe.Pointer(&blue[0])),
	}
	err := ioctl.DoPtr(file.Fd(), IOCTLModeSetGamma, req)
	runtime.KeepAlive(red)
	runtime.KeepAlive(green)
	runtime.KeepAlive(blue)
	if err != nil {
		return xerrors.Errorf("DRM_IOCTL_MODE_SETGAMMA crtc %d: %w", crtcid, err)
	}
	return nil
}

package mode

import (
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/xerrors"

	"github.com/zhangyaninga/kwin-drm"
	"github.com/zhangyaninga/kwin-drm/ioctl"
)

// Values of the plane "type" property.
const (
	PlaneOverlay = 0
	PlanePrimary = 1
	PlaneCursor  = 2
)

type (
	sysGetPlaneRes struct {
		planeIDPtr  uintptr
		countPlanes uint32
		pad         uint32
	}

	sysGetPlane struct {
		planeID uint32

		crtcID uint32
		fbID   uint32

		possibleCrtcs uint32
		gammaSize     uint32

		countFormatTypes uint32
		formatTypePtr    uintptr
	}

	Plane struct {
		ID            uint32
		CrtcID        uint32
		FbID          uint32
		PossibleCrtcs uint32
		GammaSize     uint32
		Formats       []uint32
	}
)

var (
	// DRM_IOWR(0xB5, struct drm_mode_get_plane_res)
	IOCTLModeGetPlaneResources = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysGetPlaneRes{})), drm.IOCTLBase, 0xB5)

	// DRM_IOWR(0xB6, struct drm_mode_get_plane)
	IOCTLModeGetPlane = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysGetPlane{})), drm.IOCTLBase, 0xB6)
)

// GetPlaneResources lists the plane ids. Primary and cursor planes are
// only included once the universal planes client cap is set.
func GetPlaneResources(file *os.File) ([]uint32, error) {
	res := &sysGetPlaneRes{}
	err := ioctl.DoPtr(file.Fd(), IOCTLModeGetPlaneResources, res)
	if err != nil {
		return nil, xerrors.Errorf("DRM_IOCTL_MODE_GETPLANERESOURCES: %w", err)
	}
	if res.countPlanes == 0 {
		return nil, nil
	}
	ids := make([]uint32, res.countPlanes)
	res.planeIDPtr = uintptr(unsafe.Pointer(&ids[0]))
	err = ioctl.DoPtr(file.Fd(), IOCTLModeGetPlaneResources, res)
	runtime.KeepAlive(ids)
	if err != nil {
		return nil, xerrors.Errorf("DRM_IOCTL_MODE_GETPLANERESOURCES: %w", err)
	}
	return ids[:min(len(ids), int(res.countPlanes))], nil
}

func GetPlane(file *os.File, id uint32) (*Plane, error) {
	p := &sysGetPlane{planeID: id}
	err := ioctl.DoPtr(file.Fd(), IOCTLModeGetPlane, p)
	if err != nil {
		return nil, xerrors.Errorf("DRM_IOCTL_MODE_GETPLANE %d: %w", id, err)
	}
	var formats []uint32
	if p.countFormatTypes > 0 {
		formats = make([]uint32, p.countFormatTypes)
		p.formatTypePtr = uintptr(unsafe.Pointer(&formats[0]))
		err = ioctl.DoPtr(file.Fd(), IOCTLModeGetPlane, p)
		runtime.KeepAlive(formats)
		if err != nil {
			return nil, xerrors.Errorf("DRM_IOCTL_MODE_GETPLANE %d: %w", id, err)
		}
	}
	return &Plane{
		ID:            p.planeID,
		CrtcID:        p.crtcID,
		FbID:          p.fbID,
		PossibleCrtcs: p.possibleCrtcs,
		GammaSize:     p.gammaSize,
		Formats:       formats[:min(len(formats), int(p.countFormatTypes))],
	}, nil
}

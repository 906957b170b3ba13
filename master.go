package drm

import (
	"os"

	"golang.org/x/xerrors"

	"github.com/zhangyaninga/kwin-drm/ioctl"
)

// SetMaster makes this file the DRM master of its card. Only the master may
// change modes.
func SetMaster(file *os.File) error {
	err := ioctl.Do(file.Fd(), uintptr(IOCTLSetMaster), 0)
	if err != nil {
		return xerrors.Errorf("DRM_IOCTL_SET_MASTER: %w", err)
	}
	return nil
}

func DropMaster(file *os.File) error {
	err := ioctl.Do(file.Fd(), uintptr(IOCTLDropMaster), 0)
	if err != nil {
		return xerrors.Errorf("DRM_IOCTL_DROP_MASTER: %w", err)
	}
	return nil
}

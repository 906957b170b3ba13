package drm

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unsafe"

	"golang.org/x/xerrors"

	"github.com/zhangyaninga/kwin-drm/ioctl"
)

type (
	version struct {
		Major   int32
		Minor   int32
		Patch   int32
		namelen int64
		name    uintptr
		datelen int64
		date    uintptr
		desclen int64
		desc    uintptr
	}

	// Version of DRM driver
	Version struct {
		Major, Minor, Patch int32
		Name                string // Name of the driver (eg.: i915)
		Date                string
		Desc                string
	}
)

const (
	driPath = "/dev/dri"
)

func Available() (Version, error) {
	f, err := OpenCard(0)
	if err != nil {
		return Version{}, err
	}
	defer f.Close()
	return GetVersion(f)
}

func OpenCard(n int) (*os.File, error) {
	return Open(fmt.Sprintf("%s/card%d", driPath, n))
}

func OpenRenderDev(n int) (*os.File, error) {
	return Open(fmt.Sprintf("%s/renderD%d", driPath, n))
}

// Open opens a DRM device node read-write and close-on-exec.
func Open(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, xerrors.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// Cards lists the primary device nodes (/dev/dri/cardN) in name order.
func Cards() ([]string, error) {
	cards, err := filepath.Glob(filepath.Join(driPath, "card[0-9]*"))
	if err != nil {
		return nil, err
	}
	sort.Strings(cards)
	return cards, nil
}

func GetVersion(file *os.File) (Version, error) {
	var (
		name, date, desc []byte
	)

	version := &version{}
	err := ioctl.Do(file.Fd(), uintptr(IOCTLVersion),
		uintptr(unsafe.Pointer(version)))
	if err != nil {
		return Version{}, xerrors.Errorf("DRM_IOCTL_VERSION: %w", err)
	}

	if version.namelen > 0 {
		name = make([]byte, version.namelen+1)
		version.name = uintptr(unsafe.Pointer(&name[0]))
	}
	if version.datelen > 0 {
		date = make([]byte, version.datelen+1)
		version.date = uintptr(unsafe.Pointer(&date[0]))
	}
	if version.desclen > 0 {
		desc = make([]byte, version.desclen+1)
		version.desc = uintptr(unsafe.Pointer(&desc[0]))
	}

	err = ioctl.Do(file.Fd(), uintptr(IOCTLVersion),
		uintptr(unsafe.Pointer(version)))
	if err != nil {
		return Version{}, xerrors.Errorf("DRM_IOCTL_VERSION: %w", err)
	}

	return Version{
		Major: version.Major,
		Minor: version.Minor,
		Patch: version.Patch,
		Name:  cstring(name, version.namelen),
		Date:  cstring(date, version.datelen),
		Desc:  cstring(desc, version.desclen),
	}, nil
}

// remove C null bytes
func cstring(b []byte, n int64) string {
	if int64(len(b)) > n {
		b = b[:n]
	}
	return string(bytes.TrimRight(b, "\x00"))
}

package mode

import (
	"os"

	"golang.org/x/xerrors"
	"launchpad.net/gommap"

	"github.com/zhangyaninga/kwin-drm"
)

// Card bundles the mode-setting calls of one opened device node.
type Card struct {
	file *os.File
}

// OpenCard opens the device, becomes DRM master and enables universal
// planes. atomic additionally asks for the atomic interface; the returned
// flag reports whether the kernel granted it.
func OpenCard(path string, atomic bool) (*Card, bool, error) {
	file, err := drm.Open(path)
	if err != nil {
		return nil, false, err
	}
	if err := drm.SetMaster(file); err != nil {
		// a logind managed session may already have made us master
		logger.Debug("set master:", err)
	}
	if err := drm.SetClientCap(file, drm.ClientCapUniversalPlanes, 1); err != nil {
		file.Close()
		return nil, false, err
	}
	if atomic {
		if err := drm.SetClientCap(file, drm.ClientCapAtomic, 1); err != nil {
			logger.Warning("atomic mode setting unavailable:", err)
			atomic = false
		}
	}
	return &Card{file: file}, atomic, nil
}

func NewCard(file *os.File) *Card {
	return &Card{file: file}
}

func (c *Card) File() *os.File {
	return c.file
}

func (c *Card) Close() error {
	return c.file.Close()
}

func (c *Card) Resources() (*Resources, error) {
	return GetResources(c.file)
}

func (c *Card) PlaneResources() ([]uint32, error) {
	return GetPlaneResources(c.file)
}

func (c *Card) Connector(id uint32) (*Connector, error) {
	return GetConnector(c.file, id)
}

func (c *Card) Encoder(id uint32) (*Encoder, error) {
	return GetEncoder(c.file, id)
}

func (c *Card) Crtc(id uint32) (*Crtc, error) {
	return GetCrtc(c.file, id)
}

func (c *Card) Plane(id uint32) (*Plane, error) {
	return GetPlane(c.file, id)
}

func (c *Card) Property(id uint32) (*Property, error) {
	return GetProperty(c.file, id)
}

func (c *Card) PropertyBlob(id uint32) ([]byte, error) {
	return GetPropertyBlob(c.file, id)
}

func (c *Card) ObjectProperties(objID, objType uint32) ([]uint32, []uint64, error) {
	return ObjectProperties(c.file, objID, objType)
}

func (c *Card) ConnectorSetProperty(connID, propID uint32, value uint64) error {
	return ConnectorSetProperty(c.file, connID, propID, value)
}

func (c *Card) ObjectSetProperty(objID, objType, propID uint32, value uint64) error {
	return ObjectSetProperty(c.file, objID, objType, propID, value)
}

func (c *Card) CreatePropertyBlob(data []byte) (uint32, error) {
	return CreatePropertyBlob(c.file, data)
}

func (c *Card) DestroyPropertyBlob(id uint32) error {
	return DestroyPropertyBlob(c.file, id)
}

func (c *Card) AtomicCommit(req *AtomicReq, flags uint32, userData uint64) error {
	return AtomicCommit(c.file, req, flags, userData)
}

func (c *Card) SetCrtc(crtcID, fbID, x, y uint32, connectors []uint32, mode *Info) error {
	return SetCrtc(c.file, crtcID, fbID, x, y, connectors, mode)
}

func (c *Card) PageFlip(crtcID, fbID, flags uint32, userData uint64) error {
	return PageFlip(c.file, crtcID, fbID, flags, userData)
}

func (c *Card) SetCursor(crtcID, handle, width, height uint32) error {
	return SetCursor(c.file, crtcID, handle, width, height)
}

func (c *Card) MoveCursor(crtcID uint32, x, y int32) error {
	return MoveCursor(c.file, crtcID, x, y)
}

func (c *Card) SetGamma(crtcID uint32, red, green, blue []uint16) error {
	return SetGamma(c.file, crtcID, red, green, blue)
}

func (c *Card) CreateDumb(width, height uint16, bpp uint32) (*FB, error) {
	return CreateFB(c.file, width, height, bpp)
}

func (c *Card) AddFB(width, height uint16, depth, bpp uint8, pitch, handle uint32) (uint32, error) {
	return AddFB(c.file, width, height, depth, bpp, pitch, handle)
}

func (c *Card) RmFB(fbID uint32) error {
	return RmFB(c.file, fbID)
}

func (c *Card) DestroyDumb(handle uint32) error {
	return DestroyDumb(c.file, handle)
}

// MapDumb maps the dumb buffer into memory.
func (c *Card) MapDumb(handle uint32, size uint64) ([]byte, error) {
	offset, err := MapDumb(c.file, handle)
	if err != nil {
		return nil, err
	}
	mmap, err := gommap.MapAt(0, c.file.Fd(), int64(offset), int64(size),
		gommap.PROT_READ|gommap.PROT_WRITE, gommap.MAP_SHARED)
	if err != nil {
		return nil, xerrors.Errorf("failed to mmap dumb buffer %d: %w", handle, err)
	}
	return mmap, nil
}

func (c *Card) Unmap(data []byte) error {
	return gommap.MMap(data).UnsafeUnmap()
}

func (c *Card) ReadEvents() ([]Event, error) {
	return ReadEvents(c.file)
}

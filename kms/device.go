// Package kms drives display outputs through the kernel mode-setting
// interface: it tracks connectors, CRTCs and planes, negotiates modes,
// commits configurations atomically or through the legacy calls, and
// schedules page flips.
package kms

import (
	"github.com/linuxdeepin/go-lib/log"
	"golang.org/x/xerrors"

	"github.com/zhangyaninga/kwin-drm/mode"
)

var logger = log.NewLogger("kwin/drm/kms")

var (
	ErrClaimed        = xerrors.New("resource already claimed")
	ErrNoCrtc         = xerrors.New("no free crtc")
	ErrNoPrimaryPlane = xerrors.New("no free primary plane")
	ErrBufferInUse    = xerrors.New("buffer is already current")
)

// Device is the kernel surface the engine drives. *mode.Card implements it.
type Device interface {
	Resources() (*mode.Resources, error)
	PlaneResources() ([]uint32, error)
	Connector(id uint32) (*mode.Connector, error)
	Encoder(id uint32) (*mode.Encoder, error)
	Crtc(id uint32) (*mode.Crtc, error)
	Plane(id uint32) (*mode.Plane, error)
	Property(id uint32) (*mode.Property, error)
	PropertyBlob(id uint32) ([]byte, error)
	ObjectProperties(objID, objType uint32) ([]uint32, []uint64, error)
	ConnectorSetProperty(connID, propID uint32, value uint64) error
	ObjectSetProperty(objID, objType, propID uint32, value uint64) error
	CreatePropertyBlob(data []byte) (uint32, error)
	DestroyPropertyBlob(id uint32) error

	AtomicCommit(req *mode.AtomicReq, flags uint32, userData uint64) error
	SetCrtc(crtcID, fbID, x, y uint32, connectors []uint32, m *mode.Info) error
	PageFlip(crtcID, fbID, flags uint32, userData uint64) error
	SetCursor(crtcID, handle, width, height uint32) error
	MoveCursor(crtcID uint32, x, y int32) error
	SetGamma(crtcID uint32, red, green, blue []uint16) error

	CreateDumb(width, height uint16, bpp uint32) (*mode.FB, error)
	AddFB(width, height uint16, depth, bpp uint8, pitch, handle uint32) (uint32, error)
	RmFB(fbID uint32) error
	DestroyDumb(handle uint32) error
	MapDumb(handle uint32, size uint64) ([]byte, error)
	Unmap(data []byte) error

	ReadEvents() ([]mode.Event, error)
}

var _ Device = (*mode.Card)(nil)

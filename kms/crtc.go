package kms

import (
	"golang.org/x/xerrors"

	"github.com/zhangyaninga/kwin-drm/mode"
)

const (
	crtcModeID = iota
	crtcActive
)

var crtcPropNames = []string{"MODE_ID", "ACTIVE"}

// Crtc is a scanout engine. Outside of atomic mode it also holds the
// buffers being displayed.
type Crtc struct {
	object
	bufferSlots

	resIndex  int
	gammaSize int
	bootMode  *mode.Info // left by firmware or a previous master
}

func newCrtc(dev Device, id uint32, resIndex int) (*Crtc, error) {
	info, err := dev.Crtc(id)
	if err != nil {
		return nil, xerrors.Errorf("crtc %d: %w", id, err)
	}
	c := &Crtc{
		object:    object{dev: dev, id: id, typ: mode.ObjectCrtc},
		resIndex:  resIndex,
		gammaSize: info.GammaSize,
	}
	if info.ModeValid != 0 {
		m := info.Mode
		c.bootMode = &m
	}
	if err := c.initProps(crtcPropNames); err != nil {
		return nil, xerrors.Errorf("crtc %d properties: %w", id, err)
	}
	return c, nil
}

// ResIndex is the position of the CRTC in the resource list, the bit
// used in possible_crtcs masks.
func (c *Crtc) ResIndex() int {
	return c.resIndex
}

func (c *Crtc) GammaRampSize() int {
	return c.gammaSize
}

package kms

import (
	"golang.org/x/xerrors"

	"github.com/zhangyaninga/kwin-drm/mode"
	"github.com/zhangyaninga/kwin-drm/output"
)

const (
	planeType = iota
	planeSrcX
	planeSrcY
	planeSrcW
	planeSrcH
	planeCrtcX
	planeCrtcY
	planeCrtcW
	planeCrtcH
	planeFbID
	planeCrtcID
	planeRotation
)

var planePropNames = []string{
	"type",
	"SRC_X", "SRC_Y", "SRC_W", "SRC_H",
	"CRTC_X", "CRTC_Y", "CRTC_W", "CRTC_H",
	"FB_ID", "CRTC_ID", "rotation",
}

// Transformations is the plane "rotation" bitmask.
type Transformations uint32

const (
	Rotate0 Transformations = 1 << iota
	Rotate90
	Rotate180
	Rotate270
	ReflectX
	ReflectY
)

var transformationNames = map[string]Transformations{
	"rotate-0":   Rotate0,
	"rotate-90":  Rotate90,
	"rotate-180": Rotate180,
	"rotate-270": Rotate270,
	"reflect-x":  ReflectX,
	"reflect-y":  ReflectY,
}

// planeTransformation drops the flip: planes are never mirrored.
func planeTransformation(t output.Transform) Transformations {
	switch t.Unflipped() {
	case output.Rotated90:
		return Rotate90
	case output.Rotated180:
		return Rotate180
	case output.Rotated270:
		return Rotate270
	}
	return Rotate0
}

type Plane struct {
	object
	bufferSlots

	typ           int
	possibleCrtcs uint32
	formats       []uint32
	supported     Transformations
}

func newPlane(dev Device, id uint32) (*Plane, error) {
	info, err := dev.Plane(id)
	if err != nil {
		return nil, xerrors.Errorf("plane %d: %w", id, err)
	}
	p := &Plane{
		object:        object{dev: dev, id: id, typ: mode.ObjectPlane},
		possibleCrtcs: info.PossibleCrtcs,
		formats:       info.Formats,
	}
	if err := p.initProps(planePropNames); err != nil {
		return nil, xerrors.Errorf("plane %d properties: %w", id, err)
	}
	if !p.hasProp(planeType) {
		return nil, xerrors.Errorf("plane %d has no type", id)
	}
	p.typ = int(p.value(planeType))
	if rot := p.prop(planeRotation); rot != nil {
		for _, e := range rot.enums {
			if t, ok := transformationNames[e.Name]; ok {
				p.supported |= t
			}
		}
	}
	return p, nil
}

// Type is one of mode.PlaneOverlay, mode.PlanePrimary or mode.PlaneCursor.
func (p *Plane) Type() int {
	return p.typ
}

func (p *Plane) IsCrtcSupported(resIndex int) bool {
	return p.possibleCrtcs&(1<<uint(resIndex)) != 0
}

func (p *Plane) Formats() []uint32 {
	return p.formats
}

func (p *Plane) SupportedTransformations() Transformations {
	return p.supported
}

func (p *Plane) Transformation() Transformations {
	if !p.hasProp(planeRotation) {
		return Rotate0
	}
	return Transformations(p.value(planeRotation))
}

// SetTransformation stages a rotation for the next atomic commit.
func (p *Plane) SetTransformation(t Transformations) {
	p.setValue(planeRotation, uint64(t))
}

// applyTransformation writes the rotation right away, for legacy mode.
func (p *Plane) applyTransformation(t Transformations) error {
	id := p.propID(planeRotation)
	if id == 0 || p.supported&t == 0 {
		return xerrors.Errorf("plane %d cannot apply rotation %#x", p.id, t)
	}
	if err := p.dev.ObjectSetProperty(p.id, mode.ObjectPlane, id, uint64(t)); err != nil {
		return err
	}
	p.SetTransformation(t)
	p.prop(planeRotation).committed = uint64(t)
	return nil
}

func (p *Plane) setNext(b Buffer) error {
	if err := p.bufferSlots.setNext(b); err != nil {
		return err
	}
	var fb uint32
	if b != nil {
		fb = b.FbID()
	}
	p.setValue(planeFbID, uint64(fb))
	return nil
}

func (p *Plane) dropNext(release bool) {
	p.bufferSlots.dropNext(release)
	if fb := p.prop(planeFbID); fb != nil {
		fb.value = fb.committed
	}
}

package dbusout

import (
	"image"

	"github.com/zhangyaninga/kwin-drm/output"
)

// publisher feeds engine state into an Output. Its methods run on the
// engine loop; they are kept off Output so they are not exported on the
// bus.
type publisher struct {
	o *Output
}

func (p publisher) Init(info output.DeviceInfo) {
	o := p.o
	modes := make([]ModeInfo, 0, len(info.Modes))
	var current ModeInfo
	for _, m := range info.Modes {
		mi := newModeInfo(m)
		modes = append(modes, mi)
		if m.Flags&output.ModeCurrent != 0 {
			current = mi
		}
	}

	o.PropsMu.Lock()
	o.Name = info.Name
	o.Model = info.Model
	o.Manufacturer = info.Manufacturer
	o.Uuid = info.UUID
	o.Edid = info.Edid
	o.MmWidth = uint32(info.PhysicalSize.Width)
	o.MmHeight = uint32(info.PhysicalSize.Height)
	o.Internal = info.Internal
	o.Modes = modes
	o.CurrentMode = current
	o.Enabled = true
	o.PropsMu.Unlock()

	o.export()
	logger.Debugf("published %s at %s", info.Name, o.path)
}

func (p publisher) SetModes(modes []output.Mode) {
	list := make([]ModeInfo, len(modes))
	for i, m := range modes {
		list[i] = newModeInfo(m)
	}
	p.o.PropsMu.Lock()
	p.o.setPropModes(list)
	p.o.PropsMu.Unlock()
}

func (p publisher) SetCurrentMode(size output.Size, refreshRate int) {
	o := p.o
	o.PropsMu.Lock()
	defer o.PropsMu.Unlock()
	for _, m := range o.Modes {
		if int(m.Width) == size.Width && int(m.Height) == size.Height &&
			m.Rate == float64(refreshRate)/1000 {
			o.setPropCurrentMode(m)
			return
		}
	}
	o.setPropCurrentMode(ModeInfo{
		Width:  uint16(size.Width),
		Height: uint16(size.Height),
		Rate:   float64(refreshRate) / 1000,
	})
}

func (p publisher) SetGlobalPosition(pos image.Point) {
	p.o.PropsMu.Lock()
	p.o.setPropX(int32(pos.X))
	p.o.setPropY(int32(pos.Y))
	p.o.PropsMu.Unlock()
}

func (p publisher) SetScale(scale int, exact float64) {
	p.o.PropsMu.Lock()
	p.o.setPropScale(uint32(scale))
	p.o.setPropScaleFactor(exact)
	p.o.PropsMu.Unlock()
}

func (p publisher) SetLogicalSize(size output.Size) {
	p.o.PropsMu.Lock()
	p.o.setPropWidth(uint32(size.Width))
	p.o.setPropHeight(uint32(size.Height))
	p.o.PropsMu.Unlock()
}

func (p publisher) SetTransform(t output.Transform) {
	p.o.PropsMu.Lock()
	p.o.setPropTransform(uint8(t))
	p.o.PropsMu.Unlock()
}

func (p publisher) SetDpmsMode(mode output.DpmsMode) {
	p.o.PropsMu.Lock()
	p.o.setPropDpmsMode(uint8(mode))
	p.o.PropsMu.Unlock()
}

func (p publisher) SetEnabled(enabled bool) {
	p.o.PropsMu.Lock()
	p.o.setPropEnabled(enabled)
	p.o.PropsMu.Unlock()
}

func (p publisher) ModeChanged() {
	p.o.emit("ModeChanged")
}

func (p publisher) Damaged(r image.Rectangle) {
	if r.Empty() {
		return
	}
	p.o.emit("Damaged", int32(r.Min.X), int32(r.Min.Y), int32(r.Dx()), int32(r.Dy()))
}

func (p publisher) Disconnected() {
	o := p.o
	o.emit("Disconnected")
	o.stopExport()
	o.m.remove(o)
	o.mu.Lock()
	o.target = nil
	o.mu.Unlock()
}

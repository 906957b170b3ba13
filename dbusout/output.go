package dbusout

import (
	"errors"
	"image"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/go-lib/dbusutil"

	"github.com/zhangyaninga/kwin-drm/output"
)

const dbusInterfaceOutput = dbusInterface + ".Output"

var (
	errNotBound    = errors.New("output is not ready")
	errBadMode     = errors.New("no such mode")
	errBadRotation = errors.New("invalid transform")
	errBadScale    = errors.New("scale must be positive")
	errBadDpms     = errors.New("invalid dpms mode")
)

type ModeInfo struct {
	Id     uint32
	Width  uint16
	Height uint16
	Rate   float64
	Flags  uint32
}

func newModeInfo(m output.Mode) ModeInfo {
	return ModeInfo{
		Id:     uint32(m.ID),
		Width:  uint16(m.Size.Width),
		Height: uint16(m.Size.Height),
		Rate:   float64(m.RefreshRate) / 1000,
		Flags:  uint32(m.Flags),
	}
}

// Output is the bus object of one connected output.
type Output struct {
	m       *Manager
	service *dbusutil.Service
	path    dbus.ObjectPath

	mu       sync.Mutex
	target   Target
	exported bool

	PropsMu      sync.RWMutex
	Name         string
	Model        string
	Manufacturer string
	Uuid         string
	Edid         []byte
	MmWidth      uint32
	MmHeight     uint32
	Internal     bool
	Modes        []ModeInfo
	CurrentMode  ModeInfo
	X            int32
	Y            int32
	Width        uint32
	Height       uint32
	Scale        uint32
	ScaleFactor  float64
	Transform    uint8
	DpmsMode     uint8
	Enabled      bool

	// nolint
	signals *struct {
		ModeChanged  struct{}
		Damaged      struct {
			x, y, width, height int32
		}
		Disconnected struct{}
	}
}

func (*Output) GetInterfaceName() string {
	return dbusInterfaceOutput
}

func (o *Output) Path() dbus.ObjectPath {
	return o.path
}

func (o *Output) isExported() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.exported
}

func (o *Output) export() {
	o.mu.Lock()
	if o.exported {
		o.mu.Unlock()
		return
	}
	o.exported = true
	o.mu.Unlock()
	if o.service != nil {
		if err := o.service.Export(o.path, o); err != nil {
			logger.Warning(err)
		}
	}
	o.m.updatePropOutputs()
}

func (o *Output) stopExport() {
	o.mu.Lock()
	exported := o.exported
	o.exported = false
	o.mu.Unlock()
	if exported && o.service != nil {
		if err := o.service.StopExport(o); err != nil {
			logger.Warning(err)
		}
	}
}

func (o *Output) emit(signal string, args ...interface{}) {
	if o.m.onEmit != nil {
		o.m.onEmit(o, signal, args)
	}
	if o.service == nil || !o.isExported() {
		return
	}
	if err := o.service.Emit(o, signal, args...); err != nil {
		logger.Warning(err)
	}
}

// request runs fn with the bound target on the engine loop.
func (o *Output) request(fn func(t Target)) *dbus.Error {
	o.mu.Lock()
	t := o.target
	o.mu.Unlock()
	if t == nil {
		return dbusutil.ToError(errNotBound)
	}
	o.m.invoke(func() { fn(t) })
	return nil
}

func (o *Output) SetMode(id uint32) *dbus.Error {
	o.PropsMu.RLock()
	found := false
	for _, m := range o.Modes {
		if m.Id == id {
			found = true
			break
		}
	}
	o.PropsMu.RUnlock()
	if !found {
		return dbusutil.ToError(errBadMode)
	}
	idx := int(id)
	return o.request(func(t Target) {
		t.ApplyChanges(&output.ChangeSet{Mode: &idx})
	})
}

func (o *Output) SetPosition(x, y int32) *dbus.Error {
	pos := image.Pt(int(x), int(y))
	return o.request(func(t Target) {
		t.ApplyChanges(&output.ChangeSet{Position: &pos})
	})
}

// SetRotation takes a wl_output transform, 0 to 7.
func (o *Output) SetRotation(transform uint8) *dbus.Error {
	if transform > uint8(output.Flipped270) {
		return dbusutil.ToError(errBadRotation)
	}
	tr := output.Transform(transform)
	return o.request(func(t Target) {
		t.ApplyChanges(&output.ChangeSet{Transform: &tr})
	})
}

func (o *Output) SetScaleFactor(scale float64) *dbus.Error {
	if scale <= 0 {
		return dbusutil.ToError(errBadScale)
	}
	return o.request(func(t Target) {
		t.ApplyChanges(&output.ChangeSet{Scale: &scale})
	})
}

func (o *Output) Enable(enabled bool) *dbus.Error {
	return o.request(func(t Target) {
		t.ApplyChanges(&output.ChangeSet{Enabled: &enabled})
	})
}

func (o *Output) SetDpms(mode uint8) *dbus.Error {
	if mode > uint8(output.DpmsOff) {
		return dbusutil.ToError(errBadDpms)
	}
	return o.request(func(t Target) {
		t.RequestDpms(output.DpmsMode(mode))
	})
}

// Package output holds the backend independent state of a display output:
// its position, scale, transform and mode, and the rules for publishing
// them to clients.
package output

import (
	"image"
	"math"

	"github.com/linuxdeepin/go-lib/log"
)

var logger = log.NewLogger("kwin/output")

// Output is mutated from the backend's event loop only.
type Output struct {
	hooks      Hooks
	publisher  Publisher
	compositor Compositor

	info        DeviceInfo
	modes       []Mode
	modeSize    Size
	refreshRate int

	pos         image.Point
	positionSet bool
	scale       float64
	transform   Transform
	enabled     bool
	dpms        DpmsMode
	gamma       *GammaRamp
}

// New creates an enabled output at scale 1. Nil collaborators are replaced
// by ones that drop every notification.
func New(hooks Hooks, publisher Publisher, compositor Compositor) *Output {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if compositor == nil {
		compositor = NopCompositor
	}
	return &Output{
		hooks:       hooks,
		publisher:   publisher,
		compositor:  compositor,
		refreshRate: 60000,
		scale:       1,
		enabled:     true,
	}
}

// Init publishes the device once its catalog is known.
func (o *Output) Init(info DeviceInfo) {
	if info.Manufacturer == "" {
		info.Manufacturer = "unknown"
	}
	o.info = info
	o.modes = append([]Mode(nil), info.Modes...)
	for _, m := range o.modes {
		if m.Flags&ModeCurrent != 0 {
			o.modeSize, o.refreshRate = m.Size, m.RefreshRate
		}
		logger.Debugf("%s: mode %v flags %#x", info.Name, m, m.Flags)
	}
	o.publisher.Init(o.info)
	o.publisher.SetLogicalSize(o.LogicalSize())
}

func (o *Output) Name() string                { return o.info.Name }
func (o *Output) Model() string               { return o.info.Model }
func (o *Output) Manufacturer() string        { return o.info.Manufacturer }
func (o *Output) UUID() string                { return o.info.UUID }
func (o *Output) Edid() []byte                { return o.info.Edid }
func (o *Output) IsInternal() bool            { return o.info.Internal }
func (o *Output) RawPhysicalSize() Size       { return o.info.PhysicalSize }
func (o *Output) GlobalPos() image.Point      { return o.pos }
func (o *Output) Scale() float64              { return o.scale }
func (o *Output) Transform() Transform        { return o.transform }
func (o *Output) IsEnabled() bool             { return o.enabled }
func (o *Output) HasSetGlobalPosition() bool  { return o.positionSet }
func (o *Output) PublishedDpmsMode() DpmsMode { return o.dpms }
func (o *Output) GammaRamp() *GammaRamp       { return o.gamma }
func (o *Output) ModeSize() Size              { return o.modeSize }
func (o *Output) RefreshRate() int            { return o.refreshRate }

// Description is "<manufacturer> <model>".
func (o *Output) Description() string {
	return o.info.Manufacturer + " " + o.info.Model
}

// Modes returns a copy of the catalog.
func (o *Output) Modes() []Mode {
	return append([]Mode(nil), o.modes...)
}

// PhysicalSize is the size in millimeters as seen with the transform applied.
func (o *Output) PhysicalSize() Size {
	return o.orientate(o.info.PhysicalSize)
}

// PixelSize is the mode size with the transform applied.
func (o *Output) PixelSize() Size {
	return o.orientate(o.modeSize)
}

func (o *Output) LogicalSize() Size {
	return o.PixelSize().Div(o.scale)
}

// Geometry is the area the output covers in the global compositor space.
func (o *Output) Geometry() image.Rectangle {
	s := o.LogicalSize()
	return image.Rectangle{Min: o.pos, Max: o.pos.Add(image.Pt(s.Width, s.Height))}
}

func (o *Output) orientate(s Size) Size {
	if o.transform.IsPortrait() {
		return s.Transposed()
	}
	return s
}

func (o *Output) SetGlobalPos(pos image.Point) {
	if !o.enabled {
		return
	}
	o.pos = pos
	o.publisher.SetGlobalPosition(pos)
}

// SetScale stores the configured scale. Clients are told its ceiling so
// they never render buffers below the output's density.
func (o *Output) SetScale(scale float64) {
	if !o.enabled {
		return
	}
	if scale <= 0 {
		logger.Warningf("%s: ignoring scale %v", o.info.Name, scale)
		return
	}
	o.scale = scale
	o.publisher.SetScale(int(math.Ceil(scale)), scale)
	o.publisher.SetLogicalSize(o.LogicalSize())
}

// SetTransform rotates the output and lets the backend reprogram the
// hardware for it.
func (o *Output) SetTransform(t Transform) {
	if !o.enabled {
		return
	}
	if !t.IsValid() {
		logger.Warningf("%s: ignoring transform %d", o.info.Name, t)
		return
	}
	o.RestoreTransform(t)
	o.hooks.UpdateTransform(t)
	o.publishCurrentMode()
}

// RestoreTransform sets and publishes the transform without touching the
// hardware.
func (o *Output) RestoreTransform(t Transform) {
	o.transform = t
	o.publisher.SetTransform(t)
	o.publisher.SetLogicalSize(o.LogicalSize())
}

// SetCurrentMode records the active timing and marks it in the catalog.
func (o *Output) SetCurrentMode(size Size, refreshRate int) {
	o.modeSize, o.refreshRate = size, refreshRate

	changed, found := false, false
	for i := range o.modes {
		m := &o.modes[i]
		current := !found && m.Size == size && m.RefreshRate == refreshRate
		found = found || current
		if current != (m.Flags&ModeCurrent != 0) {
			m.Flags ^= ModeCurrent
			changed = true
		}
	}
	if changed {
		o.publisher.SetModes(o.Modes())
	}
	o.publishCurrentMode()
}

func (o *Output) publishCurrentMode() {
	if !o.enabled {
		return
	}
	o.publisher.SetCurrentMode(o.modeSize, o.refreshRate)
	o.publisher.SetLogicalSize(o.LogicalSize())
}

// SetEnabled creates or destroys the client visible output and lets the
// backend power the hardware accordingly.
func (o *Output) SetEnabled(enable bool) {
	if enable == o.enabled {
		return
	}
	logger.Debugf("%s: enabled %v", o.info.Name, enable)
	o.enabled = enable
	o.publisher.SetEnabled(enable)
	o.hooks.UpdateEnablement(enable)
}

// RequestDpms asks the backend for a power state change.
func (o *Output) RequestDpms(mode DpmsMode) {
	o.hooks.UpdateDpms(mode)
}

// PublishDpmsMode tells clients about the power state the hardware is in.
func (o *Output) PublishDpmsMode(mode DpmsMode) {
	o.dpms = mode
	o.publisher.SetDpmsMode(mode)
}

// SetGammaRamp programs the color lookup table.
func (o *Output) SetGammaRamp(gamma GammaRamp) bool {
	if !o.hooks.UpdateGamma(gamma) {
		return false
	}
	o.gamma = &gamma
	return true
}

func (o *Output) SetDisconnected() {
	o.publisher.Disconnected()
}

func (o *Output) Damage(region image.Rectangle) {
	o.publisher.Damaged(region)
}

func (o *Output) NotifyModeChanged() {
	o.publisher.ModeChanged()
}

func (o *Output) RepaintFull() {
	o.compositor.AddRepaintFull()
}

func (o *Output) BufferSwapComplete() {
	o.compositor.BufferSwapComplete()
}

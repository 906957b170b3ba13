package output

import (
	"image"
)

// Publisher republishes output state to clients.
type Publisher interface {
	Init(info DeviceInfo)
	SetModes(modes []Mode)
	SetCurrentMode(size Size, refreshRate int)
	SetGlobalPosition(pos image.Point)
	// SetScale publishes the scale clients render at, rounded up, together
	// with the configured value.
	SetScale(scale int, exact float64)
	SetLogicalSize(size Size)
	SetTransform(t Transform)
	SetDpmsMode(mode DpmsMode)
	SetEnabled(enabled bool)
	ModeChanged()
	Damaged(region image.Rectangle)
	Disconnected()
}

// Compositor produces the frames presented on outputs.
type Compositor interface {
	AddRepaintFull()
	BufferSwapComplete()
}

// Hooks is implemented by each backend to act on hardware.
type Hooks interface {
	UpdateMode(index int)
	UpdateTransform(t Transform)
	UpdateDpms(mode DpmsMode)
	UpdateEnablement(enable bool)
	UpdateGamma(gamma GammaRamp) bool
}

type nopPublisher struct{}

func (nopPublisher) Init(DeviceInfo)               {}
func (nopPublisher) SetModes([]Mode)               {}
func (nopPublisher) SetCurrentMode(Size, int)      {}
func (nopPublisher) SetGlobalPosition(image.Point) {}
func (nopPublisher) SetScale(int, float64)         {}
func (nopPublisher) SetLogicalSize(Size)           {}
func (nopPublisher) SetTransform(Transform)        {}
func (nopPublisher) SetDpmsMode(DpmsMode)          {}
func (nopPublisher) SetEnabled(bool)               {}
func (nopPublisher) ModeChanged()                  {}
func (nopPublisher) Damaged(image.Rectangle)       {}
func (nopPublisher) Disconnected()                 {}

type nopCompositor struct{}

func (nopCompositor) AddRepaintFull()     {}
func (nopCompositor) BufferSwapComplete() {}

// NopCompositor is used when no compositor is attached.
var NopCompositor Compositor = nopCompositor{}

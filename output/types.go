package output

import (
	"fmt"
	"image"
	"math"
)

// Size in pixels or, for physical sizes, millimeters.
type Size struct {
	Width, Height int
}

func (s Size) IsEmpty() bool {
	return s.Width <= 0 || s.Height <= 0
}

func (s Size) Transposed() Size {
	return Size{s.Height, s.Width}
}

// Div scales the size down, rounding each side to the nearest integer.
func (s Size) Div(f float64) Size {
	if f <= 0 {
		return s
	}
	return Size{
		int(math.Round(float64(s.Width) / f)),
		int(math.Round(float64(s.Height) / f)),
	}
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

type ModeFlags uint32

const (
	ModeCurrent ModeFlags = 1 << iota
	ModePreferred
)

// Mode is one entry of an output's mode catalog.
type Mode struct {
	ID          int
	Size        Size
	RefreshRate int // mHz
	Flags       ModeFlags
}

func (m Mode) String() string {
	return fmt.Sprintf("#%d %v@%d", m.ID, m.Size, m.RefreshRate)
}

type DpmsMode int

const (
	DpmsOn DpmsMode = iota
	DpmsStandby
	DpmsSuspend
	DpmsOff
)

func (m DpmsMode) String() string {
	switch m {
	case DpmsOn:
		return "On"
	case DpmsStandby:
		return "Standby"
	case DpmsSuspend:
		return "Suspend"
	case DpmsOff:
		return "Off"
	}
	return "invalid"
}

// GammaRamp holds one 16 bit lookup table per channel.
type GammaRamp struct {
	Red, Green, Blue []uint16
}

func NewGammaRamp(size int) GammaRamp {
	return GammaRamp{
		Red:   make([]uint16, size),
		Green: make([]uint16, size),
		Blue:  make([]uint16, size),
	}
}

func (g *GammaRamp) Size() int {
	return len(g.Red)
}

func (g *GammaRamp) IsValid(size int) bool {
	return size > 0 && len(g.Red) == size && len(g.Green) == size && len(g.Blue) == size
}

// DeviceInfo is the static description published when an output appears.
type DeviceInfo struct {
	Name         string
	Model        string
	Manufacturer string
	UUID         string
	Edid         []byte
	PhysicalSize Size
	Internal     bool
	Modes        []Mode
}

// ChangeSet carries a configuration request; nil fields are unchanged.
type ChangeSet struct {
	Enabled   *bool
	Mode      *int
	Transform *Transform
	Position  *image.Point
	Scale     *float64
	Gamma     *GammaRamp
}

func (c *ChangeSet) IsEmpty() bool {
	return c == nil || (c.Enabled == nil && c.Mode == nil && c.Transform == nil &&
		c.Position == nil && c.Scale == nil && c.Gamma == nil)
}

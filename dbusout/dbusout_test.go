package dbusout

import (
	"image"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangyaninga/kwin-drm/output"
)

type fakeTarget struct {
	changes []*output.ChangeSet
	dpms    []output.DpmsMode
}

func (t *fakeTarget) ApplyChanges(c *output.ChangeSet) { t.changes = append(t.changes, c) }
func (t *fakeTarget) RequestDpms(mode output.DpmsMode) { t.dpms = append(t.dpms, mode) }

func newTestManager(t *testing.T) *Manager {
	m, err := NewManager(nil, func(fn func()) { fn() })
	require.NoError(t, err)
	return m
}

var testInfo = output.DeviceInfo{
	Name:         "HDMI-A-1",
	Model:        "HDMI-A-1-DELL U2415",
	Manufacturer: "DEL",
	UUID:         "0123456789",
	PhysicalSize: output.Size{Width: 520, Height: 320},
	Modes: []output.Mode{
		{ID: 0, Size: output.Size{Width: 1920, Height: 1200}, RefreshRate: 59950, Flags: output.ModeCurrent | output.ModePreferred},
		{ID: 1, Size: output.Size{Width: 1280, Height: 720}, RefreshRate: 60000},
	},
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, dbus.ObjectPath("/org/deepin/dde/KWinDrm1/Output_HDMI_A_1"), outputPath("HDMI-A-1"))
	assert.Equal(t, dbus.ObjectPath("/org/deepin/dde/KWinDrm1/Output_eDP_1"), outputPath("eDP-1"))
	assert.True(t, outputPath("DP-1").IsValid())
}

func TestPublish(t *testing.T) {
	m := newTestManager(t)
	pub := m.Publisher("HDMI-A-1")
	o := m.Output("HDMI-A-1")
	require.NotNil(t, o)
	assert.Empty(t, m.Outputs)

	pub.Init(testInfo)
	assert.Equal(t, []dbus.ObjectPath{o.Path()}, m.Outputs)
	assert.Equal(t, "DEL", o.Manufacturer)
	assert.Equal(t, uint32(520), o.MmWidth)
	require.Len(t, o.Modes, 2)
	assert.Equal(t, ModeInfo{Id: 0, Width: 1920, Height: 1200, Rate: 59.95, Flags: 3}, o.CurrentMode)
	assert.True(t, o.Enabled)

	pub.SetCurrentMode(output.Size{Width: 1280, Height: 720}, 60000)
	assert.Equal(t, uint32(1), o.CurrentMode.Id)
	pub.SetCurrentMode(output.Size{Width: 800, Height: 600}, 60317)
	assert.Equal(t, uint16(800), o.CurrentMode.Width)

	pub.SetGlobalPosition(image.Pt(1920, -10))
	pub.SetLogicalSize(output.Size{Width: 960, Height: 600})
	pub.SetScale(2, 1.5)
	pub.SetTransform(output.Rotated90)
	pub.SetDpmsMode(output.DpmsOff)
	pub.SetEnabled(false)
	assert.Equal(t, int32(1920), o.X)
	assert.Equal(t, int32(-10), o.Y)
	assert.Equal(t, uint32(960), o.Width)
	assert.Equal(t, uint32(2), o.Scale)
	assert.Equal(t, 1.5, o.ScaleFactor)
	assert.Equal(t, uint8(1), o.Transform)
	assert.Equal(t, uint8(3), o.DpmsMode)
	assert.False(t, o.Enabled)

	pub.Disconnected()
	assert.Nil(t, m.Output("HDMI-A-1"))
	assert.Empty(t, m.Outputs)
}

type emitted struct {
	signal string
	args   []interface{}
}

func TestSignals(t *testing.T) {
	m := newTestManager(t)
	var got []emitted
	m.onEmit = func(_ *Output, signal string, args []interface{}) {
		got = append(got, emitted{signal, args})
	}
	pub := m.Publisher("eDP-1")
	pub.Init(testInfo)

	pub.Damaged(image.Rect(10, 20, 110, 70))
	pub.Damaged(image.Rectangle{})
	pub.ModeChanged()
	pub.Disconnected()

	assert.Equal(t, []emitted{
		{"Damaged", []interface{}{int32(10), int32(20), int32(100), int32(50)}},
		{"ModeChanged", nil},
		{"Disconnected", nil},
	}, got)
}

func TestRequests(t *testing.T) {
	m := newTestManager(t)
	m.Publisher("HDMI-A-1").Init(testInfo)
	o := m.Output("HDMI-A-1")

	assert.NotNil(t, o.SetMode(1))

	target := &fakeTarget{}
	m.Bind("HDMI-A-1", target)

	assert.Nil(t, o.SetMode(1))
	assert.NotNil(t, o.SetMode(7))
	assert.Nil(t, o.SetPosition(10, 20))
	assert.Nil(t, o.SetRotation(3))
	assert.NotNil(t, o.SetRotation(8))
	assert.Nil(t, o.SetScaleFactor(1.25))
	assert.NotNil(t, o.SetScaleFactor(0))
	assert.Nil(t, o.Enable(false))
	assert.Nil(t, o.SetDpms(3))
	assert.NotNil(t, o.SetDpms(4))

	require.Len(t, target.changes, 5)
	assert.Equal(t, 1, *target.changes[0].Mode)
	assert.Equal(t, image.Pt(10, 20), *target.changes[1].Position)
	assert.Equal(t, output.Rotated270, *target.changes[2].Transform)
	assert.Equal(t, 1.25, *target.changes[3].Scale)
	assert.False(t, *target.changes[4].Enabled)
	assert.Equal(t, []output.DpmsMode{output.DpmsOff}, target.dpms)
}

func TestRepublishReplacesOutput(t *testing.T) {
	m := newTestManager(t)
	m.Publisher("DP-1").Init(testInfo)
	first := m.Output("DP-1")
	m.Publisher("DP-1").Init(testInfo)
	assert.NotSame(t, first, m.Output("DP-1"))
	assert.False(t, first.isExported())
	assert.Len(t, m.Outputs, 1)
}

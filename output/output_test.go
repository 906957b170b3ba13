package output

import (
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder logs every collaborator call in order.
type recorder struct {
	calls []string
	gamma bool
}

func (r *recorder) log(format string, args ...interface{}) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) Init(info DeviceInfo)            { r.log("init %s", info.Name) }
func (r *recorder) SetModes(modes []Mode)           { r.log("modes %d", len(modes)) }
func (r *recorder) SetCurrentMode(s Size, rate int) { r.log("current %v@%d", s, rate) }
func (r *recorder) SetGlobalPosition(p image.Point) { r.log("pos %v", p) }
func (r *recorder) SetScale(s int, exact float64)   { r.log("scale %d %v", s, exact) }
func (r *recorder) SetLogicalSize(s Size)           { r.log("logical %v", s) }
func (r *recorder) SetTransform(t Transform)        { r.log("transform %v", t) }
func (r *recorder) SetDpmsMode(m DpmsMode)          { r.log("dpms %v", m) }
func (r *recorder) SetEnabled(e bool)               { r.log("enabled %v", e) }
func (r *recorder) ModeChanged()                    { r.log("mode changed") }
func (r *recorder) Damaged(region image.Rectangle)  { r.log("damaged %v", region) }
func (r *recorder) Disconnected()                   { r.log("disconnected") }
func (r *recorder) AddRepaintFull()                 { r.log("repaint") }
func (r *recorder) BufferSwapComplete()             { r.log("swap complete") }
func (r *recorder) UpdateMode(index int)            { r.log("hook mode %d", index) }
func (r *recorder) UpdateTransform(t Transform)     { r.log("hook transform %v", t) }
func (r *recorder) UpdateDpms(m DpmsMode)           { r.log("hook dpms %v", m) }
func (r *recorder) UpdateEnablement(e bool)         { r.log("hook enable %v", e) }
func (r *recorder) UpdateGamma(GammaRamp) bool      { r.log("hook gamma"); return r.gamma }

func newTestOutput() (*Output, *recorder) {
	r := &recorder{}
	o := New(r, r, r)
	o.Init(DeviceInfo{
		Name: "eDP-1",
		Modes: []Mode{
			{ID: 0, Size: Size{1920, 1080}, RefreshRate: 60000, Flags: ModeCurrent | ModePreferred},
			{ID: 1, Size: Size{1280, 720}, RefreshRate: 59979},
		},
		PhysicalSize: Size{310, 170},
	})
	r.calls = nil
	return o, r
}

func TestInit(t *testing.T) {
	o, _ := newTestOutput()
	assert.Equal(t, Size{1920, 1080}, o.ModeSize())
	assert.Equal(t, 60000, o.RefreshRate())
	assert.Equal(t, "unknown", o.Manufacturer())
	assert.Equal(t, image.Rect(0, 0, 1920, 1080), o.Geometry())
	assert.True(t, o.IsEnabled())
}

func TestDamage(t *testing.T) {
	o, r := newTestOutput()
	o.Damage(o.Geometry())
	assert.Equal(t, []string{"damaged (0,0)-(1920,1080)"}, r.calls)
}

func TestScaleCeil(t *testing.T) {
	o, r := newTestOutput()
	o.SetScale(1.5)
	assert.Equal(t, []string{"scale 2 1.5", "logical 1280x720"}, r.calls)
	assert.Equal(t, image.Rect(0, 0, 1280, 720), o.Geometry())

	r.calls = nil
	o.SetScale(0)
	assert.Empty(t, r.calls)
	assert.Equal(t, 1.5, o.Scale())
}

func TestTransformGeometry(t *testing.T) {
	o, r := newTestOutput()
	o.SetGlobalPos(image.Pt(100, 0))
	o.SetTransform(Rotated90)
	assert.Equal(t, Size{1080, 1920}, o.PixelSize())
	assert.Equal(t, Size{170, 310}, o.PhysicalSize())
	assert.Equal(t, image.Rect(100, 0, 1180, 1920), o.Geometry())
	assert.Equal(t, []string{
		"pos (100,0)",
		"transform 90",
		"logical 1080x1920",
		"hook transform 90",
		"current 1920x1080@60000",
		"logical 1080x1920",
	}, r.calls)
}

func TestDisabledIsNoop(t *testing.T) {
	o, r := newTestOutput()
	o.SetEnabled(false)
	assert.Equal(t, []string{"enabled false", "hook enable false"}, r.calls)

	r.calls = nil
	o.SetGlobalPos(image.Pt(5, 5))
	o.SetScale(2)
	o.SetTransform(Rotated180)
	o.SetEnabled(false)
	assert.Empty(t, r.calls)
	assert.Equal(t, image.Pt(0, 0), o.GlobalPos())
	assert.Equal(t, 1.0, o.Scale())
	assert.Equal(t, Normal, o.Transform())
}

func TestSetCurrentMode(t *testing.T) {
	o, r := newTestOutput()
	o.SetCurrentMode(Size{1280, 720}, 59979)
	modes := o.Modes()
	require.Len(t, modes, 2)
	assert.Equal(t, ModePreferred, modes[0].Flags)
	assert.Equal(t, ModeCurrent, modes[1].Flags)
	assert.Equal(t, []string{"modes 2", "current 1280x720@59979", "logical 1280x720"}, r.calls)

	r.calls = nil
	o.SetCurrentMode(Size{1280, 720}, 59979)
	assert.Equal(t, []string{"current 1280x720@59979", "logical 1280x720"}, r.calls)
}

func TestApplyChangesOrder(t *testing.T) {
	o, r := newTestOutput()
	mode, tr, pos, scale := 1, Rotated270, image.Pt(1920, 0), 2.0
	o.ApplyChanges(&ChangeSet{Mode: &mode, Transform: &tr, Position: &pos, Scale: &scale})
	assert.Equal(t, []string{
		"hook mode 1",
		"transform 270",
		"logical 1080x1920",
		"hook transform 270",
		"current 1920x1080@60000",
		"logical 1080x1920",
		"pos (1920,0)",
		"scale 2 2",
		"logical 540x960",
		"repaint",
		"mode changed",
	}, r.calls)
	assert.True(t, o.HasSetGlobalPosition())
}

func TestApplyChangesPositionOnly(t *testing.T) {
	o, r := newTestOutput()
	pos := image.Pt(0, 1080)
	o.ApplyChanges(&ChangeSet{Position: &pos})
	assert.Equal(t, []string{"pos (0,1080)", "repaint"}, r.calls)

	r.calls = nil
	o.ApplyChanges(&ChangeSet{})
	o.ApplyChanges(nil)
	assert.Empty(t, r.calls)
}

func TestApplyChangesGamma(t *testing.T) {
	o, r := newTestOutput()
	g := NewGammaRamp(4)
	o.ApplyChanges(&ChangeSet{Gamma: &g})
	assert.Equal(t, []string{"hook gamma"}, r.calls)
	assert.Nil(t, o.GammaRamp())

	r.gamma = true
	assert.True(t, o.SetGammaRamp(g))
	require.NotNil(t, o.GammaRamp())
	assert.Equal(t, 4, o.GammaRamp().Size())
}

func TestApplyChangesEnable(t *testing.T) {
	o, r := newTestOutput()
	o.SetEnabled(false)
	r.calls = nil
	enabled := true
	pos := image.Pt(10, 10)
	o.ApplyChanges(&ChangeSet{Enabled: &enabled, Position: &pos})
	assert.Equal(t, []string{"enabled true", "hook enable true", "pos (10,10)", "repaint"}, r.calls)
}

func TestVirtual(t *testing.T) {
	r := &recorder{}
	v := NewVirtual("Virtual-1", Size{1024, 768}, r, r)
	assert.Equal(t, image.Rect(0, 0, 1024, 768), v.Geometry())
	assert.Equal(t, DpmsOn, v.PublishedDpmsMode())

	r.calls = nil
	v.RequestDpms(DpmsOff)
	v.RequestDpms(DpmsOff)
	assert.Equal(t, []string{"dpms Off"}, r.calls)

	r.calls = nil
	v.UpdateMode(3)
	assert.Empty(t, r.calls)
	assert.False(t, v.SetGammaRamp(NewGammaRamp(1)))
}

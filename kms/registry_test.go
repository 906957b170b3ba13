package kms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/zhangyaninga/kwin-drm/mode"
)

func TestRegistryClaims(t *testing.T) {
	dev := newFakeDevice()
	dev.addCrtc(0)
	c1 := dev.addCrtc(0)
	enc := dev.addEncoder(0b10)
	hdmi := dev.addConnector(mode.ConnectorHDMIA, false, enc, mode1080)
	dp := dev.addConnector(mode.ConnectorDisplayPort, false, enc, mode1080)
	dev.addPlane(mode.PlanePrimary, 0b01)
	p1 := dev.addPlane(mode.PlanePrimary, 0b10)
	dev.addPlane(mode.PlaneCursor, 0b11)

	r := NewRegistry(dev)
	require.NoError(t, r.Probe())
	require.Len(t, r.Crtcs(), 2)
	require.Len(t, r.Planes(), 3)
	assert.Equal(t, "HDMI-A-1", r.Connector(hdmi.ID).Name())
	assert.Equal(t, "DP-1", r.Connector(dp.ID).Name())

	crtc, err := r.ClaimCrtc(r.Connector(hdmi.ID), 1)
	require.NoError(t, err)
	assert.Equal(t, c1, crtc.ID())
	assert.Equal(t, 1, crtc.ResIndex())

	_, err = r.ClaimCrtc(r.Connector(dp.ID), 2)
	assert.True(t, xerrors.Is(err, ErrNoCrtc))
	assert.False(t, r.Connector(dp.ID).isClaimed())

	_, err = r.ClaimCrtc(r.Connector(hdmi.ID), 2)
	assert.True(t, xerrors.Is(err, ErrClaimed))

	plane, err := r.ClaimPlane(mode.PlanePrimary, crtc, 1)
	require.NoError(t, err)
	assert.Equal(t, p1, plane.ID())
	assert.Equal(t, mode.PlanePrimary, plane.Type())
	assert.Equal(t, Rotate0|Rotate90|Rotate180|Rotate270, plane.SupportedTransformations())

	_, err = r.ClaimPlane(mode.PlanePrimary, crtc, 2)
	assert.Equal(t, ErrNoPrimaryPlane, err)

	r.Release(1)
	assert.False(t, crtc.isClaimed())
	assert.False(t, plane.isClaimed())
	crtc, err = r.ClaimCrtc(r.Connector(dp.ID), 2)
	require.NoError(t, err)
	assert.Equal(t, c1, crtc.ID())
}

func TestRegistryPrefersBoundCrtc(t *testing.T) {
	dev := newFakeDevice()
	dev.addCrtc(0)
	c1 := dev.addCrtc(0)
	enc := dev.addEncoder(0b11)
	dev.encoders[enc].CrtcID = c1
	conn := dev.addConnector(mode.ConnectorHDMIA, false, enc, mode1080)

	r := NewRegistry(dev)
	require.NoError(t, r.Probe())
	crtc, err := r.ClaimCrtc(r.Connector(conn.ID), 1)
	require.NoError(t, err)
	assert.Equal(t, c1, crtc.ID())
}

func TestRegistryProbeKeepsConnectors(t *testing.T) {
	dev := newFakeDevice()
	dev.addCrtc(0)
	enc := dev.addEncoder(1)
	a := dev.addConnector(mode.ConnectorHDMIA, false, enc, mode1080)
	b := dev.addConnector(mode.ConnectorVGA, false, enc)
	b.Connection = mode.Disconnected

	r := NewRegistry(dev)
	require.NoError(t, r.Probe())
	conn := r.Connector(a.ID)
	require.NotNil(t, conn)
	assert.True(t, conn.IsConnected())
	assert.False(t, r.Connector(b.ID).IsConnected())

	a.Connection = mode.Disconnected
	require.NoError(t, r.Probe())
	assert.Same(t, conn, r.Connector(a.ID))
	assert.False(t, conn.IsConnected())

	dev.connectorIDs = dev.connectorIDs[1:]
	require.NoError(t, r.Probe())
	assert.Nil(t, r.Connector(a.ID))
	assert.Len(t, r.Connectors(), 1)
}

func TestConnectorEdid(t *testing.T) {
	blob := make([]byte, 128)
	copy(blob, []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00, 0x10, 0xac})
	blob[0x15], blob[0x16] = 52, 32
	copy(blob[0x36:], append([]byte{0, 0, 0, 0xfc, 0}, "DELL U2415\n  "...))

	dev := newFakeDevice()
	dev.addCrtc(0)
	enc := dev.addEncoder(1)
	c := dev.addConnector(mode.ConnectorDisplayPort, true, enc, mode1080)
	dev.addPlane(mode.PlanePrimary, 1)
	id, err := dev.CreatePropertyBlob(blob)
	require.NoError(t, err)
	dev.values[c.ID][dev.propID(c.ID, "EDID")] = uint64(id)

	r := NewRegistry(dev)
	require.NoError(t, r.Probe())
	conn := r.Connector(c.ID)
	assert.True(t, conn.HasDpms())
	assert.True(t, conn.ScalingCapable())
	assert.False(t, conn.IsInternal())

	e, ok := conn.Edid()
	require.True(t, ok)
	assert.Equal(t, "DEL", e.EisaID)
	assert.Equal(t, "DELL U2415", e.MonitorName)
	assert.Equal(t, 520, e.PhysicalSize.Width)

	b := NewBackend(dev, Options{Atomic: true, SoftwareCursor: true})
	require.NoError(t, b.UpdateOutputs())
	o := b.Output(uint64(c.ID))
	require.NotNil(t, o)
	assert.Equal(t, "DEL", o.Manufacturer())
	assert.Equal(t, "DP-1-DELL U2415", o.Model())
	assert.Equal(t, "DEL DP-1-DELL U2415", o.Description())
	assert.Equal(t, 520, o.PhysicalSize().Width)
	assert.Equal(t, blob, o.Edid())
}

package kms

import (
	"fmt"

	"golang.org/x/xerrors"

	"github.com/zhangyaninga/kwin-drm/edid"
	"github.com/zhangyaninga/kwin-drm/mode"
)

const (
	connCrtcID = iota
	connDpms
	connEdid
	connScalingMode
)

var connectorPropNames = []string{"CRTC_ID", "DPMS", "EDID", "scaling mode"}

// Connector is a physical display port.
type Connector struct {
	object
	info *mode.Connector
}

func newConnector(dev Device, id uint32) (*Connector, error) {
	c := &Connector{object: object{dev: dev, id: id, typ: mode.ObjectConnector}}
	if err := c.refresh(); err != nil {
		return nil, err
	}
	if err := c.initProps(connectorPropNames); err != nil {
		return nil, xerrors.Errorf("connector %d properties: %w", id, err)
	}
	return c, nil
}

// refresh re-reads the connection state and mode list.
func (c *Connector) refresh() error {
	info, err := c.dev.Connector(c.id)
	if err != nil {
		return xerrors.Errorf("connector %d: %w", c.id, err)
	}
	c.info = info
	return nil
}

func (c *Connector) IsConnected() bool {
	return c.info.Connection == mode.Connected
}

// Name is the kernel style name, e.g. "eDP-1".
func (c *Connector) Name() string {
	return fmt.Sprintf("%s-%d", mode.ConnectorTypeName(c.info.Type), c.info.TypeID)
}

func (c *Connector) IsInternal() bool {
	return mode.IsInternal(c.info.Type)
}

func (c *Connector) Modes() []mode.Info {
	return c.info.Modes
}

func (c *Connector) Encoders() []uint32 {
	return c.info.Encoders
}

// PhysicalSize as reported by the kernel, in millimeters.
func (c *Connector) PhysicalSize() (width, height uint32) {
	return c.info.Width, c.info.Height
}

func (c *Connector) HasDpms() bool {
	return c.hasProp(connDpms)
}

// ScalingCapable reports whether the kernel scales smaller modes to the
// panel, which is what makes synthesized modes usable.
func (c *Connector) ScalingCapable() bool {
	return c.hasProp(connScalingMode)
}

// Edid reads and parses the EDID blob. ok is false when the connector has
// none or it cannot be parsed.
func (c *Connector) Edid() (e edid.EDID, ok bool) {
	blobID := c.value(connEdid)
	if !c.hasProp(connEdid) || blobID == 0 {
		logger.Debugf("%s: no EDID", c.Name())
		return e, false
	}
	data, err := c.dev.PropertyBlob(uint32(blobID))
	if err != nil {
		logger.Warningf("%s: reading EDID: %v", c.Name(), err)
		return e, false
	}
	e = edid.Parse(data)
	if !e.IsValid() {
		logger.Debugf("%s: could not parse EDID", c.Name())
		return e, false
	}
	return e, true
}

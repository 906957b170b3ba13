package kms

import (
	"golang.org/x/xerrors"

	"github.com/zhangyaninga/kwin-drm/mode"
)

// Registry owns every mode object of a card and hands them out to outputs.
// Claims are keyed by the output token.
type Registry struct {
	dev        Device
	connectors []*Connector
	crtcs      []*Crtc
	planes     []*Plane
}

func NewRegistry(dev Device) *Registry {
	return &Registry{dev: dev}
}

// Probe reads the resources. Connectors and CRTCs already known keep their
// identity and claims; vanished ones are dropped.
func (r *Registry) Probe() error {
	res, err := r.dev.Resources()
	if err != nil {
		return xerrors.Errorf("probing resources: %w", err)
	}

	if len(r.crtcs) == 0 {
		for i, id := range res.Crtcs {
			c, err := newCrtc(r.dev, id, i)
			if err != nil {
				return err
			}
			r.crtcs = append(r.crtcs, c)
		}
	}

	known := make(map[uint32]*Connector, len(r.connectors))
	for _, c := range r.connectors {
		known[c.id] = c
	}
	connectors := make([]*Connector, 0, len(res.Connectors))
	for _, id := range res.Connectors {
		if c, ok := known[id]; ok {
			if err := c.refresh(); err != nil {
				logger.Warning(err)
				continue
			}
			connectors = append(connectors, c)
			continue
		}
		c, err := newConnector(r.dev, id)
		if err != nil {
			logger.Warning(err)
			continue
		}
		connectors = append(connectors, c)
	}
	r.connectors = connectors

	if r.planes == nil {
		ids, err := r.dev.PlaneResources()
		if err != nil {
			logger.Debugf("no planes: %v", err)
			return nil
		}
		for _, id := range ids {
			p, err := newPlane(r.dev, id)
			if err != nil {
				logger.Warning(err)
				continue
			}
			r.planes = append(r.planes, p)
		}
	}
	return nil
}

func (r *Registry) Connectors() []*Connector {
	return r.connectors
}

func (r *Registry) Crtcs() []*Crtc {
	return r.crtcs
}

func (r *Registry) Planes() []*Plane {
	return r.planes
}

func (r *Registry) Connector(id uint32) *Connector {
	for _, c := range r.connectors {
		if c.id == id {
			return c
		}
	}
	return nil
}

// ClaimCrtc finds a free CRTC one of the connector's encoders can drive and
// claims it together with the connector. The CRTC the encoder is currently
// bound to is preferred so the firmware configuration can be kept.
func (r *Registry) ClaimCrtc(conn *Connector, token uint64) (*Crtc, error) {
	if err := conn.claim(token); err != nil {
		return nil, xerrors.Errorf("%s: %w", conn.Name(), err)
	}

	var candidates []*Crtc
	for _, encID := range conn.Encoders() {
		enc, err := r.dev.Encoder(encID)
		if err != nil {
			logger.Debugf("%s: encoder %d: %v", conn.Name(), encID, err)
			continue
		}
		for _, crtc := range r.crtcs {
			if enc.PossibleCrtcs&(1<<uint(crtc.resIndex)) == 0 || crtc.isClaimed() {
				continue
			}
			if crtc.id == enc.CrtcID {
				candidates = append([]*Crtc{crtc}, candidates...)
				continue
			}
			candidates = append(candidates, crtc)
		}
	}
	if len(candidates) == 0 {
		conn.release(token)
		return nil, xerrors.Errorf("%s: %w", conn.Name(), ErrNoCrtc)
	}
	crtc := candidates[0]
	if err := crtc.claim(token); err != nil {
		conn.release(token)
		return nil, err
	}
	return crtc, nil
}

// ClaimPlane claims a free plane of the given type that can feed crtc.
func (r *Registry) ClaimPlane(typ int, crtc *Crtc, token uint64) (*Plane, error) {
	for _, p := range r.planes {
		if p.typ != typ || p.isClaimed() || !p.IsCrtcSupported(crtc.resIndex) {
			continue
		}
		if err := p.claim(token); err != nil {
			continue
		}
		return p, nil
	}
	if typ == mode.PlanePrimary {
		return nil, ErrNoPrimaryPlane
	}
	return nil, xerrors.Errorf("no free plane of type %d for crtc %d", typ, crtc.id)
}

// Release frees everything claimed under token.
func (r *Registry) Release(token uint64) {
	for _, c := range r.connectors {
		c.release(token)
	}
	for _, c := range r.crtcs {
		c.release(token)
	}
	for _, p := range r.planes {
		p.release(token)
	}
}

package kms

import (
	"github.com/zhangyaninga/kwin-drm/mode"
)

type property struct {
	name  string
	id    uint32
	flags uint32
	enums []mode.PropertyEnum

	value     uint64 // pending
	committed uint64 // last applied by a real commit
	dirty     bool   // written on the next commit even if unchanged
}

// object is a mode object with a cache of the properties the engine
// writes, indexed by the position of their name in propNames.
type object struct {
	dev   Device
	id    uint32
	typ   uint32
	props []*property
	owner uint64
}

func (o *object) ID() uint32 {
	return o.id
}

func (o *object) initProps(propNames []string) error {
	o.props = make([]*property, len(propNames))
	ids, values, err := o.dev.ObjectProperties(o.id, o.typ)
	if err != nil {
		return err
	}
	for i, id := range ids {
		p, err := o.dev.Property(id)
		if err != nil {
			logger.Debugf("object %d: property %d: %v", o.id, id, err)
			continue
		}
		for idx, name := range propNames {
			if p.Name != name {
				continue
			}
			o.props[idx] = &property{
				name:      name,
				id:        id,
				flags:     p.Flags,
				enums:     p.Enums,
				value:     values[i],
				committed: values[i],
			}
		}
	}
	return nil
}

func (o *object) prop(idx int) *property {
	if idx < 0 || idx >= len(o.props) {
		return nil
	}
	return o.props[idx]
}

func (o *object) hasProp(idx int) bool {
	return o.prop(idx) != nil
}

func (o *object) propID(idx int) uint32 {
	if p := o.prop(idx); p != nil {
		return p.id
	}
	return 0
}

func (o *object) value(idx int) uint64 {
	if p := o.prop(idx); p != nil {
		return p.value
	}
	return 0
}

func (o *object) setValue(idx int, v uint64) {
	if p := o.prop(idx); p != nil {
		p.value = v
	}
}

// markDirty forces the given properties into the next request. A mode set
// must restate the routing because the kernel state may have been changed
// behind the cache, e.g. while the session was inactive.
func (o *object) markDirty(idxs ...int) {
	for _, idx := range idxs {
		if p := o.prop(idx); p != nil {
			p.dirty = true
		}
	}
}

// atomicPopulate adds the properties whose pending value differs from the
// applied one, plus those marked dirty.
func (o *object) atomicPopulate(req *mode.AtomicReq) bool {
	if o.id == 0 {
		return false
	}
	for _, p := range o.props {
		if p == nil || p.flags&mode.PropImmutable != 0 {
			continue
		}
		if p.value == p.committed && !p.dirty {
			continue
		}
		req.Add(o.id, p.id, p.value)
	}
	return true
}

func (o *object) commitValues() {
	for _, p := range o.props {
		if p != nil {
			p.committed = p.value
			p.dirty = false
		}
	}
}

func (o *object) claim(token uint64) error {
	if o.owner != 0 && o.owner != token {
		return ErrClaimed
	}
	o.owner = token
	return nil
}

func (o *object) release(token uint64) {
	if o.owner == token {
		o.owner = 0
	}
}

func (o *object) isClaimed() bool {
	return o.owner != 0
}

package main

import (
	"image/color"
	"math"

	"github.com/zhangyaninga/kwin-drm/kms"
	"github.com/zhangyaninga/kwin-drm/output"
)

// frames is the double buffer of one output.
type frames struct {
	bufs  [2]*kms.DumbBuffer
	front int
}

// painter is the compositor: it fills a back buffer per enabled output
// with a slowly cycling color and presents it once the previous frames
// are on screen.
type painter struct {
	dev     kms.Device
	backend *kms.Backend
	// fresh allocates every frame, for when the backend frees buffers
	// after their flip.
	fresh bool

	frames   map[*kms.Output]*frames
	frame    int
	painting bool
}

func newPainter(dev kms.Device, fresh bool) *painter {
	return &painter{
		dev:    dev,
		fresh:  fresh,
		frames: make(map[*kms.Output]*frames),
	}
}

func (p *painter) BufferSwapComplete() {
	p.paint()
}

func (p *painter) AddRepaintFull() {
	p.paint()
}

func (p *painter) paint() {
	if p.painting || p.backend == nil {
		return
	}
	p.painting = true
	defer func() { p.painting = false }()

	p.dropStale()
	p.frame++
	c := frameColor(p.frame)
	for _, o := range p.backend.EnabledOutputs() {
		if o.IsPageFlipPending() || o.DpmsMode() != output.DpmsOn {
			continue
		}
		buf, err := p.backBuffer(o)
		if err != nil {
			logger.Warningf("%s: %v", o.Name(), err)
			continue
		}
		buf.Fill(c)
		if !p.backend.Present(o, buf) {
			logger.Debugf("%s: frame %d not presented", o.Name(), p.frame)
			if p.fresh {
				buf.Release()
			}
			continue
		}
		o.Damage(o.Geometry())
		if f := p.frames[o]; f != nil && !p.fresh {
			f.front ^= 1
		}
	}
}

func (p *painter) backBuffer(o *kms.Output) (*kms.DumbBuffer, error) {
	size := o.BufferSize()
	if p.fresh {
		return p.newBuffer(size)
	}
	f := p.frames[o]
	if f == nil {
		f = &frames{}
		p.frames[o] = f
	}
	back := &f.bufs[f.front^1]
	if *back != nil && (*back).Size() != size {
		(*back).Release()
		*back = nil
	}
	if *back == nil {
		b, err := p.newBuffer(size)
		if err != nil {
			return nil, err
		}
		*back = b
	}
	return *back, nil
}

func (p *painter) newBuffer(size output.Size) (*kms.DumbBuffer, error) {
	b, err := kms.NewDumbBuffer(p.dev, size)
	if err != nil {
		return nil, err
	}
	if err := b.Map(); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// dropStale frees the buffers of outputs that went away.
func (p *painter) dropStale() {
	alive := make(map[*kms.Output]bool)
	for _, o := range p.backend.Outputs() {
		alive[o] = true
	}
	for o, f := range p.frames {
		if !alive[o] {
			f.release()
			delete(p.frames, o)
		}
	}
}

func (p *painter) release() {
	for o, f := range p.frames {
		f.release()
		delete(p.frames, o)
	}
}

func (f *frames) release() {
	for i, b := range f.bufs {
		if b != nil {
			b.Release()
			f.bufs[i] = nil
		}
	}
}

// frameColor walks the hue circle once every 600 frames.
func frameColor(frame int) color.RGBA {
	h := float64(frame%600) / 600 * 6
	x := 1 - math.Abs(math.Mod(h, 2)-1)
	var r, g, b float64
	switch int(h) {
	case 0:
		r, g = 1, x
	case 1:
		r, g = x, 1
	case 2:
		g, b = 1, x
	case 3:
		g, b = x, 1
	case 4:
		r, b = x, 1
	default:
		r, b = 1, x
	}
	return color.RGBA{uint8(r * 255), uint8(g * 255), uint8(b * 255), 0xff}
}

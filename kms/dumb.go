package kms

import (
	"image"
	"image/color"

	"golang.org/x/xerrors"

	"github.com/zhangyaninga/kwin-drm/output"
)

// DumbBuffer is a CPU mapped XRGB8888 scanout buffer.
type DumbBuffer struct {
	dev    Device
	handle uint32
	fbID   uint32
	stride uint32
	length uint64
	size   output.Size
	data   []byte
}

func NewDumbBuffer(dev Device, size output.Size) (*DumbBuffer, error) {
	if size.IsEmpty() || size.Width > 0xffff || size.Height > 0xffff {
		return nil, xerrors.Errorf("invalid buffer size %v", size)
	}
	w, h := uint16(size.Width), uint16(size.Height)
	fb, err := dev.CreateDumb(w, h, 32)
	if err != nil {
		return nil, xerrors.Errorf("creating %v dumb buffer: %w", size, err)
	}
	fbID, err := dev.AddFB(w, h, 24, 32, fb.Pitch, fb.Handle)
	if err != nil {
		if derr := dev.DestroyDumb(fb.Handle); derr != nil {
			logger.Debugf("destroying dumb buffer %d: %v", fb.Handle, derr)
		}
		return nil, xerrors.Errorf("adding %v framebuffer: %w", size, err)
	}
	return &DumbBuffer{
		dev:    dev,
		handle: fb.Handle,
		fbID:   fbID,
		stride: fb.Pitch,
		length: fb.Size,
		size:   size,
	}, nil
}

func (b *DumbBuffer) FbID() uint32      { return b.fbID }
func (b *DumbBuffer) Handle() uint32    { return b.handle }
func (b *DumbBuffer) Stride() uint32    { return b.stride }
func (b *DumbBuffer) Size() output.Size { return b.size }

// Map makes the pixels writable. It is a no-op on a mapped buffer.
func (b *DumbBuffer) Map() error {
	if b.data != nil {
		return nil
	}
	data, err := b.dev.MapDumb(b.handle, b.length)
	if err != nil {
		return xerrors.Errorf("mapping dumb buffer %d: %w", b.handle, err)
	}
	b.data = data
	return nil
}

func (b *DumbBuffer) IsMapped() bool {
	return b.data != nil
}

// Fill paints every pixel with c.
func (b *DumbBuffer) Fill(c color.Color) {
	if b.data == nil {
		return
	}
	r, g, bl, a := c.RGBA()
	px := [4]byte{byte(bl >> 8), byte(g >> 8), byte(r >> 8), byte(a >> 8)}
	for y := 0; y < b.size.Height; y++ {
		row := b.data[y*int(b.stride):]
		for x := 0; x < b.size.Width; x++ {
			copy(row[x*4:x*4+4], px[:])
		}
	}
}

// Upload copies premultiplied RGBA pixels into the buffer, converting them
// to the little endian ARGB layout scanout expects. Pixels outside img are
// cleared.
func (b *DumbBuffer) Upload(img *image.RGBA) {
	if b.data == nil {
		return
	}
	for y := 0; y < b.size.Height; y++ {
		row := b.data[y*int(b.stride) : y*int(b.stride)+b.size.Width*4]
		for x := 0; x < b.size.Width; x++ {
			p := row[x*4 : x*4+4]
			if !image.Pt(x, y).In(img.Rect) {
				p[0], p[1], p[2], p[3] = 0, 0, 0, 0
				continue
			}
			s := img.Pix[img.PixOffset(x, y):]
			p[0], p[1], p[2], p[3] = s[2], s[1], s[0], s[3]
		}
	}
}

// Bytes exposes the mapped pixels; nil until Map.
func (b *DumbBuffer) Bytes() []byte {
	return b.data
}

func (b *DumbBuffer) Release() {
	if b.data != nil {
		if err := b.dev.Unmap(b.data); err != nil {
			logger.Debugf("unmapping dumb buffer %d: %v", b.handle, err)
		}
		b.data = nil
	}
	if b.fbID != 0 {
		if err := b.dev.RmFB(b.fbID); err != nil {
			logger.Debugf("removing framebuffer %d: %v", b.fbID, err)
		}
		b.fbID = 0
	}
	if b.handle != 0 {
		if err := b.dev.DestroyDumb(b.handle); err != nil {
			logger.Debugf("destroying dumb buffer %d: %v", b.handle, err)
		}
		b.handle = 0
	}
}

package output

import (
	"image"
	"math"

	"golang.org/x/image/math/f64"
)

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// mul returns m·n, the transform applying n first.
func mul(m, n f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		m[0]*n[0] + m[1]*n[3],
		m[0]*n[1] + m[1]*n[4],
		m[0]*n[2] + m[1]*n[5] + m[2],
		m[3]*n[0] + m[4]*n[3],
		m[3]*n[1] + m[4]*n[4],
		m[3]*n[2] + m[4]*n[5] + m[5],
	}
}

func translate(m f64.Aff3, dx, dy float64) f64.Aff3 {
	return mul(m, f64.Aff3{1, 0, dx, 0, 1, dy})
}

func scale(m f64.Aff3, sx, sy float64) f64.Aff3 {
	return mul(m, f64.Aff3{sx, 0, 0, 0, sy, 0})
}

// rotate turns by a multiple of 90 degrees, y pointing down.
func rotate(m f64.Aff3, degrees int) f64.Aff3 {
	var cos, sin float64
	switch (degrees%360 + 360) % 360 {
	case 0:
		cos, sin = 1, 0
	case 90:
		cos, sin = 0, 1
	case 180:
		cos, sin = -1, 0
	case 270:
		cos, sin = 0, -1
	default:
		r := float64(degrees) * math.Pi / 180
		cos, sin = math.Cos(r), math.Sin(r)
	}
	return mul(m, f64.Aff3{cos, -sin, 0, sin, cos, 0})
}

// LogicalToNativeMatrix maps logical coordinates inside rect to the pixels
// of the output buffer: scale, then rotate about the scaled extent, then
// mirror for the flipped transforms, relative to the origin of rect. Cursor
// placement and plane setup both go through it.
func LogicalToNativeMatrix(rect image.Rectangle, s float64, t Transform) f64.Aff3 {
	w, h := float64(rect.Dx()), float64(rect.Dy())
	m := scale(identity, s, s)

	switch t.Unflipped() {
	case Rotated90:
		m = translate(m, 0, w)
		m = rotate(m, -90)
	case Rotated180:
		m = translate(m, w, h)
		m = rotate(m, -180)
	case Rotated270:
		m = translate(m, h, 0)
		m = rotate(m, -270)
	}

	if t.IsFlipped() {
		m = translate(m, w, 0)
		m = scale(m, -1, 1)
	}

	return translate(m, -float64(rect.Min.X), -float64(rect.Min.Y))
}

// MapPoint applies m to p, rounding to the nearest pixel.
func MapPoint(m f64.Aff3, p image.Point) image.Point {
	x := m[0]*float64(p.X) + m[1]*float64(p.Y) + m[2]
	y := m[3]*float64(p.X) + m[4]*float64(p.Y) + m[5]
	return image.Pt(int(math.Round(x)), int(math.Round(y)))
}

// CursorMatrix maps the pixels of a cursor image rendered at imageScale to
// the pixels of the cursor buffer of an output.
func CursorMatrix(size Size, imageScale, outputScale float64, t Transform) f64.Aff3 {
	if imageScale <= 0 {
		imageScale = 1
	}
	logical := size.Div(imageScale)
	m := LogicalToNativeMatrix(image.Rect(0, 0, logical.Width, logical.Height), outputScale, t)
	return scale(m, 1/imageScale, 1/imageScale)
}

package main

import (
	"image"
	"image/color"
)

const arrowSize = 24

var arrow = drawArrow()

// arrowCursor is a plain left pointing arrow with its tip as hotspot.
type arrowCursor struct{}

func (arrowCursor) Cursor() (image.Image, image.Point, float64) {
	return arrow, image.Point{}, 1
}

func drawArrow() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, arrowSize, arrowSize))
	black := color.RGBA{A: 0xff}
	white := color.RGBA{0xff, 0xff, 0xff, 0xff}
	for y := 0; y < arrowSize; y++ {
		// the shaft narrows the arrow in its lower third
		w := y * 2 / 3
		if y > arrowSize*2/3 {
			w = arrowSize*2/3 - (y - arrowSize*2/3)
		}
		for x := 0; x <= w && x < arrowSize; x++ {
			c := white
			if x == 0 || x == w || y == arrowSize-1 {
				c = black
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

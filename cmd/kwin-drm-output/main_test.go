package main

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameColor(t *testing.T) {
	assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, frameColor(0))
	assert.Equal(t, color.RGBA{127, 0xff, 0, 0xff}, frameColor(150))
	assert.Equal(t, color.RGBA{0, 0xff, 0xff, 0xff}, frameColor(300))
	assert.Equal(t, color.RGBA{127, 0, 0xff, 0xff}, frameColor(450))
	assert.Equal(t, frameColor(37), frameColor(637))
}

func TestArrowCursor(t *testing.T) {
	img, hotspot, scale := arrowCursor{}.Cursor()
	assert.Equal(t, arrowSize, img.Bounds().Dx())
	assert.Zero(t, hotspot.X)
	assert.Equal(t, 1.0, scale)
	_, _, _, a := img.At(0, 0).RGBA()
	assert.NotZero(t, a)
	_, _, _, a = img.At(arrowSize-1, 0).RGBA()
	assert.Zero(t, a)
}

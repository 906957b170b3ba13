package drm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhangyaninga/kwin-drm"
)

func TestHasDumbBuffer(t *testing.T) {
	file := requireCard(t)
	hasDumb := drm.HasDumbBuffer(file)
	assert.Equal(t, cardInfo.capabilities[drm.CapDumbBuffer] != 0, hasDumb)
}

func TestGetCap(t *testing.T) {
	file := requireCard(t)
	for cap, capval := range cardInfo.capabilities {
		ccap, err := drm.GetCap(file, cap)
		if err != nil {
			t.Error(err)
			return
		}
		if ccap != capval {
			t.Errorf("Capability %d differs: %d != %d", cap, ccap, capval)
			return
		}
	}
}

func TestCursorSize(t *testing.T) {
	file := requireCard(t)
	w, h := drm.CursorSize(file)
	assert.Equal(t, cardInfo.capabilities[drm.CapCursorWidth], w)
	assert.Equal(t, cardInfo.capabilities[drm.CapCursorHeight], h)
}

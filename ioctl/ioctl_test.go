package ioctl

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func getbits(n uint32) string {
	return strconv.FormatUint(uint64(n), 2)
}

func TestNewCode(t *testing.T) {
	code := NewCode(Read, 0x218, 'r', 1)
	expected := uint32(0x82187201)
	if code != expected {
		t.Errorf("Expected %s but got %s", getbits(expected),
			getbits(code))
		return
	}
}

func TestNewCodeDRM(t *testing.T) {
	// DRM_IOWR(0xA0, struct drm_mode_card_res)
	assert.Equal(t, uint32(0xc04064a0), NewCode(Read|Write, 64, 'd', 0xA0))
	// DRM_IOW(0x0d, struct drm_set_client_cap)
	assert.Equal(t, uint32(0x4010640d), NewCode(Write, 16, 'd', 0x0d))
	// DRM_IO(0x1e)
	assert.Equal(t, uint32(0x641e), NewCode(None, 0, 'd', 0x1e))
}

func TestNewCodeInvalid(t *testing.T) {
	assert.Panics(t, func() { NewCode(4, 0, 'd', 0) })
	assert.Panics(t, func() { NewCode(Read, maxSize, 'd', 0) })
}

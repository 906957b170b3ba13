package mode

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestStructSizes(t *testing.T) {
	assert.Equal(t, uintptr(68), unsafe.Sizeof(Info{}))
	assert.Equal(t, uintptr(104), unsafe.Sizeof(sysCrtc{}))
	assert.Equal(t, uintptr(80), unsafe.Sizeof(sysGetConnector{}))
	assert.Equal(t, uintptr(64), unsafe.Sizeof(sysGetProperty{}))
	assert.Equal(t, uintptr(40), unsafe.Sizeof(sysPropertyEnum{}))
	assert.Equal(t, uintptr(32), unsafe.Sizeof(sysGetPlane{}))
	assert.Equal(t, uintptr(56), unsafe.Sizeof(sysAtomic{}))
	assert.Equal(t, uintptr(24), unsafe.Sizeof(sysPageFlip{}))
	assert.Equal(t, uintptr(28), unsafe.Sizeof(sysCursor{}))
}

func TestIOCTLCodes(t *testing.T) {
	assert.Equal(t, uint32(0xc04064a0), IOCTLModeResources)
	assert.Equal(t, uint32(0xc06864a1), IOCTLModeGetCrtc)
	assert.Equal(t, uint32(0xc05064a7), IOCTLModeGetConnector)
	assert.Equal(t, uint32(0xc04064aa), IOCTLModeGetProperty)
	assert.Equal(t, uint32(0xc01864b0), IOCTLModePageFlip)
	assert.Equal(t, uint32(0xc01c64a3), IOCTLModeCursor)
	assert.Equal(t, uint32(0xc03864bc), IOCTLModeAtomic)
	assert.Equal(t, uint32(0xc01064bd), IOCTLModeCreatePropBlob)
}

func TestPropertyEnumValue(t *testing.T) {
	p := &Property{
		Name:  "rotation",
		Flags: PropBitmask,
		Enums: []PropertyEnum{{0, "rotate-0"}, {1, "rotate-90"}},
	}
	assert.True(t, p.IsEnum())
	v, ok := p.EnumValue("rotate-90")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), v)
	_, ok = p.EnumValue("reflect-x")
	assert.False(t, ok)
}

func TestConnectorTypeName(t *testing.T) {
	assert.Equal(t, "HDMI-A", ConnectorTypeName(ConnectorHDMIA))
	assert.Equal(t, "eDP", ConnectorTypeName(14))
	assert.Equal(t, "Unknown", ConnectorTypeName(ConnectorUnknown))
	assert.Equal(t, "Unknown", ConnectorTypeName(99))
	assert.True(t, IsInternal(ConnectorDSI))
	assert.False(t, IsInternal(ConnectorDisplayPort))
}

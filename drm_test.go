package drm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangyaninga/kwin-drm"
	"github.com/zhangyaninga/kwin-drm/ioctl"
	"github.com/zhangyaninga/kwin-drm/mode"
)

func TestIOCTLCodes(t *testing.T) {
	assert.Equal(t, uint32(0xc0406400), drm.IOCTLVersion)
	assert.Equal(t, uint32(0xc010640c), drm.IOCTLGetCap)
	assert.Equal(t, uint32(0x4010640d), drm.IOCTLSetClientCap)
	assert.Equal(t, ioctl.NewCode(ioctl.None, 0, 'd', 0x1f), drm.IOCTLDropMaster)
}

func TestAvailableCard(t *testing.T) {
	requireCard(t)
	v, err := drm.Available()
	require.NoError(t, err)
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		t.Fatalf("failed to get driver version: %#v", v)
	}
	if v.Major != cardInfo.version.Major && v.Minor != cardInfo.version.Minor &&
		v.Patch != cardInfo.version.Patch {
		t.Logf("Unknow driver version: %d.%d.%d", v.Major, v.Minor, v.Patch)
	}

	t.Logf("Driver name: %s", v.Name)
	t.Logf("Driver version: %d.%d.%d", v.Major, v.Minor, v.Patch)
	t.Logf("Driver date: %s", v.Date)
	t.Logf("Driver description: %s", v.Desc)
}

func TestModeRes(t *testing.T) {
	file := requireCard(t)
	mres, err := mode.GetResources(file)
	require.NoError(t, err)

	t.Logf("Number of CRTCs: %d", mres.CountCrtcs)
	t.Logf("Number of connectors: %d", mres.CountConnectors)
	t.Logf("CRTC ids: %v", mres.Crtcs)
	t.Logf("Connector ids: %v", mres.Connectors)
}

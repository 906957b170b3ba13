package mode

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTables(t *testing.T) {
	require.Len(t, DefaultLandscapeModes, 23)
	require.Len(t, DefaultPortraitModes, 23)

	for _, m := range DefaultLandscapeModes {
		assert.Greater(t, m.Hdisplay, m.Vdisplay, m.ModeName())
		assert.Equal(t, fmt.Sprintf("%dx%d", m.Hdisplay, m.Vdisplay), m.ModeName())
	}
	for _, m := range DefaultPortraitModes {
		assert.Less(t, m.Hdisplay, m.Vdisplay, m.ModeName())
	}
}

func TestDefaultTablesRefresh(t *testing.T) {
	var high int
	for _, table := range [][]Info{DefaultLandscapeModes, DefaultPortraitModes} {
		for i := range table {
			rate := RefreshRate(&table[i])
			if rate > 100000 {
				high++
				assert.InDelta(t, 120000, rate, 100)
				assert.Equal(t, uint32(120), table[i].Vrefresh)
				continue
			}
			assert.InDelta(t, 59900, rate, 200, table[i].ModeName())
			assert.Equal(t, uint32(60), table[i].Vrefresh)
		}
	}
	assert.Equal(t, 4, high)
}

func TestDefaultModes(t *testing.T) {
	assert.Equal(t, DefaultLandscapeModes, DefaultModes(1920, 1080))
	assert.Equal(t, DefaultPortraitModes, DefaultModes(1080, 1920))
	assert.Equal(t, DefaultPortraitModes, DefaultModes(1000, 1000))
}

func TestInfoBytes(t *testing.T) {
	m := DefaultLandscapeModes[14]
	b := m.Bytes()
	require.Len(t, b, 68)
	assert.Equal(t, []byte{0x04, 0x1d, 0x02, 0x00}, b[:4]) // 138500 kHz
	assert.Equal(t, "1920x1080", string(b[36:45]))
}

func TestInfoFromBytes(t *testing.T) {
	m := DefaultLandscapeModes[14]
	got, ok := InfoFromBytes(m.Bytes())
	require.True(t, ok)
	assert.Equal(t, m, got)
	assert.Equal(t, "1920x1080", got.ModeName())

	_, ok = InfoFromBytes(m.Bytes()[:40])
	assert.False(t, ok)
}

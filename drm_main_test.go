package drm_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/zhangyaninga/kwin-drm"
)

type (
	cardDetail struct {
		version      drm.Version
		capabilities map[uint64]uint64
	}
)

var (
	card, errCard = drm.Available()
	cards         = map[string]cardDetail{
		"i915": {
			version: drm.Version{
				Major: 1,
				Minor: 6,
				Patch: 1,
				Name:  "i915",
				Desc:  "i915",
				Date:  "20160425",
			},
			capabilities: map[uint64]uint64{
				drm.CapDumbBuffer:         1,
				drm.CapVBlankHighCRTC:     1,
				drm.CapDumbPreferredDepth: 24,
				drm.CapDumbPreferShadow:   1,
				drm.CapTimestampMonotonic: 1,
				drm.CapCursorWidth:        256,
				drm.CapCursorHeight:       256,
			},
		},
	}
	cardInfo cardDetail
	hasCard  bool
)

func TestMain(m *testing.M) {
	if errCard != nil {
		fmt.Fprintf(os.Stderr, "No graphics card available, hardware tests are skipped\n")
	} else {
		cardInfo, hasCard = cards[card.Name]
		if !hasCard {
			fmt.Fprintf(os.Stderr, "No tests for card '%s'\n", card.Name)
		}
	}
	os.Exit(m.Run())
}

func requireCard(t *testing.T) *os.File {
	t.Helper()
	if !hasCard {
		t.Skip("no known graphics card")
	}
	file, err := drm.OpenCard(0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { file.Close() })
	return file
}

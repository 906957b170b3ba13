package drm_test

import (
	"fmt"

	"github.com/zhangyaninga/kwin-drm"
)

func ExampleGetCap() {
	// A display server needs the cursor plane limits before it allocates
	// cursor buffers.
	file, err := drm.OpenCard(0)
	if err != nil {
		fmt.Printf("error: %s", err.Error())
		return
	}
	defer file.Close()
	w, h := drm.CursorSize(file)
	fmt.Printf("cursor %dx%d\n", w, h)
}

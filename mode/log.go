package mode

import (
	"github.com/linuxdeepin/go-lib/log"
)

var logger = log.NewLogger("kwin/drm/mode")

package mode

import (
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/xerrors"

	"github.com/zhangyaninga/kwin-drm"
	"github.com/zhangyaninga/kwin-drm/ioctl"
)

// Commit flags, see DRM_MODE_PAGE_FLIP_* and DRM_MODE_ATOMIC_*.
const (
	PageFlipEvent = 0x01
	PageFlipAsync = 0x02

	AtomicTestOnly     = 0x0100
	AtomicNonblock     = 0x0200
	AtomicAllowModeset = 0x0400
)

type (
	sysAtomic struct {
		flags         uint32
		countObjs     uint32
		objsPtr       uintptr
		countPropsPtr uintptr
		propsPtr      uintptr
		propValuesPtr uintptr
		reserved      uint64
		userData      uint64
	}

	atomicItem struct {
		object, property uint32
		value            uint64
	}

	// AtomicReq collects property changes for one atomic commit.
	AtomicReq struct {
		items []atomicItem
	}
)

var (
	// DRM_IOWR(0xBC, struct drm_mode_atomic)
	IOCTLModeAtomic = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysAtomic{})), drm.IOCTLBase, 0xBC)
)

func NewAtomicReq() *AtomicReq {
	return &AtomicReq{}
}

// Add queues value for the property of the object. A later Add of the same
// property replaces the earlier value.
func (r *AtomicReq) Add(object, property uint32, value uint64) {
	r.items = append(r.items, atomicItem{object, property, value})
}

// Len is the number of queued changes, duplicates included.
func (r *AtomicReq) Len() int {
	return len(r.items)
}

// Arrays flattens the request into the layout the kernel expects: objects in
// first-seen order, each followed by its properties in first-seen order.
func (r *AtomicReq) Arrays() (objs, counts, props []uint32, values []uint64) {
	type entry struct {
		props  []uint32
		values []uint64
		index  map[uint32]int
	}
	byObj := make(map[uint32]*entry)
	for _, it := range r.items {
		e, ok := byObj[it.object]
		if !ok {
			e = &entry{index: make(map[uint32]int)}
			byObj[it.object] = e
			objs = append(objs, it.object)
		}
		if i, ok := e.index[it.property]; ok {
			e.values[i] = it.value
			continue
		}
		e.index[it.property] = len(e.props)
		e.props = append(e.props, it.property)
		e.values = append(e.values, it.value)
	}
	for _, o := range objs {
		e := byObj[o]
		counts = append(counts, uint32(len(e.props)))
		props = append(props, e.props...)
		values = append(values, e.values...)
	}
	return
}

// AtomicCommit submits the request. userData comes back in the flip
// completion event when PageFlipEvent is set.
func AtomicCommit(file *os.File, req *AtomicReq, flags uint32, userData uint64) error {
	objs, counts, props, values := req.Arrays()
	a := &sysAtomic{
		flags:     flags,
		countObjs: uint32(len(objs)),
		userData:  userData,
	}
	if len(objs) > 0 {
		a.objsPtr = uintptr(unsafe.Pointer(&objs[0]))
		a.countPropsPtr = uintptr(unsafe.Pointer(&counts[0]))
		a.propsPtr = uintptr(unsafe.Pointer(&props[0]))
		a.propValuesPtr = uintptr(unsafe.Pointer(&values[0]))
	}
	err := ioctl.DoPtr(file.Fd(), IOCTLModeAtomic, a)
	runtime.KeepAlive(objs)
	runtime.KeepAlive(counts)
	runtime.KeepAlive(props)
	runtime.KeepAlive(values)
	if err != nil {
		return xerrors.Errorf("DRM_IOCTL_MODE_ATOMIC flags %#x: %w", flags, err)
	}
	return nil
}

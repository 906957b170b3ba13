package mode

import (
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/xerrors"

	"github.com/zhangyaninga/kwin-drm"
	"github.com/zhangyaninga/kwin-drm/ioctl"
)

// Object types, see DRM_MODE_OBJECT_*.
const (
	ObjectCrtc      = 0xcccccccc
	ObjectConnector = 0xc0c0c0c0
	ObjectEncoder   = 0xe0e0e0e0
	ObjectMode      = 0xdededede
	ObjectProperty  = 0xb0b0b0b0
	ObjectFB        = 0xfbfbfbfb
	ObjectBlob      = 0xbbbbbbbb
	ObjectPlane     = 0xeeeeeeee
	ObjectAny       = 0
)

// Property flags, see DRM_MODE_PROP_*.
const (
	PropPending   = 1 << 0
	PropRange     = 1 << 1
	PropImmutable = 1 << 2
	PropEnum      = 1 << 3
	PropBlob      = 1 << 4
	PropBitmask   = 1 << 5
	PropAtomic    = 0x80000000
)

type (
	sysGetProperty struct {
		valuesPtr   uintptr
		enumBlobPtr uintptr

		propID uint32
		flags  uint32
		name   [PropNameLen]uint8

		countValues    uint32
		countEnumBlobs uint32
	}

	sysPropertyEnum struct {
		value uint64
		name  [PropNameLen]uint8
	}

	sysGetBlob struct {
		blobID uint32
		length uint32
		data   uintptr
	}

	sysObjGetProperties struct {
		propsPtr      uintptr
		propValuesPtr uintptr
		countProps    uint32
		objID         uint32
		objType       uint32
		pad           uint32
	}

	sysObjSetProperty struct {
		value   uint64
		propID  uint32
		objID   uint32
		objType uint32
		pad     uint32
	}

	sysConnectorSetProperty struct {
		value       uint64
		propID      uint32
		connectorID uint32
	}

	sysCreateBlob struct {
		data   uintptr
		length uint32
		blobID uint32
	}

	sysDestroyBlob struct {
		blobID uint32
	}

	PropertyEnum struct {
		Value uint64
		Name  string
	}

	Property struct {
		ID     uint32
		Name   string
		Flags  uint32
		Values []uint64
		Enums  []PropertyEnum
	}
)

var (
	// DRM_IOWR(0xAA, struct drm_mode_get_property)
	IOCTLModeGetProperty = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysGetProperty{})), drm.IOCTLBase, 0xAA)

	// DRM_IOWR(0xAB, struct drm_mode_connector_set_property)
	IOCTLModeConnectorSetProperty = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysConnectorSetProperty{})), drm.IOCTLBase, 0xAB)

	// DRM_IOWR(0xAC, struct drm_mode_get_blob)
	IOCTLModeGetPropBlob = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysGetBlob{})), drm.IOCTLBase, 0xAC)

	// DRM_IOWR(0xB9, struct drm_mode_obj_get_properties)
	IOCTLModeObjGetProperties = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysObjGetProperties{})), drm.IOCTLBase, 0xB9)

	// DRM_IOWR(0xBA, struct drm_mode_obj_set_property)
	IOCTLModeObjSetProperty = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysObjSetProperty{})), drm.IOCTLBase, 0xBA)

	// DRM_IOWR(0xBD, struct drm_mode_create_blob)
	IOCTLModeCreatePropBlob = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysCreateBlob{})), drm.IOCTLBase, 0xBD)

	// DRM_IOWR(0xBE, struct drm_mode_destroy_blob)
	IOCTLModeDestroyPropBlob = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysDestroyBlob{})), drm.IOCTLBase, 0xBE)
)

// IsEnum reports whether the property values are named (enum or bitmask).
func (p *Property) IsEnum() bool {
	return p.Flags&(PropEnum|PropBitmask) != 0
}

// EnumValue looks up the value of a named enum entry.
func (p *Property) EnumValue(name string) (uint64, bool) {
	for _, e := range p.Enums {
		if e.Name == name {
			return e.Value, true
		}
	}
	return 0, false
}

func GetProperty(file *os.File, id uint32) (*Property, error) {
	prop := &sysGetProperty{propID: id}
	err := ioctl.DoPtr(file.Fd(), IOCTLModeGetProperty, prop)
	if err != nil {
		return nil, xerrors.Errorf("DRM_IOCTL_MODE_GETPROPERTY %d: %w", id, err)
	}

	var (
		values []uint64
		enums  []sysPropertyEnum
	)
	if prop.countValues > 0 {
		values = make([]uint64, prop.countValues)
		prop.valuesPtr = uintptr(unsafe.Pointer(&values[0]))
	}
	isEnum := prop.flags&(PropEnum|PropBitmask) != 0
	if isEnum && prop.countEnumBlobs > 0 {
		enums = make([]sysPropertyEnum, prop.countEnumBlobs)
		prop.enumBlobPtr = uintptr(unsafe.Pointer(&enums[0]))
	} else {
		prop.countEnumBlobs = 0
	}

	err = ioctl.DoPtr(file.Fd(), IOCTLModeGetProperty, prop)
	runtime.KeepAlive(values)
	runtime.KeepAlive(enums)
	if err != nil {
		return nil, xerrors.Errorf("DRM_IOCTL_MODE_GETPROPERTY %d: %w", id, err)
	}

	ret := &Property{
		ID:     prop.propID,
		Name:   cstring(prop.name[:]),
		Flags:  prop.flags,
		Values: values[:min(len(values), int(prop.countValues))],
	}
	for i := 0; i < len(enums) && i < int(prop.countEnumBlobs); i++ {
		ret.Enums = append(ret.Enums, PropertyEnum{
			Value: enums[i].value,
			Name:  cstring(enums[i].name[:]),
		})
	}
	return ret, nil
}

func GetPropertyBlob(file *os.File, id uint32) ([]byte, error) {
	blob := &sysGetBlob{blobID: id}
	err := ioctl.DoPtr(file.Fd(), IOCTLModeGetPropBlob, blob)
	if err != nil {
		return nil, xerrors.Errorf("DRM_IOCTL_MODE_GETPROPBLOB %d: %w", id, err)
	}
	if blob.length == 0 {
		return nil, nil
	}
	data := make([]byte, blob.length)
	blob.data = uintptr(unsafe.Pointer(&data[0]))
	err = ioctl.DoPtr(file.Fd(), IOCTLModeGetPropBlob, blob)
	runtime.KeepAlive(data)
	if err != nil {
		return nil, xerrors.Errorf("DRM_IOCTL_MODE_GETPROPBLOB %d: %w", id, err)
	}
	return data[:min(len(data), int(blob.length))], nil
}

// ObjectProperties returns the property ids of a mode object together with
// their current values.
func ObjectProperties(file *os.File, objID, objType uint32) ([]uint32, []uint64, error) {
	req := &sysObjGetProperties{objID: objID, objType: objType}
	err := ioctl.DoPtr(file.Fd(), IOCTLModeObjGetProperties, req)
	if err != nil {
		return nil, nil, xerrors.Errorf("DRM_IOCTL_MODE_OBJ_GETPROPERTIES %d: %w", objID, err)
	}
	if req.countProps == 0 {
		return nil, nil, nil
	}
	props := make([]uint32, req.countProps)
	values := make([]uint64, req.countProps)
	req.propsPtr = uintptr(unsafe.Pointer(&props[0]))
	req.propValuesPtr = uintptr(unsafe.Pointer(&values[0]))
	err = ioctl.DoPtr(file.Fd(), IOCTLModeObjGetProperties, req)
	runtime.KeepAlive(props)
	runtime.KeepAlive(values)
	if err != nil {
		return nil, nil, xerrors.Errorf("DRM_IOCTL_MODE_OBJ_GETPROPERTIES %d: %w", objID, err)
	}
	n := min(len(props), int(req.countProps))
	return props[:n], values[:n], nil
}

func ObjectSetProperty(file *os.File, objID, objType, propID uint32, value uint64) error {
	req := &sysObjSetProperty{value: value, propID: propID, objID: objID, objType: objType}
	err := ioctl.DoPtr(file.Fd(), IOCTLModeObjSetProperty, req)
	if err != nil {
		return xerrors.Errorf("DRM_IOCTL_MODE_OBJ_SETPROPERTY %d/%d: %w", objID, propID, err)
	}
	return nil
}

func ConnectorSetProperty(file *os.File, connID, propID uint32, value uint64) error {
	req := &sysConnectorSetProperty{value: value, propID: propID, connectorID: connID}
	err := ioctl.DoPtr(file.Fd(), IOCTLModeConnectorSetProperty, req)
	if err != nil {
		return xerrors.Errorf("DRM_IOCTL_MODE_SETPROPERTY %d/%d: %w", connID, propID, err)
	}
	return nil
}

func CreatePropertyBlob(file *os.File, data []byte) (uint32, error) {
	if len(data) == 0 {
		return 0, xerrors.New("empty property blob")
	}
	req := &sysCreateBlob{
		data:   uintptr(unsafe.Pointer(&data[0])),
		length: uint32(len(data)),
	}
	err := ioctl.DoPtr(file.Fd(), IOCTLModeCreatePropBlob, req)
	runtime.KeepAlive(data)
	if err != nil {
		return 0, xerrors.Errorf("DRM_IOCTL_MODE_CREATEPROPBLOB: %w", err)
	}
	return req.blobID, nil
}

func DestroyPropertyBlob(file *os.File, id uint32) error {
	err := ioctl.DoPtr(file.Fd(), IOCTLModeDestroyPropBlob, &sysDestroyBlob{blobID: id})
	if err != nil {
		return xerrors.Errorf("DRM_IOCTL_MODE_DESTROYPROPBLOB %d: %w", id, err)
	}
	return nil
}

func cstring(b []uint8) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

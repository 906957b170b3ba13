// Package edid decodes the identity and size fields of a monitor's EDID
// base block.
package edid

import (
	"bytes"
	"strconv"

	"github.com/linuxdeepin/go-lib/utils"
)

const (
	BlockLen = 128

	eisaOffset       = 0x08
	serialOffset     = 0x0c
	sizeOffset       = 0x15
	descriptorOffset = 0x36
	descriptorLen    = 18
	descriptorCount  = 5
	descriptorText   = 13

	tagSerial    = 0xff
	tagASCII     = 0xfe
	tagMonitorNm = 0xfc
)

var header = []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}

// Size is a physical size in millimeters.
type Size struct {
	Width, Height int
}

func (s Size) IsEmpty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// EDID holds the fields of a monitor's EDID that identify it. The zero value
// is what an unparsable blob decodes to.
type EDID struct {
	EisaID       string
	MonitorName  string
	SerialNumber string
	PhysicalSize Size
	// Raw is the 128 byte base block.
	Raw []byte
}

// Parse decodes blob. Blobs shorter than one block or with a bad header
// yield an empty EDID.
func Parse(blob []byte) EDID {
	var e EDID
	if len(blob) < BlockLen || !bytes.Equal(blob[:len(header)], header) {
		return e
	}
	e.Raw = append([]byte(nil), blob[:BlockLen]...)
	e.EisaID = eisaID(blob)
	e.SerialNumber = serialNumber(blob)
	e.PhysicalSize = Size{int(blob[sizeOffset]) * 10, int(blob[sizeOffset+1]) * 10}

	var name, ascii, serial string
	for i := 0; i < descriptorCount; i++ {
		co := descriptorOffset + i*descriptorLen
		// the fifth block only exists when extension blocks follow
		if co+descriptorLen > len(blob) {
			break
		}
		d := blob[co : co+descriptorLen]
		// flag and reserved bytes are zero when the block is a descriptor
		if d[0] != 0 || d[1] != 0 || d[2] != 0 {
			continue
		}
		switch d[3] {
		case tagMonitorNm:
			if name == "" {
				name = text(d)
			}
		case tagASCII:
			if ascii == "" {
				ascii = text(d)
			}
		case tagSerial:
			if serial == "" {
				serial = text(d)
			}
		}
	}
	e.MonitorName = name
	if ascii != "" {
		e.EisaID = ascii
	}
	if serial != "" {
		e.SerialNumber = serial
	}
	return e
}

// IsValid reports whether a blob was decoded.
func (e *EDID) IsValid() bool {
	return len(e.Raw) == BlockLen
}

// UUID derives the stable output identifier: the first ten hex digits of
// the md5 sum over the connector id and the identity fields.
func (e *EDID) UUID(connectorID uint32) string {
	sum, _ := utils.SumStrMd5(strconv.FormatUint(uint64(connectorID), 10) +
		e.EisaID + e.MonitorName + e.SerialNumber)
	if len(sum) < 10 {
		return ""
	}
	return sum[:10]
}

// Compressed ASCII, five bits per letter, 1 is 'A'.
func eisaID(blob []byte) string {
	b0, b1 := blob[eisaOffset], blob[eisaOffset+1]
	if b0>>7 != 0 {
		return ""
	}
	id := []byte{
		'A' + (b0>>2)&0x1f - 1,
		'A' + ((b0&0x3)<<3 | (b1>>5)&0x7) - 1,
		'A' + b1&0x1f - 1,
	}
	return string(id)
}

func serialNumber(blob []byte) string {
	b := blob[serialOffset:]
	n := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	if n == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(n), 10)
}

func text(d []byte) string {
	t := d[5 : 5+descriptorText]
	if i := bytes.IndexByte(t, '\n'); i >= 0 {
		t = t[:i]
	}
	return string(bytes.TrimSpace(t))
}

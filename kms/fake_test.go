package kms

import (
	"image"
	"os"

	"golang.org/x/xerrors"

	"github.com/zhangyaninga/kwin-drm/mode"
	"github.com/zhangyaninga/kwin-drm/output"
)

var errFake = xerrors.New("fake failure")

type fakeCommit struct {
	flags    uint32
	userData uint64
	values   map[uint32]map[uint32]uint64 // object -> property -> value
}

func (c fakeCommit) has(obj, prop uint32) bool {
	_, ok := c.values[obj][prop]
	return ok
}

func (c fakeCommit) count() int {
	n := 0
	for _, props := range c.values {
		n += len(props)
	}
	return n
}

type cursorCall struct {
	crtc, handle, width, height uint32
}

type fakeDevice struct {
	nextID uint32

	crtcIDs, connectorIDs, encoderIDs, planeIDs []uint32

	crtcs      map[uint32]*mode.Crtc
	connectors map[uint32]*mode.Connector
	encoders   map[uint32]*mode.Encoder
	planes     map[uint32]*mode.Plane
	props      map[uint32]*mode.Property
	objProps   map[uint32][]uint32
	values     map[uint32]map[uint32]uint64
	blobs      map[uint32][]byte

	commits      []fakeCommit
	commitErr    func(flags uint32) error
	setCrtcFbs   []uint32
	flips        []uint32
	cursors      []cursorCall
	cursorMoves  []image.Point
	connSets     []uint64
	setPropErr   error
	objSets      []uint64
	gammaSizes   []int
	dumbs        int
	dumbsFreed   int
	destroyBlobs []uint32

	events chan []mode.Event
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		nextID:     100,
		crtcs:      make(map[uint32]*mode.Crtc),
		connectors: make(map[uint32]*mode.Connector),
		encoders:   make(map[uint32]*mode.Encoder),
		planes:     make(map[uint32]*mode.Plane),
		props:      make(map[uint32]*mode.Property),
		objProps:   make(map[uint32][]uint32),
		values:     make(map[uint32]map[uint32]uint64),
		blobs:      make(map[uint32][]byte),
		events:     make(chan []mode.Event),
	}
}

func (d *fakeDevice) id() uint32 {
	d.nextID++
	return d.nextID
}

func (d *fakeDevice) addProp(obj uint32, name string, value uint64, enums ...mode.PropertyEnum) uint32 {
	id := d.id()
	p := &mode.Property{ID: id, Name: name, Enums: enums}
	if len(enums) > 0 {
		p.Flags = mode.PropEnum
	}
	d.props[id] = p
	d.objProps[obj] = append(d.objProps[obj], id)
	if d.values[obj] == nil {
		d.values[obj] = make(map[uint32]uint64)
	}
	d.values[obj][id] = value
	return id
}

// propID finds the id of the named property of obj.
func (d *fakeDevice) propID(obj uint32, name string) uint32 {
	for _, id := range d.objProps[obj] {
		if d.props[id].Name == name {
			return id
		}
	}
	return 0
}

func (d *fakeDevice) addCrtc(gammaSize int) uint32 {
	id := d.id()
	d.crtcIDs = append(d.crtcIDs, id)
	d.crtcs[id] = &mode.Crtc{ID: id, GammaSize: gammaSize}
	d.addProp(id, "MODE_ID", 0)
	d.addProp(id, "ACTIVE", 0)
	return id
}

func (d *fakeDevice) addEncoder(possibleCrtcs uint32) uint32 {
	id := d.id()
	d.encoderIDs = append(d.encoderIDs, id)
	d.encoders[id] = &mode.Encoder{ID: id, PossibleCrtcs: possibleCrtcs}
	return id
}

func (d *fakeDevice) addConnector(typ uint32, scaling bool, encoder uint32, modes ...mode.Info) *mode.Connector {
	id := d.id()
	d.connectorIDs = append(d.connectorIDs, id)
	c := &mode.Connector{
		ID:         id,
		Type:       typ,
		TypeID:     1,
		Connection: mode.Connected,
		Width:      310,
		Height:     170,
		Modes:      modes,
		Encoders:   []uint32{encoder},
	}
	d.connectors[id] = c
	d.addProp(id, "CRTC_ID", 0)
	d.addProp(id, "DPMS", 0,
		mode.PropertyEnum{Value: 0, Name: "On"},
		mode.PropertyEnum{Value: 3, Name: "Off"})
	d.addProp(id, "EDID", 0)
	if scaling {
		d.addProp(id, "scaling mode", 0)
	}
	return c
}

func (d *fakeDevice) addPlane(typ int, possibleCrtcs uint32) uint32 {
	id := d.id()
	d.planeIDs = append(d.planeIDs, id)
	d.planes[id] = &mode.Plane{ID: id, PossibleCrtcs: possibleCrtcs, Formats: []uint32{0x34325258}}
	d.addProp(id, "type", uint64(typ))
	for _, name := range []string{"SRC_X", "SRC_Y", "SRC_W", "SRC_H",
		"CRTC_X", "CRTC_Y", "CRTC_W", "CRTC_H", "FB_ID", "CRTC_ID"} {
		d.addProp(id, name, 0)
	}
	d.addProp(id, "rotation", uint64(Rotate0),
		mode.PropertyEnum{Value: 0, Name: "rotate-0"},
		mode.PropertyEnum{Value: 1, Name: "rotate-90"},
		mode.PropertyEnum{Value: 2, Name: "rotate-180"},
		mode.PropertyEnum{Value: 3, Name: "rotate-270"})
	d.props[d.propID(id, "rotation")].Flags = mode.PropBitmask
	return id
}

func (d *fakeDevice) lastCommit() fakeCommit {
	if len(d.commits) == 0 {
		return fakeCommit{}
	}
	return d.commits[len(d.commits)-1]
}

func (d *fakeDevice) Resources() (*mode.Resources, error) {
	return &mode.Resources{
		Crtcs:      append([]uint32(nil), d.crtcIDs...),
		Connectors: append([]uint32(nil), d.connectorIDs...),
		Encoders:   append([]uint32(nil), d.encoderIDs...),
	}, nil
}

func (d *fakeDevice) PlaneResources() ([]uint32, error) {
	return append([]uint32(nil), d.planeIDs...), nil
}

func (d *fakeDevice) Connector(id uint32) (*mode.Connector, error) {
	c, ok := d.connectors[id]
	if !ok {
		return nil, os.ErrNotExist
	}
	cp := *c
	return &cp, nil
}

func (d *fakeDevice) Encoder(id uint32) (*mode.Encoder, error) {
	e, ok := d.encoders[id]
	if !ok {
		return nil, os.ErrNotExist
	}
	return e, nil
}

func (d *fakeDevice) Crtc(id uint32) (*mode.Crtc, error) {
	c, ok := d.crtcs[id]
	if !ok {
		return nil, os.ErrNotExist
	}
	return c, nil
}

func (d *fakeDevice) Plane(id uint32) (*mode.Plane, error) {
	p, ok := d.planes[id]
	if !ok {
		return nil, os.ErrNotExist
	}
	return p, nil
}

func (d *fakeDevice) Property(id uint32) (*mode.Property, error) {
	p, ok := d.props[id]
	if !ok {
		return nil, os.ErrNotExist
	}
	return p, nil
}

func (d *fakeDevice) PropertyBlob(id uint32) ([]byte, error) {
	b, ok := d.blobs[id]
	if !ok {
		return nil, os.ErrNotExist
	}
	return b, nil
}

func (d *fakeDevice) ObjectProperties(objID, objType uint32) ([]uint32, []uint64, error) {
	ids := d.objProps[objID]
	values := make([]uint64, len(ids))
	for i, id := range ids {
		values[i] = d.values[objID][id]
	}
	return ids, values, nil
}

func (d *fakeDevice) ConnectorSetProperty(connID, propID uint32, value uint64) error {
	if d.setPropErr != nil {
		return d.setPropErr
	}
	d.connSets = append(d.connSets, value)
	d.values[connID][propID] = value
	return nil
}

func (d *fakeDevice) ObjectSetProperty(objID, objType, propID uint32, value uint64) error {
	if d.setPropErr != nil {
		return d.setPropErr
	}
	d.objSets = append(d.objSets, value)
	d.values[objID][propID] = value
	return nil
}

func (d *fakeDevice) CreatePropertyBlob(data []byte) (uint32, error) {
	id := d.id()
	d.blobs[id] = append([]byte(nil), data...)
	return id, nil
}

func (d *fakeDevice) DestroyPropertyBlob(id uint32) error {
	if _, ok := d.blobs[id]; !ok {
		return os.ErrNotExist
	}
	delete(d.blobs, id)
	d.destroyBlobs = append(d.destroyBlobs, id)
	return nil
}

func (d *fakeDevice) AtomicCommit(req *mode.AtomicReq, flags uint32, userData uint64) error {
	if d.commitErr != nil {
		if err := d.commitErr(flags); err != nil {
			return err
		}
	}
	c := fakeCommit{flags: flags, userData: userData, values: make(map[uint32]map[uint32]uint64)}
	objs, counts, props, values := req.Arrays()
	k := 0
	for i, obj := range objs {
		c.values[obj] = make(map[uint32]uint64)
		for j := 0; j < int(counts[i]); j++ {
			c.values[obj][props[k]] = values[k]
			k++
		}
	}
	d.commits = append(d.commits, c)
	return nil
}

func (d *fakeDevice) SetCrtc(crtcID, fbID, x, y uint32, connectors []uint32, m *mode.Info) error {
	d.setCrtcFbs = append(d.setCrtcFbs, fbID)
	return nil
}

func (d *fakeDevice) PageFlip(crtcID, fbID, flags uint32, userData uint64) error {
	d.flips = append(d.flips, fbID)
	return nil
}

func (d *fakeDevice) SetCursor(crtcID, handle, width, height uint32) error {
	d.cursors = append(d.cursors, cursorCall{crtcID, handle, width, height})
	return nil
}

func (d *fakeDevice) MoveCursor(crtcID uint32, x, y int32) error {
	d.cursorMoves = append(d.cursorMoves, image.Pt(int(x), int(y)))
	return nil
}

func (d *fakeDevice) SetGamma(crtcID uint32, red, green, blue []uint16) error {
	d.gammaSizes = append(d.gammaSizes, len(red))
	return nil
}

func (d *fakeDevice) CreateDumb(width, height uint16, bpp uint32) (*mode.FB, error) {
	d.dumbs++
	pitch := uint32(width) * bpp / 8
	return &mode.FB{
		Width:  uint32(width),
		Height: uint32(height),
		BPP:    bpp,
		Handle: d.id(),
		Pitch:  pitch,
		Size:   uint64(pitch) * uint64(height),
	}, nil
}

func (d *fakeDevice) AddFB(width, height uint16, depth, bpp uint8, pitch, handle uint32) (uint32, error) {
	return d.id(), nil
}

func (d *fakeDevice) RmFB(fbID uint32) error { return nil }

func (d *fakeDevice) DestroyDumb(handle uint32) error {
	d.dumbsFreed++
	return nil
}

func (d *fakeDevice) MapDumb(handle uint32, size uint64) ([]byte, error) {
	return make([]byte, size), nil
}

func (d *fakeDevice) Unmap(data []byte) error { return nil }

func (d *fakeDevice) ReadEvents() ([]mode.Event, error) {
	evs, ok := <-d.events
	if !ok {
		return nil, os.ErrClosed
	}
	return evs, nil
}

type fakeBuffer struct {
	fb       uint32
	size     output.Size
	released int
}

func (b *fakeBuffer) FbID() uint32      { return b.fb }
func (b *fakeBuffer) Handle() uint32    { return b.fb }
func (b *fakeBuffer) Stride() uint32    { return uint32(b.size.Width * 4) }
func (b *fakeBuffer) Size() output.Size { return b.size }
func (b *fakeBuffer) Release()          { b.released++ }

type recorder struct {
	dpms         []output.DpmsMode
	current      []output.Size
	modeChanged  int
	disconnected bool
	swaps        int
	repaints     int
}

func (r *recorder) Init(output.DeviceInfo)              {}
func (r *recorder) SetModes([]output.Mode)              {}
func (r *recorder) SetCurrentMode(s output.Size, _ int) { r.current = append(r.current, s) }
func (r *recorder) SetGlobalPosition(image.Point)       {}
func (r *recorder) SetScale(int, float64)               {}
func (r *recorder) SetLogicalSize(output.Size)          {}
func (r *recorder) SetTransform(output.Transform)       {}
func (r *recorder) SetDpmsMode(m output.DpmsMode)       { r.dpms = append(r.dpms, m) }
func (r *recorder) SetEnabled(bool)                     {}
func (r *recorder) ModeChanged()                        { r.modeChanged++ }
func (r *recorder) Damaged(image.Rectangle)             {}
func (r *recorder) Disconnected()                       { r.disconnected = true }
func (r *recorder) AddRepaintFull()                     { r.repaints++ }
func (r *recorder) BufferSwapComplete()                 { r.swaps++ }

type fakeSession struct {
	active bool
}

func (s *fakeSession) IsActive() bool { return s.active }

type fakeCursor struct {
	img     image.Image
	hotspot image.Point
}

func (c *fakeCursor) Cursor() (image.Image, image.Point, float64) {
	return c.img, c.hotspot, 1
}

package kms

import (
	"image"
	"image/color"

	"github.com/davecgh/go-spew/spew"
	"golang.org/x/image/draw"
	"golang.org/x/xerrors"

	"github.com/zhangyaninga/kwin-drm/edid"
	"github.com/zhangyaninga/kwin-drm/mode"
	"github.com/zhangyaninga/kwin-drm/output"
)

type commitMode int

const (
	commitTest commitMode = iota
	commitReal
)

// lastWorkingState is what the last successful atomic mode set applied.
type lastWorkingState struct {
	valid               bool
	mode                mode.Info
	transform           output.Transform
	pos                 image.Point
	planeTransformation Transformations
}

// Output is a connector driven through a CRTC. Its methods must be called
// from the backend's event loop.
type Output struct {
	*output.Output

	backend *Backend
	dev     Device
	token   uint64

	conn    *Connector
	crtc    *Crtc
	primary *Plane

	mode          mode.Info
	blobID        uint32
	pendingBlobID uint32
	edid          edid.EDID
	hasEdid       bool

	dpmsMode             output.DpmsMode
	dpmsModePending      output.DpmsMode
	dpmsAtomicOffPending bool
	modesetRequested     bool
	pageFlipPending      bool
	teardown             bool
	deleted              bool

	nextPlanesFlipList []*Plane
	lastWorkingState   lastWorkingState

	cursor       [2]*DumbBuffer
	cursorIndex  int
	hasNewCursor bool
	showPending  bool
	hidePending  bool

	black *DumbBuffer
}

func newOutput(b *Backend, conn *Connector, crtc *Crtc, publisher output.Publisher) *Output {
	o := &Output{
		backend:          b,
		dev:              b.dev,
		token:            uint64(conn.id),
		conn:             conn,
		crtc:             crtc,
		modesetRequested: true,
	}
	o.Output = output.New(o, publisher, b.compositor)
	return o
}

// Token identifies the output in page flip events. It is the connector id.
func (o *Output) Token() uint64 {
	return o.token
}

func (o *Output) Connector() *Connector { return o.conn }
func (o *Output) Crtc() *Crtc           { return o.crtc }
func (o *Output) PrimaryPlane() *Plane  { return o.primary }
func (o *Output) DpmsMode() output.DpmsMode {
	return o.dpmsMode
}

// Mode is the timing the output drives or will drive after the next
// mode set.
func (o *Output) Mode() mode.Info {
	return o.mode
}

func (o *Output) IsPageFlipPending() bool {
	return o.pageFlipPending
}

func (o *Output) init() error {
	if err := o.pickMode(); err != nil {
		return err
	}
	o.edid, o.hasEdid = o.conn.Edid()
	if !o.conn.HasDpms() {
		logger.Debugf("%s: no DPMS property", o.conn.Name())
	}

	if o.backend.atomic {
		p, err := o.backend.registry.ClaimPlane(mode.PlanePrimary, o.crtc, o.token)
		if err != nil {
			return xerrors.Errorf("%s: %w", o.conn.Name(), err)
		}
		o.primary = p
	} else {
		// legacy mode uses the plane only to rotate in hardware
		if p, err := o.backend.registry.ClaimPlane(mode.PlanePrimary, o.crtc, o.token); err == nil {
			o.primary = p
		}
		if !o.blank() {
			return xerrors.Errorf("%s: blanking crtc %d failed", o.conn.Name(), o.crtc.id)
		}
	}

	o.Output.Init(o.deviceInfo())
	o.PublishDpmsMode(output.DpmsOn)
	return nil
}

// pickMode keeps what the CRTC already shows when the connector offers it,
// else the preferred timing.
func (o *Output) pickMode() error {
	modes := o.conn.Modes()
	if len(modes) == 0 {
		return xerrors.Errorf("%s: no modes", o.conn.Name())
	}
	if boot := o.crtc.bootMode; boot != nil {
		for i := range modes {
			if modes[i].Equal(boot) {
				o.mode = modes[i]
				return nil
			}
		}
	}
	for i := range modes {
		if modes[i].Type&mode.TypePreferred != 0 {
			o.mode = modes[i]
			return nil
		}
	}
	o.mode = modes[0]
	return nil
}

func (o *Output) deviceInfo() output.DeviceInfo {
	name := o.conn.Name()
	w, h := o.conn.PhysicalSize()
	info := output.DeviceInfo{
		Name:         name,
		Model:        name + "-" + modelName(&o.edid),
		Internal:     o.conn.IsInternal(),
		PhysicalSize: output.Size{Width: int(w), Height: int(h)},
		UUID:         o.edid.UUID(o.conn.id),
		Modes:        o.modeCatalog(),
	}
	if o.hasEdid {
		info.Edid = o.edid.Raw
		info.Manufacturer = o.edid.EisaID
		if s := o.edid.PhysicalSize; !s.IsEmpty() {
			info.PhysicalSize = output.Size{Width: s.Width, Height: s.Height}
		}
	}
	if o.backend.overrides != nil {
		if s, ok := o.backend.overrides.PhysicalSize(o.edid.EisaID, o.edid.MonitorName, o.edid.SerialNumber); ok {
			logger.Debugf("%s: physical size overridden to %v", name, s)
			info.PhysicalSize = s
		}
	}
	return info
}

func modelName(e *edid.EDID) string {
	switch {
	case e.MonitorName != "" && e.SerialNumber != "":
		return e.MonitorName + "/" + e.SerialNumber
	case e.MonitorName != "":
		return e.MonitorName
	case e.SerialNumber != "":
		return e.SerialNumber
	}
	return "unknown"
}

func modeSize(m *mode.Info) output.Size {
	return output.Size{Width: int(m.Hdisplay), Height: int(m.Vdisplay)}
}

// modeCatalog lists the connector's modes. A scaling capable internal panel
// offering a single mode also gets the default timings that fit into it.
func (o *Output) modeCatalog() []output.Mode {
	modes := o.conn.Modes()
	catalog := make([]output.Mode, 0, len(modes))
	for i := range modes {
		m := &modes[i]
		om := output.Mode{ID: i, Size: modeSize(m), RefreshRate: mode.RefreshRate(m)}
		if m.Equal(&o.mode) {
			om.Flags |= output.ModeCurrent
		}
		if m.Type&mode.TypePreferred != 0 {
			om.Flags |= output.ModePreferred
		}
		catalog = append(catalog, om)
	}

	if !o.conn.IsInternal() || len(catalog) != 1 || !o.conn.ScalingCapable() {
		return catalog
	}
	native := catalog[0]
	catalog[0].Flags |= output.ModePreferred
	id := native.ID + 1
	for _, dm := range mode.DefaultModes(uint16(native.Size.Width), uint16(native.Size.Height)) {
		dm := dm
		size, rate := modeSize(&dm), mode.RefreshRate(&dm)
		if size.Width > native.Size.Width || size.Height > native.Size.Height || rate > native.RefreshRate {
			continue
		}
		om := output.Mode{ID: id, Size: size, RefreshRate: rate}
		if dm.Equal(&o.mode) {
			om.Flags |= output.ModeCurrent
		}
		catalog = append(catalog, om)
		id++
	}
	return catalog
}

func (o *Output) hardwareTransformed() bool {
	if o.primary == nil {
		return false
	}
	return o.primary.Transformation() == planeTransformation(o.Transform())
}

// BufferSize is the size frames presented on the output must have: the
// rotated size when the plane rotates, else the mode size.
func (o *Output) BufferSize() output.Size {
	if o.hardwareTransformed() {
		return o.PixelSize()
	}
	return modeSize(&o.mode)
}

// UpdateMode switches to the catalog entry at index.
func (o *Output) UpdateMode(index int) {
	if index < 0 {
		return
	}
	if err := o.conn.refresh(); err != nil {
		logger.Warning(err)
		return
	}

	var next mode.Info
	modes := o.conn.Modes()
	if index < len(modes) {
		next = modes[index]
	} else {
		catalog := o.Modes()
		if !o.conn.IsInternal() || !o.conn.ScalingCapable() || index >= len(catalog) {
			return
		}
		want := catalog[index]
		found := false
		for _, dm := range mode.DefaultModes(uint16(want.Size.Width), uint16(want.Size.Height)) {
			dm := dm
			if modeSize(&dm) == want.Size && mode.RefreshRate(&dm) == want.RefreshRate {
				next, found = dm, true
				break
			}
		}
		if !found {
			return
		}
	}

	if next.Equal(&o.mode) {
		return
	}
	logger.Debugf("%s: mode %s", o.Name(), next.ModeName())
	o.mode = next
	o.modesetRequested = true
	o.SetCurrentMode(modeSize(&next), mode.RefreshRate(&next))
}

func (o *Output) UpdateTransform(t output.Transform) {
	if o.primary != nil && !o.backend.atomic {
		if err := o.primary.applyTransformation(planeTransformation(t)); err != nil {
			logger.Debugf("%s: rotating in software: %v", o.Name(), err)
		}
	}
	o.modesetRequested = true
	o.updateCursor()
	o.showCursor()
}

func (o *Output) UpdateGamma(gamma output.GammaRamp) bool {
	if !gamma.IsValid(o.crtc.gammaSize) {
		logger.Warningf("%s: gamma ramp of %d entries, crtc takes %d", o.Name(), gamma.Size(), o.crtc.gammaSize)
		return false
	}
	if err := o.dev.SetGamma(o.crtc.id, gamma.Red, gamma.Green, gamma.Blue); err != nil {
		logger.Warningf("%s: setting gamma: %v", o.Name(), err)
		return false
	}
	return true
}

// UpdateDpms requests a power state. On atomic hardware it takes effect
// with the next commit.
func (o *Output) UpdateDpms(m output.DpmsMode) {
	if !o.conn.HasDpms() {
		return
	}
	if m == o.dpmsModePending {
		logger.Debugf("%s: DPMS already %v", o.Name(), m)
		return
	}
	o.dpmsModePending = m

	if !o.backend.atomic {
		o.dpmsLegacyApply()
		return
	}
	o.modesetRequested = true
	if m == output.DpmsOn {
		o.dpmsAtomicOffPending = false
		if o.pageFlipPending {
			o.pageFlipPending = false
			o.completeFlip()
			o.backend.flipDone()
		}
		o.dpmsOnHandler()
		return
	}
	o.dpmsAtomicOffPending = true
	if !o.pageFlipPending {
		o.dpmsAtomicOff()
	}
}

func (o *Output) UpdateEnablement(enable bool) {
	if enable {
		o.dpmsModePending = output.DpmsOn
	} else {
		o.dpmsModePending = output.DpmsOff
	}

	if o.backend.atomic {
		if enable {
			o.atomicEnable()
		} else {
			o.atomicDisable()
		}
		return
	}
	if o.dpmsLegacyApply() {
		o.backend.enableOutput(o, enable)
	}
}

func (o *Output) atomicEnable() {
	o.modesetRequested = true
	o.dpmsAtomicOffPending = false
	o.backend.enableOutput(o, true)
	o.backend.checkOutputsAreOn()
	o.RepaintFull()
}

func (o *Output) atomicDisable() {
	if o.teardown {
		return
	}
	o.modesetRequested = true
	o.backend.enableOutput(o, false)
	o.dpmsAtomicOffPending = true
	if !o.pageFlipPending {
		o.dpmsAtomicOff()
	}
}

func (o *Output) dpmsOnHandler() {
	logger.Debugf("%s: DPMS on", o.Name())
	o.PublishDpmsMode(o.dpmsModePending)
	if !o.backend.softwareCursor {
		o.showPending = true
	}
	o.backend.checkOutputsAreOn()
	if !o.backend.atomic {
		o.blank()
	}
	o.RepaintFull()
}

func (o *Output) dpmsOffHandler() {
	logger.Debugf("%s: DPMS off", o.Name())
	o.PublishDpmsMode(o.dpmsModePending)
	o.backend.outputWentOff()
}

func (o *Output) dpmsLegacyApply() bool {
	if o.conn.HasDpms() {
		err := o.dev.ConnectorSetProperty(o.conn.id, o.conn.propID(connDpms), uint64(o.dpmsModePending))
		if err != nil {
			logger.Warningf("%s: setting DPMS %v: %v", o.Name(), o.dpmsModePending, err)
			o.dpmsModePending = o.dpmsMode
			return false
		}
	}
	if o.dpmsModePending == output.DpmsOn {
		o.dpmsOnHandler()
	} else {
		o.dpmsOffHandler()
	}
	o.dpmsMode = o.dpmsModePending
	return true
}

func (o *Output) dpmsAtomicOff() bool {
	o.dpmsAtomicOffPending = false

	// no flip is pending, so the kernel holds no next buffer
	o.primary.dropNext(o.backend.deleteAfterFlip)
	o.primary.setNext(nil)
	o.nextPlanesFlipList = append(o.nextPlanesFlipList, o.primary)
	if !o.backend.softwareCursor {
		o.hidePending = true
	}

	if !o.doAtomicCommit(commitTest) {
		logger.Debugf("%s: atomic test commit to DPMS off failed, aborting", o.Name())
		return false
	}
	if !o.doAtomicCommit(commitReal) {
		logger.Debugf("%s: atomic commit to DPMS off failed", o.Name())
		return false
	}
	o.nextPlanesFlipList = nil
	o.dpmsOffHandler()
	return true
}

// present queues buffer for display. It fails while the output is going
// away, powered off, or a flip is outstanding.
func (o *Output) present(buffer Buffer) bool {
	if o.teardown || o.deleted {
		logger.Debugf("%s: present on a disappearing output", o.Name())
		return false
	}
	if o.dpmsModePending != output.DpmsOn {
		return false
	}
	if o.backend.atomic {
		return o.presentAtomically(buffer)
	}
	return o.presentLegacy(buffer)
}

func (o *Output) presentAtomically(buffer Buffer) bool {
	if !o.backend.sessionActive() {
		logger.Warningf("%s: refusing to present while the session is inactive", o.Name())
		return false
	}
	if o.pageFlipPending {
		logger.Errorf("%s: page not yet flipped", o.Name())
		return false
	}
	if err := o.primary.setNext(buffer); err != nil {
		logger.Warningf("%s: %v", o.Name(), err)
		return false
	}
	o.nextPlanesFlipList = append(o.nextPlanesFlipList, o.primary)

	if !o.doAtomicCommit(commitTest) {
		logger.Debugf("%s: atomic test commit failed, aborting present", o.Name())
		if o.lastWorkingState.valid {
			o.restoreLastWorkingState()
		}
		return false
	}

	wasModeset := o.modesetRequested
	if !o.doAtomicCommit(commitReal) {
		logger.Errorf("%s: atomic commit failed after a successful test commit", o.Name())
		return false
	}
	if wasModeset {
		o.lastWorkingState = lastWorkingState{
			valid:               true,
			mode:                o.mode,
			transform:           o.Transform(),
			pos:                 o.GlobalPos(),
			planeTransformation: o.primary.Transformation(),
		}
	}
	o.pageFlipPending = true
	return true
}

// restoreLastWorkingState goes back to the configuration of the last
// successful mode set and tells clients about it.
func (o *Output) restoreLastWorkingState() {
	s := o.lastWorkingState
	logger.Debugf("%s: restoring mode %s transform %v", o.Name(), s.mode.ModeName(), s.transform)
	o.mode = s.mode
	o.RestoreTransform(s.transform)
	o.SetGlobalPos(s.pos)
	o.primary.SetTransformation(s.planeTransformation)
	o.modesetRequested = true
	o.updateCursor()
	o.showCursor()
	o.SetCurrentMode(modeSize(&s.mode), mode.RefreshRate(&s.mode))
	o.NotifyModeChanged()
	o.RepaintFull()
}

func (o *Output) presentLegacy(buffer Buffer) bool {
	if o.crtc.Next() != nil {
		logger.Errorf("%s: page not yet flipped", o.Name())
		return false
	}
	if !o.backend.sessionActive() {
		o.crtc.setNext(buffer)
		return false
	}
	if o.dpmsModePending != output.DpmsOn {
		return false
	}
	if buffer == o.crtc.Current() {
		logger.Warningf("%s: %v", o.Name(), ErrBufferInUse)
		return false
	}

	if cur := o.crtc.Current(); cur == nil || needsModeChange(cur, buffer) || o.modesetRequested {
		if !o.setModeLegacy(buffer) {
			return false
		}
		o.modesetRequested = false
	}
	if err := o.dev.PageFlip(o.crtc.id, buffer.FbID(), mode.PageFlipEvent, o.token); err != nil {
		logger.Warningf("%s: page flip failed: %v", o.Name(), err)
		return false
	}
	o.crtc.setNext(buffer)
	o.pageFlipPending = true
	o.applyCursorVisibility()
	return true
}

func (o *Output) setModeLegacy(buffer Buffer) bool {
	err := o.dev.SetCrtc(o.crtc.id, buffer.FbID(), 0, 0, []uint32{o.conn.id}, &o.mode)
	if err != nil {
		logger.Warningf("%s: mode setting failed: %v", o.Name(), err)
		return false
	}
	return true
}

// blank scans out a black buffer of the mode size.
func (o *Output) blank() bool {
	want := modeSize(&o.mode)
	var stale *DumbBuffer
	if o.black == nil || o.black.Size() != want {
		b, err := NewDumbBuffer(o.dev, want)
		if err != nil {
			logger.Warningf("%s: %v", o.conn.Name(), err)
			return false
		}
		if err := b.Map(); err != nil {
			logger.Warningf("%s: %v", o.conn.Name(), err)
			b.Release()
			return false
		}
		b.Fill(color.Black)
		stale, o.black = o.black, b
	}

	black := retained{o.black}
	if !o.setModeLegacy(black) {
		if stale != nil {
			o.black.Release()
			o.black = stale
		}
		return false
	}
	if stale != nil {
		stale.Release()
	}
	o.crtc.clear(o.backend.deleteAfterFlip)
	o.crtc.setCurrent(black)
	return true
}

func (o *Output) doAtomicCommit(cm commitMode) bool {
	req := mode.NewAtomicReq()

	errorHandler := func() {
		if o.dpmsMode != o.dpmsModePending {
			logger.Warningf("%s: setting DPMS %v failed", o.Name(), o.dpmsModePending)
			o.dpmsModePending = o.dpmsMode
			if o.dpmsMode != output.DpmsOn {
				o.dpmsOffHandler()
			}
		}
		for _, p := range o.nextPlanesFlipList {
			p.dropNext(o.backend.deleteAfterFlip)
		}
		o.nextPlanesFlipList = nil
		o.destroyPendingBlob()
	}

	var flags uint32
	if o.modesetRequested {
		enable := o.dpmsModePending == output.DpmsOn
		if enable && o.pendingBlobID == 0 {
			id, err := o.dev.CreatePropertyBlob(o.mode.Bytes())
			if err != nil {
				logger.Warningf("%s: creating mode blob: %v", o.Name(), err)
				errorHandler()
				return false
			}
			o.pendingBlobID = id
		}
		if !o.atomicReqModesetPopulate(req, enable) {
			logger.Warningf("%s: failed to populate the mode set", o.Name())
			errorHandler()
			return false
		}
		flags |= mode.AtomicAllowModeset
	}

	if cm == commitReal {
		if o.dpmsModePending == output.DpmsOn {
			if flags&mode.AtomicAllowModeset == 0 {
				flags |= mode.AtomicNonblock
			}
			flags |= mode.PageFlipEvent
		}
	} else {
		flags |= mode.AtomicTestOnly
	}

	ok := true
	for i := len(o.nextPlanesFlipList) - 1; i >= 0; i-- {
		ok = o.nextPlanesFlipList[i].atomicPopulate(req) && ok
	}
	if !ok {
		logger.Warningf("%s: failed to populate the planes", o.Name())
		errorHandler()
		return false
	}

	if o.backend.debug {
		logger.Debugf("%s: atomic commit flags %#x\n%s", o.Name(), flags, spew.Sdump(req))
	}
	if err := o.dev.AtomicCommit(req, flags, o.token); err != nil {
		if cm == commitTest {
			logger.Debugf("%s: atomic test commit: %v", o.Name(), err)
		} else {
			logger.Warningf("%s: atomic commit: %v", o.Name(), err)
		}
		errorHandler()
		return false
	}
	if cm == commitTest {
		return true
	}

	o.conn.commitValues()
	o.crtc.commitValues()
	for _, p := range o.nextPlanesFlipList {
		p.commitValues()
	}
	if flags&mode.AtomicAllowModeset != 0 {
		logger.Debugf("%s: atomic mode set done", o.Name())
		o.modesetRequested = false
		o.dpmsMode = o.dpmsModePending
		o.PublishDpmsMode(o.dpmsMode)
		if o.pendingBlobID != 0 || o.dpmsMode != output.DpmsOn {
			o.destroyBlob()
			o.blobID, o.pendingBlobID = o.pendingBlobID, 0
		}
	}
	o.applyCursorVisibility()
	return true
}

var planeGeometryProps = []int{planeSrcX, planeSrcY, planeSrcW, planeSrcH,
	planeCrtcX, planeCrtcY, planeCrtcW, planeCrtcH, planeFbID, planeCrtcID}

func (o *Output) atomicReqModesetPopulate(req *mode.AtomicReq, enable bool) bool {
	p := o.primary
	p.markDirty(planeGeometryProps...)
	o.conn.markDirty(connCrtcID)
	o.crtc.markDirty(crtcModeID, crtcActive)
	if enable {
		size := modeSize(&o.mode)
		if o.hardwareTransformed() {
			size = o.PixelSize()
		}
		w, h := uint64(size.Width), uint64(size.Height)
		p.setValue(planeSrcX, 0)
		p.setValue(planeSrcY, 0)
		p.setValue(planeSrcW, w<<16)
		p.setValue(planeSrcH, h<<16)
		p.setValue(planeCrtcX, 0)
		p.setValue(planeCrtcY, 0)
		p.setValue(planeCrtcW, w)
		p.setValue(planeCrtcH, h)
		p.setValue(planeCrtcID, uint64(o.crtc.id))
	} else {
		p.clear(o.backend.deleteAfterFlip)
		for _, idx := range planeGeometryProps {
			p.setValue(idx, 0)
		}
	}

	var crtcID, blobID, active uint64
	if enable {
		crtcID, blobID, active = uint64(o.crtc.id), uint64(o.pendingBlobID), 1
		if blobID == 0 {
			blobID = uint64(o.blobID)
		}
	}
	o.conn.setValue(connCrtcID, crtcID)
	o.crtc.setValue(crtcModeID, blobID)
	o.crtc.setValue(crtcActive, active)

	return o.conn.atomicPopulate(req) && o.crtc.atomicPopulate(req)
}

func (o *Output) destroyPendingBlob() {
	if o.pendingBlobID == 0 {
		return
	}
	if err := o.dev.DestroyPropertyBlob(o.pendingBlobID); err != nil {
		logger.Debugf("%s: destroying blob %d: %v", o.Name(), o.pendingBlobID, err)
	}
	o.pendingBlobID = 0
}

func (o *Output) destroyBlob() {
	if o.blobID == 0 {
		return
	}
	if err := o.dev.DestroyPropertyBlob(o.blobID); err != nil {
		logger.Debugf("%s: destroying blob %d: %v", o.Name(), o.blobID, err)
	}
	o.blobID = 0
}

// pageFlipped handles the completion event of the outstanding flip.
func (o *Output) pageFlipped() {
	if !o.pageFlipPending {
		logger.Debugf("%s: flip event without a pending flip", o.Name())
		return
	}
	o.pageFlipPending = false
	if o.teardown {
		o.finishTeardown()
		return
	}
	o.completeFlip()
	if o.dpmsAtomicOffPending {
		o.dpmsAtomicOff()
	}
}

func (o *Output) completeFlip() {
	release := o.backend.deleteAfterFlip
	if !o.backend.atomic {
		if o.crtc.Next() != nil {
			o.crtc.flip(release)
		}
		return
	}
	if o.primary.Next() == nil {
		// the commit came from someone else, e.g. around a VT switch
		o.nextPlanesFlipList = nil
		return
	}
	for _, p := range o.nextPlanesFlipList {
		p.flip(release)
	}
	o.nextPlanesFlipList = nil
}

// Teardown removes the output after its connector vanished. With a flip in
// flight it only marks the output and the flip completion finishes it; the
// return value reports whether the output is gone.
func (o *Output) Teardown() bool {
	if o.deleted {
		return true
	}
	o.teardown = true
	if o.pageFlipPending {
		return false
	}
	o.finishTeardown()
	return true
}

func (o *Output) finishTeardown() {
	if o.deleted {
		return
	}
	o.SetDisconnected()
	o.Output.SetEnabled(false)
	o.hideCursor()

	release := o.backend.deleteAfterFlip
	if o.primary != nil {
		o.primary.clear(release)
	}
	o.crtc.clear(release)
	for i, c := range o.cursor {
		if c != nil {
			c.Release()
			o.cursor[i] = nil
		}
	}
	if o.black != nil {
		o.black.Release()
		o.black = nil
	}
	o.destroyPendingBlob()
	o.destroyBlob()

	o.deleted = true
	o.backend.registry.Release(o.token)
	o.backend.removeOutput(o)
}

func (o *Output) initCursor(size output.Size) error {
	for i := range o.cursor {
		b, err := NewDumbBuffer(o.dev, size)
		if err != nil {
			return err
		}
		if err := b.Map(); err != nil {
			b.Release()
			return err
		}
		b.Fill(color.Transparent)
		o.cursor[i] = b
	}
	return nil
}

func (o *Output) applyCursorVisibility() {
	if o.showPending {
		o.showPending = false
		o.showCursor()
	}
	if o.hidePending {
		o.hidePending = false
		o.hideCursor()
	}
}

func (o *Output) hideCursor() bool {
	if err := o.dev.SetCursor(o.crtc.id, 0, 0, 0); err != nil {
		logger.Debugf("%s: hiding cursor: %v", o.Name(), err)
		return false
	}
	return true
}

// showCursor displays the last drawn cursor buffer. After new content was
// drawn the buffers swap roles.
func (o *Output) showCursor() bool {
	if o.deleted || o.cursor[0] == nil {
		return false
	}
	idx := o.cursorIndex
	if !o.hasNewCursor {
		idx ^= 1
	}
	b := o.cursor[idx]
	size := b.Size()
	if err := o.dev.SetCursor(o.crtc.id, b.Handle(), uint32(size.Width), uint32(size.Height)); err != nil {
		logger.Debugf("%s: showing cursor: %v", o.Name(), err)
		return false
	}
	if o.hasNewCursor {
		o.cursorIndex = (o.cursorIndex + 1) % 2
		o.hasNewCursor = false
	}
	return true
}

// updateCursor draws the current cursor image into the back buffer,
// rotated and scaled for this output.
func (o *Output) updateCursor() {
	if o.deleted || o.cursor[0] == nil || o.backend.cursor == nil {
		return
	}
	img, _, imgScale := o.backend.cursor.Cursor()
	if img == nil {
		return
	}
	b := o.cursor[o.cursorIndex]
	o.hasNewCursor = true

	size := b.Size()
	dst := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	src := img.Bounds().Size()
	m := output.CursorMatrix(output.Size{Width: src.X, Height: src.Y}, imgScale, o.Scale(), o.Transform())
	draw.ApproxBiLinear.Transform(dst, m, img, img.Bounds(), draw.Over, nil)
	b.Upload(dst)
}

// moveCursor places the hotspot of the cursor at pos, in global
// compositor coordinates.
func (o *Output) moveCursor(pos image.Point) {
	if o.deleted || o.cursor[0] == nil {
		return
	}
	var hotspot image.Point
	if o.backend.cursor != nil {
		if img, hs, imgScale := o.backend.cursor.Cursor(); img != nil {
			src := img.Bounds().Size()
			logical := output.Size{Width: src.X, Height: src.Y}.Div(imgScale)
			m := output.LogicalToNativeMatrix(image.Rect(0, 0, logical.Width, logical.Height), o.Scale(), o.Transform())
			hotspot = output.MapPoint(m, hs)
		}
	}
	m := output.LogicalToNativeMatrix(o.Geometry(), o.Scale(), o.Transform())
	p := output.MapPoint(m, pos).Sub(hotspot)
	if err := o.dev.MoveCursor(o.crtc.id, int32(p.X), int32(p.Y)); err != nil {
		logger.Debugf("%s: moving cursor: %v", o.Name(), err)
	}
}

// Orientation is what an accelerometer reports for the device.
type Orientation int

const (
	OrientationUndefined Orientation = iota
	OrientationTopUp
	OrientationTopDown
	OrientationLeftUp
	OrientationRightUp
)

// automaticRotation follows the device orientation on internal panels
// whose primary plane can rotate.
func (o *Output) automaticRotation(orientation Orientation) {
	if !o.IsInternal() || o.primary == nil {
		return
	}
	var t output.Transform
	switch orientation {
	case OrientationTopUp:
		t = output.Normal
	case OrientationTopDown:
		t = output.Rotated180
	case OrientationLeftUp:
		t = output.Rotated90
	case OrientationRightUp:
		t = output.Rotated270
	default:
		return
	}
	if o.primary.SupportedTransformations()&planeTransformation(t) == 0 {
		logger.Debugf("%s: plane cannot rotate to %v", o.Name(), t)
		return
	}
	o.SetTransform(t)
	o.NotifyModeChanged()
}

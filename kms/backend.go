package kms

import (
	"context"
	"image"

	"github.com/linuxdeepin/go-lib/log"
	"golang.org/x/xerrors"

	"github.com/zhangyaninga/kwin-drm/mode"
	"github.com/zhangyaninga/kwin-drm/output"
)

// Session tells whether this process may drive the display hardware.
type Session interface {
	IsActive() bool
}

// CursorSource provides the pointer image. img is nil while the cursor is
// hidden; hotspot is in logical pixels and scale is the device pixel ratio
// img was rendered at. Images must have their origin at (0, 0).
type CursorSource interface {
	Cursor() (img image.Image, hotspot image.Point, scale float64)
}

// SizeOverrides corrects physical sizes reported by broken monitors.
type SizeOverrides interface {
	PhysicalSize(eisaID, monitorName, serial string) (output.Size, bool)
}

type Options struct {
	// Atomic uses atomic mode setting. The device must have the atomic
	// client capability enabled.
	Atomic bool
	// DeleteBufferAfterPageFlip releases buffers once they left the screen.
	// Leave it off when the renderer recycles its buffers.
	DeleteBufferAfterPageFlip bool
	SoftwareCursor            bool
	CursorSize                output.Size
	Debug                     bool

	Session    Session
	Cursor     CursorSource
	Overrides  SizeOverrides
	Compositor output.Compositor
	// Publisher returns the client facing object of a new output; nil
	// publishes nothing.
	Publisher func(name string) output.Publisher
	// OutputsOff is told when all enabled outputs went off and when one
	// comes back.
	OutputsOff func(off bool)
}

// Backend drives all outputs of one card. Apart from Run and Invoke, its
// methods must be called from the goroutine running Run, or before Run
// starts.
type Backend struct {
	dev      Device
	registry *Registry

	atomic          bool
	deleteAfterFlip bool
	softwareCursor  bool
	cursorSize      output.Size
	debug           bool

	session    Session
	cursor     CursorSource
	overrides  SizeOverrides
	compositor output.Compositor
	publisher  func(string) output.Publisher
	outputsOff func(bool)

	outputs          []*Output
	enabled          []*Output
	byToken          map[uint64]*Output
	pageFlipsPending int
	active           bool
	allOff           bool
	cursorPos        image.Point

	calls chan func()
}

func NewBackend(dev Device, opts Options) *Backend {
	b := &Backend{
		dev:             dev,
		registry:        NewRegistry(dev),
		atomic:          opts.Atomic,
		deleteAfterFlip: opts.DeleteBufferAfterPageFlip,
		softwareCursor:  opts.SoftwareCursor,
		cursorSize:      opts.CursorSize,
		debug:           opts.Debug,
		session:         opts.Session,
		cursor:          opts.Cursor,
		overrides:       opts.Overrides,
		compositor:      opts.Compositor,
		publisher:       opts.Publisher,
		outputsOff:      opts.OutputsOff,
		byToken:         make(map[uint64]*Output),
		active:          true,
		calls:           make(chan func(), 16),
	}
	if b.compositor == nil {
		b.compositor = output.NopCompositor
	}
	if b.debug {
		logger.SetLogLevel(log.LevelDebug)
	}
	if b.cursorSize.IsEmpty() {
		b.cursorSize = output.Size{Width: 64, Height: 64}
	}
	return b
}

func (b *Backend) Registry() *Registry {
	return b.registry
}

func (b *Backend) IsAtomic() bool {
	return b.atomic
}

// Outputs lists the connected outputs in connection order.
func (b *Backend) Outputs() []*Output {
	return append([]*Output(nil), b.outputs...)
}

func (b *Backend) EnabledOutputs() []*Output {
	return append([]*Output(nil), b.enabled...)
}

// Output returns the output of the given token, nil if there is none.
func (b *Backend) Output(token uint64) *Output {
	return b.byToken[token]
}

func (b *Backend) sessionActive() bool {
	if !b.active {
		return false
	}
	return b.session == nil || b.session.IsActive()
}

// UpdateOutputs probes the card and creates outputs for new connections
// and tears down the ones whose connector went away.
func (b *Backend) UpdateOutputs() error {
	if err := b.registry.Probe(); err != nil {
		return err
	}

	for _, o := range b.Outputs() {
		if c := b.registry.Connector(o.conn.id); c != nil && c.IsConnected() {
			continue
		}
		logger.Infof("%s disconnected", o.Name())
		o.Teardown()
	}

	for _, conn := range b.registry.Connectors() {
		if !conn.IsConnected() || b.byToken[uint64(conn.id)] != nil {
			continue
		}
		if err := b.addOutput(conn); err != nil {
			logger.Warning(err)
		}
	}
	return nil
}

func (b *Backend) addOutput(conn *Connector) error {
	token := uint64(conn.id)
	crtc, err := b.registry.ClaimCrtc(conn, token)
	if err != nil {
		return err
	}

	var pub output.Publisher
	if b.publisher != nil {
		pub = b.publisher(conn.Name())
	}
	o := newOutput(b, conn, crtc, pub)
	if err := o.init(); err != nil {
		b.registry.Release(token)
		return xerrors.Errorf("initializing %s: %w", conn.Name(), err)
	}
	if !b.softwareCursor {
		if err := o.initCursor(b.cursorSize); err != nil {
			logger.Warningf("%s: no hardware cursor: %v", o.Name(), err)
		}
	}

	b.outputs = append(b.outputs, o)
	b.enabled = append(b.enabled, o)
	b.byToken[token] = o
	logger.Infof("%s connected: %s, crtc %d", o.Name(), o.Description(), crtc.id)

	if b.sessionActive() {
		o.updateCursor()
		o.showCursor()
		o.moveCursor(b.cursorPos)
	}
	return nil
}

func (b *Backend) removeOutput(o *Output) {
	b.outputs = removeOutput(b.outputs, o)
	b.enabled = removeOutput(b.enabled, o)
	delete(b.byToken, o.token)
}

func removeOutput(list []*Output, o *Output) []*Output {
	for i, x := range list {
		if x == o {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

func (b *Backend) enableOutput(o *Output, enable bool) {
	if enable {
		for _, x := range b.enabled {
			if x == o {
				return
			}
		}
		b.enabled = append(b.enabled, o)
		return
	}
	b.enabled = removeOutput(b.enabled, o)
}

// checkOutputsAreOn ends the all-off state once every enabled output is on.
func (b *Backend) checkOutputsAreOn() {
	if !b.allOff {
		return
	}
	for _, o := range b.enabled {
		if o.dpmsModePending != output.DpmsOn {
			return
		}
	}
	b.allOff = false
	if b.outputsOff != nil {
		b.outputsOff(false)
	}
}

func (b *Backend) outputWentOff() {
	if b.allOff {
		return
	}
	b.allOff = true
	if b.outputsOff != nil {
		b.outputsOff(true)
	}
}

// AllOutputsOff reports whether an output was powered down and not all of
// them are back on.
func (b *Backend) AllOutputsOff() bool {
	return b.allOff
}

// Present queues buffer on o. On success the compositor is told through
// BufferSwapComplete once all queued flips completed.
func (b *Backend) Present(o *Output, buffer Buffer) bool {
	if !o.present(buffer) {
		return false
	}
	b.pageFlipsPending++
	return true
}

// DispatchEvents routes page flip completions to their outputs.
func (b *Backend) DispatchEvents(events []mode.Event) {
	for _, ev := range events {
		if ev.Type != mode.EventFlipComplete {
			continue
		}
		o := b.byToken[ev.UserData]
		if o == nil {
			logger.Debugf("flip event for unknown output %d", ev.UserData)
			continue
		}
		pending := o.pageFlipPending
		o.pageFlipped()
		if pending {
			b.flipDone()
		}
	}
}

func (b *Backend) flipDone() {
	if b.pageFlipsPending > 0 {
		b.pageFlipsPending--
	}
	if b.pageFlipsPending == 0 {
		b.compositor.BufferSwapComplete()
	}
}

// Activate follows the session. Losing it hides the cursors; getting it
// back forces a mode set on every output, re-presents buffers queued
// meanwhile and restarts the compositor.
func (b *Backend) Activate(active bool) {
	if active == b.active {
		return
	}
	b.active = active
	if !active {
		for _, o := range b.outputs {
			o.hideCursor()
		}
		return
	}

	b.pageFlipsPending = 0
	for _, o := range b.Outputs() {
		o.modesetRequested = true
		if !b.atomic {
			queued := o.crtc.Next()
			o.crtc.dropNext(false)
			if queued != nil {
				b.Present(o, queued)
			}
		}
		if !b.softwareCursor {
			o.updateCursor()
			o.showCursor()
			o.moveCursor(b.cursorPos)
		}
	}
	b.compositor.BufferSwapComplete()
	b.compositor.AddRepaintFull()
}

// UpdateCursor redraws the hardware cursor of every output from the
// cursor source.
func (b *Backend) UpdateCursor() {
	if b.softwareCursor || !b.sessionActive() {
		return
	}
	for _, o := range b.outputs {
		o.updateCursor()
		o.showCursor()
		o.moveCursor(b.cursorPos)
	}
}

func (b *Backend) MoveCursor(pos image.Point) {
	b.cursorPos = pos
	if b.softwareCursor || !b.sessionActive() {
		return
	}
	for _, o := range b.outputs {
		o.moveCursor(pos)
	}
}

func (b *Backend) HideCursor() {
	for _, o := range b.outputs {
		o.hideCursor()
	}
}

// SetOrientation rotates the internal panels to follow the device.
func (b *Backend) SetOrientation(orientation Orientation) {
	for _, o := range b.Outputs() {
		o.automaticRotation(orientation)
	}
}

// Invoke runs fn on the event loop. It is safe to call from any goroutine.
func (b *Backend) Invoke(fn func()) {
	b.calls <- fn
}

// Run dispatches page flip events, hotplug notifications and invoked calls
// until ctx is done or the device fails. Closing the device unblocks the
// event reader.
func (b *Backend) Run(ctx context.Context, hotplug <-chan struct{}) error {
	events := make(chan []mode.Event)
	errc := make(chan error, 1)
	go func() {
		for {
			evs, err := b.dev.ReadEvents()
			if err != nil {
				errc <- err
				return
			}
			select {
			case events <- evs:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			return xerrors.Errorf("reading events: %w", err)
		case evs := <-events:
			b.DispatchEvents(evs)
		case <-hotplug:
			if err := b.UpdateOutputs(); err != nil {
				logger.Warning(err)
			}
		case fn := <-b.calls:
			fn()
		}
	}
}

// Close tears down every output.
func (b *Backend) Close() {
	for _, o := range b.Outputs() {
		o.pageFlipPending = false
		o.Teardown()
	}
}

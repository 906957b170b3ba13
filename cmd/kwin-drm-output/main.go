// Command kwin-drm-output drives the displays of one card: it lights up
// every connected output, publishes them on the session bus and keeps
// presenting double buffered frames until interrupted.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/go-lib/dbusutil"
	"github.com/linuxdeepin/go-lib/log"

	"github.com/zhangyaninga/kwin-drm"
	"github.com/zhangyaninga/kwin-drm/config"
	"github.com/zhangyaninga/kwin-drm/dbusout"
	"github.com/zhangyaninga/kwin-drm/hotplug"
	"github.com/zhangyaninga/kwin-drm/kms"
	"github.com/zhangyaninga/kwin-drm/mode"
	"github.com/zhangyaninga/kwin-drm/output"
	"github.com/zhangyaninga/kwin-drm/session"
)

var logger = log.NewLogger("kwin-drm-output")

var (
	optConfig = flag.String("c", config.DefaultFile(), "config file")
	optCard   = flag.String("card", "", "device node, overrides the config file")
	optDebug  = flag.Bool("d", false, "debug output")
	optNoBus  = flag.Bool("no-bus", false, "do not publish outputs on the session bus")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		logger.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(*optConfig)
	if err != nil {
		return err
	}
	if *optCard != "" {
		cfg.Card = *optCard
	}
	if *optDebug {
		cfg.Debug = true
	}
	if cfg.Debug {
		logger.SetLogLevel(log.LevelDebug)
	}

	card, atomic, err := mode.OpenCard(cfg.Card, cfg.Atomic)
	if err != nil {
		return err
	}
	defer card.Close()
	if !drm.HasDumbBuffer(card.File()) {
		logger.Warning(cfg.Card, "has no dumb buffers")
	}
	logger.Infof("%s opened, atomic %v", cfg.Card, atomic)

	cursorSize := output.Size{Width: cfg.CursorSize, Height: cfg.CursorSize}
	if cfg.CursorSize == 0 {
		w, h := drm.CursorSize(card.File())
		cursorSize = output.Size{Width: int(w), Height: int(h)}
	}

	overrides, err := config.LoadOverrides(cfg.OverridesFile)
	if err != nil {
		logger.Warning(err)
	} else {
		if err := overrides.Watch(); err != nil {
			logger.Warning(err)
		}
		defer overrides.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := newPainter(card, cfg.DeleteBufferAfterPageFlip)
	opts := kms.Options{
		Atomic:                    atomic,
		DeleteBufferAfterPageFlip: cfg.DeleteBufferAfterPageFlip,
		SoftwareCursor:            cfg.SoftwareCursor,
		CursorSize:                cursorSize,
		Debug:                     cfg.Debug,
		Cursor:                    arrowCursor{},
		Compositor:                p,
		OutputsOff: func(off bool) {
			logger.Info("all outputs off:", off)
		},
	}
	if overrides != nil {
		opts.Overrides = overrides
	}

	var sess *session.Session
	if sysBus, err := dbus.SystemBus(); err != nil {
		logger.Warning(err)
	} else if sess, err = session.New(sysBus); err != nil {
		logger.Warning("no logind session:", err)
		sess = nil
	} else {
		opts.Session = sess
		defer sess.Close()
	}

	var publisher *dbusout.Manager
	var backend *kms.Backend
	invoke := func(fn func()) { backend.Invoke(fn) }
	if !*optNoBus {
		service, err := dbusutil.NewSessionService()
		if err != nil {
			logger.Warning(err)
		} else {
			publisher, err = dbusout.NewManager(service, invoke)
			if err != nil {
				return err
			}
			if err := service.RequestName(dbusout.DBusServiceName); err != nil {
				logger.Warning(err)
			}
			opts.Publisher = publisher.Publisher
		}
	}

	backend = kms.NewBackend(card, opts)
	p.backend = backend

	bind := func() {
		if publisher == nil {
			return
		}
		for _, o := range backend.Outputs() {
			publisher.Bind(o.Name(), o)
		}
	}
	if err := backend.UpdateOutputs(); err != nil {
		return err
	}
	bind()
	if len(backend.Outputs()) == 0 {
		logger.Warning("no connected outputs")
	}

	if sess != nil {
		sess.ConnectActiveChanged(func(active bool) {
			backend.Invoke(func() {
				if active {
					if err := drm.SetMaster(card.File()); err != nil {
						logger.Debug(err)
					}
				}
				backend.Activate(active)
			})
		})
	}

	if mon, err := hotplug.Listen(); err != nil {
		logger.Warning("no hotplug events:", err)
	} else {
		defer mon.Close()
		go func() {
			if err := mon.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Warning(err)
			}
		}()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-mon.C():
					backend.Invoke(func() {
						if err := backend.UpdateOutputs(); err != nil {
							logger.Warning(err)
						}
						bind()
						p.AddRepaintFull()
					})
				}
			}
		}()
	}

	backend.Invoke(p.AddRepaintFull)
	err = backend.Run(ctx, nil)
	backend.Close()
	p.release()
	if err == context.Canceled {
		return nil
	}
	return err
}

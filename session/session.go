// Package session follows the logind session the engine runs in. The
// display hardware may only be touched while the session is active.
package session

import (
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	login1 "github.com/linuxdeepin/go-dbus-factory/system/org.freedesktop.login1"
	"github.com/linuxdeepin/go-lib/dbusutil"
	"github.com/linuxdeepin/go-lib/dbusutil/proxy"
	"github.com/linuxdeepin/go-lib/log"
	"golang.org/x/xerrors"
)

var logger = log.NewLogger("kwin/drm/session")

const selfPath = "/org/freedesktop/login1/session/self"

type Session struct {
	id      string
	obj     login1.Session
	sigLoop *dbusutil.SignalLoop

	active atomic.Bool

	mu       sync.Mutex
	handlers []func(active bool)
}

// New resolves the session of this process on the system bus.
func New(sysBus *dbus.Conn) (*Session, error) {
	self, err := login1.NewSession(sysBus, selfPath)
	if err != nil {
		return nil, err
	}
	id, err := self.Id().Get(0)
	if err != nil {
		return nil, xerrors.Errorf("get self session id: %w", err)
	}
	path, err := login1.NewManager(sysBus).GetSession(0, id)
	if err != nil {
		return nil, xerrors.Errorf("get session path %s: %w", id, err)
	}
	obj, err := login1.NewSession(sysBus, path)
	if err != nil {
		return nil, err
	}
	active, err := obj.Active().Get(0)
	if err != nil {
		return nil, xerrors.Errorf("get session %s active: %w", id, err)
	}

	s := &Session{id: id, obj: obj}
	s.active.Store(active)

	s.sigLoop = dbusutil.NewSignalLoop(sysBus, 10)
	s.sigLoop.Start()
	obj.InitSignalExt(s.sigLoop, true)
	err = obj.Active().ConnectChanged(func(hasValue bool, value bool) {
		if !hasValue {
			return
		}
		s.setActive(value)
	})
	if err != nil {
		logger.Warning("prop active ConnectChanged failed:", err)
	}
	logger.Infof("session %s, active %v", id, active)
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

// IsActive is safe to call from any goroutine.
func (s *Session) IsActive() bool {
	return s.active.Load()
}

// ConnectActiveChanged registers fn to run, on the signal loop, whenever
// the session gains or loses the seat.
func (s *Session) ConnectActiveChanged(fn func(active bool)) {
	s.mu.Lock()
	s.handlers = append(s.handlers, fn)
	s.mu.Unlock()
}

func (s *Session) setActive(active bool) {
	if s.active.Swap(active) == active {
		return
	}
	logger.Debugf("session %s active: %v", s.id, active)
	s.mu.Lock()
	handlers := append(([]func(bool))(nil), s.handlers...)
	s.mu.Unlock()
	for _, fn := range handlers {
		fn(active)
	}
}

func (s *Session) Close() {
	if s.obj != nil {
		s.obj.RemoveHandler(proxy.RemoveAllHandlers)
	}
	if s.sigLoop != nil {
		s.sigLoop.Stop()
	}
}

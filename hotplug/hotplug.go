// Package hotplug watches kernel uevents for display connector changes.
package hotplug

import (
	"bytes"
	"context"
	"strings"

	"github.com/linuxdeepin/go-lib/log"
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

var logger = log.NewLogger("kwin/drm/hotplug")

// kernelGroup is the multicast group the kernel sends uevents to; udev
// rebroadcasts on group 2.
const kernelGroup = 1

const maxUeventLen = 8192

// Uevent is one kobject event.
type Uevent struct {
	Action  string
	DevPath string
	Env     map[string]string
}

// IsDrmHotplug reports whether a card saw a connector change.
func (u *Uevent) IsDrmHotplug() bool {
	return u.Env["SUBSYSTEM"] == "drm" && u.Env["HOTPLUG"] == "1"
}

// ParseUevent decodes "action@devpath\0KEY=VALUE\0...". Messages relayed
// by udev carry a binary header and are rejected.
func ParseUevent(b []byte) (*Uevent, bool) {
	fields := bytes.Split(bytes.TrimRight(b, "\x00"), []byte{0})
	if len(fields) == 0 {
		return nil, false
	}
	head := string(fields[0])
	at := strings.IndexByte(head, '@')
	if at <= 0 {
		return nil, false
	}
	u := &Uevent{
		Action:  head[:at],
		DevPath: head[at+1:],
		Env:     make(map[string]string, len(fields)-1),
	}
	for _, f := range fields[1:] {
		kv := strings.SplitN(string(f), "=", 2)
		if len(kv) != 2 {
			continue
		}
		u.Env[kv[0]] = kv[1]
	}
	return u, true
}

// Monitor reports connector hotplugs of DRM devices.
type Monitor struct {
	conn *netlink.Conn
	c    chan struct{}
}

func Listen() (*Monitor, error) {
	conn, err := netlink.Dial(unix.NETLINK_KOBJECT_UEVENT, &netlink.Config{
		Groups: kernelGroup,
	})
	if err != nil {
		return nil, xerrors.Errorf("dialing uevent socket: %w", err)
	}
	return &Monitor{
		conn: conn,
		c:    make(chan struct{}, 1),
	}, nil
}

// C receives a value after one or more hotplugs. Bursts are coalesced.
func (m *Monitor) C() <-chan struct{} {
	return m.c
}

// Run reads events until ctx is done or the monitor is closed.
func (m *Monitor) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		m.conn.Close()
	}()

	// uevents have no netlink header, so they are read off the socket
	// directly instead of through Receive.
	rc, err := m.conn.SyscallConn()
	if err != nil {
		return err
	}
	buf := make([]byte, maxUeventLen)
	for {
		var n int
		var rerr error
		err := rc.Read(func(fd uintptr) bool {
			n, _, rerr = unix.Recvfrom(int(fd), buf, 0)
			return rerr != unix.EAGAIN
		})
		if err == nil {
			err = rerr
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err == unix.ENOBUFS {
				logger.Warning("uevent buffer overrun, assuming hotplug")
				m.notify()
				continue
			}
			return xerrors.Errorf("reading uevent: %w", err)
		}

		u, ok := ParseUevent(buf[:n])
		if !ok || !u.IsDrmHotplug() {
			continue
		}
		logger.Debugf("hotplug on %s", u.DevPath)
		m.notify()
	}
}

func (m *Monitor) notify() {
	select {
	case m.c <- struct{}{}:
	default:
	}
}

func (m *Monitor) Close() error {
	return m.conn.Close()
}
